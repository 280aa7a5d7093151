// Package errors provides custom error types for supportscan.
package errors

import (
	"errors"
	"fmt"
)

// Error is the base error type for all supportscan errors.
type Error struct {
	// Kind indicates the category of error
	Kind Kind

	// Op is the operation being performed (e.g., "resolvers.npm.Resolve")
	Op string

	// Message is a human-readable description
	Message string

	// Err is the underlying error
	Err error
}

// Op names the operation reporting the error, e.g. "npm.Resolve". It is
// an alias so plain strings and Op constants interchange freely in E.
type Op = string

// Kind represents the kind/category of error.
type Kind uint8

const (
	KindUnknown Kind = iota

	// KindTransport covers network failures, timeouts and non-2xx
	// responses. Always recoverable: the caller falls back to the next
	// resolution strategy.
	KindTransport

	// KindParse covers malformed identities and unparseable upstream
	// payloads. Recoverable: the component degrades to UNKNOWN.
	KindParse

	// KindExhausted means every resolution strategy was tried and failed.
	KindExhausted

	// KindMalformedInput marks a component the normalizer should never
	// have produced (e.g. empty name). Surfaced per component, never
	// fatal to the batch.
	KindMalformedInput

	// KindRateLimit indicates the upstream throttled us.
	KindRateLimit

	// KindNotFound indicates the upstream answered but has no such entry.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	case KindExhausted:
		return "exhausted"
	case KindMalformedInput:
		return "malformed_input"
	case KindRateLimit:
		return "rate_limit"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// E constructs an Error from the given arguments.
// Arguments can be: Kind, string (Op then Message), error.
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case string:
			if e.Op == "" {
				e.Op = a
			} else {
				e.Message = a
			}
		case error:
			e.Err = a
		}
	}
	return e
}

// New creates a new simple error.
func New(message string) error {
	return &Error{Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// GetKind returns the Kind of the error, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports whether the error indicates a recoverable upstream
// condition rather than a defect in the input.
func IsTransient(err error) bool {
	switch GetKind(err) {
	case KindTransport, KindRateLimit:
		return true
	}
	return false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return GetKind(err) == KindNotFound
}

// Common errors.
var (
	// ErrNoIdentity is returned when a component carries neither a package
	// coordinate nor any candidate source URL.
	ErrNoIdentity = &Error{Kind: KindExhausted, Message: "no package coordinate or source URL"}

	// ErrEmptyName marks a component the SBOM normalizer produced without
	// a name, which indicates an upstream normalization defect.
	ErrEmptyName = &Error{Kind: KindMalformedInput, Message: "component has no name"}
)
