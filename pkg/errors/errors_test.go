package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindTransport, "transport"},
		{KindParse, "parse"},
		{KindExhausted, "exhausted"},
		{KindMalformedInput, "malformed_input"},
		{KindRateLimit, "rate_limit"},
		{KindNotFound, "not_found"},
		{KindUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestE(t *testing.T) {
	underlying := stderrors.New("boom")
	err := E(KindTransport, "resolvers.npm.Resolve", "registry request failed", underlying)

	var e *Error
	if !stderrors.As(err, &e) {
		t.Fatalf("E() did not produce *Error")
	}
	if e.Kind != KindTransport {
		t.Errorf("Kind = %v, want KindTransport", e.Kind)
	}
	if e.Op != "resolvers.npm.Resolve" {
		t.Errorf("Op = %q", e.Op)
	}
	if !stderrors.Is(err, &Error{Kind: KindTransport}) {
		t.Error("errors.Is should match on Kind")
	}
	if stderrors.Unwrap(e) != underlying {
		t.Error("Unwrap did not return underlying error")
	}
}

func TestGetKind_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", E(KindParse, "sbom.Load", "bad json"))
	if got := GetKind(err); got != KindParse {
		t.Errorf("GetKind = %v, want KindParse", got)
	}
	if got := GetKind(stderrors.New("plain")); got != KindUnknown {
		t.Errorf("GetKind(plain) = %v, want KindUnknown", got)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected bool
	}{
		{KindTransport, true},
		{KindRateLimit, true},
		{KindParse, false},
		{KindMalformedInput, false},
		{KindExhausted, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := IsTransient(E(tt.kind, "op", "msg")); got != tt.expected {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.kind, got, tt.expected)
			}
		})
	}
}
