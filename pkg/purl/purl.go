// Package purl parses package-URL-style coordinate strings into a
// structured (ecosystem, namespace, name, version) identity.
package purl

import (
	"strings"

	"github.com/exploopio/supportscan/pkg/errors"
)

// Coordinate is the structured identity parsed from a purl string.
type Coordinate struct {
	Ecosystem string `json:"ecosystem"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
}

// String renders the coordinate back into purl form.
func (c Coordinate) String() string {
	var b strings.Builder
	b.WriteString("pkg:")
	b.WriteString(c.Ecosystem)
	if c.Namespace != "" {
		b.WriteString("/")
		b.WriteString(c.Namespace)
	}
	b.WriteString("/")
	b.WriteString(c.Name)
	if c.Version != "" {
		b.WriteString("@")
		b.WriteString(c.Version)
	}
	return b.String()
}

// Parse extracts a Coordinate from a purl string such as
// "pkg:npm/%40scope/name@1.2.3?arch=amd64#sub/path".
// Qualifiers (?...) and subpaths (#...) are stripped; percent-encoded
// characters in names are left as-is except %40 and %2F, which appear in
// scoped npm and Maven coordinates.
func Parse(s string) (*Coordinate, error) {
	const op = "purl.Parse"

	if !strings.HasPrefix(s, "pkg:") {
		return nil, errors.E(errors.KindParse, op, "missing pkg: scheme")
	}
	rest := strings.TrimPrefix(s, "pkg:")
	rest = strings.TrimPrefix(rest, "/") // tolerate pkg:/ecosystem/...

	// Drop subpath and qualifiers.
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}

	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		return nil, errors.E(errors.KindParse, op, "missing ecosystem or name")
	}

	c := &Coordinate{Ecosystem: strings.ToLower(parts[0])}

	nameVersion := parts[len(parts)-1]
	if len(parts) > 2 {
		c.Namespace = decode(strings.Join(parts[1:len(parts)-1], "/"))
	}

	if at := strings.LastIndexByte(nameVersion, '@'); at > 0 {
		c.Name = decode(nameVersion[:at])
		c.Version = decode(nameVersion[at+1:])
	} else {
		c.Name = decode(nameVersion)
	}

	if c.Name == "" {
		return nil, errors.E(errors.KindParse, op, "empty package name")
	}
	return c, nil
}

func decode(s string) string {
	s = strings.ReplaceAll(s, "%40", "@")
	s = strings.ReplaceAll(s, "%2F", "/")
	s = strings.ReplaceAll(s, "%2f", "/")
	return s
}
