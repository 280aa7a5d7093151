package sbom

import (
	"encoding/json"
	"strings"

	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/purl"
)

// Format identifies the SBOM dialect.
type Format string

const (
	FormatCycloneDX Format = "CycloneDX"
	FormatSPDX      Format = "SPDX"
	FormatUnknown   Format = "Unknown"
)

// Document is a loaded SBOM. The raw JSON tree is retained so enrichment
// preserves every field of the input.
type Document struct {
	Format      Format
	SpecVersion string

	raw map[string]any
}

// Load parses an SBOM from JSON and detects its dialect.
func Load(data []byte) (*Document, error) {
	const op = "sbom.Load"

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.E(errors.KindParse, op, "invalid JSON", err)
	}

	d := &Document{raw: raw}
	d.Format, d.SpecVersion = detectFormat(raw)
	if d.Format == FormatUnknown {
		return nil, errors.E(errors.KindParse, op, "unrecognized SBOM format (want CycloneDX 1.4+ or SPDX 2.2+)")
	}
	return d, nil
}

// detectFormat identifies the dialect and spec version, inferring from
// document structure when the format field is absent.
func detectFormat(raw map[string]any) (Format, string) {
	if bf, _ := raw["bomFormat"].(string); bf == "CycloneDX" {
		v, _ := raw["specVersion"].(string)
		if v == "" {
			v = "Unknown"
		}
		return FormatCycloneDX, v
	}
	if sv, _ := raw["spdxVersion"].(string); sv != "" {
		return FormatSPDX, strings.TrimPrefix(sv, "SPDX-")
	}

	// Infer from structure.
	_, hasPackages := raw["packages"]
	_, hasCreation := raw["creationInfo"]
	if hasPackages && hasCreation {
		return FormatSPDX, "Unknown"
	}
	_, hasComponents := raw["components"]
	_, hasMetadata := raw["metadata"]
	if hasComponents && hasMetadata {
		return FormatCycloneDX, "Unknown"
	}

	return FormatUnknown, ""
}

// Components normalizes the document's entries in document order.
func (d *Document) Components() []Component {
	switch d.Format {
	case FormatCycloneDX:
		return d.cycloneDXComponents()
	case FormatSPDX:
		return d.spdxComponents()
	}
	return nil
}

// Len returns the number of entries without normalizing them.
func (d *Document) Len() int {
	key := "components"
	if d.Format == FormatSPDX {
		key = "packages"
	}
	entries, _ := d.raw[key].([]any)
	return len(entries)
}

// Marshal serializes the (possibly enriched) document.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d.raw, "", "  ")
}

func (d *Document) cycloneDXComponents() []Component {
	entries, _ := d.raw["components"].([]any)
	out := make([]Component, 0, len(entries))

	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			out = append(out, Component{})
			continue
		}
		c := Component{
			Name:            str(m["name"]),
			DeclaredVersion: str(m["version"]),
		}
		if p := str(m["purl"]); p != "" {
			if coord, err := purl.Parse(p); err == nil {
				c.Coordinate = coord
			}
		}
		refs, _ := m["externalReferences"].([]any)
		for _, r := range refs {
			rm, ok := r.(map[string]any)
			if !ok {
				continue
			}
			url := str(rm["url"])
			if url == "" {
				continue
			}
			c.CandidateSourceURLs = append(c.CandidateSourceURLs, SourceURL{
				URL:  url,
				Kind: refKind(str(rm["type"])),
			})
		}
		out = append(out, c)
	}
	return out
}

func (d *Document) spdxComponents() []Component {
	entries, _ := d.raw["packages"].([]any)
	out := make([]Component, 0, len(entries))

	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			out = append(out, Component{})
			continue
		}
		c := Component{
			Name:            str(m["name"]),
			DeclaredVersion: str(m["versionInfo"]),
		}

		var purlStr string
		refs, _ := m["externalRefs"].([]any)
		for _, r := range refs {
			rm, ok := r.(map[string]any)
			if !ok {
				continue
			}
			refType := str(rm["referenceType"])
			locator := str(rm["referenceLocator"])
			switch refType {
			case "purl":
				if purlStr == "" {
					purlStr = locator
				}
			case "vcs", "repository", "website":
				if locator != "" {
					c.CandidateSourceURLs = append(c.CandidateSourceURLs, SourceURL{
						URL:  locator,
						Kind: refKind(refType),
					})
				}
			}
		}

		if home := str(m["homepage"]); home != "" {
			c.CandidateSourceURLs = append(c.CandidateSourceURLs, SourceURL{URL: home, Kind: RefWebsite})
		}

		// downloadLocation is either a purl, a plain URL, or NOASSERTION.
		if dl := str(m["downloadLocation"]); strings.HasPrefix(dl, "pkg:") {
			if purlStr == "" {
				purlStr = dl
			}
		} else if strings.HasPrefix(dl, "http://") || strings.HasPrefix(dl, "https://") {
			c.CandidateSourceURLs = append(c.CandidateSourceURLs, SourceURL{URL: dl, Kind: RefDistribution})
		}
		if purlStr != "" {
			if coord, err := purl.Parse(purlStr); err == nil {
				c.Coordinate = coord
			}
		}

		out = append(out, c)
	}
	return out
}

func refKind(t string) RefKind {
	switch t {
	case "vcs":
		return RefVCS
	case "repository":
		return RefRepository
	case "website":
		return RefWebsite
	case "distribution":
		return RefDistribution
	}
	return RefOther
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
