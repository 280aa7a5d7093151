package sbom

import (
	"strings"

	"github.com/exploopio/supportscan/pkg/errors"
)

// Annotate writes support analysis results back into the document entry at
// index. CycloneDX entries receive properties (replacing any prior
// support* entries); SPDX entries receive annotations, since SPDX has no
// standard properties field.
func (d *Document) Annotate(index int, p SupportProperties) error {
	const op = "sbom.Annotate"

	key := "components"
	if d.Format == FormatSPDX {
		key = "packages"
	}
	entries, _ := d.raw[key].([]any)
	if index < 0 || index >= len(entries) {
		return errors.E(errors.KindMalformedInput, op, "component index out of range")
	}
	m, ok := entries[index].(map[string]any)
	if !ok {
		return errors.E(errors.KindMalformedInput, op, "component entry is not an object")
	}

	if d.Format == FormatSPDX {
		annotateSPDX(m, p)
	} else {
		annotateCycloneDX(m, p)
	}
	return nil
}

func annotateCycloneDX(m map[string]any, p SupportProperties) {
	existing, _ := m["properties"].([]any)

	// Drop stale support analysis properties from previous runs.
	props := make([]any, 0, len(existing)+6)
	for _, e := range existing {
		pm, ok := e.(map[string]any)
		if ok && strings.HasPrefix(str(pm["name"]), "support") {
			continue
		}
		props = append(props, e)
	}

	add := func(name, value string) {
		props = append(props, map[string]any{"name": name, "value": value})
	}
	add("supportLevel", p.Level)
	add("supportEndOfLife", p.EndOfLife)
	add("supportConfidence", p.Confidence)
	add("supportLastReleaseDate", orUnknown(p.LastReleaseDate))
	add("supportDaysSinceRelease", orUnknown(p.DaysSinceRelease))
	add("supportAnalysisTimestamp", p.Timestamp)

	m["properties"] = props
}

func annotateSPDX(m map[string]any, p SupportProperties) {
	existing, _ := m["annotations"].([]any)

	add := func(comment string) {
		existing = append(existing, map[string]any{
			"annotationDate": p.Timestamp,
			"comment":        comment,
		})
	}
	add("supportLevel: " + p.Level)
	add("supportEndOfLife: " + p.EndOfLife)
	add("supportConfidence: " + p.Confidence)
	add("supportLastReleaseDate: " + orUnknown(p.LastReleaseDate))
	add("supportDaysSinceRelease: " + orUnknown(p.DaysSinceRelease))

	m["annotations"] = existing
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
