// Package versions generates the plausible tag and release-name spellings
// for a declared version string. Resolvers try the candidates in order
// against upstream tag identifiers; the first match wins.
package versions

import "strings"

// Candidates returns an ordered, deduplicated list of spellings a release
// or tag system might use for version. The function is total: any
// non-empty input yields at least the literal string itself.
func Candidates(version string) []string {
	if version == "" {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(version)
	add("v" + version)

	// Declared versions sometimes carry the prefix themselves ("v1.2.3");
	// registries key releases by the bare number.
	if len(version) > 1 && (version[0] == 'v' || version[0] == 'V') && version[1] >= '0' && version[1] <= '9' {
		add(version[1:])
	}

	// Named labels such as "Json.NET 2.0": extract the numeric token.
	if strings.ContainsRune(version, ' ') {
		for _, part := range strings.Fields(version) {
			if containsDigit(part) {
				add(part)
				add("v" + part)
				break
			}
		}
		add(strings.ReplaceAll(version, " ", "_"))
		add(strings.ReplaceAll(version, " ", "-"))
	}

	// Dot-normalized forms for underscore or hyphen separated versions
	// such as "1_2_3" or "1-2-3".
	if dotted := normalizeSeparators(version); dotted != version {
		add(dotted)
		add("v" + dotted)
	}

	// Two-segment versions often tag with an explicit patch level.
	if strings.Count(version, ".") == 1 && !strings.ContainsRune(version, ' ') {
		add(version + ".0")
	}

	// Prerelease suffix stripped ("2.1.0-beta1" -> "2.1.0").
	if i := strings.IndexByte(version, '-'); i > 0 {
		base := version[:i]
		if containsDigit(base) {
			add(base)
			add("v" + base)
		}
	}

	return out
}

// normalizeSeparators rewrites underscore- and hyphen-separated numeric
// versions into dotted form. Mixed alphanumeric labels are left alone.
func normalizeSeparators(version string) string {
	replaced := strings.NewReplacer("_", ".", "-", ".").Replace(version)
	if replaced == version {
		return version
	}
	for _, seg := range strings.Split(replaced, ".") {
		if seg == "" || !allDigits(seg) {
			return version
		}
	}
	return replaced
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Matches reports whether tag is one of the accepted spellings for any of
// the given candidates. Comparison is case-insensitive and tolerant of a
// leading "v", of underscore/hyphen separators on the tag side, and of a
// project-name prefix ("widget-3.1" matches "3.1").
func Matches(tag string, candidates []string) bool {
	tagLower := strings.ToLower(tag)
	tagStripped := strings.TrimPrefix(tagLower, "v")
	for _, cand := range candidates {
		c := strings.ToLower(cand)
		if tagLower == c || tagStripped == c ||
			strings.ReplaceAll(tagLower, "_", " ") == c ||
			strings.ReplaceAll(tagLower, "-", " ") == c {
			return true
		}
		for _, sep := range []string{"-", "_", "/", " "} {
			if strings.HasSuffix(tagLower, sep+c) {
				return true
			}
		}
	}
	return false
}
