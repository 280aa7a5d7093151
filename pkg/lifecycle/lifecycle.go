// Package lifecycle recognizes components that are parts of a versioned
// runtime or framework and maps them onto that framework's own support
// window. The tables are static lookup data: each family carries a
// name-pattern set and a version-to-lifecycle map.
package lifecycle

import (
	"regexp"
	"strings"
	"time"
)

// Status is a framework version's support state.
type Status string

const (
	StatusSupported Status = "supported"
	StatusEndOfLife Status = "endOfLife"
	StatusUnknown   Status = "unknown"
)

// Match annotates a component that belongs to a known framework family.
// Absence of a Match means "not a framework part", never "framework ended".
type Match struct {
	// Family is the framework family key (e.g. "dotnet", "java").
	Family string

	// Version is the normalized framework version label (e.g. ".NET 8.0").
	Version string

	// Status is the support state at detection time.
	Status Status

	// EOLDate is the published end-of-support date, when known.
	EOLDate *time.Time
}

// entry is one row in a family's lifecycle table.
type entry struct {
	label string // display label, e.g. ".NET 8.0"
	eol   string // YYYY-MM-DD
	tier  string // LTS, STS, Active, Security, EOL
}

// family is one recognized runtime/framework.
type family struct {
	name     string
	patterns []*regexp.Regexp
	// token extracts the lookup key from a declared version string;
	// empty means the version cannot be mapped.
	token    func(version string) string
	versions map[string]entry
}

var (
	reMajorMinor = regexp.MustCompile(`^(\d+)\.(\d+)`)
	reMajor      = regexp.MustCompile(`^(\d+)`)
)

func majorMinorToken(version string) string {
	m := reMajorMinor.FindStringSubmatch(version)
	if m == nil {
		return ""
	}
	return m[1] + "." + m[2]
}

func majorToken(version string) string {
	m := reMajor.FindStringSubmatch(version)
	if m == nil {
		return ""
	}
	return m[1]
}

// javaToken maps both modern ("17.0.2") and legacy ("1.8.0_292") version
// schemes onto the major release number.
func javaToken(version string) string {
	if strings.HasPrefix(version, "1.") {
		m := reMajorMinor.FindStringSubmatch(version)
		if m != nil {
			return m[2]
		}
		return ""
	}
	return majorToken(version)
}

var families = []family{
	{
		name: "dotnet",
		patterns: compile(
			`^System\.`,
			`^Microsoft\.NETCore\.`,
			`^Microsoft\.Extensions\.`,
			`^runtime\.native\.`,
			`^runtime\.`,
			`^NETStandard\.Library$`,
		),
		token: majorMinorToken,
		versions: map[string]entry{
			"9.0": {".NET 9.0", "2026-05-12", "STS"},
			"8.0": {".NET 8.0", "2026-11-10", "LTS"},
			"7.0": {".NET 7.0", "2024-05-14", "EOL"},
			"6.0": {".NET 6.0", "2024-11-12", "EOL"},
			"5.0": {".NET 5.0", "2022-05-10", "EOL"},
			"3.1": {".NET Core 3.1", "2022-12-13", "EOL"},
			"3.0": {".NET Core 3.0", "2020-03-03", "EOL"},
			"2.1": {".NET Core 2.1", "2021-08-21", "EOL"},
			"4.8": {".NET Framework 4.8", "2028-01-11", "LTS"},
			"4.7": {".NET Framework 4.7", "2028-01-11", "LTS"},
			"4.6": {".NET Framework 4.6", "2028-01-11", "LTS"},
		},
	},
	{
		name: "java",
		patterns: compile(
			`^java\.`,
			`^javax\.`,
			`^jakarta\.`,
		),
		token: javaToken,
		versions: map[string]entry{
			"21": {"Java 21", "2031-09-01", "LTS"},
			"17": {"Java 17", "2029-09-01", "LTS"},
			"11": {"Java 11", "2026-09-01", "LTS"},
			"8":  {"Java 8", "2030-12-01", "LTS"},
			"7":  {"Java 7", "2022-07-01", "EOL"},
			"6":  {"Java 6", "2018-12-01", "EOL"},
		},
	},
	{
		name: "python",
		patterns: compile(
			`^python$`,
			`^cpython$`,
		),
		token: majorMinorToken,
		versions: map[string]entry{
			"3.13": {"Python 3.13", "2029-10-01", "Active"},
			"3.12": {"Python 3.12", "2028-10-01", "Active"},
			"3.11": {"Python 3.11", "2027-10-01", "Active"},
			"3.10": {"Python 3.10", "2026-10-01", "Active"},
			"3.9":  {"Python 3.9", "2025-10-01", "Security"},
			"3.8":  {"Python 3.8", "2024-10-01", "EOL"},
			"3.7":  {"Python 3.7", "2023-06-27", "EOL"},
			"3.6":  {"Python 3.6", "2021-12-23", "EOL"},
			"2.7":  {"Python 2.7", "2020-01-01", "EOL"},
		},
	},
	{
		name: "nodejs",
		patterns: compile(
			`^node$`,
			`^nodejs$`,
		),
		token: majorToken,
		versions: map[string]entry{
			"22": {"Node.js 22", "2027-04-30", "LTS"},
			"20": {"Node.js 20", "2026-04-30", "LTS"},
			"18": {"Node.js 18", "2025-04-30", "LTS"},
			"16": {"Node.js 16", "2023-09-11", "EOL"},
			"14": {"Node.js 14", "2023-04-30", "EOL"},
			"12": {"Node.js 12", "2022-04-30", "EOL"},
		},
	},
	{
		name: "spring",
		patterns: compile(
			`^spring-`,
			`^org\.springframework\.`,
		),
		token: majorToken,
		versions: map[string]entry{
			"6": {"Spring Framework 6.x", "2026-12-01", "Active"},
			"5": {"Spring Framework 5.x", "2024-12-31", "EOL"},
		},
	},
	{
		name: "spring-boot",
		patterns: compile(
			`^spring-boot`,
			`^org\.springframework\.boot`,
		),
		token: majorToken,
		versions: map[string]entry{
			"3": {"Spring Boot 3.x", "2025-11-01", "Active"},
			"2": {"Spring Boot 2.x", "2023-11-24", "EOL"},
		},
	},
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Detector matches components against the framework tables. The clock is
// injectable so support windows are testable.
type Detector struct {
	// Now supplies the current time; defaults to time.Now in UTC.
	Now func() time.Time
}

// NewDetector creates a detector with the wall clock.
func NewDetector() *Detector {
	return &Detector{Now: func() time.Time { return time.Now().UTC() }}
}

// Detect is a pure function over (name, declaredVersion). Name pattern
// first; an unmatched name or an unmodeled version both return nil rather
// than asserting false confidence.
func (d *Detector) Detect(name, declaredVersion string) *Match {
	fam := matchFamily(name)
	if fam == nil {
		return nil
	}

	token := fam.token(declaredVersion)
	if token == "" {
		return nil
	}
	e, ok := fam.versions[token]
	if !ok {
		return nil
	}

	eol, err := time.Parse("2006-01-02", e.eol)
	if err != nil {
		return nil
	}

	status := StatusSupported
	if e.tier == "EOL" || !eol.After(d.now()) {
		status = StatusEndOfLife
	}

	return &Match{
		Family:  fam.name,
		Version: e.label,
		Status:  status,
		EOLDate: &eol,
	}
}

func (d *Detector) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// matchFamily returns the first family whose name pattern matches.
// spring-boot is checked before spring because its prefix is a superset.
func matchFamily(name string) *family {
	// Boot first: "spring-boot-starter" matches both pattern sets.
	for i := len(families) - 1; i >= 0; i-- {
		for _, re := range families[i].patterns {
			if re.MatchString(name) {
				return &families[i]
			}
		}
	}
	return nil
}

// Families lists the recognized framework family keys.
func Families() []string {
	out := make([]string, len(families))
	for i, f := range families {
		out[i] = f.name
	}
	return out
}
