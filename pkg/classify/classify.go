// Package classify turns a resolved release and an optional framework
// lifecycle match into a support level, a confidence grade, and the basis
// the decision rests on. The rules are an ordered list; the first rule
// whose condition holds wins.
package classify

import (
	"time"

	"github.com/exploopio/supportscan/pkg/lifecycle"
	"github.com/exploopio/supportscan/pkg/resolvers"
)

// Level is the support level assigned to a component.
type Level string

const (
	ActivelyMaintained Level = "ACTIVELY_MAINTAINED"
	NoLongerMaintained Level = "NO_LONGER_MAINTAINED"
	Abandoned          Level = "ABANDONED"
	Unknown            Level = "UNKNOWN"
)

// Confidence grades how much evidence backs the assigned level.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceNone   Confidence = "NONE"
)

// Basis names the rule that fired.
type Basis string

const (
	BasisFrameworkSupported  Basis = "framework-supported"
	BasisFrameworkEOL        Basis = "framework-eol"
	BasisExplicitDeprecation Basis = "explicit-deprecation"
	BasisAgeThreshold        Basis = "age-threshold"
	BasisInsufficientData    Basis = "insufficient-data"
)

// MaxActiveAgeDays is the release-age ceiling (5 years) under which a
// component still counts as actively maintained.
const MaxActiveAgeDays = 1825

// Result is the final classification record for one component. It is
// created once and never mutated.
type Result struct {
	Level      Level      `json:"support_level"`
	Confidence Confidence `json:"confidence"`
	Basis      Basis      `json:"basis"`

	// AgeDays is the release age used by the age rules, -1 when no
	// release date was available.
	AgeDays int `json:"age_days"`

	// EndOfLife is the assigned end-of-life. Exactly one of Date and
	// Note is set.
	EndOfLife EOL `json:"end_of_life"`
}

// EOL is an end-of-life assignment: either a concrete date or a textual
// verdict when no date can be given.
type EOL struct {
	Date *time.Time `json:"date,omitempty"`
	Note string     `json:"note,omitempty"`
}

const (
	// EOLNotSpecified marks an actively maintained component with no
	// framework window and no product end-of-life supplied.
	EOLNotSpecified = "not specified"

	// EOLCannotDetermine marks a component that could not be classified.
	EOLCannotDetermine = "cannot determine"
)

// Classifier applies the decision matrix. The zero value uses the wall
// clock; tests inject Now.
type Classifier struct {
	Now func() time.Time
}

func New() *Classifier {
	return &Classifier{Now: time.Now}
}

// Classify runs the ordered rules:
//
//  1. framework version still supported
//  2. framework version end of life
//  3. upstream deprecation or repository archival
//  4. no usable release data
//  5. release age within the five-year window
//  6. release age beyond the five-year window
//
// A future release date clamps to age zero and classifies as actively
// maintained with medium confidence rather than erroring.
func (c *Classifier) Classify(rel *resolvers.Release, fw *lifecycle.Match, productEOL *time.Time) Result {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	res := c.decide(rel, fw, now())
	res.EndOfLife = assignEOL(res.Level, fw, rel, productEOL)
	return res
}

func (c *Classifier) decide(rel *resolvers.Release, fw *lifecycle.Match, now time.Time) Result {
	if fw != nil {
		switch fw.Status {
		case lifecycle.StatusSupported:
			return Result{Level: ActivelyMaintained, Confidence: ConfidenceHigh, Basis: BasisFrameworkSupported, AgeDays: -1}
		case lifecycle.StatusEndOfLife:
			return Result{Level: NoLongerMaintained, Confidence: ConfidenceHigh, Basis: BasisFrameworkEOL, AgeDays: -1}
		}
	}

	if rel != nil && rel.Found && (rel.Deprecated || rel.Archived) {
		return Result{Level: Abandoned, Confidence: ConfidenceHigh, Basis: BasisExplicitDeprecation, AgeDays: releaseAge(rel, now)}
	}

	if rel == nil || !rel.Found || rel.ReleaseDate == nil {
		return Result{Level: Unknown, Confidence: ConfidenceNone, Basis: BasisInsufficientData, AgeDays: -1}
	}

	age := releaseAge(rel, now)
	if age == 0 && rel.ReleaseDate.After(now) {
		return Result{Level: ActivelyMaintained, Confidence: ConfidenceMedium, Basis: BasisAgeThreshold, AgeDays: 0}
	}
	if age <= MaxActiveAgeDays {
		conf := ConfidenceHigh
		if rel.UsedFallbackVersion {
			conf = ConfidenceMedium
		}
		return Result{Level: ActivelyMaintained, Confidence: conf, Basis: BasisAgeThreshold, AgeDays: age}
	}
	return Result{Level: NoLongerMaintained, Confidence: ConfidenceMedium, Basis: BasisAgeThreshold, AgeDays: age}
}

// releaseAge is the whole-day age of the release, clamped at zero.
func releaseAge(rel *resolvers.Release, now time.Time) int {
	if rel == nil || rel.ReleaseDate == nil {
		return -1
	}
	days := int(now.Sub(*rel.ReleaseDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// assignEOL computes the end-of-life verdict from the assigned level:
//
//   - actively maintained with a framework match: the framework window
//   - actively maintained otherwise: the product end-of-life when given
//   - no longer maintained or abandoned: the component's own last
//     release date, never the product window
//   - unknown: cannot determine
func assignEOL(level Level, fw *lifecycle.Match, rel *resolvers.Release, productEOL *time.Time) EOL {
	switch level {
	case ActivelyMaintained:
		if fw != nil && fw.EOLDate != nil {
			return EOL{Date: fw.EOLDate}
		}
		if productEOL != nil {
			return EOL{Date: productEOL}
		}
		return EOL{Note: EOLNotSpecified}

	case NoLongerMaintained, Abandoned:
		if fw != nil && fw.EOLDate != nil {
			return EOL{Date: fw.EOLDate}
		}
		if rel != nil && rel.ReleaseDate != nil {
			return EOL{Date: rel.ReleaseDate}
		}
		return EOL{Note: EOLCannotDetermine}

	default:
		return EOL{Note: EOLCannotDetermine}
	}
}
