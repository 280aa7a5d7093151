// Package report assembles the JSON summary of an analysis run.
package report

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/exploopio/supportscan/pkg/analyzer"
	"github.com/exploopio/supportscan/pkg/classify"
)

// Record is one component's line in the summary.
type Record struct {
	Name            string `json:"name"`
	DeclaredVersion string `json:"declared_version,omitempty"`

	SupportLevel string `json:"support_level"`
	Confidence   string `json:"confidence"`
	Basis        string `json:"basis,omitempty"`
	EndOfLife    string `json:"end_of_life"`

	LastReleaseDate string `json:"last_release_date,omitempty"`

	// Pointer so a same-day release (age zero) still serializes.
	DaysSinceRelease *int `json:"days_since_release,omitempty"`
	UsedFallback     bool   `json:"used_fallback_version,omitempty"`
	Framework        string `json:"framework,omitempty"`

	Error string `json:"error,omitempty"`
}

// Summary is the full run report.
type Summary struct {
	RunID        string    `json:"run_id"`
	AnalysisDate time.Time `json:"analysis_date"`
	SBOMFile     string    `json:"sbom_file,omitempty"`

	TotalComponents    int `json:"total_components"`
	ActivelyMaintained int `json:"actively_maintained"`
	NoLongerMaintained int `json:"no_longer_maintained"`
	Abandoned          int `json:"abandoned"`
	Unknown            int `json:"unknown"`

	Components []Record `json:"components"`
}

// Build folds analyzer results into a summary. Results arrive in SBOM
// order and stay that way.
func Build(sbomFile string, results []analyzer.Result, now time.Time) *Summary {
	s := &Summary{
		RunID:           uuid.NewString(),
		AnalysisDate:    now.UTC(),
		SBOMFile:        sbomFile,
		TotalComponents: len(results),
		Components:      make([]Record, 0, len(results)),
	}

	for _, r := range results {
		c := r.Classification
		switch c.Level {
		case classify.ActivelyMaintained:
			s.ActivelyMaintained++
		case classify.NoLongerMaintained:
			s.NoLongerMaintained++
		case classify.Abandoned:
			s.Abandoned++
		default:
			s.Unknown++
		}

		rec := Record{
			Name:            r.Component.Name,
			DeclaredVersion: r.Component.DeclaredVersion,
			SupportLevel:    string(c.Level),
			Confidence:      string(c.Confidence),
			Basis:           string(c.Basis),
			EndOfLife:       formatEOL(c.EndOfLife),
		}
		if c.AgeDays >= 0 {
			age := c.AgeDays
			rec.DaysSinceRelease = &age
		}
		if r.Release != nil {
			rec.UsedFallback = r.Release.UsedFallbackVersion
			if r.Release.ReleaseDate != nil {
				rec.LastReleaseDate = r.Release.ReleaseDate.Format("2006-01-02")
			}
		}
		if r.Framework != nil {
			rec.Framework = r.Framework.Family
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		s.Components = append(s.Components, rec)
	}
	return s
}

func formatEOL(e classify.EOL) string {
	if e.Date != nil {
		return e.Date.Format("2006-01-02")
	}
	return e.Note
}

// Write emits the summary as indented JSON.
func (s *Summary) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteFile writes the summary to path.
func (s *Summary) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Write(f)
}
