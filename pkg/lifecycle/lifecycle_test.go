package lifecycle

import (
	"testing"
	"time"
)

func fixedDetector(t *testing.T) *Detector {
	t.Helper()
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	return &Detector{Now: func() time.Time { return now }}
}

func TestDetect_Supported(t *testing.T) {
	d := fixedDetector(t)
	m := d.Detect("System.Text.Json", "8.0.4")
	if m == nil {
		t.Fatal("expected framework match")
	}
	if m.Family != "dotnet" || m.Version != ".NET 8.0" {
		t.Errorf("match = %+v", m)
	}
	if m.Status != StatusSupported {
		t.Errorf("status = %v, want supported", m.Status)
	}
	if m.EOLDate == nil || m.EOLDate.Format("2006-01-02") != "2026-11-10" {
		t.Errorf("eol = %v", m.EOLDate)
	}
}

func TestDetect_EndOfLife(t *testing.T) {
	d := fixedDetector(t)
	tests := []struct {
		name, version, wantVersion string
	}{
		{"Microsoft.Extensions.Logging", "6.0.0", ".NET 6.0"},
		{"System.Memory", "3.1.2", ".NET Core 3.1"},
		{"python", "2.7.18", "Python 2.7"},
		{"node", "14.21.3", "Node.js 14"},
		{"spring-core", "5.3.21", "Spring Framework 5.x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := d.Detect(tt.name, tt.version)
			if m == nil {
				t.Fatalf("Detect(%q, %q) = nil", tt.name, tt.version)
			}
			if m.Status != StatusEndOfLife {
				t.Errorf("status = %v, want endOfLife", m.Status)
			}
			if m.Version != tt.wantVersion {
				t.Errorf("version = %q, want %q", m.Version, tt.wantVersion)
			}
		})
	}
}

func TestDetect_DatePassedOverridesTier(t *testing.T) {
	// Node.js 18 is tabled as LTS with EOL 2025-04-30; by mid-2025 the
	// window has closed even though the tier is not EOL.
	d := fixedDetector(t)
	m := d.Detect("node", "18.19.0")
	if m == nil {
		t.Fatal("expected match")
	}
	if m.Status != StatusEndOfLife {
		t.Errorf("status = %v, want endOfLife after window closed", m.Status)
	}
}

func TestDetect_NoFamilyMatch(t *testing.T) {
	d := fixedDetector(t)
	for _, name := range []string{"lodash", "requests", "Newtonsoft.Json", "systemd"} {
		if m := d.Detect(name, "1.0.0"); m != nil {
			t.Errorf("Detect(%q) = %+v, want nil", name, m)
		}
	}
}

func TestDetect_UnmodeledVersion(t *testing.T) {
	d := fixedDetector(t)
	// Family matches but the version has no lifecycle entry: no match,
	// never a guess.
	if m := d.Detect("System.Text.Json", "1.2.3"); m != nil {
		t.Errorf("unmodeled version matched: %+v", m)
	}
	if m := d.Detect("python", "4.0.0"); m != nil {
		t.Errorf("unmodeled version matched: %+v", m)
	}
	if m := d.Detect("System.Text.Json", "not-a-version"); m != nil {
		t.Errorf("unparseable version matched: %+v", m)
	}
}

func TestDetect_SpringBootBeforeSpring(t *testing.T) {
	d := fixedDetector(t)
	m := d.Detect("spring-boot-starter-web", "2.7.18")
	if m == nil {
		t.Fatal("expected match")
	}
	if m.Version != "Spring Boot 2.x" {
		t.Errorf("version = %q, want Spring Boot 2.x", m.Version)
	}
	if m.Status != StatusEndOfLife {
		t.Errorf("status = %v", m.Status)
	}
}

func TestDetect_LegacyJavaVersion(t *testing.T) {
	d := fixedDetector(t)
	m := d.Detect("javax.servlet", "1.8.0_292")
	if m == nil {
		t.Fatal("expected match")
	}
	if m.Version != "Java 8" {
		t.Errorf("version = %q, want Java 8", m.Version)
	}
	if m.Status != StatusSupported {
		t.Errorf("status = %v, want supported (extended window)", m.Status)
	}
}

func TestFamilies(t *testing.T) {
	fams := Families()
	if len(fams) == 0 {
		t.Fatal("no families")
	}
	want := map[string]bool{"dotnet": true, "java": true, "python": true, "nodejs": true, "spring": true, "spring-boot": true}
	for _, f := range fams {
		delete(want, f)
	}
	if len(want) != 0 {
		t.Errorf("missing families: %v", want)
	}
}
