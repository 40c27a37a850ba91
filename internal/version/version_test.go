package version

import "testing"

func TestGetParsesComponents(t *testing.T) {
	prevVersion, prevMajor, prevMinor, prevPatch := Version, Major, Minor, Patch
	prevBuilt, prevCommit := Built, GitCommit
	t.Cleanup(func() {
		Version, Major, Minor, Patch = prevVersion, prevMajor, prevMinor, prevPatch
		Built, GitCommit = prevBuilt, prevCommit
	})

	Version = "2.1.0"
	Major = "2"
	Minor = "1"
	Patch = "0"
	Built = "2026-08-01T00:00:00Z"
	GitCommit = "deadbee"

	info := Get()
	if info.Version != "2.1.0" {
		t.Fatalf("expected version 2.1.0, got %q", info.Version)
	}
	if info.Major != 2 || info.Minor != 1 || info.Patch != 0 {
		t.Fatalf("expected 2.1.0 components, got %d.%d.%d", info.Major, info.Minor, info.Patch)
	}
	if got := info.String(); got != "2.1.0 (commit deadbee) built 2026-08-01T00:00:00Z" {
		t.Fatalf("unexpected version string %q", got)
	}
}

func TestStringOmitsEmptyParts(t *testing.T) {
	info := Info{Version: "dev"}
	if got := info.String(); got != "dev" {
		t.Fatalf("expected bare version, got %q", got)
	}
}

func TestParseIntFallsBackToZero(t *testing.T) {
	if got := parseInt("not-a-number"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
