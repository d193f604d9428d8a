package version

import (
	"testing"
	"time"
)

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() { Version, GitCommit, BuildTime = v, c, b }
}

func TestGetStamped(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.4.0"
	GitCommit = "abc1234def"
	BuildTime = "2024-01-15T10:30:00Z"

	info := Get()
	if info.Version != "1.4.0" {
		t.Errorf("expected '1.4.0', got %q", info.Version)
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected commit truncated to 'abc1234', got %q", info.GitCommit)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !info.BuildDate.Equal(want) {
		t.Errorf("expected build date %v, got %v", want, info.BuildDate)
	}
}

func TestGetInvalidBuildTimeFallsBack(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.4.0"
	BuildTime = "yesterday"

	info := Get()
	if info.Version != "1.4.0" {
		t.Errorf("expected '1.4.0', got %q", info.Version)
	}
	if got := info.String(); got == "" || got[:5] != "1.4.0" {
		t.Errorf("unexpected String() %q", got)
	}
}

func TestInfoFormatting(t *testing.T) {
	date := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		info    Info
		short   string
		full    string
		release bool
	}{
		{"dev", Info{Version: "dev"}, "dev", "dev", false},
		{"release", Info{Version: "1.0.0", GitCommit: "abc1234", BuildDate: date}, "1.0.0-abc1234", "1.0.0-abc1234 (built 2024-01-15T10:30:00Z)", true},
		{"dirty", Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty", "1.0.0-abc1234-dirty", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Short(); got != tc.short {
				t.Errorf("Short() = %q, want %q", got, tc.short)
			}
			if got := tc.info.String(); got != tc.full {
				t.Errorf("String() = %q, want %q", got, tc.full)
			}
			if got := tc.info.Release(); got != tc.release {
				t.Errorf("Release() = %v, want %v", got, tc.release)
			}
		})
	}
}

func TestInfoFields(t *testing.T) {
	f := Info{Version: "1.0.0", GitCommit: "abc", GoVersion: "go1.26"}.Fields()
	if f["version"] != "1.0.0" || f["git_commit"] != "abc" || f["go_version"] != "go1.26" {
		t.Errorf("unexpected fields %v", f)
	}
}
