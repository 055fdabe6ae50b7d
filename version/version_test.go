package version

import (
	"strings"
	"testing"
	"time"
)

func restore(t *testing.T) {
	t.Helper()
	v, c, b := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = v, c, b })
}

func TestGetLinkerValues(t *testing.T) {
	restore(t)
	Version, GitCommit, BuildTime = "1.2.0", "abc1234def", "2026-01-15T10:30:00Z"

	info := Get()
	if info.Version != "1.2.0" {
		t.Errorf("Version = %q", info.Version)
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected commit truncated to 7 chars, got %q", info.GitCommit)
	}
	if !info.BuildDate.Equal(time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("BuildDate = %v", info.BuildDate)
	}
}

func TestInfoFormatting(t *testing.T) {
	tests := []struct {
		name      string
		info      Info
		short     string
		isRelease bool
	}{
		{"dev", Info{Version: "dev"}, "dev", false},
		{"release", Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234", true},
		{"dirty", Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Short(); got != tt.short {
				t.Errorf("Short() = %q, want %q", got, tt.short)
			}
			if got := tt.info.IsRelease(); got != tt.isRelease {
				t.Errorf("IsRelease() = %v, want %v", got, tt.isRelease)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "1.0.0", GoVersion: "go1.26.0", BuildDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	s := info.String()
	for _, want := range []string{"1.0.0", "go1.26.0", "built 2026-02-01T00:00:00Z"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
