package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/thermal.report/internal/thermal"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return path
}

func TestEmptyDefaults(t *testing.T) {
	cfg := Empty()
	if got := cfg.GetMatchThresholdRGB(); got != thermal.DefaultMatchThreshold {
		t.Errorf("default threshold = %v, want %v", got, thermal.DefaultMatchThreshold)
	}
	if cfg.GetUnits() != DefaultUnits {
		t.Errorf("default units = %q", cfg.GetUnits())
	}
	if cfg.GetDBPath() != DefaultDBPath {
		t.Errorf("default db path = %q", cfg.GetDBPath())
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"match_threshold_rgb": 5.5}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.GetMatchThresholdRGB(); got != 5.5 {
		t.Errorf("threshold = %v, want 5.5", got)
	}
	// Untouched fields keep defaults.
	if cfg.GetUnits() != DefaultUnits {
		t.Errorf("units = %q, want default", cfg.GetUnits())
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, "tuning.json",
		`{"match_threshold_rgb": 12, "units": "fahrenheit", "db_path": "history.db"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetUnits() != "fahrenheit" || cfg.GetDBPath() != "history.db" {
		t.Errorf("unexpected config: units=%q db=%q", cfg.GetUnits(), cfg.GetDBPath())
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
	}{
		{"wrong extension", "tuning.yaml", `{}`},
		{"bad json", "tuning.json", `{`},
		{"negative threshold", "tuning.json", `{"match_threshold_rgb": -1}`},
		{"huge threshold", "tuning.json", `{"match_threshold_rgb": 9000}`},
		{"bad units", "tuning.json", `{"units": "rankine"}`},
		{"empty db path", "tuning.json", `{"db_path": ""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.file, tc.body)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does/not/exist.json"); err == nil {
		t.Error("expected error for missing file")
	}
}
