package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTuning(t, `
tick_rate_hz: 10
radiation:
  max_distance: 50
  min_intensity: 2.5
  simplified_same_grid: false
  workers: 4
`)
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 10 {
		t.Fatalf("expected tick rate 10, got %d", got.TickRateHz)
	}
	cfg := got.RadiationConfig()
	if cfg.MaxDistance != 50 || cfg.MinIntensity != 2.5 || cfg.SimplifiedSameGrid || cfg.Workers != 4 {
		t.Fatalf("unexpected radiation config: %+v", cfg)
	}
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	path := writeTuning(t, "tick_rate_hz: 7\n")
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	cfg := got.RadiationConfig()
	if cfg.MaxDistance != def.Radiation.MaxDistance {
		t.Fatalf("expected default max distance, got %v", cfg.MaxDistance)
	}
	if !cfg.SimplifiedSameGrid {
		t.Fatalf("expected simplified same-grid to stay enabled by default")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero tick rate", "tick_rate_hz: 0\n"},
		{"negative max distance", "radiation:\n  max_distance: -5\n"},
		{"negative min intensity", "radiation:\n  min_intensity: -1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeTuning(t, tc.body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
