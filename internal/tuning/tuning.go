package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"radfield/server/internal/radiation"
)

// Tuning is the operator-facing runtime configuration loaded from
// config/tuning.yaml. Zero fields fall back to defaults so a partial file
// stays valid.
type Tuning struct {
	TickRateHz      int `yaml:"tick_rate_hz"`
	CatchupMaxTicks int `yaml:"catchup_max_ticks"`

	Radiation RadiationTuning `yaml:"radiation"`

	ListenAddr   string `yaml:"listen_addr"`
	ScenarioPath string `yaml:"scenario_path"`

	Logging LoggingTuning `yaml:"logging"`
	Debug   DebugTuning   `yaml:"debug"`
}

type RadiationTuning struct {
	MaxDistance        float64 `yaml:"max_distance"`
	MinIntensity       float64 `yaml:"min_intensity"`
	SimplifiedSameGrid *bool   `yaml:"simplified_same_grid"`
	IndexCellSize      float64 `yaml:"index_cell_size"`
	Workers            int     `yaml:"workers"`
}

type LoggingTuning struct {
	Sinks       []string `yaml:"sinks"`
	MinSeverity string   `yaml:"min_severity"`
	JSONPath    string   `yaml:"json_path"`
}

type DebugTuning struct {
	TraceDir      string `yaml:"trace_dir"`
	TickStorePath string `yaml:"tick_store_path"`
}

// Default returns the tuning used when no file is supplied.
func Default() Tuning {
	enabled := true
	return Tuning{
		TickRateHz:      5,
		CatchupMaxTicks: 3,
		ListenAddr:      ":8080",
		Radiation: RadiationTuning{
			MaxDistance:        100,
			MinIntensity:       0.1,
			SimplifiedSameGrid: &enabled,
			IndexCellSize:      64,
			Workers:            1,
		},
		Logging: LoggingTuning{
			Sinks:       []string{"console"},
			MinSeverity: "info",
		},
	}
}

// Load reads and validates a tuning file, filling omitted fields with
// defaults.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate rejects values the simulation cannot run with.
func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tuning: tick_rate_hz must be positive, got %d", t.TickRateHz)
	}
	if t.Radiation.MaxDistance <= 0 {
		return fmt.Errorf("tuning: radiation.max_distance must be positive, got %v", t.Radiation.MaxDistance)
	}
	if t.Radiation.MinIntensity < 0 {
		return fmt.Errorf("tuning: radiation.min_intensity must not be negative, got %v", t.Radiation.MinIntensity)
	}
	if t.Radiation.Workers < 0 {
		return fmt.Errorf("tuning: radiation.workers must not be negative, got %d", t.Radiation.Workers)
	}
	return nil
}

// RadiationConfig maps the tuning onto the pass configuration.
func (t Tuning) RadiationConfig() radiation.Config {
	cfg := radiation.DefaultConfig()
	cfg.MaxDistance = t.Radiation.MaxDistance
	cfg.MinIntensity = t.Radiation.MinIntensity
	if t.Radiation.SimplifiedSameGrid != nil {
		cfg.SimplifiedSameGrid = *t.Radiation.SimplifiedSameGrid
	}
	if t.Radiation.IndexCellSize > 0 {
		cfg.IndexCellSize = t.Radiation.IndexCellSize
	}
	if t.Radiation.Workers > 0 {
		cfg.Workers = t.Radiation.Workers
	}
	return cfg
}
