package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the full showrunner.yaml configuration.
type Config struct {
	SchemaVersion int           `yaml:"schema_version"`
	Project       ProjectConfig `yaml:"project"`
	Directors     []Director    `yaml:"directors"`
	Models        ModelsConfig  `yaml:"models"`
	Loop          LoopConfig    `yaml:"loop"`
	Calls         CallsConfig   `yaml:"calls"`
	Logging       LoggingConfig `yaml:"logging"`
}

type ProjectConfig struct {
	Name      string `yaml:"name"`
	Workspace string `yaml:"workspace"` // sessions, locks and media output live under here
}

// Director configures one proposal voice competing in every round.
type Director struct {
	Name   string  `yaml:"name"`
	Style  string  `yaml:"style"`  // style brief interpolated into the proposal prompt
	Weight float64 `yaml:"weight"` // evaluation weight; all weights must sum to 1.0
}

type ModelsConfig struct {
	Proposal   string `yaml:"proposal"`
	Evaluation string `yaml:"evaluation"`
}

// LoopConfig bounds the per-phase refinement loop.
type LoopConfig struct {
	ScoreThreshold  float64 `yaml:"score_threshold"`   // 0-100; winner at or above this converges the phase
	MaxIterations   int     `yaml:"max_iterations"`    // rounds per phase
	MaxFailedRounds int     `yaml:"max_failed_rounds"` // consecutive all-failed rounds before the phase aborts
}

// CallsConfig governs every external call (proposal, evaluation, media).
type CallsConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	BackoffCap     time.Duration `yaml:"backoff_cap"`
	MaxConcurrency int           `yaml:"max_concurrency"`
}

// UnmarshalYAML accepts durations as strings ("180s", "2m"), which the
// yaml package does not decode into time.Duration on its own.
func (c *CallsConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Timeout        string `yaml:"timeout"`
		MaxRetries     int    `yaml:"max_retries"`
		BackoffBase    string `yaml:"backoff_base"`
		BackoffCap     string `yaml:"backoff_cap"`
		MaxConcurrency int    `yaml:"max_concurrency"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.MaxRetries = raw.MaxRetries
	c.MaxConcurrency = raw.MaxConcurrency

	for _, field := range []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"calls.timeout", raw.Timeout, &c.Timeout},
		{"calls.backoff_base", raw.BackoffBase, &c.BackoffBase},
		{"calls.backoff_cap", raw.BackoffCap, &c.BackoffCap},
	} {
		if field.src == "" {
			continue
		}
		d, err := time.ParseDuration(field.src)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.dst = d
	}
	return nil
}

type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// weightEpsilon is the tolerance when checking that director weights sum to 1.0.
const weightEpsilon = 0.001

// Load reads and parses a showrunner.yaml file, applying defaults and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses raw YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg, err := Migrate(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks a Config for logical errors.
func Validate(cfg *Config) error {
	if cfg.Project.Name == "" {
		return fmt.Errorf("project.name is required")
	}
	if cfg.Project.Workspace == "" {
		return fmt.Errorf("project.workspace is required")
	}

	if len(cfg.Directors) < 2 {
		return fmt.Errorf("at least 2 directors required, got %d", len(cfg.Directors))
	}

	seen := make(map[string]bool, len(cfg.Directors))
	var weightSum float64
	for i, d := range cfg.Directors {
		if d.Name == "" {
			return fmt.Errorf("directors[%d].name is required", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate director name %q", d.Name)
		}
		seen[d.Name] = true
		if d.Weight < 0 {
			return fmt.Errorf("directors[%d].weight must be >= 0, got %v", i, d.Weight)
		}
		weightSum += d.Weight
	}
	if math.Abs(weightSum-1.0) > weightEpsilon {
		return fmt.Errorf("director weights must sum to 1.0 (±%v), got %v", weightEpsilon, weightSum)
	}

	if cfg.Loop.ScoreThreshold <= 0 || cfg.Loop.ScoreThreshold > 100 {
		return fmt.Errorf("loop.score_threshold must be in (0, 100], got %v", cfg.Loop.ScoreThreshold)
	}
	if cfg.Loop.MaxIterations < 1 {
		return fmt.Errorf("loop.max_iterations must be >= 1, got %d", cfg.Loop.MaxIterations)
	}
	if cfg.Loop.MaxFailedRounds < 1 {
		return fmt.Errorf("loop.max_failed_rounds must be >= 1, got %d", cfg.Loop.MaxFailedRounds)
	}

	if cfg.Calls.MaxConcurrency < 1 || cfg.Calls.MaxConcurrency > 16 {
		return fmt.Errorf("calls.max_concurrency must be 1-16, got %d", cfg.Calls.MaxConcurrency)
	}
	if cfg.Calls.Timeout <= 0 {
		return fmt.Errorf("calls.timeout must be > 0, got %v", cfg.Calls.Timeout)
	}
	if cfg.Calls.MaxRetries < 0 {
		return fmt.Errorf("calls.max_retries must be >= 0, got %d", cfg.Calls.MaxRetries)
	}
	if cfg.Calls.BackoffCap < cfg.Calls.BackoffBase {
		return fmt.Errorf("calls.backoff_cap (%v) must be >= calls.backoff_base (%v)",
			cfg.Calls.BackoffCap, cfg.Calls.BackoffBase)
	}

	return nil
}
