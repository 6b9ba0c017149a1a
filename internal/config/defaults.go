package config

import "time"

func applyDefaults(cfg *Config) {
	if cfg.SchemaVersion == 0 {
		cfg.SchemaVersion = 1
	}
	if cfg.Project.Workspace == "" {
		cfg.Project.Workspace = ".showrunner"
	}

	if len(cfg.Directors) == 0 {
		cfg.Directors = DefaultDirectors()
	}

	// Model defaults
	if cfg.Models.Proposal == "" {
		cfg.Models.Proposal = "gemini-2.5-pro"
	}
	if cfg.Models.Evaluation == "" {
		cfg.Models.Evaluation = "gemini-2.5-flash"
	}

	// Loop defaults
	if cfg.Loop.ScoreThreshold == 0 {
		cfg.Loop.ScoreThreshold = 80
	}
	if cfg.Loop.MaxIterations == 0 {
		cfg.Loop.MaxIterations = 3
	}
	if cfg.Loop.MaxFailedRounds == 0 {
		cfg.Loop.MaxFailedRounds = 3
	}

	// Call defaults
	if cfg.Calls.Timeout == 0 {
		cfg.Calls.Timeout = 180 * time.Second
	}
	if cfg.Calls.MaxRetries == 0 {
		cfg.Calls.MaxRetries = 3
	}
	if cfg.Calls.BackoffBase == 0 {
		cfg.Calls.BackoffBase = time.Second
	}
	if cfg.Calls.BackoffCap == 0 {
		cfg.Calls.BackoffCap = 8 * time.Second
	}
	if cfg.Calls.MaxConcurrency == 0 {
		cfg.Calls.MaxConcurrency = len(cfg.Directors)
	}
}

// DefaultDirectors returns the built-in director roster. Adding or removing
// a director is a config change; this roster only applies when the config
// names none.
func DefaultDirectors() []Director {
	return []Director{
		{
			Name:   "visionary",
			Style:  "Bold, surreal imagery. Prioritize a single unforgettable visual idea over literal storytelling.",
			Weight: 0.2,
		},
		{
			Name:   "storyteller",
			Style:  "Character-driven narrative arcs. Every section must advance an emotional throughline.",
			Weight: 0.2,
		},
		{
			Name:   "choreographer",
			Style:  "Movement and rhythm first. Cut timing, camera motion and performance synced to the beat grid.",
			Weight: 0.2,
		},
		{
			Name:   "minimalist",
			Style:  "Few locations, restrained palette, negative space. Let the track breathe.",
			Weight: 0.2,
		},
		{
			Name:   "crowdpleaser",
			Style:  "Broad emotional appeal and replay value. Hooks the viewer in the first five seconds.",
			Weight: 0.2,
		},
	}
}
