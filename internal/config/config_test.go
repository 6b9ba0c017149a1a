package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
project:
  name: midnight-run
  workspace: /tmp/showrunner
`

func TestParseMinimalAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.SchemaVersion)
	assert.Len(t, cfg.Directors, 5)
	assert.Equal(t, 80.0, cfg.Loop.ScoreThreshold)
	assert.Equal(t, 3, cfg.Loop.MaxIterations)
	assert.Equal(t, 3, cfg.Loop.MaxFailedRounds)
	assert.Equal(t, 180*time.Second, cfg.Calls.Timeout)
	assert.Equal(t, len(cfg.Directors), cfg.Calls.MaxConcurrency)
}

func TestParseCustomDirectors(t *testing.T) {
	cfg, err := Parse([]byte(`
project:
  name: midnight-run
  workspace: /tmp/showrunner
directors:
  - name: auteur
    style: long takes
    weight: 0.5
  - name: editor
    style: fast cuts
    weight: 0.5
`))
	require.NoError(t, err)
	require.Len(t, cfg.Directors, 2)
	assert.Equal(t, "auteur", cfg.Directors[0].Name)
}

func TestValidateWeightSum(t *testing.T) {
	_, err := Parse([]byte(`
project:
  name: midnight-run
  workspace: /tmp/showrunner
directors:
  - name: auteur
    weight: 0.7
  - name: editor
    weight: 0.7
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum to 1.0")
}

func TestValidateWeightSumTolerance(t *testing.T) {
	// 0.3333 * 3 = 0.9999, inside the epsilon
	_, err := Parse([]byte(`
project:
  name: midnight-run
  workspace: /tmp/showrunner
directors:
  - name: a
    weight: 0.3333
  - name: b
    weight: 0.3333
  - name: c
    weight: 0.3333
`))
	assert.NoError(t, err)
}

func TestParseDurationStrings(t *testing.T) {
	cfg, err := Parse([]byte(`
project:
  name: midnight-run
  workspace: /tmp/showrunner
calls:
  timeout: 90s
  backoff_base: 500ms
  backoff_cap: 4s
  max_concurrency: 3
`))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Calls.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Calls.BackoffBase)
	assert.Equal(t, 4*time.Second, cfg.Calls.BackoffCap)
	assert.Equal(t, 3, cfg.Calls.MaxConcurrency)
}

func TestParseBadDuration(t *testing.T) {
	_, err := Parse([]byte(`
project:
  name: midnight-run
  workspace: /tmp/showrunner
calls:
  timeout: soon
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calls.timeout")
}

func TestValidateDuplicateDirector(t *testing.T) {
	_, err := Parse([]byte(`
project:
  name: midnight-run
  workspace: /tmp/showrunner
directors:
  - name: auteur
    weight: 0.5
  - name: auteur
    weight: 0.5
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate director")
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	cfg.Loop.ScoreThreshold = 150
	require.Error(t, Validate(cfg))

	cfg.Loop.ScoreThreshold = -1
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsBadConcurrency(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	cfg.Calls.MaxConcurrency = 0
	require.Error(t, Validate(cfg))

	cfg.Calls.MaxConcurrency = 99
	require.Error(t, Validate(cfg))
}

func TestMigrateRejectsFutureSchema(t *testing.T) {
	_, err := Parse([]byte(`
schema_version: 42
project:
  name: midnight-run
  workspace: /tmp/showrunner
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema_version")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/showrunner.yaml")
	require.Error(t, err)
}

func TestDefaultDirectorWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, d := range DefaultDirectors() {
		sum += d.Weight
	}
	assert.InDelta(t, 1.0, sum, weightEpsilon)
}
