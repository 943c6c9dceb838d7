package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "pool", cfg.Mode)
	assert.Equal(t, 50, cfg.Learner.DefaultBudget)
	assert.Equal(t, "STRATA", cfg.NATS.StreamName)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.True(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().NATS.URL, cfg.NATS.URL)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strata.yaml")
	data := []byte(`
mode: streaming
learner:
  default_budget: 25
  drift_tolerance: 0.4
nats:
  url: nats://broker:4222
database:
  dsn: postgres://strata@db/strata?sslmode=disable
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "streaming", cfg.Mode)
	assert.Equal(t, 25, cfg.Learner.DefaultBudget)
	assert.InDelta(t, 0.4, cfg.Learner.DriftTolerance, 1e-9)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	// Fields the file omits keep their defaults.
	assert.Equal(t, "STRATA", cfg.NATS.StreamName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STRATA_NATS_URL", "nats://env:4222")
	t.Setenv("STRATA_MODE", "streaming")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, "streaming", cfg.Mode)
}

func TestLoad_UnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "batch" }},
		{"negative budget", func(c *Config) { c.Learner.DefaultBudget = -1 }},
		{"negative tolerance", func(c *Config) { c.Learner.DriftTolerance = -0.1 }},
		{"metrics without listen", func(c *Config) { c.Metrics.Listen = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLearnerTunables_Normalized(t *testing.T) {
	cfg := Default()
	cfg.Learner.TaskWeight = 2
	cfg.Learner.StrategyWeight = 1
	cfg.Learner.PerformanceWeight = 1

	lc := cfg.LearnerTunables()
	assert.InDelta(t, 0.5, lc.TaskWeight, 1e-9)
	assert.InDelta(t, 1.0, lc.TaskWeight+lc.StrategyWeight+lc.PerformanceWeight, 1e-9)
	assert.Equal(t, 50, lc.DefaultBudget)
}
