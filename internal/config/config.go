package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jordanhubbard/strata/internal/learner"
	"github.com/jordanhubbard/strata/pkg/models"
)

// Config is the daemon configuration, loaded from YAML with environment
// overrides for connection strings.
type Config struct {
	Mode      string          `yaml:"mode"` // "pool" or "streaming"
	Learner   LearnerConfig   `yaml:"learner"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	NATS      NATSConfig      `yaml:"nats"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LearnerConfig mirrors the orchestrator tunables.
type LearnerConfig struct {
	DefaultBudget      int     `yaml:"default_budget"`
	BaselineEfficiency float64 `yaml:"baseline_efficiency"`
	DriftWindow        int     `yaml:"drift_window"`
	DriftTolerance     float64 `yaml:"drift_tolerance"`
	TaskWeight         float64 `yaml:"task_weight"`
	StrategyWeight     float64 `yaml:"strategy_weight"`
	PerformanceWeight  float64 `yaml:"performance_weight"`
	ScorerSeed         int64   `yaml:"scorer_seed"`
}

// DatabaseConfig configures the Postgres history store. Empty DSN disables
// persistence.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig configures the scorecard cache. Empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// NATSConfig configures the experience/result bus.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	StreamName     string        `yaml:"stream_name"`
	Timeout        time.Duration `yaml:"timeout"`
	ConsumerPrefix string        `yaml:"consumer_prefix"`
}

// MetricsConfig configures the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// TelemetryConfig configures OTLP tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the stock configuration.
func Default() *Config {
	lc := learner.DefaultConfig()
	return &Config{
		Mode: string(models.ModePool),
		Learner: LearnerConfig{
			DefaultBudget:      lc.DefaultBudget,
			BaselineEfficiency: lc.BaselineEfficiency,
			DriftWindow:        lc.DriftWindow,
			DriftTolerance:     lc.DriftTolerance,
			TaskWeight:         lc.TaskWeight,
			StrategyWeight:     lc.StrategyWeight,
			PerformanceWeight:  lc.PerformanceWeight,
			ScorerSeed:         lc.ScorerSeed,
		},
		Redis: RedisConfig{
			TTL: 10 * time.Minute,
		},
		NATS: NATSConfig{
			URL:        "nats://localhost:4222",
			StreamName: "STRATA",
			Timeout:    10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Listen:  ":9090",
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			ServiceName: "strata",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A missing path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STRATA_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("STRATA_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("STRATA_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("STRATA_MODE"); v != "" {
		c.Mode = v
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	switch models.Mode(c.Mode) {
	case models.ModePool, models.ModeStreaming:
	default:
		return fmt.Errorf("invalid mode %q (want pool or streaming)", c.Mode)
	}
	if c.Learner.DefaultBudget < 0 {
		return fmt.Errorf("learner default_budget must not be negative")
	}
	if c.Learner.DriftTolerance < 0 {
		return fmt.Errorf("learner drift_tolerance must not be negative")
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics enabled but no listen address")
	}
	return nil
}

// LearnerTunables converts the YAML section into orchestrator tunables.
func (c *Config) LearnerTunables() *learner.Config {
	lc := &learner.Config{
		DefaultBudget:      c.Learner.DefaultBudget,
		BaselineEfficiency: c.Learner.BaselineEfficiency,
		DriftWindow:        c.Learner.DriftWindow,
		DriftTolerance:     c.Learner.DriftTolerance,
		TaskWeight:         c.Learner.TaskWeight,
		StrategyWeight:     c.Learner.StrategyWeight,
		PerformanceWeight:  c.Learner.PerformanceWeight,
		ScorerSeed:         c.Learner.ScorerSeed,
	}
	lc.Normalize()
	return lc
}
