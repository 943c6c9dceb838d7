package learner

// Config holds the orchestrator tunables. All values have working defaults;
// zero-value fields are filled in by Normalize so a partially specified
// config from YAML still behaves.
type Config struct {
	// DefaultBudget caps how many pending samples a task may act on per
	// cycle. A task's budget is min(|pending|, DefaultBudget).
	DefaultBudget int

	// BaselineEfficiency is the assumed task efficiency when a task's
	// scorecard does not carry a baseline_efficiency entry.
	BaselineEfficiency float64

	// DriftWindow and DriftTolerance are the fallback drift detector
	// settings used when the selected strategy carries no
	// DriftDetectionParams of its own.
	DriftWindow    int
	DriftTolerance float64

	// Confidence blend weights. They should sum to 1; Normalize rescales
	// them if they do not.
	TaskWeight        float64
	StrategyWeight    float64
	PerformanceWeight float64

	// ScorerSeed seeds the placeholder per-sample scorer so runs are
	// reproducible. Tests pin it.
	ScorerSeed int64
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() *Config {
	return &Config{
		DefaultBudget:      50,
		BaselineEfficiency: 0.7,
		DriftWindow:        20,
		DriftTolerance:     0.25,
		TaskWeight:         0.4,
		StrategyWeight:     0.3,
		PerformanceWeight:  0.3,
		ScorerSeed:         1,
	}
}

// Normalize fills zero fields with defaults and rescales the confidence
// weights to sum to 1.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.DefaultBudget <= 0 {
		c.DefaultBudget = def.DefaultBudget
	}
	if c.BaselineEfficiency <= 0 {
		c.BaselineEfficiency = def.BaselineEfficiency
	}
	if c.DriftWindow < 2 {
		c.DriftWindow = def.DriftWindow
	}
	if c.DriftTolerance <= 0 {
		c.DriftTolerance = def.DriftTolerance
	}
	sum := c.TaskWeight + c.StrategyWeight + c.PerformanceWeight
	if sum <= 0 {
		c.TaskWeight = def.TaskWeight
		c.StrategyWeight = def.StrategyWeight
		c.PerformanceWeight = def.PerformanceWeight
	} else if sum != 1 {
		c.TaskWeight /= sum
		c.StrategyWeight /= sum
		c.PerformanceWeight /= sum
	}
}
