package learner

import (
	"math"
	"testing"
)

func TestNormalize_FillsZeroes(t *testing.T) {
	var cfg Config
	cfg.Normalize()
	def := DefaultConfig()
	if cfg.DefaultBudget != def.DefaultBudget {
		t.Errorf("budget = %d, want default %d", cfg.DefaultBudget, def.DefaultBudget)
	}
	if cfg.BaselineEfficiency != def.BaselineEfficiency {
		t.Errorf("baseline = %v, want default %v", cfg.BaselineEfficiency, def.BaselineEfficiency)
	}
	if cfg.DriftWindow != def.DriftWindow || cfg.DriftTolerance != def.DriftTolerance {
		t.Errorf("drift settings = %d/%v, want defaults %d/%v",
			cfg.DriftWindow, cfg.DriftTolerance, def.DriftWindow, def.DriftTolerance)
	}
	if sum := cfg.TaskWeight + cfg.StrategyWeight + cfg.PerformanceWeight; math.Abs(sum-1) > 1e-9 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
}

func TestNormalize_RescalesWeights(t *testing.T) {
	cfg := Config{TaskWeight: 2, StrategyWeight: 1, PerformanceWeight: 1}
	cfg.Normalize()
	if math.Abs(cfg.TaskWeight-0.5) > 1e-9 {
		t.Errorf("task weight = %v, want 0.5", cfg.TaskWeight)
	}
	if sum := cfg.TaskWeight + cfg.StrategyWeight + cfg.PerformanceWeight; math.Abs(sum-1) > 1e-9 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	cfg := Config{DefaultBudget: 5, DriftWindow: 8, DriftTolerance: 0.5}
	cfg.Normalize()
	if cfg.DefaultBudget != 5 || cfg.DriftWindow != 8 || cfg.DriftTolerance != 0.5 {
		t.Errorf("explicit values were overwritten: %+v", cfg)
	}
}
