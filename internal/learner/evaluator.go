package learner

import (
	"fmt"
	"time"

	"github.com/jordanhubbard/strata/pkg/models"
)

// Fixed multipliers for the metrics derived from final efficiency. These are
// configuration constants, not learned values.
const (
	improvementRateFactor = 0.8
	stabilityFactor       = 0.9
	flexibilityFactor     = 0.85
	driftPenaltyFactor    = 0.8
)

// Evaluator combines task baseline efficiency, strategy confidence, and the
// execution outcome into a bounded performance record.
type Evaluator struct {
	cfg *Config
}

func NewEvaluator(cfg *Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate scores one executed (task, strategy) pairing.
func (e *Evaluator) Evaluate(task *models.LearningTask, strategy *models.Strategy, outcome *models.ExecutionOutcome) (*models.PerformanceRecord, error) {
	if outcome == nil || (outcome.Query == nil && outcome.Drift == nil) {
		return nil, fmt.Errorf("task %s: empty execution outcome", task.ID)
	}

	baseline := baselineEfficiency(task, e.cfg.BaselineEfficiency)

	factor := 1.0
	record := &models.PerformanceRecord{
		TaskID:     task.ID,
		Category:   strategy.Category,
		RecordedAt: time.Now(),
	}
	if outcome.Query != nil {
		factor = outcome.Query.ExpectedImprovement
		record.SamplesProcessed = len(outcome.Query.SelectedSamples)
	} else {
		if outcome.Drift.AdaptationRequired {
			factor = driftPenaltyFactor
			record.AdaptationCount = 1
		}
	}

	record.Efficiency = models.Clamp01(baseline * strategy.Confidence * factor)
	record.ImprovementRate = record.Efficiency * improvementRateFactor
	record.Stability = record.Efficiency * stabilityFactor
	return record, nil
}

// baselineEfficiency reads the task's scorecard baseline, falling back to
// the configured default.
func baselineEfficiency(task *models.LearningTask, def float64) float64 {
	if v, ok := task.Scorecard["baseline_efficiency"]; ok {
		return models.Clamp01(v)
	}
	return def
}
