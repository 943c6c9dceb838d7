package learner

import "github.com/jordanhubbard/strata/pkg/models"

// Selector picks exactly one strategy per task, or none. The decision is
// deterministic: given the same task features and the same registry order,
// the same strategy comes out.
type Selector struct {
	mode models.Mode
}

func NewSelector(mode models.Mode) *Selector {
	return &Selector{mode: mode}
}

// Select runs the two-pass rule: collect every applicable strategy in
// registry order, then prefer the category named by the task's dominant
// feature. If the preferred category has no applicable strategy the first
// applicable one wins. A nil return means the task is skipped.
func (s *Selector) Select(task *models.LearningTask, strategies []*models.Strategy) *models.Strategy {
	var applicable []*models.Strategy
	for _, strat := range strategies {
		if Applicable(strat.Category, task.Features) {
			applicable = append(applicable, strat)
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	preferred := s.preferredCategory(task.Features)
	for _, strat := range applicable {
		if strat.Category == preferred {
			return strat
		}
	}
	return applicable[0]
}

// preferredCategory is the fixed priority table keyed to the task's
// dominant feature.
func (s *Selector) preferredCategory(f models.TaskFeatures) models.StrategyCategory {
	if s.mode == models.ModeStreaming {
		switch {
		case f.PendingSize > 100:
			return models.CategoryDriftDetection
		case f.PendingSize > 50:
			return models.CategoryAdaptiveLearning
		case f.PendingSize > 20:
			return models.CategoryStochasticGradient
		default:
			return models.CategoryIncrementalUpdate
		}
	}
	switch {
	case f.UnlabeledRatio > 0.7:
		return models.CategoryUncertainty
	case f.UnlabeledRatio > 0.5:
		return models.CategoryDiversity
	case f.ProcessedSize > 10:
		return models.CategoryExpectedImprovement
	default:
		return models.CategoryInformationGain
	}
}

// Applicable is the per-category threshold rule gating whether a strategy
// may be chosen for a task with the given features.
func Applicable(cat models.StrategyCategory, f models.TaskFeatures) bool {
	switch cat {
	case models.CategoryUncertainty:
		return f.UnlabeledRatio > 0.3
	case models.CategoryDiversity:
		return f.PendingSize > 10
	case models.CategoryExpectedImprovement:
		return f.ProcessedSize > 5
	case models.CategoryInformationGain:
		return f.PendingSize > 5
	case models.CategoryStochasticGradient:
		return f.PendingSize > 10
	case models.CategoryAdaptiveLearning:
		return f.PendingSize > 20
	case models.CategoryIncrementalUpdate:
		return f.PendingSize > 5
	case models.CategoryDriftDetection:
		return f.PendingSize > 50
	default:
		return false
	}
}
