package learner

import (
	"fmt"

	"github.com/jordanhubbard/strata/pkg/models"
)

// Registry is the orchestrator-owned strategy catalog. It is seeded once at
// construction per mode and only grows through Add; Reset restores the seed
// set. The registry itself is not goroutine-safe: the orchestrator serializes
// access with its own lock.
type Registry struct {
	mode       models.Mode
	strategies []*models.Strategy
	byID       map[string]*models.Strategy
}

// NewRegistry builds a registry pre-seeded with the fixed catalog for mode.
func NewRegistry(mode models.Mode) *Registry {
	r := &Registry{mode: mode}
	r.Reset()
	return r
}

// Reset discards all registered strategies and restores the seed catalog.
func (r *Registry) Reset() {
	r.strategies = nil
	r.byID = make(map[string]*models.Strategy)
	for _, s := range seedCatalog(r.mode) {
		// Seeds are well-formed by construction.
		_ = r.Add(s)
	}
}

// Add registers a strategy. Malformed strategies are rejected with a
// ConfigurationError, never silently accepted.
func (r *Registry) Add(s *models.Strategy) error {
	if s == nil || s.ID == "" {
		return &ConfigurationError{StrategyID: "?", Reason: "missing strategy id"}
	}
	if _, exists := r.byID[s.ID]; exists {
		return &ConfigurationError{StrategyID: s.ID, Reason: "duplicate strategy id"}
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return &ConfigurationError{StrategyID: s.ID, Reason: fmt.Sprintf("confidence %v out of [0,1]", s.Confidence)}
	}
	if !categoryForMode(s.Category, r.mode) {
		return &ConfigurationError{StrategyID: s.ID, Reason: fmt.Sprintf("category %s not valid for %s mode", s.Category, r.mode)}
	}
	if s.Params == nil {
		return &ConfigurationError{StrategyID: s.ID, Reason: "missing parameters"}
	}
	if s.Params.Category() != s.Category {
		return &ConfigurationError{StrategyID: s.ID, Reason: fmt.Sprintf("parameters are for category %s, strategy declares %s", s.Params.Category(), s.Category)}
	}
	if err := s.Params.Validate(); err != nil {
		return &ConfigurationError{StrategyID: s.ID, Reason: err.Error()}
	}
	r.strategies = append(r.strategies, s)
	r.byID[s.ID] = s
	return nil
}

// All returns the strategies in registration order. The slice is a copy; the
// pointed-to strategies are shared and treated as read-only during Learn.
func (r *Registry) All() []*models.Strategy {
	out := make([]*models.Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// Get returns a strategy by id.
func (r *Registry) Get(id string) (*models.Strategy, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int { return len(r.strategies) }

func categoryForMode(cat models.StrategyCategory, mode models.Mode) bool {
	switch cat {
	case models.CategoryUncertainty, models.CategoryDiversity,
		models.CategoryExpectedImprovement, models.CategoryInformationGain:
		return mode == models.ModePool
	case models.CategoryStochasticGradient, models.CategoryAdaptiveLearning,
		models.CategoryIncrementalUpdate, models.CategoryDriftDetection:
		return mode == models.ModeStreaming
	default:
		return false
	}
}

// seedCatalog is the fixed built-in strategy set per mode.
func seedCatalog(mode models.Mode) []*models.Strategy {
	if mode == models.ModeStreaming {
		return []*models.Strategy{
			{
				ID:         "sgd-online",
				Name:       "Stochastic Gradient Update",
				Category:   models.CategoryStochasticGradient,
				Params:     models.StochasticGradientParams{LearningRate: 0.01, Momentum: 0.9},
				Confidence: 0.78,
				Scorecard:  map[string]float64{},
			},
			{
				ID:         "adaptive-rate",
				Name:       "Adaptive Learning Rate",
				Category:   models.CategoryAdaptiveLearning,
				Params:     models.AdaptiveLearningParams{InitialRate: 0.1, DecayFactor: 0.95},
				Confidence: 0.76,
				Scorecard:  map[string]float64{},
			},
			{
				ID:         "incremental-minibatch",
				Name:       "Incremental Mini-Batch",
				Category:   models.CategoryIncrementalUpdate,
				Params:     models.IncrementalUpdateParams{BatchSize: 16},
				Confidence: 0.74,
				Scorecard:  map[string]float64{},
			},
			{
				ID:         "drift-window",
				Name:       "Windowed Drift Monitor",
				Category:   models.CategoryDriftDetection,
				Params:     models.DriftDetectionParams{WindowSize: 20, Tolerance: 0.25},
				Confidence: 0.8,
				Scorecard:  map[string]float64{},
			},
		}
	}
	return []*models.Strategy{
		{
			ID:         "uncertainty-entropy",
			Name:       "Entropy Sampling",
			Category:   models.CategoryUncertainty,
			Params:     models.UncertaintyParams{Measure: "entropy", Threshold: 0.5},
			Confidence: 0.8,
			Scorecard:  map[string]float64{},
		},
		{
			ID:         "diversity-cluster",
			Name:       "Cluster Diversity Sampling",
			Category:   models.CategoryDiversity,
			Params:     models.DiversityParams{Metric: "euclidean", ClusterCount: 5},
			Confidence: 0.75,
			Scorecard:  map[string]float64{},
		},
		{
			ID:         "expected-gradient",
			Name:       "Expected Gradient Change",
			Category:   models.CategoryExpectedImprovement,
			Params:     models.ExpectedImprovementParams{Horizon: 10, DiscountFactor: 0.9},
			Confidence: 0.7,
			Scorecard:  map[string]float64{},
		},
		{
			ID:         "committee-vote",
			Name:       "Committee Disagreement",
			Category:   models.CategoryInformationGain,
			Params:     models.InformationGainParams{CommitteeSize: 3},
			Confidence: 0.72,
			Scorecard:  map[string]float64{},
		},
	}
}
