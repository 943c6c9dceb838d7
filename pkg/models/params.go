package models

import "fmt"

// StrategyParams is the per-category typed configuration attached to a
// strategy. Each category has its own struct; Validate is checked at
// registration time and malformed parameters are rejected there.
type StrategyParams interface {
	Category() StrategyCategory
	Validate() error
}

// UncertaintyParams configure uncertainty sampling strategies.
type UncertaintyParams struct {
	Measure   string  `json:"measure"` // "entropy", "margin", "least_confidence"
	Threshold float64 `json:"threshold"`
}

func (p UncertaintyParams) Category() StrategyCategory { return CategoryUncertainty }

func (p UncertaintyParams) Validate() error {
	switch p.Measure {
	case "entropy", "margin", "least_confidence":
	default:
		return fmt.Errorf("unknown uncertainty measure %q", p.Measure)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("uncertainty threshold %v out of [0,1]", p.Threshold)
	}
	return nil
}

// DiversityParams configure diversity sampling strategies.
type DiversityParams struct {
	Metric       string `json:"metric"` // "euclidean", "cosine"
	ClusterCount int    `json:"cluster_count"`
}

func (p DiversityParams) Category() StrategyCategory { return CategoryDiversity }

func (p DiversityParams) Validate() error {
	switch p.Metric {
	case "euclidean", "cosine":
	default:
		return fmt.Errorf("unknown diversity metric %q", p.Metric)
	}
	if p.ClusterCount < 1 {
		return fmt.Errorf("cluster count %d must be positive", p.ClusterCount)
	}
	return nil
}

// ExpectedImprovementParams configure expected model change strategies.
type ExpectedImprovementParams struct {
	Horizon        int     `json:"horizon"`
	DiscountFactor float64 `json:"discount_factor"`
}

func (p ExpectedImprovementParams) Category() StrategyCategory { return CategoryExpectedImprovement }

func (p ExpectedImprovementParams) Validate() error {
	if p.Horizon < 1 {
		return fmt.Errorf("horizon %d must be positive", p.Horizon)
	}
	if p.DiscountFactor <= 0 || p.DiscountFactor > 1 {
		return fmt.Errorf("discount factor %v out of (0,1]", p.DiscountFactor)
	}
	return nil
}

// InformationGainParams configure committee / information gain strategies.
type InformationGainParams struct {
	CommitteeSize int `json:"committee_size"`
}

func (p InformationGainParams) Category() StrategyCategory { return CategoryInformationGain }

func (p InformationGainParams) Validate() error {
	if p.CommitteeSize < 2 {
		return fmt.Errorf("committee size %d must be at least 2", p.CommitteeSize)
	}
	return nil
}

// StochasticGradientParams configure SGD-style update strategies.
type StochasticGradientParams struct {
	LearningRate float64 `json:"learning_rate"`
	Momentum     float64 `json:"momentum"`
}

func (p StochasticGradientParams) Category() StrategyCategory { return CategoryStochasticGradient }

func (p StochasticGradientParams) Validate() error {
	if p.LearningRate <= 0 {
		return fmt.Errorf("learning rate %v must be positive", p.LearningRate)
	}
	if p.Momentum < 0 || p.Momentum >= 1 {
		return fmt.Errorf("momentum %v out of [0,1)", p.Momentum)
	}
	return nil
}

// AdaptiveLearningParams configure adaptive-rate update strategies.
type AdaptiveLearningParams struct {
	InitialRate float64 `json:"initial_rate"`
	DecayFactor float64 `json:"decay_factor"`
}

func (p AdaptiveLearningParams) Category() StrategyCategory { return CategoryAdaptiveLearning }

func (p AdaptiveLearningParams) Validate() error {
	if p.InitialRate <= 0 {
		return fmt.Errorf("initial rate %v must be positive", p.InitialRate)
	}
	if p.DecayFactor <= 0 || p.DecayFactor > 1 {
		return fmt.Errorf("decay factor %v out of (0,1]", p.DecayFactor)
	}
	return nil
}

// IncrementalUpdateParams configure mini-batch incremental strategies.
type IncrementalUpdateParams struct {
	BatchSize int `json:"batch_size"`
}

func (p IncrementalUpdateParams) Category() StrategyCategory { return CategoryIncrementalUpdate }

func (p IncrementalUpdateParams) Validate() error {
	if p.BatchSize < 1 {
		return fmt.Errorf("batch size %d must be positive", p.BatchSize)
	}
	return nil
}

// DriftDetectionParams configure drift detection strategies.
type DriftDetectionParams struct {
	WindowSize int     `json:"window_size"`
	Tolerance  float64 `json:"tolerance"`
}

func (p DriftDetectionParams) Category() StrategyCategory { return CategoryDriftDetection }

func (p DriftDetectionParams) Validate() error {
	if p.WindowSize < 2 {
		return fmt.Errorf("window size %d must be at least 2", p.WindowSize)
	}
	if p.Tolerance <= 0 {
		return fmt.Errorf("tolerance %v must be positive", p.Tolerance)
	}
	return nil
}
