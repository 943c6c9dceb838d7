package models

import (
	"fmt"
	"time"
)

// Mode selects which of the two learning pipelines the orchestrator runs.
type Mode string

const (
	ModePool      Mode = "pool"      // batch-oriented active learning
	ModeStreaming Mode = "streaming" // online learning over an open stream
)

// AlgorithmType returns the external name reported in metrics snapshots.
func (m Mode) AlgorithmType() string {
	if m == ModeStreaming {
		return "online_learning"
	}
	return "active_learning"
}

// TaskKind classifies a learning task within its mode.
type TaskKind string

const (
	TaskPoolUncertainty    TaskKind = "pool_uncertainty"
	TaskPoolDiversity      TaskKind = "pool_diversity"
	TaskPoolExpectedChange TaskKind = "pool_expected_change"
	TaskPoolCommittee      TaskKind = "pool_committee"

	TaskStreamClassification TaskKind = "stream_classification"
	TaskStreamRegression     TaskKind = "stream_regression"
	TaskStreamClustering     TaskKind = "stream_clustering"
	TaskStreamIncremental    TaskKind = "stream_incremental"
)

// TaskState tracks a task through one learning cycle. Transitions only move
// forward: Created -> StrategyAssigned -> Executed -> Evaluated.
type TaskState string

const (
	TaskCreated          TaskState = "created"
	TaskStrategyAssigned TaskState = "strategy_assigned"
	TaskExecuted         TaskState = "executed"
	TaskEvaluated        TaskState = "evaluated"
)

// TaskFeatures are the derived per-task features the selector rules read.
type TaskFeatures struct {
	Size           int     `json:"size"`
	PendingSize    int     `json:"pending_size"`
	ProcessedSize  int     `json:"processed_size"`
	UnlabeledRatio float64 `json:"unlabeled_ratio"`
	Diversity      float64 `json:"diversity"`
	Complexity     float64 `json:"complexity"`
}

// LearningTask is one partitioned unit of work within a learning cycle.
type LearningTask struct {
	ID        string             `json:"id"`
	Kind      TaskKind           `json:"kind"`
	State     TaskState          `json:"state"`
	Processed []ExperienceRecord `json:"processed,omitempty"`
	Pending   []ExperienceRecord `json:"pending,omitempty"`
	Budget    int                `json:"budget"`
	Scorecard map[string]float64 `json:"scorecard,omitempty"`
	Features  TaskFeatures       `json:"features"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Validate checks the task invariants: non-negative budget and disjoint
// processed/pending sets.
func (t *LearningTask) Validate() error {
	if t.Budget < 0 {
		return fmt.Errorf("task %s: negative budget %d", t.ID, t.Budget)
	}
	seen := make(map[string]struct{}, len(t.Processed))
	for _, r := range t.Processed {
		seen[r.ID] = struct{}{}
	}
	for _, r := range t.Pending {
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("task %s: record %s is both processed and pending", t.ID, r.ID)
		}
	}
	return nil
}

// StrategyCategory groups strategies by the decision rule family they belong to.
type StrategyCategory string

const (
	// Pool mode categories
	CategoryUncertainty         StrategyCategory = "uncertainty"
	CategoryDiversity           StrategyCategory = "diversity"
	CategoryExpectedImprovement StrategyCategory = "expected_improvement"
	CategoryInformationGain     StrategyCategory = "information_gain"

	// Streaming mode categories
	CategoryStochasticGradient StrategyCategory = "stochastic_gradient"
	CategoryAdaptiveLearning   StrategyCategory = "adaptive_learning"
	CategoryIncrementalUpdate  StrategyCategory = "incremental_update"
	CategoryDriftDetection     StrategyCategory = "drift_detection"
)

// Strategy is a registered data-acquisition or model-update strategy.
type Strategy struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Category   StrategyCategory   `json:"category"`
	Params     StrategyParams     `json:"params"`
	Scorecard  map[string]float64 `json:"scorecard,omitempty"`
	Confidence float64            `json:"confidence"` // prior confidence in [0,1]
}

// QueryResult is the pool-mode execution outcome: which pending samples the
// strategy chose to act on, and what improvement acting on them should buy.
type QueryResult struct {
	ID                  string             `json:"id"`
	TaskID              string             `json:"task_id"`
	StrategyID          string             `json:"strategy_id"`
	SelectedSamples     []string           `json:"selected_samples"`
	SampleScores        map[string]float64 `json:"sample_scores,omitempty"`
	ExpectedImprovement float64            `json:"expected_improvement"`
	Cost                float64            `json:"cost"`
	Timestamp           time.Time          `json:"timestamp"`
}

// DriftKind classifies a detected distribution shift.
type DriftKind string

const (
	DriftNone    DriftKind = "none"
	DriftConcept DriftKind = "concept_drift"
	DriftData    DriftKind = "data_drift"
	DriftVirtual DriftKind = "virtual_drift"
)

// DriftReport is the streaming-mode execution outcome.
type DriftReport struct {
	ID                 string    `json:"id"`
	TaskID             string    `json:"task_id"`
	StrategyID         string    `json:"strategy_id"`
	Kind               DriftKind `json:"kind"`
	Severity           float64   `json:"severity"`   // [0,1]
	Confidence         float64   `json:"confidence"` // [0,1]
	AdaptationRequired bool      `json:"adaptation_required"`
	Timestamp          time.Time `json:"timestamp"`
}

// ExecutionOutcome carries the result of executing one (task, strategy) pair.
// Exactly one of Query or Drift is set, depending on the mode.
type ExecutionOutcome struct {
	Query *QueryResult `json:"query,omitempty"`
	Drift *DriftReport `json:"drift,omitempty"`
}

// PerformanceRecord scores one (task, strategy) pairing after execution.
// All derived metrics are deterministic functions of Efficiency.
type PerformanceRecord struct {
	TaskID           string           `json:"task_id"`
	Category         StrategyCategory `json:"category"`
	Efficiency       float64          `json:"efficiency"` // [0,1]
	ImprovementRate  float64          `json:"improvement_rate"`
	Stability        float64          `json:"stability"`
	SamplesProcessed int              `json:"samples_processed"`
	AdaptationCount  int              `json:"adaptation_count"`
	RecordedAt       time.Time        `json:"recorded_at"`
}

// Improvement describes one concrete gain surfaced by a learning cycle.
type Improvement struct {
	Type        string  `json:"type"`
	Magnitude   float64 `json:"magnitude"`
	Description string  `json:"description"`
}

// AdaptationMetrics summarize how well the cycle adapted overall.
type AdaptationMetrics struct {
	Performance float64 `json:"performance"`
	Stability   float64 `json:"stability"`
	Flexibility float64 `json:"flexibility"`
	Efficiency  float64 `json:"efficiency"`
}

// LearningResult is the outcome of one Learn invocation.
type LearningResult struct {
	CycleID           string            `json:"cycle_id"`
	Mode              Mode              `json:"mode"`
	Insights          []string          `json:"insights"`
	Confidence        float64           `json:"confidence"` // [0,1]
	Success           bool              `json:"success"`
	Improvements      []Improvement     `json:"improvements,omitempty"`
	AdaptationMetrics AdaptationMetrics `json:"adaptation_metrics"`
	TasksCreated      int               `json:"tasks_created"`
	TasksSkipped      int               `json:"tasks_skipped"`
	Duration          time.Duration     `json:"duration"`
	CompletedAt       time.Time         `json:"completed_at"`
}

// Clamp01 bounds v to [0,1]. Every externally visible score goes through it.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
