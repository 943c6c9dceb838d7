package learner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jordanhubbard/strata/internal/telemetry"
	"github.com/jordanhubbard/strata/pkg/models"
)

// Orchestrator runs the adaptive learning pipeline: partition an experience
// batch into tasks, pick one strategy per task by applicability and
// priority, execute, score, and fold everything into a single result.
//
// One generic orchestrator serves both pipelines; NewPool and NewStreaming
// are thin presets differing only in mode and default executor.
type Orchestrator struct {
	mode models.Mode

	mu       sync.RWMutex
	cfg      *Config
	registry *Registry
	executor Executor

	// customExec marks an executor injected via WithExecutor; config
	// updates do not replace it.
	customExec bool
	scorer     Scorer

	// Long-lived collections. They only grow; Reset clears them. Bounding
	// accumulation over a long-running process is the caller's concern.
	tasks   map[string]*models.LearningTask
	queries []*models.QueryResult
	drifts  []*models.DriftReport
	history []*models.PerformanceRecord

	efficiencySum float64
	cycles        int
	initialized   bool
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithExecutor replaces the mode's default executor.
func WithExecutor(e Executor) Option {
	return func(o *Orchestrator) {
		o.executor = e
		o.customExec = true
	}
}

// WithScorer replaces the placeholder per-sample scorer (pool mode).
func WithScorer(s Scorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

// NewPool builds a batch-oriented active learning orchestrator.
func NewPool(cfg *Config, opts ...Option) *Orchestrator {
	return newOrchestrator(models.ModePool, cfg, opts...)
}

// NewStreaming builds a streaming online learning orchestrator.
func NewStreaming(cfg *Config, opts ...Option) *Orchestrator {
	return newOrchestrator(models.ModeStreaming, cfg, opts...)
}

// New builds an orchestrator for an explicit mode.
func New(mode models.Mode, cfg *Config, opts ...Option) (*Orchestrator, error) {
	switch mode {
	case models.ModePool, models.ModeStreaming:
		return newOrchestrator(mode, cfg, opts...), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func newOrchestrator(mode models.Mode, cfg *Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Normalize()

	o := &Orchestrator{
		mode:     mode,
		cfg:      cfg,
		registry: NewRegistry(mode),
		tasks:    make(map[string]*models.LearningTask),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.scorer == nil {
		o.scorer = NewSeededScorer(cfg.ScorerSeed)
	}
	if o.executor == nil {
		o.executor = o.defaultExecutor()
	}
	o.initialized = true
	log.Printf("[LEARNER] %s orchestrator ready with %d seed strategies", mode, o.registry.Len())
	return o
}

func (o *Orchestrator) defaultExecutor() Executor {
	if o.mode == models.ModeStreaming {
		return NewDriftDetector(o.cfg.DriftWindow, o.cfg.DriftTolerance)
	}
	return NewQueryExecutor(o.scorer, o.cfg.BaselineEfficiency)
}

// Mode returns the orchestrator's pipeline mode.
func (o *Orchestrator) Mode() models.Mode { return o.mode }

// Learn runs one synchronous learning cycle over the supplied batch.
// An empty batch is not an error: it returns the default result with
// confidence 0.5 and no insights. Any unexpected stage fault fails the whole
// invocation; no partial result is returned.
func (o *Orchestrator) Learn(ctx context.Context, experiences []models.ExperienceRecord) (*models.LearningResult, error) {
	result, _, err := o.LearnDetailed(ctx, experiences)
	return result, err
}

// LearnDetailed is Learn plus the cycle's performance records, for callers
// that persist or export them.
func (o *Orchestrator) LearnDetailed(ctx context.Context, experiences []models.ExperienceRecord) (*models.LearningResult, []*models.PerformanceRecord, error) {
	start := time.Now()
	cycleID := uuid.New().String()

	result := &models.LearningResult{
		CycleID:  cycleID,
		Mode:     o.mode,
		Insights: []string{},
		Success:  true,
	}

	if len(experiences) == 0 {
		result.Confidence = emptyTermDefault
		result.AdaptationMetrics = adaptationMetrics(nil)
		result.Duration = time.Since(start)
		result.CompletedAt = time.Now()
		return result, nil, nil
	}

	// The pipeline only reads the registry; mutation hooks take the write
	// lock, so concurrent Learn calls are safe.
	o.mu.RLock()
	cfg := o.cfg
	strategies := o.registry.All()
	executor := o.executor
	o.mu.RUnlock()

	ctx, endCycle := telemetry.StartSpan(ctx, "learner.cycle")
	defer endCycle()
	telemetry.CycleStarted(ctx)

	_, endPartition := telemetry.StartSpan(ctx, "learner.partition")
	tasks := NewPartitioner(o.mode, cfg).Partition(experiences)
	endPartition()
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return nil, nil, &ExecutionError{Stage: "partition", Err: err}
		}
	}

	selector := NewSelector(o.mode)
	evaluator := NewEvaluator(cfg)

	var executed []*models.LearningTask
	var outcomes []*models.ExecutionOutcome
	var records []*models.PerformanceRecord
	selected := make(map[string]*models.Strategy) // strategy id -> strategy
	pairings := make(map[string]*models.Strategy) // task id -> strategy
	skipped := 0

	for _, task := range tasks {
		strategy := selector.Select(task, strategies)
		if strategy == nil {
			// Not an error: the task simply has no applicable strategy
			// and is excluded from all downstream stages.
			skipped++
			log.Printf("[LEARNER] task %s (%s) skipped: no applicable strategy", task.ID, task.Kind)
			continue
		}
		task.State = models.TaskStrategyAssigned
		pairings[task.ID] = strategy
		selected[strategy.ID] = strategy

		execCtx, endExec := telemetry.StartSpan(ctx, "learner.execute")
		outcome, err := executor.Execute(execCtx, task, strategy)
		endExec()
		if err != nil {
			return nil, nil, &ExecutionError{Stage: "execute", Err: err}
		}
		task.State = models.TaskExecuted
		outcomes = append(outcomes, outcome)

		record, err := evaluator.Evaluate(task, strategy, outcome)
		if err != nil {
			return nil, nil, &ExecutionError{Stage: "evaluate", Err: err}
		}
		task.State = models.TaskEvaluated
		records = append(records, record)
		executed = append(executed, task)
	}

	result.TasksCreated = len(tasks)
	result.TasksSkipped = skipped
	result.Insights = Synthesize(cfg, tasks, selected, outcomes, records)
	result.Confidence = BlendConfidence(cfg, executed, selected, records)
	result.Improvements = improvements(records, pairings)
	result.AdaptationMetrics = adaptationMetrics(records)
	result.Duration = time.Since(start)
	result.CompletedAt = time.Now()

	o.commit(tasks, outcomes, records)
	telemetry.CycleCompleted(ctx, len(tasks), skipped, float64(result.Duration.Milliseconds()))

	log.Printf("[LEARNER] cycle %s: %d tasks (%d skipped), confidence %.2f in %s",
		cycleID, len(tasks), skipped, result.Confidence, result.Duration)
	return result, records, nil
}

// commit folds one cycle's artifacts into the long-lived collections.
func (o *Orchestrator) commit(tasks []*models.LearningTask, outcomes []*models.ExecutionOutcome, records []*models.PerformanceRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range tasks {
		o.tasks[t.ID] = t
	}
	for _, out := range outcomes {
		if out.Query != nil {
			o.queries = append(o.queries, out.Query)
		}
		if out.Drift != nil {
			o.drifts = append(o.drifts, out.Drift)
		}
	}
	for _, r := range records {
		o.history = append(o.history, r)
		o.efficiencySum += r.Efficiency
	}
	o.cycles++
}

func improvements(records []*models.PerformanceRecord, pairings map[string]*models.Strategy) []models.Improvement {
	var out []models.Improvement
	for _, r := range records {
		strategy := pairings[r.TaskID]
		name := string(r.Category)
		if strategy != nil {
			name = strategy.Name
		}
		out = append(out, models.Improvement{
			Type:        string(r.Category),
			Magnitude:   r.ImprovementRate,
			Description: fmt.Sprintf("%s improved task %s with efficiency %.2f", name, r.TaskID, r.Efficiency),
		})
	}
	return out
}

func adaptationMetrics(records []*models.PerformanceRecord) models.AdaptationMetrics {
	if len(records) == 0 {
		return models.AdaptationMetrics{
			Performance: emptyTermDefault,
			Stability:   emptyTermDefault * stabilityFactor,
			Flexibility: emptyTermDefault * flexibilityFactor,
			Efficiency:  emptyTermDefault,
		}
	}
	var sum float64
	for _, r := range records {
		sum += r.Efficiency
	}
	mean := sum / float64(len(records))
	return models.AdaptationMetrics{
		Performance: mean,
		Stability:   mean * stabilityFactor,
		Flexibility: mean * flexibilityFactor,
		Efficiency:  mean,
	}
}

// Snapshot is the read-only aggregate view returned by Metrics.
type Snapshot struct {
	TotalTasks        int     `json:"total_tasks"`
	TotalStrategies   int     `json:"total_strategies"`
	AverageEfficiency float64 `json:"average_efficiency"`
	TotalQueries      int     `json:"total_queries"`
	TotalDrifts       int     `json:"total_drifts"`
	Cycles            int     `json:"cycles"`
	AlgorithmType     string  `json:"algorithm_type"`
	Initialized       bool    `json:"is_initialized"`
}

// Metrics returns the current aggregate counters. Calling it twice without
// an intervening Learn yields identical snapshots.
func (o *Orchestrator) Metrics() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snap := Snapshot{
		TotalTasks:      len(o.tasks),
		TotalStrategies: o.registry.Len(),
		TotalQueries:    len(o.queries),
		TotalDrifts:     len(o.drifts),
		Cycles:          o.cycles,
		AlgorithmType:   o.mode.AlgorithmType(),
		Initialized:     o.initialized,
	}
	if len(o.history) > 0 {
		snap.AverageEfficiency = o.efficiencySum / float64(len(o.history))
	}
	return snap
}

// AddStrategy registers an additional strategy. Serialized against Learn.
func (o *Orchestrator) AddStrategy(s *models.Strategy) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.registry.Add(s)
}

// AddTask pre-populates the task map, letting an external coordinator seed
// state before invoking Learn.
func (o *Orchestrator) AddTask(t *models.LearningTask) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("task must have an id")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if t.State == "" {
		t.State = models.TaskCreated
	}
	o.tasks[t.ID] = t
	return nil
}

// AddQueryResult records an externally produced query result.
func (o *Orchestrator) AddQueryResult(q *models.QueryResult) error {
	if q == nil || q.TaskID == "" {
		return fmt.Errorf("query result must reference a task")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries = append(o.queries, q)
	return nil
}

// AddDriftDetection records an externally produced drift report.
func (o *Orchestrator) AddDriftDetection(d *models.DriftReport) error {
	if d == nil || d.TaskID == "" {
		return fmt.Errorf("drift report must reference a task")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.drifts = append(o.drifts, d)
	return nil
}

// Strategies returns the registry contents in registration order.
func (o *Orchestrator) Strategies() []*models.Strategy {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.registry.All()
}

// UpdateConfig swaps the tunables, e.g. on a config hot reload. The default
// executor is rebuilt so new drift/budget settings take effect; a custom
// executor injected via WithExecutor is left alone.
func (o *Orchestrator) UpdateConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Normalize()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg = cfg
	if !o.customExec {
		o.executor = o.defaultExecutor()
	}
	log.Printf("[LEARNER] config updated (budget=%d window=%d tolerance=%.2f)",
		cfg.DefaultBudget, cfg.DriftWindow, cfg.DriftTolerance)
}

// Reset clears all accumulated tasks, outcomes, and history and restores the
// seed strategy catalog.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasks = make(map[string]*models.LearningTask)
	o.queries = nil
	o.drifts = nil
	o.history = nil
	o.efficiencySum = 0
	o.cycles = 0
	o.registry.Reset()
	log.Printf("[LEARNER] %s orchestrator reset", o.mode)
}
