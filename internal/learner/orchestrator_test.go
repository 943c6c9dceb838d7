package learner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jordanhubbard/strata/pkg/models"
)

func TestLearn_EmptyBatch(t *testing.T) {
	o := NewPool(nil)
	result, err := o.Learn(context.Background(), nil)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if !result.Success {
		t.Error("empty batch must succeed")
	}
	if result.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", result.Confidence)
	}
	if len(result.Insights) != 0 {
		t.Errorf("insights = %v, want none", result.Insights)
	}
	if result.TasksCreated != 0 || result.TasksSkipped != 0 {
		t.Errorf("tasks created/skipped = %d/%d, want 0/0", result.TasksCreated, result.TasksSkipped)
	}
	if snap := o.Metrics(); snap.Cycles != 0 {
		t.Errorf("empty batch must not count as a cycle, got %d", snap.Cycles)
	}
}

func TestLearn_PoolCycle(t *testing.T) {
	o := NewPool(nil)
	batch := unlabeledBatch(10)

	result, records, err := o.LearnDetailed(context.Background(), batch)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if !result.Success {
		t.Error("cycle must succeed")
	}
	if result.TasksCreated != 1 || result.TasksSkipped != 0 {
		t.Errorf("tasks created/skipped = %d/%d, want 1/0", result.TasksCreated, result.TasksSkipped)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 performance record, got %d", len(records))
	}
	if records[0].Category != models.CategoryUncertainty {
		t.Errorf("record category = %s, want uncertainty for a fully unlabeled batch", records[0].Category)
	}
	if records[0].SamplesProcessed != 10 {
		t.Errorf("samples processed = %d, want all 10 within budget", records[0].SamplesProcessed)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Errorf("confidence = %v, want in (0,1]", result.Confidence)
	}
	if len(result.Insights) == 0 {
		t.Error("expected insights for a non-empty cycle")
	}
	if len(result.Improvements) != 1 {
		t.Errorf("improvements = %d, want 1", len(result.Improvements))
	}

	snap := o.Metrics()
	if snap.Cycles != 1 || snap.TotalTasks != 1 || snap.TotalQueries != 1 {
		t.Errorf("snapshot = %+v, want 1 cycle / 1 task / 1 query", snap)
	}
	if snap.AlgorithmType != "active_learning" {
		t.Errorf("algorithm type = %s, want active_learning", snap.AlgorithmType)
	}
}

func TestLearn_StreamingCycle(t *testing.T) {
	o := NewStreaming(nil)
	batch := make([]models.ExperienceRecord, 0, 60)
	for i := 0; i < 60; i++ {
		batch = append(batch, models.ExperienceRecord{
			ID:     fmt.Sprintf("n-%02d", i),
			Values: []float64{float64(i)},
		})
	}

	result, records, err := o.LearnDetailed(context.Background(), batch)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if result.TasksCreated != 1 {
		t.Fatalf("tasks created = %d, want 1 regression task", result.TasksCreated)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	// 60 pending records sit in the 51..100 band, so the adaptive strategy wins.
	if records[0].Category != models.CategoryAdaptiveLearning {
		t.Errorf("record category = %s, want adaptive_learning", records[0].Category)
	}

	snap := o.Metrics()
	if snap.TotalDrifts != 1 {
		t.Errorf("total drifts = %d, want 1", snap.TotalDrifts)
	}
	if snap.AlgorithmType != "online_learning" {
		t.Errorf("algorithm type = %s, want online_learning", snap.AlgorithmType)
	}
}

func TestLearn_SkipsInapplicableTasks(t *testing.T) {
	o := NewPool(nil)
	// Fully labeled tiny batch: pending=0, processed=3 satisfies no
	// applicability rule in pool mode.
	label := 1.0
	batch := []models.ExperienceRecord{
		{ID: "a", Text: "x", Label: &label},
		{ID: "b", Text: "y", Label: &label},
		{ID: "c", Text: "z", Label: &label},
	}

	result, records, err := o.LearnDetailed(context.Background(), batch)
	if err != nil {
		t.Fatalf("skipped tasks must not fail the cycle: %v", err)
	}
	if !result.Success {
		t.Error("cycle with only skipped tasks must still succeed")
	}
	if result.TasksCreated != 1 || result.TasksSkipped != 1 {
		t.Errorf("tasks created/skipped = %d/%d, want 1/1", result.TasksCreated, result.TasksSkipped)
	}
	if len(records) != 0 {
		t.Errorf("skipped tasks must produce no records, got %d", len(records))
	}
	// All executed sets are empty, so every confidence term defaults.
	if result.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", result.Confidence)
	}
}

func TestLearn_Deterministic(t *testing.T) {
	batch := unlabeledBatch(12)
	a, _, err := NewPool(nil).LearnDetailed(context.Background(), batch)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	b, _, err := NewPool(nil).LearnDetailed(context.Background(), batch)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if a.Confidence != b.Confidence {
		t.Errorf("confidence differs across identical runs: %v vs %v", a.Confidence, b.Confidence)
	}
	if len(a.Insights) != len(b.Insights) {
		t.Errorf("insight count differs: %d vs %d", len(a.Insights), len(b.Insights))
	}
	for i := range a.Insights {
		if a.Insights[i] != b.Insights[i] {
			t.Errorf("insight %d differs: %q vs %q", i, a.Insights[i], b.Insights[i])
		}
	}
}

type failingExecutor struct{}

func (failingExecutor) Execute(context.Context, *models.LearningTask, *models.Strategy) (*models.ExecutionOutcome, error) {
	return nil, fmt.Errorf("backend unavailable")
}

func TestLearn_ExecutorFailureIsAtomic(t *testing.T) {
	o := NewPool(nil, WithExecutor(failingExecutor{}))
	result, err := o.Learn(context.Background(), unlabeledBatch(10))
	if err == nil {
		t.Fatal("expected execution error")
	}
	if result != nil {
		t.Errorf("failed cycle must return no partial result, got %+v", result)
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("want ExecutionError, got %T: %v", err, err)
	}
	if execErr.Stage != "execute" {
		t.Errorf("stage = %s, want execute", execErr.Stage)
	}
	if snap := o.Metrics(); snap.Cycles != 0 {
		t.Errorf("failed cycle must not commit, got %d cycles", snap.Cycles)
	}
}

func TestMetrics_StableBetweenCycles(t *testing.T) {
	o := NewPool(nil)
	if _, err := o.Learn(context.Background(), unlabeledBatch(8)); err != nil {
		t.Fatalf("learn: %v", err)
	}
	first := o.Metrics()
	second := o.Metrics()
	if first != second {
		t.Errorf("back-to-back snapshots differ: %+v vs %+v", first, second)
	}
	if !first.Initialized {
		t.Error("snapshot must report initialized")
	}
	if first.AverageEfficiency <= 0 {
		t.Errorf("average efficiency = %v, want > 0 after a cycle", first.AverageEfficiency)
	}
}

func TestOrchestrator_Hooks(t *testing.T) {
	o := NewPool(nil)

	if err := o.AddTask(&models.LearningTask{ID: "ext-task"}); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if err := o.AddTask(nil); err == nil {
		t.Error("nil task must be rejected")
	}
	if err := o.AddQueryResult(&models.QueryResult{ID: "q", TaskID: "ext-task"}); err != nil {
		t.Fatalf("add query result: %v", err)
	}
	if err := o.AddQueryResult(&models.QueryResult{ID: "q2"}); err == nil {
		t.Error("query result without a task must be rejected")
	}
	if err := o.AddDriftDetection(&models.DriftReport{ID: "d", TaskID: "ext-task"}); err != nil {
		t.Fatalf("add drift report: %v", err)
	}

	snap := o.Metrics()
	if snap.TotalTasks != 1 || snap.TotalQueries != 1 || snap.TotalDrifts != 1 {
		t.Errorf("snapshot = %+v, want 1 task / 1 query / 1 drift", snap)
	}

	o.Reset()
	snap = o.Metrics()
	if snap.TotalTasks != 0 || snap.TotalQueries != 0 || snap.TotalDrifts != 0 || snap.Cycles != 0 {
		t.Errorf("after reset snapshot = %+v, want zeros", snap)
	}
	if snap.TotalStrategies != 4 {
		t.Errorf("after reset strategies = %d, want seed catalog restored", snap.TotalStrategies)
	}
}

func TestNew_UnknownMode(t *testing.T) {
	if _, err := New(models.Mode("unsupervised"), nil); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	o, err := New(models.ModeStreaming, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if o.Mode() != models.ModeStreaming {
		t.Errorf("mode = %s, want streaming", o.Mode())
	}
}

func TestUpdateConfig_RebuildsExecutor(t *testing.T) {
	o := NewStreaming(nil)
	cfg := DefaultConfig()
	cfg.DriftTolerance = 0.9
	o.UpdateConfig(cfg)

	// A tolerance of 0.9 swallows a shift that the default 0.25 would flag.
	batch := make([]models.ExperienceRecord, 0, 60)
	for i := 0; i < 60; i++ {
		v := 10.0
		if i >= 40 {
			v = 14.0
		}
		batch = append(batch, models.ExperienceRecord{ID: fmt.Sprintf("r-%02d", i), Values: []float64{v}})
	}
	_, records, err := o.LearnDetailed(context.Background(), batch)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].AdaptationCount != 0 {
		t.Errorf("adaptation count = %d, want 0 under the loosened tolerance", records[0].AdaptationCount)
	}
}
