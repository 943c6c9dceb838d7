package learner

import (
	"testing"

	"github.com/jordanhubbard/strata/pkg/models"
)

func unlabeledBatch(n int) []models.ExperienceRecord {
	batch := make([]models.ExperienceRecord, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, models.ExperienceRecord{
			ID:   string(rune('a' + i)),
			Kind: models.PayloadText,
			Text: "sample",
		})
	}
	return batch
}

func TestPartitionPool_AllUnlabeled(t *testing.T) {
	p := NewPartitioner(models.ModePool, DefaultConfig())
	tasks := p.Partition(unlabeledBatch(10))

	if len(tasks) != 1 {
		t.Fatalf("expected exactly 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.Features.UnlabeledRatio != 1.0 {
		t.Errorf("unlabeled ratio = %v, want 1.0", task.Features.UnlabeledRatio)
	}
	if task.Budget != 10 {
		t.Errorf("budget = %d, want min(10, 50) = 10", task.Budget)
	}
	if task.Kind != models.TaskPoolUncertainty {
		t.Errorf("kind = %s, want pool_uncertainty", task.Kind)
	}
	if task.State != models.TaskCreated {
		t.Errorf("state = %s, want created", task.State)
	}
	if err := task.Validate(); err != nil {
		t.Errorf("task invalid: %v", err)
	}
}

func TestPartitionPool_BudgetCapped(t *testing.T) {
	p := NewPartitioner(models.ModePool, DefaultConfig())
	tasks := p.Partition(make([]models.ExperienceRecord, 80))
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Budget != 50 {
		t.Errorf("budget = %d, want capped at 50", tasks[0].Budget)
	}
}

func TestPartitionPool_MixedLabels(t *testing.T) {
	label := 0.9
	batch := []models.ExperienceRecord{
		{ID: "l1", Text: "a", Label: &label},
		{ID: "l2", Text: "b", Label: &label},
		{ID: "u1", Text: "c"},
		{ID: "u2", Text: "d"},
	}
	p := NewPartitioner(models.ModePool, DefaultConfig())
	tasks := p.Partition(batch)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.Features.ProcessedSize != 2 || task.Features.PendingSize != 2 {
		t.Errorf("split = %d processed / %d pending, want 2/2",
			task.Features.ProcessedSize, task.Features.PendingSize)
	}
	if task.Features.UnlabeledRatio != 0.5 {
		t.Errorf("unlabeled ratio = %v, want 0.5", task.Features.UnlabeledRatio)
	}
}

func TestPartitionStream_BucketsByKind(t *testing.T) {
	batch := []models.ExperienceRecord{
		{ID: "t1", Text: "hello"},
		{ID: "n1", Values: []float64{1, 2}},
		{ID: "n2", Values: []float64{3}},
		{ID: "s1", Sequence: []string{"a", "b"}},
		{ID: "a1", Action: "move"},
	}
	p := NewPartitioner(models.ModeStreaming, DefaultConfig())
	tasks := p.Partition(batch)

	kinds := map[models.TaskKind]int{}
	for _, task := range tasks {
		kinds[task.Kind] = task.Features.PendingSize
	}
	want := map[models.TaskKind]int{
		models.TaskStreamClassification: 1,
		models.TaskStreamRegression:     2,
		models.TaskStreamClustering:     1,
		models.TaskStreamIncremental:    1,
	}
	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(tasks))
	}
	for k, n := range want {
		if kinds[k] != n {
			t.Errorf("kind %s: pending = %d, want %d", k, kinds[k], n)
		}
	}
}

func TestPartitionStream_SingleKind(t *testing.T) {
	batch := make([]models.ExperienceRecord, 0, 60)
	for i := 0; i < 60; i++ {
		batch = append(batch, models.ExperienceRecord{Values: []float64{float64(i)}})
	}
	p := NewPartitioner(models.ModeStreaming, DefaultConfig())
	tasks := p.Partition(batch)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Kind != models.TaskStreamRegression {
		t.Errorf("kind = %s, want stream_regression", tasks[0].Kind)
	}
	if tasks[0].Features.PendingSize != 60 {
		t.Errorf("pending = %d, want 60", tasks[0].Features.PendingSize)
	}
}

func TestPartition_EmptyBatch(t *testing.T) {
	for _, mode := range []models.Mode{models.ModePool, models.ModeStreaming} {
		p := NewPartitioner(mode, DefaultConfig())
		if tasks := p.Partition(nil); tasks != nil {
			t.Errorf("%s: expected no tasks for empty batch, got %d", mode, len(tasks))
		}
	}
}

func TestDiversityEstimate_Bounds(t *testing.T) {
	identical := []models.ExperienceRecord{
		{Text: "same"}, {Text: "same"}, {Text: "same"},
	}
	if d := diversityEstimate(identical); d != 0 {
		t.Errorf("identical records: diversity = %v, want 0", d)
	}

	mixed := []models.ExperienceRecord{
		{Text: "short"},
		{Values: []float64{100, 200, 300}},
		{Sequence: []string{"a", "b", "c", "d", "e", "f", "g", "h"}},
		{Action: "navigate"},
	}
	d := diversityEstimate(mixed)
	if d <= 0 || d > 1 {
		t.Errorf("mixed records: diversity = %v, want in (0,1]", d)
	}

	if d := diversityEstimate(nil); d != 0 {
		t.Errorf("no records: diversity = %v, want 0", d)
	}
}

func TestComplexityEstimate(t *testing.T) {
	if c := complexityEstimate(nil); c != 0 {
		t.Errorf("empty: complexity = %v, want 0", c)
	}
	small := []models.ExperienceRecord{{Text: "ab"}}
	large := []models.ExperienceRecord{{Text: string(make([]byte, 5000))}}
	cs, cl := complexityEstimate(small), complexityEstimate(large)
	if cs >= cl {
		t.Errorf("complexity should grow with payload size: small=%v large=%v", cs, cl)
	}
	if cl > 1 {
		t.Errorf("complexity = %v, want <= 1", cl)
	}
}
