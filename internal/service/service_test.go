package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/jordanhubbard/strata/internal/learner"
	"github.com/jordanhubbard/strata/internal/messagebus"
	"github.com/jordanhubbard/strata/pkg/messages"
	"github.com/jordanhubbard/strata/pkg/models"
)

type fakeBus struct {
	handler   func(*messages.ExperienceBatchMessage)
	published []*messages.ResultMessage
	pubErr    error
}

func (f *fakeBus) PublishResult(_ context.Context, result *messages.ResultMessage) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.published = append(f.published, result)
	return nil
}

func (f *fakeBus) SubscribeExperiences(_ models.Mode, handler func(*messages.ExperienceBatchMessage)) error {
	f.handler = handler
	return nil
}

func (f *fakeBus) Close() {}

var _ messagebus.Bus = (*fakeBus)(nil)

type fakeStore struct {
	cycles  []string
	records int
}

func (f *fakeStore) InsertCycle(_ string, result *models.LearningResult, records []*models.PerformanceRecord) error {
	f.cycles = append(f.cycles, result.CycleID)
	f.records += len(records)
	return nil
}

type fakeCache struct {
	snapshots []learner.Snapshot
}

func (f *fakeCache) SetSnapshot(_ context.Context, _ models.Mode, snap learner.Snapshot) error {
	f.snapshots = append(f.snapshots, snap)
	return nil
}

func testBatch(n int) *messages.ExperienceBatchMessage {
	records := make([]models.ExperienceRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.ExperienceRecord{ID: fmt.Sprintf("r-%02d", i), Text: "x"})
	}
	return messages.NewExperienceBatch("batch-1", models.ModePool, "test", records, "corr-1")
}

func TestService_HandleBatch(t *testing.T) {
	bus := &fakeBus{}
	store := &fakeStore{}
	scores := &fakeCache{}
	svc := New(learner.NewPool(nil), bus, store, scores)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if bus.handler == nil {
		t.Fatal("service did not subscribe")
	}

	bus.handler(testBatch(10))

	if len(bus.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(bus.published))
	}
	msg := bus.published[0]
	if msg.Type != "learn.completed" {
		t.Errorf("type = %q, want learn.completed", msg.Type)
	}
	if msg.BatchID != "batch-1" || msg.CorrelationID != "corr-1" {
		t.Errorf("correlation lost: %+v", msg)
	}
	if msg.Result == nil || !msg.Result.Success {
		t.Errorf("result missing or failed: %+v", msg.Result)
	}

	if len(store.cycles) != 1 || store.records != 1 {
		t.Errorf("store saw %d cycles / %d records, want 1/1", len(store.cycles), store.records)
	}
	if len(scores.snapshots) != 1 {
		t.Fatalf("cache saw %d snapshots, want 1", len(scores.snapshots))
	}
	if scores.snapshots[0].Cycles != 1 {
		t.Errorf("cached snapshot cycles = %d, want 1", scores.snapshots[0].Cycles)
	}
}

type failingExecutor struct{}

func (failingExecutor) Execute(context.Context, *models.LearningTask, *models.Strategy) (*models.ExecutionOutcome, error) {
	return nil, fmt.Errorf("executor down")
}

func TestService_HandleBatchFailure(t *testing.T) {
	bus := &fakeBus{}
	store := &fakeStore{}
	svc := New(learner.NewPool(nil, learner.WithExecutor(failingExecutor{})), bus, store, nil)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	bus.handler(testBatch(10))

	if len(bus.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(bus.published))
	}
	msg := bus.published[0]
	if msg.Type != "learn.failed" {
		t.Errorf("type = %q, want learn.failed", msg.Type)
	}
	if msg.Error == "" {
		t.Error("failure message must carry the error")
	}
	if len(store.cycles) != 0 {
		t.Errorf("failed cycle must not be persisted, got %d", len(store.cycles))
	}
}

func TestService_NilStoreAndCache(t *testing.T) {
	bus := &fakeBus{}
	svc := New(learner.NewStreaming(nil), bus, nil, nil)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Bus-to-bus only: no store, no cache, still publishes.
	batch := testBatch(3)
	batch.Mode = models.ModeStreaming
	bus.handler(batch)
	if len(bus.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(bus.published))
	}
}
