package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jordanhubbard/strata/internal/config"
	"github.com/jordanhubbard/strata/internal/learner"
	"github.com/jordanhubbard/strata/internal/messagebus"
	"github.com/jordanhubbard/strata/internal/metrics"
	"github.com/jordanhubbard/strata/pkg/messages"
	"github.com/jordanhubbard/strata/pkg/models"
)

// ResultStore persists completed cycles. Satisfied by *database.Database.
type ResultStore interface {
	InsertCycle(batchID string, result *models.LearningResult, records []*models.PerformanceRecord) error
}

// ScoreCache mirrors orchestrator state for read-side consumers. Satisfied
// by *cache.Cache.
type ScoreCache interface {
	SetSnapshot(ctx context.Context, mode models.Mode, snap learner.Snapshot) error
}

// Service consumes experience batches from the bus, runs the orchestrator,
// and fans the results out to the bus, the history store, and the cache.
type Service struct {
	mode         models.Mode
	orchestrator *learner.Orchestrator
	bus          messagebus.Bus
	store        ResultStore // optional
	scores       ScoreCache  // optional
	prom         *metrics.Metrics
}

// New assembles a service around an orchestrator. store and scores may be
// nil; the service then runs bus-to-bus only.
func New(orch *learner.Orchestrator, bus messagebus.Bus, store ResultStore, scores ScoreCache) *Service {
	return &Service{
		mode:         orch.Mode(),
		orchestrator: orch,
		bus:          bus,
		store:        store,
		scores:       scores,
		prom:         metrics.NewMetrics(),
	}
}

// Start subscribes to the mode's experience subject. Handlers run on the
// bus's delivery goroutine; each batch is one synchronous Learn call.
func (s *Service) Start(ctx context.Context) error {
	if err := s.bus.SubscribeExperiences(s.mode, func(batch *messages.ExperienceBatchMessage) {
		s.handleBatch(ctx, batch)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to experiences: %w", err)
	}
	s.prom.StrategiesRegistered.WithLabelValues(string(s.mode)).Set(float64(len(s.orchestrator.Strategies())))
	log.Printf("[SERVICE] consuming %s experience batches", s.mode)
	return nil
}

func (s *Service) handleBatch(ctx context.Context, batch *messages.ExperienceBatchMessage) {
	s.prom.BatchesConsumed.WithLabelValues(string(s.mode)).Inc()
	start := time.Now()

	result, records, err := s.orchestrator.LearnDetailed(ctx, batch.Experiences)
	if err != nil {
		s.observeFailure(err)
		log.Printf("[SERVICE] batch %s failed: %v", batch.BatchID, err)
		if pubErr := s.bus.PublishResult(ctx, messages.LearnFailed(batch.BatchID, s.mode, err, batch.CorrelationID)); pubErr != nil {
			log.Printf("[SERVICE] failed to publish failure for batch %s: %v", batch.BatchID, pubErr)
		}
		return
	}

	s.observeResult(result, records, time.Since(start))
	s.persist(ctx, batch.BatchID, result, records)

	if err := s.bus.PublishResult(ctx, messages.LearnCompleted(batch.BatchID, s.mode, result, batch.CorrelationID)); err != nil {
		log.Printf("[SERVICE] failed to publish result for batch %s: %v", batch.BatchID, err)
		return
	}
	s.prom.ResultsPublished.WithLabelValues(string(s.mode)).Inc()
}

func (s *Service) observeResult(result *models.LearningResult, records []*models.PerformanceRecord, elapsed time.Duration) {
	mode := string(s.mode)
	s.prom.CyclesTotal.WithLabelValues(mode).Inc()
	s.prom.CycleDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	s.prom.Confidence.WithLabelValues(mode).Observe(result.Confidence)
	s.prom.TasksPartitioned.WithLabelValues(mode).Add(float64(result.TasksCreated))
	s.prom.TasksSkipped.WithLabelValues(mode).Add(float64(result.TasksSkipped))
	for _, r := range records {
		s.prom.Efficiency.WithLabelValues(string(r.Category)).Observe(r.Efficiency)
		s.prom.StrategiesSelected.WithLabelValues(string(r.Category)).Inc()
		if r.SamplesProcessed > 0 {
			s.prom.SamplesSelected.Add(float64(r.SamplesProcessed))
		}
		if r.AdaptationCount > 0 {
			s.prom.DriftsDetected.WithLabelValues(mode).Add(float64(r.AdaptationCount))
		}
	}
}

func (s *Service) observeFailure(err error) {
	stage := "unknown"
	var execErr *learner.ExecutionError
	if errors.As(err, &execErr) {
		stage = execErr.Stage
	}
	s.prom.CycleFailures.WithLabelValues(string(s.mode), stage).Inc()
}

// persist writes the cycle to the history store and refreshes the cached
// snapshot. Both are best-effort: the result has already been computed and
// will still be published.
func (s *Service) persist(ctx context.Context, batchID string, result *models.LearningResult, records []*models.PerformanceRecord) {
	if s.store != nil {
		if err := s.store.InsertCycle(batchID, result, records); err != nil {
			log.Printf("[SERVICE] failed to persist cycle %s: %v", result.CycleID, err)
		}
	}
	if s.scores != nil {
		if err := s.scores.SetSnapshot(ctx, s.mode, s.orchestrator.Metrics()); err != nil {
			log.Printf("[SERVICE] failed to cache snapshot: %v", err)
		}
	}
}

// ApplyConfig swaps the orchestrator tunables on a hot reload.
func (s *Service) ApplyConfig(cfg *config.Config) {
	s.orchestrator.UpdateConfig(cfg.LearnerTunables())
}
