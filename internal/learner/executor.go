package learner

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jordanhubbard/strata/pkg/models"
)

// Executor runs one (task, strategy) pairing and produces the raw outcome
// for the evaluator. The pool and streaming pipelines plug in different
// implementations.
type Executor interface {
	Execute(ctx context.Context, task *models.LearningTask, strategy *models.Strategy) (*models.ExecutionOutcome, error)
}

// Scorer assigns a per-sample acquisition score. The stock implementation is
// an explicitly seeded pseudo-random placeholder (there is no trained model
// behind the scores); swap it for a real acquisition function or a fixed
// test scorer via WithScorer.
type Scorer interface {
	Score(rec *models.ExperienceRecord, strategy *models.Strategy) float64
}

// seededScorer is the placeholder scorer. Deterministic for a fixed seed and
// call order.
type seededScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededScorer returns the placeholder pseudo-random scorer.
func NewSeededScorer(seed int64) Scorer {
	return &seededScorer{rng: rand.New(rand.NewSource(seed))}
}

func (s *seededScorer) Score(_ *models.ExperienceRecord, _ *models.Strategy) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// sampleCost is the unit cost charged per selected sample.
const sampleCost = 1.0

// QueryExecutor is the pool-mode executor: it picks a budget-bounded sample
// subset from the pending pool and scores it. Selection is first-N in batch
// order, which keeps the choice deterministic; the interesting ranking lives
// in the (pluggable) scorer.
type QueryExecutor struct {
	scorer          Scorer
	defaultBaseline float64
}

func NewQueryExecutor(scorer Scorer, defaultBaseline float64) *QueryExecutor {
	return &QueryExecutor{scorer: scorer, defaultBaseline: defaultBaseline}
}

func (q *QueryExecutor) Execute(ctx context.Context, task *models.LearningTask, strategy *models.Strategy) (*models.ExecutionOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, fmt.Errorf("task %s: no strategy assigned", task.ID)
	}

	limit := task.Budget
	if n := len(task.Pending); n < limit {
		limit = n
	}

	result := &models.QueryResult{
		ID:           uuid.New().String(),
		TaskID:       task.ID,
		StrategyID:   strategy.ID,
		SampleScores: make(map[string]float64, limit),
		Timestamp:    time.Now(),
	}
	for i := 0; i < limit; i++ {
		rec := &task.Pending[i]
		result.SelectedSamples = append(result.SelectedSamples, rec.ID)
		result.SampleScores[rec.ID] = q.scorer.Score(rec, strategy)
	}

	baseline := baselineEfficiency(task, q.defaultBaseline)
	if task.Budget > 0 {
		ratio := float64(len(result.SelectedSamples)) / float64(task.Budget)
		if ratio > 1 {
			ratio = 1
		}
		result.ExpectedImprovement = baseline * ratio
	}
	result.Cost = float64(len(result.SelectedSamples)) * sampleCost
	return &models.ExecutionOutcome{Query: result}, nil
}

// DriftDetector is the streaming-mode executor: it compares a windowed
// statistic of the most recent records against the stream's history and
// classifies any shift.
type DriftDetector struct {
	fallbackWindow    int
	fallbackTolerance float64
}

func NewDriftDetector(window int, tolerance float64) *DriftDetector {
	return &DriftDetector{fallbackWindow: window, fallbackTolerance: tolerance}
}

func (d *DriftDetector) Execute(ctx context.Context, task *models.LearningTask, strategy *models.Strategy) (*models.ExecutionOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, fmt.Errorf("task %s: no strategy assigned", task.ID)
	}

	window := d.fallbackWindow
	tolerance := d.fallbackTolerance
	if p, ok := strategy.Params.(models.DriftDetectionParams); ok {
		window = p.WindowSize
		tolerance = p.Tolerance
	}

	report := &models.DriftReport{
		ID:         uuid.New().String(),
		TaskID:     task.ID,
		StrategyID: strategy.ID,
		Kind:       models.DriftNone,
		Timestamp:  time.Now(),
	}

	xs := streamStatistic(task.Pending)
	kind, severity := classifyDrift(xs, window, tolerance)
	report.Kind = kind
	report.Severity = severity
	if kind == models.DriftNone {
		report.Confidence = 0.5
	} else {
		report.Confidence = models.Clamp01(0.5 + severity/2)
	}
	report.AdaptationRequired = kind != models.DriftNone
	return &models.ExecutionOutcome{Drift: report}, nil
}

// streamStatistic projects each record onto a single number for the drift
// comparison: mean of numeric values, payload size otherwise.
func streamStatistic(records []models.ExperienceRecord) []float64 {
	xs := make([]float64, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Values) > 0 {
			var sum float64
			for _, v := range rec.Values {
				sum += v
			}
			xs = append(xs, sum/float64(len(rec.Values)))
			continue
		}
		xs = append(xs, float64(rec.Size()))
	}
	return xs
}

// classifyDrift splits the series into history and a recent window and
// compares their mean and variance against the tolerance band.
// Mean and variance both shifted reads as concept drift, mean alone as data
// drift, variance alone as virtual drift.
func classifyDrift(xs []float64, window int, tolerance float64) (models.DriftKind, float64) {
	if len(xs) < 4 {
		return models.DriftNone, 0
	}
	w := window
	if max := len(xs) / 2; w > max {
		w = max
	}
	if w < 2 {
		w = 2
	}

	history := xs[:len(xs)-w]
	recent := xs[len(xs)-w:]

	meanH, varH := meanVariance(history)
	meanR, varR := meanVariance(recent)

	relMean := math.Abs(meanR-meanH) / (math.Abs(meanH) + 1)
	relVar := math.Abs(varR-varH) / (varH + 1)

	meanShift := relMean > tolerance
	varShift := relVar > tolerance
	severity := models.Clamp01(math.Max(relMean, relVar))

	switch {
	case meanShift && varShift:
		return models.DriftConcept, severity
	case meanShift:
		return models.DriftData, severity
	case varShift:
		return models.DriftVirtual, severity
	default:
		return models.DriftNone, severity
	}
}

func meanVariance(xs []float64) (mean, variance float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, variance
}
