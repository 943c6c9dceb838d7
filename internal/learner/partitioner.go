package learner

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jordanhubbard/strata/pkg/models"
)

// Partitioner splits an incoming experience batch into learning tasks.
// It is a pure function of the batch: no state, no side effects.
type Partitioner struct {
	mode models.Mode
	cfg  *Config
}

func NewPartitioner(mode models.Mode, cfg *Config) *Partitioner {
	return &Partitioner{mode: mode, cfg: cfg}
}

// Partition produces the task set for one learning cycle.
func (p *Partitioner) Partition(batch []models.ExperienceRecord) []*models.LearningTask {
	if len(batch) == 0 {
		return nil
	}
	if p.mode == models.ModeStreaming {
		return p.partitionStream(batch)
	}
	return p.partitionPool(batch)
}

// partitionPool splits the batch into processed (labeled) and pending
// (unlabeled) sets. A batch with any pending records yields one task over
// both sets; a fully labeled batch yields a single expected-change task so
// the processed grouping is still scored.
func (p *Partitioner) partitionPool(batch []models.ExperienceRecord) []*models.LearningTask {
	var processed, pending []models.ExperienceRecord
	for _, rec := range batch {
		if rec.Labeled() {
			processed = append(processed, rec)
		} else {
			pending = append(pending, rec)
		}
	}

	task := p.newTask(processed, pending)
	task.Kind = poolKind(task.Features)
	return []*models.LearningTask{task}
}

// poolKind mirrors the selector's dominant-feature rule so a task's kind
// names the strategy family it will most likely be paired with.
func poolKind(f models.TaskFeatures) models.TaskKind {
	switch {
	case f.UnlabeledRatio > 0.7:
		return models.TaskPoolUncertainty
	case f.UnlabeledRatio > 0.5:
		return models.TaskPoolDiversity
	case f.ProcessedSize > 10:
		return models.TaskPoolExpectedChange
	default:
		return models.TaskPoolCommittee
	}
}

// partitionStream buckets records by payload kind, one task per non-empty
// bucket. Labeled records count as already processed within their bucket.
func (p *Partitioner) partitionStream(batch []models.ExperienceRecord) []*models.LearningTask {
	kinds := []models.PayloadKind{models.PayloadText, models.PayloadNumeric, models.PayloadSequence, models.PayloadAction}
	buckets := make(map[models.PayloadKind][]models.ExperienceRecord, len(kinds))
	for _, rec := range batch {
		k := rec.InferKind()
		buckets[k] = append(buckets[k], rec)
	}

	var tasks []*models.LearningTask
	for _, k := range kinds {
		records := buckets[k]
		if len(records) == 0 {
			continue
		}
		var processed, pending []models.ExperienceRecord
		for _, rec := range records {
			if rec.Labeled() {
				processed = append(processed, rec)
			} else {
				pending = append(pending, rec)
			}
		}
		task := p.newTask(processed, pending)
		task.Kind = streamKind(k)
		tasks = append(tasks, task)
	}
	return tasks
}

func streamKind(k models.PayloadKind) models.TaskKind {
	switch k {
	case models.PayloadNumeric:
		return models.TaskStreamRegression
	case models.PayloadSequence:
		return models.TaskStreamClustering
	case models.PayloadAction:
		return models.TaskStreamIncremental
	default:
		return models.TaskStreamClassification
	}
}

func (p *Partitioner) newTask(processed, pending []models.ExperienceRecord) *models.LearningTask {
	budget := len(pending)
	if budget > p.cfg.DefaultBudget {
		budget = p.cfg.DefaultBudget
	}
	task := &models.LearningTask{
		ID:        uuid.New().String(),
		State:     models.TaskCreated,
		Processed: processed,
		Pending:   pending,
		Budget:    budget,
		Scorecard: map[string]float64{},
		CreatedAt: time.Now(),
	}
	task.Features = computeFeatures(processed, pending)
	return task
}

// computeFeatures derives the per-task features the selector rules read.
func computeFeatures(processed, pending []models.ExperienceRecord) models.TaskFeatures {
	total := len(processed) + len(pending)
	f := models.TaskFeatures{
		Size:          total,
		PendingSize:   len(pending),
		ProcessedSize: len(processed),
	}
	if total > 0 {
		f.UnlabeledRatio = float64(len(pending)) / float64(total)
	}

	all := make([]models.ExperienceRecord, 0, total)
	all = append(all, processed...)
	all = append(all, pending...)
	f.Diversity = diversityEstimate(all)
	f.Complexity = complexityEstimate(all)
	return f
}

// diversitySampleCap bounds the pairwise comparison to keep the estimate
// cheap on large batches.
const diversitySampleCap = 32

// diversityEstimate is the mean pairwise dissimilarity over a small numeric
// projection of the payloads, in [0,1].
func diversityEstimate(records []models.ExperienceRecord) float64 {
	n := len(records)
	if n > diversitySampleCap {
		n = diversitySampleCap
	}
	if n < 2 {
		return 0
	}
	vecs := make([][3]float64, n)
	for i := 0; i < n; i++ {
		vecs[i] = project(&records[i])
	}
	var sum float64
	var pairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += dissimilarity(vecs[i], vecs[j])
			pairs++
		}
	}
	return models.Clamp01(sum / float64(pairs))
}

// project maps a record onto a small numeric feature vector:
// normalized payload size, payload kind, and mean numeric value.
func project(rec *models.ExperienceRecord) [3]float64 {
	size := float64(rec.Size())
	var kindAxis float64
	switch rec.InferKind() {
	case models.PayloadText:
		kindAxis = 0
	case models.PayloadNumeric:
		kindAxis = 1.0 / 3
	case models.PayloadSequence:
		kindAxis = 2.0 / 3
	case models.PayloadAction:
		kindAxis = 1
	}
	var mean float64
	if len(rec.Values) > 0 {
		for _, v := range rec.Values {
			mean += v
		}
		mean /= float64(len(rec.Values))
		mean = math.Tanh(mean / 100)
	}
	return [3]float64{size / (size + 10), kindAxis, mean}
}

func dissimilarity(a, b [3]float64) float64 {
	var sq float64
	for i := range a {
		d := a[i] - b[i]
		sq += d * d
	}
	// max distance in the unit-ish cube is sqrt(3)
	return math.Sqrt(sq) / math.Sqrt(3)
}

// complexityEstimate derives a [0,1] complexity from mean payload size.
func complexityEstimate(records []models.ExperienceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var total float64
	for i := range records {
		total += float64(records[i].Size())
	}
	mean := total / float64(len(records))
	return models.Clamp01(mean / (mean + 50))
}
