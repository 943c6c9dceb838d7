package learner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jordanhubbard/strata/pkg/models"
)

// emptyTermDefault is the confidence contribution of an empty aggregate.
const emptyTermDefault = 0.5

// Synthesize turns the cycle's aggregates into human-readable insight
// strings, one sentence per non-empty aggregate. Purely descriptive.
func Synthesize(cfg *Config, tasks []*models.LearningTask, strategies map[string]*models.Strategy, outcomes []*models.ExecutionOutcome, records []*models.PerformanceRecord) []string {
	insights := []string{}

	if len(tasks) > 0 {
		kindCounts := map[models.TaskKind]int{}
		for _, t := range tasks {
			kindCounts[t.Kind]++
		}
		insights = append(insights, fmt.Sprintf("partitioned batch into %d task(s): %s", len(tasks), formatCounts(kindCounts)))
	}

	if len(strategies) > 0 {
		catCounts := map[models.StrategyCategory]int{}
		for _, s := range strategies {
			catCounts[s.Category]++
		}
		names := make([]string, 0, len(catCounts))
		for cat := range catCounts {
			names = append(names, string(cat))
		}
		sort.Strings(names)
		insights = append(insights, fmt.Sprintf("applied %d strategy categories: %s", len(names), strings.Join(names, ", ")))
	}

	var samplesSelected int
	driftCounts := map[models.DriftKind]int{}
	for _, o := range outcomes {
		if o.Query != nil {
			samplesSelected += len(o.Query.SelectedSamples)
		}
		if o.Drift != nil && o.Drift.Kind != models.DriftNone {
			driftCounts[o.Drift.Kind]++
		}
	}
	if samplesSelected > 0 {
		insights = append(insights, fmt.Sprintf("selected %d samples for acquisition", samplesSelected))
	}
	if len(driftCounts) > 0 {
		insights = append(insights, fmt.Sprintf("detected distribution drift: %s", formatCounts(driftCounts)))
	}

	if len(records) > 0 {
		var sum float64
		for _, r := range records {
			sum += r.Efficiency
		}
		insights = append(insights, fmt.Sprintf("mean efficiency across %d strategy execution(s): %.2f", len(records), sum/float64(len(records))))
	}

	return insights
}

func formatCounts[K ~string](counts map[K]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[K(k)]))
	}
	return strings.Join(parts, ", ")
}

// BlendConfidence computes the cycle confidence as a weighted blend of mean
// task efficiency, mean strategy confidence, and mean performance
// efficiency. Each term falls back to 0.5 when its input set is empty; the
// result is clamped to [0,1].
func BlendConfidence(cfg *Config, tasks []*models.LearningTask, strategies map[string]*models.Strategy, records []*models.PerformanceRecord) float64 {
	taskTerm := emptyTermDefault
	if len(tasks) > 0 {
		var sum float64
		for _, t := range tasks {
			sum += baselineEfficiency(t, cfg.BaselineEfficiency)
		}
		taskTerm = sum / float64(len(tasks))
	}

	stratTerm := emptyTermDefault
	if len(strategies) > 0 {
		var sum float64
		for _, s := range strategies {
			sum += s.Confidence
		}
		stratTerm = sum / float64(len(strategies))
	}

	perfTerm := emptyTermDefault
	if len(records) > 0 {
		var sum float64
		for _, r := range records {
			sum += r.Efficiency
		}
		perfTerm = sum / float64(len(records))
	}

	blend := cfg.TaskWeight*taskTerm + cfg.StrategyWeight*stratTerm + cfg.PerformanceWeight*perfTerm
	return models.Clamp01(blend)
}
