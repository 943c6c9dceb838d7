package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Strata
type Metrics struct {
	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration *prometheus.HistogramVec
	CycleFailures *prometheus.CounterVec
	Confidence    *prometheus.HistogramVec

	// Task metrics
	TasksPartitioned *prometheus.CounterVec
	TasksSkipped     *prometheus.CounterVec

	// Strategy metrics
	StrategiesSelected   *prometheus.CounterVec
	StrategiesRegistered *prometheus.GaugeVec

	// Outcome metrics
	SamplesSelected prometheus.Counter
	DriftsDetected  *prometheus.CounterVec
	Efficiency      *prometheus.HistogramVec

	// Transport metrics
	BatchesConsumed  *prometheus.CounterVec
	ResultsPublished *prometheus.CounterVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			CyclesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "strata_cycles_total",
					Help: "Total learning cycles run",
				},
				[]string{"mode"},
			),
			CycleDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "strata_cycle_duration_seconds",
					Help:    "Learning cycle duration",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"mode"},
			),
			CycleFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "strata_cycle_failures_total",
					Help: "Learning cycles that failed atomically",
				},
				[]string{"mode", "stage"},
			),
			Confidence: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "strata_cycle_confidence",
					Help:    "Blended confidence of completed cycles",
					Buckets: prometheus.LinearBuckets(0, 0.1, 11),
				},
				[]string{"mode"},
			),
			TasksPartitioned: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "strata_tasks_partitioned_total",
					Help: "Learning tasks created by the partitioner",
				},
				[]string{"mode"},
			),
			TasksSkipped: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "strata_tasks_skipped_total",
					Help: "Tasks with no applicable strategy",
				},
				[]string{"mode"},
			),
			StrategiesSelected: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "strata_strategies_selected_total",
					Help: "Strategy selections by category",
				},
				[]string{"category"},
			),
			StrategiesRegistered: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "strata_strategies_registered",
					Help: "Strategies currently in the registry",
				},
				[]string{"mode"},
			),
			SamplesSelected: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "strata_samples_selected_total",
					Help: "Pending samples selected for acquisition",
				},
			),
			DriftsDetected: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "strata_drifts_detected_total",
					Help: "Drift reports that required adaptation",
				},
				[]string{"mode"},
			),
			Efficiency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "strata_strategy_efficiency",
					Help:    "Final efficiency per strategy execution",
					Buckets: prometheus.LinearBuckets(0, 0.1, 11),
				},
				[]string{"category"},
			),
			BatchesConsumed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "strata_batches_consumed_total",
					Help: "Experience batches consumed from the bus",
				},
				[]string{"mode"},
			),
			ResultsPublished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "strata_results_published_total",
					Help: "Learning results published to the bus",
				},
				[]string{"mode"},
			),
		}
	})
	return sharedMetrics
}
