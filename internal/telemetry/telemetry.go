package telemetry

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	// Global tracer for the application. Nil until InitTelemetry runs;
	// StartSpan tolerates that.
	Tracer trace.Tracer

	// Global meter for custom metrics
	Meter metric.Meter

	// Custom metrics
	CyclesStarted    metric.Int64Counter
	CyclesCompleted  metric.Int64Counter
	TasksPartitioned metric.Int64Counter
	TasksSkipped     metric.Int64Counter
	CycleLatency     metric.Float64Histogram
)

// InitTelemetry initializes OpenTelemetry tracing and metrics.
func InitTelemetry(ctx context.Context, serviceName, otelEndpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
			attribute.String("environment", "development"),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	Tracer = otel.Tracer(serviceName)
	Meter = otel.Meter(serviceName)

	if err := initMetrics(); err != nil {
		return nil, err
	}

	log.Printf("[Telemetry] Initialized with endpoint %s", otelEndpoint)

	return func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return traceProvider.Shutdown(shutdownCtx)
	}, nil
}

// StartSpan opens a span when telemetry is initialized and is a no-op
// otherwise, so library code can instrument unconditionally.
func StartSpan(ctx context.Context, name string) (context.Context, func()) {
	if Tracer == nil {
		return ctx, func() {}
	}
	ctx, span := Tracer.Start(ctx, name)
	return ctx, func() { span.End() }
}

// CycleStarted increments the cycle counter. Safe before InitTelemetry.
func CycleStarted(ctx context.Context) {
	if CyclesStarted != nil {
		CyclesStarted.Add(ctx, 1)
	}
}

// CycleCompleted records one finished cycle and its latency.
func CycleCompleted(ctx context.Context, partitioned, skipped int, latencyMs float64) {
	if CyclesCompleted != nil {
		CyclesCompleted.Add(ctx, 1)
	}
	if TasksPartitioned != nil {
		TasksPartitioned.Add(ctx, int64(partitioned))
	}
	if TasksSkipped != nil {
		TasksSkipped.Add(ctx, int64(skipped))
	}
	if CycleLatency != nil {
		CycleLatency.Record(ctx, latencyMs)
	}
}

func initMetrics() error {
	var err error

	CyclesStarted, err = Meter.Int64Counter(
		"strata.cycles.started",
		metric.WithDescription("Number of learning cycles started"),
	)
	if err != nil {
		return err
	}

	CyclesCompleted, err = Meter.Int64Counter(
		"strata.cycles.completed",
		metric.WithDescription("Number of learning cycles completed"),
	)
	if err != nil {
		return err
	}

	TasksPartitioned, err = Meter.Int64Counter(
		"strata.tasks.partitioned",
		metric.WithDescription("Number of learning tasks created by the partitioner"),
	)
	if err != nil {
		return err
	}

	TasksSkipped, err = Meter.Int64Counter(
		"strata.tasks.skipped",
		metric.WithDescription("Number of tasks with no applicable strategy"),
	)
	if err != nil {
		return err
	}

	CycleLatency, err = Meter.Float64Histogram(
		"strata.cycle.latency",
		metric.WithDescription("Learning cycle latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}
