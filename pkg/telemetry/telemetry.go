// Package telemetry wires optional OpenTelemetry instrumentation into the
// commit engine: a counter for commits attempted/succeeded/failed, a
// histogram of commit duration, and one span per Commit/CommitChecked
// call. Instrumentation is entirely opt-in — a Recorder is only consulted
// if one is installed, and the zero value (NoopRecorder) does nothing.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Recorder observes commit attempts. Graph.Commit/CommitChecked call
// Begin once per call and the returned End func once the result is known;
// a nil Recorder (or the NoopRecorder) records nothing.
type Recorder interface {
	Begin(ctx context.Context, checked bool) (end func(success bool))
}

// NoopRecorder discards every observation. It is the default when a Graph
// is constructed without an explicit Recorder.
type NoopRecorder struct{}

func (NoopRecorder) Begin(context.Context, bool) func(bool) {
	return func(bool) {}
}

// otelRecorder is the real OpenTelemetry-backed Recorder, built by New.
type otelRecorder struct {
	tracer    trace.Tracer
	commits   metric.Int64Counter
	failures  metric.Int64Counter
	duration  metric.Float64Histogram
}

// New builds a Recorder that reports to the global OpenTelemetry
// providers under the given service/component name. Call this once at
// startup when TTGRAPH_TELEMETRY_ENABLED is set; otherwise use
// NoopRecorder.
func New(serviceName string) (Recorder, error) {
	meter := otel.Meter(serviceName)

	commits, err := meter.Int64Counter("ttgraph.commits",
		metric.WithDescription("Number of commit attempts, by outcome"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("ttgraph.commit_failures",
		metric.WithDescription("Number of commit attempts that failed"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("ttgraph.commit_duration_seconds",
		metric.WithDescription("Wall-clock duration of a commit call"))
	if err != nil {
		return nil, err
	}

	return &otelRecorder{
		tracer:   otel.Tracer(serviceName),
		commits:  commits,
		failures: failures,
		duration: duration,
	}, nil
}

func (r *otelRecorder) Begin(ctx context.Context, checked bool) func(success bool) {
	start := time.Now()
	spanName := "ttgraph.Commit"
	if checked {
		spanName = "ttgraph.CommitChecked"
	}
	ctx, span := r.tracer.Start(ctx, spanName)

	return func(success bool) {
		elapsed := time.Since(start).Seconds()
		attrs := attribute.Bool("success", success)
		r.commits.Add(ctx, 1, metric.WithAttributes(attrs))
		if !success {
			r.failures.Add(ctx, 1)
		}
		r.duration.Record(ctx, elapsed, metric.WithAttributes(attrs))
		span.SetAttributes(attrs)
		span.End()
	}
}
