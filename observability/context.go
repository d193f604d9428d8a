package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunContext tracks one build run across tracing and metrics.
type RunContext struct {
	RunID     string
	Mode      string
	Targets   []string
	StartTime time.Time
	Metrics   *Metrics
}

// NewRunContext creates a run context. If metrics is nil, metric recording
// is silently skipped.
func NewRunContext(runID, mode string, targets []string, metrics *Metrics) *RunContext {
	return &RunContext{
		RunID:     runID,
		Mode:      mode,
		Targets:   targets,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// Start opens the run span and stores the run context in the returned context.
func (rc *RunContext) Start(ctx context.Context, spanName string) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, spanName)
	span.SetAttributes(
		attribute.String("build.run_id", rc.RunID),
		attribute.String("build.mode", rc.Mode),
		attribute.StringSlice(AttrTarget, rc.Targets),
	)
	return WithRunContext(ctx, rc), span
}

// End closes the run span and records run metrics.
func (rc *RunContext) End(ctx context.Context, span trace.Span, err error) {
	duration := time.Since(rc.StartTime)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	rc.Metrics.RecordRun(ctx, rc.Mode, status, duration)
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
