package dag

import (
	"context"
	"time"

	"github.com/kbukum/forge/logger"
	"github.com/kbukum/forge/observability"
)

// Middleware wraps a VisitFunc.
type Middleware func(next VisitFunc) VisitFunc

// WithTracing wraps visits with OpenTelemetry span creation.
// Each visit creates a span named "{prefix}.{label}".
func WithTracing(prefix string) Middleware {
	return func(next VisitFunc) VisitFunc {
		return func(ctx context.Context, node Node) error {
			ctx, span := observability.StartSpan(ctx, prefix+"."+Label(node))
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrNode, node.Key())

			err := next(ctx, node)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return err
		}
	}
}

// WithMetrics wraps visits with metric recording. Records visit count,
// duration, and errors.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(next VisitFunc) VisitFunc {
		return func(ctx context.Context, node Node) error {
			start := time.Now()
			err := next(ctx, node)
			duration := time.Since(start)

			status := "ok"
			if err != nil {
				status = "error"
				metrics.RecordError(ctx, "visit", Label(node))
			}
			metrics.RecordNode(ctx, Label(node), status, duration)
			return err
		}
	}
}

// WithLogging wraps visits with logging of node, duration and outcome.
func WithLogging(log *logger.Logger) Middleware {
	return func(next VisitFunc) VisitFunc {
		return func(ctx context.Context, node Node) error {
			start := time.Now()
			err := next(ctx, node)
			duration := time.Since(start)

			fields := map[string]interface{}{
				logger.FieldNode: Label(node),
				"duration":       duration.String(),
			}

			if err != nil {
				fields[logger.FieldError] = err.Error()
				log.Error("node failed", fields)
			} else {
				log.Debug("node completed", fields)
			}
			return err
		}
	}
}
