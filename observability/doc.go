// Package observability provides OpenTelemetry tracing and metrics for build
// runs.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanTaskVisit)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("forge"))
//	metrics.RecordCommandEnd(ctx, "cc", "ok", duration)
//
// A nil *Metrics is valid and records nothing.
package observability
