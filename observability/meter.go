package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/forge/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name reported for build metrics.
	ServiceName string `mapstructure:"service_name"`
	// ServiceVersion is the forge version.
	ServiceVersion string `mapstructure:"service_version"`
	// Environment labels the run (local, ci).
	Environment string `mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	// Insecure allows insecure connections.
	Insecure bool `mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval"`
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "local",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded during build runs.
type Metrics struct {
	runTotal        metric.Int64Counter
	runDuration     metric.Float64Histogram
	commandTotal    metric.Int64Counter
	commandDuration metric.Float64Histogram
	commandActive   metric.Int64UpDownCounter
	nodeTotal       metric.Int64Counter
	nodeDuration    metric.Float64Histogram
	errorTotal      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runTotal, err := meter.Int64Counter("build.run.total",
		metric.WithDescription("Total number of build runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating build.run.total counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("build.run.duration",
		metric.WithDescription("Duration of build runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating build.run.duration histogram: %w", err)
	}

	commandTotal, err := meter.Int64Counter("process.command.total",
		metric.WithDescription("Total number of spawned commands"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.command.total counter: %w", err)
	}

	commandDuration, err := meter.Float64Histogram("process.command.duration",
		metric.WithDescription("Duration of spawned commands in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.command.duration histogram: %w", err)
	}

	commandActive, err := meter.Int64UpDownCounter("process.command.active",
		metric.WithDescription("Number of currently running commands"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.command.active gauge: %w", err)
	}

	nodeTotal, err := meter.Int64Counter("build.node.total",
		metric.WithDescription("Total number of visited nodes by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating build.node.total counter: %w", err)
	}

	nodeDuration, err := meter.Float64Histogram("build.node.duration",
		metric.WithDescription("Duration of node visits in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating build.node.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		runTotal:        runTotal,
		runDuration:     runDuration,
		commandTotal:    commandTotal,
		commandDuration: commandDuration,
		commandActive:   commandActive,
		nodeTotal:       nodeTotal,
		nodeDuration:    nodeDuration,
		errorTotal:      errorTotal,
	}, nil
}

// RecordRun records a completed build run.
func (m *Metrics) RecordRun(ctx context.Context, mode, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status),
	)
	m.runTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

// RecordCommandStart increments the running command count.
func (m *Metrics) RecordCommandStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.commandActive.Add(ctx, 1)
}

// RecordCommandEnd decrements running commands and records the finished one.
func (m *Metrics) RecordCommandEnd(ctx context.Context, program, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.commandActive.Add(ctx, -1)
	m.commandTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("program", program),
		attribute.String("status", status),
	))
	m.commandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("program", program),
	))
}

// RecordNode records one node visit.
func (m *Metrics) RecordNode(ctx context.Context, rule, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.nodeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rule", rule),
		attribute.String("status", status),
	))
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("rule", rule),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
