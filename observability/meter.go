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

	"github.com/kbukum/getfnative/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns development defaults.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
// The caller shuts it down on exit to flush the last export.
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

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get(logger.ComponentTelemetry).Info("meter initialized", logger.Fields(
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// SweepMetrics holds the instruments recorded by sweeps and engine runs.
type SweepMetrics struct {
	submitted      metric.Int64Counter
	results        metric.Int64Counter
	inflight       metric.Int64UpDownCounter
	engineDuration metric.Float64Histogram
	outstanding    metric.Int64Gauge
	buffered       metric.Int64Gauge
	runs           metric.Int64Counter
	runDuration    metric.Float64Histogram
}

// NewSweepMetrics creates the sweep instruments on meter.
func NewSweepMetrics(meter metric.Meter) (*SweepMetrics, error) {
	var (
		m   SweepMetrics
		err error
	)
	if m.submitted, err = meter.Int64Counter("sweep.candidates.submitted",
		metric.WithDescription("Candidates handed to the metric producer"),
	); err != nil {
		return nil, fmt.Errorf("creating sweep.candidates.submitted counter: %w", err)
	}
	if m.results, err = meter.Int64Counter("sweep.candidates.results",
		metric.WithDescription("Metric producer results by status"),
	); err != nil {
		return nil, fmt.Errorf("creating sweep.candidates.results counter: %w", err)
	}
	if m.inflight, err = meter.Int64UpDownCounter("sweep.candidates.inflight",
		metric.WithDescription("Metric computations currently running"),
	); err != nil {
		return nil, fmt.Errorf("creating sweep.candidates.inflight counter: %w", err)
	}
	if m.engineDuration, err = meter.Float64Histogram("sweep.candidate.duration",
		metric.WithDescription("Duration of one metric computation in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating sweep.candidate.duration histogram: %w", err)
	}
	if m.outstanding, err = meter.Int64Gauge("sweep.scheduler.outstanding",
		metric.WithDescription("Submitted, unresolved candidates"),
	); err != nil {
		return nil, fmt.Errorf("creating sweep.scheduler.outstanding gauge: %w", err)
	}
	if m.buffered, err = meter.Int64Gauge("sweep.scheduler.buffered",
		metric.WithDescription("Resolved candidates waiting for earlier indices"),
	); err != nil {
		return nil, fmt.Errorf("creating sweep.scheduler.buffered gauge: %w", err)
	}
	if m.runs, err = meter.Int64Counter("sweep.runs",
		metric.WithDescription("Finished sweeps by status"),
	); err != nil {
		return nil, fmt.Errorf("creating sweep.runs counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("sweep.run.duration",
		metric.WithDescription("Duration of a sweep in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating sweep.run.duration histogram: %w", err)
	}
	return &m, nil
}

// RecordSubmit counts a submission and marks it in flight.
func (m *SweepMetrics) RecordSubmit(ctx context.Context) {
	m.submitted.Add(ctx, 1)
	m.inflight.Add(ctx, 1)
}

// RecordResult closes a submission.
func (m *SweepMetrics) RecordResult(ctx context.Context, duration time.Duration, err error) {
	status := statusOf(err)
	m.inflight.Add(ctx, -1)
	m.results.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
	m.engineDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}

// RecordScheduler records a scheduler snapshot.
func (m *SweepMetrics) RecordScheduler(ctx context.Context, outstanding, buffered int) {
	m.outstanding.Record(ctx, int64(outstanding))
	m.buffered.Record(ctx, int64(buffered))
}

// RecordRun records a finished sweep.
func (m *SweepMetrics) RecordRun(ctx context.Context, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String(AttrStatus, statusOf(err)))
	m.runs.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
