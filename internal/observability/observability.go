// Package observability wires OpenTelemetry tracing and metrics into model
// loading.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "github.com/nlstn/go-edm"

	// DefaultServiceName is reported when no service name is configured.
	DefaultServiceName = "edm-provider"

	// LoadSpanName names the span covering one model load.
	LoadSpanName = "edm.model.load"
)

// Outcome values recorded on the load counter.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Option configures a Config.
type Option func(*Config)

// WithTracerProvider sets the tracer provider used for load spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) { c.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider used for load metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) { c.meterProvider = mp }
}

// WithServiceName sets the service name attribute.
func WithServiceName(name string) Option {
	return func(c *Config) { c.serviceName = name }
}

// WithServiceVersion sets the service version attribute.
func WithServiceVersion(version string) Option {
	return func(c *Config) { c.serviceVersion = version }
}

// WithLogger sets the logger used to report instrumentation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.logger = logger }
}

// Config holds the tracer and instruments used while loading models.
type Config struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	serviceVersion string
	logger         *slog.Logger

	tracer       trace.Tracer
	loads        metric.Int64Counter
	loadDuration metric.Float64Histogram
	initialized  bool
}

// NewConfig applies opts over noop providers.
func NewConfig(opts ...Option) *Config {
	c := &Config{serviceName: DefaultServiceName}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracerProvider == nil {
		c.tracerProvider = tracenoop.NewTracerProvider()
	}
	if c.meterProvider == nil {
		c.meterProvider = metricnoop.NewMeterProvider()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Initialize creates the tracer and metric instruments. It is safe to call
// more than once.
func (c *Config) Initialize() error {
	if c.initialized {
		return nil
	}
	c.tracer = c.tracerProvider.Tracer(instrumentationName, trace.WithInstrumentationVersion(c.serviceVersion))

	meter := c.meterProvider.Meter(instrumentationName, metric.WithInstrumentationVersion(c.serviceVersion))
	loads, err := meter.Int64Counter("edm.model.loads",
		metric.WithDescription("Number of model loads by outcome"),
		metric.WithUnit("{load}"))
	if err != nil {
		return fmt.Errorf("failed to create load counter: %w", err)
	}
	duration, err := meter.Float64Histogram("edm.model.load.duration",
		metric.WithDescription("Duration of model loads"),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("failed to create load duration histogram: %w", err)
	}

	c.loads = loads
	c.loadDuration = duration
	c.initialized = true
	return nil
}

// ServiceName returns the configured service name.
func (c *Config) ServiceName() string {
	return c.serviceName
}

// Load tracks one model load started by StartLoad.
type Load struct {
	cfg   *Config
	span  trace.Span
	start time.Time
}

// StartLoad opens the load span. The returned context carries the span.
func (c *Config) StartLoad(ctx context.Context, source string) (context.Context, *Load) {
	if !c.initialized {
		if err := c.Initialize(); err != nil {
			c.logger.Warn("Observability instruments unavailable", "error", err)
		}
	}
	tracer := c.tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	ctx, span := tracer.Start(ctx, LoadSpanName, trace.WithAttributes(
		attribute.String("service.name", c.serviceName),
		attribute.String("edm.source", source),
	))
	return ctx, &Load{cfg: c, span: span, start: time.Now()}
}

// SetModel annotates the span with the published model.
func (l *Load) SetModel(namespaces int, fingerprint string) {
	l.span.SetAttributes(
		attribute.Int("edm.namespaces", namespaces),
		attribute.String("edm.fingerprint", fingerprint),
	)
}

// End records the outcome and closes the span. err is nil for a
// successful load.
func (l *Load) End(ctx context.Context, outcome string, err error) {
	if err != nil {
		l.span.RecordError(err)
		l.span.SetStatus(codes.Error, err.Error())
	} else {
		l.span.SetStatus(codes.Ok, "")
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("service.name", l.cfg.serviceName),
	)
	if l.cfg.loads != nil {
		l.cfg.loads.Add(ctx, 1, attrs)
	}
	if l.cfg.loadDuration != nil {
		l.cfg.loadDuration.Record(ctx, time.Since(l.start).Seconds(), attrs)
	}
	l.span.End()
}
