package observability

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"repairer-search/internal/common/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observability struct {
	closers        []io.Closer
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	searchCounter  otelmetric.Int64Counter
	searchDuration otelmetric.Float64Histogram
}

type options struct {
	registerer     promclient.Registerer
	tracing        bool
	sampleRatio    float64
	spanProcessors []sdktrace.SpanProcessor
	closers        []io.Closer
}

type Option func(*options)

// WithRegisterer exports metrics to reg instead of the default Prometheus registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracing enables span recording with a parent-based ratio sampler.
func WithTracing(sampleRatio float64) Option {
	return func(o *options) {
		o.tracing = true
		o.sampleRatio = sampleRatio
	}
}

// WithSpanProcessor attaches a processor to the tracer provider and enables tracing.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.tracing = true
		o.spanProcessors = append(o.spanProcessors, sp)
	}
}

// WithSpanExporter batches finished spans to exp and enables tracing.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exp))
}

// TracingOptions turns the tracing config into options. Spans go to
// cfg.Output as JSON lines; a file output is closed by Shutdown.
func TracingOptions(cfg config.TracingConfig) ([]Option, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var (
		w      io.Writer
		closer io.Closer
	)
	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open trace output: %w", err)
		}
		w, closer = f, f
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	opts := []Option{WithTracing(cfg.SampleRatio), WithSpanExporter(exp)}
	if closer != nil {
		opts = append(opts, func(o *options) { o.closers = append(o.closers, closer) })
	}
	return opts, nil
}

func New(serviceName string, opts ...Option) *Observability {
	o := options{sampleRatio: 1}
	for _, opt := range opts {
		opt(&o)
	}

	obs := &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName), closers: o.closers}

	if o.tracing {
		tpOpts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.sampleRatio))),
		}
		for _, sp := range o.spanProcessors {
			tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
		}
		obs.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
		obs.tracer = obs.tracerProvider.Tracer(serviceName)
		if o.registerer == nil {
			otel.SetTracerProvider(obs.tracerProvider)
			otel.SetTextMapPropagator(propagation.TraceContext{})
		}
	}

	var exporterOpts []prometheus.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(o.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return obs
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	if o.registerer == nil {
		otel.SetMeterProvider(provider)
	}

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	searchCounter, _ := meter.Int64Counter(
		"searches.processed",
		otelmetric.WithDescription("Number of searches answered"),
	)

	searchDuration, _ := meter.Float64Histogram(
		"searches.duration",
		otelmetric.WithDescription("Search wall-clock duration"),
		otelmetric.WithUnit("ms"),
	)

	obs.meterProvider = provider
	obs.meter = meter
	obs.jobCounter = jobCounter
	obs.jobDuration = jobDuration
	obs.searchCounter = searchCounter
	obs.searchDuration = searchDuration
	return obs
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer("noop")}
}

// StartSpan starts a span named name as a child of any span in ctx.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordSearch counts one answered search and its duration.
func (o *Observability) RecordSearch(ctx context.Context, operation string, duration time.Duration, degraded bool) {
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("degraded", degraded),
	)
	if o.searchCounter != nil {
		o.searchCounter.Add(ctx, 1, attrs)
	}
	if o.searchDuration != nil {
		o.searchDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	for _, c := range o.closers {
		_ = c.Close()
	}
}
