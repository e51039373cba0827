package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"reading-effort/internal/common/logger"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	analysisCounter  otelmetric.Int64Counter
	analysisDuration otelmetric.Float64Histogram
}

type options struct {
	jaegerEndpoint string
	registerer     promclient.Registerer
	log            logger.Logger
}

type Option func(*options)

// WithJaeger exports spans to a Jaeger collector endpoint.
func WithJaeger(endpoint string) Option {
	return func(o *options) { o.jaegerEndpoint = endpoint }
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRegisterer registers the otel metric exporter somewhere other than the
// default Prometheus registry.
func WithRegisterer(r promclient.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// New wires otel metrics through the Prometheus exporter and, when a Jaeger
// endpoint is given, a batching tracer provider. Failures degrade to no-op
// instruments rather than aborting startup.
func New(serviceName string, opts ...Option) *Observability {
	o := options{log: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	obs := &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName)}

	var exporterOpts []prometheus.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(o.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		o.log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
	} else {
		provider := metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(provider)
		meter := provider.Meter(serviceName)

		obs.meterProvider = provider
		obs.analysisCounter, _ = meter.Int64Counter(
			"analyses.processed",
			otelmetric.WithDescription("Number of analysis operations processed"),
		)
		obs.analysisDuration, _ = meter.Float64Histogram(
			"analyses.duration",
			otelmetric.WithDescription("Analysis operation duration"),
			otelmetric.WithUnit("ms"),
		)
	}

	if o.jaegerEndpoint != "" {
		tp, err := newTracerProvider(serviceName, o.jaegerEndpoint)
		if err != nil {
			o.log.Warn("Tracing disabled", map[string]interface{}{"error": err.Error()})
		} else {
			otel.SetTracerProvider(tp)
			obs.tracerProvider = tp
			obs.tracer = tp.Tracer(serviceName)
		}
	}

	return obs
}

// StartSpan starts a span on the configured tracer. The no-op tracer is used
// when tracing is off, so callers always get a usable span.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordAnalysis(ctx context.Context, operation, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	if o.analysisCounter != nil {
		o.analysisCounter.Add(ctx, 1, attrs)
	}
	if o.analysisDuration != nil {
		o.analysisDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
