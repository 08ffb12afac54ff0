package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/milan604/travelplanner-client/pkg/config"
	"github.com/milan604/travelplanner-client/pkg/logger"
	"github.com/milan604/travelplanner-client/pkg/version"
)

// Tracing is the span factory used by the API client and the backend.
type Tracing interface {
	// StartSpan creates a new span for tracing
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)

	// Shutdown flushes pending spans
	Shutdown(ctx context.Context) error

	// GetTracer returns the tracer instance
	GetTracer() trace.Tracer
}

// Observability owns an OpenTelemetry tracer provider.
type Observability struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	log            logger.LogManager
	serviceName    string
}

// New builds tracing from config. With tracing.endpoint set, spans are
// exported over OTLP/HTTP; otherwise they are sampled but stay in process.
//
//	tracing.endpoint  e.g. "localhost:4318" or "http://collector:4318"
//	service_name      defaults to "travelplanner-client"
func New(ctx context.Context, log logger.LogManager, cfg *config.Config) (*Observability, error) {
	if log == nil {
		log = logger.NewNop()
	}
	serviceName := cfg.GetStringD("service_name", "travelplanner-client")
	endpoint := cfg.GetString("tracing.endpoint")

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	}
	if endpoint != "" {
		exporter, err := newExporter(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	obs := NewWithProvider(sdktrace.NewTracerProvider(opts...), serviceName, log)

	otel.SetTracerProvider(obs.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.InfoF("tracing initialized: service=%s, version=%s, endpoint=%q", serviceName, version.Version, endpoint)
	return obs, nil
}

func newExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	if strings.Contains(endpoint, "://") {
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	}
	return otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
}

// NewWithProvider wraps an existing provider, e.g. one fed by a
// tracetest.SpanRecorder. It does not touch the global provider.
func NewWithProvider(tp *sdktrace.TracerProvider, serviceName string, log logger.LogManager) *Observability {
	if log == nil {
		log = logger.NewNop()
	}
	return &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName, trace.WithInstrumentationVersion(version.Version)),
		log:            log,
		serviceName:    serviceName,
	}
}

// StartSpan creates a new span for tracing
func (o *Observability) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, opts...)
}

// Shutdown gracefully shuts down the tracer provider
func (o *Observability) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		o.log.ErrorF("failed to shutdown tracer provider: %v", err)
		return err
	}
	o.log.InfoF("tracing shutdown completed")
	return nil
}

// GetTracer returns the tracer instance
func (o *Observability) GetTracer() trace.Tracer {
	return o.tracer
}

type globalTracing struct{ name string }

// Global returns a Tracing backed by whatever provider is installed globally
// at span time. Until New runs that is the no-op provider.
func Global(name string) Tracing { return globalTracing{name: name} }

func (g globalTracing) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return g.GetTracer().Start(ctx, name, opts...)
}

func (g globalTracing) Shutdown(context.Context) error { return nil }

func (g globalTracing) GetTracer() trace.Tracer { return otel.Tracer(g.name) }

var (
	_ Tracing = (*Observability)(nil)
	_ Tracing = globalTracing{}
)
