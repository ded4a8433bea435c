// Package telemetry wires OpenTelemetry tracing and metrics for the
// analysis service. Everything is best-effort: when disabled (or when an
// instrument fails to build) the helpers degrade to no-ops rather than
// affecting request handling.
package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/tenderlens/tenderlens/internal/redact"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider holds the tracer, meter, and the request-level instruments.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	requestsCounter metric.Int64Counter
	requestDuration metric.Float64Histogram
	findingsCounter metric.Int64Counter
	barrierScore    metric.Float64Histogram

	shutdownFns []func(context.Context) error
}

// NewProvider configures OTLP exporters and registers them globally. A
// disabled config yields a provider backed by no-op tracer and meter.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		p := &Provider{
			tracer: trace.NewNoopTracerProvider().Tracer(""),
			meter:  noop.NewMeterProvider().Meter(""),
		}
		p.initInstruments()
		return p, nil
	}

	protocol := strings.ToLower(cfg.Protocol)
	redact.Logf("telemetry enabled (OTLP %s) endpoint=%s; expect periodic export warnings if no collector is listening", protocol, cfg.Endpoint)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	tp, err := newTracerProvider(ctx, protocol, cfg.Endpoint, res)
	if err != nil {
		return nil, err
	}
	mp, err := newMeterProvider(ctx, protocol, cfg.Endpoint, res)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	p := &Provider{
		Enabled:     true,
		tracer:      tp.Tracer("tenderlens"),
		meter:       mp.Meter("tenderlens"),
		shutdownFns: []func(context.Context) error{tp.Shutdown, mp.Shutdown},
	}
	p.initInstruments()
	return p, nil
}

func newTracerProvider(ctx context.Context, protocol, endpoint string, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var (
		exp sdktrace.SpanExporter
		err error
	)
	switch protocol {
	case "", "grpc":
		exp, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	case "http":
		exp, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	}
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, protocol, endpoint string, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)
	switch protocol {
	case "", "grpc":
		exp, err = otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure())
	case "http":
		exp, err = otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
	}
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
	), nil
}

// Instrument creation errors are ignored; a failed instrument records
// nothing but never blocks a request.
func (p *Provider) initInstruments() {
	p.requestsCounter, _ = p.meter.Int64Counter("tenderlens_requests_total")
	p.requestDuration, _ = p.meter.Float64Histogram("tenderlens_request_duration_ms")
	p.findingsCounter, _ = p.meter.Int64Counter("tenderlens_findings_total")
	p.barrierScore, _ = p.meter.Float64Histogram("tenderlens_barrier_score")
}

func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return trace.NewNoopTracerProvider().Tracer("")
	}
	return p.tracer
}

func (p *Provider) Meter() metric.Meter {
	if p == nil {
		return noop.NewMeterProvider().Meter("")
	}
	return p.meter
}

// Shutdown flushes and stops the exporters.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	for _, fn := range p.shutdownFns {
		_ = fn(ctx)
	}
}

// RecordRequestMetrics emits the per-request instruments with low-cardinality
// labels. The barrier score histogram only records successful analyses so
// rejected and failed requests do not skew the distribution.
func (p *Provider) RecordRequestMetrics(route, backend, outcome string, durMs float64, score int, findings int) {
	if p == nil {
		return
	}
	labels := metric.WithAttributes(
		attribute.String("tenderlens.route", route),
		attribute.String("tenderlens.backend", backend),
		attribute.String("tenderlens.outcome", outcome),
	)
	p.requestsCounter.Add(context.Background(), 1, labels)
	p.requestDuration.Record(context.Background(), durMs, labels)
	if findings > 0 {
		p.findingsCounter.Add(context.Background(), int64(findings), labels)
	}
	if score >= 0 && outcome == "success" {
		p.barrierScore.Record(context.Background(), float64(score), labels)
	}
}
