// Package observability provides OpenTelemetry metrics integration for
// the request pipeline: request duration, request count, and error count
// instruments, exported alongside the Prometheus metrics in
// internal/netmetrics.
package observability

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ExporterType selects the OTLP metrics transport.
type ExporterType int

const (
	ExporterGRPC ExporterType = iota
	ExporterHTTP
)

// OTelMetricsConfig contains configuration for OpenTelemetry Metrics.
type OTelMetricsConfig struct {
	Enabled      bool
	Endpoint     string
	ExporterType ExporterType
	ServiceName  string
	Insecure     bool
	Headers      map[string]string
	// ExportInterval is the interval between metric exports.
	ExportInterval time.Duration
}

// DefaultOTelMetricsConfig returns sensible defaults.
func DefaultOTelMetricsConfig() OTelMetricsConfig {
	return OTelMetricsConfig{
		Enabled:        os.Getenv("CORENETWORKKIT_OTEL_METRICS_ENABLED") == "true",
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
		ExporterType:   ExporterGRPC,
		ServiceName:    "corenetworkkit",
		Insecure:       true,
		Headers:        make(map[string]string),
		ExportInterval: 60 * time.Second,
	}
}

// OTelMetricsProvider wraps the OpenTelemetry meter provider with the
// request-pipeline metrics this module records.
type OTelMetricsProvider struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter

	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	errorCount      metric.Int64Counter
}

// InitOTelMetrics initializes OpenTelemetry Metrics. Returns (nil, nil)
// when disabled: tracing/metrics export is opt-in.
func InitOTelMetrics(ctx context.Context, cfg OTelMetricsConfig) (*OTelMetricsProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var exporter sdkmetric.Exporter
	var err error
	switch cfg.ExporterType {
	case ExporterHTTP:
		exporter, err = createHTTPMetricExporter(ctx, cfg)
	default:
		exporter, err = createGRPCMetricExporter(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.ExportInterval)),
		),
	)

	otel.SetMeterProvider(provider)
	meter := provider.Meter(cfg.ServiceName)

	omp := &OTelMetricsProvider{provider: provider, meter: meter}
	if err := omp.initMetrics(); err != nil {
		return nil, err
	}
	return omp, nil
}

func (o *OTelMetricsProvider) initMetrics() error {
	var err error

	o.requestDuration, err = o.meter.Float64Histogram(
		"corenetworkkit.request.duration",
		metric.WithDescription("End-to-end task execution duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.requestCount, err = o.meter.Int64Counter(
		"corenetworkkit.request.count",
		metric.WithDescription("Number of task executions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	o.errorCount, err = o.meter.Int64Counter(
		"corenetworkkit.error.count",
		metric.WithDescription("Number of failed task executions"),
		metric.WithUnit("{error}"),
	)
	return err
}

// RecordRequest records one task execution's outcome.
func (o *OTelMetricsProvider) RecordRequest(ctx context.Context, method string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("http.method", method)}
	o.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	o.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		o.errorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// Shutdown gracefully shuts down the metrics provider.
func (o *OTelMetricsProvider) Shutdown(ctx context.Context) error {
	if o == nil || o.provider == nil {
		return nil
	}
	return o.provider.Shutdown(ctx)
}

func createGRPCMetricExporter(ctx context.Context, cfg OTelMetricsConfig) (sdkmetric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
	}
	return otlpmetricgrpc.New(ctx, opts...)
}

func createHTTPMetricExporter(ctx context.Context, cfg OTelMetricsConfig) (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
	}
	return otlpmetrichttp.New(ctx, opts...)
}
