// Package metrics configures the global OpenTelemetry meter provider and the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metric2 "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/deal-finder/internal/logger"
)

const defaultPromPort = "2223"

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

func getReaders(ctx context.Context, cfg Config) ([]metric2.Reader, error) {
	var readers []metric2.Reader

	for _, exp := range cfg.Exporters {
		switch exp.Kind {
		case ExporterPrometheus:
			promExporter, err := prometheus.New()
			if err != nil {
				return nil, fmt.Errorf("prometheus exporter: %w", err)
			}

			readers = append(readers, promExporter)
		case ExporterOTLP:
			opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithHeaders(exp.Headers)}
			if exp.Endpoint != "" {
				opts = append(opts, otlpmetricgrpc.WithEndpointURL(exp.Endpoint))
			}
			if exp.Insecure {
				opts = append(opts, otlpmetricgrpc.WithInsecure())
			}

			pusher, err := otlpmetricgrpc.New(ctx, opts...)
			if err != nil {
				return nil, fmt.Errorf("otlp metric exporter: %w", err)
			}

			readers = append(readers, metric2.NewPeriodicReader(pusher))
		default:
			return nil, fmt.Errorf("unknown metric exporter %q", exp.Kind)
		}
	}

	return readers, nil
}

// NewMetricProvider installs a global meter provider fed by the configured
// readers. With no readers, instruments are recorded but never exported.
func NewMetricProvider(ctx context.Context, options ...Option) (MetricProvider, error) {
	var cfg Config
	for _, opt := range options {
		opt(&cfg)
	}

	readers, err := getReaders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var metricsOps []metric2.Option

	for _, reader := range readers {
		metricsOps = append(metricsOps, metric2.WithReader(reader))
	}

	if cfg.ServiceName != "" {
		metricsOps = append(metricsOps, metric2.WithResource(
			resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
		))
	}

	meterProvider := metric2.NewMeterProvider(metricsOps...)

	otel.SetMeterProvider(meterProvider)

	return meterProvider, nil
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// ServePrometheusMetrics blocks serving /metrics until ctx is canceled.
func ServePrometheusMetrics(ctx context.Context, log logger.LoggerInterface, opts ...ServerOption) error {
	cfg := serverConfig{port: defaultPromPort}
	for _, o := range opts {
		o(&cfg)
	}
	port := cfg.port

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "serving metrics", "addr", srv.Addr+"/metrics")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
