package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewMetricProvider_Prometheus(t *testing.T) {
	ctx := context.Background()

	mp, err := NewMetricProvider(ctx,
		WithServiceName("deal-finder-test"),
		WithExporter(Prometheus()),
	)
	if err != nil {
		t.Fatalf("NewMetricProvider: %v", err)
	}
	defer mp.Shutdown(ctx)

	counter, err := otel.Meter("metrics_test").Int64Counter("deal_test_runs")
	if err != nil {
		t.Fatalf("Int64Counter: %v", err)
	}
	counter.Add(ctx, 3)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "deal_test_runs") {
		t.Errorf("expected counter in scrape output, got:\n%s", body)
	}
}

func TestNewMetricProvider_NoReaders(t *testing.T) {
	mp, err := NewMetricProvider(context.Background())
	if err != nil {
		t.Fatalf("NewMetricProvider: %v", err)
	}
	if mp.Meter("x") == nil {
		t.Error("expected a meter")
	}
	_ = mp.Shutdown(context.Background())
}

func TestNewMetricProvider_UnknownExporter(t *testing.T) {
	_, err := NewMetricProvider(context.Background(), WithExporter(Exporter{Kind: "statsd"}))
	if err == nil {
		t.Fatal("expected an error for an unknown exporter")
	}
}

func TestServePrometheusMetrics_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- ServePrometheusMetrics(ctx, &nopLogger{}, WithPort("0")) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (nopLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (nopLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (nopLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (nopLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}
