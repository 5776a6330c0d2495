// Package httpclient provides an instrumented HTTP client with OTEL tracing,
// request metrics and optional retries for idempotent fetches.
package httpclient

import (
	"context"
	"maps"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/fd1az/deal-finder/internal/httpclient"

	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 60 * time.Second
	defaultMaxConnsPerHost       = 8
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond

	metricRequestCounter  = "http_client_requests_total"
	metricRequestDuration = "http_client_request_duration_seconds"
)

// Client builds instrumented requests.
type Client interface {
	// NewRequest creates a request with default options.
	NewRequest() Request
	// NewRequestWithOptions creates a request with per-request options.
	NewRequestWithOptions(opts ...RequestOption) Request
}

// InstrumentedClient wraps http.Client with OTEL instrumentation.
type InstrumentedClient struct {
	client         *http.Client
	instruments    instruments
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	defaultHeaders map[string]string
	maxBodyBytes   int64
	logRequest     bool
	logResponse    bool
}

type instruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

var _ Client = (*InstrumentedClient)(nil)

// NewInstrumentedClient creates a new instrumented HTTP client.
func NewInstrumentedClient(opts ...ClientOption) (*InstrumentedClient, error) {
	cfg := newClientConfig(opts)

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: defaultDialKeepAlive,
		}).DialContext,
		MaxConnsPerHost:       defaultMaxConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}

	httpClient := &http.Client{
		Timeout: cfg.timeout,
		Transport: otelhttp.NewTransport(
			transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	providerName := cfg.providerName

	meter := otel.Meter(
		instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("provider", providerName)),
	)

	requests, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("HTTP requests by provider and outcome"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("HTTP request latency including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tracer := cfg.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	return &InstrumentedClient{
		client:         httpClient,
		instruments:    instruments{requests: requests, duration: duration},
		providerName:   providerName,
		tracer:         tracer,
		baseURL:        cfg.baseURL,
		defaultHeaders: cfg.headers,
		maxBodyBytes:   cfg.maxBodyBytes,
		logRequest:     cfg.traceBodies[TraceRequest],
		logResponse:    cfg.traceBodies[TraceResponse],
	}, nil
}

// NewRequest creates a new request builder with default options.
func (c *InstrumentedClient) NewRequest() Request {
	return c.NewRequestWithOptions()
}

// NewRequestWithOptions creates a new request builder with custom options.
func (c *InstrumentedClient) NewRequestWithOptions(opts ...RequestOption) Request {
	return &requestBuilder{
		client:        c,
		headers:       copyHeaders(c.defaultHeaders),
		requestConfig: newRequestConfig(opts),
	}
}

func copyHeaders(src map[string]string) map[string]string {
	if src == nil {
		return make(map[string]string)
	}
	return maps.Clone(src)
}
