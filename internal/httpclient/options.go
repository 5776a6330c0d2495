package httpclient

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceOption selects which bodies are copied into span events.
type TraceOption string

const (
	TraceRequest  TraceOption = "request"
	TraceResponse TraceOption = "response"
)

type clientConfig struct {
	providerName string
	timeout      time.Duration
	headers      map[string]string
	baseURL      string
	maxBodyBytes int64
	tracer       trace.Tracer
	traceBodies  map[TraceOption]bool
}

// ClientOption configures an InstrumentedClient.
type ClientOption func(*clientConfig)

func newClientConfig(opts []ClientOption) clientConfig {
	cfg := clientConfig{
		providerName: "default",
		timeout:      defaultRequestTimeout,
		traceBodies:  make(map[TraceOption]bool),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithProviderName labels metrics and spans with the upstream's name.
func WithProviderName(name string) ClientOption {
	return func(c *clientConfig) {
		if name != "" {
			c.providerName = name
		}
	}
}

// WithRequestTimeout bounds a single attempt.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *clientConfig) {
		c.headers = headers
	}
}

// WithBaseURL is prepended to relative paths. Absolute URLs bypass it.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithMaxBodyBytes caps how much of a response body is read. Zero reads
// everything.
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *clientConfig) {
		c.maxBodyBytes = n
	}
}

// WithTraceOptions sets the tracer and which bodies to record on spans.
func WithTraceOptions(tracer trace.Tracer, opts ...TraceOption) ClientOption {
	return func(c *clientConfig) {
		c.tracer = tracer
		for _, opt := range opts {
			c.traceBodies[opt] = true
		}
	}
}

// ResponseErrorHandler maps the final response to an error, or nil.
type ResponseErrorHandler func(statusCode int, body []byte) error

// Label is a metric attribute attached to one request.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a label.
func NewLabel(key, value string) Label {
	return Label{Key: key, Value: value}
}

type requestConfig struct {
	errorHandler ResponseErrorHandler
	labels       []Label
	maxTries     uint
	retryWait    time.Duration
}

// RequestOption configures a single request.
type RequestOption func(*requestConfig)

func newRequestConfig(opts []RequestOption) requestConfig {
	cfg := requestConfig{maxTries: 1}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithResponseErrorHandler classifies responses after the last attempt.
func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(c *requestConfig) {
		c.errorHandler = handler
	}
}

// WithLabels adds metric attributes.
func WithLabels(labels ...Label) RequestOption {
	return func(c *requestConfig) {
		c.labels = append(c.labels, labels...)
	}
}

// WithRetries allows up to maxTries attempts on transport errors, 429 and 5xx,
// waiting with exponential backoff from initialWait. Model calls must not use
// it: their failures go straight to the fallback.
func WithRetries(maxTries uint, initialWait time.Duration) RequestOption {
	return func(c *requestConfig) {
		if maxTries > 0 {
			c.maxTries = maxTries
		}
		c.retryWait = initialWait
	}
}
