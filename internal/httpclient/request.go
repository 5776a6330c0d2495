package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and executes one HTTP call.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string) (*Response, error)

	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetFormData(data map[string]string) Request
	SetResult(result any) Request
}

// Response wraps http.Response with the already-read body.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body as bytes.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response body as string.
func (r *Response) String() string {
	return string(r.body)
}

// IsError returns true if the status code indicates an error (>= 400).
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// IsSuccess returns true if the status code indicates success (< 400).
func (r *Response) IsSuccess() bool {
	return r.StatusCode < 400
}

type requestBuilder struct {
	requestConfig

	client      *InstrumentedClient
	headers     map[string]string
	queryParams url.Values
	formData    url.Values
	body        any
	result      any
}

// Get executes a GET request.
func (r *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

// Post executes a POST request.
func (r *requestBuilder) Post(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, path)
}

// SetBody sets the request body. Anything but []byte, string or io.Reader is
// JSON encoded.
func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

// SetHeader sets a single header.
func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

// SetQueryParam sets a single query parameter.
func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.queryParams == nil {
		r.queryParams = make(url.Values)
	}
	r.queryParams.Set(key, value)
	return r
}

// SetFormData sets an application/x-www-form-urlencoded body. It takes
// precedence over SetBody.
func (r *requestBuilder) SetFormData(data map[string]string) Request {
	if r.formData == nil {
		r.formData = make(url.Values)
	}
	for k, v := range data {
		r.formData.Set(k, v)
	}
	return r
}

// SetResult decodes a JSON body into result. A decode failure is recorded on
// the span and does not fail the request.
func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) execute(ctx context.Context, method, target string) (*Response, error) {
	c := r.client
	fullURL := r.resolve(target)

	ctx, span := c.tracer.Start(ctx, "http.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", fullURL),
			attribute.String("provider", c.providerName),
		),
	)
	defer span.End()

	payload, err := r.encodeBody()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode body")
		return nil, err
	}
	if c.logRequest && payload != nil {
		span.AddEvent("request.body", trace.WithAttributes(
			attribute.String("http.request_body", string(payload)),
		))
	}

	start := time.Now()
	resp, err := r.withRetries(ctx, span, func() (*Response, error) {
		return r.roundTrip(ctx, method, fullURL, payload)
	})
	c.instruments.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(r.attrs()...))

	if err != nil {
		r.recordError(ctx, span, err)
		return nil, err
	}

	if c.logResponse {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", resp.String()),
		))
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if r.result != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, r.result); err != nil {
			span.RecordError(err)
		}
	}

	if r.errorHandler != nil {
		if handlerErr := r.errorHandler(resp.StatusCode, resp.body); handlerErr != nil {
			r.recordMetrics(ctx, false)
			span.SetStatus(codes.Error, handlerErr.Error())
			return resp, handlerErr
		}
	}

	r.recordMetrics(ctx, !resp.IsError())
	return resp, nil
}

func (r *requestBuilder) resolve(target string) string {
	fullURL := target
	if base := r.client.baseURL; base != "" && !strings.HasPrefix(target, "http") {
		fullURL = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(target, "/")
	}
	if len(r.queryParams) > 0 {
		separator := "?"
		if strings.Contains(fullURL, "?") {
			separator = "&"
		}
		fullURL += separator + r.queryParams.Encode()
	}
	return fullURL
}

// encodeBody returns the payload bytes so every attempt can replay them.
func (r *requestBuilder) encodeBody() ([]byte, error) {
	if len(r.formData) > 0 {
		r.headers["Content-Type"] = "application/x-www-form-urlencoded"
		return []byte(r.formData.Encode()), nil
	}

	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case io.Reader:
		return io.ReadAll(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
		return payload, nil
	}
}

func (r *requestBuilder) roundTrip(ctx context.Context, method, fullURL string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if limit := r.client.maxBodyBytes; limit > 0 {
		reader = io.LimitReader(resp.Body, limit)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{Response: resp, body: data}, nil
}

// withRetries runs attempt until it succeeds with a non-retryable status or
// maxTries is used up. The last response is returned even when retryable so
// the error handler can classify it.
func (r *requestBuilder) withRetries(ctx context.Context, span trace.Span, attempt func() (*Response, error)) (*Response, error) {
	if r.maxTries <= 1 {
		resp, err := attempt()
		return resp, unwrapPermanent(err)
	}

	b := backoff.NewExponentialBackOff()
	if r.retryWait > 0 {
		b.InitialInterval = r.retryWait
		b.Reset()
	}

	for try := uint(1); ; try++ {
		resp, err := attempt()
		if !retryable(resp, err) || try >= r.maxTries {
			return resp, unwrapPermanent(err)
		}

		wait := b.NextBackOff()
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("attempt", int(try)),
			attribute.String("wait", wait.String()),
		))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func retryable(resp *Response, err error) bool {
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}

func unwrapPermanent(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}

func (r *requestBuilder) recordError(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)

	var netErr net.Error
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	r.recordMetrics(ctx, false)
}

func (r *requestBuilder) attrs() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(r.labels)+1)
	attrs = append(attrs, attribute.String("provider", r.client.providerName))
	for _, label := range r.labels {
		attrs = append(attrs, attribute.String(label.Key, label.Value))
	}
	return attrs
}

func (r *requestBuilder) recordMetrics(ctx context.Context, success bool) {
	attrs := append(r.attrs(), attribute.Bool("success", success))
	r.client.instruments.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
}
