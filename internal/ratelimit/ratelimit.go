// Package ratelimit paces calls to shared upstreams with golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/fd1az/deal-finder/internal/apperror"
)

const meterName = "github.com/fd1az/deal-finder/internal/ratelimit"

// Limiter is a token bucket sized in requests per minute.
type Limiter struct {
	name    string
	limiter *rate.Limiter
	waited  metric.Float64Histogram
}

// New creates a limiter allowing requestsPerMinute with a burst of a tenth of
// that, at least one. Zero or less disables limiting.
func New(requestsPerMinute int) *Limiter {
	return NewNamed("", requestsPerMinute)
}

// NewNamed is New with a name attached to the wait-time metric.
func NewNamed(name string, requestsPerMinute int) *Limiter {
	l := &Limiter{name: name}

	if requestsPerMinute <= 0 {
		l.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		burst := max(requestsPerMinute/10, 1)
		l.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
	}

	// a nil histogram only disables the metric
	l.waited, _ = otel.Meter(meterName).Float64Histogram(
		"ratelimit_wait_seconds",
		metric.WithDescription("Time spent waiting for a rate limit token"),
		metric.WithUnit("s"),
	)

	return l
}

// Wait blocks until a token is available or ctx is done. A wait cut short is
// reported as CodeRateLimitExceeded.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	err := l.limiter.Wait(ctx)

	if l.waited != nil {
		l.waited.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("limiter", l.name), attribute.Bool("granted", err == nil)))
	}

	if err != nil {
		return apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err),
			apperror.WithContext(l.name))
	}
	return nil
}

// Allow reports whether a token is available now, consuming it if so.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
