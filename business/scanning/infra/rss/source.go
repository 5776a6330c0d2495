// Package rss fetches deal listings from RSS feeds and scrapes each deal page
// for its details and features.
package rss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/scanning/app"
	"github.com/fd1az/deal-finder/business/scanning/domain"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/httpclient"
	"github.com/fd1az/deal-finder/internal/logger"
	"github.com/fd1az/deal-finder/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/deal-finder/business/scanning/infra/rss"

	// DefaultMaxPerFeed is how many entries are taken from the top of each feed.
	DefaultMaxPerFeed = 10

	// detail pages are fetched at most twice a second
	pageRequestsPerMinute = 120

	// feeds are third-party pages, so only these GETs retry; model calls never do
	feedTries     = 3
	feedRetryWait = 500 * time.Millisecond
	maxBodyBytes  = 4 << 20
)

var _ app.FeedSource = (*Source)(nil)

// Config holds configuration for the feed source.
type Config struct {
	Feeds          []string
	MaxPerFeed     int
	FetchDetails   bool
	RequestTimeout time.Duration
}

// Source reads every configured feed in order.
type Source struct {
	client  httpclient.Client
	parser  *gofeed.Parser
	limiter *ratelimit.Limiter
	config  Config
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewSource creates a Source.
func NewSource(cfg Config, log logger.LoggerInterface) (*Source, error) {
	if len(cfg.Feeds) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("at least one feed is required"))
	}
	if cfg.MaxPerFeed <= 0 {
		cfg.MaxPerFeed = DefaultMaxPerFeed
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("feeds"),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
		httpclient.WithMaxBodyBytes(maxBodyBytes),
		httpclient.WithTraceOptions(tracer),
		httpclient.WithHeaders(map[string]string{
			"User-Agent": "Mozilla/5.0 (compatible; deal-finder/1.0)",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Source{
		client:  client,
		parser:  gofeed.NewParser(),
		limiter: ratelimit.NewNamed("deal-pages", pageRequestsPerMinute),
		config:  cfg,
		logger:  log,
		tracer:  tracer,
	}, nil
}

// Fetch returns the listings of all feeds. A failing feed is skipped; the call
// fails only when every feed failed.
func (s *Source) Fetch(ctx context.Context) ([]domain.ScrapedListing, error) {
	ctx, span := s.tracer.Start(ctx, "rss.fetch",
		trace.WithAttributes(attribute.Int("feeds", len(s.config.Feeds))),
	)
	defer span.End()

	var (
		listings []domain.ScrapedListing
		lastErr  error
		failed   int
	)
	for _, feedURL := range s.config.Feeds {
		got, err := s.fetchFeed(ctx, feedURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn(ctx, "feed fetch failed", "feed", feedURL, "error", err)
			lastErr = err
			failed++
			continue
		}
		listings = append(listings, got...)
	}

	if failed == len(s.config.Feeds) {
		return nil, apperror.Wrap(lastErr, apperror.CodeFeedFetchFailed, "all feeds failed")
	}

	span.SetAttributes(attribute.Int("listings", len(listings)))
	return listings, nil
}

func (s *Source) fetchFeed(ctx context.Context, feedURL string) ([]domain.ScrapedListing, error) {
	resp, err := s.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "feed")),
		httpclient.WithRetries(feedTries, feedRetryWait),
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodeFeedFetchFailed)),
	).Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseString(resp.String())
	if err != nil {
		return nil, apperror.New(apperror.CodeFeedFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext("parse "+feedURL))
	}

	items := feed.Items
	if len(items) > s.config.MaxPerFeed {
		items = items[:s.config.MaxPerFeed]
	}

	listings := make([]domain.ScrapedListing, 0, len(items))
	for _, item := range items {
		link := itemLink(item)
		if link == "" {
			continue
		}

		l := domain.ScrapedListing{
			Title:   strings.TrimSpace(item.Title),
			Summary: ExtractSummary(item.Description),
			URL:     link,
		}
		if item.PublishedParsed != nil {
			l.PublishedAt = *item.PublishedParsed
		}

		if s.config.FetchDetails {
			s.scrapeDetails(ctx, &l)
		}
		listings = append(listings, l)
	}

	s.logger.Debug(ctx, "feed parsed", "feed", feedURL, "listings", len(listings))
	return listings, nil
}

// scrapeDetails fills Details and Features from the deal page. Failures leave
// the listing with its summary only.
func (s *Source) scrapeDetails(ctx context.Context, l *domain.ScrapedListing) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	resp, err := s.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "page")),
		httpclient.WithRetries(2, feedRetryWait),
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodeFeedFetchFailed)),
	).Get(ctx, l.URL)
	if err != nil {
		s.logger.Debug(ctx, "deal page unavailable", "url", l.URL, "error", err)
		return
	}

	content, ok := ExtractContent(resp.String())
	if !ok {
		return
	}
	l.Details, l.Features = SplitFeatures(content)
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if len(item.Links) > 0 {
		return item.Links[0]
	}
	return ""
}
