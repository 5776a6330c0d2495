package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	messagingDomain "github.com/fd1az/deal-finder/business/messaging/domain"
	"github.com/fd1az/deal-finder/business/planning/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
	"github.com/fd1az/deal-finder/internal/logger"
)

// MessageStyle selects how the gate notifies.
type MessageStyle string

const (
	// StyleCrafted pushes a model-written summary.
	StyleCrafted MessageStyle = "crafted"
	// StyleAlert pushes the fixed-format alert.
	StyleAlert MessageStyle = "alert"
)

// Gate lets exactly one opportunity through per run. It is created per run
// and safe for concurrent use.
type Gate struct {
	messenger Messenger
	style     MessageStyle
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	now       func() time.Time

	mu  sync.Mutex
	opp *domain.Opportunity
}

// NewGate creates a Gate with no opportunity recorded.
func NewGate(messenger Messenger, style MessageStyle, log logger.LoggerInterface) *Gate {
	if style == "" {
		style = StyleCrafted
	}
	return &Gate{
		messenger: messenger,
		style:     style,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// NotifyOnce records the first opportunity and notifies the user about it.
// Later calls log and return the recorded opportunity unchanged. Delivery is
// best effort: the opportunity is recorded even when the push fails.
func (g *Gate) NotifyOnce(ctx context.Context, description string, dealPrice, estimatedValue decimal.Decimal, url string) *domain.Opportunity {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.opp != nil {
		g.logger.Info(ctx, "duplicate notification suppressed", "url", url, "recorded_url", g.opp.Deal.URL)
		return g.snapshot()
	}

	ctx, span := g.tracer.Start(ctx, "planning.notify_once",
		trace.WithAttributes(attribute.String("url", url)),
	)
	defer span.End()

	deal := scanningDomain.CandidateDeal{ProductDescription: description, Price: dealPrice, URL: url}
	opp := domain.NewOpportunity(deal, estimatedValue, g.now())

	var err error
	switch g.style {
	case StyleAlert:
		err = g.messenger.Alert(ctx, messagingDomain.Alert{
			Description: description,
			Price:       dealPrice,
			Estimate:    estimatedValue,
			Discount:    opp.Discount,
			URL:         url,
		})
	default:
		err = g.messenger.Notify(ctx, description, dealPrice, estimatedValue, url)
	}
	if err != nil {
		span.RecordError(err)
		g.logger.Warn(ctx, "notification not delivered, opportunity still recorded", "error", err)
	}

	g.opp = opp
	g.logger.Info(ctx, "opportunity recorded",
		"id", opp.ID.String(),
		"price", dealPrice.StringFixed(2),
		"estimate", estimatedValue.StringFixed(2),
		"discount", opp.Discount.StringFixed(2))
	return g.snapshot()
}

// Opportunity returns the recorded opportunity, or nil.
func (g *Gate) Opportunity() *domain.Opportunity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (g *Gate) snapshot() *domain.Opportunity {
	if g.opp == nil {
		return nil
	}
	cp := *g.opp
	return &cp
}
