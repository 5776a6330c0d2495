// Package domain contains the planning context's opportunity and memory types.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
)

// Opportunity is the single deal surfaced by a run. Created at most once per
// run and never modified afterwards.
type Opportunity struct {
	ID        uuid.UUID                    `json:"id"`
	Deal      scanningDomain.CandidateDeal `json:"deal"`
	Estimate  decimal.Decimal              `json:"estimate"`
	Discount  decimal.Decimal              `json:"discount"`
	CreatedAt time.Time                    `json:"created_at"`
}

// NewOpportunity prices deal against estimate. Discount is estimate minus the
// deal price and may be negative.
func NewOpportunity(deal scanningDomain.CandidateDeal, estimate decimal.Decimal, now time.Time) *Opportunity {
	return &Opportunity{
		ID:        uuid.New(),
		Deal:      deal,
		Estimate:  estimate,
		Discount:  estimate.Sub(deal.Price),
		CreatedAt: now.UTC(),
	}
}

// Markdown renders a journal entry.
func (o *Opportunity) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Deal found %s\n\n", o.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- **Price:** $%s\n", o.Deal.Price.StringFixed(2))
	fmt.Fprintf(&b, "- **Estimated true value:** $%s\n", o.Estimate.StringFixed(2))
	fmt.Fprintf(&b, "- **Discount:** $%s\n", o.Discount.StringFixed(2))
	fmt.Fprintf(&b, "- **Link:** %s\n\n", o.Deal.URL)
	b.WriteString(strings.TrimSpace(o.Deal.ProductDescription))
	b.WriteString("\n")
	return b.String()
}
