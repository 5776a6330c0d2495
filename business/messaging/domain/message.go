// Package domain contains notification text rules.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// DefaultSummary is pushed when no summary could be crafted.
	DefaultSummary = "Great deal available!"

	// MaxMessageRunes is the push gateway's message limit.
	MaxMessageRunes = 1024

	summaryRunes    = 200
	alertTitleRunes = 10
)

// Alert is a fully priced opportunity ready to be pushed without a model.
type Alert struct {
	Description string
	Price       decimal.Decimal
	Estimate    decimal.Decimal
	Discount    decimal.Decimal
	URL         string
}

// Text renders the alert, keeping only the first characters of the description.
func (a Alert) Text() string {
	return fmt.Sprintf("Deal Alert! Price=$%s, Estimate=$%s, Discount=$%s :%s... %s",
		a.Price.StringFixed(2),
		a.Estimate.StringFixed(2),
		a.Discount.StringFixed(2),
		Truncate(a.Description, alertTitleRunes),
		a.URL)
}

// NotifyText appends the deal URL to the first characters of a crafted summary.
func NotifyText(summary, url string) string {
	return Truncate(summary, summaryRunes) + "... " + url
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
