package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const contextHeader = "Here are some similar items and their prices:\n\n"

// SimilarItem is a previously priced product close to the one being estimated.
type SimilarItem struct {
	Document string
	Price    decimal.Decimal
}

// PairSimilars zips documents with their prices, dropping unmatched tails.
func PairSimilars(docs []string, prices []decimal.Decimal) []SimilarItem {
	n := min(len(docs), len(prices))
	items := make([]SimilarItem, n)
	for i := range n {
		items[i] = SimilarItem{Document: docs[i], Price: prices[i]}
	}
	return items
}

// RenderContext formats similar items as the few-shot block prepended to an
// estimate prompt.
func RenderContext(items []SimilarItem) string {
	var sb strings.Builder
	sb.WriteString(contextHeader)
	for _, item := range items {
		sb.WriteString(item.Document)
		sb.WriteString("\nPrice: $")
		sb.WriteString(item.Price.StringFixed(2))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
