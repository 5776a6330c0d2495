// Package domain contains the core domain types for the pricing context.
package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NoEstimate is the "could not determine" sentinel. It is never a valid price.
var NoEstimate = decimal.Zero

// numberPattern matches a signed decimal or integer.
var numberPattern = regexp.MustCompile(`[-+]?(?:\d*\.\d+|\d+)`)

// ExtractPrice returns the first number found in text after dropping "$" and
// thousands separators, or NoEstimate when there is none. Every model reply is
// converted through this function. Negative values are returned as-is; callers
// treat anything <= 0 as no result.
func ExtractPrice(text string) decimal.Decimal {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(text)

	match := numberPattern.FindString(cleaned)
	if match == "" {
		return NoEstimate
	}

	price, err := decimal.NewFromString(strings.TrimPrefix(match, "+"))
	if err != nil {
		return NoEstimate
	}
	return price
}

// Usable reports whether an estimate is a real price.
func Usable(estimate decimal.Decimal) bool {
	return estimate.IsPositive()
}
