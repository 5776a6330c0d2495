package domain

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// Valuation is the blended true-value estimate for one product.
type Valuation struct {
	Description string
	Frontier    decimal.Decimal
	Specialist  decimal.Decimal
	Estimate    decimal.Decimal
}

// Blend averages the two estimates without weighting. A sentinel on either side
// still participates; Degraded reports that case.
func Blend(description string, frontier, specialist decimal.Decimal) Valuation {
	return Valuation{
		Description: description,
		Frontier:    frontier,
		Specialist:  specialist,
		Estimate:    frontier.Add(specialist).Div(two),
	}
}

// Degraded reports whether one of the sources produced no estimate.
func (v Valuation) Degraded() bool {
	return !Usable(v.Frontier) || !Usable(v.Specialist)
}
