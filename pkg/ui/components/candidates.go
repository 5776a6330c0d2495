// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// CandidateRow is one selected deal and, once valued, its estimates.
type CandidateRow struct {
	Description string
	URL         string
	Price       decimal.Decimal
	Frontier    decimal.Decimal
	Specialist  decimal.Decimal
	Estimate    decimal.Decimal
	Valued      bool
	Degraded    bool
}

// Discount is Estimate minus Price.
func (r CandidateRow) Discount() decimal.Decimal {
	return r.Estimate.Sub(r.Price)
}

// CandidatesComponent renders the current run's candidates and estimates.
type CandidatesComponent struct {
	rows      []CandidateRow
	threshold decimal.Decimal
}

// NewCandidatesComponent creates a candidates table. Discounts at or above
// threshold are highlighted.
func NewCandidatesComponent(threshold decimal.Decimal) *CandidatesComponent {
	return &CandidatesComponent{threshold: threshold}
}

// SetCandidates replaces the rows with a fresh, unvalued selection.
func (c *CandidatesComponent) SetCandidates(rows []CandidateRow) {
	c.rows = rows
}

// SetValuation fills in the estimates of the row with a matching description.
func (c *CandidatesComponent) SetValuation(description string, frontier, specialist, estimate decimal.Decimal, degraded bool) {
	for i := range c.rows {
		if c.rows[i].Description != description {
			continue
		}
		c.rows[i].Frontier = frontier
		c.rows[i].Specialist = specialist
		c.rows[i].Estimate = estimate
		c.rows[i].Valued = true
		c.rows[i].Degraded = degraded
		return
	}
}

// Rows returns the current rows.
func (c *CandidatesComponent) Rows() []CandidateRow {
	return c.rows
}

// View renders the candidates component.
func (c *CandidatesComponent) View() string {
	if len(c.rows) == 0 {
		return "Waiting for candidate deals..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("CANDIDATES (%d)", len(c.rows))))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  %-28s  %9s  %9s  %9s  %9s  %10s\n",
		"Product", "Price", "Frontier", "Special.", "Estimate", "Discount")
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 82)) + "\n")

	for _, row := range c.rows {
		name := Truncate(row.Description, 28)
		if !row.Valued {
			fmt.Fprintf(&b, "  %-28s  %9s  %s\n", name, money(row.Price), dimStyle.Render("valuing..."))
			continue
		}

		discount := row.Discount()
		style := negativeStyle
		if !discount.LessThan(c.threshold) {
			style = positiveStyle
		}

		estimate := fmt.Sprintf("%9s", money(row.Estimate))
		if row.Degraded {
			estimate = warnStyle.Render(estimate)
		}

		fmt.Fprintf(&b, "  %-28s  %9s  %9s  %9s  %s  %s\n",
			name,
			money(row.Price),
			money(row.Frontier),
			money(row.Specialist),
			estimate,
			style.Render(fmt.Sprintf("%10s", signedMoney(discount))),
		)
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  Threshold: %s", money(c.threshold))))
	return b.String()
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func signedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}
