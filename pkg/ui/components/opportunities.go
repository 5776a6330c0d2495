package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow is one surfaced deal.
type OpportunityRow struct {
	Timestamp   string
	Description string
	Price       decimal.Decimal
	Estimate    decimal.Decimal
	Discount    decimal.Decimal
	URL         string
}

// OpportunitiesComponent renders the surfaced deals, newest first.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	visible int
	offset  int
}

// NewOpportunitiesComponent creates an opportunities list keeping maxRows.
func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		maxRows: maxRows,
		visible: 5,
	}
}

// Add adds a new opportunity to the top of the list.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
	o.offset = 0
}

// Len returns the number of rows kept.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.offset = 0
}

// ScrollUp moves the window towards newer deals.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the window towards older deals.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset+o.visible < len(o.rows) {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	if len(o.rows) == 0 {
		return headerStyle.Render("DEALS SURFACED") + "\n\n  No deals surfaced yet..."
	}

	goodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	linkStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Underline(true)

	end := min(o.offset+o.visible, len(o.rows))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("DEALS SURFACED (%d-%d of %d)", o.offset+1, end, len(o.rows))))
	b.WriteString("\n\n")

	for _, row := range o.rows[o.offset:end] {
		fmt.Fprintf(&b, "  %s  %s\n", dimStyle.Render(row.Timestamp), Truncate(row.Description, 60))
		fmt.Fprintf(&b, "           %s for %s, worth %s\n",
			goodStyle.Render(signedMoney(row.Discount)),
			money(row.Price),
			money(row.Estimate))
		fmt.Fprintf(&b, "           %s\n\n", linkStyle.Render(row.URL))
	}

	return strings.TrimRight(b.String(), "\n")
}
