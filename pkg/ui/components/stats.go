package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds run statistics for display.
type Stats struct {
	Runs          int64
	Opportunities int64
	Candidates    int64
	Valuations    int64
	Degraded      int64
	Errors        int64
	Remembered    int
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update replaces the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	hitRate := float64(0)
	if s.stats.Runs > 0 {
		hitRate = float64(s.stats.Opportunities) / float64(s.stats.Runs) * 100
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}
	degradedDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Degraded))
	if s.stats.Degraded > 0 {
		degradedDisplay = warnStyle.Render(fmt.Sprintf("%d", s.stats.Degraded))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Runs: %s  │  Deals surfaced: %s (%.0f%%)  │  Remembered: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Runs)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
			hitRate,
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Remembered)),
		) +
		fmt.Sprintf("Candidates: %s  │  Estimates: %s (degraded %s)  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Candidates)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Valuations)),
			degradedDisplay,
			errorsDisplay,
		)
}
