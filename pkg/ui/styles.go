package ui

import "github.com/charmbracelet/lipgloss"

// Palette, named by what the color signals.
var (
	ColorAccent  = lipgloss.Color("#7C3AED")
	ColorGain    = lipgloss.Color("#10B981")
	ColorLoss    = lipgloss.Color("#EF4444")
	ColorCaution = lipgloss.Color("#F59E0B")
	ColorDim     = lipgloss.Color("#6B7280")
	ColorFrame   = lipgloss.Color("#374151")
)

var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFrame).
			Padding(0, 1)

	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorAccent).
			Padding(0, 2)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorDim).
			Padding(0, 1)

	HeaderText  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	DimText     = lipgloss.NewStyle().Foreground(ColorDim)
	GainText    = lipgloss.NewStyle().Foreground(ColorGain)
	LossText    = lipgloss.NewStyle().Foreground(ColorLoss)
	CautionText = lipgloss.NewStyle().Foreground(ColorCaution)
)

// LevelText picks the style for a log level shown in the logs panel.
func LevelText(level string) lipgloss.Style {
	switch level {
	case "error":
		return LossText
	case "warn":
		return CautionText
	default:
		return DimText
	}
}
