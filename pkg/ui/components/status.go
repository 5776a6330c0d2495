package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ServiceStatus is the last health probe of a collaborator.
type ServiceStatus struct {
	Name      string
	Connected bool
	Latency   time.Duration
	CheckedAt time.Time
}

// StatusComponent renders collaborator status in probe order.
type StatusComponent struct {
	services []ServiceStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{
		services: make([]ServiceStatus, 0),
	}
}

// Update records a probe result.
func (s *StatusComponent) Update(status ServiceStatus) {
	for i, svc := range s.services {
		if svc.Name == status.Name {
			s.services[i] = status
			return
		}
	}
	s.services = append(s.services, status)
}

// Inline renders the statuses on one line.
func (s *StatusComponent) Inline() string {
	up := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	down := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	parts := make([]string, 0, len(s.services))
	for _, svc := range s.services {
		if !svc.Connected {
			parts = append(parts, down.Render("○ "+svc.Name+" (down)"))
			continue
		}
		label := "● " + svc.Name
		if svc.Latency > 0 {
			label += fmt.Sprintf(" (%dms)", svc.Latency.Milliseconds())
		}
		parts = append(parts, up.Render(label))
	}
	return strings.Join(parts, "  │  ")
}

// View renders the status component.
func (s *StatusComponent) View() string {
	if len(s.services) == 0 {
		return "No services probed"
	}

	var result string
	for _, svc := range s.services {
		status := "● Up"
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
		if !svc.Connected {
			status = "○ Down"
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
		}

		line := fmt.Sprintf("├─ %s: %s", svc.Name, style.Render(status))
		if svc.Connected && svc.Latency > 0 {
			line += fmt.Sprintf(" (%s)", svc.Latency.Round(time.Millisecond))
		}
		result += line + "\n"
	}

	return result
}
