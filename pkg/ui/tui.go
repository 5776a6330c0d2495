// Package ui provides the Bubble Tea dashboard for the deal finder.
package ui

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/deal-finder/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var startupOrder = []string{"config", "local", "vector", "remote"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	candidates    *components.CandidatesComponent
	opportunities *components.OpportunitiesComponent
	stats         *components.StatsComponent
	services      *components.StatusComponent

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	phase        Phase
	welcomeStart time.Time

	ready    bool
	quitting bool
	width    int
	height   int

	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time

	runActive  bool
	runID      string
	mode       string
	lastRunAt  time.Time
	schedule   string
	nextRun    time.Time
	lastUpdate time.Time

	errors       []ErrorEntry
	logs         []logLine
	activityFeed []string
}

// New creates a new TUI model. Discounts at or above threshold are
// highlighted.
func New(threshold decimal.Decimal) Model {
	now := time.Now()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorCaution)

	return Model{
		candidates:    components.NewCandidatesComponent(threshold),
		opportunities: components.NewOpportunitiesComponent(50),
		stats:         components.NewStatsComponent(),
		services:      components.NewStatusComponent(),
		keys:          DefaultKeyMap(),
		help:          help.New(),
		spinner:       sp,
		phase:         PhaseWelcome,
		welcomeStart:  now,
		startupSteps: map[string]*StartupStep{
			"config": {Name: "Loading configuration", Status: "pending"},
			"local":  {Name: "Reaching local model", Status: "pending"},
			"vector": {Name: "Reaching vector store", Status: "pending"},
			"remote": {Name: "Preparing remote model", Status: "pending"},
		},
		startupTime:  now,
		errors:       make([]ErrorEntry, 0, 3),
		logs:         make([]logLine, 0, 5),
		activityFeed: make([]string, 0, 8),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) enterStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Called directly: Send from inside Update would deadlock.
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m.enterStartup()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
		case key.Matches(msg, m.keys.RunNow):
			if m.phase == PhaseDashboard && !m.runActive {
				if fn := runNow.Load(); fn != nil && (*fn)() {
					m.activityFeed = addActivity(m.activityFeed, "Run requested")
				}
			}
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.enterStartup()
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RunStartedMsg:
		m.runActive = true
		m.runID = msg.RunID
		m.mode = msg.Mode
		m.lastRunAt = msg.At
		m.candidates.SetCandidates(nil)

		s := m.stats.Stats()
		s.Runs++
		s.Remembered = msg.Remembered
		m.stats.Update(s)

		m.activityFeed = addActivity(m.activityFeed,
			fmt.Sprintf("Run %s started (%s, %d remembered)", shortID(msg.RunID), msg.Mode, msg.Remembered))
		m.lastUpdate = time.Now()

	case CandidatesMsg:
		if msg.Selection != nil {
			rows := make([]components.CandidateRow, 0, len(msg.Selection.Deals))
			for _, d := range msg.Selection.Deals {
				rows = append(rows, components.CandidateRow{
					Description: d.ProductDescription,
					URL:         d.URL,
					Price:       d.Price,
				})
			}
			m.candidates.SetCandidates(rows)

			s := m.stats.Stats()
			s.Candidates += int64(len(rows))
			m.stats.Update(s)

			m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("%d candidate deals selected", len(rows)))
			m.lastUpdate = time.Now()
		}

	case ValuationMsg:
		v := msg.Valuation
		m.candidates.SetValuation(v.Description, v.Frontier, v.Specialist, v.Estimate, v.Degraded())

		s := m.stats.Stats()
		s.Valuations++
		if v.Degraded() {
			s.Degraded++
		}
		m.stats.Update(s)
		m.lastUpdate = time.Now()

	case OpportunityMsg:
		if opp := msg.Opportunity; opp != nil {
			m.opportunities.Add(components.OpportunityRow{
				Timestamp:   opp.CreatedAt.Local().Format("Jan 02 15:04"),
				Description: opp.Deal.ProductDescription,
				Price:       opp.Deal.Price,
				Estimate:    opp.Estimate,
				Discount:    opp.Discount,
				URL:         opp.Deal.URL,
			})

			s := m.stats.Stats()
			s.Opportunities++
			m.stats.Update(s)

			m.activityFeed = addActivity(m.activityFeed,
				fmt.Sprintf("Deal surfaced: %s off", "$"+opp.Discount.StringFixed(2)))
			m.lastUpdate = time.Now()
		}

	case RunFinishedMsg:
		m.runActive = false
		if msg.Err != nil {
			m = m.recordError(msg.Err.Error())
			m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("Run %s failed", shortID(msg.RunID)))
		} else if !msg.Surfaced {
			m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("Run %s finished, nothing worth surfacing", shortID(msg.RunID)))
		} else {
			m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("Run %s finished", shortID(msg.RunID)))
		}
		m.lastUpdate = time.Now()

	case ServiceStatusMsg:
		m.services.Update(components.ServiceStatus{
			Name:      msg.Name,
			Connected: msg.Connected,
			Latency:   msg.Latency,
			CheckedAt: time.Now(),
		})

	case ScheduleMsg:
		m.schedule = msg.Spec
		m.nextRun = msg.Next

	case ErrorMsg:
		m = m.recordError(msg.Error.Error())

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		if msg.Status == "failed" && msg.Message != "" {
			m.logs = addLog(m.logs, "warn", msg.Message)
		}
		complete := true
		for _, step := range m.startupSteps {
			if step.Status != "connected" && step.Status != "done" && step.Status != "failed" {
				complete = false
				break
			}
		}
		m.startupComplete = complete
	}

	return m, nil
}

func (m Model) recordError(message string) Model {
	m.logs = addLog(m.logs, "error", message)
	m.errors = append(m.errors, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(m.errors) > 3 {
		m.errors = m.errors[len(m.errors)-3:]
	}
	s := m.stats.Stats()
	s.Errors++
	m.stats.Update(s)
	return m
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type logLine struct {
	level string
	text  string
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []logLine, level, message string) []logLine {
	timestamp := time.Now().Format("15:04:05")
	logs = append(logs, logLine{level: level, text: fmt.Sprintf("[%s] %s: %s", timestamp, level, message)})
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	feed = append(feed, fmt.Sprintf("[%s] %s", timestamp, message))
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if m.lastRunAt.IsZero() && !m.startupComplete {
			return m.renderStartupScreen()
		}
	}

	var b strings.Builder

	b.WriteString(BannerStyle.Render(" 🛒 Deal Finder "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.candidates.View()

	var rightContent strings.Builder
	rightContent.WriteString(m.renderActivityFeed())
	rightContent.WriteString("\n\n")
	rightContent.WriteString(m.opportunities.View())
	rightCol := rightContent.String()

	if m.width > 120 {
		left := PanelStyle.Width(m.width*3/5 - 2).Render(leftCol)
		right := PanelStyle.Width(m.width*2/5 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := max(m.width-4, 40)
		b.WriteString(PanelStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(PanelStyle.Width(width).Render(rightCol))
	}

	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := LossText
		errorHeader := LossText.Bold(true)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(DimText.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(DimText.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(FooterStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderActivityFeed renders the recent activity feed.
func (m Model) renderActivityFeed() string {
	headerStyle := HeaderText
	mutedStyle := DimText
	dealStyle := GainText

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(mutedStyle.Render("  Waiting for the first run..."))
		return sb.String()
	}

	for _, activity := range m.activityFeed {
		if strings.Contains(activity, "Deal surfaced") {
			sb.WriteString(dealStyle.Render("  " + activity))
		} else {
			sb.WriteString(mutedStyle.Render("  " + activity))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := HeaderText
	goldStyle := CautionText.Bold(true)
	mutedStyle := DimText
	greenStyle := GainText

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ██████╗ ███████╗ █████╗ ██╗     ███████╗
   ██╔══██╗██╔════╝██╔══██╗██║     ██╔════╝
   ██║  ██║█████╗  ███████║██║     ███████╗
   ██║  ██║██╔══╝  ██╔══██║██║     ╚════██║
   ██████╔╝███████╗██║  ██║███████╗███████║
   ╚═════╝ ╚══════╝╚═╝  ╚═╝╚══════╝╚══════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("            D E A L   F I N D E R"))
	sb.WriteString("\n\n\n")
	sb.WriteString(goldStyle.Render("      🏷️  Bargains worth more than they cost  🏷️"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("               Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("         Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := HeaderText.MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	mutedStyle := DimText
	successStyle := GainText
	connectingStyle := CautionText
	failedStyle := LossText

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  🛒 Deal Finder"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range startupOrder {
		step, ok := m.startupSteps[k]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon, statusText, style = "✓", "Ready", successStyle
		case "connecting":
			icon, statusText, style = m.spinner.View(), "Connecting...", connectingStyle
		case "failed":
			icon, statusText, style = "✗", "Unavailable, will fall back", failedStyle
		default:
			icon, statusText, style = "○", "Pending", mutedStyle
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			mutedStyle.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")

	for _, line := range m.logs {
		sb.WriteString(LevelText(line.level).Render("  " + line.text))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.runActive {
		running := GainText.Bold(true)
		parts = append(parts, m.spinner.View()+running.Render(" Run "+shortID(m.runID)))
	} else if !m.lastRunAt.IsZero() {
		parts = append(parts, fmt.Sprintf("Last run: %s", m.lastRunAt.Local().Format("15:04:05")))
	}

	if m.mode != "" {
		parts = append(parts, "Mode: "+m.mode)
	}

	if m.schedule != "" {
		next := m.schedule
		if !m.nextRun.IsZero() {
			next += ", next " + m.nextRun.Local().Format("15:04")
		}
		parts = append(parts, "Schedule: "+next)
	}

	if services := m.services.Inline(); services != "" {
		parts = append(parts, services)
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, DimText.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// main sets it to begin loading modules.
var OnStartModules func()

var runNow atomic.Pointer[func() bool]

// SetRunNow installs the action behind the run-now key. fn must not block and
// reports whether a run was started.
func SetRunNow(fn func() bool) {
	runNow.Store(&fn)
}

// Run starts the Bubble Tea program.
func Run(threshold decimal.Decimal) error {
	Program = tea.NewProgram(New(threshold), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
