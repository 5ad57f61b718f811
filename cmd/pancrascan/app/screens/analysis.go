package screens

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/components"
)

var (
	analysisSpinnerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("33")).
				Bold(true)

	analysisDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// AnalysisTickMsg advances the in-flight animation.
type AnalysisTickMsg time.Time

// AnalysisScreen is shown while a submission is in flight. Esc abandons the
// attempt: the remote call keeps running but its result will be ignored.
type AnalysisScreen struct {
	patientName string
	frame       int
	startTime   time.Time
	abandoned   bool
	cancelled   bool
	width       int
	height      int
}

// NewAnalysisScreen creates the in-flight screen.
func NewAnalysisScreen(patientName string) *AnalysisScreen {
	return &AnalysisScreen{
		patientName: patientName,
		startTime:   time.Now(),
	}
}

// Tick returns the command that drives the animation.
func (s *AnalysisScreen) Tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return AnalysisTickMsg(t)
	})
}

// Init implements tea.Model
func (s *AnalysisScreen) Init() tea.Cmd {
	return s.Tick()
}

// Update implements tea.Model
func (s *AnalysisScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			s.abandoned = true
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	case AnalysisTickMsg:
		s.frame = (s.frame + 1) % len(spinnerFrames)
		return s, s.Tick()
	}

	return s, nil
}

// View implements tea.Model
func (s *AnalysisScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("Analyzing Scan...")

	spinner := analysisSpinnerStyle.Render(spinnerFrames[s.frame])
	elapsed := analysisDetailStyle.Render(fmt.Sprintf("Elapsed: %.1fs", time.Since(s.startTime).Seconds()))

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	sb.WriteString(spinner)
	sb.WriteString(" ")
	sb.WriteString(analysisDetailStyle.Render(fmt.Sprintf("Running AI analysis for %s", s.patientName)))
	sb.WriteString("\n\n")
	sb.WriteString(elapsed)
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("Esc: Abandon and return to form | Ctrl+C: Quit"))

	return sb.String()
}

// Abandoned reports whether the user navigated away mid-flight.
func (s *AnalysisScreen) Abandoned() bool { return s.abandoned }

// Cancelled returns true if the user cancelled
func (s *AnalysisScreen) Cancelled() bool { return s.cancelled }
