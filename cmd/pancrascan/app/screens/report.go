package screens

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/components"
	"github.com/mrsinham/pancrascan/internal/records"
	"github.com/mrsinham/pancrascan/internal/report"
)

// ReportAction is what the user chose after reviewing a diagnostic report.
type ReportAction int

const (
	// ReportNewScan starts another submission.
	ReportNewScan ReportAction = iota
	// ReportHistory opens the diagnostic history.
	ReportHistory
	// ReportLogout ends the session.
	ReportLogout
	// ReportQuit exits the program.
	ReportQuit
)

const (
	reportActionNewScan = "new"
	reportActionHistory = "history"
	reportActionLogout  = "logout"
	reportActionQuit    = "quit"
)

var (
	reportMalignantStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true)

	reportBenignStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("40")).
				Bold(true)

	reportHighRiskStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("208")).
				Bold(true)

	reportLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244")).
				Width(12)
)

// ReportScreen presents a completed diagnostic result and asks what to do
// next.
type ReportScreen struct {
	form      *huh.Form
	record    records.Record
	action    string
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewReportScreen creates the result view for the given record.
func NewReportScreen(record records.Record) *ReportScreen {
	s := &ReportScreen{record: record, action: reportActionNewScan}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Next").
				Options(
					huh.NewOption("Analyze another scan", reportActionNewScan),
					huh.NewOption("View diagnostic history", reportActionHistory),
					huh.NewOption("Log out", reportActionLogout),
					huh.NewOption("Quit", reportActionQuit),
				).
				Value(&s.action),
		),
	).WithShowHelp(false)

	return s
}

// Init implements tea.Model
func (s *ReportScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *ReportScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *ReportScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("DIAGNOSTIC REPORT")

	diagnosis := s.record.Diagnosis
	if report.IsMalignant(s.record) {
		diagnosis = reportMalignantStyle.Render(diagnosis)
	} else {
		diagnosis = reportBenignStyle.Render(diagnosis)
	}

	risk := s.record.RiskLevel
	if report.IsHighRisk(s.record) {
		risk = reportHighRiskStyle.Render(risk)
	}

	var body strings.Builder
	row := func(label, value string) {
		body.WriteString(reportLabelStyle.Render(label))
		body.WriteString(value)
		body.WriteString("\n")
	}
	row("Patient", s.record.PatientName)
	row("Patient ID", s.record.PatientID)
	row("Diagnosis", diagnosis)
	row("Confidence", s.record.Confidence)
	row("Risk level", risk)
	row("Scan date", s.record.ScanDate)

	panel := components.PanelStyle.Render(strings.TrimRight(body.String(), "\n"))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		panel,
		"",
		s.form.View(),
		"",
		"Enter: Confirm | Esc: Quit",
	)
}

// Done returns true if the form was completed
func (s *ReportScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *ReportScreen) Cancelled() bool { return s.cancelled }

// Action returns the selected action
func (s *ReportScreen) Action() ReportAction {
	switch s.action {
	case reportActionHistory:
		return ReportHistory
	case reportActionLogout:
		return ReportLogout
	case reportActionQuit:
		return ReportQuit
	default:
		return ReportNewScan
	}
}
