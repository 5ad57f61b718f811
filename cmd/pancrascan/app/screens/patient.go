package screens

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/components"
	"github.com/mrsinham/pancrascan/internal/submission"
)

// PatientScreen collects the patient metadata for the attached scan. Fields
// can be filled in any order; the authoritative validation runs in the
// submission builder when the form completes, and its first violation comes
// back as the notice on a fresh screen.
type PatientScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	meta      *submission.Metadata
	preview   string
	notice    string
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewPatientScreen creates the metadata form over the given values. The
// preview is the rendered scan attached on the previous screen; DICOM
// demographics, when available, arrive already applied to meta.
func NewPatientScreen(meta *submission.Metadata, preview, notice string) *PatientScreen {
	if meta.Sex == "" {
		meta.Sex = "Male"
	}

	s := &PatientScreen{
		helpPanel: components.NewHelpPanel(),
		meta:      meta,
		preview:   preview,
		notice:    notice,
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("patient_id").
				Title("Patient ID").
				Placeholder("e.g., PID-0123").
				Value(&meta.PatientID),

			huh.NewInput().
				Key("patient_name").
				Title("Full Name").
				Value(&meta.Name),

			huh.NewInput().
				Key("age").
				Title("Age").
				Value(&meta.Age),

			huh.NewSelect[string]().
				Key("sex").
				Title("Sex").
				Options(
					huh.NewOption("Male", "Male"),
					huh.NewOption("Female", "Female"),
					huh.NewOption("Other", "Other"),
				).
				Value(&meta.Sex),

			huh.NewText().
				Key("symptoms").
				Title("Symptoms").
				Placeholder("Abdominal pain, nausea, weight loss...").
				Lines(3).
				Value(&meta.Symptoms),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// Init implements tea.Model
func (s *PatientScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *PatientScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		s.helpPanel.SetSize(msg.Width/3, msg.Height/2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if focused := s.form.GetFocusedField(); focused != nil {
		s.helpPanel.SetField(focused.GetKey())
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *PatientScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("NEW SCAN - Patient Information")

	parts := []string{title}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice), "")
	}

	left := s.form.View()

	right := s.helpPanel.View()
	if s.preview != "" {
		previewPanel := lipgloss.JoinVertical(lipgloss.Left,
			components.SubtitleStyle.Render("Scan preview"),
			s.preview,
		)
		right = lipgloss.JoinVertical(lipgloss.Left, previewPanel, "", right)
	}

	parts = append(parts,
		lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right),
		"",
		"Tab: Next field | Enter: Run AI analysis | Esc: Quit",
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true if the form was completed
func (s *PatientScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *PatientScreen) Cancelled() bool { return s.cancelled }

// Metadata returns the bound form values
func (s *PatientScreen) Metadata() submission.Metadata { return *s.meta }
