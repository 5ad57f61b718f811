package screens

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/components"
)

// AttachScreen asks for the CT scan file to analyze. The file is checked to
// exist and be non-empty here; decoding happens when the app loads it.
type AttachScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	path      string
	identity  string
	notice    string
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewAttachScreen creates the scan selection form. A non-empty notice (a
// previous load failure) is rendered above the form.
func NewAttachScreen(identity, notice string) *AttachScreen {
	s := &AttachScreen{
		helpPanel: components.NewHelpPanel(),
		identity:  identity,
		notice:    notice,
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("scan_path").
				Title("CT Scan File").
				Description("PNG, JPEG or DICOM (.dcm)").
				Placeholder("/path/to/scan.dcm").
				Value(&s.path).
				Validate(validateScanPath),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

func validateScanPath(path string) error {
	if path == "" {
		return fmt.Errorf("scan file is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

// Init implements tea.Model
func (s *AttachScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *AttachScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (s *AttachScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("NEW SCAN - Attach CT Image")
	subtitle := components.SubtitleStyle.Render(fmt.Sprintf("Dr. %s", s.identity))

	parts := []string{title, subtitle}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice), "")
	}
	parts = append(parts,
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		"Enter: Continue | Ctrl+H: History | Esc: Quit",
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true if the form was completed
func (s *AttachScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *AttachScreen) Cancelled() bool { return s.cancelled }

// Path returns the selected scan file path
func (s *AttachScreen) Path() string { return s.path }
