package screens

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/components"
)

var failureTitleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true)

// FailureScreen reports a failed analysis. Enter returns to the patient form
// with the entered metadata intact so the submission can be retried.
type FailureScreen struct {
	message   string
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewFailureScreen creates the failure view for the given error message.
func NewFailureScreen(message string) *FailureScreen {
	return &FailureScreen{message: message}
}

// Init implements tea.Model
func (s *FailureScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *FailureScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "enter", "esc":
			s.done = true
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	return s, nil
}

// View implements tea.Model
func (s *FailureScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	var sb strings.Builder
	sb.WriteString(failureTitleStyle.Render("ANALYSIS FAILED"))
	sb.WriteString("\n\n")
	sb.WriteString(components.PanelStyle.Render(s.message))
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("Enter: Back to form | Ctrl+C: Quit"))

	return sb.String()
}

// Done returns true if the user acknowledged the failure.
func (s *FailureScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *FailureScreen) Cancelled() bool { return s.cancelled }
