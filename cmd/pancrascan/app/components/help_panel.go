package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/help"
)

// The guidance column sits right of the submission forms at a third of the
// window; narrower than this it stops being readable.
const helpPanelMinWidth = 30

var (
	helpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	helpDetailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// HelpPanel is the guidance column next to the submission forms. It follows
// the focused field and explains what the diagnostic service expects in it.
type HelpPanel struct {
	field  string
	width  int
	height int
}

// NewHelpPanel creates an unfocused panel; it shows a hint until a field
// receives focus.
func NewHelpPanel() *HelpPanel {
	return &HelpPanel{width: helpPanelMinWidth}
}

// SetField switches the panel to the help text of the focused field.
func (h *HelpPanel) SetField(field string) {
	h.field = field
}

// SetSize adapts the panel to the window region the screen allots it.
func (h *HelpPanel) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the panel for the current field.
func (h *HelpPanel) View() string {
	width := h.width
	if width < helpPanelMinWidth {
		width = helpPanelMinWidth
	}
	style := helpPanelStyle.Width(width - 4)
	if h.height > 0 {
		style = style.MaxHeight(h.height)
	}

	text, ok := help.Texts[h.field]
	if !ok {
		return style.Render(helpDetailStyle.Render("Move between fields to see what each one expects."))
	}

	body := strings.Join([]string{
		helpTitleStyle.Render(text.Title),
		"",
		helpDescStyle.Render(text.Description),
		"",
		helpDetailStyle.Render(text.Details),
	}, "\n")

	return style.Render(body)
}
