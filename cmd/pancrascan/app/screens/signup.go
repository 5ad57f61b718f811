package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/components"
)

// SignupAction is what the user chose on the registration screen.
type SignupAction int

const (
	// SignupSubmit requests account creation.
	SignupSubmit SignupAction = iota
	// SignupBack returns to the login screen.
	SignupBack
)

const (
	signupActionSubmit = "register"
	signupActionBack   = "back"
)

// SignupScreen collects credentials for a new clinician account.
// Registration does not authenticate; the user logs in afterwards.
type SignupScreen struct {
	form      *huh.Form
	username  string
	password  string
	action    string
	notice    string
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewSignupScreen creates the registration form. A non-empty notice is shown
// above the form (e.g. a duplicate-username failure, or a confirmation after
// a successful signup).
func NewSignupScreen(notice string) *SignupScreen {
	s := &SignupScreen{notice: notice, action: signupActionSubmit}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("username").
				Title("Username").
				Value(&s.username).
				Validate(func(str string) error {
					if str == "" {
						return fmt.Errorf("username is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&s.password).
				Validate(func(str string) error {
					if str == "" {
						return fmt.Errorf("password is required")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("action").
				Title("Action").
				Options(
					huh.NewOption("Register", signupActionSubmit),
					huh.NewOption("Already registered? Back to login", signupActionBack),
				).
				Value(&s.action),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// Init implements tea.Model
func (s *SignupScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SignupScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (s *SignupScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("PANCRASCAN - Clinician Registration")
	subtitle := components.SubtitleStyle.Render("Create an account, then log in to access diagnostics.")

	parts := []string{title, subtitle}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice), "")
	}
	parts = append(parts,
		s.form.View(),
		"",
		"Tab: Next field | Enter: Submit | Esc: Quit",
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true if the form was completed
func (s *SignupScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *SignupScreen) Cancelled() bool { return s.cancelled }

// Credentials returns the entered username and password
func (s *SignupScreen) Credentials() (string, string) { return s.username, s.password }

// Action returns the selected action
func (s *SignupScreen) Action() SignupAction {
	if s.action == signupActionBack {
		return SignupBack
	}
	return SignupSubmit
}
