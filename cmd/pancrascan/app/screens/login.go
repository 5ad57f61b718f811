// Package screens holds one tea.Model per view of the client. Each screen
// owns its form and styles and reports completion through Done/Cancelled
// accessors; the app orchestrator decides what happens next.
package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/components"
)

// LoginAction is what the user chose on the login screen.
type LoginAction int

const (
	// LoginSubmit sends the credentials to the account service.
	LoginSubmit LoginAction = iota
	// LoginRegister switches to the registration screen.
	LoginRegister
)

const (
	loginActionSubmit   = "login"
	loginActionRegister = "register"
)

// LoginScreen collects clinician credentials.
type LoginScreen struct {
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

// NewLoginScreen creates the login form. A non-empty notice (a previous
// authentication failure) is rendered above the form.
func NewLoginScreen(notice string) *LoginScreen {
	s := &LoginScreen{notice: notice, action: loginActionSubmit}

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
					huh.NewOption("Log in", loginActionSubmit),
					huh.NewOption("New system user? Register", loginActionRegister),
				).
				Value(&s.action),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// Init implements tea.Model
func (s *LoginScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *LoginScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (s *LoginScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("PANCRASCAN - Medical Login")
	subtitle := components.SubtitleStyle.Render("Secure access for clinicians. Log in to run AI-assisted CT diagnostics.")

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
func (s *LoginScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *LoginScreen) Cancelled() bool { return s.cancelled }

// Credentials returns the entered username and password
func (s *LoginScreen) Credentials() (string, string) { return s.username, s.password }

// Action returns the selected action
func (s *LoginScreen) Action() LoginAction {
	if s.action == loginActionRegister {
		return LoginRegister
	}
	return LoginSubmit
}
