package screens

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/components"
	"github.com/mrsinham/pancrascan/internal/records"
	"github.com/mrsinham/pancrascan/internal/report"
)

var (
	historyHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("33")).
				Bold(true).
				Padding(0, 1)

	historyCellStyle = lipgloss.NewStyle().
				Padding(0, 1)

	historyMalignantStyle = historyCellStyle.
				Foreground(lipgloss.Color("196"))

	historyEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244")).
				Italic(true)
)

// HistoryScreen lists the clinician's past diagnostics with a live filter.
// The filter narrows the snapshot held by the store; it never refetches. Esc
// goes back to wherever the user came from.
type HistoryScreen struct {
	store    *records.Store
	search   textinput.Model
	loading  bool
	notice   string
	back     bool
	quit     bool
	refresh  bool
	width    int
	height   int
}

// NewHistoryScreen creates the history view over the given store. loading
// marks a fetch still in flight; notice carries a fetch failure.
func NewHistoryScreen(store *records.Store, loading bool, notice string) *HistoryScreen {
	search := textinput.New()
	search.Placeholder = "Filter by patient name or ID"
	search.Prompt = "Search: "
	search.Focus()

	return &HistoryScreen{
		store:   store,
		search:  search,
		loading: loading,
		notice:  notice,
	}
}

// Init implements tea.Model
func (s *HistoryScreen) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (s *HistoryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.quit = true
			return s, tea.Quit
		case "esc":
			s.back = true
			return s, nil
		case "ctrl+r":
			s.refresh = true
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	return s, cmd
}

// Loaded marks the in-flight fetch as settled.
func (s *HistoryScreen) Loaded(notice string) {
	s.loading = false
	s.notice = notice
}

// View implements tea.Model
func (s *HistoryScreen) View() string {
	if s.quit {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("DIAGNOSTIC HISTORY")
	subtitle := components.SubtitleStyle.Render(fmt.Sprintf("Dr. %s", s.store.Identity()))

	parts := []string{title, subtitle, ""}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice), "")
	}
	parts = append(parts, s.search.View(), "")

	switch {
	case s.loading:
		parts = append(parts, historyEmptyStyle.Render("Loading records..."))
	default:
		matches := s.store.Search(s.search.Value())
		if len(matches) == 0 {
			parts = append(parts, historyEmptyStyle.Render(
				fmt.Sprintf("No records found for Dr. %s", s.store.Identity())))
		} else {
			parts = append(parts, s.renderTable(matches))
		}
	}

	parts = append(parts, "", "Type to filter | Ctrl+R: Refresh | Esc: Back | Ctrl+C: Quit")

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (s *HistoryScreen) renderTable(matches []records.Record) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers("PATIENT", "ID", "DIAGNOSIS", "CONFIDENCE", "RISK", "DATE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return historyHeaderStyle
			}
			if col == 2 && report.IsMalignant(matches[row]) {
				return historyMalignantStyle
			}
			return historyCellStyle
		})

	for _, r := range matches {
		t.Row(r.PatientName, r.PatientID, r.Diagnosis,
			r.Confidence, r.RiskLevel, r.ScanDate)
	}

	return t.Render()
}

// Back reports whether the user left the history view.
func (s *HistoryScreen) Back() bool { return s.back }

// Refresh reports whether the user asked for a refetch, and clears the
// request so it fires once.
func (s *HistoryScreen) Refresh() bool {
	r := s.refresh
	s.refresh = false
	if r {
		s.loading = true
		s.notice = ""
	}
	return r
}

// Cancelled returns true if the user cancelled
func (s *HistoryScreen) Cancelled() bool { return s.quit }

// Query returns the current filter text.
func (s *HistoryScreen) Query() string { return s.search.Value() }
