// Package app is the interactive terminal client. It owns one screen per
// phase and the domain state behind them: the session guard, the submission
// builder, the diagnostic controller and the record store. All state changes
// happen on the bubbletea event loop; blocking work runs inside commands and
// comes back as messages.
package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mrsinham/pancrascan/cmd/pancrascan/app/screens"
	"github.com/mrsinham/pancrascan/internal/api"
	"github.com/mrsinham/pancrascan/internal/diagnostic"
	"github.com/mrsinham/pancrascan/internal/records"
	"github.com/mrsinham/pancrascan/internal/scan"
	"github.com/mrsinham/pancrascan/internal/session"
	"github.com/mrsinham/pancrascan/internal/submission"
)

// Phase represents the current phase/screen of the client.
type Phase int

const (
	PhaseLogin Phase = iota
	PhaseSignup
	PhaseAttach
	PhasePatient
	PhaseAnalyzing
	PhaseReport
	PhaseHistory
	PhaseFailure
)

// Options configures the client.
type Options struct {
	ServerURL   string
	SessionPath string
	Version     string
}

// Messages produced by commands. Each carries everything its phase handler
// needs so no handler reads shared state that a goroutine might still touch.
type (
	loginDoneMsg    struct{ err error }
	signupDoneMsg   struct{ err error }
	analysisDoneMsg struct{ outcome diagnostic.Outcome }
	historyDoneMsg  struct {
		gen     int
		outcome records.FetchOutcome
	}
)

// App is the main orchestrator for the terminal client.
type App struct {
	opts   Options
	ctx    context.Context
	client *api.Client

	guard      *session.Guard
	builder    *submission.Builder
	controller *diagnostic.Controller
	store      *records.Store

	// Current phase
	phase Phase

	// Where Esc from the history view returns to
	returnPhase Phase

	// Patient form values, bound by the patient screen
	meta submission.Metadata

	// Screen instances
	loginScreen    *screens.LoginScreen
	signupScreen   *screens.SignupScreen
	attachScreen   *screens.AttachScreen
	patientScreen  *screens.PatientScreen
	analysisScreen *screens.AnalysisScreen
	reportScreen   *screens.ReportScreen
	historyScreen  *screens.HistoryScreen
	failureScreen  *screens.FailureScreen

	// In-flight guards
	authPending bool
	historyGen  int

	// Window size
	width  int
	height int

	// Final state
	cancelled bool
	err       error
}

// NewApp creates the client. A previously persisted session, when present,
// skips the login screen.
func NewApp(opts Options) *App {
	client := api.NewClient(opts.ServerURL)

	a := &App{
		opts:       opts,
		ctx:        context.Background(),
		client:     client,
		guard:      session.NewGuard(client),
		builder:    submission.NewBuilder(),
		controller: diagnostic.NewController(),
		store:      records.NewStore(),
		meta:       submission.Metadata{Sex: "Male"},
	}

	if opts.SessionPath != "" {
		// A restore failure just means logging in again.
		_ = a.guard.Restore(opts.SessionPath)
	}

	if a.guard.Current().Authenticated {
		a.transitionToAttach("")
	} else {
		a.transitionToLogin("")
	}

	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	switch a.phase {
	case PhaseAttach:
		return a.attachScreen.Init()
	default:
		return a.loginScreen.Init()
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window size for all phases
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}

	switch a.phase {
	case PhaseLogin:
		return a.updateLogin(msg)
	case PhaseSignup:
		return a.updateSignup(msg)
	case PhaseAttach:
		return a.updateAttach(msg)
	case PhasePatient:
		return a.updatePatient(msg)
	case PhaseAnalyzing:
		return a.updateAnalyzing(msg)
	case PhaseReport:
		return a.updateReport(msg)
	case PhaseHistory:
		return a.updateHistory(msg)
	case PhaseFailure:
		return a.updateFailure(msg)
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	switch a.phase {
	case PhaseLogin:
		return a.loginScreen.View()
	case PhaseSignup:
		return a.signupScreen.View()
	case PhaseAttach:
		return a.attachScreen.View()
	case PhasePatient:
		return a.patientScreen.View()
	case PhaseAnalyzing:
		return a.analysisScreen.View()
	case PhaseReport:
		return a.reportScreen.View()
	case PhaseHistory:
		return a.historyScreen.View()
	case PhaseFailure:
		return a.failureScreen.View()
	}

	return ""
}

// transitionToLogin shows the login form with an optional notice.
func (a *App) transitionToLogin(notice string) {
	a.phase = PhaseLogin
	a.authPending = false
	a.loginScreen = screens.NewLoginScreen(notice)
}

// updateLogin handles updates in the login phase.
func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m, ok := msg.(loginDoneMsg); ok {
		a.authPending = false
		if m.err != nil {
			a.transitionToLogin("Login failed. Check your credentials and try again.")
			return a, a.loginScreen.Init()
		}
		if a.opts.SessionPath != "" {
			// Persistence is best effort; a read-only config dir only
			// costs a login next run.
			_ = a.guard.Save(a.opts.SessionPath)
		}
		a.transitionToAttach("")
		return a, a.attachScreen.Init()
	}

	model, cmd := a.loginScreen.Update(msg)
	if ls, ok := model.(*screens.LoginScreen); ok {
		a.loginScreen = ls
	}

	if a.loginScreen.Cancelled() {
		a.cancelled = true
		return a, tea.Quit
	}

	if a.loginScreen.Done() && !a.authPending {
		if a.loginScreen.Action() == screens.LoginRegister {
			a.transitionToSignup("")
			return a, a.signupScreen.Init()
		}

		username, password := a.loginScreen.Credentials()
		a.authPending = true
		return a, func() tea.Msg {
			return loginDoneMsg{err: a.guard.Login(a.ctx, username, password)}
		}
	}

	return a, cmd
}

// transitionToSignup shows the registration form with an optional notice.
func (a *App) transitionToSignup(notice string) {
	a.phase = PhaseSignup
	a.authPending = false
	a.signupScreen = screens.NewSignupScreen(notice)
}

// updateSignup handles updates in the registration phase.
func (a *App) updateSignup(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m, ok := msg.(signupDoneMsg); ok {
		a.authPending = false
		if m.err != nil {
			a.transitionToSignup("Registration failed. The username may already be taken.")
			return a, a.signupScreen.Init()
		}
		a.transitionToLogin("Account created. Log in to continue.")
		return a, a.loginScreen.Init()
	}

	model, cmd := a.signupScreen.Update(msg)
	if ss, ok := model.(*screens.SignupScreen); ok {
		a.signupScreen = ss
	}

	if a.signupScreen.Cancelled() {
		a.cancelled = true
		return a, tea.Quit
	}

	if a.signupScreen.Done() && !a.authPending {
		if a.signupScreen.Action() == screens.SignupBack {
			a.transitionToLogin("")
			return a, a.loginScreen.Init()
		}

		username, password := a.signupScreen.Credentials()
		a.authPending = true
		return a, func() tea.Msg {
			return signupDoneMsg{err: a.guard.Signup(a.ctx, username, password)}
		}
	}

	return a, cmd
}

// transitionToAttach shows the scan selection form with an optional notice.
func (a *App) transitionToAttach(notice string) {
	a.phase = PhaseAttach
	a.attachScreen = screens.NewAttachScreen(a.guard.Current().Identity, notice)
}

// updateAttach handles updates in the scan selection phase.
func (a *App) updateAttach(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+h" {
		a.returnPhase = PhaseAttach
		return a.transitionToHistory()
	}

	model, cmd := a.attachScreen.Update(msg)
	if as, ok := model.(*screens.AttachScreen); ok {
		a.attachScreen = as
	}

	if a.attachScreen.Cancelled() {
		a.cancelled = true
		return a, tea.Quit
	}

	if a.attachScreen.Done() {
		asset, err := scan.Load(a.attachScreen.Path())
		if err != nil {
			a.transitionToAttach(err.Error())
			return a, a.attachScreen.Init()
		}
		if err := a.builder.AttachAsset(asset); err != nil {
			a.transitionToAttach(err.Error())
			return a, a.attachScreen.Init()
		}
		a.prefillFromScan(asset)
		return a.transitionToPatient("")
	}

	return a, cmd
}

// prefillFromScan copies DICOM demographics into empty form fields. Values
// the clinician already typed are never overwritten.
func (a *App) prefillFromScan(asset *scan.Asset) {
	demo := asset.Demographics()
	if demo == nil {
		return
	}
	if a.meta.Name == "" && demo.PatientName != "" {
		a.meta.Name = demo.PatientName
	}
	if a.meta.PatientID == "" && demo.PatientID != "" {
		a.meta.PatientID = demo.PatientID
	}
	if demo.Sex != "" {
		a.meta.Sex = demo.Sex
	}
}

// transitionToPatient shows the metadata form over the attached scan.
func (a *App) transitionToPatient(notice string) (tea.Model, tea.Cmd) {
	a.phase = PhasePatient

	var preview string
	if asset := a.builder.Asset(); asset != nil {
		if p := asset.Preview(previewWidth(a.width)); p != nil {
			preview = p.View()
		}
	}

	a.patientScreen = screens.NewPatientScreen(&a.meta, preview, notice)
	return a, a.patientScreen.Init()
}

// previewWidth sizes the scan preview from the window, with a floor so a
// not-yet-measured window still renders something.
func previewWidth(windowWidth int) int {
	w := windowWidth / 3
	if w < 24 {
		w = 24
	}
	return w
}

// updatePatient handles updates in the patient metadata phase.
func (a *App) updatePatient(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.patientScreen.Update(msg)
	if ps, ok := model.(*screens.PatientScreen); ok {
		a.patientScreen = ps
	}

	if a.patientScreen.Cancelled() {
		a.builder.Close()
		a.cancelled = true
		return a, tea.Quit
	}

	if a.patientScreen.Done() {
		a.builder.SetMetadata(a.meta)
		if err := a.builder.Validate(); err != nil {
			return a.transitionToPatient(err.Error())
		}
		return a.startAnalysis()
	}

	return a, cmd
}

// startAnalysis builds the request and submits it to the controller.
func (a *App) startAnalysis() (tea.Model, tea.Cmd) {
	req, err := a.builder.BuildRequest(a.guard.Current().Identity)
	if err != nil {
		return a.transitionToPatient(err.Error())
	}

	thunk, err := a.controller.Submit(a.ctx, req, a.analyze)
	if err != nil {
		// ErrAlreadyInFlight: the previous attempt is still pending.
		return a.transitionToPatient("An analysis is already running. Wait for it to finish.")
	}

	a.phase = PhaseAnalyzing
	a.analysisScreen = screens.NewAnalysisScreen(req.Metadata.Name)

	return a, tea.Batch(
		a.analysisScreen.Init(),
		func() tea.Msg { return analysisDoneMsg{outcome: thunk()} },
	)
}

// analyze adapts the HTTP client to the controller's callback.
func (a *App) analyze(ctx context.Context, req submission.Request) (records.Record, error) {
	return a.client.Predict(ctx, api.PredictRequest{
		Username:  req.Identity,
		Name:      req.Metadata.Name,
		Age:       req.AgeYears,
		Sex:       req.Metadata.Sex,
		PatientID: req.Metadata.PatientID,
		Symptoms:  req.Metadata.Symptoms,
		Filename:  req.Filename,
		File:      req.Payload,
	})
}

// updateAnalyzing handles updates while a submission is in flight.
func (a *App) updateAnalyzing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m, ok := msg.(analysisDoneMsg); ok {
		if !a.controller.Apply(m.outcome) {
			// Stale outcome from an abandoned attempt.
			return a, nil
		}
		if a.controller.Phase() == diagnostic.PhaseFailed {
			a.phase = PhaseFailure
			a.failureScreen = screens.NewFailureScreen(a.controller.Err().Error())
			return a, a.failureScreen.Init()
		}
		// The cached history no longer includes this record.
		a.store.Invalidate()
		return a.transitionToReport(a.controller.Result())
	}

	model, cmd := a.analysisScreen.Update(msg)
	if as, ok := model.(*screens.AnalysisScreen); ok {
		a.analysisScreen = as
	}

	if a.analysisScreen.Cancelled() {
		a.builder.Close()
		a.cancelled = true
		return a, tea.Quit
	}

	if a.analysisScreen.Abandoned() {
		a.controller.Cancel()
		return a.transitionToPatient("")
	}

	return a, cmd
}

// transitionToReport shows the diagnostic result.
func (a *App) transitionToReport(rec records.Record) (tea.Model, tea.Cmd) {
	a.phase = PhaseReport
	a.reportScreen = screens.NewReportScreen(rec)
	return a, a.reportScreen.Init()
}

// updateReport handles updates in the report phase.
func (a *App) updateReport(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.reportScreen.Update(msg)
	if rs, ok := model.(*screens.ReportScreen); ok {
		a.reportScreen = rs
	}

	if a.reportScreen.Cancelled() {
		a.builder.Close()
		a.cancelled = true
		return a, tea.Quit
	}

	if a.reportScreen.Done() {
		switch a.reportScreen.Action() {
		case screens.ReportNewScan:
			a.resetSubmission()
			a.transitionToAttach("")
			return a, a.attachScreen.Init()

		case screens.ReportHistory:
			a.returnPhase = PhaseReport
			return a.transitionToHistory()

		case screens.ReportLogout:
			return a.logout()

		case screens.ReportQuit:
			a.builder.Close()
			return a, tea.Quit
		}
	}

	return a, cmd
}

// resetSubmission discards the consumed scan and form so the next submission
// starts clean.
func (a *App) resetSubmission() {
	a.builder.Close()
	a.builder = submission.NewBuilder()
	a.meta = submission.Metadata{Sex: "Male"}
}

// logout clears the session, drops the persisted copy and returns to login.
func (a *App) logout() (tea.Model, tea.Cmd) {
	a.guard.Logout()
	if a.opts.SessionPath != "" {
		_ = session.Discard(a.opts.SessionPath)
	}
	a.store.Invalidate()
	a.resetSubmission()
	a.transitionToLogin("")
	return a, a.loginScreen.Init()
}

// transitionToHistory opens the history view and starts a fetch for the
// current identity. The view never refetches on its own; only entering it or
// Ctrl+R does.
func (a *App) transitionToHistory() (tea.Model, tea.Cmd) {
	a.phase = PhaseHistory
	a.historyScreen = screens.NewHistoryScreen(a.store, true, "")
	return a, tea.Batch(a.historyScreen.Init(), a.fetchHistory())
}

// fetchHistory issues a fetch and returns the command that completes it.
// The generation number lets the handler drop completions from fetches that
// were superseded while in flight.
func (a *App) fetchHistory() tea.Cmd {
	a.historyGen++
	gen := a.historyGen
	thunk := a.store.Fetch(a.ctx, a.guard.Current().Identity, a.client.History)
	return func() tea.Msg {
		return historyDoneMsg{gen: gen, outcome: thunk()}
	}
}

// updateHistory handles updates in the history phase.
func (a *App) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m, ok := msg.(historyDoneMsg); ok {
		if m.gen != a.historyGen {
			return a, nil
		}
		if !a.store.Apply(m.outcome) {
			a.historyScreen.Loaded("Could not load history. Ctrl+R to retry.")
			return a, nil
		}
		a.historyScreen.Loaded("")
		return a, nil
	}

	model, cmd := a.historyScreen.Update(msg)
	if hs, ok := model.(*screens.HistoryScreen); ok {
		a.historyScreen = hs
	}

	if a.historyScreen.Cancelled() {
		a.builder.Close()
		a.cancelled = true
		return a, tea.Quit
	}

	if a.historyScreen.Refresh() {
		return a, a.fetchHistory()
	}

	if a.historyScreen.Back() {
		switch a.returnPhase {
		case PhaseReport:
			return a.transitionToReport(a.controller.Result())
		default:
			a.transitionToAttach("")
			return a, a.attachScreen.Init()
		}
	}

	return a, cmd
}

// updateFailure handles updates after a failed analysis.
func (a *App) updateFailure(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.failureScreen.Update(msg)
	if fs, ok := model.(*screens.FailureScreen); ok {
		a.failureScreen = fs
	}

	if a.failureScreen.Cancelled() {
		a.builder.Close()
		a.cancelled = true
		return a, tea.Quit
	}

	if a.failureScreen.Done() {
		// Metadata and scan are kept so the submission can be retried.
		return a.transitionToPatient("")
	}

	return a, cmd
}

// Run starts the interactive client and blocks until it exits.
func Run(opts Options) error {
	a := NewApp(opts)
	p := tea.NewProgram(a, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running client: %w", err)
	}

	if app, ok := finalModel.(*App); ok {
		if app.cancelled {
			return nil
		}
		if app.err != nil {
			return app.err
		}
	}

	return nil
}
