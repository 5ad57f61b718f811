package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/cucumber/godog"
)

// binaryPath holds the path to the compiled binary (set once in TestMain)
var binaryPath string

// testContext holds state for a single scenario
type testContext struct {
	tmpDir   string
	server   *httptest.Server
	exitCode int
	output   string
}

// buildBinary compiles the pancrascan binary once
func buildBinary() (string, error) {
	tmpFile, err := os.CreateTemp("", "pancrascan-test-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpFile.Close()

	// Get the directory of this test file to find the project root
	_, thisFile, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", tmpFile.Name(), "./cmd/pancrascan")
	cmd.Dir = projectRoot
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build failed: %w\n%s", err, stderr.String())
	}

	return tmpFile.Name(), nil
}

// TestMain compiles the binary once before running all tests
func TestMain(m *testing.M) {
	var err error
	binaryPath, err = buildBinary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build binary: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(binaryPath)

	code := m.Run()
	os.Exit(code)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &testContext{}

	// Setup: temp directory and an in-process diagnostic service per scenario
	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tmpDir, err := os.MkdirTemp("", "pancrascan-e2e-*")
		if err != nil {
			return ctx, err
		}
		tc.tmpDir = tmpDir
		tc.server = httptest.NewServer(newFakeService().handler())
		return ctx, nil
	})

	// Teardown
	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc.server != nil {
			tc.server.Close()
		}
		if tc.tmpDir != "" {
			os.RemoveAll(tc.tmpDir)
		}
		return ctx, nil
	})

	// Step definitions
	sc.Step(`^the diagnostic service is running$`, tc.serviceIsRunning)
	sc.Step(`^an account "([^"]*)" with password "([^"]*)" exists$`, tc.accountExists)
	sc.Step(`^I am logged in as "([^"]*)" with password "([^"]*)"$`, tc.loggedInAs)
	sc.Step(`^a CT scan image exists$`, tc.scanImageExists)
	sc.Step(`^I run pancrascan with (.+)$`, tc.iRunPancrascanWith)
	sc.Step(`^the exit code should be (\d+)$`, tc.theExitCodeShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, tc.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, tc.theOutputShouldNotContain)
	sc.Step(`^the session file should exist$`, tc.sessionFileShouldExist)
	sc.Step(`^the session file should not exist$`, tc.sessionFileShouldNotExist)
}

func (tc *testContext) serviceIsRunning() error {
	if tc.server == nil {
		return fmt.Errorf("service not started")
	}
	return nil
}

func (tc *testContext) accountExists(user, password string) error {
	body, _ := json.Marshal(map[string]string{"username": user, "password": password})
	resp, err := http.Post(tc.server.URL+"/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("signup returned %d", resp.StatusCode)
	}
	return nil
}

func (tc *testContext) loggedInAs(user, password string) error {
	if err := tc.accountExists(user, password); err != nil {
		return err
	}
	return tc.iRunPancrascanWith(fmt.Sprintf("login --user %s --password %s", user, password))
}

func (tc *testContext) scanImageExists() error {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 16)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(tc.tmpDir, "scan.png"), buf.Bytes(), 0o644)
}

func (tc *testContext) iRunPancrascanWith(args string) error {
	// Placeholders for per-scenario paths
	args = strings.ReplaceAll(args, "{scan}", filepath.Join(tc.tmpDir, "scan.png"))

	argList := splitArgs(args)
	// Every invocation targets the scenario's service and session file.
	argList = append(argList,
		"--server", tc.server.URL,
		"--session-file", tc.sessionPath(),
	)

	cmd := exec.Command(binaryPath, argList...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	tc.output = output.String()

	if exitErr, ok := err.(*exec.ExitError); ok {
		tc.exitCode = exitErr.ExitCode()
	} else if err != nil {
		return fmt.Errorf("failed to run command: %w", err)
	} else {
		tc.exitCode = 0
	}

	return nil
}

func (tc *testContext) sessionPath() string {
	return filepath.Join(tc.tmpDir, "session.yaml")
}

func (tc *testContext) theExitCodeShouldBe(expected int) error {
	if tc.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nOutput:\n%s", expected, tc.exitCode, tc.output)
	}
	return nil
}

func (tc *testContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(tc.output, expected) {
		return fmt.Errorf("expected output to contain %q\nOutput:\n%s", expected, tc.output)
	}
	return nil
}

func (tc *testContext) theOutputShouldNotContain(unexpected string) error {
	if strings.Contains(tc.output, unexpected) {
		return fmt.Errorf("expected output to not contain %q\nOutput:\n%s", unexpected, tc.output)
	}
	return nil
}

func (tc *testContext) sessionFileShouldExist() error {
	if _, err := os.Stat(tc.sessionPath()); err != nil {
		return fmt.Errorf("session file missing: %w", err)
	}
	return nil
}

func (tc *testContext) sessionFileShouldNotExist() error {
	if _, err := os.Stat(tc.sessionPath()); err == nil {
		return fmt.Errorf("session file still exists at %s", tc.sessionPath())
	}
	return nil
}

// splitArgs splits a command line respecting double quotes
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}

// fakeService mimics the remote account/diagnostic endpoints.
type fakeService struct {
	mu      sync.Mutex
	users   map[string]string
	history map[string][]map[string]any
	nextID  int
}

func newFakeService() *fakeService {
	return &fakeService{
		users:   make(map[string]string),
		history: make(map[string][]map[string]any),
	}
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /signup", f.handleSignup)
	mux.HandleFunc("POST /login", f.handleLogin)
	mux.HandleFunc("POST /predict", f.handlePredict)
	mux.HandleFunc("GET /history/{username}", f.handleHistory)
	return mux
}

func (f *fakeService) handleSignup(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[creds.Username]; exists {
		http.Error(w, "Username already exists", http.StatusConflict)
		return
	}
	f.users[creds.Username] = creds.Password
	w.WriteHeader(http.StatusCreated)
}

func (f *fakeService) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if creds.Password == "" || f.users[creds.Username] != creds.Password {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"username": creds.Username})
}

func (f *fakeService) handlePredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "bad multipart form", http.StatusBadRequest)
		return
	}
	if _, _, err := r.FormFile("file"); err != nil {
		http.Error(w, "missing scan file", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++

	diagnosis, risk := "Benign", "Low"
	if strings.Contains(r.FormValue("symptoms"), "severe") {
		diagnosis, risk = "Malignant - Stage II", "High"
	}

	rec := map[string]any{
		"_id":          fmt.Sprintf("%d", f.nextID),
		"patient_name": r.FormValue("name"),
		"patient_id":   r.FormValue("patient_id"),
		"diagnosis":    diagnosis,
		"confidence":   "91.50%",
		"risk_level":   risk,
		"scan_date":    "2025-03-01",
	}
	username := r.FormValue("username")
	f.history[username] = append(f.history[username], rec)

	_ = json.NewEncoder(w).Encode(rec)
}

func (f *fakeService) handleHistory(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := f.history[r.PathValue("username")]
	if recs == nil {
		recs = []map[string]any{}
	}
	_ = json.NewEncoder(w).Encode(recs)
}
