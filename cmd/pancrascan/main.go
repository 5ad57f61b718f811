package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrsinham/pancrascan/cmd/pancrascan/app"
	"github.com/mrsinham/pancrascan/internal/api"
	"github.com/mrsinham/pancrascan/internal/diagnostic"
	"github.com/mrsinham/pancrascan/internal/records"
	"github.com/mrsinham/pancrascan/internal/report"
	"github.com/mrsinham/pancrascan/internal/scan"
	"github.com/mrsinham/pancrascan/internal/session"
	"github.com/mrsinham/pancrascan/internal/submission"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Check for subcommands (before flag.Parse)
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "login":
			runSubcommand(runLogin, os.Args[2:])
		case "signup":
			runSubcommand(runSignup, os.Args[2:])
		case "logout":
			runSubcommand(runLogout, os.Args[2:])
		case "predict":
			runSubcommand(runPredict, os.Args[2:])
		case "history":
			runSubcommand(runHistory, os.Args[2:])
		}
	}

	// Define command-line flags
	server := flag.String("server", "", "Diagnostic service base URL (default: config file, then "+api.DefaultServerURL+")")
	sessionFile := flag.String("session-file", "", "Session file path (default: user config dir)")
	help := flag.Bool("help", false, "Show help message")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("pancrascan %s\n", version)
		os.Exit(0)
	}

	// Show help
	if *help {
		printHelp()
		os.Exit(0)
	}

	opts := app.Options{
		ServerURL:   resolveServer(*server),
		SessionPath: resolveSessionPath(*sessionFile),
		Version:     version,
	}

	if err := app.Run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runSubcommand executes one non-interactive command and exits.
func runSubcommand(run func(args []string) error, args []string) {
	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// resolveSessionPath falls back to the per-user default when no explicit path
// is given. An unresolvable config dir disables persistence instead of
// failing the whole program.
func resolveSessionPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path, err := session.DefaultPath()
	if err != nil {
		return ""
	}
	return path
}

// commonFlags registers the flags shared by every subcommand.
func commonFlags(fs *flag.FlagSet) (server, sessionFile *string) {
	server = fs.String("server", "", "Diagnostic service base URL (default: config file, then "+api.DefaultServerURL+")")
	sessionFile = fs.String("session-file", "", "Session file path (default: user config dir)")
	return server, sessionFile
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	server, sessionFile := commonFlags(fs)
	user := fs.String("user", "", "Username (required)")
	password := fs.String("password", "", "Password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *password == "" {
		return fmt.Errorf("--user and --password are required")
	}

	guard := session.NewGuard(api.NewClient(resolveServer(*server)))
	if err := guard.Login(context.Background(), *user, *password); err != nil {
		return err
	}
	if path := resolveSessionPath(*sessionFile); path != "" {
		if err := guard.Save(path); err != nil {
			return err
		}
	}

	fmt.Printf("Logged in as %s\n", guard.Current().Identity)
	return nil
}

func runSignup(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	server, _ := commonFlags(fs)
	user := fs.String("user", "", "Username (required)")
	password := fs.String("password", "", "Password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *password == "" {
		return fmt.Errorf("--user and --password are required")
	}

	guard := session.NewGuard(api.NewClient(resolveServer(*server)))
	if err := guard.Signup(context.Background(), *user, *password); err != nil {
		return err
	}

	fmt.Printf("Account %s created. Log in with: pancrascan login --user %s --password ...\n", *user, *user)
	return nil
}

func runLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	_, sessionFile := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := resolveSessionPath(*sessionFile)
	if path == "" {
		return nil
	}
	if err := session.Discard(path); err != nil {
		return err
	}

	fmt.Println("Logged out")
	return nil
}

// restoreIdentity loads the persisted session for commands that need one.
func restoreIdentity(server, sessionFile string) (*session.Guard, error) {
	guard := session.NewGuard(api.NewClient(server))
	path := resolveSessionPath(sessionFile)
	if path != "" {
		if err := guard.Restore(path); err != nil {
			return nil, err
		}
	}
	if !guard.Current().Authenticated {
		return nil, fmt.Errorf("not logged in, run: pancrascan login --user ... --password ...")
	}
	return guard, nil
}

func runPredict(args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	server, sessionFile := commonFlags(fs)
	file := fs.String("file", "", "CT scan file: PNG, JPEG or DICOM (required)")
	patientID := fs.String("patient-id", "", "Patient identifier (required)")
	name := fs.String("name", "", "Patient full name (required)")
	age := fs.String("age", "", "Patient age in years (required)")
	sex := fs.String("sex", "Male", "Patient sex: Male, Female or Other")
	symptoms := fs.String("symptoms", "", "Reported symptoms")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	serverURL := resolveServer(*server)
	guard, err := restoreIdentity(serverURL, *sessionFile)
	if err != nil {
		return err
	}
	client := api.NewClient(serverURL)

	asset, err := scan.Load(*file)
	if err != nil {
		return err
	}

	builder := submission.NewBuilder()
	builder.SetMetadata(submission.Metadata{
		PatientID: *patientID,
		Name:      *name,
		Age:       *age,
		Sex:       *sex,
		Symptoms:  *symptoms,
	})
	if err := builder.AttachAsset(asset); err != nil {
		return err
	}
	defer builder.Close()

	req, err := builder.BuildRequest(guard.Current().Identity)
	if err != nil {
		return err
	}

	ctrl := diagnostic.NewController()
	thunk, err := ctrl.Submit(context.Background(), req, func(ctx context.Context, req submission.Request) (records.Record, error) {
		return client.Predict(ctx, api.PredictRequest{
			Username:  req.Identity,
			Name:      req.Metadata.Name,
			Age:       req.AgeYears,
			Sex:       req.Metadata.Sex,
			PatientID: req.Metadata.PatientID,
			Symptoms:  req.Metadata.Symptoms,
			Filename:  req.Filename,
			File:      req.Payload,
		})
	})
	if err != nil {
		return err
	}
	ctrl.Apply(thunk())
	if ctrl.Phase() == diagnostic.PhaseFailed {
		return ctrl.Err()
	}

	printRecord(ctrl.Result())
	return nil
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	server, sessionFile := commonFlags(fs)
	query := fs.String("query", "", "Filter by patient name or ID (substring, case-insensitive)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	serverURL := resolveServer(*server)
	guard, err := restoreIdentity(serverURL, *sessionFile)
	if err != nil {
		return err
	}
	client := api.NewClient(serverURL)

	store := records.NewStore()
	thunk := store.Fetch(context.Background(), guard.Current().Identity, client.History)
	outcome := thunk()
	if !store.Apply(outcome) {
		return outcome.Err
	}

	matches := store.Search(*query)
	if len(matches) == 0 {
		fmt.Printf("No records found for Dr. %s\n", store.Identity())
		return nil
	}

	fmt.Printf("%-20s %-12s %-28s %10s %-8s %s\n",
		"PATIENT", "ID", "DIAGNOSIS", "CONFIDENCE", "RISK", "DATE")
	for _, r := range matches {
		fmt.Printf("%-20s %-12s %-28s %10s %-8s %s\n",
			r.PatientName, r.PatientID, r.Diagnosis, r.Confidence, r.RiskLevel, r.ScanDate)
	}
	return nil
}

// printRecord writes one diagnostic result in the predict output format.
func printRecord(rec records.Record) {
	fmt.Println("Diagnostic report")
	fmt.Println("=================")
	fmt.Printf("Patient:    %s (%s)\n", rec.PatientName, rec.PatientID)
	fmt.Printf("Diagnosis:  %s\n", rec.Diagnosis)
	fmt.Printf("Confidence: %s\n", rec.Confidence)
	fmt.Printf("Risk level: %s\n", rec.RiskLevel)
	fmt.Printf("Scan date:  %s\n", rec.ScanDate)
	if report.IsMalignant(rec) {
		fmt.Println("\n⚠ Malignancy detected. Review with an oncologist.")
	}
}

func printHelp() {
	fmt.Println("pancrascan")
	fmt.Println("==========")
	fmt.Println()
	fmt.Println("Terminal client for AI-assisted pancreatic CT diagnostics.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pancrascan [options]              Launch the interactive client")
	fmt.Println("  pancrascan <command> [options]    Run one command and exit")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login     Authenticate and persist the session")
	fmt.Println("            --user <NAME> --password <PASS>")
	fmt.Println("  signup    Create a clinician account")
	fmt.Println("            --user <NAME> --password <PASS>")
	fmt.Println("  logout    Discard the persisted session")
	fmt.Println("  predict   Submit a CT scan for analysis")
	fmt.Println("            --file <PATH> --patient-id <ID> --name <NAME> --age <N>")
	fmt.Println("            [--sex Male|Female|Other] [--symptoms <TEXT>]")
	fmt.Println("  history   List past diagnostics")
	fmt.Println("            [--query <TEXT>]")
	fmt.Println()
	fmt.Println("Options (all commands):")
	fmt.Printf("  --server <URL>        Diagnostic service base URL (default: %s)\n", api.DefaultServerURL)
	fmt.Println("  --session-file <PATH> Session file path (default: user config dir)")
	fmt.Println("  --version             Show version")
	fmt.Println("  --help                Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Create an account and log in")
	fmt.Println("  pancrascan signup --user drjones --password s3cret")
	fmt.Println("  pancrascan login --user drjones --password s3cret")
	fmt.Println()
	fmt.Println("  # Analyze a scan (PNG, JPEG or DICOM)")
	fmt.Println("  pancrascan predict --file scan.dcm --patient-id PID-001 \\")
	fmt.Println("    --name \"Marie Curie\" --age 58 --sex Female --symptoms \"weight loss\"")
	fmt.Println()
	fmt.Println("  # Review past diagnostics")
	fmt.Println("  pancrascan history --query marie")
}
