package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/finance-ingest/internal/app"
	"github.com/dvloznov/finance-ingest/internal/config"
	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "upload":
		runUpload(log)
	case "process":
		runProcess(log)
	case "seed":
		runSeed(log)
	case "sweep":
		runSweep(log)
	case "profile":
		runProfile(log)
	case "inspect":
		runInspect(log)
	case "audit":
		runAudit(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Ingest CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  upload    Upload a local file and create a pending raw file")
	fmt.Println("  process   Run the ingestion pipeline for one raw file")
	fmt.Println("  seed      Seed the default category tree for a user")
	fmt.Println("  sweep     Fail raw files stuck in processing")
	fmt.Println("  profile   Set a user's Gemini API key")
	fmt.Println("  inspect   Show a raw file and what it produced")
	fmt.Println("  audit     Create the extraction audit table or list recent runs")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nBackends are selected from the environment (see .env).")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// openApp loads config and wires the backends. The caller closes the app.
func openApp(ctx context.Context, log zerolog.Logger) *app.App {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backends")
	}
	return a
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	filePath := fs.String("file", "", "Path to local file")
	accountID := fs.String("account", "", "Target account ID (marks the file as a statement)")
	fs.Parse(os.Args[2:])

	if *userID == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -user UID -file PATH [-account ID]")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read file")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, log)
	defer a.Close()

	fileID, raw, err := a.Submitter.Submit(ctx, *userID, filepath.Base(*filePath), data, *accountID)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Created raw file %s (%s) at %s\n", fileID, raw.FileType, raw.StoragePath)
}

func runProcess(log zerolog.Logger) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	fileID := fs.String("file-id", "", "Raw file ID")
	fs.Parse(os.Args[2:])

	if *userID == "" || *fileID == "" {
		log.Fatal().Msg("Usage: cli process -user UID -file-id ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := openApp(ctx, log)
	defer a.Close()

	out, err := a.Processor.ProcessByID(ctx, *userID, *fileID)
	if err != nil {
		log.Fatal().Err(err).Msg("Processing failed")
	}

	fmt.Printf("Status:   %s\n", out.Status)
	fmt.Printf("Decision: %s\n", out.Decision)
	if out.ParentID != "" {
		fmt.Printf("Parent:   %s (%d children)\n", out.ParentID, out.Children)
	}
	if out.Message != "" {
		fmt.Printf("Error:    [%s] %s\n", out.Kind, out.Message)
	}
}

func runSeed(log zerolog.Logger) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Usage: cli seed -user UID")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, log)
	defer a.Close()

	ids, err := a.Seeder.Seed(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Int("inserted", len(ids)).Msg("Seeding failed")
	}

	fmt.Printf("Seeded %d categories for %s\n", len(ids), *userID)
}

func runSweep(log zerolog.Logger) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	olderThan := fs.Duration("older-than", 15*time.Minute, "Minimum time since the last status change")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Usage: cli sweep -user UID [-older-than 15m]")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, log)
	defer a.Close()

	swept, err := a.Sweeper.Sweep(ctx, *userID, *olderThan)
	if err != nil {
		log.Fatal().Err(err).Msg("Sweep failed")
	}

	fmt.Printf("Marked %d raw file(s) failed\n", len(swept))
	for _, id := range swept {
		fmt.Printf("  %s\n", id)
	}
}

func runProfile(log zerolog.Logger) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	apiKey := fs.String("gemini-key", "", "Gemini API key")
	fs.Parse(os.Args[2:])

	if *userID == "" || *apiKey == "" {
		log.Fatal().Msg("Usage: cli profile -user UID -gemini-key KEY")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, log)
	defer a.Close()

	w, ok := a.Store.(docstore.ProfileWriter)
	if !ok {
		log.Fatal().Str("store", a.Config.Store.Backend).Msg("Store cannot write profiles")
	}
	if err := w.SetUserProfile(ctx, *userID, domain.UserProfile{GeminiAPIKey: *apiKey}); err != nil {
		log.Fatal().Err(err).Msg("Failed to write profile")
	}

	fmt.Printf("Profile updated for %s\n", *userID)
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	fileID := fs.String("file-id", "", "Raw file ID")
	fs.Parse(os.Args[2:])

	if *userID == "" || *fileID == "" {
		log.Fatal().Msg("Usage: cli inspect -user UID -file-id ID")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, log)
	defer a.Close()

	var raw domain.RawFile
	if err := a.Store.Get(ctx, *userID, docstore.RawFiles, *fileID, &raw); err != nil {
		log.Fatal().Err(err).Msg("Raw file not found")
	}

	fmt.Println("\n=== Raw File ===")
	fmt.Printf("ID:       %s\n", *fileID)
	fmt.Printf("Name:     %s\n", raw.Filename)
	fmt.Printf("Type:     %s\n", raw.FileType)
	fmt.Printf("Path:     %s\n", raw.StoragePath)
	fmt.Printf("Status:   %s\n", raw.Status)
	if raw.ErrorMessage != nil {
		fmt.Printf("Error:    %s\n", *raw.ErrorMessage)
	}
	fmt.Printf("Updated:  %s\n", raw.Metadata.UpdatedAt.Format(time.RFC3339))

	statements, err := a.Store.Query(ctx, *userID, docstore.Statements, docstore.Eq("raw_file_id", *fileID))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query statements")
	}
	for _, snap := range statements {
		var st domain.Statement
		if err := snap.DataTo(&st); err != nil {
			log.Fatal().Err(err).Msg("Failed to decode statement")
		}
		txns, err := a.Store.Query(ctx, *userID, docstore.Transactions, docstore.Eq("statement_id", snap.ID()))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to query transactions")
		}

		fmt.Printf("\n=== Statement %s ===\n", snap.ID())
		var acct domain.Account
		if err := a.Store.Get(ctx, *userID, docstore.Accounts, st.AccountID, &acct); err == nil {
			fmt.Printf("Account:  %s (%s, %s)\n", acct.Name, acct.Type, acct.Currency)
		} else {
			fmt.Printf("Account:  %s\n", st.AccountID)
		}
		fmt.Printf("Period:   %s .. %s\n", st.PeriodStart.Format("2006-01-02"), st.PeriodEnd.Format("2006-01-02"))
		fmt.Printf("Balance:  %.2f -> %.2f\n", st.OpeningBalance, st.ClosingBalance)
		fmt.Printf("\n--- Transactions (%d) ---\n", len(txns))
		for i, s := range txns {
			var tx domain.Transaction
			if err := s.DataTo(&tx); err != nil {
				log.Fatal().Err(err).Msg("Failed to decode transaction")
			}
			fmt.Printf("%3d. %s  %10.2f  %s\n", i+1, tx.Date.Format("2006-01-02"), tx.Amount, tx.Description)
		}
	}

	receipts, err := a.Store.Query(ctx, *userID, docstore.Receipts, docstore.Eq("raw_file_id", *fileID))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query receipts")
	}
	for _, snap := range receipts {
		var rc domain.Receipt
		if err := snap.DataTo(&rc); err != nil {
			log.Fatal().Err(err).Msg("Failed to decode receipt")
		}
		items, err := a.Store.Query(ctx, *userID, docstore.Items, docstore.Eq("receipt_id", snap.ID()))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to query items")
		}

		fmt.Printf("\n=== Receipt %s ===\n", snap.ID())
		fmt.Printf("Merchant: %s\n", rc.Merchant)
		fmt.Printf("Date:     %s\n", rc.Date.Format("2006-01-02"))
		fmt.Printf("Total:    %.2f (tax %.2f)\n", rc.TotalAmount, rc.TaxAmount)
		fmt.Printf("\n--- Items (%d) ---\n", len(items))
		for i, s := range items {
			var it domain.Item
			if err := s.DataTo(&it); err != nil {
				log.Fatal().Err(err).Msg("Failed to decode item")
			}
			fmt.Printf("%3d. %g x %.2f = %.2f  %s\n", i+1, it.Quantity, it.UnitPrice, it.TotalPrice, it.Description)
		}
	}
	fmt.Println()
}

func runAudit(log zerolog.Logger) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	ensure := fs.Bool("ensure-table", false, "Create the extraction_runs table if missing")
	userID := fs.String("user", "", "List recent runs for this user")
	limit := fs.Int("limit", 20, "Maximum runs to list")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, log)
	defer a.Close()

	if a.Recorder == nil {
		log.Fatal().Msg("Audit is disabled; set AUDIT_ENABLED=true")
	}

	if *ensure {
		if err := a.Recorder.EnsureTable(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create audit table")
		}
		fmt.Println("Audit table ready.")
	}

	if *userID == "" {
		return
	}

	runs, err := a.Recorder.ListRuns(ctx, *userID, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}
	for _, r := range runs {
		line := fmt.Sprintf("%s  %-9s %-9s %s", r.StartedTS.Format(time.RFC3339), r.SourceKind, r.Status, r.FileID)
		if r.ErrorMessage.Valid {
			line += "  " + r.ErrorMessage.StringVal
		}
		fmt.Println(line)
	}
}
