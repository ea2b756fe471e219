package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/dvloznov/finance-ingest/internal/logger"
	"github.com/rs/zerolog"
)

// options selects deployment targets. No target selected means every target
// firebase.json declares.
type options struct {
	rules     bool
	storage   bool
	indexes   bool
	functions bool
	project   string

	// hasFunctions reports whether firebase.json has a functions section.
	hasFunctions bool
}

func (o options) all() bool {
	return !o.rules && !o.storage && !o.indexes && !o.functions
}

// step is one firebase invocation.
type step struct {
	name string
	args []string
}

// plan returns the firebase invocations for o, in deployment order.
func plan(o options) []step {
	var steps []step
	if o.project != "" {
		steps = append(steps, step{name: "Select project", args: []string{"use", o.project}})
	}
	add := func(selected bool, name, target string) {
		if selected || o.all() {
			steps = append(steps, step{name: name, args: []string{"deploy", "--only", target}})
		}
	}
	add(o.rules, "Firestore rules", "firestore:rules")
	add(o.storage, "Storage rules", "storage")
	add(o.indexes, "Firestore indexes", "firestore:indexes")
	if o.functions || (o.all() && o.hasFunctions) {
		steps = append(steps, step{name: "Cloud Functions", args: []string{"deploy", "--only", "functions"}})
	}
	return steps
}

// declaresFunctions reports whether the firebase.json at path configures
// Cloud Functions. A missing file declares nothing.
func declaresFunctions(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var cfg map[string]json.RawMessage
	if err := json.Unmarshal(data, &cfg); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	_, ok := cfg["functions"]
	return ok, nil
}

// runner executes the firebase CLI.
type runner func(ctx context.Context, args ...string) error

func firebase(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "firebase", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// deploy runs every step, continuing past failed deploys so one bad target
// does not hide the others. A failed project switch stops immediately.
func deploy(ctx context.Context, log zerolog.Logger, o options, run runner) error {
	failed := 0
	for _, s := range plan(o) {
		log.Info().Strs("args", s.args).Msgf("Deploying %s...", s.name)
		if err := run(ctx, s.args...); err != nil {
			if s.args[0] == "use" {
				return fmt.Errorf("select project %s: %w", o.project, err)
			}
			log.Error().Err(err).Msgf("Failed to deploy %s", s.name)
			failed++
			continue
		}
		log.Info().Msgf("%s deployed successfully", s.name)
	}
	if failed > 0 {
		return fmt.Errorf("deployment completed with %d error(s)", failed)
	}
	return nil
}

func main() {
	var o options
	flag.BoolVar(&o.rules, "rules", false, "Deploy only Firestore rules")
	flag.BoolVar(&o.storage, "storage", false, "Deploy only Storage rules")
	flag.BoolVar(&o.indexes, "indexes", false, "Deploy only Firestore indexes")
	flag.BoolVar(&o.functions, "functions", false, "Deploy only Cloud Functions")
	flag.StringVar(&o.project, "project", "", "Firebase project ID")
	config := flag.String("config", "firebase.json", "Path to firebase.json")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deploy [--rules] [--storage] [--indexes] [--functions] [--project ID] [--config PATH]")
		fmt.Fprintln(os.Stderr, "\nIf no target is selected, every target in firebase.json is deployed.")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	if _, err := exec.LookPath("firebase"); err != nil {
		log.Fatal().Msg("Firebase CLI is not installed. Install it with: npm install -g firebase-tools")
	}

	hasFunctions, err := declaresFunctions(*config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read firebase config")
	}
	o.hasFunctions = hasFunctions

	if err := deploy(ctx, log, o, firebase); err != nil {
		log.Fatal().Err(err).Msg("Deployment failed")
	}
	log.Info().Msg("Deployment completed successfully")
}
