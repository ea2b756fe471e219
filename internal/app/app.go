// Package app builds the collaborators shared by the server, worker and CLI
// binaries from a loaded config.
package app

import (
	"context"
	"errors"
	"fmt"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/dvloznov/finance-ingest/internal/blob"
	"github.com/dvloznov/finance-ingest/internal/categories"
	"github.com/dvloznov/finance-ingest/internal/config"
	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/docstore/memory"
	"github.com/dvloznov/finance-ingest/internal/extraction"
	"github.com/dvloznov/finance-ingest/internal/gcs"
	infraBQ "github.com/dvloznov/finance-ingest/internal/infra/bigquery"
	infraFS "github.com/dvloznov/finance-ingest/internal/infra/firestore"
	"github.com/dvloznov/finance-ingest/internal/infra/sqlite"
	"github.com/dvloznov/finance-ingest/internal/jobs"
	"github.com/dvloznov/finance-ingest/internal/logger"
	"github.com/dvloznov/finance-ingest/internal/pipeline"
	"github.com/dvloznov/finance-ingest/internal/rawfiles"
)

// App holds the wired components.
type App struct {
	Config    *config.Config
	Store     docstore.Store
	Blobs     blob.Store
	Processor *pipeline.Processor
	Seeder    *categories.Seeder
	Sweeper   *pipeline.Sweeper
	Submitter *rawfiles.Submitter
	Recorder  *infraBQ.RunRecorder

	closers []func() error
}

// Option overrides a component before wiring.
type Option func(*options)

type options struct {
	store     docstore.Store
	blobs     blob.Store
	extractor extraction.Client
}

// WithStore uses store instead of the configured backend.
func WithStore(store docstore.Store) Option {
	return func(o *options) { o.store = store }
}

// WithBlobs uses blobs instead of the configured backend.
func WithBlobs(blobs blob.Store) Option {
	return func(o *options) { o.blobs = blobs }
}

// WithExtractor replaces the Gemini client.
func WithExtractor(c extraction.Client) Option {
	return func(o *options) { o.extractor = c }
}

// New opens the configured backends. Close releases them.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}

	if o.store != nil {
		a.Store = o.store
	} else {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	}

	if o.blobs != nil {
		a.Blobs = o.blobs
	} else {
		blobs, closeFn, err := openBlobs(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Blobs = blobs
		if closeFn != nil {
			a.closers = append(a.closers, closeFn)
		}
	}

	extractor := o.extractor
	if extractor == nil {
		extractor = extraction.NewGeminiClient(cfg.Extraction.Model)
	}

	a.Processor = pipeline.NewProcessor(a.Store, a.Blobs, extractor, pipeline.Options{
		SingleCommit:      cfg.Pipeline.SingleCommit,
		ExtractionTimeout: cfg.Extraction.Timeout,
		MaxChars:          cfg.Extraction.MaxChars,
	})

	if cfg.Audit.Enabled {
		rec, err := infraBQ.NewRunRecorder(ctx, cfg.Store.ProjectID, cfg.Audit.Dataset, cfg.Audit.Table)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: audit recorder: %w", err)
		}
		a.Recorder = rec
		a.Processor.WithRecorder(rec)
		a.closers = append(a.closers, rec.Close)
	}

	a.Seeder = categories.NewSeeder(a.Store)
	a.Sweeper = pipeline.NewSweeper(a.Store)
	a.Submitter = rawfiles.NewSubmitter(a.Store, a.Blobs)

	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		s, err := infraFS.NewStore(ctx, cfg.Store.ProjectID, cfg.Store.Database)
		if err != nil {
			return nil, fmt.Errorf("app: firestore: %w", err)
		}
		return s, nil
	case config.BackendSQLite:
		s, err := sqlite.NewStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("app: sqlite: %w", err)
		}
		return s, nil
	case config.BackendMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.Store.Backend)
	}
}

func openBlobs(ctx context.Context, cfg *config.Config) (blob.Store, func() error, error) {
	switch cfg.Blob.Backend {
	case config.BackendGCS:
		s, err := gcs.NewStore(ctx, cfg.Blob.Bucket)
		if err != nil {
			return nil, nil, fmt.Errorf("app: gcs: %w", err)
		}
		return s, s.Close, nil
	case config.BackendMemory:
		return blob.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("app: unknown blob backend %q", cfg.Blob.Backend)
	}
}

// FirestoreClient returns the underlying client when the store is Firestore.
func (a *App) FirestoreClient() (*gcfirestore.Client, bool) {
	s, ok := a.Store.(*infraFS.Store)
	if !ok {
		return nil, false
	}
	return s.Client(), true
}

// Dispatcher routes trigger jobs to the pipeline and the seeder.
func (a *App) Dispatcher() *jobs.Dispatcher {
	return jobs.NewDispatcher().
		Handle(jobs.JobTypeProcessRawFile, a.processRawFile).
		Handle(jobs.JobTypeSeedCategories, a.seedCategories)
}

func (a *App) processRawFile(ctx context.Context, job *jobs.Job) error {
	out, err := a.Processor.ProcessByID(ctx, job.UserID, job.FileID)
	if out != nil {
		job.Result = out
	}
	return err
}

func (a *App) seedCategories(ctx context.Context, job *jobs.Job) error {
	ids, err := a.Seeder.Seed(ctx, job.UserID)
	job.Result = map[string]int{"categories": len(ids)}
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Info().Int("categories", len(ids)).Msg("Seeded default categories")
	return nil
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
