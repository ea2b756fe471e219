package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-ingest/internal/app"
	"github.com/dvloznov/finance-ingest/internal/config"
	infraFS "github.com/dvloznov/finance-ingest/internal/infra/firestore"
	"github.com/dvloznov/finance-ingest/internal/jobs"
	"github.com/dvloznov/finance-ingest/internal/jobs/inmemory"
	"github.com/dvloznov/finance-ingest/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logger.NewWithOptions(logger.Options{Level: cfg.App.LogLevel, JSON: cfg.JSONLogs()})

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backends")
	}
	defer a.Close()

	client, ok := a.FirestoreClient()
	if !ok {
		log.Fatal().Str("store", cfg.Store.Backend).Msg("The worker watches Firestore; set STORE_BACKEND=firestore")
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Worker.QueueSize, cfg.Worker.Count, jobStore)

	if err := jobQueue.Start(ctx, a.Dispatcher().Dispatch); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	watcher := infraFS.NewWatcher(client, func(ctx context.Context, userID, fileID string) error {
		return jobQueue.Publish(ctx, &jobs.Job{
			Type:   jobs.JobTypeProcessRawFile,
			UserID: userID,
			FileID: fileID,
		})
	})

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Run(ctx)
	}()

	log.Info().Int("workers", cfg.Worker.Count).Msg("Worker service started, waiting for raw files...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutting down worker service...")
	case err := <-watchErr:
		if err != nil {
			log.Error().Err(err).Msg("Watcher stopped")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	log.Info().Msg("Worker service exited")
}
