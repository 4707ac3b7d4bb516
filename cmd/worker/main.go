package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moxiedata/affiliate-ledger/internal/config"
	"github.com/moxiedata/affiliate-ledger/internal/feed"
	"github.com/moxiedata/affiliate-ledger/internal/jobs"
	"github.com/moxiedata/affiliate-ledger/internal/jobs/inmemory"
	"github.com/moxiedata/affiliate-ledger/internal/logger"
	"github.com/moxiedata/affiliate-ledger/internal/notify"
	"github.com/moxiedata/affiliate-ledger/internal/objectstore"
	"github.com/moxiedata/affiliate-ledger/internal/overrides"
	"github.com/moxiedata/affiliate-ledger/internal/pipeline"
	"github.com/moxiedata/affiliate-ledger/internal/warehouse"
)

func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	repo, err := warehouse.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("creating warehouse client")
	}
	defer repo.Close()

	uploader, err := objectstore.NewUploader(ctx, cfg.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("creating storage client")
	}
	defer uploader.Close()

	notifier := notify.New(cfg.SlackWebhookURL, cfg.Network)

	var overridesLoader pipeline.OverridesLoader
	if cfg.OverridesSheetID != "" {
		source, err := overrides.NewSheetsSource(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("creating sheets client")
		}
		overridesLoader = &overrides.Loader{
			Source:        source,
			SpreadsheetID: cfg.OverridesSheetID,
			ReadRange:     cfg.OverridesRange,
		}
	}

	// In production, replace the in-memory queue with Cloud Tasks or
	// Pub/Sub. One worker keeps concurrent runs from interleaving their
	// delete-and-reissue phases.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 1, jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
		extraction, ok := job.(*jobs.ExtractionJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", extraction.JobID).
			Str("country", extraction.Country).
			Str("report_date", extraction.ReportDate.Format("2006-01-02")).
			Msg("Processing extraction job")

		creds, err := cfg.FeedCredentials(extraction.Country)
		if err != nil {
			return err
		}

		deps := pipeline.Deps{
			Feed:      feed.NewClient(cfg.FeedBaseURL, creds),
			Warehouse: repo,
			Store:     uploader,
			Notify:    notifier,
			Overrides: overridesLoader,
			Network:   cfg.Network,
		}

		if err := pipeline.Run(ctx, deps, extraction.Country, extraction.ReportDate); err != nil {
			log.Error().Err(err).Str("job_id", extraction.JobID).Msg("Extraction job failed")
			return err
		}

		log.Info().Str("job_id", extraction.JobID).Msg("Extraction job completed")
		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
