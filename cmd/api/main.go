package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moxiedata/affiliate-ledger/internal/api/handlers"
	"github.com/moxiedata/affiliate-ledger/internal/api/middleware"
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
	port := flag.String("port", "8080", "HTTP server port")
	flag.Parse()

	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	ctx := logger.WithContext(context.Background(), log)

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

	// In-process worker: jobs enqueued over HTTP are processed by the same
	// binary. Split into the dedicated worker service for larger volumes.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 1, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		extraction, ok := job.(*jobs.ExtractionJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

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

		return pipeline.Run(ctx, deps, extraction.Country, extraction.ReportDate)
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	runsHandler := handlers.NewRunsHandler(jobQueue, jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			runsHandler.EnqueueRun(w, r)
		case http.MethodGet:
			runsHandler.ListRuns(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Run ID is required")
			return
		}
		runsHandler.GetRun(w, r, jobID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(mux),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Job queue shutdown error")
	}

	log.Info().Msg("Exited cleanly")
}
