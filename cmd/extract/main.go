package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/moxiedata/affiliate-ledger/internal/config"
	"github.com/moxiedata/affiliate-ledger/internal/feed"
	"github.com/moxiedata/affiliate-ledger/internal/logger"
	"github.com/moxiedata/affiliate-ledger/internal/notify"
	"github.com/moxiedata/affiliate-ledger/internal/objectstore"
	"github.com/moxiedata/affiliate-ledger/internal/overrides"
	"github.com/moxiedata/affiliate-ledger/internal/pipeline"
	"github.com/moxiedata/affiliate-ledger/internal/warehouse"
)

func main() {
	log := logger.New()

	var (
		dateStr    = flag.String("date", "", "report date YYYY-MM-DD (default: yesterday)")
		endDateStr = flag.String("end-date", "", "optional end of a backfill range YYYY-MM-DD, inclusive")
		countries  = flag.String("countries", strings.Join(config.SupportedCountries, ","), "comma-separated country codes")
	)
	flag.Parse()

	reportDate := time.Now().UTC().AddDate(0, 0, -1)
	if *dateStr != "" {
		var err error
		reportDate, err = time.Parse("2006-01-02", *dateStr)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -date")
		}
	}
	reportDate = reportDate.Truncate(24 * time.Hour)

	endDate := reportDate
	if *endDateStr != "" {
		var err error
		endDate, err = time.Parse("2006-01-02", *endDateStr)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -end-date")
		}
		if endDate.Before(reportDate) {
			log.Fatal().Msg("-end-date is before -date")
		}
	}

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

	// One run per country per day, in the order given, stopping at the
	// first failure so a broken day is not papered over by later loads.
	for _, raw := range strings.Split(*countries, ",") {
		country, err := config.NormalizeCountry(strings.TrimSpace(raw))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -countries")
		}

		creds, err := cfg.FeedCredentials(country)
		if err != nil {
			log.Fatal().Err(err).Msg("missing feed credentials")
		}

		deps := pipeline.Deps{
			Feed:      feed.NewClient(cfg.FeedBaseURL, creds),
			Warehouse: repo,
			Store:     uploader,
			Notify:    notifier,
			Overrides: overridesLoader,
			Network:   cfg.Network,
		}

		var runs []pipeline.Params
		for day := reportDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
			runs = append(runs, pipeline.Params{Country: country, ReportDate: day})
		}

		if err := pipeline.RunAll(ctx, deps, runs); err != nil {
			log.Fatal().Err(err).Str("country", country).Msg("extraction failed")
		}
	}

	log.Info().Msg("all extraction runs complete")
}
