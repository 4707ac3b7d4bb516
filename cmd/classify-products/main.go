package main

import (
	"context"
	"flag"
	"time"

	"github.com/moxiedata/affiliate-ledger/internal/classifier"
	"github.com/moxiedata/affiliate-ledger/internal/config"
	"github.com/moxiedata/affiliate-ledger/internal/logger"
	"github.com/moxiedata/affiliate-ledger/internal/notify"
	"github.com/moxiedata/affiliate-ledger/internal/objectstore"
	"github.com/moxiedata/affiliate-ledger/internal/warehouse"
)

func main() {
	log := logger.New()

	var (
		country = flag.String("country", "US", "country code to classify products for")
		count   = flag.Int("count", 100, "maximum number of products to classify")
	)
	flag.Parse()

	normalized, err := config.NormalizeCountry(*country)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -country")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	ctx, cancel := context.WithTimeout(logger.WithContext(context.Background(), log), 15*time.Minute)
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

	tagger, err := classifier.NewGeminiTagger(ctx, cfg.ModelName)
	if err != nil {
		log.Fatal().Err(err).Msg("creating model client")
	}

	job := &classifier.Job{
		Source:  repo,
		Tagger:  tagger,
		Store:   uploader,
		Notify:  notify.New(cfg.SlackWebhookURL, cfg.Network),
		Network: cfg.Network,
		Model:   cfg.ModelName,
		Log:     log,
	}

	tagged, err := job.Run(ctx, normalized, *count)
	if err != nil {
		log.Fatal().Err(err).Msg("classification run failed")
	}

	log.Info().Int("tagged", tagged).Msg("classification run complete")
}
