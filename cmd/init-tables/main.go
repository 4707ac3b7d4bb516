package main

import (
	"context"
	"flag"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/moxiedata/affiliate-ledger/internal/config"
	"github.com/moxiedata/affiliate-ledger/internal/logger"
	"github.com/moxiedata/affiliate-ledger/internal/warehouse"
)

func main() {
	log := logger.New()

	var (
		project = flag.String("project", "", "GCP project ID (default: configured project)")
		dataset = flag.String("dataset", "", "BigQuery dataset (default: configured dataset)")
	)
	flag.Parse()

	if *project == "" || *dataset == "" {
		cfg, err := config.FromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("configuration error, pass -project and -dataset or set the environment")
		}
		if *project == "" {
			*project = cfg.ProjectID
		}
		if *dataset == "" {
			*dataset = cfg.Dataset
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := bigquery.NewClient(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("creating BigQuery client")
	}
	defer client.Close()

	if err := warehouse.CreateTables(ctx, client, *dataset); err != nil {
		log.Fatal().Err(err).Msg("creating tables")
	}

	log.Info().Str("project", *project).Str("dataset", *dataset).Msg("ledger tables ready")
}
