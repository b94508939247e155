// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

// Package main is the content-similarity command.
//
// It loads the catalog CSV, builds TF-IDF vectors from the configured text
// columns, and prints the products most similar to one catalog row.
//
// # Configuration
//
// Settings come from built-in defaults, an optional YAML file ($CONFIG_PATH,
// catalogrec.yaml or config.yaml) and environment variables:
//
//	CATALOG_PATH=products.csv SIMILAR_QUERY_INDEX=1000 SIMILAR_TOP_N=20 ./similar
//	OUTPUT_FORMAT=json LOG_LEVEL=debug ./similar
//
// Every column in SIMILAR_FIELDS, plus Title and Price, must exist in the
// catalog; a missing column stops the run with its name in the error.
//
// Results go to stdout and logs to stderr. The exit status is non-zero on
// any failure.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/catalogrec/internal/config"
	"github.com/tomtom215/catalogrec/internal/database"
	"github.com/tomtom215/catalogrec/internal/logging"
	"github.com/tomtom215/catalogrec/internal/metrics"
	"github.com/tomtom215/catalogrec/internal/pipeline"
	"github.com/tomtom215/catalogrec/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = pipeline.Run(ctx, pipeline.NameSimilar, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
	stop()

	if cfg.Metrics.Textfile != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logging.Error().Err(werr).Msg("Failed to write metrics textfile")
		}
	}

	if err != nil {
		logging.Fatal().Err(err).Msg("Similarity pipeline failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	printer, err := report.New(os.Stdout, cfg.Output.Format)
	if err != nil {
		return err
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	src := database.NewSource(db, database.CatalogOptions{
		Path:     cfg.Catalog.Path,
		Required: pipeline.RequiredColumns(cfg.Similar.Fields),
		Mode:     database.Strict,
	}, "")

	res, err := pipeline.RunSimilar(ctx, src, pipeline.SimilarOptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	return printer.Print(&report.Result{
		Pipeline: pipeline.NameSimilar,
		Query:    report.QueryRow(res.Products, res.Query),
		Items:    report.Rows(res.Products, res.Items),
	})
}
