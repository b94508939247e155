// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

// Package main is the hybrid recommendation command.
//
// It loads the catalog CSV, turns the configured text columns into TF-IDF
// item features, trains a WARP (or BPR) latent-factor model on user
// interactions, and prints the top products for one user.
//
// Interactions come from EVENTS_PATH when it is set (user_id, product_id,
// event columns). Without it a seeded synthetic matrix of HYBRID_USERS users
// at HYBRID_DENSITY is generated, so repeated runs with the same seed print
// the same recommendations.
//
//	CATALOG_PATH=products.csv HYBRID_USER_ID=0 HYBRID_TOP_N=10 ./hybrid
//	EVENTS_PATH=events.csv HYBRID_LOSS=bpr METRICS_TEXTFILE=/var/lib/node_exporter/catalogrec.prom ./hybrid
//
// Missing catalog columns are treated as empty text.
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
	err = pipeline.Run(ctx, pipeline.NameHybrid, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
	stop()

	if cfg.Metrics.Textfile != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logging.Error().Err(werr).Msg("Failed to write metrics textfile")
		}
	}

	if err != nil {
		logging.Fatal().Err(err).Msg("Hybrid pipeline failed")
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
		Required: cfg.Hybrid.Fields,
		Mode:     database.Lenient,
	}, cfg.Events.Path)

	res, err := pipeline.RunHybrid(ctx, src, pipeline.HybridOptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	user := res.User
	return printer.Print(&report.Result{
		Pipeline: pipeline.NameHybrid,
		User:     &user,
		Items:    report.Rows(res.Products, res.Items),
	})
}
