// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

// Package main is the item-based collaborative filtering command.
//
// It reads storefront events (user_id, product_id, event columns) from
// EVENTS_PATH, weights them purchase=5, add_to_cart=3 and anything else 1,
// and compares products by the cosine of their per-user weight vectors. For
// one user every product they have not touched is scored by the similarity
// weighted average of their own weights, and the best are printed.
//
//	CATALOG_PATH=products.csv EVENTS_PATH=events.csv ITEMCF_USER_ID=0 ./itemcf
//	EVENTS_PATH=events.csv ITEMCF_NEIGHBORS=50 OUTPUT_FORMAT=json ./itemcf
//
// The catalog must have ID, Title and Price columns. Users are numbered in
// sorted order of their user_id.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/catalogrec/internal/config"
	"github.com/tomtom215/catalogrec/internal/database"
	"github.com/tomtom215/catalogrec/internal/logging"
	"github.com/tomtom215/catalogrec/internal/metrics"
	"github.com/tomtom215/catalogrec/internal/pipeline"
	"github.com/tomtom215/catalogrec/internal/recommend"
	"github.com/tomtom215/catalogrec/internal/report"
)

var errNoEventsPath = errors.New("events.path (EVENTS_PATH) is required for item CF")

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
	err = pipeline.Run(ctx, pipeline.NameItemCF, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
	stop()

	if cfg.Metrics.Textfile != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logging.Error().Err(werr).Msg("Failed to write metrics textfile")
		}
	}

	if err != nil {
		logging.Fatal().Err(err).Msg("Item CF pipeline failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Events.Path == "" {
		return errNoEventsPath
	}

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
		Required: pipeline.RequiredColumns([]string{recommend.ColumnID}),
		Mode:     database.Strict,
	}, cfg.Events.Path)

	res, err := pipeline.RunItemCF(ctx, src, pipeline.ItemCFOptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	user := res.User
	return printer.Print(&report.Result{
		Pipeline: pipeline.NameItemCF,
		User:     &user,
		Items:    report.Rows(res.Products, res.Items),
	})
}
