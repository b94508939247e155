// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/catalogrec/internal/config"
	"github.com/tomtom215/catalogrec/internal/logging"
	"github.com/tomtom215/catalogrec/internal/metrics"
	"github.com/tomtom215/catalogrec/internal/recommend"
	"github.com/tomtom215/catalogrec/internal/recommend/sparse"
	"github.com/tomtom215/catalogrec/internal/recommend/textvec"
)

// Pipeline names used in logs and metric labels.
const (
	NameSimilar = "similar"
	NameHybrid  = "hybrid"
	NameItemCF  = "itemcf"
)

// Stage names.
const (
	StageLoad         = "load"
	StageInteractions = "interactions"
	StageVectorize    = "vectorize"
	StageSimilarity   = "similarity"
	StageTrain        = "train"
	StageRank         = "rank"
)

// Run wraps a whole pipeline invocation: it attaches a run ID, logs the
// outcome and counts it in metrics.
func Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if logging.RunIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewRunID(ctx)
	}
	logger := logging.LoggerFromContext(ctx)
	ctx = logging.ContextWithLogger(ctx, logger.With().Str("pipeline", name).Logger())

	start := time.Now()
	logging.Ctx(ctx).Info().Msg("Pipeline started")

	err := fn(ctx)
	metrics.RecordRun(name, err)
	metrics.RecordStage(name, "total", time.Since(start))

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Pipeline failed")
		return err
	}
	logging.Ctx(ctx).Info().Dur("elapsed", time.Since(start)).Msg("Pipeline finished")
	return nil
}

// stage runs one named step with the stage attached to ctx, records its
// duration, and prefixes any error with the stage name.
func stage(ctx context.Context, pipeline, name string, fn func(ctx context.Context) error) error {
	ctx = logging.ContextWithStage(ctx, name)
	start := time.Now()
	logging.Ctx(ctx).Debug().Msg("Stage started")

	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.RecordStage(pipeline, name, elapsed)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	logging.Ctx(ctx).Debug().Dur("elapsed", elapsed).Msg("Stage finished")
	return nil
}

// loadProducts fetches the catalog and records its size.
func loadProducts(ctx context.Context, src recommend.DataProvider) ([]recommend.Product, error) {
	products, err := src.Products(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SetCatalogSize(len(products))
	logging.Ctx(ctx).Info().Int("products", len(products)).Msg("Catalog loaded")
	return products, nil
}

// vectorize builds the TF-IDF matrix over the combined product text.
func vectorize(ctx context.Context, pipeline string, cfg textvec.Config, products []recommend.Product, fields []string) (*sparse.CSR, []string, error) {
	docs := recommend.CombineAll(products, fields)
	matrix, vocab, err := textvec.NewVectorizer(cfg).FitTransform(docs)
	if err != nil {
		return nil, nil, err
	}
	metrics.SetVocabularySize(pipeline, len(vocab))
	logging.Ctx(ctx).Info().
		Int("rows", matrix.Rows()).
		Int("terms", matrix.Cols()).
		Int("nnz", matrix.NNZ()).
		Msg("TF-IDF matrix built")
	return matrix, vocab, nil
}

// RequiredColumns returns the catalog columns a strict load must find for
// the similar pipeline: the text fields plus the printed Title and Price.
func RequiredColumns(fields []string) []string {
	cols := slices.Clone(fields)
	for _, c := range []string{recommend.ColumnTitle, recommend.ColumnPrice} {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// vectorizerConfig converts loaded config to vectorizer settings.
func vectorizerConfig(cfg *config.VectorizerConfig) textvec.Config {
	return textvec.Config{
		MaxFeatures: cfg.MaxFeatures,
		StopWords:   cfg.StopWords,
	}
}
