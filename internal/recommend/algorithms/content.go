// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package algorithms

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/catalogrec/internal/recommend"
	"github.com/tomtom215/catalogrec/internal/recommend/sparse"
)

// ContentConfig contains configuration for content similarity.
type ContentConfig struct {
	// NumWorkers is the number of goroutines filling similarity rows.
	// If <= 0, defaults to 4.
	NumWorkers int
}

// DefaultContentConfig returns default content similarity configuration.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{NumWorkers: 4}
}

// ContentSimilarity answers "more like this" queries from a dense cosine
// similarity matrix built over item feature rows.
//
//	sim(a, b) = (x_a . x_b) / (||x_a|| * ||x_b||)
//
// Rows with no features have similarity 0 to everything, themselves included.
type ContentSimilarity struct {
	BaseAlgorithm
	config ContentConfig

	sim [][]float64
}

// NewContentSimilarity creates a content similarity model.
func NewContentSimilarity(cfg ContentConfig) *ContentSimilarity {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}
	return &ContentSimilarity{
		BaseAlgorithm: NewBaseAlgorithm("content_similarity"),
		config:        cfg,
	}
}

// Fit computes the similarity matrix for the given feature rows.
func (c *ContentSimilarity) Fit(ctx context.Context, features *sparse.CSR) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	sim, err := CosineMatrix(ctx, features, c.config.NumWorkers)
	if err != nil {
		return err
	}
	c.sim = sim
	c.markTrained()
	return nil
}

// Matrix returns the fitted similarity matrix. Callers must not modify it.
func (c *ContentSimilarity) Matrix() [][]float64 {
	c.acquirePredictLock()
	defer c.releasePredictLock()
	return c.sim
}

// Similar returns the n rows most similar to query, excluding query itself.
func (c *ContentSimilarity) Similar(ctx context.Context, query, n int) ([]recommend.ScoredItem, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}
	if !c.trained {
		return nil, recommend.ErrNotTrained
	}
	return recommend.TopSimilar(c.sim, query, n)
}

// CosineMatrix builds the dense rows x rows cosine similarity matrix of m.
// Rows are split across workers; each worker writes only its own rows so the
// result does not depend on the worker count.
func CosineMatrix(ctx context.Context, m *sparse.CSR, workers int) ([][]float64, error) {
	n := m.Rows()
	norms := make([]float64, n)
	for i := range norms {
		norms[i] = m.RowNorm(i)
	}

	sim := make([][]float64, n)
	g, gctx := errgroup.WithContext(ctx)
	for _, span := range chunks(n, workers) {
		g.Go(func() error {
			for i := span[0]; i < span[1]; i++ {
				if ContextCancelled(gctx) {
					return gctx.Err()
				}
				row := make([]float64, n)
				if norms[i] != 0 {
					for j := 0; j < n; j++ {
						if norms[j] == 0 {
							continue
						}
						row[j] = m.Dot(i, m, j) / (norms[i] * norms[j])
					}
				}
				sim[i] = row
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cosine matrix: %w", err)
	}
	return sim, nil
}
