// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/tomtom215/catalogrec/internal/config"
	"github.com/tomtom215/catalogrec/internal/logging"
	"github.com/tomtom215/catalogrec/internal/recommend"
	"github.com/tomtom215/catalogrec/internal/recommend/algorithms"
	"github.com/tomtom215/catalogrec/internal/recommend/sparse"
	"github.com/tomtom215/catalogrec/internal/recommend/textvec"
)

// SimilarOptions configures RunSimilar.
type SimilarOptions struct {
	// Fields are combined, in order, into the text of each product.
	Fields []string

	Vectorizer textvec.Config

	// QueryIndex is the catalog row to find neighbours for.
	QueryIndex int

	// TopN is the number of neighbours to return.
	TopN int

	// Workers fill similarity rows in parallel.
	Workers int
}

// SimilarOptionsFromConfig maps loaded configuration to SimilarOptions.
func SimilarOptionsFromConfig(cfg *config.Config) SimilarOptions {
	return SimilarOptions{
		Fields:     slices.Clone(cfg.Similar.Fields),
		Vectorizer: vectorizerConfig(&cfg.Vectorizer),
		QueryIndex: cfg.Similar.QueryIndex,
		TopN:       cfg.Similar.TopN,
		Workers:    cfg.Similar.Workers,
	}
}

// SimilarResult is the outcome of a content-similarity run.
type SimilarResult struct {
	Products   []recommend.Product
	Vocabulary []string
	Query      int
	Items      []recommend.ScoredItem
}

// RunSimilar finds the products whose combined text is closest to the query
// row by TF-IDF cosine similarity. The query row itself is never returned.
func RunSimilar(ctx context.Context, src recommend.DataProvider, opts SimilarOptions) (*SimilarResult, error) {
	res := &SimilarResult{Query: opts.QueryIndex}

	err := stage(ctx, NameSimilar, StageLoad, func(ctx context.Context) error {
		products, err := loadProducts(ctx, src)
		if err != nil {
			return err
		}
		if opts.QueryIndex < 0 || opts.QueryIndex >= len(products) {
			return fmt.Errorf("query index %d with %d products: %w",
				opts.QueryIndex, len(products), recommend.ErrIndexOutOfRange)
		}
		res.Products = products
		return nil
	})
	if err != nil {
		return nil, err
	}

	var matrix *sparse.CSR
	err = stage(ctx, NameSimilar, StageVectorize, func(ctx context.Context) error {
		m, vocab, err := vectorize(ctx, NameSimilar, opts.Vectorizer, res.Products, opts.Fields)
		if err != nil {
			return err
		}
		matrix, res.Vocabulary = m, vocab
		return nil
	})
	if err != nil {
		return nil, err
	}

	model := algorithms.NewContentSimilarity(algorithms.ContentConfig{NumWorkers: opts.Workers})
	err = stage(ctx, NameSimilar, StageSimilarity, func(ctx context.Context) error {
		if err := model.Fit(ctx, matrix); err != nil {
			return err
		}
		n := matrix.Rows()
		logging.Ctx(ctx).Info().Int("rows", n).Int("cols", n).Msg("Cosine similarity matrix built")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = stage(ctx, NameSimilar, StageRank, func(ctx context.Context) error {
		items, err := model.Similar(ctx, opts.QueryIndex, opts.TopN)
		if err != nil {
			return err
		}
		res.Items = items
		logging.Ctx(ctx).Info().
			Int("query", opts.QueryIndex).
			Ints("indices", recommend.Indices(items)).
			Msg("Similar products ranked")
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
