// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package pipeline

import (
	"context"
	"errors"

	"github.com/tomtom215/catalogrec/internal/config"
	"github.com/tomtom215/catalogrec/internal/logging"
	"github.com/tomtom215/catalogrec/internal/metrics"
	"github.com/tomtom215/catalogrec/internal/recommend"
	"github.com/tomtom215/catalogrec/internal/recommend/algorithms"
)

// ErrNoInteractions is returned when item CF has no events to learn from.
var ErrNoInteractions = errors.New("no interactions matched the catalog")

// ItemCFOptions configures RunItemCF.
type ItemCFOptions struct {
	Model algorithms.ItemKNNConfig

	// UserID is the dense user index to recommend for.
	UserID int

	TopN int
}

// ItemCFOptionsFromConfig maps loaded configuration to ItemCFOptions.
func ItemCFOptionsFromConfig(cfg *config.Config) ItemCFOptions {
	c := cfg.ItemCF
	return ItemCFOptions{
		Model: algorithms.ItemKNNConfig{
			K:             c.Neighbors,
			MinSimilarity: c.MinSimilarity,
			NumWorkers:    c.Workers,
		},
		UserID: c.UserID,
		TopN:   c.TopN,
	}
}

// ItemCFResult is the outcome of an item CF run.
type ItemCFResult struct {
	Products     []recommend.Product
	Users        int
	Interactions []recommend.Interaction
	User         int
	Items        []recommend.ScoredItem
}

// RunItemCF recommends unseen products for one user from the item-item
// cosine similarity of weighted event vectors.
func RunItemCF(ctx context.Context, src recommend.DataProvider, opts ItemCFOptions) (*ItemCFResult, error) {
	res := &ItemCFResult{User: opts.UserID}

	err := stage(ctx, NameItemCF, StageLoad, func(ctx context.Context) error {
		products, err := loadProducts(ctx, src)
		if err != nil {
			return err
		}
		res.Products = products
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = stage(ctx, NameItemCF, StageInteractions, func(ctx context.Context) error {
		interactions, users, err := src.Interactions(ctx, res.Products)
		if err != nil {
			return err
		}
		if users == 0 {
			return ErrNoInteractions
		}
		res.Interactions, res.Users = interactions, users

		metrics.SetInteractions(SourceEvents, len(interactions), users)
		logging.Ctx(ctx).Info().
			Int("users", users).
			Int("items", len(res.Products)).
			Int("interactions", len(interactions)).
			Msg("Interaction matrix ready")
		return nil
	})
	if err != nil {
		return nil, err
	}

	model := algorithms.NewItemKNN(opts.Model)
	err = stage(ctx, NameItemCF, StageSimilarity, func(ctx context.Context) error {
		if err := model.Train(ctx, res.Users, len(res.Products), res.Interactions); err != nil {
			return err
		}
		logging.Ctx(ctx).Info().
			Int("neighbors", opts.Model.K).
			Float64("min_similarity", opts.Model.MinSimilarity).
			Msg("Item similarity computed")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = stage(ctx, NameItemCF, StageRank, func(ctx context.Context) error {
		items, err := model.Recommend(ctx, opts.UserID, opts.TopN)
		if err != nil {
			return err
		}
		res.Items = items
		logging.Ctx(ctx).Info().
			Int("user", opts.UserID).
			Ints("indices", recommend.Indices(items)).
			Msg("Recommendations ranked")
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
