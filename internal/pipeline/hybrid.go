// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package pipeline

import (
	"context"
	"slices"

	"github.com/rs/zerolog"

	"github.com/tomtom215/catalogrec/internal/config"
	"github.com/tomtom215/catalogrec/internal/logging"
	"github.com/tomtom215/catalogrec/internal/metrics"
	"github.com/tomtom215/catalogrec/internal/recommend"
	"github.com/tomtom215/catalogrec/internal/recommend/algorithms"
	"github.com/tomtom215/catalogrec/internal/recommend/sparse"
	"github.com/tomtom215/catalogrec/internal/recommend/textvec"
)

// Interaction sources reported in HybridResult and metrics.
const (
	SourceEvents    = "events"
	SourceSynthetic = "synthetic"
)

// HybridOptions configures RunHybrid.
type HybridOptions struct {
	// Fields are combined, in order, into item feature text.
	Fields []string

	Vectorizer textvec.Config

	// Users and Density shape the synthetic matrix used when the provider
	// has no interactions.
	Users   int
	Density float64

	// Seed drives synthetic interactions; Model.Seed drives training.
	// Zero selects the default seed for both.
	Seed int64

	// Events reports that the provider reads an event log, so falling back
	// to synthetic interactions is logged as a warning.
	Events bool

	Model algorithms.HybridConfig

	// UserID is the dense user index to recommend for.
	UserID int

	TopN int
}

// HybridOptionsFromConfig maps loaded configuration to HybridOptions.
func HybridOptionsFromConfig(cfg *config.Config) HybridOptions {
	h := cfg.Hybrid
	return HybridOptions{
		Fields:     slices.Clone(h.Fields),
		Vectorizer: vectorizerConfig(&cfg.Vectorizer),
		Users:      h.Users,
		Density:    h.Density,
		Seed:       h.Seed,
		Events:     cfg.Events.Path != "",
		Model: algorithms.HybridConfig{
			Components:   h.Components,
			LearningRate: h.LearningRate,
			Epochs:       h.Epochs,
			NumWorkers:   h.Threads,
			Loss:         h.Loss,
			MaxSampled:   h.MaxSampled,
			BatchSize:    h.BatchSize,
			ItemIdentity: h.ItemIdentity,
			Seed:         h.Seed,
		},
		UserID: h.UserID,
		TopN:   h.TopN,
	}
}

// HybridResult is the outcome of a hybrid run.
type HybridResult struct {
	Products     []recommend.Product
	Vocabulary   []string
	Source       string
	Users        int
	Interactions []recommend.Interaction
	User         int

	// Scores holds the model score of every catalog item for User.
	Scores []float64

	Items []recommend.ScoredItem
}

// RunHybrid trains the hybrid model on the provider's interactions, or on a
// seeded synthetic matrix when it has none, and ranks every item for the
// configured user.
func RunHybrid(ctx context.Context, src recommend.DataProvider, opts HybridOptions) (*HybridResult, error) {
	res := &HybridResult{User: opts.UserID}

	seed := opts.Seed
	if seed == 0 {
		seed = algorithms.DefaultHybridConfig().Seed
	}

	err := stage(ctx, NameHybrid, StageLoad, func(ctx context.Context) error {
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

	err = stage(ctx, NameHybrid, StageInteractions, func(ctx context.Context) error {
		interactions, users, err := src.Interactions(ctx, res.Products)
		if err != nil {
			return err
		}
		res.Source = SourceEvents
		if users == 0 {
			if opts.Events {
				logging.Ctx(ctx).Warn().
					Int("users", opts.Users).
					Float64("density", opts.Density).
					Msg("No events matched the catalog, using synthetic interactions")
			}
			m := algorithms.GenerateInteractions(opts.Users, len(res.Products), opts.Density, seed)
			interactions, users = m.Interactions(), m.Users()
			res.Source = SourceSynthetic
		}
		res.Interactions, res.Users = interactions, users

		metrics.SetInteractions(res.Source, len(interactions), users)
		logging.Ctx(ctx).Info().
			Str("source", res.Source).
			Int("users", users).
			Int("items", len(res.Products)).
			Int("interactions", len(interactions)).
			Msg("Interaction matrix ready")
		return nil
	})
	if err != nil {
		return nil, err
	}

	var features *sparse.CSR
	err = stage(ctx, NameHybrid, StageVectorize, func(ctx context.Context) error {
		m, vocab, err := vectorize(ctx, NameHybrid, opts.Vectorizer, res.Products, opts.Fields)
		if err != nil {
			return err
		}
		features, res.Vocabulary = m, vocab
		return nil
	})
	if err != nil {
		return nil, err
	}

	modelCfg := opts.Model
	if modelCfg.Loss == "" {
		modelCfg.Loss = algorithms.DefaultHybridConfig().Loss
	}
	if modelCfg.Seed == 0 {
		modelCfg.Seed = seed
	}

	var model *algorithms.Hybrid
	err = stage(ctx, NameHybrid, StageTrain, func(ctx context.Context) error {
		modelCfg.OnEpoch = func(s algorithms.EpochStats) {
			mean := 0.0
			if s.Positives > 0 {
				mean = s.Loss / float64(s.Positives)
			}
			metrics.RecordEpoch(modelCfg.Loss, s.Updates, mean, s.Duration)
			if !logging.IsLevelEnabled(zerolog.DebugLevel) {
				return
			}
			logging.Ctx(ctx).Debug().
				Int("epoch", s.Epoch).
				Int("updates", s.Updates).
				Float64("loss", mean).
				Dur("elapsed", s.Duration).
				Msg("Epoch finished")
		}
		model = algorithms.NewHybrid(modelCfg)

		if err := model.Train(ctx, res.Users, res.Interactions, features); err != nil {
			return err
		}
		logging.Ctx(ctx).Info().
			Str("loss", modelCfg.Loss).
			Int("epochs", modelCfg.Epochs).
			Int("components", modelCfg.Components).
			Msg("Hybrid model trained")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = stage(ctx, NameHybrid, StageRank, func(ctx context.Context) error {
		scores, err := model.Predict(ctx, opts.UserID)
		if err != nil {
			return err
		}
		res.Scores = scores
		res.Items = recommend.TopN(scores, opts.TopN, nil)
		logging.Ctx(ctx).Info().
			Int("user", opts.UserID).
			Ints("indices", recommend.Indices(res.Items)).
			Msg("Recommendations ranked")
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
