// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package algorithms

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/tomtom215/catalogrec/internal/recommend"
	"github.com/tomtom215/catalogrec/internal/recommend/sparse"
)

// ItemKNNConfig contains configuration for item-based collaborative filtering.
type ItemKNNConfig struct {
	// K caps the neighbours kept per item. Zero keeps every item with a
	// non-zero similarity.
	K int

	// MinSimilarity drops neighbours whose similarity is below it.
	MinSimilarity float64

	// NumWorkers is the number of goroutines filling similarity rows.
	// If <= 0, defaults to 4.
	NumWorkers int
}

// DefaultItemKNNConfig returns default item CF configuration: every
// co-interacted item is a neighbour.
func DefaultItemKNNConfig() ItemKNNConfig {
	return ItemKNNConfig{NumWorkers: 4}
}

// neighbor is a similar item with its similarity score.
type neighbor struct {
	ID         int
	Similarity float64
}

// ItemKNN implements item-based collaborative filtering over weighted
// interactions. Items are vectors over users and compared by cosine.
//
// For a user u and an item i that u has not interacted with:
//
//	score(u, i) = sum_{j in R(u)} sim(i, j) * r(u, j) / sum_{j in R(u)} |sim(i, j)|
//
// where R(u) are the items u interacted with. Items whose similarity sum is
// zero get no score and are never recommended.
type ItemKNN struct {
	BaseAlgorithm
	config ItemKNNConfig

	numUsers int
	numItems int

	// ratings holds the summed weight of every (user, item) pair.
	ratings *sparse.CSR

	// neighbors lists, per item, other items by descending similarity.
	neighbors [][]neighbor
}

// NewItemKNN creates an item-based CF model.
func NewItemKNN(cfg ItemKNNConfig) *ItemKNN {
	if cfg.K < 0 {
		cfg.K = 0
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}
	return &ItemKNN{
		BaseAlgorithm: NewBaseAlgorithm("itemcf"),
		config:        cfg,
	}
}

// Train builds the item-item similarity neighbourhoods. Repeated
// (user, item) pairs are summed.
func (m *ItemKNN) Train(ctx context.Context, users, items int, interactions []recommend.Interaction) error {
	m.acquireTrainLock()
	defer m.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	byUser := make([][]sparse.Entry, users)
	byItem := make([][]sparse.Entry, items)
	for _, in := range interactions {
		if in.User < 0 || in.User >= users || in.Item < 0 || in.Item >= items {
			return fmt.Errorf("interaction (%d, %d) outside %dx%d: %w",
				in.User, in.Item, users, items, recommend.ErrDimensionMismatch)
		}
		byUser[in.User] = append(byUser[in.User], sparse.Entry{Col: in.Item, Value: in.Weight})
		byItem[in.Item] = append(byItem[in.Item], sparse.Entry{Col: in.User, Value: in.Weight})
	}

	ratings, err := buildRows(items, byUser)
	if err != nil {
		return err
	}
	itemVecs, err := buildRows(users, byItem)
	if err != nil {
		return err
	}

	sim, err := CosineMatrix(ctx, itemVecs, m.config.NumWorkers)
	if err != nil {
		return err
	}

	neighbors := make([][]neighbor, items)
	for i, row := range sim {
		neighbors[i] = m.selectNeighbors(i, row)
	}

	m.numUsers, m.numItems = users, items
	m.ratings = ratings
	m.neighbors = neighbors
	m.markTrained()
	return nil
}

// selectNeighbors keeps the non-zero similarities of row i that pass the
// threshold, most similar first, capped at K.
func (m *ItemKNN) selectNeighbors(i int, row []float64) []neighbor {
	var out []neighbor
	for j, s := range row {
		if j == i || s == 0 || s < m.config.MinSimilarity {
			continue
		}
		out = append(out, neighbor{ID: j, Similarity: s})
	}
	slices.SortStableFunc(out, func(a, b neighbor) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if m.config.K > 0 && len(out) > m.config.K {
		out = out[:m.config.K]
	}
	return out
}

// buildRows turns per-row entries into a CSR matrix with cols columns.
func buildRows(cols int, rows [][]sparse.Entry) (*sparse.CSR, error) {
	b := sparse.NewBuilder(cols)
	for _, r := range rows {
		if err := b.AddRow(r); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Predict scores every item the user has not interacted with. Items without
// any similarity to the user's history are absent from the result.
func (m *ItemKNN) Predict(ctx context.Context, user int) (map[int]float64, error) {
	m.acquirePredictLock()
	defer m.releasePredictLock()
	return m.predict(ctx, user)
}

// Recommend returns the n best-scored unseen items for the user. Equal
// scores keep item order.
func (m *ItemKNN) Recommend(ctx context.Context, user, n int) ([]recommend.ScoredItem, error) {
	m.acquirePredictLock()
	defer m.releasePredictLock()

	scores, err := m.predict(ctx, user)
	if err != nil {
		return nil, err
	}

	dense := make([]float64, m.numItems)
	for i, s := range scores {
		dense[i] = s
	}
	return recommend.TopN(dense, n, func(i int) bool {
		_, ok := scores[i]
		return !ok
	}), nil
}

// predict must be called while holding the predict lock.
func (m *ItemKNN) predict(ctx context.Context, user int) (map[int]float64, error) {
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}
	if !m.trained {
		return nil, recommend.ErrNotTrained
	}
	if user < 0 || user >= m.numUsers {
		return nil, fmt.Errorf("user %d of %d: %w", user, m.numUsers, recommend.ErrUnknownUser)
	}

	scores := make(map[int]float64)
	for item := 0; item < m.numItems; item++ {
		if m.ratings.At(user, item) != 0 {
			continue
		}

		var num, den float64
		for _, nb := range m.neighbors[item] {
			r := m.ratings.At(user, nb.ID)
			if r == 0 {
				continue
			}
			num += nb.Similarity * r
			den += math.Abs(nb.Similarity)
		}
		if den > 0 {
			scores[item] = num / den
		}
	}
	return scores, nil
}
