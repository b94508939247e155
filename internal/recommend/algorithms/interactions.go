// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package algorithms

import (
	"fmt"
	"math/rand"

	"github.com/tomtom215/catalogrec/internal/recommend"
)

// InteractionMatrix is a binary users x items matrix.
type InteractionMatrix struct {
	users, items int
	cells        []byte
}

// NewInteractionMatrix builds a matrix from aggregated interactions.
// Any positive weight sets the cell.
func NewInteractionMatrix(users, items int, interactions []recommend.Interaction) (*InteractionMatrix, error) {
	m := &InteractionMatrix{users: users, items: items, cells: make([]byte, users*items)}
	for _, in := range interactions {
		if in.User < 0 || in.User >= users || in.Item < 0 || in.Item >= items {
			return nil, fmt.Errorf("interaction (%d, %d) outside %dx%d: %w",
				in.User, in.Item, users, items, recommend.ErrDimensionMismatch)
		}
		if in.Weight > 0 {
			m.cells[in.User*items+in.Item] = 1
		}
	}
	return m, nil
}

// GenerateInteractions draws one Bernoulli(p) sample per cell in row-major
// order from a source seeded with seed. It stands in for real interaction
// logs; equal arguments always produce the same matrix.
func GenerateInteractions(users, items int, p float64, seed int64) *InteractionMatrix {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible synthetic data, not security sensitive
	m := &InteractionMatrix{users: users, items: items, cells: make([]byte, users*items)}
	for k := range m.cells {
		if rng.Float64() < p {
			m.cells[k] = 1
		}
	}
	return m
}

// Users returns the row count.
func (m *InteractionMatrix) Users() int { return m.users }

// Items returns the column count.
func (m *InteractionMatrix) Items() int { return m.items }

// Has reports whether user u interacted with item i.
func (m *InteractionMatrix) Has(u, i int) bool {
	return m.cells[u*m.items+i] != 0
}

// Count returns the number of set cells.
func (m *InteractionMatrix) Count() int {
	n := 0
	for _, c := range m.cells {
		n += int(c)
	}
	return n
}

// Dense returns a copy of the row-major cell bytes.
func (m *InteractionMatrix) Dense() []byte {
	out := make([]byte, len(m.cells))
	copy(out, m.cells)
	return out
}

// Interactions lists the set cells in row-major order with weight 1.
func (m *InteractionMatrix) Interactions() []recommend.Interaction {
	out := make([]recommend.Interaction, 0, m.Count())
	for u := 0; u < m.users; u++ {
		for i := 0; i < m.items; i++ {
			if m.Has(u, i) {
				out = append(out, recommend.Interaction{User: u, Item: i, Weight: 1})
			}
		}
	}
	return out
}
