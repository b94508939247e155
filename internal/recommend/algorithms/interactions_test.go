// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package algorithms

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/catalogrec/internal/recommend"
)

func TestGenerateInteractionsDeterministic(t *testing.T) {
	t.Parallel()

	a := GenerateInteractions(100, 50, 0.05, 42)
	b := GenerateInteractions(100, 50, 0.05, 42)
	if !bytes.Equal(a.Dense(), b.Dense()) {
		t.Error("same seed produced different matrices")
	}

	c := GenerateInteractions(100, 50, 0.05, 7)
	if bytes.Equal(a.Dense(), c.Dense()) {
		t.Error("different seeds produced identical matrices")
	}

	if a.Users() != 100 || a.Items() != 50 || len(a.Dense()) != 5000 {
		t.Errorf("shape = %dx%d (%d cells)", a.Users(), a.Items(), len(a.Dense()))
	}
}

func TestGenerateInteractionsProbability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    float64
		want func(count, cells int) bool
	}{
		{"never", 0, func(c, _ int) bool { return c == 0 }},
		{"always", 1, func(c, n int) bool { return c == n }},
		{"density", 0.05, func(c, n int) bool {
			return math.Abs(float64(c)/float64(n)-0.05) < 0.01
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := GenerateInteractions(200, 100, tt.p, 42)
			if !tt.want(m.Count(), 200*100) {
				t.Errorf("Count() = %d for p=%v", m.Count(), tt.p)
			}
		})
	}
}

func TestInteractionMatrixDenseIsCopy(t *testing.T) {
	t.Parallel()

	m := GenerateInteractions(2, 2, 1, 1)
	d := m.Dense()
	d[0] = 0
	if !m.Has(0, 0) {
		t.Error("modifying Dense() result changed the matrix")
	}
}

func TestNewInteractionMatrix(t *testing.T) {
	t.Parallel()

	m, err := NewInteractionMatrix(2, 3, []recommend.Interaction{
		{User: 1, Item: 2, Weight: 5},
		{User: 0, Item: 1, Weight: 1},
		{User: 0, Item: 0, Weight: 0},
	})
	if err != nil {
		t.Fatalf("NewInteractionMatrix() error = %v", err)
	}
	if !m.Has(1, 2) || !m.Has(0, 1) || m.Has(0, 0) {
		t.Errorf("cells = %v", m.Dense())
	}

	got := m.Interactions()
	want := []recommend.Interaction{{User: 0, Item: 1, Weight: 1}, {User: 1, Item: 2, Weight: 1}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Interactions() = %v, want %v", got, want)
	}

	_, err = NewInteractionMatrix(2, 3, []recommend.Interaction{{User: 0, Item: 3, Weight: 1}})
	if !errors.Is(err, recommend.ErrDimensionMismatch) {
		t.Errorf("out of range error = %v, want ErrDimensionMismatch", err)
	}
}
