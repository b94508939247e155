// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

// Package sparse provides a compressed sparse row matrix used for TF-IDF
// features and item feature lookups during training.
package sparse

import (
	"fmt"
	"math"
	"slices"
)

// Entry is a single stored value of a row.
type Entry struct {
	Col   int
	Value float64
}

// CSR is an immutable compressed sparse row matrix. Columns within a row are
// strictly increasing.
type CSR struct {
	rows, cols int
	indptr     []int
	indices    []int
	values     []float64
}

// Rows returns the number of rows.
func (m *CSR) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *CSR) Cols() int { return m.cols }

// NNZ returns the number of stored values.
func (m *CSR) NNZ() int { return len(m.values) }

// Row returns the column indices and values of row i. The slices alias the
// matrix storage and must not be modified.
func (m *CSR) Row(i int) (cols []int, vals []float64) {
	lo, hi := m.indptr[i], m.indptr[i+1]
	return m.indices[lo:hi], m.values[lo:hi]
}

// At returns the value at (i, j), zero when not stored.
func (m *CSR) At(i, j int) float64 {
	cols, vals := m.Row(i)
	if k, ok := slices.BinarySearch(cols, j); ok {
		return vals[k]
	}
	return 0
}

// RowNorm returns the Euclidean norm of row i.
func (m *CSR) RowNorm(i int) float64 {
	_, vals := m.Row(i)
	var sum float64
	for _, v := range vals {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of row i of m and row j of o. Both matrices
// must have the same column count.
func (m *CSR) Dot(i int, o *CSR, j int) float64 {
	ac, av := m.Row(i)
	bc, bv := o.Row(j)

	var sum float64
	for x, y := 0, 0; x < len(ac) && y < len(bc); {
		switch {
		case ac[x] == bc[y]:
			sum += av[x] * bv[y]
			x++
			y++
		case ac[x] < bc[y]:
			x++
		default:
			y++
		}
	}
	return sum
}

// Dense expands the matrix into row-major nested slices.
func (m *CSR) Dense() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = make([]float64, m.cols)
		cols, vals := m.Row(i)
		for k, c := range cols {
			out[i][c] = vals[k]
		}
	}
	return out
}

// Builder accumulates rows in order and produces a CSR matrix.
type Builder struct {
	cols    int
	indptr  []int
	indices []int
	values  []float64
}

// NewBuilder creates a builder for a matrix with the given column count.
func NewBuilder(cols int) *Builder {
	return &Builder{cols: cols, indptr: []int{0}}
}

// AddRow appends a row. Entries may be unsorted, zero values are dropped
// and duplicate columns are summed.
func (b *Builder) AddRow(entries []Entry) error {
	row := slices.Clone(entries)
	slices.SortStableFunc(row, func(x, y Entry) int { return x.Col - y.Col })

	merged := row[:0]
	for _, e := range row {
		if e.Col < 0 || e.Col >= b.cols {
			return fmt.Errorf("column %d outside [0, %d)", e.Col, b.cols)
		}
		if n := len(merged); n > 0 && merged[n-1].Col == e.Col {
			merged[n-1].Value += e.Value
			continue
		}
		merged = append(merged, e)
	}

	for _, e := range merged {
		if e.Value == 0 {
			continue
		}
		b.indices = append(b.indices, e.Col)
		b.values = append(b.values, e.Value)
	}
	b.indptr = append(b.indptr, len(b.indices))
	return nil
}

// Build returns the matrix. The builder must not be used afterwards.
func (b *Builder) Build() *CSR {
	return &CSR{
		rows:    len(b.indptr) - 1,
		cols:    b.cols,
		indptr:  b.indptr,
		indices: b.indices,
		values:  b.values,
	}
}

// Identity returns the n x n identity matrix.
func Identity(n int) *CSR {
	b := NewBuilder(n)
	for i := 0; i < n; i++ {
		_ = b.AddRow([]Entry{{Col: i, Value: 1}}) //nolint:errcheck // column always in range
	}
	return b.Build()
}

// HStack concatenates matrices with equal row counts side by side.
func HStack(ms ...*CSR) (*CSR, error) {
	if len(ms) == 0 {
		return NewBuilder(0).Build(), nil
	}
	rows := ms[0].rows
	cols := 0
	for _, m := range ms {
		if m.rows != rows {
			return nil, fmt.Errorf("hstack: %d rows vs %d", m.rows, rows)
		}
		cols += m.cols
	}

	b := NewBuilder(cols)
	for i := 0; i < rows; i++ {
		var row []Entry
		offset := 0
		for _, m := range ms {
			c, v := m.Row(i)
			for k := range c {
				row = append(row, Entry{Col: offset + c[k], Value: v[k]})
			}
			offset += m.cols
		}
		if err := b.AddRow(row); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
