// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package recommend

import (
	"cmp"
	"fmt"
	"slices"
)

// TopN returns the n highest scores in descending order. Equal scores keep
// their original index order. Indices for which skip returns true are left
// out. A nil skip keeps everything.
func TopN(scores []float64, n int, skip func(int) bool) []ScoredItem {
	if n <= 0 || len(scores) == 0 {
		return []ScoredItem{}
	}

	ranked := make([]ScoredItem, 0, len(scores))
	for i, s := range scores {
		if skip != nil && skip(i) {
			continue
		}
		ranked = append(ranked, ScoredItem{Index: i, Score: s})
	}

	slices.SortStableFunc(ranked, func(a, b ScoredItem) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopSimilar ranks the other rows of a similarity matrix against the query
// row. The query itself is never returned and at most min(n, rows-1) items
// come back.
func TopSimilar(sim [][]float64, query, n int) ([]ScoredItem, error) {
	if query < 0 || query >= len(sim) {
		return nil, fmt.Errorf("query %d for %d rows: %w", query, len(sim), ErrIndexOutOfRange)
	}

	return TopN(sim[query], n, func(i int) bool { return i == query }), nil
}

// Indices extracts the row indices of ranked items.
func Indices(items []ScoredItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Index
	}
	return out
}

// Scores extracts the scores of ranked items.
func Scores(items []ScoredItem) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = it.Score
	}
	return out
}
