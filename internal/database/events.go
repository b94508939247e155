// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package database

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/catalogrec/internal/logging"
	"github.com/tomtom215/catalogrec/internal/metrics"
	"github.com/tomtom215/catalogrec/internal/recommend"
)

// Event log columns.
const (
	ColumnUserID    = "user_id"
	ColumnProductID = "product_id"
	ColumnEvent     = "event"
)

// eventCountsQuery aggregates raw events per user, product and event type.
// Rows missing a user or product are dropped; event names are normalized.
const eventCountsQuery = `
	SELECT
		trim(user_id) AS user_id,
		trim(product_id) AS product_id,
		lower(trim(coalesce(event, ''))) AS event,
		COUNT(*) AS n
	FROM %s
	WHERE user_id IS NOT NULL AND trim(user_id) <> ''
	  AND product_id IS NOT NULL AND trim(product_id) <> ''
	GROUP BY 1, 2, 3
	ORDER BY 1, 2, 3
`

// LoadInteractions aggregates an event log into weighted interactions
// against products. Each event contributes its EventType weight. Product ids
// are matched to the catalog ID column; events for unknown products are
// skipped. Users with at least one matched event are numbered densely in
// sorted user_id order, and that count is returned alongside.
func (db *DB) LoadInteractions(ctx context.Context, path string, products []recommend.Product) (_ []recommend.Interaction, _ int, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("load_events", time.Since(start), err)
	}()

	cols, err := db.csvColumns(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	for _, req := range []string{ColumnUserID, ColumnProductID, ColumnEvent} {
		if !slices.Contains(cols, req) {
			return nil, 0, &recommend.MissingColumnError{Column: req}
		}
	}

	itemIndex := make(map[string]int, len(products))
	for i, p := range products {
		if p.ID == "" {
			continue
		}
		if _, dup := itemIndex[p.ID]; !dup {
			itemIndex[p.ID] = i
		}
	}

	src, err := csvSource(path)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(eventCountsQuery, src))
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate events %s: %w", path, err)
	}
	defer closeWithLog(rows, "event rows")

	type cell struct{ user, item int }
	weights := make(map[cell]float64)
	var order []cell
	userIndex := make(map[string]int)
	skipped := 0

	for rows.Next() {
		var (
			userID, productID, event string
			count                    int64
		)
		if err := rows.Scan(&userID, &productID, &event, &count); err != nil {
			return nil, 0, fmt.Errorf("scan event row: %w", err)
		}

		item, ok := itemIndex[productID]
		if !ok {
			skipped += int(count)
			continue
		}

		// Rows arrive sorted by user_id, so first sight order is sorted order.
		user, seen := userIndex[userID]
		if !seen {
			user = len(userIndex)
			userIndex[userID] = user
		}

		c := cell{user, item}
		if _, exists := weights[c]; !exists {
			order = append(order, c)
		}
		weights[c] += float64(count) * recommend.EventType(event).Weight()
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate event rows: %w", err)
	}

	slices.SortFunc(order, func(a, b cell) int {
		if a.user != b.user {
			return a.user - b.user
		}
		return a.item - b.item
	})

	interactions := make([]recommend.Interaction, len(order))
	for i, c := range order {
		interactions[i] = recommend.Interaction{User: c.user, Item: c.item, Weight: weights[c]}
	}

	if skipped > 0 {
		logging.Warn().Int("events", skipped).Str("path", path).Msg("Skipped events for products not in catalog")
	}

	return interactions, len(userIndex), nil
}
