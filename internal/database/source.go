// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package database

import (
	"context"

	"github.com/tomtom215/catalogrec/internal/recommend"
)

// Source serves a catalog file and an optional event file.
type Source struct {
	db         *DB
	catalog    CatalogOptions
	eventsPath string
}

var _ recommend.DataProvider = (*Source)(nil)

// NewSource returns a DataProvider over db. An empty eventsPath means no
// real interactions are available.
func NewSource(db *DB, catalog CatalogOptions, eventsPath string) *Source {
	return &Source{db: db, catalog: catalog, eventsPath: eventsPath}
}

// Products loads the catalog.
func (s *Source) Products(ctx context.Context) ([]recommend.Product, error) {
	return s.db.LoadProducts(ctx, s.catalog)
}

// Interactions loads the event log, or returns nothing when none is configured.
func (s *Source) Interactions(ctx context.Context, products []recommend.Product) ([]recommend.Interaction, int, error) {
	if s.eventsPath == "" {
		return nil, 0, nil
	}
	return s.db.LoadInteractions(ctx, s.eventsPath, products)
}
