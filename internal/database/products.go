// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/catalogrec/internal/metrics"
	"github.com/tomtom215/catalogrec/internal/recommend"
)

// CatalogMode controls how absent columns are treated.
type CatalogMode int

const (
	// Strict fails on the first required column missing from the header.
	Strict CatalogMode = iota

	// Lenient treats missing columns as empty strings.
	Lenient
)

// CatalogOptions describes a catalog export to load.
type CatalogOptions struct {
	// Path is the catalog CSV file.
	Path string

	// Required lists columns that must exist in Strict mode.
	Required []string

	// Mode selects Strict or Lenient handling of absent columns.
	Mode CatalogMode
}

// LoadProducts reads the catalog in file order. NULL cells become "".
//
// In Strict mode the first required column absent from the header, in
// Required order, is reported as a *recommend.MissingColumnError.
func (db *DB) LoadProducts(ctx context.Context, opts CatalogOptions) (products []recommend.Product, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("load_catalog", time.Since(start), err)
	}()

	cols, err := db.csvColumns(ctx, opts.Path)
	if err != nil {
		return nil, err
	}

	if opts.Mode == Strict {
		for _, req := range opts.Required {
			if !slices.Contains(cols, req) {
				return nil, &recommend.MissingColumnError{Column: req}
			}
		}
	}

	src, err := csvSource(opts.Path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, "SELECT * FROM "+src) //nolint:gosec // path is quoted by quoteLiteral
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", opts.Path, err)
	}
	defer closeWithLog(rows, "catalog rows")

	cells := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan catalog row %d: %w", len(products), err)
		}

		fields := make(map[string]string, len(cols))
		for i, c := range cols {
			fields[c] = nullString(cells[i])
		}
		products = append(products, recommend.Product{
			ID:     fields[recommend.ColumnID],
			Title:  fields[recommend.ColumnTitle],
			Price:  fields[recommend.ColumnPrice],
			Fields: fields,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}

	return products, nil
}
