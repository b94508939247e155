// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

// Package database loads catalog and event CSV exports through DuckDB.
//
// # Overview
//
// Files are read with DuckDB's read_csv table function using header
// detection and all_varchar, so every cell arrives as text exactly as it
// appears in the export. Event logs are aggregated in SQL before they reach
// Go.
//
// Files:
//   - database.go: connection lifecycle
//   - database_utils.go: context timeouts and CSV source helpers
//   - products.go: catalog loading in strict and lenient modes
//   - events.go: event aggregation into weighted interactions
//   - source.go: recommend.DataProvider implementation
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	src := database.NewSource(db, database.CatalogOptions{
//	    Path:     cfg.Catalog.Path,
//	    Required: cfg.Similar.Fields,
//	    Mode:     database.Strict,
//	}, cfg.Events.Path)
//	products, err := src.Products(ctx)
//
// # Thread Safety
//
// DB wraps a *sql.DB and is safe for concurrent use.
package database
