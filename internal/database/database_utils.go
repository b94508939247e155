// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"
)

// defaultQueryTimeout applies when the config leaves QueryTimeout unset.
const defaultQueryTimeout = 30 * time.Second

// ensureContext bounds ctx by the configured query timeout unless it
// already carries a deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := defaultQueryTimeout
	if db.cfg != nil && db.cfg.QueryTimeout > 0 {
		timeout = db.cfg.QueryTimeout
	}

	if ctx == nil {
		return context.WithTimeout(context.Background(), timeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// csvSource renders a read_csv call for path. Every column is read as
// VARCHAR so cells reach Go exactly as exported.
//
// The path is inlined as a string literal because DuckDB binds table
// function arguments before parameters are available.
func csvSource(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	return fmt.Sprintf("read_csv(%s, header = true, all_varchar = true)", quoteLiteral(path)), nil
}

// quoteLiteral escapes s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// csvColumns returns the header of a CSV file in file order.
func (db *DB) csvColumns(ctx context.Context, path string) ([]string, error) {
	src, err := csvSource(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, "SELECT * FROM "+src+" LIMIT 0") //nolint:gosec // path is quoted by quoteLiteral
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	defer closeQuietly(rows)

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	return cols, nil
}

// nullString returns "" for NULL cells.
func nullString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}
