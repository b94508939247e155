// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

// Package report prints ranked products as a console table or JSON.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/tomtom215/catalogrec/internal/recommend"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ErrUnknownFormat is returned by New for anything but table or json.
var ErrUnknownFormat = errors.New("unknown output format")

// maxTitleRunes truncates titles in table output only.
const maxTitleRunes = 60

// Row is one ranked product.
type Row struct {
	Rank  int     `json:"rank"`
	Index int     `json:"index"`
	ID    string  `json:"id,omitempty"`
	Title string  `json:"title"`
	Price string  `json:"price"`
	Score float64 `json:"score"`
}

// Result is the printable outcome of a pipeline run.
type Result struct {
	// Pipeline is "similar", "hybrid" or "itemcf".
	Pipeline string `json:"pipeline"`

	// Query is the catalog row similar products were found for.
	Query *Row `json:"query,omitempty"`

	// User is the dense user index recommendations were made for.
	User *int `json:"user,omitempty"`

	Items []Row `json:"items"`
}

// Rows joins ranked items with their catalog rows. Ranks start at 1.
func Rows(products []recommend.Product, items []recommend.ScoredItem) []Row {
	rows := make([]Row, 0, len(items))
	for i, it := range items {
		row := Row{Rank: i + 1, Index: it.Index, Score: it.Score}
		if it.Index >= 0 && it.Index < len(products) {
			p := products[it.Index]
			row.ID, row.Title, row.Price = p.ID, p.Title, p.Price
		}
		rows = append(rows, row)
	}
	return rows
}

// QueryRow describes the catalog row at index as an unranked query.
func QueryRow(products []recommend.Product, index int) *Row {
	if index < 0 || index >= len(products) {
		return nil
	}
	p := products[index]
	return &Row{Index: index, ID: p.ID, Title: p.Title, Price: p.Price, Score: 1}
}

// Printer writes results in one format.
type Printer struct {
	w      io.Writer
	format string
}

// New returns a Printer for format.
func New(w io.Writer, format string) (*Printer, error) {
	switch format {
	case FormatTable, FormatJSON:
		return &Printer{w: w, format: format}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Print writes r.
func (p *Printer) Print(r *Result) error {
	if p.format == FormatJSON {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		return nil
	}
	return p.printTable(r)
}

func (p *Printer) printTable(r *Result) error {
	var heading string
	switch {
	case r.Query != nil:
		heading = fmt.Sprintf("Top %d products similar to #%d %s", len(r.Items), r.Query.Index, r.Query.Title)
	case r.User != nil:
		heading = fmt.Sprintf("Top %d recommendations for user %d", len(r.Items), *r.User)
	default:
		heading = fmt.Sprintf("Top %d products", len(r.Items))
	}
	if _, err := fmt.Fprintln(p.w, heading); err != nil {
		return fmt.Errorf("write heading: %w", err)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tINDEX\tTITLE\tPRICE\tSCORE")
	for _, row := range r.Items {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.6f\n", row.Rank, row.Index, cleanCell(row.Title), cleanCell(row.Price), row.Score)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

// cleanCell keeps table cells on one line and bounded in width.
func cleanCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if runes := []rune(s); len(runes) > maxTitleRunes {
		s = string(runes[:maxTitleRunes-1]) + "…"
	}
	return s
}
