// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package recommend

import "strings"

// ContentFields is the field order used by the content-similarity pipeline.
// Every field is required to exist in the catalog.
var ContentFields = []string{
	ColumnTitle,
	ColumnDescription,
	ColumnBrand,
	ColumnModel,
	ColumnMaterial,
	ColumnBrandOrigin,
	ColumnOrigin,
	ColumnOtherDetails,
}

// HybridFields is the field order used by the hybrid pipeline.
// Absent fields fall back to empty strings.
var HybridFields = []string{
	ColumnTitle,
	ColumnDescription,
	ColumnBrand,
	ColumnModel,
	ColumnMaterial,
}

// CombineText joins the given fields of a product with single spaces.
// Missing fields contribute an empty string, so the result always contains
// at least len(fields)-1 separators.
//
//nolint:gocritic // Product passed by value, rows are small
func CombineText(p Product, fields []string) string {
	var b strings.Builder
	for i, name := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.Field(name))
	}
	return b.String()
}

// CombineAll builds the combined text for every product.
func CombineAll(products []Product, fields []string) []string {
	docs := make([]string, len(products))
	for i := range products {
		docs[i] = CombineText(products[i], fields)
	}
	return docs
}
