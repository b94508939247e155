// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package recommend

import (
	"context"
	"errors"
	"fmt"
)

// Catalog column names as exported from the storefront.
const (
	ColumnID           = "ID"
	ColumnTitle        = "Title"
	ColumnDescription  = "Description"
	ColumnPrice        = "Price"
	ColumnBrand        = "Thương hiệu"
	ColumnModel        = "Model"
	ColumnMaterial     = "Chất liệu"
	ColumnBrandOrigin  = "Xuất xứ thương hiệu"
	ColumnOrigin       = "Xuất xứ"
	ColumnOtherDetails = "OtherDetails"
)

// Sentinel errors shared by the recommendation packages.
var (
	// ErrMissingColumn is returned when a required catalog column is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrIndexOutOfRange is returned for a query row outside the catalog.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnknownUser is returned when a user id was not seen during training.
	ErrUnknownUser = errors.New("unknown user")

	// ErrDimensionMismatch is returned when interaction and feature shapes disagree.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNotTrained is returned when a model is queried before training.
	ErrNotTrained = errors.New("model not trained")
)

// MissingColumnError names the catalog column that was not found.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q does not exist in the catalog CSV", e.Column)
}

// Unwrap lets errors.Is match ErrMissingColumn.
func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}

// Product is a single catalog row. Its position in the catalog slice is its
// item id throughout both pipelines.
type Product struct {
	// ID is the storefront document id, empty when the catalog has no ID column.
	ID string `json:"id,omitempty"`

	// Title is the product title.
	Title string `json:"title"`

	// Price is the raw price cell, printed as-is.
	Price string `json:"price"`

	// Fields holds every text column of the row keyed by column name.
	// Missing or NULL cells are stored as empty strings.
	Fields map[string]string `json:"-"`
}

// Field returns the named column value or "" when absent.
//
//nolint:gocritic // Product passed by value, rows are small
func (p Product) Field(name string) string {
	if p.Fields == nil {
		return ""
	}
	return p.Fields[name]
}

// EventType classifies a storefront user event.
type EventType string

const (
	// EventPurchase is a completed order line.
	EventPurchase EventType = "purchase"
	// EventAddToCart is an add-to-cart action.
	EventAddToCart EventType = "add_to_cart"
	// EventProductView is a navigation to a product detail page.
	EventProductView EventType = "navigate_to_product_detail"
)

// Weight returns the implicit-feedback weight for the event.
// Unknown events count as a view.
func (t EventType) Weight() float64 {
	switch t {
	case EventPurchase:
		return 5
	case EventAddToCart:
		return 3
	default:
		return 1
	}
}

// Interaction is an aggregated user-item signal with dense indices.
type Interaction struct {
	// User is the dense user index.
	User int `json:"user"`

	// Item is the catalog row index.
	Item int `json:"item"`

	// Weight is the summed event weight (1 for synthetic interactions).
	Weight float64 `json:"weight"`
}

// ScoredItem is a ranked catalog row.
type ScoredItem struct {
	// Index is the catalog row index.
	Index int `json:"index"`

	// Score is the similarity or model score.
	Score float64 `json:"score"`
}

// DataProvider supplies the catalog and, for the hybrid pipeline, real
// interactions. It is implemented by the database package.
type DataProvider interface {
	// Products returns the catalog in file order.
	Products(ctx context.Context) ([]Product, error)

	// Interactions returns aggregated interactions against the given catalog
	// along with the number of distinct users.
	Interactions(ctx context.Context, products []Product) ([]Interaction, int, error)
}
