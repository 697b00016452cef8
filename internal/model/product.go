// Package model defines the core domain types shared across the application.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCategory is assigned to products created without an explicit category.
const DefaultCategory = "Uncategorized"

// Product represents a known grocery product and its learned purchase statistics.
type Product struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastPurchasedDate *time.Time
	TypicalPrice      *float64
	AvgDaysBetween    *float64 // smoothed average days between purchases
	ID                string
	Name              string
	Category          string
	PurchaseCount     int
}

// NewProduct creates a product with a fresh ID and zero purchase count.
// PurchaseCount counts only explicit purchase events, so it starts at 0.
func NewProduct(name, category string, typicalPrice *float64) *Product {
	if category == "" {
		category = DefaultCategory
	}
	now := time.Now().UTC()
	return &Product{
		ID:           uuid.NewString(),
		Name:         name,
		Category:     category,
		TypicalPrice: typicalPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ProductUpdate enumerates the mutable product fields. A nil field means
// "leave unchanged"; this replaces loose key/value update bags so the set of
// mutable fields is checked at compile time.
type ProductUpdate struct {
	Name         *string  `json:"name"`
	Category     *string  `json:"category"`
	TypicalPrice *float64 `json:"typical_price"`
}

// IsEmpty reports whether the update would change nothing.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.TypicalPrice == nil
}
