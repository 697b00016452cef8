package model

import (
	"time"

	"github.com/google/uuid"
)

// ListStatus tracks the lifecycle of a shopping list.
type ListStatus string

const (
	// ListActive is the default status for new lists.
	ListActive ListStatus = "active"
	// ListArchived marks lists the user is done with.
	ListArchived ListStatus = "archived"
)

// ShoppingList is a named collection of items to buy, optionally tied to a store.
type ShoppingList struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string
	Name        string
	StoreName   string
	Status      ListStatus
	IsCompleted bool
}

// NewShoppingList creates an active list with a fresh ID.
func NewShoppingList(name, storeName string) *ShoppingList {
	now := time.Now().UTC()
	return &ShoppingList{
		ID:        uuid.NewString(),
		Name:      name,
		StoreName: storeName,
		Status:    ListActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ShoppingItem is one entry on a shopping list.
type ShoppingItem struct {
	Price       *float64
	ID          string
	ListID      string
	Name        string
	Category    string
	Notes       string
	Quantity    float64
	IsPurchased bool
}
