// Package testutil provides shared test fixtures: isolated in-memory
// databases with migrations applied and helpers for seeding catalog data.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cartwheel-app/cartwheel/internal/model"
	"github.com/cartwheel-app/cartwheel/internal/service"
	"github.com/cartwheel-app/cartwheel/internal/storage"
)

// TestDB wraps an isolated, migrated database for one test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates an in-memory database with migrations applied and
// cleanup registered.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedProduct creates a product or fails the test.
func (db *TestDB) SeedProduct(name, category string, typicalPrice *float64) *model.Product {
	db.t.Helper()

	product := model.NewProduct(name, category, typicalPrice)
	if err := db.Storage.CreateProduct(context.Background(), product); err != nil {
		db.t.Fatalf("failed to seed product %q: %v", name, err)
	}
	return product
}

// SeedPurchase appends a raw purchase event for a product or fails the test.
// Derived statistics are untouched; use the tracker when those matter.
func (db *TestDB) SeedPurchase(product *model.Product, date time.Time, price *float64) *model.PurchaseEvent {
	db.t.Helper()

	event := &model.PurchaseEvent{
		ID:           uuid.NewString(),
		ProductID:    product.ID,
		PurchaseDate: date,
		Price:        price,
		Quantity:     1,
	}
	if err := db.Storage.AppendPurchaseEvent(context.Background(), event); err != nil {
		db.t.Fatalf("failed to seed purchase for %q: %v", product.Name, err)
	}
	return event
}

// Float returns a pointer to v, a convenience for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
