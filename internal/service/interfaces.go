// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/cartwheel-app/cartwheel/internal/model"
)

// ProductFilter defines filtering options for product queries.
type ProductFilter struct {
	Category string
	Limit    int
	Offset   int
}

// Storage defines the contract for our persistence layer. Implementations must
// provide read-your-writes consistency within a single logical transaction.
type Storage interface {
	// Product operations
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductByName(ctx context.Context, name string) (*model.Product, error)
	SearchProducts(ctx context.Context, query, category string, limit int) ([]model.Product, error)
	GetAllProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	UpdateProduct(ctx context.Context, id string, update model.ProductUpdate) (*model.Product, error)
	SaveProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProductsWithHistory(ctx context.Context) ([]model.Product, error)
	ListRecentlyPurchased(ctx context.Context, limit int) ([]model.Product, error)

	// Purchase history operations
	AppendPurchaseEvent(ctx context.Context, event *model.PurchaseEvent) error
	RecordPurchaseAtomic(ctx context.Context, event *model.PurchaseEvent, apply func(*model.Product)) error
	GetRecentPurchases(ctx context.Context, productID string, limit int) ([]model.PurchaseEvent, error)

	// Association operations
	GetAssociation(ctx context.Context, productAID, productBID string) (*model.ProductAssociation, error)
	SaveAssociation(ctx context.Context, assoc *model.ProductAssociation) error
	UpdateAssociationAtomic(ctx context.Context, productAID, productBID string, apply func(existing *model.ProductAssociation) *model.ProductAssociation) error
	ListAssociations(ctx context.Context, productID string) ([]model.ProductAssociation, error)
	GetAssociatedProducts(ctx context.Context, productID string, minConfidence float64, limit int) ([]model.AssociatedProduct, error)

	// Shopping list operations
	CreateList(ctx context.Context, list *model.ShoppingList) error
	GetList(ctx context.Context, id string) (*model.ShoppingList, error)
	GetListItems(ctx context.Context, listID string) ([]model.ShoppingItem, error)
	SaveListItem(ctx context.Context, item *model.ShoppingItem) error
	DeleteList(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ShareStore is the ephemeral key-value store for share links. Lifecycle is
// injected so tests run with isolated instances rather than a process-wide
// registry.
type ShareStore interface {
	Create(ctx context.Context, link *model.ShareLink) error
	Get(ctx context.Context, shareID string) (*model.ShareLink, error)
	Delete(ctx context.Context, shareID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}
