// Package insights implements the purchase pattern intelligence engine:
// per-product statistics with recency-weighted smoothing, co-purchase
// association mining, and repurchase prediction.
package insights

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

// UnknownProductID is the sentinel callers pass when they only know a product
// by name. The tracker resolves or lazily creates the product.
const UnknownProductID = "unknown"

// Smoothing weights for the exponential moving averages. Each new observation
// partially overwrites the accumulated value.
const (
	smoothOld = 0.7
	smoothNew = 0.3
)

// TrackerStore is the slice of persistence the tracker needs.
type TrackerStore interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductByName(ctx context.Context, name string) (*model.Product, error)
	CreateProduct(ctx context.Context, product *model.Product) error
	RecordPurchaseAtomic(ctx context.Context, event *model.PurchaseEvent, apply func(*model.Product)) error
}

// PurchaseRequest describes one purchase event to record.
type PurchaseRequest struct {
	PurchaseDate time.Time
	Price        *float64
	ProductID    string
	Name         string
	StoreName    string
	Quantity     float64
}

// Tracker owns per-product running statistics.
type Tracker struct {
	store TrackerStore
}

// NewTracker creates a purchase statistics tracker.
func NewTracker(store TrackerStore) *Tracker {
	return &Tracker{store: store}
}

// RecordPurchase resolves the product, appends an immutable purchase event and
// recomputes the product's smoothed statistics. The event and the statistics
// update are committed atomically.
func (t *Tracker) RecordPurchase(ctx context.Context, req PurchaseRequest) (*model.PurchaseEvent, error) {
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", common.ErrInvalidArgument)
	}
	if req.Quantity == 0 {
		req.Quantity = 1.0
	}
	if req.PurchaseDate.IsZero() {
		req.PurchaseDate = time.Now().UTC()
	}

	product, err := t.resolveProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	event := &model.PurchaseEvent{
		ID:           uuid.NewString(),
		ProductID:    product.ID,
		PurchaseDate: req.PurchaseDate,
		Price:        req.Price,
		Quantity:     req.Quantity,
		StoreName:    req.StoreName,
	}

	// The statistics fold runs against the product row as re-read inside the
	// write transaction, not the copy resolved above, so concurrent recorders
	// on the same product cannot lose each other's increments.
	err = t.store.RecordPurchaseAtomic(ctx, event, func(p *model.Product) {
		applyPurchase(p, event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	return event, nil
}

// resolveProduct finds the target product, creating it from the request name
// when the caller passed the unknown-product sentinel. Auto-creation reuses an
// existing product of the same name rather than shadowing it.
func (t *Tracker) resolveProduct(ctx context.Context, req PurchaseRequest) (*model.Product, error) {
	if req.ProductID != "" && req.ProductID != UnknownProductID {
		return t.store.GetProduct(ctx, req.ProductID)
	}

	if req.Name == "" {
		return nil, fmt.Errorf("%w: product %q and no name supplied", common.ErrNotFound, req.ProductID)
	}

	product, err := t.store.GetProductByName(ctx, req.Name)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	product = model.NewProduct(req.Name, model.DefaultCategory, req.Price)
	if err := t.store.CreateProduct(ctx, product); err != nil {
		// A concurrent recorder may have created the same name first.
		if errors.Is(err, common.ErrDuplicateEntry) {
			return t.store.GetProductByName(ctx, req.Name)
		}
		return nil, err
	}
	return product, nil
}

// applyPurchase folds one event into the product's derived statistics.
func applyPurchase(product *model.Product, event *model.PurchaseEvent) {
	// Gap smoothing first, against the previous last_purchased_date. Gaps of
	// zero or fewer whole days (duplicate or out-of-order timestamps) leave
	// the average untouched.
	if product.LastPurchasedDate != nil {
		gap := math.Floor(event.PurchaseDate.Sub(*product.LastPurchasedDate).Hours() / 24)
		if gap > 0 {
			prev := gap
			if product.AvgDaysBetween != nil {
				prev = *product.AvgDaysBetween
			}
			smoothed := smoothOld*prev + smoothNew*gap
			product.AvgDaysBetween = &smoothed
		}
	}

	// Typical price uses the same 70/30 smoothing, seeded by the first
	// observed price.
	if event.Price != nil {
		if product.TypicalPrice != nil {
			smoothed := smoothOld**product.TypicalPrice + smoothNew**event.Price
			product.TypicalPrice = &smoothed
		} else {
			price := *event.Price
			product.TypicalPrice = &price
		}
	}

	product.PurchaseCount++

	// The newest event always wins, even if chronologically earlier than
	// existing history. This simple model performs no out-of-order correction.
	ts := event.PurchaseDate
	product.LastPurchasedDate = &ts
}
