package engine

import (
	"context"

	"github.com/cartwheel-app/cartwheel/internal/insights"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

// Recorder ties the purchase tracker and association miner together for
// basket-level recording: every item updates its product's statistics, and
// multi-item baskets additionally update the pairwise co-purchase edges.
type Recorder struct {
	tracker *insights.Tracker
	miner   *insights.Miner
}

// NewRecorder creates a basket recorder.
func NewRecorder(tracker *insights.Tracker, miner *insights.Miner) *Recorder {
	return &Recorder{tracker: tracker, miner: miner}
}

// RecordPurchase records a single purchase with no association side effects.
func (r *Recorder) RecordPurchase(ctx context.Context, req insights.PurchaseRequest) (*model.PurchaseEvent, error) {
	return r.tracker.RecordPurchase(ctx, req)
}

// RecordBasket records every purchase in a basket and, when the basket holds
// more than one item, mines the co-purchase associations between the resolved
// products.
func (r *Recorder) RecordBasket(ctx context.Context, reqs []insights.PurchaseRequest) ([]model.PurchaseEvent, error) {
	events := make([]model.PurchaseEvent, 0, len(reqs))
	productIDs := make([]string, 0, len(reqs))

	for _, req := range reqs {
		event, err := r.tracker.RecordPurchase(ctx, req)
		if err != nil {
			return events, err
		}
		events = append(events, *event)
		productIDs = append(productIDs, event.ProductID)
	}

	if len(productIDs) > 1 {
		if err := r.miner.RecordBasket(ctx, productIDs); err != nil {
			return events, err
		}
	}

	return events, nil
}
