package insights

import (
	"context"
	"sort"
	"time"

	"github.com/cartwheel-app/cartwheel/internal/model"
)

// A product becomes a prediction candidate once this share of its expected
// repurchase interval has elapsed, giving useful lead time before it is
// actually due.
const eligibilityThreshold = 0.8

// PredictorStore is the slice of persistence the predictor needs.
type PredictorStore interface {
	ListProductsWithHistory(ctx context.Context) ([]model.Product, error)
}

// Predictor emits ranked "needed soon" predictions from current product
// statistics. Every query is computed freshly from persisted state; nothing
// is cached.
type Predictor struct {
	store PredictorStore
	now   func() time.Time
}

// NewPredictor creates a repurchase predictor.
func NewPredictor(store PredictorStore) *Predictor {
	return &Predictor{store: store, now: time.Now}
}

// PredictNeeded scans products with purchase history and returns those likely
// due for repurchase, highest confidence first.
//
// daysAhead is accepted for a future forward-looking window but does not yet
// affect eligibility or scoring. This is a documented limitation of the model,
// not an oversight.
func (p *Predictor) PredictNeeded(ctx context.Context, daysAhead int, minConfidence float64) ([]model.Prediction, error) {
	_ = daysAhead

	products, err := p.store.ListProductsWithHistory(ctx)
	if err != nil {
		return nil, err
	}

	// One timestamp for the whole pass. Re-evaluating per product would skew
	// scores across a large catalog scan.
	now := p.now().UTC()

	var predictions []model.Prediction
	for _, product := range products {
		if product.AvgDaysBetween == nil || product.LastPurchasedDate == nil {
			continue
		}
		expected := *product.AvgDaysBetween
		if expected <= 0 {
			continue
		}

		daysSince := now.Sub(*product.LastPurchasedDate).Hours() / 24
		if daysSince < eligibilityThreshold*expected {
			continue
		}

		// Linear in how overdue the product is, capped so an overdue product
		// stays at 1.0 rather than growing without bound.
		confidence := daysSince / expected
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence < minConfidence {
			continue
		}

		predictions = append(predictions, model.Prediction{
			Product:           product,
			Confidence:        confidence,
			DaysSincePurchase: daysSince,
			ExpectedDays:      expected,
		})
	}

	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].Confidence != predictions[j].Confidence {
			return predictions[i].Confidence > predictions[j].Confidence
		}
		return predictions[i].Product.ID < predictions[j].Product.ID
	})

	return predictions, nil
}
