package receipt

import (
	"math"

	"github.com/cartwheel-app/cartwheel/internal/model"
)

// Tolerance, in currency units, for the total-vs-item-sum sanity check.
const totalTolerance = 1.0

// Score computes an overall confidence for a completed receipt from auditable
// factors: presence of a store name and date, the mean per-item confidence,
// and whether the stated total matches the item sum. The result is the mean
// of whichever factors applied. A completely empty receipt scores 0.5:
// unreliable, but not zero.
func Score(r model.ParsedReceipt) float64 {
	var factors []float64

	if r.StoreName != "" {
		factors = append(factors, 0.9)
	}
	if r.Date != "" {
		factors = append(factors, 0.9)
	}

	if len(r.Items) > 0 {
		var sum float64
		for _, item := range r.Items {
			sum += item.Confidence
		}
		factors = append(factors, sum/float64(len(r.Items)))
	}

	if r.Total != nil && len(r.Items) > 0 {
		var itemSum float64
		for _, item := range r.Items {
			if item.Price != nil {
				itemSum += *item.Price
			}
		}
		if math.Abs(*r.Total-itemSum) < totalTolerance {
			factors = append(factors, 0.95)
		} else {
			factors = append(factors, 0.6)
		}
	}

	if len(factors) == 0 {
		return 0.5
	}

	var total float64
	for _, f := range factors {
		total += f
	}
	return total / float64(len(factors))
}
