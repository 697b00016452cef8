package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

// Association confidence is a linear ramp in the co-purchase count that
// saturates at the cap: cheap to compute, bounded, and grows with evidence. A
// single co-occurrence gets a deliberately low floor so coincidences are not
// over-trusted.
const (
	initialAssociationConfidence = 0.1
	associationRampDivisor       = 10.0
	associationConfidenceCap     = 1.0
)

// MinerStore is the slice of persistence the association miner needs.
type MinerStore interface {
	UpdateAssociationAtomic(ctx context.Context, productAID, productBID string, apply func(existing *model.ProductAssociation) *model.ProductAssociation) error
	GetAssociatedProducts(ctx context.Context, productID string, minConfidence float64, limit int) ([]model.AssociatedProduct, error)
}

// Miner maintains the undirected co-purchase graph.
type Miner struct {
	store MinerStore
	now   func() time.Time
}

// NewMiner creates an association miner.
func NewMiner(store MinerStore) *Miner {
	return &Miner{store: store, now: time.Now}
}

// RecordAssociation notes that two products appeared in the same basket.
// Self-pairs are a silent no-op, not an error. The edge is stored under the
// canonical pair ordering so (A,B) and (B,A) update the same record.
func (m *Miner) RecordAssociation(ctx context.Context, productA, productB string) error {
	if productA == "" || productB == "" {
		return fmt.Errorf("%w: empty product id", common.ErrInvalidArgument)
	}
	if productA == productB {
		return nil
	}

	a, b := model.CanonicalPair(productA, productB)

	// The current edge is read and rewritten inside one write transaction so
	// two baskets bumping the same pair cannot lose a count.
	return m.store.UpdateAssociationAtomic(ctx, a, b, func(existing *model.ProductAssociation) *model.ProductAssociation {
		if existing == nil {
			return &model.ProductAssociation{
				ProductAID:      a,
				ProductBID:      b,
				CoPurchaseCount: 1,
				Confidence:      initialAssociationConfidence,
				LastUpdated:     m.now().UTC(),
			}
		}
		existing.CoPurchaseCount++
		existing.Confidence = rampConfidence(existing.CoPurchaseCount)
		existing.LastUpdated = m.now().UTC()
		return existing
	})
}

// RecordBasket records every pairwise association in a multi-item basket.
// Duplicate ids collapse to self-pairs and are skipped.
func (m *Miner) RecordBasket(ctx context.Context, productIDs []string) error {
	for i := 0; i < len(productIDs); i++ {
		for j := i + 1; j < len(productIDs); j++ {
			if err := m.RecordAssociation(ctx, productIDs[i], productIDs[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Associated returns the products co-purchased with the given one, strongest
// association first.
func (m *Miner) Associated(ctx context.Context, productID string, minConfidence float64, limit int) ([]model.AssociatedProduct, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: empty product id", common.ErrInvalidArgument)
	}
	return m.store.GetAssociatedProducts(ctx, productID, minConfidence, limit)
}

func rampConfidence(coPurchaseCount int) float64 {
	confidence := float64(coPurchaseCount) / associationRampDivisor
	if confidence > associationConfidenceCap {
		return associationConfidenceCap
	}
	return confidence
}
