package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

// GetAssociation retrieves the co-purchase edge for a product pair. The pair
// is canonicalized before lookup so argument order never matters.
func (s *SQLiteStorage) GetAssociation(ctx context.Context, productAID, productBID string) (*model.ProductAssociation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productAID, "productAID"); err != nil {
		return nil, err
	}
	if err := validateString(productBID, "productBID"); err != nil {
		return nil, err
	}

	a, b := model.CanonicalPair(productAID, productBID)
	return s.getAssociationTx(ctx, s.db, a, b)
}

func (s *SQLiteStorage) getAssociationTx(ctx context.Context, q queryable, a, b string) (*model.ProductAssociation, error) {
	var assoc model.ProductAssociation
	err := q.QueryRowContext(ctx, `
		SELECT product_a_id, product_b_id, co_purchase_count, confidence, last_updated
		FROM product_associations
		WHERE product_a_id = ? AND product_b_id = ?
	`, a, b).Scan(
		&assoc.ProductAID,
		&assoc.ProductBID,
		&assoc.CoPurchaseCount,
		&assoc.Confidence,
		&assoc.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get association: %w", err)
	}

	return &assoc, nil
}

// SaveAssociation upserts a co-purchase edge under its canonical ordering.
func (s *SQLiteStorage) SaveAssociation(ctx context.Context, assoc *model.ProductAssociation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if assoc == nil {
		return fmt.Errorf("%w: association", ErrNilParameter)
	}

	return s.saveAssociationTx(ctx, s.db, assoc)
}

func (s *SQLiteStorage) saveAssociationTx(ctx context.Context, q queryable, assoc *model.ProductAssociation) error {
	a, b := model.CanonicalPair(assoc.ProductAID, assoc.ProductBID)

	_, err := q.ExecContext(ctx, `
		INSERT INTO product_associations (product_a_id, product_b_id, co_purchase_count, confidence, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(product_a_id, product_b_id) DO UPDATE SET
			co_purchase_count = excluded.co_purchase_count,
			confidence = excluded.confidence,
			last_updated = excluded.last_updated
	`, a, b, assoc.CoPurchaseCount, assoc.Confidence, assoc.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save association: %w", err)
	}
	return nil
}

// UpdateAssociationAtomic re-reads the canonical edge for a pair inside the
// write transaction, hands it to apply (nil when the pair has never
// co-occurred), and saves the record apply returns. The closed read-update
// cycle keeps concurrent basket recorders from losing co-purchase counts.
func (s *SQLiteStorage) UpdateAssociationAtomic(ctx context.Context, productAID, productBID string, apply func(existing *model.ProductAssociation) *model.ProductAssociation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(productAID, "productAID"); err != nil {
		return err
	}
	if err := validateString(productBID, "productBID"); err != nil {
		return err
	}
	if apply == nil {
		return fmt.Errorf("%w: apply", ErrNilParameter)
	}

	a, b := model.CanonicalPair(productAID, productBID)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.getAssociationTx(ctx, tx, a, b)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		return s.saveAssociationTx(ctx, tx, apply(existing))
	})
}

// ListAssociations returns all edges touching a product, from either endpoint.
func (s *SQLiteStorage) ListAssociations(ctx context.Context, productID string) ([]model.ProductAssociation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_a_id, product_b_id, co_purchase_count, confidence, last_updated
		FROM product_associations
		WHERE product_a_id = ? OR product_b_id = ?
	`, productID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query associations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assocs []model.ProductAssociation
	for rows.Next() {
		var assoc model.ProductAssociation
		err := rows.Scan(
			&assoc.ProductAID,
			&assoc.ProductBID,
			&assoc.CoPurchaseCount,
			&assoc.Confidence,
			&assoc.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		assocs = append(assocs, assoc)
	}

	return assocs, rows.Err()
}

// GetAssociatedProducts returns the other endpoint of every edge touching the
// product with confidence at or above minConfidence, strongest first. Ties
// break by co-purchase count, then product id, so results are deterministic.
func (s *SQLiteStorage) GetAssociatedProducts(ctx context.Context, productID string, minConfidence float64, limit int) ([]model.AssociatedProduct, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.`+"id"+`, p.name, p.category, p.typical_price, p.purchase_count,
			p.last_purchased_date, p.average_days_between_purchases, p.created_at, p.updated_at,
			a.confidence, a.co_purchase_count
		FROM product_associations a
		JOIN products p ON p.id = CASE WHEN a.product_a_id = ? THEN a.product_b_id ELSE a.product_a_id END
		WHERE (a.product_a_id = ? OR a.product_b_id = ?)
		  AND a.confidence >= ?
		ORDER BY a.confidence DESC, a.co_purchase_count DESC, p.id ASC
		LIMIT ?
	`, productID, productID, productID, minConfidence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query associated products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.AssociatedProduct
	for rows.Next() {
		var result model.AssociatedProduct
		var typicalPrice, avgDays sql.NullFloat64
		var lastPurchased sql.NullTime

		err := rows.Scan(
			&result.Product.ID,
			&result.Product.Name,
			&result.Product.Category,
			&typicalPrice,
			&result.Product.PurchaseCount,
			&lastPurchased,
			&avgDays,
			&result.Product.CreatedAt,
			&result.Product.UpdatedAt,
			&result.Confidence,
			&result.CoPurchaseCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan associated product: %w", err)
		}

		if typicalPrice.Valid {
			result.Product.TypicalPrice = &typicalPrice.Float64
		}
		if avgDays.Valid {
			result.Product.AvgDaysBetween = &avgDays.Float64
		}
		if lastPurchased.Valid {
			t := lastPurchased.Time
			result.Product.LastPurchasedDate = &t
		}

		results = append(results, result)
	}

	return results, rows.Err()
}
