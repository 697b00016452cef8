package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cartwheel-app/cartwheel/internal/model"
)

// AppendPurchaseEvent writes one immutable purchase event. Events are the
// audit trail for product statistics and are never updated or deleted.
func (s *SQLiteStorage) AppendPurchaseEvent(ctx context.Context, event *model.PurchaseEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePurchaseEvent(event); err != nil {
		return err
	}
	return s.appendPurchaseEventTx(ctx, s.db, event)
}

func (s *SQLiteStorage) appendPurchaseEventTx(ctx context.Context, q queryable, event *model.PurchaseEvent) error {
	var store sql.NullString
	if event.StoreName != "" {
		store = sql.NullString{String: event.StoreName, Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO purchase_history (id, product_id, purchase_date, price, quantity, store_name)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, event.ProductID, event.PurchaseDate, event.Price, event.Quantity, store)
	if err != nil {
		return fmt.Errorf("failed to append purchase event: %w", err)
	}
	return nil
}

// GetRecentPurchases returns a product's purchase events, newest first.
func (s *SQLiteStorage) GetRecentPurchases(ctx context.Context, productID string, limit int) ([]model.PurchaseEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, purchase_date, price, quantity, store_name
		FROM purchase_history
		WHERE product_id = ?
		ORDER BY purchase_date DESC
		LIMIT ?
	`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.PurchaseEvent
	for rows.Next() {
		var event model.PurchaseEvent
		var price sql.NullFloat64
		var store sql.NullString

		err := rows.Scan(
			&event.ID,
			&event.ProductID,
			&event.PurchaseDate,
			&price,
			&event.Quantity,
			&store,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase event: %w", err)
		}

		if price.Valid {
			event.Price = &price.Float64
		}
		event.StoreName = store.String
		events = append(events, event)
	}

	return events, rows.Err()
}

// RecordPurchaseAtomic applies the full purchase side effects atomically: the
// appended event plus the recomputed product statistics. Either both are
// visible after commit or neither is. The product row is re-read inside the
// write transaction and handed to apply, so the read-modify-write cycle
// cannot interleave with a concurrent recorder and lose updates.
func (s *SQLiteStorage) RecordPurchaseAtomic(ctx context.Context, event *model.PurchaseEvent, apply func(*model.Product)) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePurchaseEvent(event); err != nil {
		return err
	}
	if apply == nil {
		return fmt.Errorf("%w: apply", ErrNilParameter)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		product, err := s.getProductTx(ctx, tx, event.ProductID)
		if err != nil {
			return err
		}
		if err := s.appendPurchaseEventTx(ctx, tx, event); err != nil {
			return err
		}
		apply(product)
		return s.saveProductTx(ctx, tx, product)
	})
}
