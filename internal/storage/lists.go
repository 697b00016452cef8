package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

// CreateList inserts a new shopping list.
func (s *SQLiteStorage) CreateList(ctx context.Context, list *model.ShoppingList) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if list == nil {
		return fmt.Errorf("%w: list", ErrNilParameter)
	}
	if err := validateString(list.ID, "list.ID"); err != nil {
		return err
	}
	if err := validateString(list.Name, "list.Name"); err != nil {
		return err
	}

	var store sql.NullString
	if list.StoreName != "" {
		store = sql.NullString{String: list.StoreName, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shopping_lists (id, name, store_name, status, is_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, list.ID, list.Name, store, list.Status, list.IsCompleted, list.CreatedAt, list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert shopping list: %w", err)
	}
	return nil
}

// GetList retrieves a shopping list by ID.
func (s *SQLiteStorage) GetList(ctx context.Context, id string) (*model.ShoppingList, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var list model.ShoppingList
	var store sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, store_name, status, is_completed, created_at, updated_at
		FROM shopping_lists
		WHERE id = ?
	`, id).Scan(
		&list.ID,
		&list.Name,
		&store,
		&list.Status,
		&list.IsCompleted,
		&list.CreatedAt,
		&list.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}

	list.StoreName = store.String
	return &list, nil
}

// GetListItems returns the items on a list in insertion order.
func (s *SQLiteStorage) GetListItems(ctx context.Context, listID string) ([]model.ShoppingItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(listID, "listID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, list_id, name, qty, price, category, is_purchased, notes
		FROM shopping_items
		WHERE list_id = ?
		ORDER BY rowid
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.ShoppingItem
	for rows.Next() {
		var item model.ShoppingItem
		var price sql.NullFloat64
		var notes sql.NullString

		err := rows.Scan(
			&item.ID,
			&item.ListID,
			&item.Name,
			&item.Quantity,
			&price,
			&item.Category,
			&item.IsPurchased,
			&notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shopping item: %w", err)
		}

		if price.Valid {
			item.Price = &price.Float64
		}
		item.Notes = notes.String
		items = append(items, item)
	}

	return items, rows.Err()
}

// SaveListItem inserts or updates a list item.
func (s *SQLiteStorage) SaveListItem(ctx context.Context, item *model.ShoppingItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item", ErrNilParameter)
	}
	if err := validateString(item.ID, "item.ID"); err != nil {
		return err
	}
	if err := validateString(item.ListID, "item.ListID"); err != nil {
		return err
	}

	var notes sql.NullString
	if item.Notes != "" {
		notes = sql.NullString{String: item.Notes, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shopping_items (id, list_id, name, qty, price, category, is_purchased, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			qty = excluded.qty,
			price = excluded.price,
			category = excluded.category,
			is_purchased = excluded.is_purchased,
			notes = excluded.notes
	`, item.ID, item.ListID, item.Name, item.Quantity, item.Price, item.Category, item.IsPurchased, notes)
	if err != nil {
		return fmt.Errorf("failed to save shopping item: %w", err)
	}
	return nil
}

// DeleteList removes a list together with its items.
func (s *SQLiteStorage) DeleteList(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		// The cascade only fires with foreign keys on; delete explicitly so
		// behavior doesn't depend on the connection pragma.
		if _, err := tx.ExecContext(ctx, `DELETE FROM shopping_items WHERE list_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete list items: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM shopping_lists WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete shopping list: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return common.ErrNotFound
		}
		return nil
	})
}
