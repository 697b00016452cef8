package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
	"github.com/cartwheel-app/cartwheel/internal/service"
)

const productColumns = `id, name, category, typical_price, purchase_count,
	last_purchased_date, average_days_between_purchases, created_at, updated_at`

// CreateProduct inserts a new product. Name uniqueness is enforced
// case-insensitively: creating "milk" when "Milk" exists fails with
// ErrDuplicateEntry rather than overwriting.
func (s *SQLiteStorage) CreateProduct(ctx context.Context, product *model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProduct(product); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM products WHERE name = ? COLLATE NOCASE)
		`, product.Name).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check product name: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: product %q", common.ErrDuplicateEntry, product.Name)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, product.ID, product.Name, product.Category, product.TypicalPrice,
			product.PurchaseCount, product.LastPurchasedDate, product.AvgDaysBetween,
			product.CreatedAt, product.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}
		return nil
	})
}

// GetProduct retrieves a product by ID.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getProductTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getProductTx(ctx context.Context, q queryable, id string) (*model.Product, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ?
	`, id)

	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// GetProductByName retrieves a product by exact name, case-insensitively.
func (s *SQLiteStorage) GetProductByName(ctx context.Context, name string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getProductByNameTx(ctx, s.db, name)
}

func (s *SQLiteStorage) getProductByNameTx(ctx context.Context, q queryable, name string) (*model.Product, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE name = ? COLLATE NOCASE
	`, name)

	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by name: %w", err)
	}
	return product, nil
}

// SearchProducts finds products whose name contains the query substring,
// optionally restricted to a category, most-purchased first.
func (s *SQLiteStorage) SearchProducts(ctx context.Context, query, category string, limit int) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	sqlQuery := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name LIKE ? ESCAPE '\'`
	args := []any{"%" + escapeLike(query) + "%"}

	if category != "" {
		sqlQuery += ` AND category = ?`
		args = append(args, category)
	}

	sqlQuery += ` ORDER BY purchase_count DESC LIMIT ?`
	args = append(args, limit)

	return s.queryProducts(ctx, sqlQuery, args...)
}

// GetAllProducts lists products in name order with optional category filter
// and limit/offset paging.
func (s *SQLiteStorage) GetAllProducts(ctx context.Context, filter service.ProductFilter) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	sqlQuery := `
		SELECT ` + productColumns + `
		FROM products`
	var args []any

	if filter.Category != "" {
		sqlQuery += ` WHERE category = ?`
		args = append(args, filter.Category)
	}

	sqlQuery += ` ORDER BY name LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	return s.queryProducts(ctx, sqlQuery, args...)
}

// UpdateProduct applies an explicit field update and returns the updated row.
func (s *SQLiteStorage) UpdateProduct(ctx context.Context, id string, update model.ProductUpdate) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return s.GetProduct(ctx, id)
	}

	var sets []string
	var args []any
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *update.Category)
	}
	if update.TypicalPrice != nil {
		sets = append(sets, "typical_price = ?")
		args = append(args, *update.TypicalPrice)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, common.ErrNotFound
	}

	return s.GetProduct(ctx, id)
}

// SaveProduct overwrites all derived statistics fields of an existing product.
// Used by the purchase tracker after recomputing smoothed averages.
func (s *SQLiteStorage) SaveProduct(ctx context.Context, product *model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProduct(product); err != nil {
		return err
	}
	return s.saveProductTx(ctx, s.db, product)
}

func (s *SQLiteStorage) saveProductTx(ctx context.Context, q queryable, product *model.Product) error {
	product.UpdatedAt = time.Now().UTC()

	result, err := q.ExecContext(ctx, `
		UPDATE products
		SET name = ?, category = ?, typical_price = ?, purchase_count = ?,
			last_purchased_date = ?, average_days_between_purchases = ?, updated_at = ?
		WHERE id = ?
	`, product.Name, product.Category, product.TypicalPrice, product.PurchaseCount,
		product.LastPurchasedDate, product.AvgDaysBetween, product.UpdatedAt, product.ID)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product. This is an explicit administrative action;
// nothing in the engine deletes products implicitly.
func (s *SQLiteStorage) DeleteProduct(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM purchase_history WHERE product_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete purchase history: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_associations WHERE product_a_id = ? OR product_b_id = ?`, id, id); err != nil {
			return fmt.Errorf("failed to delete associations: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
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

// ListProductsWithHistory returns products that have both a smoothed purchase
// interval and a last purchase date, the candidate set for prediction.
func (s *SQLiteStorage) ListProductsWithHistory(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE average_days_between_purchases IS NOT NULL
		  AND last_purchased_date IS NOT NULL
		ORDER BY id
	`)
}

// ListRecentlyPurchased returns products with at least one purchase, most
// recently purchased first. Used to build the suggestion context.
func (s *SQLiteStorage) ListRecentlyPurchased(ctx context.Context, limit int) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE purchase_count > 0
		ORDER BY last_purchased_date DESC
		LIMIT ?
	`, limit)
}

func (s *SQLiteStorage) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}

	return products, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*model.Product, error) {
	var product model.Product
	var typicalPrice, avgDays sql.NullFloat64
	var lastPurchased sql.NullTime

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&typicalPrice,
		&product.PurchaseCount,
		&lastPurchased,
		&avgDays,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if typicalPrice.Valid {
		product.TypicalPrice = &typicalPrice.Float64
	}
	if avgDays.Valid {
		product.AvgDaysBetween = &avgDays.Float64
	}
	if lastPurchased.Valid {
		t := lastPurchased.Time
		product.LastPurchasedDate = &t
	}

	return &product, nil
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
