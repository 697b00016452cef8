package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS products (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT 'Uncategorized',
					typical_price REAL,
					purchase_count INTEGER NOT NULL DEFAULT 0,
					last_purchased_date DATETIME,
					average_days_between_purchases REAL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_products_name ON products(name COLLATE NOCASE)`,
				`CREATE INDEX idx_products_category ON products(category)`,

				`CREATE TABLE IF NOT EXISTS purchase_history (
					id TEXT PRIMARY KEY,
					product_id TEXT NOT NULL,
					purchase_date DATETIME NOT NULL,
					price REAL,
					quantity REAL NOT NULL DEFAULT 1.0,
					store_name TEXT,
					FOREIGN KEY (product_id) REFERENCES products(id)
				)`,
				`CREATE INDEX idx_purchase_history_product ON purchase_history(product_id, purchase_date)`,

				`CREATE TABLE IF NOT EXISTS product_associations (
					product_a_id TEXT NOT NULL,
					product_b_id TEXT NOT NULL,
					co_purchase_count INTEGER NOT NULL DEFAULT 1,
					confidence REAL NOT NULL DEFAULT 0,
					last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (product_a_id, product_b_id),
					FOREIGN KEY (product_a_id) REFERENCES products(id),
					FOREIGN KEY (product_b_id) REFERENCES products(id)
				)`,
				`CREATE INDEX idx_associations_b ON product_associations(product_b_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Shopping lists and items",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS shopping_lists (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					store_name TEXT,
					status TEXT NOT NULL DEFAULT 'active',
					is_completed INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS shopping_items (
					id TEXT PRIMARY KEY,
					list_id TEXT NOT NULL,
					name TEXT NOT NULL,
					qty REAL NOT NULL DEFAULT 1.0,
					price REAL,
					category TEXT NOT NULL DEFAULT 'Other',
					is_purchased INTEGER NOT NULL DEFAULT 0,
					notes TEXT,
					FOREIGN KEY (list_id) REFERENCES shopping_lists(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_shopping_items_list ON shopping_items(list_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Share links",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS share_links (
					share_id TEXT PRIMARY KEY,
					list_id TEXT NOT NULL,
					list_name TEXT NOT NULL,
					items TEXT NOT NULL,
					permission TEXT NOT NULL DEFAULT 'edit',
					created_at DATETIME NOT NULL,
					expires_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_share_links_expiry ON share_links(expires_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
