package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

// ShareStore is the SQLite-backed implementation of service.ShareStore, so
// share links survive process restarts. List items are stored as a JSON
// snapshot; they are a point-in-time copy, not a live view of the list.
type ShareStore struct {
	storage *SQLiteStorage
}

// NewShareStore creates a share store on top of an existing storage instance.
func NewShareStore(storage *SQLiteStorage) *ShareStore {
	return &ShareStore{storage: storage}
}

// Create stores a share link.
func (s *ShareStore) Create(ctx context.Context, link *model.ShareLink) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateShareLink(link); err != nil {
		return err
	}

	items, err := json.Marshal(link.Items)
	if err != nil {
		return fmt.Errorf("failed to encode share items: %w", err)
	}

	_, err = s.storage.db.ExecContext(ctx, `
		INSERT INTO share_links (share_id, list_id, list_name, items, permission, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, link.ShareID, link.ListID, link.ListName, string(items), link.Permission, link.CreatedAt, link.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert share link: %w", err)
	}
	return nil
}

// Get retrieves a share link by its ID. Expiry is the caller's concern; the
// stored record is returned as-is so the caller can distinguish "expired"
// from "never existed".
func (s *ShareStore) Get(ctx context.Context, shareID string) (*model.ShareLink, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(shareID, "shareID"); err != nil {
		return nil, err
	}

	var link model.ShareLink
	var items string

	err := s.storage.db.QueryRowContext(ctx, `
		SELECT share_id, list_id, list_name, items, permission, created_at, expires_at
		FROM share_links
		WHERE share_id = ?
	`, shareID).Scan(
		&link.ShareID,
		&link.ListID,
		&link.ListName,
		&items,
		&link.Permission,
		&link.CreatedAt,
		&link.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &link.Items); err != nil {
		return nil, fmt.Errorf("failed to decode share items: %w", err)
	}

	return &link, nil
}

// Delete removes a share link.
func (s *ShareStore) Delete(ctx context.Context, shareID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(shareID, "shareID"); err != nil {
		return err
	}

	result, err := s.storage.db.ExecContext(ctx, `DELETE FROM share_links WHERE share_id = ?`, shareID)
	if err != nil {
		return fmt.Errorf("failed to delete share link: %w", err)
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

// PurgeExpired removes all links past their expiry and reports how many.
func (s *ShareStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	result, err := s.storage.db.ExecContext(ctx, `DELETE FROM share_links WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge share links: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// Close is a no-op; the underlying database is owned by the storage instance.
func (s *ShareStore) Close() error {
	return nil
}
