// Package share provides the ephemeral share-link store. The store is an
// explicit dependency with an injected lifecycle rather than a process-wide
// registry, so tests run against isolated instances.
package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

// IDLength is the length of generated share IDs.
const IDLength = 8

// NewShareID generates a short url-safe, upper-cased share token.
func NewShareID() (string, error) {
	buf := make([]byte, IDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate share id: %w", err)
	}
	id := strings.ToUpper(base64.RawURLEncoding.EncodeToString(buf))
	return id[:IDLength], nil
}

// NormalizeID canonicalizes user-supplied share IDs for lookup.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// InMemoryStore implements service.ShareStore in process memory with an
// injected clock. Links do not survive restarts; use the sqlite-backed store
// for that.
type InMemoryStore struct {
	mu    sync.RWMutex
	links map[string]model.ShareLink
	now   func() time.Time
}

// NewInMemoryStore creates an empty store using the given clock (nil means
// time.Now).
func NewInMemoryStore(now func() time.Time) *InMemoryStore {
	if now == nil {
		now = time.Now
	}
	return &InMemoryStore{
		links: make(map[string]model.ShareLink),
		now:   now,
	}
}

// Create stores a share link.
func (s *InMemoryStore) Create(_ context.Context, link *model.ShareLink) error {
	if link == nil || link.ShareID == "" {
		return fmt.Errorf("%w: share link requires an ID", common.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[link.ShareID]; exists {
		return fmt.Errorf("%w: share %q", common.ErrDuplicateEntry, link.ShareID)
	}
	s.links[link.ShareID] = *link
	return nil
}

// Get retrieves a share link. Expired links are still returned; deciding what
// expiry means is the caller's job.
func (s *InMemoryStore) Get(_ context.Context, shareID string) (*model.ShareLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[NormalizeID(shareID)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &link, nil
}

// Delete removes a share link.
func (s *InMemoryStore) Delete(_ context.Context, shareID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := NormalizeID(shareID)
	if _, ok := s.links[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.links, id)
	return nil
}

// PurgeExpired removes all links past their expiry and reports how many.
func (s *InMemoryStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int
	for id, link := range s.links {
		if link.Expired(now) {
			delete(s.links, id)
			purged++
		}
	}
	return purged, nil
}

// Close releases the store's resources.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = make(map[string]model.ShareLink)
	return nil
}

// Creator is the slice of the share store needed to mint links.
type Creator interface {
	Create(ctx context.Context, link *model.ShareLink) error
}

// CreateLink builds and stores a link for a list snapshot, returning the
// stored record.
func CreateLink(ctx context.Context, store Creator, list *model.ShoppingList, items []model.ShoppingItem, permission model.SharePermission, daysValid int, now time.Time) (*model.ShareLink, error) {
	if daysValid <= 0 {
		daysValid = 7
	}
	if permission == "" {
		permission = model.PermissionEdit
	}

	shareID, err := NewShareID()
	if err != nil {
		return nil, err
	}

	link := &model.ShareLink{
		ShareID:    shareID,
		ListID:     list.ID,
		ListName:   list.Name,
		Items:      items,
		Permission: permission,
		CreatedAt:  now,
		ExpiresAt:  now.AddDate(0, 0, daysValid),
	}
	if err := store.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}
