package share

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

var shareIDRe = regexp.MustCompile(`^[A-Z0-9_-]{8}$`)

func TestNewShareID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewShareID()
		require.NoError(t, err)
		assert.Regexp(t, shareIDRe, id)
		assert.False(t, seen[id], "collision in 100 draws is effectively impossible")
		seen[id] = true
	}
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "ABCD1234", NormalizeID("  abcd1234 "))
	assert.Equal(t, "ABCD1234", NormalizeID("ABCD1234"))
}

func testLink(shareID string, expiresAt time.Time) *model.ShareLink {
	return &model.ShareLink{
		ShareID:   shareID,
		ListID:    "list-1",
		ListName:  "Weekly",
		Items:     []model.ShoppingItem{{ID: "i1", Name: "Milk", Quantity: 1}},
		CreatedAt: expiresAt.AddDate(0, 0, -7),
		ExpiresAt: expiresAt,
	}
}

func TestInMemoryStoreLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	link := testLink("ABCD1234", now.AddDate(0, 0, 7))
	require.NoError(t, store.Create(ctx, link))

	// Lookup is case-insensitive
	got, err := store.Get(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "Weekly", got.ListName)
	require.Len(t, got.Items, 1)

	// Duplicate IDs are rejected
	err = store.Create(ctx, link)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	require.NoError(t, store.Delete(ctx, "ABCD1234"))
	_, err = store.Get(ctx, "ABCD1234")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "ABCD1234"), common.ErrNotFound)
}

func TestInMemoryStoreSnapshotIsolation(t *testing.T) {
	store := NewInMemoryStore(nil)
	ctx := context.Background()

	link := testLink("ABCD1234", time.Now().UTC().AddDate(0, 0, 7))
	require.NoError(t, store.Create(ctx, link))

	// Mutating the caller's copy must not affect the stored snapshot
	link.ListName = "Changed"
	got, err := store.Get(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "Weekly", got.ListName)
}

func TestInMemoryStorePurgeExpired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testLink("EXPIRED1", now.AddDate(0, 0, -1))))
	require.NoError(t, store.Create(ctx, testLink("LIVE5678", now.AddDate(0, 0, 7))))

	purged, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = store.Get(ctx, "EXPIRED1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.Get(ctx, "LIVE5678")
	assert.NoError(t, err)
}

func TestCreateLink(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	list := &model.ShoppingList{ID: "list-1", Name: "Weekly"}
	items := []model.ShoppingItem{{ID: "i1", Name: "Milk", Quantity: 1}}

	link, err := CreateLink(ctx, store, list, items, model.PermissionView, 3, now)
	require.NoError(t, err)
	assert.Regexp(t, shareIDRe, link.ShareID)
	assert.Equal(t, "list-1", link.ListID)
	assert.Equal(t, "Weekly", link.ListName)
	assert.Equal(t, model.PermissionView, link.Permission)
	assert.True(t, link.ExpiresAt.Equal(now.AddDate(0, 0, 3)))

	stored, err := store.Get(ctx, link.ShareID)
	require.NoError(t, err)
	assert.Equal(t, link.ShareID, stored.ShareID)
}

func TestCreateLinkDefaults(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore(func() time.Time { return now })

	list := &model.ShoppingList{ID: "list-1", Name: "Weekly"}

	link, err := CreateLink(context.Background(), store, list, nil, "", 0, now)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionEdit, link.Permission, "permission defaults to edit")
	assert.True(t, link.ExpiresAt.Equal(now.AddDate(0, 0, 7)), "validity defaults to seven days")
	assert.False(t, link.Expired(now))
	assert.True(t, link.Expired(now.AddDate(0, 0, 8)))
}

var errCreatorDown = errors.New("creator down")

type failingCreator struct{}

func (failingCreator) Create(context.Context, *model.ShareLink) error {
	return errCreatorDown
}

func TestCreateLinkPropagatesStoreError(t *testing.T) {
	list := &model.ShoppingList{ID: "list-1", Name: "Weekly"}
	_, err := CreateLink(context.Background(), failingCreator{}, list, nil, model.PermissionView, 1, time.Now())
	assert.ErrorIs(t, err, errCreatorDown)
}
