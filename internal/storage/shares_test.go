package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

func createTestShareLink(expiresAt time.Time) *model.ShareLink {
	return &model.ShareLink{
		ShareID:  "ABCD1234",
		ListID:   uuid.NewString(),
		ListName: "Weekly Groceries",
		Items: []model.ShoppingItem{
			{ID: uuid.NewString(), Name: "Milk", Quantity: 1, Category: "Dairy"},
			{ID: uuid.NewString(), Name: "Bread", Quantity: 2, Category: "Bakery", IsPurchased: true},
		},
		Permission: model.PermissionView,
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}
}

func TestShareLinkRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	shares := NewShareStore(store)

	link := createTestShareLink(time.Now().UTC().AddDate(0, 0, 7))
	if err := shares.Create(ctx, link); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := shares.Get(ctx, "ABCD1234")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ListName != "Weekly Groceries" {
		t.Errorf("ListName = %q, want %q", got.ListName, "Weekly Groceries")
	}
	if got.Permission != model.PermissionView {
		t.Errorf("Permission = %q, want %q", got.Permission, model.PermissionView)
	}
	if len(got.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(got.Items))
	}
	if got.Items[0].Name != "Milk" || !got.Items[1].IsPurchased {
		t.Errorf("items snapshot not preserved: %+v", got.Items)
	}
}

func TestShareLinkGetReturnsExpiredRecord(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	shares := NewShareStore(store)

	link := createTestShareLink(time.Now().UTC().AddDate(0, 0, -1))
	if err := shares.Create(ctx, link); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Expiry is enforced by the caller, not the store
	got, err := shares.Get(ctx, link.ShareID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Expired(time.Now().UTC()) {
		t.Error("link should report expired")
	}
}

func TestShareLinkDelete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	shares := NewShareStore(store)

	link := createTestShareLink(time.Now().UTC().AddDate(0, 0, 7))
	if err := shares.Create(ctx, link); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := shares.Delete(ctx, link.ShareID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := shares.Get(ctx, link.ShareID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := shares.Delete(ctx, link.ShareID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestShareLinkPurgeExpired(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	shares := NewShareStore(store)
	now := time.Now().UTC()

	expired := createTestShareLink(now.AddDate(0, 0, -1))
	live := createTestShareLink(now.AddDate(0, 0, 7))
	live.ShareID = "LIVE5678"

	for _, link := range []*model.ShareLink{expired, live} {
		if err := shares.Create(ctx, link); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	purged, err := shares.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	if _, err := shares.Get(ctx, expired.ShareID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expired link still present: %v", err)
	}
	if _, err := shares.Get(ctx, live.ShareID); err != nil {
		t.Errorf("live link lost: %v", err)
	}
}
