package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

func TestListLifecycle(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	list := model.NewShoppingList("Weekly Groceries", "Corner Market")
	if err := store.CreateList(ctx, list); err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}

	got, err := store.GetList(ctx, list.ID)
	if err != nil {
		t.Fatalf("GetList failed: %v", err)
	}
	if got.Name != "Weekly Groceries" {
		t.Errorf("Name = %q, want %q", got.Name, "Weekly Groceries")
	}
	if got.StoreName != "Corner Market" {
		t.Errorf("StoreName = %q, want %q", got.StoreName, "Corner Market")
	}
	if got.Status != model.ListActive {
		t.Errorf("Status = %q, want %q", got.Status, model.ListActive)
	}
}

func TestListItemsInsertionOrderAndUpsert(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	list := model.NewShoppingList("Weekly", "")
	if err := store.CreateList(ctx, list); err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}

	first := &model.ShoppingItem{ID: uuid.NewString(), ListID: list.ID, Name: "Milk", Quantity: 1, Category: "Dairy"}
	second := &model.ShoppingItem{ID: uuid.NewString(), ListID: list.ID, Name: "Bread", Quantity: 2, Category: "Bakery"}
	for _, item := range []*model.ShoppingItem{first, second} {
		if err := store.SaveListItem(ctx, item); err != nil {
			t.Fatalf("SaveListItem failed: %v", err)
		}
	}

	items, err := store.GetListItems(ctx, list.ID)
	if err != nil {
		t.Fatalf("GetListItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Name != "Milk" || items[1].Name != "Bread" {
		t.Errorf("items out of insertion order: %q, %q", items[0].Name, items[1].Name)
	}

	// Re-saving the same id updates in place
	first.IsPurchased = true
	first.Notes = "2% if they have it"
	if err := store.SaveListItem(ctx, first); err != nil {
		t.Fatalf("SaveListItem upsert failed: %v", err)
	}

	items, err = store.GetListItems(ctx, list.ID)
	if err != nil {
		t.Fatalf("GetListItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items after upsert, want 2", len(items))
	}
	if !items[0].IsPurchased {
		t.Error("IsPurchased not persisted")
	}
	if items[0].Notes != "2% if they have it" {
		t.Errorf("Notes = %q, want %q", items[0].Notes, "2% if they have it")
	}
}

func TestDeleteListRemovesItems(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	list := model.NewShoppingList("Weekly", "")
	if err := store.CreateList(ctx, list); err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	item := &model.ShoppingItem{ID: uuid.NewString(), ListID: list.ID, Name: "Milk", Quantity: 1, Category: "Dairy"}
	if err := store.SaveListItem(ctx, item); err != nil {
		t.Fatalf("SaveListItem failed: %v", err)
	}

	if err := store.DeleteList(ctx, list.ID); err != nil {
		t.Fatalf("DeleteList failed: %v", err)
	}

	if _, err := store.GetList(ctx, list.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetList after delete = %v, want ErrNotFound", err)
	}
	items, err := store.GetListItems(ctx, list.ID)
	if err != nil {
		t.Fatalf("GetListItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items after delete, want 0", len(items))
	}
}

func TestDeleteListNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	err := store.DeleteList(context.Background(), uuid.NewString())
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("DeleteList error = %v, want ErrNotFound", err)
	}
}
