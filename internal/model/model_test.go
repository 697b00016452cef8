package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPair(t *testing.T) {
	tests := []struct {
		name  string
		a     string
		b     string
		wantA string
		wantB string
	}{
		{name: "already ordered", a: "a1", b: "b2", wantA: "a1", wantB: "b2"},
		{name: "reversed", a: "b2", b: "a1", wantA: "a1", wantB: "b2"},
		{name: "equal ids", a: "x", b: "x", wantA: "x", wantB: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotA, gotB := CanonicalPair(tt.a, tt.b)
			assert.Equal(t, tt.wantA, gotA)
			assert.Equal(t, tt.wantB, gotB)

			// Both argument orders resolve to the same pair.
			flipA, flipB := CanonicalPair(tt.b, tt.a)
			assert.Equal(t, gotA, flipA)
			assert.Equal(t, gotB, flipB)
		})
	}
}

func TestShareLinkExpired(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	link := ShareLink{ExpiresAt: now}

	assert.False(t, link.Expired(now.Add(-time.Second)))
	assert.False(t, link.Expired(now), "expiry instant itself is still valid")
	assert.True(t, link.Expired(now.Add(time.Second)))
}

func TestParsedReceiptEmpty(t *testing.T) {
	assert.True(t, ParsedReceipt{}.Empty())

	total := 12.50
	assert.False(t, ParsedReceipt{StoreName: "Corner Market"}.Empty())
	assert.False(t, ParsedReceipt{Date: "2026-04-01"}.Empty())
	assert.False(t, ParsedReceipt{Items: []ReceiptItem{{Name: "Milk"}}}.Empty())
	assert.False(t, ParsedReceipt{Total: &total}.Empty())
}

func TestNewProductDefaults(t *testing.T) {
	p := NewProduct("Milk", "", nil)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, DefaultCategory, p.Category)
	assert.Zero(t, p.PurchaseCount, "count tracks explicit purchase events only")
	assert.Nil(t, p.TypicalPrice)

	q := NewProduct("Eggs", "Dairy", nil)
	assert.Equal(t, "Dairy", q.Category)
	assert.NotEqual(t, p.ID, q.ID)
}

func TestProductUpdateIsEmpty(t *testing.T) {
	assert.True(t, ProductUpdate{}.IsEmpty())

	name := "Whole Milk"
	assert.False(t, ProductUpdate{Name: &name}.IsEmpty())
}
