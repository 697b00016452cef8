package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/model"
)

type stubSuggestionStore struct {
	products []model.Product
	err      error
}

func (s *stubSuggestionStore) ListRecentlyPurchased(_ context.Context, _ int) ([]model.Product, error) {
	return s.products, s.err
}

func historyProduct(name string, daysAgo int) model.Product {
	last := time.Now().UTC().AddDate(0, 0, -daysAgo)
	avg := 7.0
	return model.Product{
		ID:                name,
		Name:              name,
		Category:          "Dairy",
		PurchaseCount:     4,
		AvgDaysBetween:    &avg,
		LastPurchasedDate: &last,
	}
}

func TestSuggest(t *testing.T) {
	client := &mockClient{reply: `{
		"suggestions": [
			{"name": "Milk", "reason": "usually bought weekly", "confidence": 0.9},
			{"name": "Eggs", "reason": "running low"}
		]
	}`}
	store := &stubSuggestionStore{products: []model.Product{historyProduct("Milk", 6)}}

	suggester := NewSuggester(store, client)
	suggestions, err := suggester.Suggest(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	assert.Equal(t, "Milk", suggestions[0].Name)
	assert.Equal(t, "usually bought weekly", suggestions[0].Reason)
	assert.InDelta(t, 0.9, suggestions[0].Confidence, 1e-9)
	assert.InDelta(t, 0.5, suggestions[1].Confidence, 1e-9, "missing confidence defaults to 0.5")

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], `"name": "Milk"`, "history context reaches the generator")
}

func TestSuggestNoClient(t *testing.T) {
	suggester := NewSuggester(&stubSuggestionStore{}, nil)
	_, err := suggester.Suggest(context.Background(), 10)
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestSuggestEmptyHistory(t *testing.T) {
	client := &mockClient{reply: `{"suggestions": []}`}
	suggester := NewSuggester(&stubSuggestionStore{}, client)

	suggestions, err := suggester.Suggest(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
	assert.Empty(t, client.prompts, "no generator call without history")
}

func TestSuggestStoreError(t *testing.T) {
	wantErr := errors.New("database closed")
	suggester := NewSuggester(&stubSuggestionStore{err: wantErr}, &mockClient{})

	_, err := suggester.Suggest(context.Background(), 10)
	assert.ErrorIs(t, err, wantErr)
}

func TestSuggestGeneratorError(t *testing.T) {
	wantErr := errors.New("rate limited")
	store := &stubSuggestionStore{products: []model.Product{historyProduct("Milk", 6)}}
	suggester := NewSuggester(store, &mockClient{err: wantErr})

	_, err := suggester.Suggest(context.Background(), 10)
	assert.ErrorIs(t, err, wantErr)
}

func TestSuggestUnusableReply(t *testing.T) {
	store := &stubSuggestionStore{products: []model.Product{historyProduct("Milk", 6)}}
	suggester := NewSuggester(store, &mockClient{reply: "no JSON here"})

	suggestions, err := suggester.Suggest(context.Background(), 10)
	require.NoError(t, err, "an unusable reply is empty, not an error")
	assert.Empty(t, suggestions)
}

func TestParseSuggestionsDropsMalformedEntries(t *testing.T) {
	suggestions := parseSuggestions(`{
		"suggestions": [
			{"name": "Milk", "confidence": 0.8},
			{"confidence": 0.9},
			"not an object",
			{"name": "Eggs", "confidence": 7.0}
		]
	}`)

	require.Len(t, suggestions, 2)
	assert.Equal(t, "Milk", suggestions[0].Name)
	assert.Equal(t, "Eggs", suggestions[1].Name)
	assert.InDelta(t, 0.5, suggestions[1].Confidence, 1e-9, "out-of-range confidence falls back to the default")
}
