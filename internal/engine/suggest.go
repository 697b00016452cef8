package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/llm"
	"github.com/cartwheel-app/cartwheel/internal/model"
	"github.com/cartwheel-app/cartwheel/internal/receipt"
)

// HistoryEntry is the per-product context handed to the generator when asking
// for suggestions.
type HistoryEntry struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	LastBoughtDays int      `json:"last_bought_days_ago"`
	FrequencyDays  *float64 `json:"typical_frequency_days"`
	PurchaseCount  int      `json:"purchase_count"`
	TypicalPrice   *float64 `json:"typical_price"`
}

// Suggestion is one generator-proposed shopping list entry.
type Suggestion struct {
	Name       string
	Reason     string
	Confidence float64
}

// SuggestionStore is the slice of persistence the suggester needs.
type SuggestionStore interface {
	ListRecentlyPurchased(ctx context.Context, limit int) ([]model.Product, error)
}

// Suggester produces generator-backed shopping suggestions from purchase
// history.
type Suggester struct {
	store  SuggestionStore
	client llm.Client
	now    func() time.Time
}

// NewSuggester creates a suggester. The client must not be nil.
func NewSuggester(store SuggestionStore, client llm.Client) *Suggester {
	return &Suggester{store: store, client: client, now: time.Now}
}

// Suggest builds the history context, prompts the generator and parses its
// reply defensively. An unusable reply yields an empty list, not an error;
// only upstream and persistence failures propagate.
func (s *Suggester) Suggest(ctx context.Context, historyLimit int) ([]Suggestion, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: no generator configured", common.ErrUpstreamUnavailable)
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}

	products, err := s.store.ListRecentlyPurchased(ctx, historyLimit)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}

	history := make([]HistoryEntry, 0, len(products))
	now := s.now().UTC()
	for _, product := range products {
		entry := HistoryEntry{
			Name:           product.Name,
			Category:       product.Category,
			LastBoughtDays: -1,
			FrequencyDays:  product.AvgDaysBetween,
			PurchaseCount:  product.PurchaseCount,
			TypicalPrice:   product.TypicalPrice,
		}
		if product.LastPurchasedDate != nil {
			entry.LastBoughtDays = int(now.Sub(*product.LastPurchasedDate).Hours() / 24)
		}
		history = append(history, entry)
	}

	reply, err := s.client.Generate(ctx, buildSuggestionPrompt(history))
	if err != nil {
		return nil, err
	}

	return parseSuggestions(reply), nil
}

// parseSuggestions pulls a suggestion list out of a free-text reply using the
// same tolerant extraction chain as receipts. Malformed entries are dropped
// individually.
func parseSuggestions(reply string) []Suggestion {
	data, ok := receipt.ExtractStructured(reply)
	if !ok {
		return nil
	}

	rawList, _ := data["suggestions"].([]any)
	var suggestions []Suggestion
	for _, raw := range rawList {
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := fields["name"].(string)
		if name == "" {
			continue
		}

		suggestion := Suggestion{Name: name, Confidence: 0.5}
		if reason, ok := fields["reason"].(string); ok {
			suggestion.Reason = reason
		}
		if conf, ok := fields["confidence"].(float64); ok && conf >= 0 && conf <= 1 {
			suggestion.Confidence = conf
		}
		suggestions = append(suggestions, suggestion)
	}

	return suggestions
}
