// Package receipt recovers structured receipt data from unreliable free-form
// text. The extraction path parses external generator output defensively; the
// fallback path is a pure text heuristic for when no generator is available.
// Both are pure functions of their input and safe for unlimited concurrency.
package receipt

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/cartwheel-app/cartwheel/internal/model"
)

// Defaults applied while building a receipt from a parsed generic structure.
const (
	defaultItemConfidence    = 0.8
	defaultParsingConfidence = 0.7
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9]+)?\\s*(\\{.*?\\})\\s*```")

// ExtractStructured recovers a JSON object from raw generator output. It never
// fails loudly: the second return value reports whether anything was
// recovered. Attempts run in order and the first parse that succeeds wins:
//
//  1. the trimmed text as-is
//  2. the text with a leading/trailing fence pair stripped
//  3. any fenced block found anywhere in the text
//  4. the span between the first '{' and the last '}'
func ExtractStructured(raw string) (map[string]any, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, false
	}

	if data, ok := tryParse(text); ok {
		return data, true
	}

	if stripped, ok := stripFence(text); ok {
		if data, ok := tryParse(stripped); ok {
			return data, true
		}
	}

	if match := fencedBlockRe.FindStringSubmatch(text); match != nil {
		if data, ok := tryParse(match[1]); ok {
			return data, true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if data, ok := tryParse(text[start : end+1]); ok {
			return data, true
		}
	}

	return nil, false
}

func tryParse(text string) (map[string]any, bool) {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, false
	}
	return data, true
}

// stripFence removes a leading fence marker (optionally carrying a language
// tag) and its closing pair.
func stripFence(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") {
		return "", false
	}

	inner := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		// Drop the rest of the fence line: either a language tag or nothing.
		tag := strings.TrimSpace(inner[:nl])
		if !strings.ContainsAny(tag, "{}") {
			inner = inner[nl+1:]
		}
	}

	inner = strings.TrimSpace(inner)
	inner = strings.TrimSuffix(inner, "```")
	return strings.TrimSpace(inner), true
}

// BuildReceipt validates a parsed generic structure into a ParsedReceipt.
// Every line item is validated independently: a malformed item is dropped
// rather than aborting the extraction, and an empty item list is not an
// error. Top-level numeric fields stay nil when missing; defaulting them to
// zero would imply a false "zero total".
func BuildReceipt(data map[string]any) model.ParsedReceipt {
	receipt := model.ParsedReceipt{
		StoreName:         asString(data["storeName"]),
		Date:              asString(data["date"]),
		Subtotal:          asFloatPtr(data["subtotal"]),
		Tax:               asFloatPtr(data["tax"]),
		Total:             asFloatPtr(data["total"]),
		ParsingConfidence: defaultParsingConfidence,
	}

	if conf := asFloatPtr(data["parsingConfidence"]); conf != nil {
		receipt.ParsingConfidence = clamp01(*conf)
	}

	rawItems, _ := data["items"].([]any)
	for _, rawItem := range rawItems {
		item, ok := buildItem(rawItem)
		if !ok {
			continue
		}
		receipt.Items = append(receipt.Items, item)
	}

	return receipt
}

func buildItem(raw any) (model.ReceiptItem, bool) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return model.ReceiptItem{}, false
	}

	item := model.ReceiptItem{
		Name:       asString(fields["name"]),
		Quantity:   1.0,
		Confidence: defaultItemConfidence,
	}
	if item.Name == "" {
		item.Name = "Unknown"
	}

	// A price key that is present but non-numeric marks the item malformed;
	// an absent or null price is fine.
	if priceRaw, present := fields["price"]; present && priceRaw != nil {
		price := asFloatPtr(priceRaw)
		if price == nil {
			return model.ReceiptItem{}, false
		}
		item.Price = price
	}

	if qty := asFloatPtr(fields["qty"]); qty != nil {
		item.Quantity = *qty
	}
	if conf := asFloatPtr(fields["confidence"]); conf != nil {
		item.Confidence = clamp01(*conf)
	}

	return item, true
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asFloatPtr coerces JSON numbers and numeric strings; anything else is nil.
func asFloatPtr(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
