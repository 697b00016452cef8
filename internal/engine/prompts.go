package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Receipt OCR text is truncated before prompting to bound token usage.
const maxOCRPromptChars = 2000

// buildReceiptPrompt asks the generator for a strict-JSON structured receipt.
func buildReceiptPrompt(ocrText string) string {
	var sb strings.Builder

	sb.WriteString(`You are an expert receipt parser. Analyze this receipt OCR text and extract structured information.

CRITICAL: respond with ONLY valid JSON. No markdown, no explanation, no preamble.

Your response must be a single JSON object with this exact structure:
{
  "storeName": "string or null",
  "date": "YYYY-MM-DD or null",
  "items": [
    {"name": "item name", "price": 12.99, "qty": 1.0, "confidence": 0.95}
  ],
  "subtotal": 45.67,
  "tax": 3.65,
  "total": 49.32,
  "parsingConfidence": 0.90
}

Parsing rules:
1. Store name: extract from the top of the receipt.
2. Date: normalize to YYYY-MM-DD.
3. Items: strip codes and decorations like **** from names.
4. Price must always be the price of ONE single unit. When a line shows a
   quantity and a line total, divide to recover the unit price; when it shows
   "qty @ unit total", verify qty * unit matches the total and keep the unit.
`)

	if ocrText != "" {
		text := ocrText
		if len(text) > maxOCRPromptChars {
			text = text[:maxOCRPromptChars]
		}
		sb.WriteString("\nOCR extracted text:\n```\n")
		sb.WriteString(text)
		sb.WriteString("\n```\n")
	}

	sb.WriteString("\nNow output ONLY the JSON object, nothing else.")

	return sb.String()
}

// buildSuggestionPrompt asks the generator for shopping suggestions given the
// purchase history context.
func buildSuggestionPrompt(history []HistoryEntry) string {
	context, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		context = []byte("[]")
	}

	return fmt.Sprintf(`You are a shopping assistant. Based on this purchase history, suggest products the user likely needs soon.

Purchase history (days/frequencies are in days):
%s

Respond with ONLY valid JSON, a single object of this shape:
{
  "suggestions": [
    {"name": "product name", "reason": "short human-readable reason", "confidence": 0.8}
  ]
}

Suggest at most 10 products. Prefer products whose typical repurchase interval has nearly elapsed. Output ONLY the JSON object.`, context)
}
