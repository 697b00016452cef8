package receipt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cartwheel-app/cartwheel/internal/model"
)

// Heuristic parser limits. The fallback never claims high confidence no
// matter how many items it finds.
const (
	fallbackItemConfidence    = 0.6
	fallbackParsingConfidence = 0.5
	maxFallbackItems          = 20
	maxItemNameLength         = 50
	storeNameScanLines        = 5
)

var (
	priceTokenRe = regexp.MustCompile(`\d+\.\d{2}`)
	digitRe      = regexp.MustCompile(`\d`)
)

// Non-item keywords: lines whose derived name mentions these are summary
// rows, not purchases.
var itemStoplist = []string{"total", "tax", "subtotal"}

// ParseFallback extracts what it can from raw receipt text using plain
// pattern matching, with no external calls. It degrades gracefully: garbage
// in yields an empty receipt with baseline confidence, never an error.
func ParseFallback(text string) model.ParsedReceipt {
	lines := strings.Split(text, "\n")

	receipt := model.ParsedReceipt{
		StoreName:         findStoreName(lines),
		ParsingConfidence: fallbackParsingConfidence,
	}

	for _, line := range lines {
		prices := priceTokenRe.FindAllString(line, -1)
		if len(prices) == 0 || len(strings.TrimSpace(line)) <= 5 {
			continue
		}

		name := strings.TrimSpace(priceTokenRe.ReplaceAllString(line, ""))
		if name == "" || onStoplist(name) {
			continue
		}
		if len(name) > maxItemNameLength {
			name = name[:maxItemNameLength]
		}

		price, err := strconv.ParseFloat(prices[0], 64)
		if err != nil {
			continue
		}

		receipt.Items = append(receipt.Items, model.ReceiptItem{
			Name:       name,
			Price:      &price,
			Quantity:   1.0,
			Confidence: fallbackItemConfidence,
		})
		if len(receipt.Items) >= maxFallbackItems {
			break
		}
	}

	receipt.Total = findTotal(lines)

	return receipt
}

// findStoreName takes the first of the initial lines that looks like a name:
// longer than 3 characters and free of digits.
func findStoreName(lines []string) string {
	limit := storeNameScanLines
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 3 && !digitRe.MatchString(trimmed) {
			return trimmed
		}
	}
	return ""
}

// findTotal returns the last price token on the first line mentioning
// "total". The last token is preferred so a grand total beats a subtotal
// mentioned earlier on the same line.
func findTotal(lines []string) *float64 {
	for _, line := range lines {
		if !strings.Contains(strings.ToLower(line), "total") {
			continue
		}
		prices := priceTokenRe.FindAllString(line, -1)
		if len(prices) == 0 {
			continue
		}
		total, err := strconv.ParseFloat(prices[len(prices)-1], 64)
		if err != nil {
			continue
		}
		return &total
	}
	return nil
}

func onStoplist(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range itemStoplist {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
