package model

// ReceiptItem is one line item recovered from a receipt.
type ReceiptItem struct {
	Price      *float64
	Name       string
	Quantity   float64
	Confidence float64
}

// ParsedReceipt is the transient result of receipt extraction. It is consumed
// by the calling flow and never persisted as-is. Nil numeric fields mean
// "not recovered", which is deliberately distinct from zero.
type ParsedReceipt struct {
	Subtotal          *float64
	Tax               *float64
	Total             *float64
	StoreName         string
	Date              string
	Items             []ReceiptItem
	ParsingConfidence float64
}

// Empty reports whether nothing at all was recovered.
func (r ParsedReceipt) Empty() bool {
	return r.StoreName == "" && r.Date == "" && len(r.Items) == 0 &&
		r.Subtotal == nil && r.Tax == nil && r.Total == nil
}

// ReceiptMethod identifies which parsing path produced a receipt.
type ReceiptMethod string

const (
	// MethodGenerator means the external model produced the structure.
	MethodGenerator ReceiptMethod = "generator"
	// MethodFallback means the heuristic text parser was used.
	MethodFallback ReceiptMethod = "fallback"
)
