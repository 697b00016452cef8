package model

import "time"

// ProductAssociation is one undirected edge in the co-purchase graph. The pair
// is stored under canonical ordering (smaller id in ProductAID) so (A,B) and
// (B,A) always resolve to the same record.
type ProductAssociation struct {
	LastUpdated     time.Time
	ProductAID      string
	ProductBID      string
	CoPurchaseCount int
	Confidence      float64
}

// CanonicalPair orders two product ids so the smaller one comes first.
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// AssociatedProduct pairs a product with the strength of its association to
// some query product.
type AssociatedProduct struct {
	Product         Product
	Confidence      float64
	CoPurchaseCount int
}
