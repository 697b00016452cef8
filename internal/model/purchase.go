package model

import "time"

// PurchaseEvent is one recorded purchase of a product. Events are append-only:
// once written they are never updated or deleted, forming the audit trail for
// the product's derived statistics.
type PurchaseEvent struct {
	PurchaseDate time.Time
	Price        *float64
	ID           string
	ProductID    string
	StoreName    string
	Quantity     float64
}

// Prediction is one "needed soon" entry emitted by the repurchase predictor.
type Prediction struct {
	Product           Product
	Confidence        float64
	DaysSincePurchase float64
	ExpectedDays      float64
}
