// Package storage provides the data persistence layer for the cartwheel application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cartwheel-app/cartwheel/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidProduct   = errors.New("invalid product")
	ErrInvalidPurchase  = errors.New("invalid purchase event")
	ErrInvalidShareLink = errors.New("invalid share link")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateProduct validates a product.
func validateProduct(product *model.Product) error {
	if product == nil {
		return fmt.Errorf("%w: product", ErrNilParameter)
	}
	if product.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidProduct)
	}
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProduct)
	}
	if product.PurchaseCount < 0 {
		return fmt.Errorf("%w: negative purchase count", ErrInvalidProduct)
	}
	return nil
}

// validatePurchaseEvent validates a purchase event.
func validatePurchaseEvent(event *model.PurchaseEvent) error {
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if event.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidPurchase)
	}
	if event.ProductID == "" {
		return fmt.Errorf("%w: missing product ID", ErrInvalidPurchase)
	}
	if event.PurchaseDate.IsZero() {
		return fmt.Errorf("%w: missing purchase date", ErrInvalidPurchase)
	}
	if event.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity", ErrInvalidPurchase)
	}
	return nil
}

// validateShareLink validates a share link.
func validateShareLink(link *model.ShareLink) error {
	if link == nil {
		return fmt.Errorf("%w: link", ErrNilParameter)
	}
	if link.ShareID == "" {
		return fmt.Errorf("%w: missing share ID", ErrInvalidShareLink)
	}
	if link.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: missing expiry", ErrInvalidShareLink)
	}
	return nil
}
