package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// MissingFieldError indicates a required field was absent from a create request.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %s", e.Field)
}

// InvalidFieldError indicates a field was present but carried an unusable value.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// Product represents a catalog item. The ID is assigned by the storage
// backend on create and never changes afterwards.
type Product struct {
	ID          string
	Title       string
	Description string
	Code        string
	Price       decimal.Decimal
	Status      bool
	Stock       int
	Category    string
	Thumbnails  []string
}

// Update carries a partial set of changes for an existing product. Nil fields
// are left untouched. There is deliberately no ID field: the identifier
// cannot be rewritten through an update.
type Update struct {
	Title       *string
	Description *string
	Code        *string
	Price       *decimal.Decimal
	Status      *bool
	Stock       *int
	Category    *string
	Thumbnails  *[]string
}

// Apply merges the non-nil changes over p.
func (u Update) Apply(p *Product) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Code != nil {
		p.Code = *u.Code
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Thumbnails != nil {
		p.Thumbnails = *u.Thumbnails
	}
}

// Store defines persistence operations for the product catalog. Get, Update
// and Delete return ErrNotFound when no product has the given id.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	// Create persists p and assigns it a store-native identifier.
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id string, changes Update) (*Product, error)
	Delete(ctx context.Context, id string) (*Product, error)
}
