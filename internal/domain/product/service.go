package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier receives the full current listing after every catalog mutation.
// Delivery is best-effort; the service never waits for subscribers.
type Notifier interface {
	Publish(products []Product)
}

// Draft is the input for creating a product. Pointer fields distinguish
// "absent" from zero values, so status=false and stock=0 still count as
// present.
type Draft struct {
	Title       *string
	Description *string
	Code        *string
	Price       *decimal.Decimal
	Status      *bool
	Stock       *int
	Category    *string
	Thumbnails  []string
}

// Service implements the catalog operations on top of whichever Store is
// active. A nil notifier disables change broadcasts.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService creates a catalog Service.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Add validates the draft, persists the new product, and broadcasts the
// updated listing. Thumbnails default to an empty sequence.
func (s *Service) Add(ctx context.Context, d Draft) (*Product, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	p := &Product{
		Title:       *d.Title,
		Description: *d.Description,
		Code:        *d.Code,
		Price:       *d.Price,
		Status:      *d.Status,
		Stock:       *d.Stock,
		Category:    *d.Category,
		Thumbnails:  d.Thumbnails,
	}
	if p.Thumbnails == nil {
		p.Thumbnails = []string{}
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}

	s.broadcast(ctx)
	return p, nil
}

// Update shallow-merges changes over the stored product and broadcasts the
// updated listing. The identifier cannot change: Update carries no ID field.
func (s *Service) Update(ctx context.Context, id string, changes Update) (*Product, error) {
	if changes.Price != nil && changes.Price.IsNegative() {
		return nil, &InvalidFieldError{Field: "price", Reason: "must not be negative"}
	}
	if changes.Stock != nil && *changes.Stock < 0 {
		return nil, &InvalidFieldError{Field: "stock", Reason: "must not be negative"}
	}

	p, err := s.store.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx)
	return p, nil
}

// Delete removes the product and returns the removed record.
func (s *Service) Delete(ctx context.Context, id string) (*Product, error) {
	p, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx)
	return p, nil
}

// Get returns a single product. Absence surfaces as ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.store.Get(ctx, id)
}

// Snapshot returns the full current listing in store order.
func (s *Service) Snapshot(ctx context.Context) ([]Product, error) {
	return s.store.List(ctx)
}

func (d Draft) validate() error {
	// Checked in a fixed order so the error always names the first
	// missing field, matching the API's historical behaviour.
	for _, f := range []struct {
		name    string
		present bool
	}{
		{"title", d.Title != nil},
		{"description", d.Description != nil},
		{"code", d.Code != nil},
		{"price", d.Price != nil},
		{"status", d.Status != nil},
		{"stock", d.Stock != nil},
		{"category", d.Category != nil},
	} {
		if !f.present {
			return &MissingFieldError{Field: f.name}
		}
	}
	if d.Price.IsNegative() {
		return &InvalidFieldError{Field: "price", Reason: "must not be negative"}
	}
	if *d.Stock < 0 {
		return &InvalidFieldError{Field: "stock", Reason: "must not be negative"}
	}
	return nil
}

// broadcast pushes the full current listing to the notifier without blocking
// the mutation's response path. Failures are logged and dropped.
func (s *Service) broadcast(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		products, err := s.store.List(ctx)
		if err != nil {
			zctx.From(ctx).Warn("Listing snapshot for broadcast failed", zap.Error(err))
			return
		}
		s.notifier.Publish(products)
	}()
}
