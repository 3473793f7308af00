// Package storage selects the active persistence backend. The document store
// is used while it is configured and its connection reports live; otherwise
// every call lands on the file store. The check runs per operation, so the
// effective backend can change mid-session as connection state changes.
package storage

import (
	"context"

	"github.com/nmoreira/tienda-api/internal/domain/cart"
	"github.com/nmoreira/tienda-api/internal/domain/product"
)

// LivenessFunc reports whether the document-store connection is currently
// usable. It must be cheap: it runs on every store operation.
type LivenessFunc func() bool

var (
	_ product.Store = (*ProductSelector)(nil)
	_ cart.Store    = (*CartSelector)(nil)
)

// ProductSelector is a product.Store that routes each call to the primary
// store while live() holds, and to the fallback otherwise. A nil primary
// pins everything to the fallback.
type ProductSelector struct {
	primary  product.Store
	fallback product.Store
	live     LivenessFunc
}

// NewProductSelector builds a selector over the two backends.
func NewProductSelector(primary, fallback product.Store, live LivenessFunc) *ProductSelector {
	return &ProductSelector{primary: primary, fallback: fallback, live: live}
}

func (s *ProductSelector) active() product.Store {
	if s.primary != nil && s.live != nil && s.live() {
		return s.primary
	}
	return s.fallback
}

func (s *ProductSelector) List(ctx context.Context) ([]product.Product, error) {
	return s.active().List(ctx)
}

func (s *ProductSelector) Get(ctx context.Context, id string) (*product.Product, error) {
	return s.active().Get(ctx, id)
}

func (s *ProductSelector) Create(ctx context.Context, p *product.Product) error {
	return s.active().Create(ctx, p)
}

func (s *ProductSelector) Update(ctx context.Context, id string, changes product.Update) (*product.Product, error) {
	return s.active().Update(ctx, id, changes)
}

func (s *ProductSelector) Delete(ctx context.Context, id string) (*product.Product, error) {
	return s.active().Delete(ctx, id)
}

// CartSelector is the cart.Store counterpart of ProductSelector.
type CartSelector struct {
	primary  cart.Store
	fallback cart.Store
	live     LivenessFunc
}

// NewCartSelector builds a selector over the two backends.
func NewCartSelector(primary, fallback cart.Store, live LivenessFunc) *CartSelector {
	return &CartSelector{primary: primary, fallback: fallback, live: live}
}

func (s *CartSelector) active() cart.Store {
	if s.primary != nil && s.live != nil && s.live() {
		return s.primary
	}
	return s.fallback
}

func (s *CartSelector) List(ctx context.Context) ([]cart.Cart, error) {
	return s.active().List(ctx)
}

func (s *CartSelector) Get(ctx context.Context, id string) (*cart.Cart, error) {
	return s.active().Get(ctx, id)
}

func (s *CartSelector) Create(ctx context.Context) (*cart.Cart, error) {
	return s.active().Create(ctx)
}

func (s *CartSelector) Save(ctx context.Context, c *cart.Cart) error {
	return s.active().Save(ctx, c)
}
