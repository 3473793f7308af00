package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/nmoreira/tienda-api/internal/domain/product"
)

// ProductGetter resolves product references against the active catalog
// backend. Used to reject adds of products that do not exist.
type ProductGetter interface {
	Get(ctx context.Context, id string) (*product.Product, error)
}

// Service implements cart operations on top of whichever Store is active.
type Service struct {
	store    Store
	products ProductGetter
}

// NewService creates a cart Service.
func NewService(store Store, products ProductGetter) *Service {
	return &Service{store: store, products: products}
}

// Create allocates a new empty cart.
func (s *Service) Create(ctx context.Context) (*Cart, error) {
	c, err := s.store.Create(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// Get returns a cart with its product references populated where the backend
// supports it. Absence surfaces as ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Cart, error) {
	return s.store.Get(ctx, id)
}

// AddProduct adds one unit of pid to the cart. A second add of the same
// product merges into the existing item: the cart keeps a single item per
// distinct product id and its quantity grows by one.
func (s *Service) AddProduct(ctx context.Context, cid, pid string) (*Cart, error) {
	c, err := s.store.Get(ctx, cid)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.Get(ctx, pid); err != nil {
		return nil, err
	}

	if item := c.Find(pid); item != nil {
		item.Quantity++
	} else {
		c.Items = append(c.Items, Item{ProductID: pid, Quantity: 1})
	}

	return s.save(ctx, c)
}

// RemoveProduct drops any item referencing pid. Removing an id that is not
// in the cart is a successful no-op.
func (s *Service) RemoveProduct(ctx context.Context, cid, pid string) (*Cart, error) {
	c, err := s.store.Get(ctx, cid)
	if err != nil {
		return nil, err
	}

	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != pid {
			kept = append(kept, item)
		}
	}
	c.Items = kept

	return s.save(ctx, c)
}

// ReplaceItems swaps the cart's whole item list for the given one. The list
// is trusted as supplied: product references are not checked and duplicate
// ids are not merged.
func (s *Service) ReplaceItems(ctx context.Context, cid string, items []Item) (*Cart, error) {
	c, err := s.store.Get(ctx, cid)
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []Item{}
	}
	c.Items = items

	return s.save(ctx, c)
}

// SetQuantity overwrites the quantity of the item referencing pid. The
// product must already be in the cart.
func (s *Service) SetQuantity(ctx context.Context, cid, pid string, qty int) (*Cart, error) {
	c, err := s.store.Get(ctx, cid)
	if err != nil {
		return nil, err
	}

	item := c.Find(pid)
	if item == nil {
		return nil, ErrProductNotInCart
	}
	item.Quantity = qty

	return s.save(ctx, c)
}

// Empty clears the cart's item list. The cart itself survives.
func (s *Service) Empty(ctx context.Context, cid string) (*Cart, error) {
	c, err := s.store.Get(ctx, cid)
	if err != nil {
		return nil, err
	}
	c.Items = []Item{}

	return s.save(ctx, c)
}

// save persists the mutated cart and re-reads it so callers get the same
// populated view a fresh Get would return.
func (s *Service) save(ctx context.Context, c *Cart) (*Cart, error) {
	if err := s.store.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return s.store.Get(ctx, c.ID)
}
