package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/nmoreira/tienda-api/internal/domain/product"
)

// Sentinel errors for cart operations.
var (
	ErrNotFound         = errors.New("cart not found")
	ErrProductNotInCart = errors.New("product not in cart")
)

// Item is one line of a cart: a weak reference to a product plus a quantity.
// The cart does not own the product's lifecycle; a product may be deleted
// while carts still reference its id.
type Item struct {
	ProductID string
	Quantity  int

	// Product holds the resolved record when the backend populates
	// references at read time. Nil for file-backed reads.
	Product *product.Product
}

// Cart is an identified, ordered list of items. A product id appears in at
// most one item; repeat adds merge into that item's quantity.
type Cart struct {
	ID    string
	Items []Item
}

// Find returns a pointer to the item referencing pid, or nil.
func (c *Cart) Find(pid string) *Item {
	for i := range c.Items {
		if c.Items[i].ProductID == pid {
			return &c.Items[i]
		}
	}
	return nil
}

// Store defines persistence operations for carts. Get and Save return
// ErrNotFound when no cart has the given id.
type Store interface {
	List(ctx context.Context) ([]Cart, error)
	// Get returns the cart, with product references populated when the
	// backend supports it.
	Get(ctx context.Context, id string) (*Cart, error)
	// Create persists a new empty cart and returns it with its assigned id.
	Create(ctx context.Context) (*Cart, error)
	// Save replaces the stored item list of an existing cart.
	Save(ctx context.Context, c *Cart) error
}
