package file

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/nmoreira/tienda-api/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// cartRecord is the persisted shape of a cart in carts.json. Items hold bare
// product ids; the file backend never populates references.
type cartRecord struct {
	ID       string           `json:"id"`
	Products []cartItemRecord `json:"products"`
}

type cartItemRecord struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// CartStore implements cart.Store on a single JSON file.
type CartStore struct {
	path string
	mu   sync.Mutex
}

// NewCartStore returns a CartStore persisting to dir/carts.json.
func NewCartStore(dir string) *CartStore {
	return &CartStore{path: filepath.Join(dir, "carts.json")}
}

// List returns all carts in file order.
func (s *CartStore) List(_ context.Context) ([]cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[cartRecord](s.path)
	if err != nil {
		return nil, err
	}

	carts := make([]cart.Cart, len(records))
	for i, rec := range records {
		carts[i] = rec.toDomain()
	}
	return carts, nil
}

// Get returns the cart with the given id. Items keep bare product ids.
func (s *CartStore) Get(_ context.Context, id string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[cartRecord](s.path)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID == id {
			c := rec.toDomain()
			return &c, nil
		}
	}
	return nil, cart.ErrNotFound
}

// Create appends a new empty cart with a freshly generated UUID.
func (s *CartStore) Create(_ context.Context) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[cartRecord](s.path)
	if err != nil {
		return nil, err
	}

	rec := cartRecord{ID: uuid.New().String(), Products: []cartItemRecord{}}
	records = append(records, rec)
	if err := writeCollection(s.path, records); err != nil {
		return nil, err
	}

	c := rec.toDomain()
	return &c, nil
}

// Save replaces the stored item list of the cart with id c.ID.
func (s *CartStore) Save(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[cartRecord](s.path)
	if err != nil {
		return err
	}

	for i, rec := range records {
		if rec.ID == c.ID {
			records[i] = toCartRecord(*c)
			return writeCollection(s.path, records)
		}
	}
	return cart.ErrNotFound
}

func (rec cartRecord) toDomain() cart.Cart {
	items := make([]cart.Item, len(rec.Products))
	for i, it := range rec.Products {
		items[i] = cart.Item{ProductID: it.Product, Quantity: it.Quantity}
	}
	return cart.Cart{ID: rec.ID, Items: items}
}

func toCartRecord(c cart.Cart) cartRecord {
	items := make([]cartItemRecord, len(c.Items))
	for i, it := range c.Items {
		items[i] = cartItemRecord{Product: it.ProductID, Quantity: it.Quantity}
	}
	return cartRecord{ID: c.ID, Products: items}
}
