package file

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nmoreira/tienda-api/internal/domain/product"
)

var _ product.Store = (*ProductStore)(nil)

// productRecord is the persisted shape of a product in products.json.
type productRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Price       float64  `json:"price"`
	Status      bool     `json:"status"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Thumbnails  []string `json:"thumbnails"`
}

// ProductStore implements product.Store on a single JSON file.
type ProductStore struct {
	path string
	mu   sync.Mutex
}

// NewProductStore returns a ProductStore persisting to dir/products.json.
func NewProductStore(dir string) *ProductStore {
	return &ProductStore{path: filepath.Join(dir, "products.json")}
}

// List returns all products in file order.
func (s *ProductStore) List(_ context.Context) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[productRecord](s.path)
	if err != nil {
		return nil, err
	}

	products := make([]product.Product, len(records))
	for i, rec := range records {
		products[i] = rec.toDomain()
	}
	return products, nil
}

// Get returns the product with the given id.
func (s *ProductStore) Get(_ context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[productRecord](s.path)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID == id {
			p := rec.toDomain()
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

// Create appends p with a freshly generated UUID and rewrites the file.
func (s *ProductStore) Create(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[productRecord](s.path)
	if err != nil {
		return err
	}

	p.ID = uuid.New().String()
	records = append(records, toProductRecord(*p))
	return writeCollection(s.path, records)
}

// Update merges changes over the stored record and rewrites the file.
func (s *ProductStore) Update(_ context.Context, id string, changes product.Update) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[productRecord](s.path)
	if err != nil {
		return nil, err
	}

	for i, rec := range records {
		if rec.ID != id {
			continue
		}
		p := rec.toDomain()
		changes.Apply(&p)
		records[i] = toProductRecord(p)
		if err := writeCollection(s.path, records); err != nil {
			return nil, err
		}
		return &p, nil
	}
	return nil, product.ErrNotFound
}

// Delete removes the record from the file and returns it.
func (s *ProductStore) Delete(_ context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[productRecord](s.path)
	if err != nil {
		return nil, err
	}

	for i, rec := range records {
		if rec.ID != id {
			continue
		}
		removed := rec.toDomain()
		records = append(records[:i], records[i+1:]...)
		if err := writeCollection(s.path, records); err != nil {
			return nil, err
		}
		return &removed, nil
	}
	return nil, product.ErrNotFound
}

func (rec productRecord) toDomain() product.Product {
	thumbs := rec.Thumbnails
	if thumbs == nil {
		thumbs = []string{}
	}
	return product.Product{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Code:        rec.Code,
		Price:       decimal.NewFromFloat(rec.Price),
		Status:      rec.Status,
		Stock:       rec.Stock,
		Category:    rec.Category,
		Thumbnails:  thumbs,
	}
}

func toProductRecord(p product.Product) productRecord {
	return productRecord{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Code:        p.Code,
		Price:       p.Price.InexactFloat64(),
		Status:      p.Status,
		Stock:       p.Stock,
		Category:    p.Category,
		Thumbnails:  p.Thumbnails,
	}
}
