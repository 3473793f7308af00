package product

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// DefaultLimit is the page size used when the caller does not supply one.
const DefaultLimit = 10

// Sort directions for price ordering. Any other value keeps store order.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListOptions controls filtering, ordering and pagination of a listing.
type ListOptions struct {
	Limit int
	Page  int
	Sort  string
	Query string
}

// Page is one page of a filtered listing together with navigation metadata.
// PrevPage and NextPage are nil when no such page exists.
type Page struct {
	Items      []Product
	TotalPages int
	Page       int
	PrevPage   *int
	NextPage   *int
	HasPrev    bool
	HasNext    bool
}

// List reads the full catalog from the active store and applies filter, sort
// and pagination in memory. Both backends share these exact semantics; the
// store only has to produce its records in a stable order.
func (s *Service) List(ctx context.Context, opts ListOptions) (*Page, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	results := filterByQuery(all, opts.Query)
	results = sortByPrice(results, opts.Sort)
	return paginate(results, opts.Limit, opts.Page), nil
}

// filterByQuery keeps products whose category contains q case-insensitively,
// or whose status's string form ("true"/"false") equals q exactly.
func filterByQuery(all []Product, q string) []Product {
	if q == "" {
		return all
	}
	q = strings.ToLower(q)

	results := make([]Product, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Category), q) || strconv.FormatBool(p.Status) == q {
			results = append(results, p)
		}
	}
	return results
}

// sortByPrice orders by price for SortAsc/SortDesc; any other direction
// preserves the incoming order. The sort is stable so products with equal
// prices keep their store order.
func sortByPrice(items []Product, dir string) []Product {
	if dir != SortAsc && dir != SortDesc {
		return items
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Product) int {
		c := a.Price.Cmp(b.Price)
		if dir == SortDesc {
			return -c
		}
		return c
	})
	return sorted
}

// paginate slices one page out of items. The requested page is clamped to
// [1, totalPages], and totalPages is never below 1 even for an empty result.
func paginate(items []Product, limit, page int) *Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page < 1 {
		page = 1
	}

	totalPages := (len(items) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * limit
	end := min(start+limit, len(items))

	pg := &Page{
		Items:      items[start:end],
		TotalPages: totalPages,
		Page:       page,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	if pg.HasPrev {
		prev := page - 1
		pg.PrevPage = &prev
	}
	if pg.HasNext {
		next := page + 1
		pg.NextPage = &next
	}
	return pg
}
