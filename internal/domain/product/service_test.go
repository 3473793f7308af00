package product

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockStore struct {
	items   []Product
	nextID  int
	listErr error
}

func (m *mockStore) List(_ context.Context) ([]Product, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Product, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *mockStore) Get(_ context.Context, id string) (*Product, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			p := m.items[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockStore) Create(_ context.Context, p *Product) error {
	m.nextID++
	p.ID = fmt.Sprintf("p%d", m.nextID)
	m.items = append(m.items, *p)
	return nil
}

func (m *mockStore) Update(_ context.Context, id string, changes Update) (*Product, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			changes.Apply(&m.items[i])
			p := m.items[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockStore) Delete(_ context.Context, id string) (*Product, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			p := m.items[i]
			m.items = append(m.items[:i], m.items[i+1:]...)
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

type mockNotifier struct {
	published chan []Product
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{published: make(chan []Product, 8)}
}

func (m *mockNotifier) Publish(products []Product) {
	m.published <- products
}

func (m *mockNotifier) wait(t *testing.T) []Product {
	t.Helper()
	select {
	case products := <-m.published:
		return products
	case <-time.After(2 * time.Second):
		t.Fatal("no listing published")
		return nil
	}
}

// --- Helpers ---

func ptr[T any](v T) *T { return &v }

func newDraft(code string, price int64) Draft {
	return Draft{
		Title:       ptr("Widget " + code),
		Description: ptr("a widget"),
		Code:        ptr(code),
		Price:       ptr(decimal.NewFromInt(price)),
		Status:      ptr(true),
		Stock:       ptr(5),
		Category:    ptr("widgets"),
	}
}

func newTestProduct(id, category string, price int64, status bool) Product {
	return Product{
		ID:          id,
		Title:       "Item " + id,
		Description: "test item",
		Code:        "CODE-" + id,
		Price:       decimal.NewFromInt(price),
		Status:      status,
		Stock:       3,
		Category:    category,
		Thumbnails:  []string{},
	}
}

func storeWith(products ...Product) *mockStore {
	return &mockStore{items: products}
}

// --- Tests ---

func TestAdd_AssignsIDAndDefaults(t *testing.T) {
	store := storeWith()
	svc := NewService(store, nil)

	p, err := svc.Add(context.Background(), newDraft("C100", 1200))
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "C100", p.Code)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(1200)))
	require.NotNil(t, p.Thumbnails)
	assert.Empty(t, p.Thumbnails)

	stored, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ID)
}

func TestAdd_MissingFieldNamesFirstAbsent(t *testing.T) {
	svc := NewService(storeWith(), nil)

	d := newDraft("C100", 1200)
	d.Description = nil
	d.Status = nil

	_, err := svc.Add(context.Background(), d)

	var mfErr *MissingFieldError
	require.ErrorAs(t, err, &mfErr)
	assert.Equal(t, "description", mfErr.Field)
}

func TestAdd_StatusFalseIsPresent(t *testing.T) {
	svc := NewService(storeWith(), nil)

	d := newDraft("C100", 1200)
	d.Status = ptr(false)
	d.Stock = ptr(0)

	p, err := svc.Add(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, p.Status)
	assert.Zero(t, p.Stock)
}

func TestAdd_NegativePrice(t *testing.T) {
	svc := NewService(storeWith(), nil)

	d := newDraft("C100", 1200)
	d.Price = ptr(decimal.NewFromInt(-1))

	_, err := svc.Add(context.Background(), d)

	var ifErr *InvalidFieldError
	require.ErrorAs(t, err, &ifErr)
	assert.Equal(t, "price", ifErr.Field)
}

func TestAdd_BroadcastsListing(t *testing.T) {
	notifier := newMockNotifier()
	svc := NewService(storeWith(), notifier)

	_, err := svc.Add(context.Background(), newDraft("C100", 1200))
	require.NoError(t, err)

	published := notifier.wait(t)
	require.Len(t, published, 1)
	assert.Equal(t, "C100", published[0].Code)
}

func TestUpdate_MergesChanges(t *testing.T) {
	p := newTestProduct("p1", "widgets", 1200, true)
	svc := NewService(storeWith(p), nil)

	got, err := svc.Update(context.Background(), "p1", Update{
		Price: ptr(decimal.NewFromInt(1500)),
	})
	require.NoError(t, err)

	assert.Equal(t, "p1", got.ID)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, p.Code, got.Code)
	assert.Equal(t, p.Stock, got.Stock)
}

func TestUpdate_NegativeStock(t *testing.T) {
	svc := NewService(storeWith(newTestProduct("p1", "widgets", 1200, true)), nil)

	_, err := svc.Update(context.Background(), "p1", Update{Stock: ptr(-1)})

	var ifErr *InvalidFieldError
	require.ErrorAs(t, err, &ifErr)
	assert.Equal(t, "stock", ifErr.Field)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(storeWith(), nil)

	_, err := svc.Update(context.Background(), "missing", Update{Stock: ptr(1)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_ReturnsRemoved(t *testing.T) {
	svc := NewService(storeWith(newTestProduct("p1", "widgets", 1200, true)), nil)

	removed, err := svc.Delete(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", removed.ID)

	_, err = svc.Get(context.Background(), "p1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_FilterByCategorySubstring(t *testing.T) {
	svc := NewService(storeWith(
		newTestProduct("p1", "ropa", 1200, true),
		newTestProduct("p2", "calzado", 8000, true),
		newTestProduct("p3", "Ropa deportiva", 3500, true),
	), nil)

	page, err := svc.List(context.Background(), ListOptions{Query: "rop"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "p1", page.Items[0].ID)
	assert.Equal(t, "p3", page.Items[1].ID)
}

func TestList_FilterByStatus(t *testing.T) {
	svc := NewService(storeWith(
		newTestProduct("p1", "ropa", 1200, true),
		newTestProduct("p2", "calzado", 8000, false),
	), nil)

	page, err := svc.List(context.Background(), ListOptions{Query: "false"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p2", page.Items[0].ID)
}

func TestList_SortByPrice(t *testing.T) {
	svc := NewService(storeWith(
		newTestProduct("p1", "ropa", 3500, true),
		newTestProduct("p2", "ropa", 1200, true),
		newTestProduct("p3", "ropa", 8000, true),
	), nil)

	page, err := svc.List(context.Background(), ListOptions{Sort: SortDesc})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "p3", page.Items[0].ID)
	assert.Equal(t, "p1", page.Items[1].ID)
	assert.Equal(t, "p2", page.Items[2].ID)
}

func TestList_Pagination(t *testing.T) {
	products := make([]Product, 0, 25)
	for i := 1; i <= 25; i++ {
		products = append(products, newTestProduct(fmt.Sprintf("p%02d", i), "ropa", int64(i*100), true))
	}
	svc := NewService(storeWith(products...), nil)

	page, err := svc.List(context.Background(), ListOptions{Limit: 10, Page: 3})
	require.NoError(t, err)

	assert.Len(t, page.Items, 5)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.Page)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)
	require.NotNil(t, page.PrevPage)
	assert.Equal(t, 2, *page.PrevPage)
	assert.Nil(t, page.NextPage)
}

func TestList_PageClampedToLastPage(t *testing.T) {
	svc := NewService(storeWith(
		newTestProduct("p1", "ropa", 1200, true),
		newTestProduct("p2", "ropa", 3500, true),
	), nil)

	page, err := svc.List(context.Background(), ListOptions{Limit: 1, Page: 99})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p2", page.Items[0].ID)
}

func TestList_EmptyCatalog(t *testing.T) {
	svc := NewService(storeWith(), nil)

	page, err := svc.List(context.Background(), ListOptions{})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)
}
