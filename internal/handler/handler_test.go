package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoreira/tienda-api/internal/domain/cart"
	"github.com/nmoreira/tienda-api/internal/domain/product"
	"github.com/nmoreira/tienda-api/internal/notify"
	"github.com/nmoreira/tienda-api/internal/storage/file"
)

// --- Helpers ---

type testEnv struct {
	mux *http.ServeMux
	hub *notify.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	products := file.NewProductStore(dir)
	carts := file.NewCartStore(dir)

	hub := notify.NewHub()
	catalog := product.NewService(products, hub)
	cartSvc := cart.NewService(carts, products)

	mux := http.NewServeMux()
	New(catalog, cartSvc, hub, "").Routes(mux)
	return &testEnv{mux: mux, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (status, message string, payload json.RawMessage) {
	t.Helper()

	var env struct {
		Status  string          `json:"status"`
		Payload json.RawMessage `json:"payload"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Status, env.Message, env.Payload
}

func validProductBody() map[string]any {
	return map[string]any{
		"title":       "Camiseta",
		"description": "Camiseta de algodon",
		"code":        "C001",
		"price":       1200.0,
		"status":      true,
		"stock":       25,
		"category":    "ropa",
		"thumbnails":  []string{},
	}
}

func (e *testEnv) createProduct(t *testing.T, body map[string]any) productPayload {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/products", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, _, payload := decodeEnvelope(t, rec)
	var p productPayload
	require.NoError(t, json.Unmarshal(payload, &p))
	return p
}

func (e *testEnv) createCart(t *testing.T) cartPayload {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/carts", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, _, payload := decodeEnvelope(t, rec)
	var c cartPayload
	require.NoError(t, json.Unmarshal(payload, &c))
	return c
}

// --- Product tests ---

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)

	p := env.createProduct(t, validProductBody())
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "C001", p.Code)
	assert.Equal(t, 1200.0, p.Price)
	assert.NotNil(t, p.Thumbnails)
}

func TestCreateProduct_IgnoresClientID(t *testing.T) {
	env := newTestEnv(t)

	body := validProductBody()
	body["id"] = "forged-id"

	p := env.createProduct(t, body)
	assert.NotEqual(t, "forged-id", p.ID)
}

func TestCreateProduct_MissingField(t *testing.T) {
	env := newTestEnv(t)

	body := validProductBody()
	delete(body, "title")

	rec := env.do(t, http.MethodPost, "/api/products", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	status, message, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "error", status)
	assert.Equal(t, "missing field title", message)
}

func TestCreateProduct_StatusFalseAccepted(t *testing.T) {
	env := newTestEnv(t)

	body := validProductBody()
	body["status"] = false
	body["stock"] = 0

	p := env.createProduct(t, body)
	assert.False(t, p.Status)
	assert.Zero(t, p.Stock)
}

func TestCreateProduct_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	status, message, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "error", status)
	assert.Equal(t, "invalid request body", message)
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/products/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	status, message, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "error", status)
	assert.Equal(t, "product not found", message)
}

func TestUpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(t, validProductBody())

	rec := env.do(t, http.MethodPut, "/api/products/"+p.ID, map[string]any{"price": 1500.0})
	require.Equal(t, http.StatusOK, rec.Code)

	_, _, payload := decodeEnvelope(t, rec)
	var updated productPayload
	require.NoError(t, json.Unmarshal(payload, &updated))
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, 1500.0, updated.Price)
	assert.Equal(t, "C001", updated.Code)
}

func TestUpdateProduct_UnknownIDIsBadRequest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/products/missing", map[string]any{"price": 1.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(t, validProductBody())

	rec := env.do(t, http.MethodDelete, "/api/products/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProduct_UnknownIDIsBadRequest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodDelete, "/api/products/missing", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProducts_Pagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 1; i <= 5; i++ {
		body := validProductBody()
		body["code"] = fmt.Sprintf("C%03d", i)
		body["price"] = float64(i * 100)
		env.createProduct(t, body)
	}

	rec := env.do(t, http.MethodGet, "/api/products?limit=2&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.Len(t, resp.Payload, 2)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 2, resp.Page)
	assert.True(t, resp.HasPrevPage)
	assert.True(t, resp.HasNextPage)
	require.NotNil(t, resp.PrevLink)
	assert.Contains(t, *resp.PrevLink, "limit=2&page=1")
	require.NotNil(t, resp.NextLink)
	assert.Contains(t, *resp.NextLink, "limit=2&page=3")
}

func TestListProducts_DefaultsOnMalformedParams(t *testing.T) {
	env := newTestEnv(t)
	env.createProduct(t, validProductBody())

	rec := env.do(t, http.MethodGet, "/api/products?limit=abc&page=-3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Len(t, resp.Payload, 1)
}

func TestListProducts_SortAndFilter(t *testing.T) {
	env := newTestEnv(t)
	for i, tc := range []struct {
		category string
		price    float64
	}{
		{"ropa", 3500},
		{"calzado", 8000},
		{"ropa", 1200},
	} {
		body := validProductBody()
		body["code"] = fmt.Sprintf("C%03d", i+1)
		body["category"] = tc.category
		body["price"] = tc.price
		env.createProduct(t, body)
	}

	rec := env.do(t, http.MethodGet, "/api/products?query=ropa&sort=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Payload, 2)
	assert.Equal(t, 1200.0, resp.Payload[0].Price)
	assert.Equal(t, 3500.0, resp.Payload[1].Price)
}

// --- Cart tests ---

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(t, validProductBody())
	c := env.createCart(t)

	// Two adds of the same product merge into a single item.
	rec := env.do(t, http.MethodPost, "/api/carts/"+c.ID+"/product/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/api/carts/"+c.ID+"/product/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, _, payload := decodeEnvelope(t, rec)
	var got cartPayload
	require.NoError(t, json.Unmarshal(payload, &got))
	require.Len(t, got.Products, 1)
	assert.Equal(t, p.ID, got.Products[0].Product)
	assert.Equal(t, 2, got.Products[0].Quantity)

	// Overwrite the quantity.
	rec = env.do(t, http.MethodPut, "/api/carts/"+c.ID+"/products/"+p.ID, map[string]any{"quantity": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	_, _, payload = decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(payload, &got))
	require.Len(t, got.Products, 1)
	assert.Equal(t, 7, got.Products[0].Quantity)

	// Remove the product.
	rec = env.do(t, http.MethodDelete, "/api/carts/"+c.ID+"/products/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, _, payload = decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Empty(t, got.Products)
}

func TestAddCartProduct_UnknownProductIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCart(t)

	rec := env.do(t, http.MethodPost, "/api/carts/"+c.ID+"/product/ghost", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	status, message, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "error", status)
	assert.Equal(t, "product not found", message)
}

func TestGetCart_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/carts/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	status, message, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "error", status)
	assert.Equal(t, "cart not found", message)
}

func TestReplaceCartItems_TrustsBody(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCart(t)

	rec := env.do(t, http.MethodPut, "/api/carts/"+c.ID, map[string]any{
		"products": []map[string]any{
			{"product": "anything", "quantity": 4},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	_, _, payload := decodeEnvelope(t, rec)
	var got cartPayload
	require.NoError(t, json.Unmarshal(payload, &got))
	require.Len(t, got.Products, 1)
	assert.Equal(t, "anything", got.Products[0].Product)
	assert.Equal(t, 4, got.Products[0].Quantity)
}

func TestSetCartQuantity_MissingQuantityIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(t, validProductBody())
	c := env.createCart(t)

	rec := env.do(t, http.MethodPost, "/api/carts/"+c.ID+"/product/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/carts/"+c.ID+"/products/"+p.ID, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	_, message, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "invalid quantity", message)
}

func TestSetCartQuantity_ProductNotInCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(t, validProductBody())
	c := env.createCart(t)

	rec := env.do(t, http.MethodPut, "/api/carts/"+c.ID+"/products/"+p.ID, map[string]any{"quantity": 2})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	_, message, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "product not in cart", message)
}

func TestEmptyCart_KeepsCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(t, validProductBody())
	c := env.createCart(t)

	rec := env.do(t, http.MethodPost, "/api/carts/"+c.ID+"/product/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/carts/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/carts/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, _, payload := decodeEnvelope(t, rec)
	var got cartPayload
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Empty(t, got.Products)
}

// --- Event stream tests ---

func TestProductEvents_SendsInitialSnapshot(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(t, validProductBody())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/products/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		env.mux.ServeHTTP(rec, req)
		close(done)
	}()

	// Give the handler time to write the snapshot, then disconnect.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event stream handler did not stop on disconnect")
	}

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event: products\n")
	assert.Contains(t, body, p.ID)
}
