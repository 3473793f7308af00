//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestCartLifecycle(t *testing.T) {
	p := createProduct(t, "CART-001", 1200)
	c := createCart(t)

	// Repeat adds merge into one item.
	for i := 0; i < 2; i++ {
		resp := do(t, http.MethodPost, "/api/carts/"+c.ID+"/product/"+p.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add product: expected 200, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doGet(t, "/api/carts/"+c.ID)
	got := decodeJSON[envelope[cartResponse]](t, resp)
	resp.Body.Close()
	if len(got.Payload.Products) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Payload.Products))
	}
	if got.Payload.Products[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", got.Payload.Products[0].Quantity)
	}

	// Against MongoDB the stored reference comes back as the full record.
	var populated productResponse
	if err := json.Unmarshal(got.Payload.Products[0].Product, &populated); err == nil && populated.ID != "" {
		if populated.Code != "CART-001" {
			t.Fatalf("populated product has code %q", populated.Code)
		}
	}

	// Overwrite quantity, then remove.
	resp = do(t, http.MethodPut, "/api/carts/"+c.ID+"/products/"+p.ID, map[string]any{"quantity": 5})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set quantity: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = do(t, http.MethodDelete, "/api/carts/"+c.ID+"/products/"+p.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove product: expected 200, got %d", resp.StatusCode)
	}
	emptied := decodeJSON[envelope[cartResponse]](t, resp)
	resp.Body.Close()
	if len(emptied.Payload.Products) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(emptied.Payload.Products))
	}
}

func TestCartUnknownProduct(t *testing.T) {
	c := createCart(t)

	resp := do(t, http.MethodPost, "/api/carts/"+c.ID+"/product/000000000000000000000000", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	env := decodeJSON[envelope[cartResponse]](t, resp)
	if env.Status != "error" {
		t.Fatalf("expected error status, got %q", env.Status)
	}
}

func TestCartUnknownCartIs404(t *testing.T) {
	resp := doGet(t, "/api/carts/000000000000000000000000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
