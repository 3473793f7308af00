// Package handler exposes the catalog and cart services over JSON HTTP.
// Every response is wrapped in a {status, payload, message} envelope; the
// handlers only translate between HTTP and the domain services, which hold
// all business rules.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/nmoreira/tienda-api/internal/domain/cart"
	"github.com/nmoreira/tienda-api/internal/domain/product"
	"github.com/nmoreira/tienda-api/internal/notify"
)

// Handler holds the dependencies shared by all routes.
type Handler struct {
	catalog *product.Service
	carts   *cart.Service
	hub     *notify.Hub

	// baseURL overrides the scheme+host used in listing navigation links.
	// When empty, links are derived from each request.
	baseURL string
}

// New constructs a Handler.
func New(catalog *product.Service, carts *cart.Service, hub *notify.Hub, baseURL string) *Handler {
	return &Handler{
		catalog: catalog,
		carts:   carts,
		hub:     hub,
		baseURL: baseURL,
	}
}

// Routes registers all API routes on mux. The route shapes (including the
// singular /product/ segment on cart adds) are part of the public API and
// must not be "fixed".
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("GET /api/products/events", h.productEvents)
	mux.HandleFunc("GET /api/products/{pid}", h.getProduct)
	mux.HandleFunc("PUT /api/products/{pid}", h.updateProduct)
	mux.HandleFunc("DELETE /api/products/{pid}", h.deleteProduct)

	mux.HandleFunc("POST /api/carts", h.createCart)
	mux.HandleFunc("GET /api/carts/{cid}", h.getCart)
	mux.HandleFunc("PUT /api/carts/{cid}", h.replaceCartItems)
	mux.HandleFunc("DELETE /api/carts/{cid}", h.emptyCart)
	mux.HandleFunc("POST /api/carts/{cid}/product/{pid}", h.addCartProduct)
	mux.HandleFunc("PUT /api/carts/{cid}/products/{pid}", h.setCartQuantity)
	mux.HandleFunc("DELETE /api/carts/{cid}/products/{pid}", h.removeCartProduct)
}

type envelope struct {
	Status  string `json:"status"`
	Payload any    `json:"payload,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondPayload(w http.ResponseWriter, code int, payload any) {
	writeJSON(w, code, envelope{Status: "success", Payload: payload})
}

func respondError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Status: "error", Message: msg})
}

// respondServiceError maps a domain error to the envelope. notFoundCode is
// the status used for unknown-entity errors: 404 for plain lookups, 400 for
// mutations that reference a missing entity (historical API behaviour,
// preserved deliberately).
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundCode int) {
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrProductNotInCart):
		respondError(w, notFoundCode, rootMessage(err))
		return
	}

	var missing *product.MissingFieldError
	if errors.As(err, &missing) {
		respondError(w, http.StatusBadRequest, missing.Error())
		return
	}
	var invalid *product.InvalidFieldError
	if errors.As(err, &invalid) {
		respondError(w, http.StatusBadRequest, invalid.Error())
		return
	}

	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// rootMessage strips wrap context so the client sees the sentinel's text.
func rootMessage(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}
