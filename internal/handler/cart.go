package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nmoreira/tienda-api/internal/domain/cart"
)

// cartPayload is the wire shape of a cart.
type cartPayload struct {
	ID       string            `json:"id"`
	Products []cartItemPayload `json:"products"`
}

type cartItemPayload struct {
	// Product is the bare product id, or the full product record when the
	// backend populated the reference.
	Product  any `json:"product"`
	Quantity int `json:"quantity"`
}

// cartItemsInput is the body of a whole-list replace.
type cartItemsInput struct {
	Products []struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	} `json:"products"`
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Create(r.Context())
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	respondPayload(w, http.StatusCreated, toCartPayload(*c))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), r.PathValue("cid"))
	if err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondPayload(w, http.StatusOK, toCartPayload(*c))
}

func (h *Handler) addCartProduct(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.AddProduct(r.Context(), r.PathValue("cid"), r.PathValue("pid"))
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	respondPayload(w, http.StatusOK, toCartPayload(*c))
}

func (h *Handler) removeCartProduct(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveProduct(r.Context(), r.PathValue("cid"), r.PathValue("pid"))
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	respondPayload(w, http.StatusOK, toCartPayload(*c))
}

func (h *Handler) replaceCartItems(w http.ResponseWriter, r *http.Request) {
	var in cartItemsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]cart.Item, len(in.Products))
	for i, it := range in.Products {
		items[i] = cart.Item{ProductID: it.Product, Quantity: it.Quantity}
	}

	c, err := h.carts.ReplaceItems(r.Context(), r.PathValue("cid"), items)
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	respondPayload(w, http.StatusOK, toCartPayload(*c))
}

func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid quantity")
		return
	}

	c, err := h.carts.SetQuantity(r.Context(), r.PathValue("cid"), r.PathValue("pid"), *in.Quantity)
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	respondPayload(w, http.StatusOK, toCartPayload(*c))
}

func (h *Handler) emptyCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Empty(r.Context(), r.PathValue("cid"))
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	respondPayload(w, http.StatusOK, toCartPayload(*c))
}

func toCartPayload(c cart.Cart) cartPayload {
	items := make([]cartItemPayload, len(c.Items))
	for i, it := range c.Items {
		items[i] = cartItemPayload{Product: it.ProductID, Quantity: it.Quantity}
		if it.Product != nil {
			items[i].Product = toProductPayload(*it.Product)
		}
	}
	return cartPayload{ID: c.ID, Products: items}
}
