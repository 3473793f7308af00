package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/nmoreira/tienda-api/internal/domain/product"
)

// productPayload is the wire shape of a product.
type productPayload struct {
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

// productInput is the request body for create and update. Pointer fields
// keep absent and zero-valued fields apart, and there is no id field: a
// client-supplied id is silently dropped.
type productInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Code        *string   `json:"code"`
	Price       *float64  `json:"price"`
	Status      *bool     `json:"status"`
	Stock       *int      `json:"stock"`
	Category    *string   `json:"category"`
	Thumbnails  *[]string `json:"thumbnails"`
}

// listResponse is the flattened envelope for paginated listings.
type listResponse struct {
	Status      string           `json:"status"`
	Payload     []productPayload `json:"payload"`
	TotalPages  int              `json:"totalPages"`
	PrevPage    *int             `json:"prevPage"`
	NextPage    *int             `json:"nextPage"`
	Page        int              `json:"page"`
	HasPrevPage bool             `json:"hasPrevPage"`
	HasNextPage bool             `json:"hasNextPage"`
	PrevLink    *string          `json:"prevLink"`
	NextLink    *string          `json:"nextLink"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := product.ListOptions{
		Limit: intParam(q.Get("limit"), product.DefaultLimit),
		Page:  intParam(q.Get("page"), 1),
		Sort:  q.Get("sort"),
		Query: q.Get("query"),
	}

	page, err := h.catalog.List(r.Context(), opts)
	if err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}

	prevLink, nextLink := pageLinks(h.listingBaseURL(r), page, opts.Limit, opts.Sort, opts.Query)
	writeJSON(w, http.StatusOK, listResponse{
		Status:      "success",
		Payload:     toProductPayloads(page.Items),
		TotalPages:  page.TotalPages,
		PrevPage:    page.PrevPage,
		NextPage:    page.NextPage,
		Page:        page.Page,
		HasPrevPage: page.HasPrev,
		HasNextPage: page.HasNext,
		PrevLink:    prevLink,
		NextLink:    nextLink,
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), r.PathValue("pid"))
	if err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondPayload(w, http.StatusOK, toProductPayload(*p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft := product.Draft{
		Title:       in.Title,
		Description: in.Description,
		Code:        in.Code,
		Price:       decimalPtr(in.Price),
		Status:      in.Status,
		Stock:       in.Stock,
		Category:    in.Category,
	}
	if in.Thumbnails != nil {
		draft.Thumbnails = *in.Thumbnails
	}

	p, err := h.catalog.Add(r.Context(), draft)
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	respondPayload(w, http.StatusCreated, toProductPayload(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changes := product.Update{
		Title:       in.Title,
		Description: in.Description,
		Code:        in.Code,
		Price:       decimalPtr(in.Price),
		Status:      in.Status,
		Stock:       in.Stock,
		Category:    in.Category,
		Thumbnails:  in.Thumbnails,
	}

	p, err := h.catalog.Update(r.Context(), r.PathValue("pid"), changes)
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	respondPayload(w, http.StatusOK, toProductPayload(*p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Delete(r.Context(), r.PathValue("pid"))
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	respondPayload(w, http.StatusOK, toProductPayload(*p))
}

func toProductPayload(p product.Product) productPayload {
	thumbs := p.Thumbnails
	if thumbs == nil {
		thumbs = []string{}
	}
	return productPayload{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Code:        p.Code,
		Price:       p.Price.InexactFloat64(),
		Status:      p.Status,
		Stock:       p.Stock,
		Category:    p.Category,
		Thumbnails:  thumbs,
	}
}

func toProductPayloads(products []product.Product) []productPayload {
	out := make([]productPayload, len(products))
	for i, p := range products {
		out[i] = toProductPayload(p)
	}
	return out
}

// intParam parses a positive integer query parameter, falling back to def
// for absent or malformed values.
func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}
