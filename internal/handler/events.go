package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nmoreira/tienda-api/internal/domain/product"
)

// productEvents streams catalog snapshots as server-sent events. Every new
// subscriber first receives the current listing, then one event per catalog
// mutation for as long as it stays connected.
func (h *Handler) productEvents(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Snapshot before committing to the stream so a backend failure can
	// still produce a regular error response.
	snapshot, err := h.catalog.Snapshot(r.Context())
	if err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}

	ch, cancel := h.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeProductsEvent(w, snapshot); err != nil {
		return
	}
	fl.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			if err := writeProductsEvent(w, snapshot); err != nil {
				return
			}
			fl.Flush()
		}
	}
}

func writeProductsEvent(w http.ResponseWriter, products []product.Product) error {
	data, err := json.Marshal(toProductPayloads(products))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: products\ndata: %s\n\n", data)
	return err
}
