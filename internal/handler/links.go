package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nmoreira/tienda-api/internal/domain/product"
)

// pageLinks builds the prev/next navigation links for a listing page,
// preserving the caller's limit, sort and query parameters. A link is nil
// when no such page exists.
func pageLinks(base string, page *product.Page, limit int, sort, query string) (prev, next *string) {
	if page.HasPrev && page.PrevPage != nil {
		l := pageLink(base, *page.PrevPage, limit, sort, query)
		prev = &l
	}
	if page.HasNext && page.NextPage != nil {
		l := pageLink(base, *page.NextPage, limit, sort, query)
		next = &l
	}
	return prev, next
}

func pageLink(base string, page, limit int, sort, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s?limit=%d&page=%d", base, limit, page)
	if sort != "" {
		fmt.Fprintf(&b, "&sort=%s", url.QueryEscape(sort))
	}
	if query != "" {
		fmt.Fprintf(&b, "&query=%s", url.QueryEscape(query))
	}
	return b.String()
}

// listingBaseURL resolves the absolute URL of the listing endpoint, from the
// configured public base when set, else from the request itself.
func (h *Handler) listingBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return strings.TrimRight(h.baseURL, "/") + r.URL.Path
	}

	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
