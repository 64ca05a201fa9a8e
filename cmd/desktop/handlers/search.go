package handlers

import (
	"net/http"
	"strconv"

	"github.com/docvault/docvault/internal/db"
)

// SearchHandler exposes full-text document search.
type SearchHandler struct {
	repo *db.Repository
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(repo *db.Repository) *SearchHandler {
	return &SearchHandler{repo: repo}
}

// Register mounts the search route.
func (h *SearchHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/search", h.Search)
}

// Search handles GET /api/search?q=&limit=&category_id=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	opts := &db.SearchOptions{Query: q.Get("q")}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			opts.Limit = limit
		}
	}
	if raw := q.Get("category_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			opts.CategoryID = id
		}
	}
	resp, err := h.repo.SearchDocuments(opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
