package handlers

import (
	"net/http"

	"github.com/docvault/docvault/internal/db"
	"github.com/docvault/docvault/internal/models"
)

// CategoryHandler handles category CRUD for the sidebar tree.
type CategoryHandler struct {
	repo *db.Repository
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(repo *db.Repository) *CategoryHandler {
	return &CategoryHandler{repo: repo}
}

// Register mounts the category routes.
func (h *CategoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/categories", h.List)
	mux.HandleFunc("/api/categories/get", h.Get)
	mux.HandleFunc("/api/categories/create", h.Create)
	mux.HandleFunc("/api/categories/update", h.Update)
	mux.HandleFunc("/api/categories/delete", h.Delete)
}

// List handles GET /api/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	categories, err := h.repo.ListCategories()
	if err != nil {
		writeError(w, err)
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// Get handles GET /api/categories/get?id=
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	category, err := h.repo.GetCategory(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// Create handles POST /api/categories/create
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var category models.Category
	if err := readJSON(r, &category); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.repo.CreateCategory(&category); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// UpdateCategoryRequest is the update request body.
type UpdateCategoryRequest struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Update handles POST /api/categories/update
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req UpdateCategoryRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.repo.UpdateCategory(req.ID, req.Name, req.Icon, req.Color); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Delete handles POST /api/categories/delete?id=
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.DeleteCategory(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
