package handlers

import (
	"net/http"

	"github.com/docvault/docvault/internal/db"
	"github.com/docvault/docvault/internal/models"
)

// DocumentHandler handles document CRUD for the editor and list views.
type DocumentHandler struct {
	repo *db.Repository
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(repo *db.Repository) *DocumentHandler {
	return &DocumentHandler{repo: repo}
}

// Register mounts the document routes.
func (h *DocumentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/documents", h.ListByCategory)
	mux.HandleFunc("/api/documents/tree", h.ListByCategoryTree)
	mux.HandleFunc("/api/documents/get", h.Get)
	mux.HandleFunc("/api/documents/create", h.Create)
	mux.HandleFunc("/api/documents/update", h.Update)
	mux.HandleFunc("/api/documents/delete", h.Delete)
}

// ListByCategory handles GET /api/documents?category_id=
func (h *DocumentHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	categoryID, err := queryID(r, "category_id")
	if err != nil {
		writeError(w, err)
		return
	}
	documents, err := h.repo.ListDocumentsByCategory(categoryID)
	if err != nil {
		writeError(w, err)
		return
	}
	if documents == nil {
		documents = []*models.Document{}
	}
	writeJSON(w, http.StatusOK, documents)
}

// ListByCategoryTree handles GET /api/documents/tree?root=
func (h *DocumentHandler) ListByCategoryTree(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	rootID, err := queryID(r, "root")
	if err != nil {
		writeError(w, err)
		return
	}
	documents, err := h.repo.ListDocumentsByCategoryTree(rootID)
	if err != nil {
		writeError(w, err)
		return
	}
	if documents == nil {
		documents = []*models.Document{}
	}
	writeJSON(w, http.StatusOK, documents)
}

// Get handles GET /api/documents/get?id=
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	document, err := h.repo.GetDocument(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, document)
}

// Create handles POST /api/documents/create
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var document models.Document
	if err := readJSON(r, &document); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.repo.CreateDocument(&document); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, document)
}

// UpdateDocumentRequest is the update request body.
type UpdateDocumentRequest struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TextContent string `json:"text_content"`
}

// Update handles POST /api/documents/update
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req UpdateDocumentRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.repo.UpdateDocument(req.ID, req.Title, req.Description, req.TextContent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Delete handles POST /api/documents/delete?id=
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	id, err := queryID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.DeleteDocument(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
