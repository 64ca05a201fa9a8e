package handlers

import (
	"net/http"
	"os"

	apperr "github.com/docvault/docvault/internal/errors"

	"github.com/docvault/docvault/internal/db"
	"github.com/docvault/docvault/internal/models"
	"github.com/docvault/docvault/internal/storage"
)

// maxUploadBytes caps a single attachment upload at 256 MiB.
const maxUploadBytes = 256 << 20

// AttachmentHandler handles attachment upload, download and removal.
type AttachmentHandler struct {
	repo  *db.Repository
	files *storage.Manager
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(repo *db.Repository, files *storage.Manager) *AttachmentHandler {
	return &AttachmentHandler{repo: repo, files: files}
}

// Register mounts the attachment routes.
func (h *AttachmentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/attachments", h.List)
	mux.HandleFunc("/api/attachments/upload", h.Upload)
	mux.HandleFunc("/api/attachments/download", h.Download)
	mux.HandleFunc("/api/attachments/thumbnail", h.Thumbnail)
	mux.HandleFunc("/api/attachments/delete", h.Delete)
}

// List handles GET /api/attachments?document_id=
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	documentID, err := queryID(r, "document_id")
	if err != nil {
		writeError(w, err)
		return
	}
	attachments, err := h.repo.ListAttachments(documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	if attachments == nil {
		attachments = []*models.Attachment{}
	}
	writeJSON(w, http.StatusOK, attachments)
}

// Upload handles POST /api/attachments/upload (multipart form with
// document_id and file fields).
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	documentID, err := formID(r, "document_id")
	if err != nil {
		writeError(w, err)
		return
	}
	// The document must exist before we accept a payload for it.
	if _, err := h.repo.GetDocument(documentID); err != nil {
		writeError(w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	stored, err := h.files.Save(documentID, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	attachment := &models.Attachment{
		DocumentID: documentID,
		Filename:   header.Filename,
		Filepath:   stored.Path,
		Filetype:   stored.Type,
		Filesize:   stored.Size,
	}
	if err := h.repo.AddAttachment(attachment); err != nil {
		// Do not leave an orphaned payload behind.
		h.files.Remove(stored.Path)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attachment)
}

// Download handles GET /api/attachments/download?id=
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	attachment, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	absPath := h.files.Resolve(attachment.Filepath)
	if _, err := os.Stat(absPath); err != nil {
		writeError(w, apperr.New(apperr.ErrNotFound, "attachment payload missing from storage"))
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+attachment.Filename+`"`)
	http.ServeFile(w, r, absPath)
}

// Thumbnail handles GET /api/attachments/thumbnail?id=
func (h *AttachmentHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	attachment, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	thumbPath := h.files.ThumbnailFor(attachment.Filepath)
	if thumbPath == "" {
		writeError(w, apperr.New(apperr.ErrNotFound, "no thumbnail for attachment"))
		return
	}
	http.ServeFile(w, r, thumbPath)
}

// Delete handles POST /api/attachments/delete?id=
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	attachment, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.DeleteAttachment(attachment.ID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.files.Remove(attachment.Filepath); err != nil {
		// The row is gone; a stale payload is only worth a warning.
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "warning": "payload removal failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AttachmentHandler) lookup(r *http.Request) (*models.Attachment, error) {
	id, err := queryID(r, "id")
	if err != nil {
		return nil, err
	}
	return h.repo.GetAttachment(id)
}
