package handlers

import (
	"net/http"

	"github.com/docvault/docvault/internal/archive"
	apperr "github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/logging"
)

// Event types pushed to the shell during archive runs.
const (
	EventExportStarted   = "export.started"
	EventExportProgress  = "export.progress"
	EventExportCompleted = "export.completed"
	EventExportFailed    = "export.failed"

	EventImportStarted   = "import.started"
	EventImportProgress  = "import.progress"
	EventImportCompleted = "import.completed"
	EventImportFailed    = "import.failed"
)

// ArchiveHandler drives archive export and import runs. Runs are
// synchronous; the shell follows along via websocket progress events.
type ArchiveHandler struct {
	store      archive.Store
	files      archive.FileStore
	appVersion string
	events     Events
}

// NewArchiveHandler creates a new ArchiveHandler.
func NewArchiveHandler(store archive.Store, files archive.FileStore, appVersion string, events Events) *ArchiveHandler {
	return &ArchiveHandler{store: store, files: files, appVersion: appVersion, events: events}
}

// Register mounts the archive routes.
func (h *ArchiveHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/archive/export", h.Export)
	mux.HandleFunc("/api/archive/export/stats", h.ExportStats)
	mux.HandleFunc("/api/archive/import/preview", h.ImportPreview)
	mux.HandleFunc("/api/archive/import", h.Import)
}

// ExportRequest is the export request body.
type ExportRequest struct {
	Destination string            `json:"destination"`
	Selection   archive.Selection `json:"selection"`
}

// Export handles POST /api/archive/export
func (h *ArchiveHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req ExportRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Destination == "" {
		writeError(w, apperr.New(apperr.ErrInvalid, "destination is required"))
		return
	}

	engine := archive.NewExportEngine(h.store, h.files, h.appVersion, h.progressEmitter(EventExportProgress))

	h.events.Emit(EventExportStarted, map[string]interface{}{
		"destination": req.Destination,
		"type":        string(req.Selection.Type),
	})
	if err := engine.ExportArchive(req.Destination, req.Selection); err != nil {
		logging.Error("export failed", err, map[string]interface{}{"destination": req.Destination})
		h.events.Emit(EventExportFailed, map[string]interface{}{"error": err.Error()})
		writeError(w, err)
		return
	}

	warnings := engine.Warnings()
	h.events.Emit(EventExportCompleted, map[string]interface{}{
		"destination": req.Destination,
		"warnings":    len(warnings),
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"destination": req.Destination,
		"warnings":    warnings,
	})
}

// ExportStatsRequest is the export preview request body.
type ExportStatsRequest struct {
	Selection archive.Selection `json:"selection"`
}

// ExportStats handles POST /api/archive/export/stats
func (h *ArchiveHandler) ExportStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req ExportStatsRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	engine := archive.NewExportEngine(h.store, h.files, h.appVersion, nil)
	stats, err := engine.SelectiveExportStats(req.Selection)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ImportPreviewRequest is the import preview request body.
type ImportPreviewRequest struct {
	Path string `json:"path"`
}

// ImportPreview handles POST /api/archive/import/preview
func (h *ArchiveHandler) ImportPreview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req ImportPreviewRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeError(w, apperr.New(apperr.ErrInvalid, "path is required"))
		return
	}
	engine := archive.NewImportEngine(h.store, h.files, nil)
	preview, err := engine.PreviewImport(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// ImportRequest is the import request body.
type ImportRequest struct {
	Path       string             `json:"path"`
	Resolution archive.Resolution `json:"resolution"`
}

// Import handles POST /api/archive/import
func (h *ArchiveHandler) Import(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req ImportRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeError(w, apperr.New(apperr.ErrInvalid, "path is required"))
		return
	}

	engine := archive.NewImportEngine(h.store, h.files, h.progressEmitter(EventImportProgress))

	h.events.Emit(EventImportStarted, map[string]interface{}{"path": req.Path})
	report, err := engine.ImportArchive(req.Path, req.Resolution)
	if err != nil {
		logging.Error("import failed", err, map[string]interface{}{"path": req.Path})
		h.events.Emit(EventImportFailed, map[string]interface{}{"error": err.Error()})
		writeError(w, err)
		return
	}

	h.events.Emit(EventImportCompleted, map[string]interface{}{
		"categoriesCreated":   report.CategoriesCreated,
		"categoriesMerged":    report.CategoriesMerged,
		"documentsCreated":    report.DocumentsCreated,
		"documentsUpdated":    report.DocumentsUpdated,
		"documentsSkipped":    report.DocumentsSkipped,
		"attachmentsImported": report.AttachmentsImported,
		"warnings":            len(report.Warnings),
	})
	writeJSON(w, http.StatusOK, report)
}

// progressEmitter adapts engine progress callbacks onto the event surface.
func (h *ArchiveHandler) progressEmitter(event string) archive.ProgressFunc {
	return func(p archive.Progress) {
		h.events.Emit(event, map[string]interface{}{
			"phase":       string(p.Phase),
			"progress":    p.Progress,
			"currentItem": p.CurrentItem,
			"message":     p.Message,
		})
	}
}
