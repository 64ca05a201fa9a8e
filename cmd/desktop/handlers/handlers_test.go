package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/archive"
	"github.com/docvault/docvault/internal/db"
	"github.com/docvault/docvault/internal/models"
	"github.com/docvault/docvault/internal/storage"
)

// recordedEvents captures Emit calls for assertions.
type recordedEvents struct {
	events []string
}

func (r *recordedEvents) Emit(event string, data map[string]interface{}) {
	r.events = append(r.events, event)
}

func (r *recordedEvents) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type testEnv struct {
	mux    *http.ServeMux
	repo   *db.Repository
	files  *storage.Manager
	events *recordedEvents
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	database, err := db.Open(filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	migrator := db.NewMigrator(database.DB)
	require.NoError(t, migrator.Initialize())
	require.NoError(t, migrator.Up())

	repo := db.NewRepository(database.DB)
	t.Cleanup(func() { repo.Close() })

	files, err := storage.NewManager(filepath.Join(dir, "attachments"), 64)
	require.NoError(t, err)

	events := &recordedEvents{}
	mux := http.NewServeMux()
	NewCategoryHandler(repo).Register(mux)
	NewDocumentHandler(repo).Register(mux)
	NewAttachmentHandler(repo, files).Register(mux)
	NewSearchHandler(repo).Register(mux)
	NewArchiveHandler(repo, files, "test", events).Register(mux)

	return &testEnv{mux: mux, repo: repo, files: files, events: events}
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestCategoryEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/categories/create",
		models.Category{Name: "Work", Icon: "briefcase", Color: "#336699"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Category
	decode(t, rec, &created)
	require.Positive(t, created.ID)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/categories/get?id=%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories/update",
		UpdateCategoryRequest{ID: created.ID, Name: "Projects", Icon: "folder", Color: "#000000"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*models.Category
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Projects", list[0].Name)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/categories/delete?id=%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/categories/get?id=%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryMethodGuards(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/categories/create", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories/get?id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var cat models.Category
	decode(t, env.do(t, http.MethodPost, "/api/categories/create", models.Category{Name: "Work"}), &cat)

	rec := env.do(t, http.MethodPost, "/api/documents/create",
		models.Document{Title: "Plan", CategoryID: cat.ID, TextContent: "<p>steps</p>"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc models.Document
	decode(t, rec, &doc)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/documents?category_id=%d", cat.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []*models.Document
	decode(t, rec, &docs)
	require.Len(t, docs, 1)

	rec = env.do(t, http.MethodPost, "/api/documents/update",
		UpdateDocumentRequest{ID: doc.ID, Title: "Launch Plan", TextContent: "<p>more steps</p>"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/search?q=launch", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp db.SearchResponse
	decode(t, rec, &resp)
	assert.Len(t, resp.Results, 1)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/documents/delete?id=%d", doc.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func uploadAttachment(t *testing.T, env *testEnv, documentID int64, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("document_id", fmt.Sprintf("%d", documentID)))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/attachments/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func TestAttachmentEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var cat models.Category
	decode(t, env.do(t, http.MethodPost, "/api/categories/create", models.Category{Name: "Work"}), &cat)
	var doc models.Document
	decode(t, env.do(t, http.MethodPost, "/api/documents/create",
		models.Document{Title: "Plan", CategoryID: cat.ID}), &doc)

	rec := uploadAttachment(t, env, doc.ID, "notes.txt", "attachment body")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var att models.Attachment
	decode(t, rec, &att)
	require.Positive(t, att.ID)
	assert.Equal(t, "notes.txt", att.Filename)
	assert.Equal(t, int64(len("attachment body")), att.Filesize)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/attachments/download?id=%d", att.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment body", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "notes.txt")

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/attachments/delete?id=%d", att.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.files.Exists(att.Filepath))

	// Upload against a missing document fails before storing anything.
	rec = uploadAttachment(t, env, 9999, "ghost.txt", "x")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArchiveExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	var cat models.Category
	decode(t, env.do(t, http.MethodPost, "/api/categories/create", models.Category{Name: "Work"}), &cat)
	var doc models.Document
	decode(t, env.do(t, http.MethodPost, "/api/documents/create",
		models.Document{Title: "Plan", CategoryID: cat.ID, TextContent: "<p>steps</p>"}), &doc)
	require.Equal(t, http.StatusCreated,
		uploadAttachment(t, env, doc.ID, "plan.txt", "payload").Code)

	dest := filepath.Join(t.TempDir(), "work.dvault")

	rec := env.do(t, http.MethodPost, "/api/archive/export/stats", ExportStatsRequest{
		Selection: archive.Selection{Type: archive.ExportComplete},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats archive.ExportStats
	decode(t, rec, &stats)
	assert.Equal(t, 1, stats.Documents)

	rec = env.do(t, http.MethodPost, "/api/archive/export", ExportRequest{
		Destination: dest,
		Selection:   archive.Selection{Type: archive.ExportComplete},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, 1, env.events.count(EventExportStarted))
	assert.Equal(t, 1, env.events.count(EventExportCompleted))
	assert.Positive(t, env.events.count(EventExportProgress))

	rec = env.do(t, http.MethodPost, "/api/archive/import/preview", ImportPreviewRequest{Path: dest})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var preview archive.ImportPreview
	decode(t, rec, &preview)
	assert.True(t, preview.CanProceed)
	assert.Len(t, preview.Conflicts, 2)

	rec = env.do(t, http.MethodPost, "/api/archive/import", ImportRequest{
		Path: dest,
		Resolution: archive.Resolution{
			Categories: archive.PolicySkip,
			Documents:  archive.PolicySkip,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report archive.ImportReport
	decode(t, rec, &report)
	assert.Equal(t, 0, report.CategoriesCreated)
	assert.Equal(t, 1, report.DocumentsSkipped)
	assert.Equal(t, 1, report.AttachmentsImported)
	assert.Equal(t, 1, env.events.count(EventImportCompleted))
}

func TestArchiveImportRejectsMissingPolicies(t *testing.T) {
	env := newTestEnv(t)

	var cat models.Category
	decode(t, env.do(t, http.MethodPost, "/api/categories/create", models.Category{Name: "Work"}), &cat)

	dest := filepath.Join(t.TempDir(), "work.dvault")
	rec := env.do(t, http.MethodPost, "/api/archive/export", ExportRequest{
		Destination: dest,
		Selection:   archive.Selection{Type: archive.ExportComplete},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/archive/import", ImportRequest{Path: dest})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, env.events.count(EventImportFailed))
}

func TestArchiveImportCorruptFile(t *testing.T) {
	env := newTestEnv(t)

	path := filepath.Join(t.TempDir(), "garbage.dvault")
	require.NoError(t, os.WriteFile(path, []byte("not an archive"), 0644))

	rec := env.do(t, http.MethodPost, "/api/archive/import/preview", ImportPreviewRequest{Path: path})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
