package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperr "github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/models"
	"github.com/docvault/docvault/internal/storage"
)

// memStore is an in-memory Store for engine tests. Records are kept in
// insertion order, parents before children, matching how the repository
// lists them.
type memStore struct {
	categories  []*models.Category
	documents   []*models.Document
	attachments []*models.Attachment

	nextCategoryID   int64
	nextDocumentID   int64
	nextAttachmentID int64
}

func newMemStore() *memStore {
	return &memStore{}
}

func (s *memStore) ListCategories() ([]*models.Category, error) {
	return append([]*models.Category(nil), s.categories...), nil
}

func (s *memStore) GetCategory(id int64) (*models.Category, error) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperr.Newf(apperr.ErrNotFound, "category %d not found", id)
}

func (s *memStore) CreateCategory(c *models.Category) error {
	s.nextCategoryID++
	c.ID = s.nextCategoryID
	s.categories = append(s.categories, c)
	return nil
}

func (s *memStore) UpdateCategory(id int64, name, icon, color string) error {
	for _, c := range s.categories {
		if c.ID == id {
			c.Name = name
			c.Icon = icon
			c.Color = color
			return nil
		}
	}
	return apperr.Newf(apperr.ErrNotFound, "category %d not found", id)
}

func (s *memStore) ListDocumentsByCategory(categoryID int64) ([]*models.Document, error) {
	var out []*models.Document
	for _, d := range s.documents {
		if d.CategoryID == categoryID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) GetDocument(id int64) (*models.Document, error) {
	for _, d := range s.documents {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperr.Newf(apperr.ErrNotFound, "document %d not found", id)
}

func (s *memStore) CreateDocument(d *models.Document) error {
	s.nextDocumentID++
	d.ID = s.nextDocumentID
	s.documents = append(s.documents, d)
	return nil
}

func (s *memStore) UpdateDocument(id int64, title, description, content string) error {
	for _, d := range s.documents {
		if d.ID == id {
			d.Title = title
			d.Description = description
			d.TextContent = content
			return nil
		}
	}
	return apperr.Newf(apperr.ErrNotFound, "document %d not found", id)
}

func (s *memStore) ListAttachments(documentID int64) ([]*models.Attachment, error) {
	var out []*models.Attachment
	for _, a := range s.attachments {
		if a.DocumentID == documentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) AddAttachment(a *models.Attachment) error {
	s.nextAttachmentID++
	a.ID = s.nextAttachmentID
	s.attachments = append(s.attachments, a)
	return nil
}

// seed helpers

func (s *memStore) addCategory(t *testing.T, name string, parentID *int64) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, ParentID: parentID, Icon: "folder", Color: "#888888"}
	if parentID != nil {
		parent, err := s.GetCategory(*parentID)
		require.NoError(t, err)
		c.Level = parent.Level + 1
	}
	require.NoError(t, s.CreateCategory(c))
	return c
}

func (s *memStore) addDocument(t *testing.T, categoryID int64, title string) *models.Document {
	t.Helper()
	d := &models.Document{Title: title, CategoryID: categoryID, TextContent: "<p>" + title + "</p>"}
	require.NoError(t, s.CreateDocument(d))
	return d
}

// memFiles is an on-disk FileStore rooted in a test temp directory.
type memFiles struct {
	baseDir string
	counter int
}

func newMemFiles(t *testing.T) *memFiles {
	t.Helper()
	return &memFiles{baseDir: t.TempDir()}
}

func (f *memFiles) Resolve(storedPath string) string {
	return filepath.Join(f.baseDir, filepath.FromSlash(storedPath))
}

func (f *memFiles) Store(documentID int64, filename, srcPath string) (storage.StoredFile, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return storage.StoredFile{}, err
	}
	defer src.Close()

	f.counter++
	rel := fmt.Sprintf("%d/%d_%s", documentID, f.counter, filename)
	abs := f.Resolve(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return storage.StoredFile{}, err
	}
	dst, err := os.Create(abs)
	if err != nil {
		return storage.StoredFile{}, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return storage.StoredFile{}, err
	}
	return storage.StoredFile{Path: rel, Size: n, Type: models.FileTypeOther}, nil
}

// put writes a payload for an attachment row and registers the row in the
// store, returning the attachment.
func (f *memFiles) put(t *testing.T, s *memStore, documentID int64, filename, content string) *models.Attachment {
	t.Helper()
	rel := fmt.Sprintf("%d/%s", documentID, filename)
	abs := f.Resolve(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0644))

	a := &models.Attachment{
		DocumentID: documentID,
		Filename:   filename,
		Filepath:   rel,
		Filetype:   models.FileTypeOther,
		Filesize:   int64(len(content)),
	}
	require.NoError(t, s.AddAttachment(a))
	return a
}

// exportFixture writes a complete archive from the given store into a temp
// file and returns its path.
func exportFixture(t *testing.T, s *memStore, f *memFiles, sel Selection) string {
	t.Helper()
	dest := filepath.Join(t.TempDir(), "fixture.dvault")
	engine := NewExportEngine(s, f, "test", nil)
	require.NoError(t, engine.ExportArchive(dest, sel))
	require.Empty(t, engine.Warnings())
	return dest
}

// requireCode asserts an error carries the given application error code.
func requireCode(t *testing.T, err error, code apperr.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperr.Is(err, code), "expected code %s, got %v", code, err)
}

func lowerNames(categories []*models.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, strings.ToLower(c.Name))
	}
	return out
}
