// Package storage provides the attachment file store: payload files on disk
// under per-document directories, with store-generated on-disk names.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apperr "github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/logging"
	"github.com/docvault/docvault/internal/models"
)

// StoredFile describes a payload after it has been copied into the store.
// Path is relative to the store's base directory; it is what goes into the
// attachment row's filepath column.
type StoredFile struct {
	Path string
	Size int64
	Type models.FileType
}

// Manager handles the attachment directory tree. Files are never shared
// between attachment rows: every stored payload gets a fresh on-disk name,
// so repeated imports accumulate independent copies.
type Manager struct {
	baseDir   string
	thumbSize int
}

// NewManager creates a Manager rooted at baseDir.
func NewManager(baseDir string, thumbSize int) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "failed to create attachments directory", err)
	}
	if thumbSize <= 0 {
		thumbSize = 256
	}
	return &Manager{baseDir: baseDir, thumbSize: thumbSize}, nil
}

// BaseDir returns the store's base directory.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Resolve returns the absolute path of a stored payload.
func (m *Manager) Resolve(storedPath string) string {
	return filepath.Join(m.baseDir, filepath.FromSlash(storedPath))
}

// Store copies the file at srcPath into the per-document directory under a
// freshly generated name and classifies it by sniffing its content.
func (m *Manager) Store(documentID int64, filename, srcPath string) (StoredFile, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return StoredFile{}, apperr.Wrap(apperr.ErrIO, fmt.Sprintf("failed to open %s", srcPath), err)
	}
	defer src.Close()
	return m.Save(documentID, filename, src)
}

// Save streams a payload into the per-document directory under a freshly
// generated name. The original filename only contributes its extension; the
// display name lives in the attachment row.
func (m *Manager) Save(documentID int64, filename string, r io.Reader) (StoredFile, error) {
	docDir := filepath.Join(m.baseDir, strconv.FormatInt(documentID, 10))
	if err := os.MkdirAll(docDir, 0755); err != nil {
		return StoredFile{}, apperr.Wrap(apperr.ErrIO, "failed to create document directory", err)
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	absPath := filepath.Join(docDir, name)

	// Write through a temp name so a failed copy never leaves a payload
	// that looks complete.
	tmpPath := absPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return StoredFile{}, apperr.Wrap(apperr.ErrIO, "failed to create payload file", err)
	}

	size, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return StoredFile{}, apperr.Wrap(apperr.ErrIO, "failed to write payload", err)
	}
	if err := os.Rename(tmpPath, absPath); err != nil {
		os.Remove(tmpPath)
		return StoredFile{}, apperr.Wrap(apperr.ErrIO, "failed to finalize payload", err)
	}

	ftype, err := models.DetectFileType(absPath)
	if err != nil {
		ftype = models.FileTypeOther
	}

	stored := StoredFile{
		Path: filepath.ToSlash(filepath.Join(strconv.FormatInt(documentID, 10), name)),
		Size: size,
		Type: ftype,
	}

	if ftype == models.FileTypeImage {
		if err := m.generateThumbnail(absPath); err != nil {
			// Thumbnails are best-effort; the attachment itself is stored.
			logging.Warn("thumbnail generation failed", map[string]interface{}{
				"path":  stored.Path,
				"error": err.Error(),
			})
		}
	}

	return stored, nil
}

// Remove deletes a stored payload and its thumbnail if present.
func (m *Manager) Remove(storedPath string) error {
	abs := m.Resolve(storedPath)
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.ErrIO, "failed to remove payload", err)
	}
	os.Remove(thumbnailPath(abs))
	return nil
}

// Exists reports whether a stored payload is present on disk.
func (m *Manager) Exists(storedPath string) bool {
	return fileExists(m.Resolve(storedPath))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
