package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperr "github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/models"
)

// =====================================================
// Write path
// =====================================================

// containerWriter streams entries into a zip container at a temporary path
// and only moves it to the destination on finalize, so a failed export never
// leaves a valid-looking but truncated archive behind.
type containerWriter struct {
	f       *os.File
	zw      *zip.Writer
	dest    string
	tmpPath string
}

func newContainerWriter(dest string) (*containerWriter, error) {
	tmpPath := dest + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, fmt.Sprintf("failed to create %s", tmpPath), err)
	}
	return &containerWriter{
		f:       f,
		zw:      zip.NewWriter(f),
		dest:    dest,
		tmpPath: tmpPath,
	}, nil
}

// writeJSON adds a pretty-printed JSON entry.
func (w *containerWriter) writeJSON(name string, v interface{}) error {
	entry, err := w.zw.Create(name)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, fmt.Sprintf("failed to create entry %s", name), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if _, err := entry.Write(data); err != nil {
		return apperr.Wrap(apperr.ErrIO, fmt.Sprintf("failed to write entry %s", name), err)
	}
	return nil
}

// writeFile adds a payload entry copied from srcPath.
func (w *containerWriter) writeFile(name, srcPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	entry, err := w.zw.Create(name)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, fmt.Sprintf("failed to create entry %s", name), err)
	}
	n, err := io.Copy(entry, src)
	if err != nil {
		return n, apperr.Wrap(apperr.ErrIO, fmt.Sprintf("failed to copy %s", name), err)
	}
	return n, nil
}

// finalize closes the container and moves it into place atomically.
func (w *containerWriter) finalize() error {
	if err := w.zw.Close(); err != nil {
		w.f.Close()
		os.Remove(w.tmpPath)
		return apperr.Wrap(apperr.ErrIO, "failed to finalize archive", err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmpPath)
		return apperr.Wrap(apperr.ErrIO, "failed to close archive", err)
	}
	if err := os.Rename(w.tmpPath, w.dest); err != nil {
		os.Remove(w.tmpPath)
		return apperr.Wrap(apperr.ErrIO, "failed to move archive into place", err)
	}
	return nil
}

// abort discards the partial container.
func (w *containerWriter) abort() {
	w.zw.Close()
	w.f.Close()
	os.Remove(w.tmpPath)
}

// =====================================================
// Read path
// =====================================================

// container is an extracted archive: the parsed records plus the temporary
// directory holding the payload files. Close removes the directory; every
// open must be paired with Close on all exit paths.
type container struct {
	Manifest    *Manifest
	Categories  []*models.Category
	Documents   []*models.Document
	Attachments []*AttachmentRecord

	dir string
}

// openContainer extracts the archive at archivePath into a fresh temporary
// directory and parses its records. On any error the directory is removed
// before returning.
func openContainer(archivePath string) (*container, error) {
	dir, err := os.MkdirTemp("", "docvault-import-*")
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "failed to create temp directory", err)
	}

	c := &container{dir: dir}
	if err := c.load(archivePath); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Close removes the temporary extraction directory. Safe to call twice.
func (c *container) Close() error {
	if c.dir == "" {
		return nil
	}
	dir := c.dir
	c.dir = ""
	return os.RemoveAll(dir)
}

// payloadPath returns the extracted location of an attachment payload.
func (c *container) payloadPath(rec *AttachmentRecord) string {
	return filepath.Join(c.dir, filepath.FromSlash(rec.ExportPath))
}

func (c *container) load(archivePath string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return apperr.Wrap(apperr.ErrCorruptArchive, "failed to open archive", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := c.extractEntry(f); err != nil {
			return err
		}
	}

	if err := c.parseManifest(); err != nil {
		return err
	}
	return c.parseRecords()
}

func (c *container) extractEntry(f *zip.File) error {
	// Reject entries that would escape the extraction directory.
	target := filepath.Join(c.dir, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(c.dir)+string(os.PathSeparator)) {
		return apperr.Newf(apperr.ErrCorruptArchive, "archive entry %q escapes extraction directory", f.Name)
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return apperr.Wrap(apperr.ErrIO, "failed to create extraction directory", err)
	}

	src, err := f.Open()
	if err != nil {
		return apperr.Wrap(apperr.ErrCorruptArchive, fmt.Sprintf("failed to open entry %s", f.Name), err)
	}
	defer src.Close()

	out, err := os.Create(target)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, fmt.Sprintf("failed to extract %s", f.Name), err)
	}
	_, err = io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, fmt.Sprintf("failed to extract %s", f.Name), err)
	}
	return nil
}

// readEntry parses one of the required JSON entries; a missing or
// unparseable entry makes the whole container corrupt.
func (c *container) readEntry(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return apperr.Newf(apperr.ErrCorruptArchive, "archive is missing %s", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Wrap(apperr.ErrCorruptArchive, fmt.Sprintf("failed to parse %s", name), err)
	}
	return nil
}

func (c *container) parseManifest() error {
	var m Manifest
	if err := c.readEntry(entryMetadata, &m); err != nil {
		return err
	}
	if m.Version == "" {
		return apperr.New(apperr.ErrCorruptArchive, "manifest has no version")
	}
	if m.Version != ContainerVersion {
		return apperr.Newf(apperr.ErrUnsupportedVersion, "archive version %q is not supported", m.Version)
	}
	switch m.ExportType {
	case ExportComplete, ExportCategory, ExportDocument:
	default:
		return apperr.Newf(apperr.ErrCorruptArchive, "unknown export type %q", m.ExportType)
	}
	c.Manifest = &m
	return nil
}

// parseRecords shape-checks every record so malformed fields surface here as
// CORRUPT_ARCHIVE instead of deep inside the import pipeline.
func (c *container) parseRecords() error {
	if err := c.readEntry(entryCategories, &c.Categories); err != nil {
		return err
	}
	if err := c.readEntry(entryDocuments, &c.Documents); err != nil {
		return err
	}
	if err := c.readEntry(entryAttachments, &c.Attachments); err != nil {
		return err
	}

	for i, cat := range c.Categories {
		if cat == nil || cat.ID <= 0 || cat.Name == "" {
			return apperr.Newf(apperr.ErrCorruptArchive, "category record %d is malformed", i)
		}
	}
	for i, doc := range c.Documents {
		if doc == nil || doc.ID <= 0 || doc.Title == "" || doc.CategoryID <= 0 {
			return apperr.Newf(apperr.ErrCorruptArchive, "document record %d is malformed", i)
		}
	}
	for i, rec := range c.Attachments {
		if rec == nil || rec.DocumentID <= 0 || rec.Filename == "" || rec.ExportPath == "" {
			return apperr.Newf(apperr.ErrCorruptArchive, "attachment record %d is malformed", i)
		}
	}
	return nil
}
