package archive

import (
	"github.com/docvault/docvault/internal/models"

	"github.com/docvault/docvault/internal/storage"
)

// Store is the record-access surface the engines require from the live
// store. *db.Repository satisfies it; tests supply an in-memory fake.
// Get methods return a NOT_FOUND coded error for missing ids.
type Store interface {
	ListCategories() ([]*models.Category, error)
	GetCategory(id int64) (*models.Category, error)
	CreateCategory(c *models.Category) error
	UpdateCategory(id int64, name, icon, color string) error

	ListDocumentsByCategory(categoryID int64) ([]*models.Document, error)
	GetDocument(id int64) (*models.Document, error)
	CreateDocument(d *models.Document) error
	UpdateDocument(id int64, title, description, content string) error

	ListAttachments(documentID int64) ([]*models.Attachment, error)
	AddAttachment(a *models.Attachment) error
}

// FileStore is the attachment-filesystem surface the engines require.
// *storage.Manager satisfies it.
type FileStore interface {
	// Resolve returns the absolute on-disk path of a stored payload.
	Resolve(storedPath string) string
	// Store copies srcPath into the per-document directory under a freshly
	// generated name.
	Store(documentID int64, filename, srcPath string) (storage.StoredFile, error)
}
