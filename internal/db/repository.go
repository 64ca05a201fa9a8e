// Package db provides CRUD repository operations for DocVault data models.
package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	apperr "github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/models"
	"github.com/docvault/docvault/internal/richtext"
)

// Repository provides CRUD operations for categories, documents and
// attachments. It satisfies archive.Store, so the import/export engines take
// it by interface rather than reaching for package state.
type Repository struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries.
	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// PrepareStmt gets or creates a prepared statement from cache.
func (r *Repository) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// =====================================================
// Category Operations
// =====================================================

const categoryColumns = "id, name, icon, color, parent_id, description, level, sort_order, created_at"

// CreateCategory inserts a new category and assigns its ID.
func (r *Repository) CreateCategory(c *models.Category) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}

	query := `
	INSERT INTO categories (name, icon, color, parent_id, description, level, sort_order, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.Exec(query, c.Name, c.Icon, c.Color, c.ParentID, c.Description,
		c.Level, c.SortOrder, c.CreatedAt)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to create category", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetCategory retrieves a category by ID.
func (r *Repository) GetCategory(id int64) (*models.Category, error) {
	stmt, err := r.PrepareStmt("SELECT " + categoryColumns + " FROM categories WHERE id = ?")
	if err != nil {
		return nil, err
	}

	c, err := scanCategory(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.ErrNotFound, "category %d not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to get category", err)
	}
	return c, nil
}

// ListCategories returns all categories ordered for tree display.
func (r *Repository) ListCategories() ([]*models.Category, error) {
	rows, err := r.db.Query("SELECT " + categoryColumns + " FROM categories ORDER BY level, sort_order, name")
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to list categories", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory updates the mutable display fields of a category.
func (r *Repository) UpdateCategory(id int64, name, icon, color string) error {
	res, err := r.db.Exec("UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ?",
		name, icon, color, id)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to update category", err)
	}
	return requireRow(res, "category", id)
}

// DeleteCategory removes a category. Documents cascade via foreign keys.
func (r *Repository) DeleteCategory(id int64) error {
	res, err := r.db.Exec("DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to delete category", err)
	}
	return requireRow(res, "category", id)
}

// =====================================================
// Document Operations
// =====================================================

const documentColumns = "id, title, description, text_content, category_id, created_at, updated_at"

// CreateDocument inserts a new document and assigns its ID. The search index
// column is derived from the rich-text content here, not by the caller.
func (r *Repository) CreateDocument(d *models.Document) error {
	now := time.Now().Unix()
	if d.CreatedAt == 0 {
		d.CreatedAt = now
	}
	if d.UpdatedAt == 0 {
		d.UpdatedAt = now
	}

	query := `
	INSERT INTO documents (title, description, text_content, plain_text, category_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.Exec(query, d.Title, d.Description, d.TextContent,
		richtext.ExtractText(d.TextContent), d.CategoryID, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to create document", err)
	}
	d.ID, err = res.LastInsertId()
	return err
}

// GetDocument retrieves a document by ID.
func (r *Repository) GetDocument(id int64) (*models.Document, error) {
	stmt, err := r.PrepareStmt("SELECT " + documentColumns + " FROM documents WHERE id = ?")
	if err != nil {
		return nil, err
	}

	var d models.Document
	err = stmt.QueryRow(id).Scan(&d.ID, &d.Title, &d.Description, &d.TextContent,
		&d.CategoryID, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.ErrNotFound, "document %d not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to get document", err)
	}
	return &d, nil
}

// ListDocumentsByCategory returns the documents owned directly by a category.
func (r *Repository) ListDocumentsByCategory(categoryID int64) ([]*models.Document, error) {
	stmt, err := r.PrepareStmt("SELECT " + documentColumns + " FROM documents WHERE category_id = ? ORDER BY title")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(categoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to list documents", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// ListDocumentsByCategoryTree returns the documents owned by a category or
// any of its descendants.
func (r *Repository) ListDocumentsByCategoryTree(rootID int64) ([]*models.Document, error) {
	query := `
	WITH RECURSIVE subtree(id) AS (
		SELECT id FROM categories WHERE id = ?
		UNION ALL
		SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
	)
	SELECT ` + documentColumns + `
	FROM documents WHERE category_id IN (SELECT id FROM subtree)
	ORDER BY category_id, title
	`
	rows, err := r.db.Query(query, rootID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to list document tree", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// UpdateDocument overwrites the content fields of a document.
func (r *Repository) UpdateDocument(id int64, title, description, content string) error {
	query := `
	UPDATE documents
	SET title = ?, description = ?, text_content = ?, plain_text = ?, updated_at = ?
	WHERE id = ?
	`
	res, err := r.db.Exec(query, title, description, content,
		richtext.ExtractText(content), time.Now().Unix(), id)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to update document", err)
	}
	return requireRow(res, "document", id)
}

// DeleteDocument removes a document. Attachments cascade via foreign keys.
func (r *Repository) DeleteDocument(id int64) error {
	res, err := r.db.Exec("DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to delete document", err)
	}
	return requireRow(res, "document", id)
}

// =====================================================
// Attachment Operations
// =====================================================

const attachmentColumns = "id, document_id, filename, filepath, filetype, filesize"

// AddAttachment registers a new attachment row and assigns its ID.
// Attachment rows are never merged or deduplicated; every registration is a
// new row (matching import semantics).
func (r *Repository) AddAttachment(a *models.Attachment) error {
	query := `
	INSERT INTO attachments (document_id, filename, filepath, filetype, filesize)
	VALUES (?, ?, ?, ?, ?)
	`
	res, err := r.db.Exec(query, a.DocumentID, a.Filename, a.Filepath, a.Filetype, a.Filesize)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to add attachment", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// GetAttachment retrieves an attachment by ID.
func (r *Repository) GetAttachment(id int64) (*models.Attachment, error) {
	stmt, err := r.PrepareStmt("SELECT " + attachmentColumns + " FROM attachments WHERE id = ?")
	if err != nil {
		return nil, err
	}

	var a models.Attachment
	err = stmt.QueryRow(id).Scan(&a.ID, &a.DocumentID, &a.Filename, &a.Filepath, &a.Filetype, &a.Filesize)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.ErrNotFound, "attachment %d not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to get attachment", err)
	}
	return &a, nil
}

// ListAttachments returns the attachments of a document.
func (r *Repository) ListAttachments(documentID int64) ([]*models.Attachment, error) {
	stmt, err := r.PrepareStmt("SELECT " + attachmentColumns + " FROM attachments WHERE document_id = ? ORDER BY id")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(documentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to list attachments", err)
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.Filename, &a.Filepath, &a.Filetype, &a.Filesize); err != nil {
			return nil, err
		}
		attachments = append(attachments, &a)
	}
	return attachments, rows.Err()
}

// DeleteAttachment removes an attachment row.
func (r *Repository) DeleteAttachment(id int64) error {
	res, err := r.db.Exec("DELETE FROM attachments WHERE id = ?", id)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to delete attachment", err)
	}
	return requireRow(res, "attachment", id)
}

// =====================================================
// Scan helpers
// =====================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	var parentID sql.NullInt64
	var description sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &parentID, &description,
		&c.Level, &c.SortOrder, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.Int64
	}
	if description.Valid {
		c.Description = &description.String
	}
	return &c, nil
}

func collectDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var documents []*models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.TextContent,
			&d.CategoryID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		documents = append(documents, &d)
	}
	return documents, rows.Err()
}

func requireRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Newf(apperr.ErrNotFound, "%s %d not found", entity, id)
	}
	return nil
}
