package models

import "time"

// Document represents a rich-text document owned by a category.
// TextContent is the editor's serialized markup and is treated as an opaque
// blob everywhere except the search indexer.
type Document struct {
	ID          int64  `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	TextContent string `db:"text_content" json:"text_content"`
	CategoryID  int64  `db:"category_id" json:"category_id"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
	UpdatedAt   int64  `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Document.
func (Document) TableName() string {
	return "documents"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (d *Document) CreatedAtTime() time.Time {
	return time.Unix(d.CreatedAt, 0)
}

// UpdatedAtTime returns the UpdatedAt as time.Time.
func (d *Document) UpdatedAtTime() time.Time {
	return time.Unix(d.UpdatedAt, 0)
}

// Touch updates the UpdatedAt timestamp.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().Unix()
}
