// Package models provides data model definitions for the DocVault backend.
package models

import "time"

// Category represents a node in the hierarchical category tree.
// Categories are identified across import/export by name (case-insensitive);
// the surrogate ID is store-assigned and never portable.
type Category struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Icon        string  `db:"icon" json:"icon"`
	Color       string  `db:"color" json:"color"`
	ParentID    *int64  `db:"parent_id" json:"parent_id"`
	Description *string `db:"description" json:"description"`
	Level       int     `db:"level" json:"level"`
	SortOrder   int     `db:"sort_order" json:"sort_order"`
	CreatedAt   int64   `db:"created_at" json:"created_at"`
}

// TableName returns the table name for Category.
func (Category) TableName() string {
	return "categories"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (c *Category) CreatedAtTime() time.Time {
	return time.Unix(c.CreatedAt, 0)
}
