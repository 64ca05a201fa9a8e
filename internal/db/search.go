// Package db provides FTS5 search functionality for documents.
package db

import (
	"fmt"

	apperr "github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/models"
)

// SearchOptions contains parameters for document search queries.
type SearchOptions struct {
	// Query is the FTS5 search query (required)
	Query string

	// Limit is the maximum number of results (default: 20, max: 100)
	Limit int

	// CategoryID restricts results to one category (0 = all)
	CategoryID int64
}

// SearchResult represents a single search result with relevance score.
type SearchResult struct {
	Document  *models.Document
	Relevance float64
}

// SearchResponse contains search results and metadata.
type SearchResponse struct {
	Results []*SearchResult
	Query   string
}

// SearchDocuments performs FTS5 full-text search over document titles,
// descriptions and extracted plain text, ranked by BM25.
func (r *Repository) SearchDocuments(opts *SearchOptions) (*SearchResponse, error) {
	if opts == nil || opts.Query == "" {
		return nil, apperr.New(apperr.ErrInvalid, "search query is required")
	}

	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	query := `
	SELECT d.id, d.title, d.description, d.text_content, d.category_id,
		   d.created_at, d.updated_at, bm25(documents_fts) AS rank
	FROM documents d
	INNER JOIN documents_fts fts ON d.id = fts.rowid
	WHERE documents_fts MATCH ?
	`
	args := []interface{}{opts.Query}

	if opts.CategoryID > 0 {
		query += " AND d.category_id = ?"
		args = append(args, opts.CategoryID)
	}

	query += " ORDER BY rank LIMIT ?"
	args = append(args, opts.Limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, fmt.Sprintf("search %q failed", opts.Query), err)
	}
	defer rows.Close()

	resp := &SearchResponse{Query: opts.Query}
	for rows.Next() {
		var d models.Document
		var rank float64
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.TextContent,
			&d.CategoryID, &d.CreatedAt, &d.UpdatedAt, &rank); err != nil {
			return nil, err
		}
		// bm25 returns lower-is-better; flip the sign so callers see
		// higher-is-better relevance.
		resp.Results = append(resp.Results, &SearchResult{Document: &d, Relevance: -rank})
	}
	return resp, rows.Err()
}
