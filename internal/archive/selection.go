package archive

import (
	"fmt"

	apperr "github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/models"
)

// ResolveSelection determines exactly which categories, documents and
// attachments an export request covers, before any I/O happens. A selection
// root that does not exist fails with NOT_FOUND and aborts the export.
func ResolveSelection(store Store, sel Selection) (*ResolvedSelection, error) {
	resolved := &ResolvedSelection{}

	switch sel.Type {
	case ExportComplete:
		categories, err := store.ListCategories()
		if err != nil {
			return nil, err
		}
		resolved.Categories = categories

	case ExportCategory:
		root, err := store.GetCategory(sel.CategoryID)
		if err != nil {
			return nil, err
		}
		all, err := store.ListCategories()
		if err != nil {
			return nil, err
		}
		resolved.Categories = subtree(root, all)

	case ExportDocument:
		doc, err := store.GetDocument(sel.DocumentID)
		if err != nil {
			return nil, err
		}
		// Owning category only: no siblings, no subtree.
		owner, err := store.GetCategory(doc.CategoryID)
		if err != nil {
			return nil, err
		}
		resolved.Categories = []*models.Category{owner}
		resolved.Documents = []*models.Document{doc}

	default:
		return nil, apperr.Newf(apperr.ErrInvalid, "unknown export type %q", sel.Type)
	}

	if sel.Type != ExportDocument {
		for _, cat := range resolved.Categories {
			docs, err := store.ListDocumentsByCategory(cat.ID)
			if err != nil {
				return nil, err
			}
			resolved.Documents = append(resolved.Documents, docs...)
		}
	}

	for _, doc := range resolved.Documents {
		attachments, err := store.ListAttachments(doc.ID)
		if err != nil {
			return nil, err
		}
		for _, att := range attachments {
			resolved.Attachments = append(resolved.Attachments, att)
			resolved.EstimatedSize += att.Filesize
		}
	}

	resolved.SelectionInfo = selectionInfo(sel, resolved)
	return resolved, nil
}

// subtree returns root plus all of its descendants, parents before children.
// The tree has no fixed depth.
func subtree(root *models.Category, all []*models.Category) []*models.Category {
	children := make(map[int64][]*models.Category)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	result := []*models.Category{root}
	queue := []*models.Category{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current.ID] {
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}

// selectionInfo builds the human summary shown in the export preview.
func selectionInfo(sel Selection, r *ResolvedSelection) string {
	size := formatSize(r.EstimatedSize)
	switch sel.Type {
	case ExportCategory:
		root := r.Categories[0]
		if sub := len(r.Categories) - 1; sub > 0 {
			return fmt.Sprintf("Category %q and %d subcategories: %d documents, %d attachments (%s)",
				root.Name, sub, len(r.Documents), len(r.Attachments), size)
		}
		return fmt.Sprintf("Category %q: %d documents, %d attachments (%s)",
			root.Name, len(r.Documents), len(r.Attachments), size)
	case ExportDocument:
		return fmt.Sprintf("Document %q: %d attachments (%s)",
			r.Documents[0].Title, len(r.Attachments), size)
	default:
		return fmt.Sprintf("Complete archive: %d categories, %d documents, %d attachments (%s)",
			len(r.Categories), len(r.Documents), len(r.Attachments), size)
	}
}

// formatSize renders a byte count for humans.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
