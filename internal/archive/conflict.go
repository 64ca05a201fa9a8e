package archive

import (
	"strings"

	"github.com/docvault/docvault/internal/models"
)

// Conflict matching policy:
//
// Categories match by name alone, case-insensitively, across the whole tree.
// Parent and level are not part of the identity key, so two differently
// nested categories with the same name are treated as the same category on
// import. This mirrors the original product's behavior and is deliberate,
// not an approximation.
//
// Documents match by title, case-insensitively, scoped to the category the
// document would land in after category-name remapping: if its source
// category collides with an existing category, the comparison runs against
// that existing category's current documents.

// analyzeContainer classifies every importable category and document as new
// or pre-existing and enumerates the conflicts, without mutating anything.
func analyzeContainer(store Store, c *container) (*ImportPreview, error) {
	existing, err := store.ListCategories()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.Category, len(existing))
	for _, cat := range existing {
		byName[strings.ToLower(cat.Name)] = cat
	}

	preview := &ImportPreview{
		Metadata:   c.Manifest,
		CanProceed: true,
	}

	// source category id -> matching live category (absent when new)
	targets := make(map[int64]*models.Category)
	sourceNames := make(map[int64]string)

	for _, cat := range c.Categories {
		sourceNames[cat.ID] = cat.Name
		match := byName[strings.ToLower(cat.Name)]
		preview.Summary.Categories = append(preview.Summary.Categories, CategoryPreview{
			Name:  cat.Name,
			IsNew: match == nil,
		})
		if match != nil {
			targets[cat.ID] = match
			preview.Conflicts = append(preview.Conflicts, ImportConflict{
				Type:       ConflictCategory,
				Name:       cat.Name,
				ExistingID: match.ID,
			})
		}
	}

	for _, doc := range c.Documents {
		categoryName := sourceNames[doc.CategoryID]
		isNew := true

		if target := targets[doc.CategoryID]; target != nil {
			categoryName = target.Name
			match, err := findDocumentByTitle(store, target.ID, doc.Title)
			if err != nil {
				return nil, err
			}
			if match != nil {
				isNew = false
				preview.Conflicts = append(preview.Conflicts, ImportConflict{
					Type:         ConflictDocument,
					Name:         doc.Title,
					CategoryName: target.Name,
					ExistingID:   match.ID,
				})
			}
		}

		preview.Summary.Documents = append(preview.Summary.Documents, DocumentPreview{
			Title:        doc.Title,
			CategoryName: categoryName,
			IsNew:        isNew,
		})
	}

	preview.Summary.Attachments = len(c.Attachments)
	for _, rec := range c.Attachments {
		preview.Summary.EstimatedSize += rec.Filesize
	}

	return preview, nil
}

// findDocumentByTitle returns the document in categoryID whose title matches
// case-insensitively, or nil.
func findDocumentByTitle(store Store, categoryID int64, title string) (*models.Document, error) {
	docs, err := store.ListDocumentsByCategory(categoryID)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(title)
	for _, d := range docs {
		if strings.ToLower(d.Title) == lower {
			return d, nil
		}
	}
	return nil, nil
}
