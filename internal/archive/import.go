package archive

import (
	"fmt"
	"os"
	"strings"

	apperr "github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/logging"
	"github.com/docvault/docvault/internal/models"
)

// ImportEngine restores a container file into a possibly non-empty store.
// Construct one per import operation.
type ImportEngine struct {
	store    Store
	files    FileStore
	progress ProgressFunc
	lastPct  int
}

// NewImportEngine creates an ImportEngine. progress may be nil.
func NewImportEngine(store Store, files FileStore, progress ProgressFunc) *ImportEngine {
	if progress == nil {
		progress = func(Progress) {}
	}
	return &ImportEngine{
		store:    store,
		files:    files,
		progress: progress,
	}
}

// PreviewImport extracts and analyzes an archive without mutating anything.
// Its temporary extraction directory is always removed before returning.
func (e *ImportEngine) PreviewImport(archivePath string) (*ImportPreview, error) {
	e.lastPct = 0
	e.report(PhaseReading, 0, "", "Reading archive")

	c, err := openContainer(archivePath)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	e.report(PhaseAnalyzing, 50, "", "Analyzing archive contents")
	preview, err := analyzeContainer(e.store, c)
	if err != nil {
		return nil, err
	}

	e.report(PhaseComplete, 100, "", "Analysis complete")
	return preview, nil
}

// ImportArchive performs the mutating import under the given resolution.
// Extraction or parse failures abort before any store mutation; after that,
// already-committed rows stay committed and per-item failures are recorded
// as warnings instead of aborting the batch.
func (e *ImportEngine) ImportArchive(archivePath string, res Resolution) (*ImportReport, error) {
	if !res.Categories.Valid() {
		return nil, apperr.Newf(apperr.ErrConflictUnresolved, "no category resolution policy provided (got %q)", res.Categories)
	}
	if !res.Documents.Valid() {
		return nil, apperr.Newf(apperr.ErrConflictUnresolved, "no document resolution policy provided (got %q)", res.Documents)
	}

	e.lastPct = 0
	e.report(PhaseReading, 0, "", "Reading archive")

	c, err := openContainer(archivePath)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	e.report(PhaseReading, 25, "", fmt.Sprintf("Archive contains %d categories, %d documents, %d attachments",
		len(c.Categories), len(c.Documents), len(c.Attachments)))

	report := &ImportReport{}

	categoryMap, err := e.importCategories(c, res.Categories, report)
	if err != nil {
		return report, err
	}

	documentMap, err := e.importDocuments(c, res.Documents, categoryMap, report)
	if err != nil {
		return report, err
	}

	if err := e.importAttachments(c, documentMap, report); err != nil {
		return report, err
	}

	e.report(PhaseComplete, 100, "", fmt.Sprintf("Import complete (%d warnings)", len(report.Warnings)))
	return report, nil
}

// importCategories resolves every archive category against the live store in
// manifest order, building the old-id to new-id mapping.
func (e *ImportEngine) importCategories(c *container, policy Policy, report *ImportReport) (*IDMap, error) {
	existing, err := e.store.ListCategories()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.Category, len(existing))
	for _, cat := range existing {
		byName[strings.ToLower(cat.Name)] = cat
	}

	categoryMap := NewIDMap()
	for i, cat := range c.Categories {
		match := byName[strings.ToLower(cat.Name)]
		if match == nil {
			created := &models.Category{
				Name:        cat.Name,
				Icon:        cat.Icon,
				Color:       cat.Color,
				Description: cat.Description,
				Level:       cat.Level,
				SortOrder:   cat.SortOrder,
				CreatedAt:   cat.CreatedAt,
			}
			// Relocate the parent reference when the parent is part of the
			// batch. Exports write parents before children, so the mapping
			// is already there for our own archives.
			if cat.ParentID != nil {
				if newParent, ok := categoryMap.Get(*cat.ParentID); ok {
					created.ParentID = &newParent
				} else {
					e.warn(report, cat.Name, "parent category not in archive; imported at top level")
				}
			}
			if err := e.store.CreateCategory(created); err != nil {
				return nil, err
			}
			byName[strings.ToLower(created.Name)] = created
			categoryMap.Put(cat.ID, created.ID)
			report.CategoriesCreated++
		} else {
			switch policy {
			case PolicySkip:
				// Reuse the existing category untouched.
			case PolicyMerge, PolicyReplace:
				// Both overwrite name casing, icon and color in place and
				// keep the existing id.
				if err := e.store.UpdateCategory(match.ID, cat.Name, cat.Icon, cat.Color); err != nil {
					return nil, err
				}
				match.Name = cat.Name
				match.Icon = cat.Icon
				match.Color = cat.Color
				report.CategoriesMerged++
			}
			categoryMap.Put(cat.ID, match.ID)
		}

		pct := 25 + (i+1)*25/len(c.Categories)
		e.report(PhaseImportingCategories, pct, cat.Name,
			fmt.Sprintf("Imported category %d of %d", i+1, len(c.Categories)))
	}
	return categoryMap, nil
}

// importDocuments relocates each document via the category mapping and
// re-runs the per-category title match against the already-updated store
// state. A document whose source category has no mapping is skipped with a
// warning; it never aborts the batch.
func (e *ImportEngine) importDocuments(c *container, policy Policy, categoryMap *IDMap, report *ImportReport) (*IDMap, error) {
	documentMap := NewIDMap()
	for i, doc := range c.Documents {
		targetCategory, ok := categoryMap.Get(doc.CategoryID)
		if !ok {
			e.warn(report, doc.Title, "source category was not part of the import; document skipped")
			report.DocumentsSkipped++
			continue
		}

		match, err := findDocumentByTitle(e.store, targetCategory, doc.Title)
		if err != nil {
			return nil, err
		}

		if match == nil {
			created := &models.Document{
				Title:       doc.Title,
				Description: doc.Description,
				TextContent: doc.TextContent,
				CategoryID:  targetCategory,
				CreatedAt:   doc.CreatedAt,
				UpdatedAt:   doc.UpdatedAt,
			}
			if err := e.store.CreateDocument(created); err != nil {
				return nil, err
			}
			documentMap.Put(doc.ID, created.ID)
			report.DocumentsCreated++
		} else {
			switch policy {
			case PolicySkip:
				report.DocumentsSkipped++
			case PolicyMerge, PolicyReplace:
				if err := e.store.UpdateDocument(match.ID, doc.Title, doc.Description, doc.TextContent); err != nil {
					return nil, err
				}
				report.DocumentsUpdated++
			}
			documentMap.Put(doc.ID, match.ID)
		}

		pct := 50 + (i+1)*25/len(c.Documents)
		e.report(PhaseImportingDocuments, pct, doc.Title,
			fmt.Sprintf("Imported document %d of %d", i+1, len(c.Documents)))
	}
	return documentMap, nil
}

// importAttachments copies payloads into the live store and registers a new
// attachment row for each. Attachments are never merged: every successfully
// copied payload becomes a new row, even when its document was resolved via
// merge or skip, so repeated imports accumulate duplicates.
func (e *ImportEngine) importAttachments(c *container, documentMap *IDMap, report *ImportReport) error {
	for i, rec := range c.Attachments {
		targetDocument, ok := documentMap.Get(rec.DocumentID)
		if !ok {
			e.warn(report, rec.Filename, "owning document was not imported; attachment skipped")
			continue
		}

		payload := c.payloadPath(rec)
		if _, err := os.Stat(payload); err != nil {
			e.warn(report, rec.Filename, "payload missing from archive; attachment skipped")
			continue
		}

		stored, err := e.files.Store(targetDocument, rec.Filename, payload)
		if err != nil {
			e.warn(report, rec.Filename, fmt.Sprintf("failed to copy payload: %v", err))
			continue
		}

		att := &models.Attachment{
			DocumentID: targetDocument,
			Filename:   rec.Filename,
			Filepath:   stored.Path,
			Filetype:   rec.Filetype,
			Filesize:   stored.Size,
		}
		if att.Filetype == "" {
			att.Filetype = stored.Type
		}
		if err := e.store.AddAttachment(att); err != nil {
			return err
		}
		report.AttachmentsImported++

		pct := 75 + (i+1)*25/len(c.Attachments)
		e.report(PhaseCopyingAttachments, pct, rec.Filename,
			fmt.Sprintf("Imported attachment %d of %d", i+1, len(c.Attachments)))
	}
	return nil
}

func (e *ImportEngine) warn(report *ImportReport, item, reason string) {
	report.Warnings = append(report.Warnings, Warning{Item: item, Reason: reason})
	logging.Warn("import warning", map[string]interface{}{
		"item":   item,
		"reason": reason,
	})
}

// report delivers a progress update, clamping so the percentage never
// decreases within a run.
func (e *ImportEngine) report(phase Phase, pct int, item, message string) {
	if pct < e.lastPct {
		pct = e.lastPct
	}
	e.lastPct = pct
	e.progress(Progress{
		Phase:       phase,
		Progress:    pct,
		CurrentItem: item,
		Message:     message,
	})
}
