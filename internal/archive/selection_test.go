package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/docvault/docvault/internal/errors"
)

func TestResolveSelectionComplete(t *testing.T) {
	store := newMemStore()
	files := newMemFiles(t)

	work := store.addCategory(t, "Work", nil)
	personal := store.addCategory(t, "Personal", nil)
	reports := store.addCategory(t, "Reports", &work.ID)

	d1 := store.addDocument(t, work.ID, "Plan")
	d2 := store.addDocument(t, reports.ID, "Q1 Report")
	store.addDocument(t, personal.ID, "Diary")

	files.put(t, store, d1.ID, "plan.pdf", "0123456789")
	files.put(t, store, d2.ID, "q1.xlsx", "abcde")

	resolved, err := ResolveSelection(store, Selection{Type: ExportComplete})
	require.NoError(t, err)

	assert.Len(t, resolved.Categories, 3)
	assert.Len(t, resolved.Documents, 3)
	assert.Len(t, resolved.Attachments, 2)
	assert.Equal(t, int64(15), resolved.EstimatedSize)
	assert.Contains(t, resolved.SelectionInfo, "Complete archive")
}

func TestResolveSelectionCategorySubtree(t *testing.T) {
	store := newMemStore()

	work := store.addCategory(t, "Work", nil)
	reports := store.addCategory(t, "Reports", &work.ID)
	archive := store.addCategory(t, "Archive", &reports.ID)
	store.addCategory(t, "Personal", nil)

	store.addDocument(t, work.ID, "Plan")
	store.addDocument(t, archive.ID, "Old Report")

	resolved, err := ResolveSelection(store, Selection{Type: ExportCategory, CategoryID: work.ID})
	require.NoError(t, err)

	// Root first, then descendants level by level. The sibling tree is out.
	assert.Equal(t, []string{"work", "reports", "archive"}, lowerNames(resolved.Categories))
	assert.Len(t, resolved.Documents, 2)
}

func TestResolveSelectionDocumentOwnerOnly(t *testing.T) {
	store := newMemStore()
	files := newMemFiles(t)

	work := store.addCategory(t, "Work", nil)
	store.addCategory(t, "Reports", &work.ID)

	plan := store.addDocument(t, work.ID, "Plan")
	store.addDocument(t, work.ID, "Notes")
	files.put(t, store, plan.ID, "plan.pdf", "xyz")

	resolved, err := ResolveSelection(store, Selection{Type: ExportDocument, DocumentID: plan.ID})
	require.NoError(t, err)

	// Only the owning category, no subtree. Only the one document, no siblings.
	assert.Equal(t, []string{"work"}, lowerNames(resolved.Categories))
	require.Len(t, resolved.Documents, 1)
	assert.Equal(t, "Plan", resolved.Documents[0].Title)
	assert.Len(t, resolved.Attachments, 1)
}

func TestResolveSelectionMissingRoot(t *testing.T) {
	store := newMemStore()

	_, err := ResolveSelection(store, Selection{Type: ExportCategory, CategoryID: 12345})
	requireCode(t, err, apperr.ErrNotFound)

	_, err = ResolveSelection(store, Selection{Type: ExportDocument, DocumentID: 12345})
	requireCode(t, err, apperr.ErrNotFound)
}

func TestResolveSelectionUnknownType(t *testing.T) {
	store := newMemStore()

	_, err := ResolveSelection(store, Selection{Type: "everything"})
	requireCode(t, err, apperr.ErrInvalid)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}
