// Package archive implements the portable archive import/export engine:
// container codec, selection resolution, conflict analysis, and the two
// orchestrating engines. Engines are constructed per operation and hold no
// shared state beyond their progress callback.
package archive

import (
	"github.com/docvault/docvault/internal/models"
)

// ContainerVersion is the archive format version this codec writes.
// Unknown versions are rejected on read rather than best-effort parsed.
const ContainerVersion = "1.0"

// Container entry names. These four plus the attachment payloads are the
// complete top-level contents of an archive.
const (
	entryMetadata    = "metadata.json"
	entryCategories  = "categories.json"
	entryDocuments   = "documents.json"
	entryAttachments = "attachments.json"
)

// ExportType selects what subset of the data model an archive covers.
type ExportType string

const (
	ExportComplete ExportType = "complete"
	ExportCategory ExportType = "category"
	ExportDocument ExportType = "document"
)

// Manifest is the metadata.json payload. The optional CategoryID/DocumentID
// are pre-remap source-store ids kept for human diagnostics only.
type Manifest struct {
	Version          string     `json:"version"`
	ExportDate       string     `json:"exportDate"`
	AppVersion       string     `json:"appVersion"`
	TotalCategories  int        `json:"totalCategories"`
	TotalDocuments   int        `json:"totalDocuments"`
	TotalAttachments int        `json:"totalAttachments"`
	ExportType       ExportType `json:"exportType"`
	CategoryID       *int64     `json:"categoryId,omitempty"`
	DocumentID       *int64     `json:"documentId,omitempty"`
}

// AttachmentRecord is an attachments.json entry: an attachment row plus its
// location inside the container (exportPath) and its path in the source
// store at export time (originalPath, diagnostics only).
type AttachmentRecord struct {
	ID           int64           `json:"id"`
	DocumentID   int64           `json:"document_id"`
	Filename     string          `json:"filename"`
	Filetype     models.FileType `json:"filetype"`
	Filesize     int64           `json:"filesize"`
	ExportPath   string          `json:"exportPath"`
	OriginalPath string          `json:"originalPath"`
}

// Phase identifies an engine state for progress reporting.
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseCollecting          Phase = "collecting"
	PhaseCopyingAttachments  Phase = "copying-attachments"
	PhaseCreatingArchive     Phase = "creating-archive"
	PhaseReading             Phase = "reading"
	PhaseAnalyzing           Phase = "analyzing"
	PhaseImportingCategories Phase = "importing-categories"
	PhaseImportingDocuments  Phase = "importing-documents"
	PhaseComplete            Phase = "complete"
)

// Progress is delivered to the caller-supplied callback after every
// meaningful step. Within one run Progress values never decrease.
type Progress struct {
	Phase       Phase  `json:"phase"`
	Progress    int    `json:"progress"`
	CurrentItem string `json:"currentItem,omitempty"`
	Message     string `json:"message"`
}

// ProgressFunc receives progress updates. A nil callback is valid.
type ProgressFunc func(Progress)

// Selection describes an export request.
type Selection struct {
	Type       ExportType `json:"type"`
	CategoryID int64      `json:"categoryId,omitempty"`
	DocumentID int64      `json:"documentId,omitempty"`
}

// ResolvedSelection is the exhaustive set of records an export will include.
type ResolvedSelection struct {
	Categories    []*models.Category
	Documents     []*models.Document
	Attachments   []*models.Attachment
	EstimatedSize int64
	SelectionInfo string
}

// ExportStats is the preview variant of a resolved selection, safe to compute
// with no filesystem writes.
type ExportStats struct {
	Categories    int    `json:"categories"`
	Documents     int    `json:"documents"`
	Attachments   int    `json:"attachments"`
	EstimatedSize int64  `json:"estimatedSize"`
	SelectionInfo string `json:"selectionInfo"`
}

// Policy is a per-entity-type conflict resolution policy. Every mutating
// import must carry an explicit policy; there is no implicit default.
type Policy string

const (
	PolicySkip    Policy = "skip"
	PolicyMerge   Policy = "merge"
	PolicyReplace Policy = "replace"
)

// Valid reports whether the policy is one of the three known values.
func (p Policy) Valid() bool {
	return p == PolicySkip || p == PolicyMerge || p == PolicyReplace
}

// Resolution carries the conflict policies for one import run.
type Resolution struct {
	Categories Policy `json:"categories"`
	Documents  Policy `json:"documents"`
}

// ConflictType distinguishes category from document conflicts.
type ConflictType string

const (
	ConflictCategory ConflictType = "category"
	ConflictDocument ConflictType = "document"
)

// ImportConflict describes one name collision between the archive and the
// live store, for the preview UI.
type ImportConflict struct {
	Type         ConflictType `json:"type"`
	Name         string       `json:"name"`
	CategoryName string       `json:"categoryName,omitempty"`
	ExistingID   int64        `json:"existingId"`
}

// CategoryPreview classifies one importable category for the preview UI.
type CategoryPreview struct {
	Name  string `json:"name"`
	IsNew bool   `json:"isNew"`
}

// DocumentPreview classifies one importable document for the preview UI.
// CategoryName is the category the document would land in after remapping.
type DocumentPreview struct {
	Title        string `json:"title"`
	CategoryName string `json:"categoryName"`
	IsNew        bool   `json:"isNew"`
}

// ImportSummary aggregates the new/existing classification of an archive.
type ImportSummary struct {
	Categories    []CategoryPreview `json:"categories"`
	Documents     []DocumentPreview `json:"documents"`
	Attachments   int               `json:"attachments"`
	EstimatedSize int64             `json:"estimatedSize"`
}

// ImportPreview is the non-destructive analysis of an archive against the
// live store. Conflicts never block proceeding; they only require a policy.
type ImportPreview struct {
	Metadata   *Manifest        `json:"metadata"`
	Summary    ImportSummary    `json:"summary"`
	Conflicts  []ImportConflict `json:"conflicts"`
	CanProceed bool             `json:"canProceed"`
}

// Warning records a per-item failure that was routed around rather than
// aborting the batch.
type Warning struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// ImportReport summarizes what one import run actually did.
type ImportReport struct {
	CategoriesCreated   int       `json:"categoriesCreated"`
	CategoriesMerged    int       `json:"categoriesMerged"`
	DocumentsCreated    int       `json:"documentsCreated"`
	DocumentsUpdated    int       `json:"documentsUpdated"`
	DocumentsSkipped    int       `json:"documentsSkipped"`
	AttachmentsImported int       `json:"attachmentsImported"`
	Warnings            []Warning `json:"warnings,omitempty"`
}
