package archive

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/docvault/docvault/internal/logging"
)

// ExportEngine serializes a resolved selection into a portable container
// file. Construct one per export operation.
type ExportEngine struct {
	store      Store
	files      FileStore
	appVersion string
	progress   ProgressFunc
	lastPct    int
	warnings   []Warning
}

// NewExportEngine creates an ExportEngine. progress may be nil.
func NewExportEngine(store Store, files FileStore, appVersion string, progress ProgressFunc) *ExportEngine {
	if progress == nil {
		progress = func(Progress) {}
	}
	return &ExportEngine{
		store:      store,
		files:      files,
		appVersion: appVersion,
		progress:   progress,
	}
}

// SelectiveExportStats computes export preview numbers without writing
// anything to the filesystem.
func (e *ExportEngine) SelectiveExportStats(sel Selection) (*ExportStats, error) {
	resolved, err := ResolveSelection(e.store, sel)
	if err != nil {
		return nil, err
	}
	return &ExportStats{
		Categories:    len(resolved.Categories),
		Documents:     len(resolved.Documents),
		Attachments:   len(resolved.Attachments),
		EstimatedSize: resolved.EstimatedSize,
		SelectionInfo: resolved.SelectionInfo,
	}, nil
}

// Warnings returns the per-item warnings accumulated by the last run.
func (e *ExportEngine) Warnings() []Warning {
	return e.warnings
}

// ExportArchive writes the container for the selection to dest. The file
// appears at dest only if the whole export succeeded; failures remove the
// partial output. Export is a one-shot user action so nothing is retried.
func (e *ExportEngine) ExportArchive(dest string, sel Selection) error {
	e.lastPct = 0
	e.warnings = nil

	e.report(PhaseCollecting, 0, "", "Resolving selection")
	resolved, err := ResolveSelection(e.store, sel)
	if err != nil {
		return err
	}
	e.report(PhaseCollecting, 10, "", resolved.SelectionInfo)

	manifest := e.buildManifest(sel, resolved)
	records := buildAttachmentRecords(resolved)

	w, err := newContainerWriter(dest)
	if err != nil {
		return err
	}
	done := false
	defer func() {
		if !done {
			w.abort()
		}
	}()

	// Payloads first: the copy loop dominates the run time.
	for i, rec := range records {
		att := resolved.Attachments[i]
		srcPath := e.files.Resolve(att.Filepath)
		if _, err := w.writeFile(rec.ExportPath, srcPath); err != nil {
			if os.IsNotExist(underlying(err)) {
				e.warn(rec.Filename, "payload file missing from attachment store")
				continue
			}
			return err
		}
		pct := 10 + (i+1)*60/len(records)
		e.report(PhaseCopyingAttachments, pct, rec.Filename,
			fmt.Sprintf("Copied attachment %d of %d", i+1, len(records)))
	}

	e.report(PhaseCreatingArchive, 70, "", "Writing records")
	if err := w.writeJSON(entryMetadata, manifest); err != nil {
		return err
	}
	for i, cat := range resolved.Categories {
		pct := 70 + (i+1)*10/len(resolved.Categories)
		e.report(PhaseCreatingArchive, pct, cat.Name, "Writing categories")
	}
	if err := w.writeJSON(entryCategories, resolved.Categories); err != nil {
		return err
	}
	for i, doc := range resolved.Documents {
		pct := 80 + (i+1)*10/len(resolved.Documents)
		e.report(PhaseCreatingArchive, pct, doc.Title, "Writing documents")
	}
	if err := w.writeJSON(entryDocuments, resolved.Documents); err != nil {
		return err
	}
	if err := w.writeJSON(entryAttachments, records); err != nil {
		return err
	}

	e.report(PhaseCreatingArchive, 95, "", "Finalizing archive")
	if err := w.finalize(); err != nil {
		return err
	}
	done = true

	e.report(PhaseComplete, 100, "", fmt.Sprintf("Archive written to %s", dest))
	return nil
}

func (e *ExportEngine) buildManifest(sel Selection, r *ResolvedSelection) *Manifest {
	m := &Manifest{
		Version:          ContainerVersion,
		ExportDate:       time.Now().UTC().Format(time.RFC3339),
		AppVersion:       e.appVersion,
		TotalCategories:  len(r.Categories),
		TotalDocuments:   len(r.Documents),
		TotalAttachments: len(r.Attachments),
		ExportType:       sel.Type,
	}
	switch sel.Type {
	case ExportCategory:
		id := sel.CategoryID
		m.CategoryID = &id
	case ExportDocument:
		id := sel.DocumentID
		m.DocumentID = &id
	}
	return m
}

// buildAttachmentRecords assigns every attachment a container path unique
// within the archive, namespaced by its source document id. The index prefix
// keeps same-named files within one document apart.
func buildAttachmentRecords(r *ResolvedSelection) []*AttachmentRecord {
	perDoc := make(map[int64]int)
	records := make([]*AttachmentRecord, 0, len(r.Attachments))
	for _, att := range r.Attachments {
		idx := perDoc[att.DocumentID]
		perDoc[att.DocumentID] = idx + 1
		records = append(records, &AttachmentRecord{
			ID:           att.ID,
			DocumentID:   att.DocumentID,
			Filename:     att.Filename,
			Filetype:     att.Filetype,
			Filesize:     att.Filesize,
			ExportPath:   fmt.Sprintf("attachments/%d/%d_%s", att.DocumentID, idx, sanitizeName(att.Filename)),
			OriginalPath: att.Filepath,
		})
	}
	return records
}

// sanitizeName keeps only the final path element of the display name so it
// cannot introduce directories inside the container.
func sanitizeName(filename string) string {
	name := strings.ReplaceAll(filename, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return "attachment"
	}
	return name
}

func (e *ExportEngine) warn(item, reason string) {
	e.warnings = append(e.warnings, Warning{Item: item, Reason: reason})
	logging.Warn("export warning", map[string]interface{}{
		"item":   item,
		"reason": reason,
	})
}

// report delivers a progress update, clamping so the percentage never
// decreases within a run.
func (e *ExportEngine) report(phase Phase, pct int, item, message string) {
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

// underlying unwraps to the deepest error for os.IsNotExist checks.
func underlying(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok || u.Unwrap() == nil {
			return err
		}
		err = u.Unwrap()
	}
}
