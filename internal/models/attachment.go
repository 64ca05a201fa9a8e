package models

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileType classifies an attachment by its MIME type at creation time.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypePDF   FileType = "pdf"
	FileTypeVideo FileType = "video"
	FileTypeOther FileType = "other"
)

// Attachment represents a file attached to a document. Filepath is the
// location inside the live attachment store, relative to its base directory;
// it is store-specific and never portable.
type Attachment struct {
	ID         int64    `db:"id" json:"id"`
	DocumentID int64    `db:"document_id" json:"document_id"`
	Filename   string   `db:"filename" json:"filename"`
	Filepath   string   `db:"filepath" json:"filepath"`
	Filetype   FileType `db:"filetype" json:"filetype"`
	Filesize   int64    `db:"filesize" json:"filesize"`
}

// TableName returns the table name for Attachment.
func (Attachment) TableName() string {
	return "attachments"
}

// FileTypeFromMIME maps a MIME type string to a FileType.
func FileTypeFromMIME(mime string) FileType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return FileTypeImage
	case mime == "application/pdf":
		return FileTypePDF
	case strings.HasPrefix(mime, "video/"):
		return FileTypeVideo
	default:
		return FileTypeOther
	}
}

// DetectFileType sniffs the content of the file at path and classifies it.
func DetectFileType(path string) (FileType, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return FileTypeOther, err
	}
	return FileTypeFromMIME(mt.String()), nil
}
