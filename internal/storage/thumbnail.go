package storage

import (
	"github.com/disintegration/imaging"
)

// thumbnailPath returns the on-disk thumbnail location for a payload path.
func thumbnailPath(absPath string) string {
	return absPath + ".thumb.jpg"
}

// generateThumbnail renders a bounded-fit JPEG thumbnail next to the payload.
func (m *Manager) generateThumbnail(absPath string) error {
	img, err := imaging.Open(absPath, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	thumb := imaging.Fit(img, m.thumbSize, m.thumbSize, imaging.Lanczos)
	return imaging.Save(thumb, thumbnailPath(absPath), imaging.JPEGQuality(82))
}

// ThumbnailFor returns the absolute thumbnail path for a payload, or ""
// when no thumbnail exists.
func (m *Manager) ThumbnailFor(storedPath string) string {
	abs := thumbnailPath(m.Resolve(storedPath))
	if !fileExists(abs) {
		return ""
	}
	return abs
}
