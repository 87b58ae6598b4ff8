package acquire

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scantext/pkg/models"
)

// imageExtensions lists the file extensions the local collaborators treat as
// scan pages (matched case-insensitively).
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tiff": true, ".tif": true,
}

// FileCamera is a Camera backed by a staged image file. The platform camera
// pipeline has already captured, rotated, and saved the frame; this
// collaborator hands the upright result to the pipeline.
type FileCamera struct {
	Path string
}

func (c FileCamera) Capture(ctx context.Context) (models.AcquiredImage, error) {
	const op = "Capture"

	if err := ctx.Err(); err != nil {
		return models.AcquiredImage{}, WrapAcquisitionError(op, err, "")
	}
	img, err := LoadImage(c.Path, 0)
	if err != nil {
		return models.AcquiredImage{}, WrapAcquisitionError(op, ErrCameraFault, err.Error())
	}
	return img, nil
}

// FileGallery is a Gallery backed by a single local image file. An empty path
// models the user dismissing the picker without choosing anything.
type FileGallery struct {
	Path string
}

func (g FileGallery) PickOne(ctx context.Context) (*models.AcquiredImage, error) {
	const op = "PickOne"

	if err := ctx.Err(); err != nil {
		return nil, WrapAcquisitionError(op, err, "")
	}
	if g.Path == "" {
		return nil, nil // user cancelled
	}
	img, err := LoadImage(g.Path, 0)
	if err != nil {
		return nil, WrapAcquisitionError(op, ErrGalleryUnavailable, err.Error())
	}
	return &img, nil
}

// DirScanner is a Scanner backed by a directory of ordered page images, the
// way a multi-page scan session leaves its output. Pages are the image files
// of the directory in lexical order, capped at PageLimit. A combined PDF named
// scan.pdf sitting next to the pages is returned as the scanner's own
// rendition of the document.
type DirScanner struct {
	Dir       string
	PageLimit int
}

// CombinedPDFName is the file name under which a scanner session stores its
// combined PDF rendition.
const CombinedPDFName = "scan.pdf"

func (s DirScanner) Scan(ctx context.Context) (Batch, error) {
	const op = "Scan"

	if err := ctx.Err(); err != nil {
		return Batch{}, WrapAcquisitionError(op, err, "")
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return Batch{}, WrapAcquisitionError(op, ErrScannerFault, err.Error())
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(s.Dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	limit := s.PageLimit
	if limit <= 0 {
		limit = 5
	}
	if len(paths) > limit {
		paths = paths[:limit]
	}

	batch := Batch{}
	for i, path := range paths {
		img, err := LoadImage(path, i)
		if err != nil {
			return Batch{}, WrapAcquisitionError(op, ErrScannerFault, err.Error())
		}
		batch.Images = append(batch.Images, img)
	}

	if pdf, err := os.ReadFile(filepath.Join(s.Dir, CombinedPDFName)); err == nil {
		batch.ScanPDF = pdf
	}

	return batch, nil
}
