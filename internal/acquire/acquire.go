// Package acquire obtains source images for recognition and coordinates the
// one-pending-acquisition-at-a-time invariant across the three acquisition
// sources: live capture, gallery import, and multi-page document scanning.
//
// The collaborators behind each source are modeled as narrow interfaces so the
// state machine never sees platform detail. A capture produces exactly one
// upright image; a gallery pick produces zero (user cancelled) or one image; a
// document scan produces zero or more ordered pages, optionally accompanied by
// a combined PDF rendered by the scanner itself.
package acquire

import (
	"context"

	"scantext/pkg/models"
)

// Batch is the outcome of one completed acquisition: the ordered images to be
// recognized and, for scans, the scanner's own combined PDF when it produced
// one.
type Batch struct {
	Images []models.AcquiredImage

	// ScanPDF holds the combined PDF bytes produced by the document scanner,
	// or nil. It is persisted as-is by the export writer, bypassing the
	// paginator.
	ScanPDF []byte
}

// Camera produces a single already-upright image per invocation. Orientation
// correction is the collaborator's responsibility.
type Camera interface {
	Capture(ctx context.Context) (models.AcquiredImage, error)
}

// Gallery lets the user pick a single image. A nil image with a nil error
// means the user cancelled the pick.
type Gallery interface {
	PickOne(ctx context.Context) (*models.AcquiredImage, error)
}

// Scanner runs a multi-page document scan. The page limit is enforced by the
// collaborator; an empty result means the user cancelled the scan.
type Scanner interface {
	Scan(ctx context.Context) (Batch, error)
}
