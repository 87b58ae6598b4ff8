// Package recognize drives optical character recognition over acquired image
// batches.
//
// The OCR engine itself is an opaque collaborator behind the Engine interface;
// the package ships three implementations: Google Cloud Vision (hosted,
// default), Google Document AI (hosted, processor-based), and Tesseract
// (on-device via gosseract). The Coordinator fans a batch out over the engine
// with bounded concurrency while keeping results in acquisition order and
// isolating per-image failures from the rest of the batch.
//
// Hosted engines read credentials from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
package recognize

import "context"

// MaxImageSizeBytes is the maximum image size accepted for synchronous
// processing (20MB, the hosted engines' inline-content limit).
const MaxImageSizeBytes = 20 * 1024 * 1024

// Engine performs OCR on a single image and returns the recognized plain
// text. The pipeline treats engines as black boxes: confidence scores,
// bounding boxes, and language metadata are never inspected, only the final
// text string.
type Engine interface {
	// Name identifies the engine in logs and CLI flags.
	Name() string

	// Recognize extracts text from one encoded image. An image with no
	// detectable text yields an empty string and a nil error.
	Recognize(ctx context.Context, data []byte, mimeType string) (string, error)
}
