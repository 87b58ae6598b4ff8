package models

import "time"

// AcquiredImage is an immutable reference to a source image obtained from a
// capture, gallery pick, or document scan, together with its position in the
// acquired batch.
type AcquiredImage struct {
	// Ordinal is the zero-based position of the image within its batch.
	// Ordinals are contiguous and preserved through asynchronous recognition.
	Ordinal int `json:"ordinal"`

	// Path is the location of the decoded image payload on disk.
	Path string `json:"path"`

	// Width and Height are the pixel dimensions of the decoded image.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoded image format name ("png", "jpeg", "webp", ...).
	Format string `json:"format"`
}

// RecognitionResult pairs an acquired image's ordinal with its recognized
// text. A failed recognition yields an empty Text and Failed=true rather than
// an omitted result, so downstream page counts stay consistent with image
// counts.
type RecognitionResult struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
	Failed  bool   `json:"failed,omitempty"`
}

// ExportFormat tags the on-disk representation of an exported document.
type ExportFormat string

const (
	FormatText ExportFormat = "txt"
	FormatPDF  ExportFormat = "pdf"
)

// ExportArtifact is the handle to a successfully written export file.
// It is never produced for a failed write.
type ExportArtifact struct {
	Path      string       `json:"path"`
	Format    ExportFormat `json:"format"`
	Size      int64        `json:"size_bytes"`
	CreatedAt time.Time    `json:"created_at"`
}
