package acquire

import (
	"fmt"
	"image"
	"os"

	// Decoders for the image formats the pipeline accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"scantext/pkg/models"
)

// LoadImage validates that the file at path is a decodable image and returns
// an AcquiredImage reference carrying its dimensions and format. The pixel
// data stays on disk; only the header is decoded here.
func LoadImage(path string, ordinal int) (models.AcquiredImage, error) {
	const op = "LoadImage"

	f, err := os.Open(path)
	if err != nil {
		return models.AcquiredImage{}, WrapAcquisitionError(op, err, fmt.Sprintf("cannot open %s", path))
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return models.AcquiredImage{}, WrapAcquisitionError(op, ErrUnsupportedImage, fmt.Sprintf("%s: %v", path, err))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return models.AcquiredImage{}, WrapAcquisitionError(op, ErrUnsupportedImage, fmt.Sprintf("%s: empty image", path))
	}

	return models.AcquiredImage{
		Ordinal: ordinal,
		Path:    path,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Format:  format,
	}, nil
}

// MimeType maps a decoded image format name to its MIME type for OCR engines
// that require one.
func MimeType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
