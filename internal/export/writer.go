package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	// Decoders for embedded-image re-encoding; the PDF renderer only accepts
	// PNG, JPEG, and GIF natively.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"scantext/internal/logger"
	"scantext/pkg/models"
)

// Writer persists document text to the app-scoped output directory as plain
// text or paginated PDF, names files deterministically from the app name and
// a millisecond timestamp, and registers every artifact with the media index.
//
// Every failure is converted to a typed ExportError at this boundary and no
// artifact handle is ever returned for a failed write. Files are written to a
// temporary name and renamed into place, so a crash mid-write cannot leave a
// half-written export under the final name.
type Writer struct {
	appName string
	dir     string
	geom    Geometry
	index   MediaIndex
	now     func() time.Time
	log     zerolog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithMediaIndex replaces the default manifest index.
func WithMediaIndex(index MediaIndex) WriterOption {
	return func(w *Writer) { w.index = index }
}

// WithClock replaces the timestamp source (for testing).
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

// NewWriter creates a writer that exports into dir under the given app name.
func NewWriter(appName, dir string, geom Geometry, opts ...WriterOption) *Writer {
	w := &Writer{
		appName: appName,
		dir:     dir,
		geom:    geom,
		index:   NewManifestIndex(dir),
		now:     time.Now,
		log:     logger.WithComponent("export"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteText writes the document text as raw bytes to a uniquely named .txt
// file and returns its handle.
func (w *Writer) WriteText(text string) (*models.ExportArtifact, error) {
	const op = "WriteText"
	return w.persist(op, models.FormatText, []byte(text))
}

// WritePDF renders the document as a PDF, source images first (one page
// each, scaled to fit and centered), then the text paginated across as many
// pages as it needs, and writes it to a uniquely named .pdf file.
func (w *Writer) WritePDF(text string, images []models.AcquiredImage) (*models.ExportArtifact, error) {
	const op = "WritePDF"

	data, err := w.renderPDF(text, images)
	if err != nil {
		w.log.Error().Err(err).Msg("PDF rendering failed")
		return nil, WrapExportError(op, ErrRenderFailed, err.Error())
	}

	return w.persist(op, models.FormatPDF, data)
}

// WriteScanPDF persists a scanner-produced combined PDF as-is, bypassing the
// paginator, under the same naming convention as other exports.
func (w *Writer) WriteScanPDF(pdf []byte) (*models.ExportArtifact, error) {
	const op = "WriteScanPDF"

	if len(pdf) == 0 {
		return nil, WrapExportError(op, ErrNoScanPDF, "")
	}
	return w.persist(op, models.FormatPDF, pdf)
}

func (w *Writer) renderPDF(text string, images []models.AcquiredImage) ([]byte, error) {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w.geom.PageWidth, Ht: w.geom.PageHeight},
	})
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont("Helvetica", "", w.geom.FontSize)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for _, page := range Paginate(text, images, w.geom) {
		doc.AddPage()
		switch page.Kind {
		case KindImage:
			if err := drawImagePage(doc, *page.Image, w.geom); err != nil {
				return nil, err
			}
		case KindText:
			y := w.geom.VerticalPadding + w.geom.FontSize
			for _, line := range page.Lines {
				doc.Text(w.geom.HorizontalPadding, y, tr(line))
				y += w.geom.FontSize + lineAdvance
			}
		}
	}

	if err := doc.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawImagePage(doc *fpdf.Fpdf, img models.AcquiredImage, geom Geometry) error {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return fmt.Errorf("read image %d: %w", img.Ordinal, err)
	}

	var imageType string
	switch img.Format {
	case "png":
		imageType = "PNG"
	case "jpeg":
		imageType = "JPEG"
	case "gif":
		imageType = "GIF"
	default:
		// Formats fpdf cannot embed are re-encoded as PNG.
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decode image %d: %w", img.Ordinal, err)
		}
		var pngBuf bytes.Buffer
		if err := png.Encode(&pngBuf, decoded); err != nil {
			return fmt.Errorf("re-encode image %d: %w", img.Ordinal, err)
		}
		data = pngBuf.Bytes()
		imageType = "PNG"
	}

	name := fmt.Sprintf("image-%d", img.Ordinal)
	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))

	x, y, width, height := FitRect(img.Width, img.Height, geom)
	doc.ImageOptions(name, x, y, width, height, false, opts, 0, "")
	return doc.Error()
}

func (w *Writer) persist(op string, format models.ExportFormat, data []byte) (*models.ExportArtifact, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.log.Error().Err(err).Str("dir", w.dir).Msg("Output directory unavailable")
		return nil, WrapExportError(op, ErrOutputDirUnavailable, err.Error())
	}

	created := w.now()
	path := filepath.Join(w.dir, fmt.Sprintf("%s-%s.%s", w.appName, exportTimestamp(created), format))

	if err := atomicWrite(path, data); err != nil {
		w.log.Error().Err(err).Str("path", path).Msg("Export write failed")
		return nil, WrapExportError(op, ErrWriteFailed, err.Error())
	}

	artifact := &models.ExportArtifact{
		Path:      path,
		Format:    format,
		Size:      int64(len(data)),
		CreatedAt: created,
	}

	if err := w.index.Register(*artifact); err != nil {
		// The write itself is durable; failed discovery registration is not
		// an export failure.
		w.log.Warn().Err(err).Str("path", path).Msg("Media index registration failed")
	}

	w.log.Info().
		Str("path", path).
		Str("format", string(format)).
		Int64("size", artifact.Size).
		Msg("Export written")

	return artifact, nil
}

// exportTimestamp formats a time as ddMMyyyy-HHmmssSSS, the millisecond
// granularity keeping concurrent exports from colliding on a name.
func exportTimestamp(t time.Time) string {
	return fmt.Sprintf("%s%03d", t.Format("02012006-150405"), t.Nanosecond()/int(time.Millisecond))
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
