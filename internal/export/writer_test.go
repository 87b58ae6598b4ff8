package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"golang.org/x/image/bmp"

	"scantext/pkg/models"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, time.March, 14, 9, 26, 53, 589*int(time.Millisecond), time.UTC)
	return func() time.Time { return t }
}

// recordingIndex captures registrations in memory.
type recordingIndex struct {
	artifacts []models.ExportArtifact
	err       error
}

func (r *recordingIndex) Register(a models.ExportArtifact) error {
	if r.err != nil {
		return r.err
	}
	r.artifacts = append(r.artifacts, a)
	return nil
}

// writeTestImage encodes a small solid image and returns its acquired handle.
func writeTestImage(t *testing.T, dir, name, format string) models.AcquiredImage {
	t.Helper()

	const width, height = 12, 8
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "bmp":
		err = bmp.Encode(&buf, img)
	default:
		t.Fatalf("unsupported test image format %q", format)
	}
	if err != nil {
		t.Fatalf("encoding test image: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing test image: %v", err)
	}

	return models.AcquiredImage{
		Path:   path,
		Width:  width,
		Height: height,
		Format: format,
	}
}

func TestWriteText(t *testing.T) {
	dir := t.TempDir()
	index := &recordingIndex{}
	w := NewWriter("scantext", dir, DefaultGeometry(),
		WithMediaIndex(index), WithClock(fixedClock()))

	artifact, err := w.WriteText("recognized text\nsecond line")
	if err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}

	wantPath := filepath.Join(dir, "scantext-14032026-092653589.txt")
	if artifact.Path != wantPath {
		t.Errorf("artifact path = %q, want %q", artifact.Path, wantPath)
	}
	if artifact.Format != models.FormatText {
		t.Errorf("artifact format = %q, want %q", artifact.Format, models.FormatText)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(data) != "recognized text\nsecond line" {
		t.Errorf("file content = %q", data)
	}
	if artifact.Size != int64(len(data)) {
		t.Errorf("artifact size = %d, file has %d bytes", artifact.Size, len(data))
	}

	if len(index.artifacts) != 1 || index.artifacts[0].Path != wantPath {
		t.Errorf("media index registrations = %+v, want the written artifact", index.artifacts)
	}
}

func TestWriteTextNamePattern(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter("myapp", dir, DefaultGeometry(), WithMediaIndex(NopIndex{}))

	artifact, err := w.WriteText("x")
	if err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}

	pattern := regexp.MustCompile(`^myapp-\d{8}-\d{9}\.txt$`)
	base := filepath.Base(artifact.Path)
	if !pattern.MatchString(base) {
		t.Errorf("artifact name %q does not match ddMMyyyy-HHmmssSSS pattern", base)
	}
}

func TestWriteTextOutputDirUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "occupied")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWriter("scantext", blocker, DefaultGeometry(), WithMediaIndex(NopIndex{}))

	artifact, err := w.WriteText("text")
	if artifact != nil {
		t.Errorf("failed write returned artifact %+v, want nil", artifact)
	}
	if !errors.Is(err, ErrOutputDirUnavailable) {
		t.Errorf("error = %v, want ErrOutputDirUnavailable", err)
	}
}

func TestWriteTextIndexFailureDoesNotFailExport(t *testing.T) {
	dir := t.TempDir()
	index := &recordingIndex{err: errors.New("scanner offline")}
	w := NewWriter("scantext", dir, DefaultGeometry(), WithMediaIndex(index))

	artifact, err := w.WriteText("text")
	if err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}
	if artifact == nil {
		t.Fatal("WriteText() returned nil artifact on success")
	}
	if _, statErr := os.Stat(artifact.Path); statErr != nil {
		t.Errorf("artifact missing on disk: %v", statErr)
	}
}

func TestWritePDF(t *testing.T) {
	dir := t.TempDir()
	images := []models.AcquiredImage{
		writeTestImage(t, dir, "page0.png", "png"),
	}
	images[0].Ordinal = 0

	w := NewWriter("scantext", filepath.Join(dir, "out"), DefaultGeometry(),
		WithMediaIndex(NopIndex{}))

	artifact, err := w.WritePDF("hello\nworld", images)
	if err != nil {
		t.Fatalf("WritePDF() error: %v", err)
	}
	if artifact.Format != models.FormatPDF {
		t.Errorf("artifact format = %q, want %q", artifact.Format, models.FormatPDF)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("artifact does not start with a PDF header: %q", data[:min(8, len(data))])
	}
	if len(data) < 500 {
		t.Errorf("suspiciously small PDF: %d bytes", len(data))
	}
}

func TestWritePDFReencodesUnsupportedFormats(t *testing.T) {
	dir := t.TempDir()
	img := writeTestImage(t, dir, "scan.bmp", "bmp")

	w := NewWriter("scantext", filepath.Join(dir, "out"), DefaultGeometry(),
		WithMediaIndex(NopIndex{}))

	artifact, err := w.WritePDF("text", []models.AcquiredImage{img})
	if err != nil {
		t.Fatalf("WritePDF() with bmp source: %v", err)
	}
	if artifact == nil {
		t.Fatal("WritePDF() returned nil artifact on success")
	}
}

func TestWritePDFMissingImage(t *testing.T) {
	dir := t.TempDir()
	img := models.AcquiredImage{
		Path: filepath.Join(dir, "gone.png"), Width: 10, Height: 10, Format: "png",
	}

	w := NewWriter("scantext", dir, DefaultGeometry(), WithMediaIndex(NopIndex{}))

	artifact, err := w.WritePDF("text", []models.AcquiredImage{img})
	if artifact != nil {
		t.Errorf("failed render returned artifact %+v, want nil", artifact)
	}
	if !errors.Is(err, ErrRenderFailed) {
		t.Errorf("error = %v, want ErrRenderFailed", err)
	}
}

func TestWriteScanPDF(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter("scantext", dir, DefaultGeometry(), WithMediaIndex(NopIndex{}))

	payload := []byte("%PDF-1.4\ncombined scanner output\n%%EOF\n")
	artifact, err := w.WriteScanPDF(payload)
	if err != nil {
		t.Fatalf("WriteScanPDF() error: %v", err)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("scanner PDF was altered on disk")
	}
}

func TestWriteScanPDFEmpty(t *testing.T) {
	w := NewWriter("scantext", t.TempDir(), DefaultGeometry(), WithMediaIndex(NopIndex{}))

	artifact, err := w.WriteScanPDF(nil)
	if artifact != nil {
		t.Errorf("empty scan returned artifact %+v, want nil", artifact)
	}
	if !errors.Is(err, ErrNoScanPDF) {
		t.Errorf("error = %v, want ErrNoScanPDF", err)
	}
}

func TestManifestIndexAppendsEntries(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter("scantext", dir, DefaultGeometry())

	if _, err := w.WriteText("first"); err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}
	if _, err := w.WriteText("second export"); err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, ManifestIndexName))
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	defer f.Close()

	var entries []manifestEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e manifestEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("malformed manifest line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("manifest holds %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Format != models.FormatText {
			t.Errorf("entry format = %q, want txt", e.Format)
		}
		if _, err := os.Stat(e.Path); err != nil {
			t.Errorf("manifest points at missing file: %v", err)
		}
	}
	if entries[1].Size != int64(len("second export")) {
		t.Errorf("second entry size = %d", entries[1].Size)
	}
}

func TestAtomicWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter("scantext", dir, DefaultGeometry(), WithMediaIndex(NopIndex{}))

	if _, err := w.WriteText("durable"); err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}
