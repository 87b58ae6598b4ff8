package acquire

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writePNG stores a valid width x height PNG at path.
func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.Gray{Y: 128})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	writePNG(t, path, 40, 30)

	img, err := LoadImage(path, 3)
	if err != nil {
		t.Fatalf("LoadImage() error: %v", err)
	}
	if img.Ordinal != 3 {
		t.Errorf("ordinal = %d, want 3", img.Ordinal)
	}
	if img.Width != 40 || img.Height != 30 {
		t.Errorf("dimensions = %dx%d, want 40x30", img.Width, img.Height)
	}
	if img.Format != "png" {
		t.Errorf("format = %q, want png", img.Format)
	}
}

func TestLoadImageRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("plain text, wrong extension"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadImage(path, 0); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("error = %v, want ErrUnsupportedImage", err)
	}
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"png":  "image/png",
		"jpeg": "image/jpeg",
		"gif":  "image/gif",
		"webp": "image/webp",
		"bmp":  "image/bmp",
		"tiff": "image/tiff",
	}
	for format, want := range tests {
		if got := MimeType(format); got != want {
			t.Errorf("MimeType(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestFileCamera(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	writePNG(t, path, 10, 10)

	img, err := FileCamera{Path: path}.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if img.Path != path {
		t.Errorf("captured path = %q, want %q", img.Path, path)
	}
}

func TestFileCameraFault(t *testing.T) {
	cam := FileCamera{Path: filepath.Join(t.TempDir(), "missing.png")}

	if _, err := cam.Capture(context.Background()); !errors.Is(err, ErrCameraFault) {
		t.Errorf("error = %v, want ErrCameraFault", err)
	}
}

func TestFileGalleryCancel(t *testing.T) {
	img, err := FileGallery{}.PickOne(context.Background())
	if err != nil {
		t.Fatalf("PickOne() error: %v", err)
	}
	if img != nil {
		t.Errorf("dismissed picker returned image %+v, want nil", img)
	}
}

func TestFileGalleryUnreadable(t *testing.T) {
	g := FileGallery{Path: filepath.Join(t.TempDir(), "missing.png")}

	if _, err := g.PickOne(context.Background()); !errors.Is(err, ErrGalleryUnavailable) {
		t.Errorf("error = %v, want ErrGalleryUnavailable", err)
	}
}

func TestDirScanner(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "page-2.png"), 10, 10)
	writePNG(t, filepath.Join(dir, "page-1.png"), 10, 10)
	writePNG(t, filepath.Join(dir, "page-3.png"), 10, 10)
	// Non-image files in the session directory are not pages.
	if err := os.WriteFile(filepath.Join(dir, "session.log"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	batch, err := DirScanner{Dir: dir, PageLimit: 5}.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(batch.Images) != 3 {
		t.Fatalf("got %d pages, want 3", len(batch.Images))
	}
	for i, img := range batch.Images {
		if img.Ordinal != i {
			t.Errorf("page %d has ordinal %d", i, img.Ordinal)
		}
	}
	if filepath.Base(batch.Images[0].Path) != "page-1.png" {
		t.Errorf("pages not in lexical order: first is %q", batch.Images[0].Path)
	}
	if batch.ScanPDF != nil {
		t.Errorf("unexpected combined PDF in batch")
	}
}

func TestDirScannerPageLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		writePNG(t, filepath.Join(dir, name), 10, 10)
	}

	batch, err := DirScanner{Dir: dir, PageLimit: 2}.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(batch.Images) != 2 {
		t.Errorf("got %d pages, want the first 2", len(batch.Images))
	}
}

func TestDirScannerCombinedPDF(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "page.png"), 10, 10)
	pdf := []byte("%PDF-1.4\nscanner rendition\n")
	if err := os.WriteFile(filepath.Join(dir, CombinedPDFName), pdf, 0644); err != nil {
		t.Fatal(err)
	}

	batch, err := DirScanner{Dir: dir, PageLimit: 5}.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if !bytes.Equal(batch.ScanPDF, pdf) {
		t.Errorf("combined PDF missing or altered")
	}
}

func TestDirScannerMissingDir(t *testing.T) {
	s := DirScanner{Dir: filepath.Join(t.TempDir(), "nope")}

	if _, err := s.Scan(context.Background()); !errors.Is(err, ErrScannerFault) {
		t.Errorf("error = %v, want ErrScannerFault", err)
	}
}
