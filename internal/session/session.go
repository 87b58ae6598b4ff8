// Package session holds the per-document editing state: the acquired image
// batch, the document text buffer, and the coordination between acquisition,
// recognition, and export.
//
// A Session is scoped to one open document screen. It is created on entry,
// closed on exit, and everything in it except the exported files dies with
// it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scantext/internal/acquire"
	"scantext/internal/export"
	"scantext/internal/format"
	"scantext/internal/logger"
	"scantext/internal/recognize"
	"scantext/pkg/models"
)

var (
	// ErrSessionClosed is returned when an operation is attempted after the
	// session was torn down.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNoImages is returned when recognition is requested before any
	// acquisition has completed.
	ErrNoImages = errors.New("no acquired images in session")
)

// Session owns the single mutable DocumentText buffer and the state around
// it.
//
// The buffer starts derived: recognition populates it once per acquired
// batch. The first manual edit flips ownership to the user, after which
// late-arriving or re-triggered recognition results are dropped instead of
// overwriting the edit.
type Session struct {
	ID string

	machine *acquire.Machine
	coord   *recognize.Coordinator
	writer  *export.Writer
	log     zerolog.Logger

	mu          sync.Mutex
	text        string
	edited      bool
	closed      bool
	recognizing bool
	images      []models.AcquiredImage
	scanPDF     []byte

	notices chan string
}

// New creates a session around the given coordinator and writer.
func New(coord *recognize.Coordinator, writer *export.Writer) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		coord:   coord,
		writer:  writer,
		notices: make(chan string, 8),
	}
	s.machine = acquire.NewMachine(s.acceptBatch)
	s.log = logger.WithSession(s.ID)
	return s
}

// Machine exposes the acquisition state machine, mainly for callers observing
// acquisition state.
func (s *Session) Machine() *acquire.Machine { return s.machine }

// Notices delivers non-blocking, user-facing notices for transient failures
// (acquisition faults, per-image recognition failures). When nobody is
// draining the channel, excess notices are dropped rather than blocking the
// pipeline.
func (s *Session) Notices() <-chan string { return s.notices }

// Capture acquires a single image from the camera collaborator.
func (s *Session) Capture(ctx context.Context, cam acquire.Camera) error {
	if err := s.machine.StartCapture(); err != nil {
		return err
	}

	img, err := cam.Capture(ctx)
	if err != nil {
		return s.failAcquisition("Capture", err)
	}
	return s.machine.CompleteCapture(img)
}

// Import acquires zero or one image from the gallery collaborator.
func (s *Session) Import(ctx context.Context, gallery acquire.Gallery) error {
	if err := s.machine.StartImport(); err != nil {
		return err
	}

	img, err := gallery.PickOne(ctx)
	if err != nil {
		return s.failAcquisition("Import", err)
	}
	return s.machine.CompleteImport(img)
}

// Scan acquires an ordered page batch from the document scanner collaborator.
func (s *Session) Scan(ctx context.Context, scanner acquire.Scanner) error {
	if err := s.machine.StartScan(); err != nil {
		return err
	}

	batch, err := scanner.Scan(ctx)
	if err != nil {
		return s.failAcquisition("Scan", err)
	}
	return s.machine.CompleteScan(batch)
}

func (s *Session) failAcquisition(op string, err error) error {
	wrapped := acquire.WrapAcquisitionError(op, err, "")
	s.machine.Fail(wrapped)
	s.notify(fmt.Sprintf("could not acquire images: %v", err))
	return wrapped
}

// acceptBatch is the machine's hand-off target; it runs exactly once per
// completed acquisition.
func (s *Session) acceptBatch(batch acquire.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.log.Warn().Msg("Dropping acquired batch for closed session")
		return
	}
	s.images = batch.Images
	s.scanPDF = batch.ScanPDF
	s.log.Info().Int("images", len(batch.Images)).Msg("Batch accepted into session")
}

// Recognize runs OCR over the session's acquired batch and populates the
// document text. It runs at most once per batch: when the buffer already
// holds text, the call is a no-op, so re-observing the same completion event
// cannot trigger a second pass.
func (s *Session) Recognize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.text != "" || s.recognizing {
		s.mu.Unlock()
		s.log.Debug().Msg("Skipping recognition, document already populated")
		return nil
	}
	if len(s.images) == 0 {
		s.mu.Unlock()
		return ErrNoImages
	}
	s.recognizing = true
	images := s.images
	s.mu.Unlock()

	results, err := s.coord.Recognize(ctx, images)

	s.mu.Lock()
	s.recognizing = false
	s.mu.Unlock()

	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Failed {
			s.notify(fmt.Sprintf("could not read text from image %d", r.Ordinal+1))
		}
	}

	s.applyRecognized(format.Document(results))
	return nil
}

// applyRecognized installs the derived document text, unless the user has
// taken ownership of the buffer or the session is gone.
func (s *Session) applyRecognized(doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.log.Warn().Msg("Dropping recognition result for closed session")
		return
	}
	if s.edited {
		s.log.Warn().Msg("Dropping stale recognition result, document is user-owned")
		return
	}
	s.text = doc
}

// Edit replaces the document text with a manual user edit. From here on the
// buffer is user-owned and recognition results can no longer overwrite it.
func (s *Session) Edit(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.text = text
	s.edited = true
}

// Text returns the current document text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Edited reports whether the user has taken ownership of the document text.
func (s *Session) Edited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edited
}

// Images returns the acquired batch backing the current document.
func (s *Session) Images() []models.AcquiredImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images
}

// HasScanPDF reports whether the scanner supplied a combined PDF with the
// current batch.
func (s *Session) HasScanPDF() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scanPDF) > 0
}

// ExportText persists the current document text as a .txt artifact.
func (s *Session) ExportText(ctx context.Context) (*models.ExportArtifact, error) {
	text, _, err := s.snapshotForExport(ctx)
	if err != nil {
		return nil, err
	}
	return s.writer.WriteText(text)
}

// ExportPDF persists the current document as a paginated PDF with the source
// images embedded.
func (s *Session) ExportPDF(ctx context.Context) (*models.ExportArtifact, error) {
	text, images, err := s.snapshotForExport(ctx)
	if err != nil {
		return nil, err
	}
	return s.writer.WritePDF(text, images)
}

// ExportScanPDF persists the scanner's combined PDF for the current batch.
func (s *Session) ExportScanPDF(ctx context.Context) (*models.ExportArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	closed, pdf := s.closed, s.scanPDF
	s.mu.Unlock()

	if closed {
		return nil, ErrSessionClosed
	}
	return s.writer.WriteScanPDF(pdf)
}

func (s *Session) snapshotForExport(ctx context.Context) (string, []models.AcquiredImage, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", nil, ErrSessionClosed
	}
	return s.text, s.images, nil
}

// Close tears the session down. In-flight recognition is left to finish on
// its own; its result is discarded, and no export can start afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.notices)
	s.log.Debug().Msg("Session closed")
}

func (s *Session) notify(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case s.notices <- msg:
	default:
	}
}
