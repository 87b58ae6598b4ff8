package acquire

import (
	"errors"
	"fmt"
)

// Common acquisition errors
var (
	// ErrAcquisitionBusy is returned when a new acquisition is requested while
	// another is already in flight. The request is rejected, never queued.
	ErrAcquisitionBusy = errors.New("another acquisition is already in flight")

	// ErrUnexpectedCompletion is returned when a completion event arrives for
	// an acquisition that is not in flight, including a second delivery of the
	// same completion. The event is discarded without corrupting state.
	ErrUnexpectedCompletion = errors.New("no matching acquisition in flight for completion")

	// ErrCameraFault is returned when the camera collaborator fails to produce
	// an image.
	ErrCameraFault = errors.New("camera capture failed")

	// ErrGalleryUnavailable is returned when the gallery collaborator cannot be
	// accessed.
	ErrGalleryUnavailable = errors.New("gallery is not accessible")

	// ErrScannerFault is returned when the document scanner collaborator fails.
	ErrScannerFault = errors.New("document scan failed")

	// ErrUnsupportedImage is returned when an acquired file cannot be decoded
	// as an image.
	ErrUnsupportedImage = errors.New("file is not a decodable image")
)

// AcquisitionError wraps errors with additional context about the acquisition
// failure.
type AcquisitionError struct {
	// Op is the operation that failed (e.g., "Capture", "Scan").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

func (e *AcquisitionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("acquire: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("acquire: %s failed: %v", e.Op, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

func (e *AcquisitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapAcquisitionError wraps an error as an AcquisitionError if it isn't
// already one.
func WrapAcquisitionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var acqErr *AcquisitionError
	if errors.As(err, &acqErr) {
		return err
	}

	return &AcquisitionError{Op: op, Err: err, Details: details}
}
