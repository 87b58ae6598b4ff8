package recognize

import (
	"errors"
	"fmt"
)

// Common recognition errors
var (
	// ErrEmptyBatch is returned when recognition is requested for zero images.
	ErrEmptyBatch = errors.New("no images to recognize")

	// ErrImageTooLarge is returned when an image exceeds the engine's size
	// limit for synchronous processing.
	ErrImageTooLarge = errors.New("image exceeds maximum size limit")

	// ErrRecognitionFailed is returned when the OCR engine fails to process an
	// image.
	ErrRecognitionFailed = errors.New("OCR processing failed")

	// ErrMissingCredentials is returned when a hosted engine is selected but
	// no Google Cloud credentials are configured. Set
	// GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrInvalidConfiguration is returned when engine configuration is
	// incomplete (e.g., no Document AI processor).
	ErrInvalidConfiguration = errors.New("invalid OCR engine configuration")
)

// RecognitionError wraps errors with additional context about the recognition
// failure.
type RecognitionError struct {
	// Op is the operation that failed (e.g., "Recognize", "NewVisionEngine").
	Op string

	// Ordinal is the batch position of the affected image, or -1 when the
	// failure is not tied to a single image.
	Ordinal int

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

func (e *RecognitionError) Error() string {
	if e.Ordinal >= 0 {
		return fmt.Sprintf("recognize: %s failed for image %d: %v", e.Op, e.Ordinal, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("recognize: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("recognize: %s failed: %v", e.Op, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

func (e *RecognitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapRecognitionError wraps an error as a RecognitionError if it isn't
// already one.
func WrapRecognitionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var recErr *RecognitionError
	if errors.As(err, &recErr) {
		return err
	}

	return &RecognitionError{Op: op, Ordinal: -1, Err: err, Details: details}
}
