package export

import (
	"errors"
	"fmt"
)

// Common export errors
var (
	// ErrOutputDirUnavailable is returned when the app-scoped output directory
	// cannot be created or accessed.
	ErrOutputDirUnavailable = errors.New("output directory unavailable")

	// ErrWriteFailed is returned when the durable write of an export file
	// fails. No artifact handle is produced.
	ErrWriteFailed = errors.New("export write failed")

	// ErrRenderFailed is returned when PDF document rendering or
	// serialization fails.
	ErrRenderFailed = errors.New("PDF rendering failed")

	// ErrNoScanPDF is returned when a scan-PDF export is requested but the
	// scanner produced no combined PDF.
	ErrNoScanPDF = errors.New("no combined scan PDF to persist")
)

// ExportError wraps errors with additional context about the export failure.
// All collaborator and I/O faults are converted to this type at the export
// boundary; raw filesystem errors never reach the session layer directly.
type ExportError struct {
	// Op is the operation that failed (e.g., "WriteText", "WritePDF").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

func (e *ExportError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("export: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("export: %s failed: %v", e.Op, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

func (e *ExportError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapExportError wraps an error as an ExportError if it isn't already one.
func WrapExportError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var expErr *ExportError
	if errors.As(err, &expErr) {
		return err
	}

	return &ExportError{Op: op, Err: err, Details: details}
}
