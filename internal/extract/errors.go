package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat means no extractor handles the file. Retrying won't help.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrExtractionFailed  = errors.New("text extraction failed")
)

// ExtractionError is returned when a format was recognized but its extractor
// failed or panicked. It matches ErrExtractionFailed with errors.Is.
type ExtractionError struct {
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s text, %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtractionFailed, e.Err}
}
