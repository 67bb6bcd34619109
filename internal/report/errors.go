package report

import (
	"errors"
	"fmt"
)

var (
	// ErrRenderFailed is returned when the PDF document cannot be produced.
	ErrRenderFailed = errors.New("PDF rendering failed")

	// ErrRowTooTall is returned when a table row does not fit on an empty page.
	ErrRowTooTall = errors.New("table row taller than the page")
)

// RenderError wraps errors with additional context about the rendering failure.
type RenderError struct {
	// Op is the operation that failed (e.g., "Render", "Output").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("report: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("report: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Is lets every RenderError match ErrRenderFailed.
func (e *RenderError) Is(target error) bool {
	return target == ErrRenderFailed
}
