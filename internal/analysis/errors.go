package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is returned when there is nothing to analyze.
	ErrEmptyText = errors.New("text is empty")

	// ErrMissingAPIKey is returned when no OpenAI API key is configured.
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is required")

	// ErrNoChoices is returned when the completion carries no choices.
	ErrNoChoices = errors.New("no response choices from model")

	// ErrEmptyResponse is returned when the model answers with empty content.
	ErrEmptyResponse = errors.New("model returned an empty analysis")
)

// AnalysisError wraps errors with the operation and model that failed.
type AnalysisError struct {
	Op    string
	Model string
	Err   error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("analysis: %s failed (model: %s): %v", e.Op, e.Model, e.Err)
	}
	return fmt.Sprintf("analysis: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}
