// Package analysis turns extracted lab results into a clinical analysis narrative
// using an OpenAI chat model.
package analysis

import "context"

// Analyzer produces a clinical analysis narrative for blood-test text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (string, error)
}

// Config configures the chat completion request.
type Config struct {
	APIKey      string
	Model       string  // gpt-4, gpt-4o-mini, ...
	BaseURL     string  // optional API base, e.g. a proxy
	Temperature float32
	MaxTokens   int
}

// DefaultConfig returns the request settings the report template was tuned for.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4",
		Temperature: 0.1,
		MaxTokens:   3000,
	}
}
