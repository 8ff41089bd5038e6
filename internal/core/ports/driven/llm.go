package driven

import "context"

// LLMService produces grounded answers from assembled context.
// This is an optional service - when nil, only raw retrieval is available.
type LLMService interface {
	// Stream generates an answer for the user prompt under the given
	// system prompt, invoking onToken for each generated token fragment
	// in order. A non-nil error from onToken aborts generation.
	Stream(ctx context.Context, system, prompt string, onToken func(token string) error) error

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
