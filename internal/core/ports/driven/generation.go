package driven

import "context"

// Generator is the external text-generation capability. One prompt in,
// one completion out; no streaming.
type Generator interface {
	// Complete returns generated text for a single prompt
	Complete(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the generation service is available
	Ping(ctx context.Context) error
}
