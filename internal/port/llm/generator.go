// Package llm defines the port for the external text generation service.
package llm

import "context"

// Request is a single prompt sent to the generation service.
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
}

// Response is the raw reply of the generation service.
type Response struct {
	Content   string
	Model     string
	TokensIn  int
	TokensOut int
}

// Generator sends one prompt to the generation service and returns its reply.
// Implementations make exactly one attempt and never retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
