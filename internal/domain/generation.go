package domain

import "context"

// Generator runs a language model over a prompt and returns its raw text output.
// Implementations report every failure as a *GenerationError.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationBackend names the generator implementation for metrics and logs.
type GenerationBackend interface {
	Backend() string
	Model() string
}
