package generation

import "context"

// Generator is a generation backend. The result is raw, untrusted model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
