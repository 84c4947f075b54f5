package allerpredict

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allerpredict/allerpredict/internal/domain"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator runs a language model over a prompt and returns its raw text output.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck delegates to the wrapped embedder when it can check itself.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

const customBackend = "custom"

// generatorAdapter wraps public Generator and classifies its failures.
type generatorAdapter struct {
	inner   Generator
	model   string
	timeout time.Duration
}

func (a *generatorAdapter) Backend() string { return customBackend }
func (a *generatorAdapter) Model() string   { return a.model }

func (a *generatorAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	out, err := a.inner.Generate(ctx, prompt)
	if err != nil {
		if _, ok := domain.GenerationFailure(err); ok {
			return "", err
		}
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return "", domain.NewGenerationError(domain.FailureTimeout, err)
		case errors.Is(err, context.Canceled):
			return "", domain.NewGenerationError(domain.FailureCanceled, err)
		default:
			return "", domain.NewGenerationError(domain.FailureProvider, err)
		}
	}
	if strings.TrimSpace(out) == "" {
		return "", domain.NewGenerationError(domain.FailureEmptyOutput, nil)
	}
	return out, nil
}
