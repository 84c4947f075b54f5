// Package generation decorates generation backends with metrics and bounded retries.
package generation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/metrics"
)

// InstrumentedGenerator records per-attempt request, duration and failure metrics.
type InstrumentedGenerator struct {
	inner   Generator
	backend string
	model   string
	logger  *zap.Logger
}

// NewInstrumentedGenerator wraps inner with metrics labeled by backend and model.
func NewInstrumentedGenerator(inner Generator, backend, model string, logger *zap.Logger) *InstrumentedGenerator {
	return &InstrumentedGenerator{inner: inner, backend: backend, model: model, logger: logger}
}

// Generate implements Generator.
func (g *InstrumentedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	out, err := g.inner.Generate(ctx, prompt)

	duration := time.Since(start)
	metrics.GenerationRequestDuration.WithLabelValues(g.backend, g.model).Observe(duration.Seconds())

	if err != nil {
		kind, ok := domain.GenerationFailure(err)
		if !ok {
			kind = domain.FailureProvider
			err = domain.NewGenerationError(kind, err)
		}
		metrics.GenerationRequestsTotal.WithLabelValues(g.backend, g.model, "error").Inc()
		metrics.GenerationFailuresTotal.WithLabelValues(g.backend, string(kind)).Inc()
		return "", err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.backend, g.model, "success").Inc()
	g.logger.Debug("Generation completed",
		zap.String("backend", g.backend),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_len", len(prompt)),
		zap.Int("output_len", len(out)),
	)
	return out, nil
}
