package generation

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/metrics"
)

// DefaultBackoff is the delay between generation attempts.
const DefaultBackoff = 500 * time.Millisecond

// RetryingGenerator retries transient generation failures with exponential backoff.
// Only timeouts and non-zero exits are retried; zero retries means a single attempt.
type RetryingGenerator struct {
	inner      Generator
	backend    string
	maxRetries uint64
	backoff    time.Duration
	logger     *zap.Logger
}

// NewRetryingGenerator wraps inner. A non-positive backoff uses DefaultBackoff.
func NewRetryingGenerator(
	inner Generator, backend string, maxRetries int, backoff time.Duration, logger *zap.Logger,
) *RetryingGenerator {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &RetryingGenerator{
		inner:      inner,
		backend:    backend,
		maxRetries: uint64(max(maxRetries, 0)),
		backoff:    backoff,
		logger:     logger,
	}
}

// Generate implements Generator.
func (g *RetryingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.maxRetries == 0 {
		return g.inner.Generate(ctx, prompt)
	}

	var out string
	attempt := 0
	err := retry.Do(ctx, g.backoffPolicy(),
		func(ctx context.Context) error {
			attempt++
			var err error
			out, err = g.inner.Generate(ctx, prompt)
			if err == nil {
				return nil
			}
			kind, _ := domain.GenerationFailure(err)
			if !Retryable(kind) {
				return err
			}
			if uint64(attempt) <= g.maxRetries {
				metrics.GenerationRetriesTotal.WithLabelValues(g.backend, string(kind)).Inc()
				g.logger.Warn("Generation attempt failed, retrying",
					zap.String("backend", g.backend),
					zap.Int("attempt", attempt),
					zap.String("kind", string(kind)),
					zap.Error(err),
				)
			}
			return retry.RetryableError(err)
		},
	)
	if err != nil {
		if _, ok := domain.GenerationFailure(err); !ok && ctx.Err() != nil {
			kind := domain.FailureCanceled
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				kind = domain.FailureTimeout
			}
			return "", domain.NewGenerationError(kind, ctx.Err())
		}
		return "", err
	}
	return out, nil
}

// backoffPolicy waits a constant backoff between attempts, up to maxRetries retries.
func (g *RetryingGenerator) backoffPolicy() retry.Backoff {
	return retry.WithMaxRetries(g.maxRetries, retry.NewConstant(g.backoff))
}

// Retryable reports whether a failure kind may succeed on another attempt.
func Retryable(kind domain.GenerationFailureKind) bool {
	return kind == domain.FailureTimeout || kind == domain.FailureExitStatus
}
