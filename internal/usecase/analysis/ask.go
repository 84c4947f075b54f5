package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/logger"
	"github.com/allerpredict/allerpredict/internal/usecase/prompt"
	"github.com/allerpredict/allerpredict/internal/usecase/recommend"
)

// Answer is the reply to a free-form question.
type Answer struct {
	Text    string
	Context []string
}

// Ask answers a free-form question grounded on the top-k retrieved products.
// Unlike Analyze, failures are returned to the caller.
func (s *Service) Ask(ctx context.Context, question string) (Answer, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return Answer{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidRequest)
	}
	log := logger.FromContext(ctx)

	cat := s.catalog.Current()
	if cat.Len() == 0 {
		return Answer{}, domain.ErrCatalogEmpty
	}
	hits, err := s.retriever.Retrieve(ctx, cat, q, s.cfg.TopK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	records := make([]domain.ProductRecord, len(hits))
	for i, h := range hits {
		records[i] = h.Record
	}

	raw, err := s.generator.Generate(ctx, s.prompts.Question(prompt.Context(records, s.cfg.Granularity), q))
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationUnavailable) {
			err = domain.NewGenerationError(domain.FailureProvider, err)
		}
		log.Warn("Question generation failed", zap.Error(err))
		return Answer{}, fmt.Errorf("answer question: %w", err)
	}

	return Answer{
		Text:    strings.TrimSpace(raw),
		Context: recommend.Names(records),
	}, nil
}
