// Package catalog builds the in-memory catalog and swaps it atomically on reload.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
	domcat "github.com/allerpredict/allerpredict/internal/domain/catalog"
	"github.com/allerpredict/allerpredict/internal/metrics"
)

// Service owns the current catalog snapshot.
// Readers get an immutable snapshot; a reload never mutates a published one.
type Service struct {
	source      Source
	embed       Embedder
	model       string
	granularity domain.Granularity
	logger      *zap.Logger

	current  atomic.Pointer[domcat.Catalog]
	reloadMu sync.Mutex
}

// New creates a catalog service. Until Load succeeds, Current returns an empty catalog.
func New(source Source, embed Embedder, model string, granularity domain.Granularity, logger *zap.Logger) *Service {
	if !granularity.Valid() {
		granularity = domain.GranularityDocument
	}
	s := &Service{
		source:      source,
		embed:       embed,
		model:       model,
		granularity: granularity,
		logger:      logger,
	}
	s.current.Store(domcat.Empty())
	return s
}

// Current returns the installed catalog snapshot.
func (s *Service) Current() *domcat.Catalog {
	return s.current.Load()
}

// Granularity returns the text granularity used for catalog vectors.
func (s *Service) Granularity() domain.Granularity { return s.granularity }

// Load reads the source, embeds entries without vectors and installs the result.
// On failure the previous snapshot stays in place.
func (s *Service) Load(ctx context.Context) (*domcat.Catalog, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()

	cat, err := s.build(ctx)
	if err != nil {
		metrics.CatalogReloadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Catalog load failed", zap.Error(err))
		return nil, err
	}

	s.current.Store(cat)
	metrics.CatalogReloadsTotal.WithLabelValues("success").Inc()
	metrics.CatalogProducts.Set(float64(cat.Len()))

	s.logger.Info("Catalog installed",
		zap.Int("products", cat.Len()),
		zap.Int("dimensions", cat.Dimension()),
		zap.String("model", cat.Model()),
		zap.Duration("duration", time.Since(start)),
	)
	return cat, nil
}

func (s *Service) build(ctx context.Context) (*domcat.Catalog, error) {
	entries, err := s.source.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var missing []int
	for i := range entries {
		if len(entries[i].Vector) == 0 {
			missing = append(missing, i)
		}
	}

	if len(missing) > 0 {
		if s.embed == nil {
			return nil, fmt.Errorf("%w: %d products have no embedding and no embedder is configured",
				domain.ErrCatalogLoad, len(missing))
		}
		texts := make([]string, len(missing))
		for j, i := range missing {
			texts[j] = entries[i].Record.Text(s.granularity)
		}
		res, err := domain.BatchEmbed(ctx, s.embed, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embed catalog: %w", domain.ErrCatalogLoad, err)
		}
		if len(res.Embeddings) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d products",
				domain.ErrCatalogLoad, len(res.Embeddings), len(texts))
		}
		for j, i := range missing {
			entries[i].Vector = res.Embeddings[j]
		}
		s.logger.Debug("Catalog embedded",
			zap.Int("embedded", len(missing)),
			zap.Int("total_tokens", res.TotalTokens),
		)
	}

	cat, err := domcat.New(entries, s.model)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}
