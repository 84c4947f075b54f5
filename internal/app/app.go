// Package app wires the analysis pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/config"
	"github.com/allerpredict/allerpredict/internal/db"
	dbRedis "github.com/allerpredict/allerpredict/internal/db/redis"
	"github.com/allerpredict/allerpredict/internal/domain"
	domcat "github.com/allerpredict/allerpredict/internal/domain/catalog"
	"github.com/allerpredict/allerpredict/internal/metrics"
	"github.com/allerpredict/allerpredict/internal/repository/catalogfile"
	"github.com/allerpredict/allerpredict/internal/repository/embcache"
	openaiTransport "github.com/allerpredict/allerpredict/internal/transport/openai"
	"github.com/allerpredict/allerpredict/internal/transport/process"
	"github.com/allerpredict/allerpredict/internal/usecase/analysis"
	cataloguc "github.com/allerpredict/allerpredict/internal/usecase/catalog"
	embeddinguc "github.com/allerpredict/allerpredict/internal/usecase/embedding"
	generationuc "github.com/allerpredict/allerpredict/internal/usecase/generation"
	healthuc "github.com/allerpredict/allerpredict/internal/usecase/health"
	"github.com/allerpredict/allerpredict/internal/usecase/normalize"
	"github.com/allerpredict/allerpredict/internal/usecase/prompt"
	"github.com/allerpredict/allerpredict/internal/usecase/retrieval"
)

// GenerationBackend is a generator that can name and health-check itself.
type GenerationBackend interface {
	domain.Generator
	domain.GenerationBackend
}

// Option overrides a component built from configuration.
type Option func(*options)

type options struct {
	embedder  domain.Embedder
	generator GenerationBackend
	source    cataloguc.Source
}

// WithEmbedder replaces the configured embedding provider.
// The decorators (cache, dimension checks, instructions) still apply.
func WithEmbedder(e domain.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithGenerator replaces the configured generation backend.
// Instrumentation and retries still apply.
func WithGenerator(g GenerationBackend) Option {
	return func(o *options) { o.generator = g }
}

// WithCatalogSource replaces the catalog file reader.
func WithCatalogSource(s cataloguc.Source) Option {
	return func(o *options) { o.source = s }
}

// App holds the wired services.
type App struct {
	Catalog  *cataloguc.Service
	Analysis *analysis.Service
	Health   *healthuc.Service

	store  db.Store
	logger *zap.Logger
}

// New builds the pipeline. The catalog is empty until Catalog.Load succeeds.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	metrics.Register()

	// Pass a nil interface, not a typed nil pointer, when the cache is disabled.
	var store db.Store
	if cfg.Cache.Enabled {
		s, err := openStore(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		store = s
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	base := o.embedder
	if base == nil {
		base = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
	}
	docEmbedder := buildEmbedder(base, cfg, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(base, cfg, cfg.Embedding.QueryInstruction, store, logger)

	backend := o.generator
	if backend == nil {
		backend = buildBackend(cfg.Generation, logger)
	}
	var generator domain.Generator = generationuc.NewInstrumentedGenerator(
		backend, backend.Backend(), backend.Model(), logger,
	)
	generator = generationuc.NewRetryingGenerator(
		generator, backend.Backend(), cfg.Generation.MaxRetries,
		time.Duration(cfg.Generation.RetryBackoffMS)*time.Millisecond, logger,
	)

	source := o.source
	if source == nil {
		source = catalogfile.NewReader(cfg.Catalog.Path)
	}
	granularity := domain.Granularity(cfg.Embedding.Granularity)
	catSvc := cataloguc.New(source, docEmbedder, cfg.Embedding.Model, granularity, logger)

	analysisSvc := analysis.New(
		catSvc,
		retrieval.New(queryEmbedder),
		prompt.NewBuilder(prompt.Template(cfg.Generation.Template)),
		generator,
		normalize.New(metrics.NormalizerRepairsTotal, logger),
		analysis.Config{
			TopK:            cfg.Retrieval.TopK,
			MaxAlternatives: cfg.Retrieval.MaxAlternatives,
			MatchMode:       domcat.MatchMode(cfg.Catalog.MatchMode),
			Granularity:     granularity,
		},
	)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(
		func() healthuc.CatalogSizer { return catSvc.Current() },
		healthCheckerOf(base),
		healthCheckerOf(backend),
		cachePinger,
	)

	logger.Info("Pipeline created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_backend", backend.Backend()),
		zap.String("generation_model", backend.Model()),
		zap.String("template", cfg.Generation.Template),
		zap.Int("top_k", cfg.Retrieval.TopK),
		zap.Int("max_retries", cfg.Generation.MaxRetries),
	)

	return &App{
		Catalog:  catSvc,
		Analysis: analysisSvc,
		Health:   healthSvc,
		store:    store,
		logger:   logger,
	}, nil
}

// Close releases the cache connection, if any.
func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

func openStore(ctx context.Context, cfg config.CacheConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache store: %w", err)
	}
	if err := s.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		s.Close()
		return nil, fmt.Errorf("cache not ready: %w", err)
	}
	return s, nil
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	base domain.Embedder,
	cfg *config.Config,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if store != nil {
		var ttl time.Duration
		if cfg.Cache.TTLHours > 0 {
			ttl = time.Duration(cfg.Cache.TTLHours) * time.Hour
		}
		embedder = embcache.New(base, store, embcache.Options{
			Model:  cfg.Embedding.Model,
			Prefix: cfg.Cache.KeyPrefix,
			TTL:    ttl,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger,
	)

	// Instruction prefix (outermost, so the cache key includes it)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

func buildBackend(cfg config.GenerationConfig, logger *zap.Logger) GenerationBackend {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if cfg.Backend == openaiTransport.BackendName {
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     timeout,
			Logger:      logger,
		})
	}
	return process.NewGenerator(process.Config{
		Command: cfg.Command,
		Args:    cfg.Args,
		Model:   cfg.Model,
		Timeout: timeout,
		Logger:  logger,
	})
}

// healthCheckerOf returns v as a health checker, or nil when v cannot check itself.
func healthCheckerOf(v any) healthuc.Checker {
	if hc, ok := v.(domain.HealthChecker); ok {
		return hc
	}
	return nil
}

// ErrNoProducts is returned by LoadCatalog when the catalog loaded but is empty.
var ErrNoProducts = errors.New("catalog has no products")

// LoadCatalog loads the catalog and rejects an empty result.
func (a *App) LoadCatalog(ctx context.Context) (*domcat.Catalog, error) {
	cat, err := a.Catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if cat.Len() == 0 {
		a.logger.Warn("Catalog is empty")
		return cat, ErrNoProducts
	}
	return cat, nil
}
