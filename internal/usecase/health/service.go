package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog is unusable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentCatalog    = "catalog"
	ComponentEmbedding  = "embedding"
	ComponentGeneration = "generation"
	ComponentCache      = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Products int
}

// Service coordinates health checks.
type Service struct {
	catalog    func() CatalogSizer
	embedding  Checker
	generation Checker
	cache      CachePinger
}

// New creates a Service. catalog returns the active snapshot on every check.
// embedding, generation and cache can be nil.
func New(catalog func() CatalogSizer, embedding, generation Checker, cache CachePinger) *Service {
	return &Service{catalog: catalog, embedding: embedding, generation: generation, cache: cache}
}

// Check runs health checks against all components.
// An empty catalog makes the service unhealthy; any other failure degrades it.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	checks := make(map[string]CheckResult)

	size := 0
	if s.catalog != nil {
		if c := s.catalog(); c != nil {
			size = c.Len()
		}
	}
	checks[ComponentCatalog] = CheckOK
	if size == 0 {
		checks[ComponentCatalog] = CheckError
	}

	run := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			log.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			checks[name] = CheckError
			return
		}
		checks[name] = CheckOK
	}
	if s.embedding != nil {
		run(ComponentEmbedding, s.embedding.HealthCheck)
	}
	if s.generation != nil {
		run(ComponentGeneration, s.generation.HealthCheck)
	}
	if s.cache != nil {
		run(ComponentCache, s.cache.Ping)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentCatalog] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Products: size}
}
