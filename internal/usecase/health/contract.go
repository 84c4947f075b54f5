package health

import "context"

// CatalogSizer reports the size of the active catalog.
type CatalogSizer interface {
	Len() int
}

// Checker checks availability of an external dependency.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
