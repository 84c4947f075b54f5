package allerpredict

import "github.com/allerpredict/allerpredict/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrCatalogLoad            = domain.ErrCatalogLoad
	ErrCatalogEmpty           = domain.ErrCatalogEmpty
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrGenerationUnavailable  = domain.ErrGenerationUnavailable
)
