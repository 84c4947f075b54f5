package chi

import "github.com/allerpredict/allerpredict/internal/domain"

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest            ErrorCode = "bad_request"
	ErrorCodeUnauthorized          ErrorCode = "unauthorized"
	ErrorCodeValidationFailed      ErrorCode = "validation_failed"
	ErrorCodeProductNotFound       ErrorCode = "product_not_found"
	ErrorCodeEmbeddingProviderErr  ErrorCode = "embedding_provider_error"
	ErrorCodeGenerationUnavailable ErrorCode = "generation_unavailable"
	ErrorCodeCatalogEmpty          ErrorCode = "catalog_empty"
	ErrorCodeCatalogLoadFailed     ErrorCode = "catalog_load_failed"
	ErrorCodeVectorDimMismatch     ErrorCode = "vector_dim_mismatch"
	ErrorCodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// AnalyzeRequest is the body of POST /analyze_product.
// Product is accepted as an alias of ProductName.
type AnalyzeRequest struct {
	ProductName *string `json:"product_name"`
	Product     *string `json:"product"`
}

func (r AnalyzeRequest) identifier() (string, bool) {
	switch {
	case r.ProductName != nil:
		return *r.ProductName, true
	case r.Product != nil:
		return *r.Product, true
	default:
		return "", false
	}
}

// ReportResponse is the body of POST /analyze_product/report.
type ReportResponse struct {
	Result       domain.AnalysisResult  `json:"result"`
	Product      *domain.ProductRecord  `json:"product"`
	Alternatives []domain.ProductRecord `json:"alternatives"`
	Context      []string               `json:"context"`
	Narrative    string                 `json:"narrative"`
	Report       string                 `json:"report"`
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the body returned by POST /ask.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Context []string `json:"context"`
}

// ReloadResponse is the body returned by POST /admin/reload.
type ReloadResponse struct {
	Products   int    `json:"products"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Products int               `json:"products"`
	Version  string            `json:"version"`
}
