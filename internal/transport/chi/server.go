package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/logger"
	"github.com/allerpredict/allerpredict/internal/usecase/analysis"
	healthuc "github.com/allerpredict/allerpredict/internal/usecase/health"
	"github.com/allerpredict/allerpredict/internal/version"
)

// maxBodyBytes bounds request bodies; every endpoint takes a short JSON object.
const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the analysis HTTP API.
type Server struct {
	analyzer      Analyzer
	catalog       CatalogLoader
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(analyzer Analyzer, catalog CatalogLoader, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer: analyzer,
		catalog:  catalog,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeProductNotFound),
		sentinelHandler(domain.ErrCatalogEmpty, http.StatusServiceUnavailable, ErrorCodeCatalogEmpty),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderErr),
		generationHandler,
		sentinelHandler(domain.ErrCatalogLoad, http.StatusInternalServerError, ErrorCodeCatalogLoadFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, ErrorCodeVectorDimMismatch),
	}
	return s
}

// Routes registers the API endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/products", s.ListProducts)
	r.Get("/products/{id}", s.GetProduct)
	r.Post("/analyze_product", s.AnalyzeProduct)
	r.Post("/analyze_product/report", s.AnalyzeProductReport)
	r.Post("/ask", s.Ask)
	r.Post("/admin/reload", s.ReloadCatalog)
}

// AnalyzeProduct handles POST /analyze_product.
// The response is always an AnalysisResult; pipeline failures are encoded in it.
func (s *Server) AnalyzeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.decodeAnalyze(w, r)
	if !ok {
		return
	}
	a := s.analyzer.Analyze(r.Context(), id)
	writeJSON(w, http.StatusOK, a.Result)
}

// AnalyzeProductReport handles POST /analyze_product/report.
func (s *Server) AnalyzeProductReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.decodeAnalyze(w, r)
	if !ok {
		return
	}
	a := s.analyzer.Analyze(r.Context(), id)

	alternatives := a.Alternatives
	if alternatives == nil {
		alternatives = []domain.ProductRecord{}
	}
	ctxNames := a.Context
	if ctxNames == nil {
		ctxNames = []string{}
	}
	writeJSON(w, http.StatusOK, ReportResponse{
		Result:       a.Result,
		Product:      a.Product,
		Alternatives: alternatives,
		Context:      ctxNames,
		Narrative:    a.Narrative,
		Report:       analysis.FormatReport(a),
	})
}

// ListProducts handles GET /products.
func (s *Server) ListProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.analyzer.ListProducts())
}

// GetProduct handles GET /products/{id}. The id may be a numeric id or a name.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.analyzer.Product(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ans, err := s.analyzer.Ask(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	ctxNames := ans.Context
	if ctxNames == nil {
		ctxNames = []string{}
	}
	writeJSON(w, http.StatusOK, AskResponse{Answer: ans.Text, Context: ctxNames})
}

// ReloadCatalog handles POST /admin/reload.
func (s *Server) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalog.Load(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{
		Products:   cat.Len(),
		Dimensions: cat.Dimension(),
		Model:      cat.Model(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Products: report.Products,
		Version:  version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeAnalyze(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req AnalyzeRequest
	if !decodeBody(w, r, &req) {
		return "", false
	}
	id, ok := req.identifier()
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "product_name is required")
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage maps err to a message that is safe to expose.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		msg := err.Error()
		if idx := strings.Index(msg, domain.ErrInvalidRequest.Error()); idx >= 0 {
			return msg[idx:]
		}
	}
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrNotFound,
		domain.ErrCatalogEmpty,
		domain.ErrEmbeddingProviderError,
		domain.ErrCatalogLoad,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	if kind, ok := domain.GenerationFailure(err); ok {
		return domain.ErrGenerationUnavailable.Error() + ": " + string(kind)
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if errors.Is(err, sentinel) {
			writeError(w, status, code, msg)
			return true
		}
		return false
	}
}

// generationHandler maps generation failures; a timeout becomes 504.
func generationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		return false
	}
	status := http.StatusServiceUnavailable
	if kind, _ := domain.GenerationFailure(err); kind == domain.FailureTimeout {
		status = http.StatusGatewayTimeout
	}
	writeError(w, status, ErrorCodeGenerationUnavailable, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
