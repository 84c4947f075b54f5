package allerpredict

import (
	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/usecase/analysis"
	healthuc "github.com/allerpredict/allerpredict/internal/usecase/health"
)

// RiskLevel is the allergen risk classification of an analysis.
type RiskLevel string

// Risk level constants.
const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskUnknown RiskLevel = "unknown"
	RiskError   RiskLevel = "error"
)

// Product is a catalog entry.
type Product struct {
	ID               *int64   `json:"id,omitempty"`
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Brand            string   `json:"brand"`
	Description      string   `json:"description"`
	Ingredients      []string `json:"ingredients"`
	AllergenWarnings []string `json:"allergen_warnings"`
	EthicalNotes     string   `json:"ethical_notes"`
	Recommendations  []string `json:"recommendations"`
}

// Result is the machine-readable analysis of a product.
type Result struct {
	DetectedAllergens []string  `json:"detected_allergens"`
	RiskLevel         RiskLevel `json:"risk_level"`
	EthicalScore      int       `json:"ethical_score"`
	Recommendations   []string  `json:"recommendations"`
}

// Analysis is the outcome of Client.Analyze.
type Analysis struct {
	Result Result
	// Product is nil when the identifier matched nothing in the catalog.
	Product      *Product
	Alternatives []Product
	// Context names the catalog products the model was shown.
	Context   []string
	Narrative string
	// Report is a plain text rendering of the analysis.
	Report string
}

// Found reports whether the identifier matched a catalog product.
func (a Analysis) Found() bool { return a.Product != nil }

// Answer is the reply to a free-form question.
type Answer struct {
	Text    string
	Context []string
}

// CatalogInfo describes the installed catalog.
type CatalogInfo struct {
	Products   int
	Dimensions int
	Model      string
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status   string            // "ok", "degraded", "error"
	Checks   map[string]string // component → "ok"/"error"
	Products int
}

func toProduct(r *domain.ProductRecord) Product {
	return Product{
		ID:               r.ID,
		Name:             r.Name,
		Category:         r.Category,
		Brand:            r.Brand,
		Description:      r.Description,
		Ingredients:      r.Ingredients,
		AllergenWarnings: r.AllergenWarnings,
		EthicalNotes:     r.EthicalNotes,
		Recommendations:  r.Recommendations,
	}
}

func toProducts(records []domain.ProductRecord) []Product {
	out := make([]Product, len(records))
	for i := range records {
		out[i] = toProduct(&records[i])
	}
	return out
}

func toResult(r domain.AnalysisResult) Result {
	return Result{
		DetectedAllergens: r.DetectedAllergens,
		RiskLevel:         RiskLevel(r.RiskLevel),
		EthicalScore:      r.EthicalScore,
		Recommendations:   r.Recommendations,
	}
}

func toAnalysis(a analysis.Analysis) Analysis {
	out := Analysis{
		Result:       toResult(a.Result),
		Alternatives: toProducts(a.Alternatives),
		Context:      a.Context,
		Narrative:    a.Narrative,
		Report:       analysis.FormatReport(a),
	}
	if a.Product != nil {
		p := toProduct(a.Product)
		out.Product = &p
	}
	return out
}

func toHealthStatus(r healthuc.Report) HealthStatus {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:   string(r.Status),
		Checks:   checks,
		Products: r.Products,
	}
}
