package domain

import "slices"

// RiskLevel is the allergen risk classification of an analysis.
type RiskLevel string

const (
	// RiskLow means no relevant allergen risk.
	RiskLow RiskLevel = "low"
	// RiskMedium means a possible allergen risk.
	RiskMedium RiskLevel = "medium"
	// RiskHigh means a definite allergen risk.
	RiskHigh RiskLevel = "high"
	// RiskUnknown means the risk could not be determined.
	RiskUnknown RiskLevel = "unknown"
	// RiskError means the analysis pipeline failed.
	RiskError RiskLevel = "error"
)

// ParseRiskLevel returns the risk level named by s, if it is one of the known levels.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch r := RiskLevel(s); r {
	case RiskLow, RiskMedium, RiskHigh, RiskUnknown, RiskError:
		return r, true
	default:
		return "", false
	}
}

// Ethical score bounds and defaults.
const (
	MinEthicalScore = 0
	MaxEthicalScore = 100

	// EthicalScoreWithNotes is assumed when the model omits the score and the product has ethical notes.
	EthicalScoreWithNotes = 70
	// EthicalScoreWithoutNotes is assumed when the model omits the score and the product has no notes.
	EthicalScoreWithoutNotes = 50
)

// ErrorRecommendationPrefix prefixes the diagnostic entry of an error result.
const ErrorRecommendationPrefix = "ERROR: "

// AnalysisResult is the machine-readable analysis contract.
type AnalysisResult struct {
	DetectedAllergens []string  `json:"detected_allergens"`
	RiskLevel         RiskLevel `json:"risk_level"`
	EthicalScore      int       `json:"ethical_score"`
	Recommendations   []string  `json:"recommendations"`
}

// UnknownResult is returned for products absent from the catalog.
func UnknownResult() AnalysisResult {
	return AnalysisResult{
		DetectedAllergens: []string{},
		RiskLevel:         RiskUnknown,
		EthicalScore:      0,
		Recommendations:   []string{},
	}
}

// ErrorResult is returned when the pipeline could not produce an analysis.
// The single recommendation entry describes the failure.
func ErrorResult(err error) AnalysisResult {
	msg := "analysis failed"
	if err != nil {
		msg = err.Error()
	}
	return AnalysisResult{
		DetectedAllergens: []string{},
		RiskLevel:         RiskError,
		EthicalScore:      0,
		Recommendations:   []string{ErrorRecommendationPrefix + msg},
	}
}

// Sanitized returns a copy with non-nil slices, a known risk level, and a clamped score.
func (r AnalysisResult) Sanitized() AnalysisResult {
	out := AnalysisResult{
		DetectedAllergens: slices.Clone(r.DetectedAllergens),
		RiskLevel:         r.RiskLevel,
		EthicalScore:      ClampEthicalScore(r.EthicalScore),
		Recommendations:   slices.Clone(r.Recommendations),
	}
	if out.DetectedAllergens == nil {
		out.DetectedAllergens = []string{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	if _, ok := ParseRiskLevel(string(out.RiskLevel)); !ok {
		out.RiskLevel = RiskUnknown
	}
	return out
}

// ClampEthicalScore bounds v to [MinEthicalScore, MaxEthicalScore].
func ClampEthicalScore(v int) int {
	return min(max(v, MinEthicalScore), MaxEthicalScore)
}
