package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/allerpredict/allerpredict/internal/domain"
)

// RepairReason explains why a field did not come straight from model output.
type RepairReason string

const (
	// ReasonMissing means the field was absent or null.
	ReasonMissing RepairReason = "missing"
	// ReasonMalformed means the field had an unusable shape or value.
	ReasonMalformed RepairReason = "malformed"
	// ReasonOverridden means the field always comes from the catalog.
	ReasonOverridden RepairReason = "overridden"
)

// Repair records one defaulted or overridden field.
type Repair struct {
	Field  string
	Reason RepairReason
}

// rule repairs one AnalysisResult field from a parsed object.
type rule interface {
	fieldName() string
	apply(obj gjson.Result, product *domain.ProductRecord, out *domain.AnalysisResult) (Repair, bool)
}

// Field declares how one result field is read, coerced and defaulted.
//
// Override, when set, always wins over model output.
// Default is used when the field is missing; Fallback when coercion fails.
type Field[T any] struct {
	Name     string
	Coerce   func(v gjson.Result) (T, bool)
	Default  func(product *domain.ProductRecord) T
	Fallback func(product *domain.ProductRecord) T
	Override func(product *domain.ProductRecord) T
	Assign   func(out *domain.AnalysisResult, v T)
}

func (f Field[T]) fieldName() string { return f.Name }

func (f Field[T]) apply(obj gjson.Result, product *domain.ProductRecord, out *domain.AnalysisResult) (Repair, bool) {
	if f.Override != nil {
		f.Assign(out, f.Override(product))
		return Repair{Field: f.Name, Reason: ReasonOverridden}, true
	}

	v := obj.Get(f.Name)
	if !v.Exists() || v.Type == gjson.Null {
		f.Assign(out, f.Default(product))
		return Repair{Field: f.Name, Reason: ReasonMissing}, true
	}

	coerced, ok := f.Coerce(v)
	if !ok {
		f.Assign(out, f.Fallback(product))
		return Repair{Field: f.Name, Reason: ReasonMalformed}, true
	}
	f.Assign(out, coerced)
	return Repair{}, false
}

func constant[T any](v func() T) func(*domain.ProductRecord) T {
	return func(*domain.ProductRecord) T { return v() }
}

func emptyList() []string { return []string{} }

// DefaultSchema is the AnalysisResult repair schema.
func DefaultSchema() []rule {
	return []rule{
		Field[[]string]{
			Name:     "detected_allergens",
			Coerce:   coerceStringList,
			Default:  constant(emptyList),
			Fallback: constant(emptyList),
			Assign:   func(out *domain.AnalysisResult, v []string) { out.DetectedAllergens = v },
		},
		Field[domain.RiskLevel]{
			Name:     "risk_level",
			Coerce:   coerceRiskLevel,
			Default:  constant(func() domain.RiskLevel { return domain.RiskUnknown }),
			Fallback: constant(func() domain.RiskLevel { return domain.RiskUnknown }),
			Assign:   func(out *domain.AnalysisResult, v domain.RiskLevel) { out.RiskLevel = v },
		},
		Field[int]{
			Name:     "ethical_score",
			Coerce:   coerceScore,
			Default:  defaultEthicalScore,
			Fallback: constant(func() int { return domain.MinEthicalScore }),
			Assign:   func(out *domain.AnalysisResult, v int) { out.EthicalScore = v },
		},
		Field[[]string]{
			Name:     "recommendations",
			Override: catalogRecommendations,
			Assign:   func(out *domain.AnalysisResult, v []string) { out.Recommendations = v },
		},
	}
}

// coerceStringList accepts a list of strings or a comma-separated string.
// Items keep their order and duplicates; they are only trimmed, and blank or
// non-string items are dropped.
func coerceStringList(v gjson.Result) ([]string, bool) {
	switch {
	case v.IsArray():
		out := []string{}
		for _, item := range v.Array() {
			if item.Type != gjson.String {
				continue
			}
			if t := strings.TrimSpace(item.Str); t != "" {
				out = append(out, t)
			}
		}
		return out, true
	case v.Type == gjson.String:
		return domain.SplitList(v.Str), true
	default:
		return nil, false
	}
}

func coerceRiskLevel(v gjson.Result) (domain.RiskLevel, bool) {
	if v.Type != gjson.String {
		return "", false
	}
	r, ok := domain.ParseRiskLevel(strings.ToLower(strings.TrimSpace(v.Str)))
	if !ok || r == domain.RiskError {
		return "", false
	}
	return r, true
}

// coerceScore accepts numbers (truncated) and integer strings, clamped to the score range.
func coerceScore(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0, false
		}
		return domain.ClampEthicalScore(int(math.Max(math.Min(v.Num, math.MaxInt32), math.MinInt32))), true
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return 0, false
		}
		return domain.ClampEthicalScore(n), true
	default:
		return 0, false
	}
}

func defaultEthicalScore(product *domain.ProductRecord) int {
	if product != nil && strings.TrimSpace(product.EthicalNotes) != "" {
		return domain.EthicalScoreWithNotes
	}
	return domain.EthicalScoreWithoutNotes
}

// catalogRecommendations returns the authoritative recommendations of product.
func catalogRecommendations(product *domain.ProductRecord) []string {
	out := []string{}
	if product == nil {
		return out
	}
	for _, r := range product.Recommendations {
		if t := strings.TrimSpace(r); t != "" {
			out = append(out, t)
		}
	}
	return out
}
