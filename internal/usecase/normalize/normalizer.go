// Package normalize turns free-text model output into a schema-valid AnalysisResult.
package normalize

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/usecase/prompt"
)

// Outcome is a normalized model response.
type Outcome struct {
	Result    domain.AnalysisResult
	Narrative string
	Repairs   []Repair
	Malformed bool
}

// Normalizer extracts, validates and repairs model output field by field.
type Normalizer struct {
	schema       []rule
	repairsTotal *prometheus.CounterVec
	logger       *zap.Logger
}

// New creates a Normalizer with the default schema.
// repairsTotal is a counter vec with labels "field" and "reason"; it may be nil.
func New(repairsTotal *prometheus.CounterVec, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{schema: DefaultSchema(), repairsTotal: repairsTotal, logger: logger}
}

// Normalize builds a complete AnalysisResult from raw output and the authoritative product.
// It never fails: unusable input degrades to per-field defaults.
func (n *Normalizer) Normalize(raw string, product *domain.ProductRecord) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("normalizer panic recovered", zap.Any("panic", r), zap.Stack("stacktrace"))
			out = Outcome{Result: domain.ErrorResult(fmt.Errorf("%w: %v", domain.ErrMalformedResponse, r)), Malformed: true}
		}
	}()

	obj, narrative, ok := locateObject(raw)
	if !ok {
		n.logger.Warn("model output has no parsable JSON object",
			zap.Int("raw_len", len(raw)),
			zap.Error(domain.ErrMalformedResponse),
		)
	}

	result := domain.AnalysisResult{}
	var repairs []Repair
	for _, r := range n.schema {
		if rep, repaired := r.apply(obj, product, &result); repaired {
			repairs = append(repairs, rep)
			n.incRepair(rep)
		}
	}

	if len(repairs) > 0 {
		n.logger.Debug("model output repaired", zap.Any("repairs", repairs))
	}

	return Outcome{
		Result:    result.Sanitized(),
		Narrative: narrative,
		Repairs:   repairs,
		Malformed: !ok,
	}
}

// Failure converts a pipeline error into the error result.
func (n *Normalizer) Failure(err error) Outcome {
	return Outcome{Result: domain.ErrorResult(err)}
}

func (n *Normalizer) incRepair(r Repair) {
	if n.repairsTotal != nil && r.Reason != ReasonOverridden {
		n.repairsTotal.WithLabelValues(r.Field, string(r.Reason)).Inc()
	}
}

// SplitSections separates the machine-readable section from the narrative section.
// Without a narrative delimiter the whole text is the machine-readable section.
func SplitSections(raw string) (body, narrative string) {
	idx := strings.Index(raw, prompt.NarrativeDelimiter)
	if idx < 0 {
		return raw, ""
	}
	body = raw[:idx]
	narrative = strings.TrimSpace(raw[idx+len(prompt.NarrativeDelimiter):])
	return body, narrative
}

// locateObject finds the JSON object in raw output.
// The section before the narrative delimiter is tried first, then the narrative
// section (models sometimes answer narrative first), then the whole text.
func locateObject(raw string) (obj gjson.Result, narrative string, ok bool) {
	body, narrative := SplitSections(raw)
	if obj, ok = ExtractObject(body); ok {
		return obj, narrative, true
	}
	if narrative != "" {
		if obj, ok = ExtractObject(narrative); ok {
			narrative = strings.ReplaceAll(stripObject(narrative), prompt.JSONDelimiter, "")
			return obj, strings.TrimSpace(narrative), true
		}
	}
	if body != raw {
		if obj, ok = ExtractObject(raw); ok {
			return obj, narrative, true
		}
	}
	return obj, narrative, false
}

// stripObject removes the span between the first '{' and the last '}' of text.
func stripObject(text string) string {
	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first < 0 || last < first {
		return text
	}
	return strings.TrimSpace(strings.TrimSpace(text[:first]) + " " + strings.TrimSpace(text[last+1:]))
}

// ExtractObject parses the span between the first '{' and the last '}' of text.
// It returns an empty object and false when no valid object is found.
func ExtractObject(text string) (gjson.Result, bool) {
	empty := gjson.Parse("{}")

	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first < 0 || last < first {
		return empty, false
	}

	span := text[first : last+1]
	if !gjson.Valid(span) {
		return empty, false
	}
	obj := gjson.Parse(span)
	if !obj.IsObject() {
		return empty, false
	}
	return obj, true
}
