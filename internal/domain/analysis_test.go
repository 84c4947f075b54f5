package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestUnknownResult(t *testing.T) {
	r := UnknownResult()
	if r.RiskLevel != RiskUnknown || r.EthicalScore != 0 {
		t.Errorf("unexpected unknown result: %+v", r)
	}
	if r.DetectedAllergens == nil || r.Recommendations == nil {
		t.Error("slices must be non-nil")
	}
	if len(r.DetectedAllergens) != 0 || len(r.Recommendations) != 0 {
		t.Errorf("expected empty slices, got %+v", r)
	}
}

func TestErrorResult_DescribesFailure(t *testing.T) {
	r := ErrorResult(NewGenerationError(FailureTimeout, errors.New("deadline")))
	if r.RiskLevel != RiskError {
		t.Errorf("expected error risk, got %q", r.RiskLevel)
	}
	if len(r.Recommendations) != 1 || !strings.HasPrefix(r.Recommendations[0], ErrorRecommendationPrefix) {
		t.Fatalf("expected one diagnostic entry, got %v", r.Recommendations)
	}
	if !strings.Contains(r.Recommendations[0], "timeout") {
		t.Errorf("diagnostic should mention failure kind, got %q", r.Recommendations[0])
	}
	if len(r.DetectedAllergens) != 0 || r.EthicalScore != 0 {
		t.Errorf("other fields must be defaulted, got %+v", r)
	}
}

func TestSanitized(t *testing.T) {
	r := AnalysisResult{RiskLevel: "extreme", EthicalScore: 250}.Sanitized()
	if r.RiskLevel != RiskUnknown {
		t.Errorf("unknown risk level should map to unknown, got %q", r.RiskLevel)
	}
	if r.EthicalScore != MaxEthicalScore {
		t.Errorf("expected clamped score, got %d", r.EthicalScore)
	}
	if r.DetectedAllergens == nil || r.Recommendations == nil {
		t.Error("slices must be non-nil")
	}
}

func TestParseRiskLevel(t *testing.T) {
	for _, s := range []string{"low", "medium", "high", "unknown", "error"} {
		if _, ok := ParseRiskLevel(s); !ok {
			t.Errorf("expected %q to parse", s)
		}
	}
	if _, ok := ParseRiskLevel("High"); ok {
		t.Error("ParseRiskLevel is case-sensitive; callers normalize first")
	}
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := NewGenerationError(FailureExitStatus, cause)

	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Error("expected ErrGenerationUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	kind, ok := GenerationFailure(err)
	if !ok || kind != FailureExitStatus {
		t.Errorf("GenerationFailure = %q, %v", kind, ok)
	}
	if _, ok := GenerationFailure(cause); ok {
		t.Error("plain error must not be a generation failure")
	}
}
