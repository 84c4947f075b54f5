package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a product absent from the catalog.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCatalogLoad signals a catalog that could not be read or embedded.
	ErrCatalogLoad = errors.New("catalog load failure")
	// ErrCatalogEmpty signals that no catalog has been installed yet.
	ErrCatalogEmpty = errors.New("catalog not loaded")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationUnavailable signals that the generation backend produced no usable output.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrMalformedResponse signals model output that could not be parsed as an object.
	ErrMalformedResponse = errors.New("malformed response")
)

// GenerationFailureKind classifies a failed generation attempt.
type GenerationFailureKind string

const (
	// FailureNotFound means the backend executable or endpoint is missing.
	FailureNotFound GenerationFailureKind = "not_found"
	// FailureExitStatus means the process exited with a non-zero status.
	FailureExitStatus GenerationFailureKind = "exit_status"
	// FailureTimeout means the generation deadline expired.
	FailureTimeout GenerationFailureKind = "timeout"
	// FailureEmptyOutput means the backend returned only whitespace.
	FailureEmptyOutput GenerationFailureKind = "empty_output"
	// FailureProvider means a remote provider rejected the request.
	FailureProvider GenerationFailureKind = "provider"
	// FailureCanceled means the caller canceled the request.
	FailureCanceled GenerationFailureKind = "canceled"
)

// GenerationError wraps ErrGenerationUnavailable with the failure kind.
type GenerationError struct {
	Kind GenerationFailureKind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrGenerationUnavailable.Error(), e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", ErrGenerationUnavailable.Error(), e.Kind, e.Err)
}

// Unwrap lets errors.Is match both ErrGenerationUnavailable and the cause.
func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGenerationUnavailable}
	}
	return []error{ErrGenerationUnavailable, e.Err}
}

// NewGenerationError creates a generation failure of the given kind.
func NewGenerationError(kind GenerationFailureKind, err error) error {
	return &GenerationError{Kind: kind, Err: err}
}

// GenerationFailure extracts the failure kind from err.
// Returns false when err is not a generation failure.
func GenerationFailure(err error) (GenerationFailureKind, bool) {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return "", false
}
