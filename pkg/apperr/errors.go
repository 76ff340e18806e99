// Package apperr holds the error taxonomy shared by the discovery engine.
//
// Callers compare with errors.Is; lower layers wrap with fmt.Errorf("%w").
package apperr

import "errors"

var (
	// ErrDimensionMismatch is index misuse: a vector whose length differs
	// from the dimension fixed by the first upsert.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrStoreUnavailable marks a transient storage failure. It is retried
	// at most once before the caller degrades.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrEmbeddingFailed  = errors.New("embedding failed")
	ErrGenerationFailed = errors.New("generation failed")

	ErrSessionNotFound = errors.New("session not found")
	ErrProductNotFound = errors.New("product not found")
	ErrLogNotFound     = errors.New("log entry not found")
	ErrInvalidInput    = errors.New("invalid input")

	ErrInvalidThresholds = errors.New("suggestion threshold must be >= context threshold")
)

// Kind is a coarse classification used at the HTTP boundary.
type Kind string

const (
	KindInvalid     Kind = "INVALID_INPUT"
	KindNotFound    Kind = "NOT_FOUND"
	KindUnavailable Kind = "UNAVAILABLE"
	KindUpstream    Kind = "UPSTREAM_ERROR"
	KindInternal    Kind = "INTERNAL_ERROR"
)

// KindOf maps an error chain onto a Kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidThresholds):
		return KindInvalid
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrProductNotFound), errors.Is(err, ErrLogNotFound):
		return KindNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrEmbeddingFailed), errors.Is(err, ErrGenerationFailed):
		return KindUpstream
	default:
		return KindInternal
	}
}
