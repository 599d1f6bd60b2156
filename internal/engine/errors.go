package engine

import (
	"errors"
	"strings"
)

// adapterNotFoundError signals that none of the adapter directories exists.
type adapterNotFoundError struct{ tried []string }

func (e adapterNotFoundError) Error() string {
	return "model adapter not found (tried " + strings.Join(e.tried, ", ") + "); ensure training is completed"
}

// ErrAdapterNotFound constructs an adapterNotFoundError for the directories tried.
func ErrAdapterNotFound(tried ...string) error {
	return adapterNotFoundError{tried: append([]string(nil), tried...)}
}

// IsAdapterNotFound reports whether err indicates a missing adapter directory.
func IsAdapterNotFound(err error) bool {
	var e adapterNotFoundError
	return errors.As(err, &e)
}

// modelUnavailableError is returned when every base-model candidate failed to load.
// It wraps the per-candidate failures.
type modelUnavailableError struct{ cause error }

func (e modelUnavailableError) Error() string {
	if e.cause == nil {
		return "failed to load any compatible model: no candidates configured"
	}
	return "failed to load any compatible model: " + e.cause.Error()
}

func (e modelUnavailableError) Unwrap() error { return e.cause }

// IsModelUnavailable reports whether err indicates that no candidate loaded.
func IsModelUnavailable(err error) bool {
	var e modelUnavailableError
	return errors.As(err, &e)
}

// generationFailedError wraps any failure during tokenization or generation.
type generationFailedError struct{ cause error }

func (e generationFailedError) Error() string { return "generation failed: " + e.cause.Error() }

func (e generationFailedError) Unwrap() error { return e.cause }

// IsGenerationFailed reports whether err came from the generation path.
func IsGenerationFailed(err error) bool {
	var e generationFailedError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing external dependency (e.g., llama.cpp).
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}
