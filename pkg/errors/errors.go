// Package errors defines the error kinds raised by the preprocessing
// pipeline. Every failure is classified under one sentinel so callers can
// report the failing check by kind, and a RunError carries the offending
// catalog and axis for user-visible messages.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBinEdges   = errors.New("invalid bin edges")
	ErrDegenerateWeights = errors.New("degenerate weights")
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrOutOfRange        = errors.New("value outside bin range")
	ErrCatalogEmpty      = errors.New("catalog has no entries")
	ErrJobConflict       = errors.New("job already submitted")
	ErrOutputExists      = errors.New("output file already exists")
)

// RunError wraps a sentinel with the catalog and axis that triggered it.
// Errors are fatal to a run; there is no partial-result recovery.
type RunError struct {
	Err     error
	Catalog string
	Axis    string
	Message string
}

func (e *RunError) Error() string {
	s := e.Err.Error()
	if e.Catalog != "" {
		s += fmt.Sprintf(" (catalog=%s", e.Catalog)
		if e.Axis != "" {
			s += fmt.Sprintf(", axis=%s", e.Axis)
		}
		s += ")"
	} else if e.Axis != "" {
		s += fmt.Sprintf(" (axis=%s)", e.Axis)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// New builds a RunError around a sentinel. Catalog and axis may be empty when
// the failure is not tied to one.
func New(sentinel error, catalog, axis, message string) *RunError {
	return &RunError{
		Err:     sentinel,
		Catalog: catalog,
		Axis:    axis,
		Message: message,
	}
}

// Newf is New with a formatted message.
func Newf(sentinel error, catalog, axis, format string, args ...any) *RunError {
	return &RunError{
		Err:     sentinel,
		Catalog: catalog,
		Axis:    axis,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches catalog/axis context to an error already classified under a
// pipeline sentinel, preserving the original message and chain.
func Wrap(err error, catalog, axis string) error {
	if err == nil {
		return nil
	}
	return &RunError{
		Err:     err,
		Catalog: catalog,
		Axis:    axis,
	}
}

// Kind returns a stable short name for the sentinel err is classified under,
// used in job status records and metric labels.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidBinEdges):
		return "invalid_bin_edges"
	case errors.Is(err, ErrDegenerateWeights):
		return "degenerate_weights"
	case errors.Is(err, ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrCatalogEmpty):
		return "catalog_empty"
	case errors.Is(err, ErrJobConflict):
		return "job_conflict"
	case errors.Is(err, ErrOutputExists):
		return "output_exists"
	default:
		return "internal"
	}
}
