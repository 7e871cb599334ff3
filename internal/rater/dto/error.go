package dto

import (
	"errors"
	"fmt"
)

// ScoreErrorKind classifies why a single stock could not be scored.
type ScoreErrorKind string

const (
	ScoreErrorProvider    ScoreErrorKind = "provider"
	ScoreErrorParse       ScoreErrorKind = "parse"
	ScoreErrorTimeout     ScoreErrorKind = "timeout"
	ScoreErrorMissingData ScoreErrorKind = "missing_data"
)

// ScoreError is a per-stock scoring failure. It never aborts the batch;
// the orchestrator converts it into a failed placeholder result.
type ScoreError struct {
	Kind ScoreErrorKind
	Err  error
}

func (e *ScoreError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *ScoreError) Unwrap() error {
	return e.Err
}

// NewScoreError wraps err with a kind.
func NewScoreError(kind ScoreErrorKind, err error) *ScoreError {
	return &ScoreError{Kind: kind, Err: err}
}

// ScoreErrorKindOf extracts the kind from err, or empty if err is not a
// ScoreError.
func ScoreErrorKindOf(err error) ScoreErrorKind {
	var se *ScoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
