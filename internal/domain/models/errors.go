package models

import (
	"errors"
	"fmt"
)

// Domain-level errors for the solve pipeline.
// Strategies never return these to callers; they are folded into the
// Solution's Error field and used for classification with errors.Is.

var (
	// Configuration errors
	ErrUnknownStrategy  = errors.New("unknown strategy")
	ErrInvalidThreshold = errors.New("invalid threshold")

	// Oracle errors
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrOracleTimeout     = errors.New("oracle call timed out")
	ErrOracleMalformed   = errors.New("malformed oracle response")

	// Solve errors
	ErrExtraction            = errors.New("extraction failed")
	ErrSolver                = errors.New("symbolic solver failed")
	ErrVerification          = errors.New("verification inconclusive")
	ErrUnclassifiedKind      = errors.New("problem type not suitable")
	ErrUnsupportedOperation  = errors.New("unsupported operation")
	ErrWordProblemNotSupport = errors.New("generic word problem solver not fully implemented")

	// Request errors
	ErrEmptyProblem = errors.New("problem text cannot be empty")
	ErrEmptyPrompt  = errors.New("oracle prompt cannot be empty")
	ErrInvalidMode  = errors.New("invalid thinking mode")
)

// FailureKind classifies why a solve attempt degraded.
type FailureKind string

const (
	FailureExtraction      FailureKind = "ExtractionFailure"
	FailureSolver          FailureKind = "SolverFailure"
	FailureOracle          FailureKind = "OracleFailure"
	FailureVerification    FailureKind = "VerificationInconclusive"
	FailureUnclassified    FailureKind = "UnclassifiedProblemKind"
	FailureUnsupportedWord FailureKind = "UnsupportedWordProblem"
)

// SolveFailure is the typed failure carried between pipeline stages.
// Message is preserved verbatim for diagnostics.
type SolveFailure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// Error implements error. Only the message is returned so that solver
// diagnostics surface unchanged in the Solution.
func (f *SolveFailure) Error() string {
	return f.Message
}

// Unwrap returns the underlying sentinel or cause.
func (f *SolveFailure) Unwrap() error {
	return f.Err
}

// NewFailure builds a SolveFailure of the given kind.
func NewFailure(kind FailureKind, cause error, format string, args ...interface{}) *SolveFailure {
	return &SolveFailure{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// FailureKindOf returns the failure kind of err, or "" when err is not a
// SolveFailure.
func FailureKindOf(err error) FailureKind {
	var f *SolveFailure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
