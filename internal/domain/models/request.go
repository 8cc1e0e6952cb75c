package models

import "strings"

// OracleRequest is a single consultation of the language model oracle.
type OracleRequest struct {
	// Prompt is the problem text, possibly carrying a fast-thinking hint.
	Prompt string `json:"prompt"`

	// Mode selects the prompt template, temperature and token limit.
	Mode ThinkingMode `json:"mode"`
}

// Validate checks if the request is valid.
func (r OracleRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.Mode != ThinkingModeFast && r.Mode != ThinkingModeSlow {
		return ErrInvalidMode
	}
	return nil
}

// SolveRequest is the body of a solve or analyze call.
type SolveRequest struct {
	// Problem is the math problem stated as text.
	Problem string `json:"problem" validate:"required,max=4000"`

	// ProblemID optionally correlates the solve with a problem feed record.
	ProblemID string `json:"problem_id,omitempty" validate:"omitempty,max=128"`

	// Strategy optionally forces the initial strategy. Reserved strategies
	// run as FAST_THEN_SLOW.
	Strategy Strategy `json:"strategy,omitempty" validate:"omitempty,oneof=FAST SLOW FAST_THEN_SLOW PARALLEL ITERATIVE"`
}

// Validate checks if the request is valid.
func (r SolveRequest) Validate() error {
	if strings.TrimSpace(r.Problem) == "" {
		return ErrEmptyProblem
	}
	return nil
}
