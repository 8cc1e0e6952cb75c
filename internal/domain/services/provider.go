package services

import (
	"context"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// Oracle is the language model collaborator consulted first by the Fast and
// Slow strategies. It is defined in the domain layer and implemented in the
// infrastructure layer.
//
// Design principles:
// - Small, focused interface (easy to stub in tests)
// - Provider-agnostic (any OpenAI-compatible endpoint, or none)
// - Failures are returned, never panicked; strategies degrade on any error
type Oracle interface {
	// Name returns the oracle's identifier (e.g., "openai", "unavailable").
	Name() string

	// Consult asks the oracle for an answer.
	//
	// Parameters:
	//   ctx: Context for cancellation and timeout control
	//   req: Prompt text and thinking mode
	//
	// Returns:
	//   OracleResponse: answer (nil when none), confidence and steps
	//   error: transport, timeout or parse failure
	Consult(ctx context.Context, req models.OracleRequest) (models.OracleResponse, error)
}
