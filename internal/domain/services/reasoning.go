package services

import (
	"context"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// ThinkingStrategy solves a problem with one reasoning approach.
//
// Design principles:
// - Never returns an error: every failure degrades into the Solution
// - Stateless after construction, safe for concurrent solves
// - Context only bounds oracle consultation; phases run sequentially
type ThinkingStrategy interface {
	// Strategy returns the tag this strategy reports.
	Strategy() models.Strategy

	// Solve runs the strategy on the problem text.
	Solve(ctx context.Context, problem string) *models.Solution
}
