package allocator

import (
	"math"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// Step and verification ranges of the base allocation.
const (
	minSteps  = 3
	maxSteps  = 15
	minEffort = 0.2
	maxEffort = 0.8
)

// Per-strategy adjustments.
const (
	fastBudgetScale   = 0.5
	fastStepCap       = 3
	fastEffortCap     = 0.3
	slowBudgetScale   = 1.5
	slowStepFloor     = 10
	slowEffortFloor   = 0.7
	comboBudgetScale  = 1.2
	comboExtraSteps   = 2
	comboExtraEffort  = 0.1
	truncationEpsilon = 1e-9
)

// Allocator maps a complexity score, and optionally a strategy, to a token
// budget, a step limit and a verification effort. Budgets are
// non-decreasing in the score, and FAST never receives more than SLOW.
type Allocator struct {
	baseTokenBudget int
}

// New creates an allocator from the injected configuration.
func New(cfg models.AllocatorConfig) *Allocator {
	base := cfg.BaseTokenBudget
	if base <= 0 {
		base = models.DefaultPipelineConfig().Allocator.BaseTokenBudget
	}
	return &Allocator{baseTokenBudget: base}
}

// Allocate returns the base allocation for an analysis.
func (a *Allocator) Allocate(analysis models.ComplexityAnalysis) models.ResourceAllocation {
	score := models.Clamp01(analysis.Score)
	return models.ResourceAllocation{
		TokenBudget:        truncate(float64(a.baseTokenBudget) * (1 + 4*score)),
		MaxSteps:           minSteps + int(math.Round(float64(maxSteps-minSteps)*score)),
		VerificationEffort: models.Round2(minEffort + (maxEffort-minEffort)*score),
		ComplexityLevel:    analysis.Level,
		ComplexityScore:    analysis.Score,
	}
}

// AllocateFor adjusts the base allocation for a strategy. Reserved or
// unknown strategies get the base allocation.
func (a *Allocator) AllocateFor(analysis models.ComplexityAnalysis, strategy models.Strategy) models.ResourceAllocation {
	alloc := a.Allocate(analysis)

	switch strategy {
	case models.StrategyFast:
		alloc.TokenBudget = truncate(float64(alloc.TokenBudget) * fastBudgetScale)
		alloc.MaxSteps = min(fastStepCap, alloc.MaxSteps)
		alloc.VerificationEffort = math.Min(fastEffortCap, alloc.VerificationEffort)
	case models.StrategySlow:
		alloc.TokenBudget = truncate(float64(alloc.TokenBudget) * slowBudgetScale)
		alloc.MaxSteps = max(slowStepFloor, alloc.MaxSteps)
		alloc.VerificationEffort = math.Max(slowEffortFloor, alloc.VerificationEffort)
	case models.StrategyFastThenSlow:
		alloc.TokenBudget = truncate(float64(alloc.TokenBudget) * comboBudgetScale)
		alloc.MaxSteps += comboExtraSteps
		alloc.VerificationEffort = models.Round2(models.Clamp01(alloc.VerificationEffort + comboExtraEffort))
	}
	return alloc
}

// truncate converts to int, absorbing binary noise such as 219.99999999.
func truncate(v float64) int {
	return int(math.Floor(v + truncationEpsilon))
}
