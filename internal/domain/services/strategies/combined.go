package strategies

import (
	"context"
	"fmt"
	"math"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services"
)

// hintConfidenceFloor is the fast confidence above which the fast answer
// is passed to the slow phase as a hint.
const hintConfidenceFloor = 0.3

// Combined runs the fast strategy and escalates to the slow strategy when
// the fast result fails acceptance. It always reports FAST_THEN_SLOW.
type Combined struct {
	cfg        models.CombinedConfig
	fast       services.ThinkingStrategy
	slow       services.ThinkingStrategy
	fastLimits models.StrategyLimits
	slowLimits models.StrategyLimits
}

// NewCombined creates the combined strategy over the given fast and slow
// strategies.
func NewCombined(cfg models.PipelineConfig, fast, slow services.ThinkingStrategy) *Combined {
	return &Combined{
		cfg:        cfg.Strategies.FastThenSlow,
		fast:       fast,
		slow:       slow,
		fastLimits: cfg.Strategies.Fast,
		slowLimits: cfg.Strategies.Slow,
	}
}

// Strategy returns FAST_THEN_SLOW.
func (c *Combined) Strategy() models.Strategy {
	return models.StrategyFastThenSlow
}

// Solve runs fast, decides on escalation, and runs slow when needed.
func (c *Combined) Solve(ctx context.Context, problem string) (sol *models.Solution) {
	ctx, span := startSolveSpan(ctx, models.StrategyFastThenSlow, problem)
	defer func() {
		if r := recover(); r != nil {
			sol = recovered(models.StrategyFastThenSlow, c.fastLimits, r)
		}
		endSolveSpan(span, sol)
	}()

	var tr models.SolutionTrace
	tr.Append("Starting with Fast Thinking approach")
	fast := c.fast.Solve(ctx, problem)
	for i, step := range fast.Trace.Steps() {
		tr.Appendf("Fast Thinking %d: %s", i+1, step)
	}
	tokens := fast.TokensUsed

	decision := c.Decide(fast)
	tr.Appendf("Switch decision: %s - %s", decision.Decision, decision.Reason)
	tokens += models.NewSolutionTrace(tr.Last()).WordCount()

	b := models.NewSolution(models.StrategyFastThenSlow).SwitchDecision(&decision)

	if decision.Decision == models.DecisionContinue {
		tr.Append("Continuing with Fast Thinking approach")
		return b.MaybeAnswer(fast.Answer).
			Confidence(fast.Confidence).
			MaybeError(fast.Error).
			Trace(tr).
			TokensUsed(tokens).
			Limits(c.fastLimits).
			Build()
	}

	tr.Append("Switching to Slow Thinking approach")
	slow := c.slow.Solve(ctx, c.slowContext(problem, fast))
	for i, step := range slow.Trace.Steps() {
		tr.Appendf("Slow Thinking %d: %s", i+1, step)
	}
	tokens += slow.TokensUsed

	return b.MaybeAnswer(slow.Answer).
		Confidence(slow.Confidence).
		MaybeError(slow.Error).
		Trace(tr).
		TokensUsed(tokens).
		Limits(models.StrategyLimits{
			MaxSteps:           c.fastLimits.MaxSteps + c.slowLimits.MaxSteps,
			TokenBudget:        c.fastLimits.TokenBudget + c.slowLimits.TokenBudget,
			VerificationEffort: math.Max(c.fastLimits.VerificationEffort, c.slowLimits.VerificationEffort),
		}).
		Build()
}

// Decide evaluates the escalation triggers in priority order: low
// confidence, error, step ceiling, token usage.
func (c *Combined) Decide(fast *models.Solution) models.SwitchDecision {
	switch {
	case fast.Confidence < c.cfg.ConfidenceThreshold:
		return switchTo(fmt.Sprintf("Low confidence (%.2f < %v)", fast.Confidence, c.cfg.ConfidenceThreshold))
	case fast.HasError():
		return switchTo(fmt.Sprintf("Error in Fast Thinking: %s", fast.ErrorText()))
	case fast.Trace.Len() >= c.cfg.MaxFastSteps:
		return switchTo(fmt.Sprintf("Reached maximum Fast Thinking steps (%d >= %d)", fast.Trace.Len(), c.cfg.MaxFastSteps))
	case float64(fast.TokensUsed) >= c.cfg.TokenUsageRatio*float64(c.fastLimits.TokenBudget):
		return switchTo(fmt.Sprintf("High token usage (%d tokens)", fast.TokensUsed))
	default:
		return models.SwitchDecision{
			Decision: models.DecisionContinue,
			Reason:   fmt.Sprintf("Fast Thinking successful with high confidence (%.2f)", fast.Confidence),
		}
	}
}

func switchTo(reason string) models.SwitchDecision {
	return models.SwitchDecision{Decision: models.DecisionSwitch, Reason: reason}
}

// slowContext appends the fast answer as a hint when it is credible.
func (c *Combined) slowContext(problem string, fast *models.Solution) string {
	if fast.HasAnswer() && fast.Confidence > hintConfidenceFloor {
		return withHint(problem, fast.AnswerText())
	}
	return problem
}
