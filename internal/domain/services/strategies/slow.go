package strategies

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services"
)

// slowArm is the per-kind capability of the slow strategy.
type slowArm struct {
	plan    func(a *analysis) plan
	execute func(a *analysis) execution
	verify  func(a *analysis, ex execution) verification
}

// Slow is the thorough strategy: the oracle in slow mode, then the
// analyze, plan, execute, verify and refine phases.
type Slow struct {
	limits models.StrategyLimits
	gate   oracleGate
	accept float64
	solver services.SymbolicSolver
	arms   map[models.ProblemKind]slowArm
}

// NewSlow creates the slow strategy. A nil oracle skips consultation.
func NewSlow(cfg models.PipelineConfig, oracle services.Oracle, solver services.SymbolicSolver) *Slow {
	s := &Slow{
		limits: cfg.Strategies.Slow,
		gate:   newOracleGate(oracle, cfg.Oracle),
		accept: cfg.Oracle.SlowAcceptConfidence,
		solver: solver,
	}
	calculus := slowArm{plan: planCalculus, execute: s.executeCalculus, verify: s.verifyCalculus}
	s.arms = map[models.ProblemKind]slowArm{
		models.KindEquation:    {plan: planEquation, execute: s.executeEquation, verify: s.verifyEquation},
		models.KindDerivative:  calculus,
		models.KindIntegral:    calculus,
		models.KindGeometry:    {plan: planGeometry, execute: executeGeometry, verify: verifyGeometry},
		models.KindWordProblem: {plan: planWordProblem, execute: executeWordProblem, verify: verifyWordProblem},
	}
	return s
}

// Strategy returns SLOW.
func (s *Slow) Strategy() models.Strategy {
	return models.StrategySlow
}

// Limits returns the configured SLOW limits.
func (s *Slow) Limits() models.StrategyLimits {
	return s.limits
}

// Solve runs the slow strategy on a problem, which may carry a hint from
// the fast strategy. The oracle sees the full text; the local phases
// analyze the problem without the hint.
func (s *Slow) Solve(ctx context.Context, problem string) (sol *models.Solution) {
	ctx, span := startSolveSpan(ctx, models.StrategySlow, problem)
	defer func() {
		if r := recover(); r != nil {
			sol = recovered(models.StrategySlow, s.limits, r)
		}
		endSolveSpan(span, sol)
	}()

	if resp := s.gate.consult(ctx, problem, models.ThinkingModeSlow); resp.Accepted(s.accept) {
		return s.fromOracle(resp)
	}

	text, hint := splitHint(problem)
	var tr models.SolutionTrace

	tr.Append("Step 1: Understanding the problem")
	if hint != "" {
		tr.Appendf("Initial estimate from Fast Thinking: %s", hint)
	}
	a := s.phaseAnalyze(ctx, text)
	tr.Appendf("Problem type: %s", a.kind)
	tr.Appendf("Key components: %s", a.components())

	arm, ok := s.arms[a.kind]
	if !ok {
		msg := fmt.Sprintf("Unsupported problem type: %s", a.kind)
		tr.Append(msg)
		return s.build(tr, nil, 0.1, msg)
	}

	tr.Append("Step 2: Planning the solution approach")
	p := runPhase(ctx, "plan", func() plan { return arm.plan(a) })
	tr.Appendf("Solution approach: %s", p.approach)
	for i, step := range p.steps {
		tr.Appendf("  Substep %d: %s", i+1, step)
	}

	tr.Append("Step 3: Executing the solution plan")
	ex := runPhase(ctx, "execute", func() execution { return arm.execute(a) })
	for i, step := range ex.steps {
		tr.Appendf("  Execution %d: %s", i+1, step)
	}

	tr.Append("Step 4: Verifying the solution")
	v := runPhase(ctx, "verify", func() verification { return s.verify(arm, a, ex) })
	tr.Appendf("Verification method: %s", v.method)
	tr.Appendf("Verification result: %s", v.result)
	if len(v.issues) > 0 {
		tr.Appendf("Verification issues: %s", strings.Join(v.issues, "; "))
	}

	// Refinement records the issues; the computed answer stands.
	if len(v.issues) > 0 && float64(tr.WordCount()) < 0.8*float64(s.limits.TokenBudget) {
		tr.Append("Step 5: Refining the solution")
		tr.Append("  Refinement 1: Reviewing the solution approach based on verification results")
		tr.Appendf("  Refinement 2: Verification issues: %s", strings.Join(v.issues, ", "))
	}

	errMsg := ""
	if ex.err != nil {
		errMsg = ex.err.Error()
	}
	return s.build(tr, ex.answer, v.confidence, errMsg)
}

func (s *Slow) fromOracle(resp models.OracleResponse) *models.Solution {
	tr := models.NewSolutionTrace(resp.Steps...)
	if resp.Verification != "" {
		tr.Appendf("Verification: %s", resp.Verification)
	}
	return s.build(tr, resp.Answer, resp.Confidence, "")
}

func (s *Slow) build(tr models.SolutionTrace, answer *string, confidence float64, errMsg string) *models.Solution {
	return models.NewSolution(models.StrategySlow).
		MaybeAnswer(answer).
		Confidence(confidence).
		Trace(tr).
		TokensUsed(tr.WordCount()).
		ErrorText(errMsg).
		Limits(s.limits).
		Build()
}

// verify applies the common checks before the per-kind verifier.
func (s *Slow) verify(arm slowArm, a *analysis, ex execution) verification {
	if ex.err != nil {
		return verification{method: "Error check", result: "Failed", issues: []string{ex.err.Error()}, confidence: 0.1}
	}
	if ex.answer == nil {
		return verification{method: "Solution check", result: "Failed", issues: []string{"No solution provided"}}
	}
	return arm.verify(a, ex)
}

func (s *Slow) phaseAnalyze(ctx context.Context, text string) *analysis {
	return runPhase(ctx, "analyze", func() *analysis { return s.analyze(text) })
}

// runPhase runs one slow phase inside its own span.
func runPhase[T any](ctx context.Context, name string, fn func() T) T {
	_, span := tracer.Start(ctx, "slow."+name, trace.WithAttributes(attribute.String("phase", name)))
	defer span.End()
	return fn()
}
