package strategies

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services"
)

// notSuitableForFast is reported for kinds the fast dispatch has no arm for.
const notSuitableForFast = "Problem type not suitable for Fast Thinking."

// kindResult is the outcome of one fast dispatch arm. verify is set when an
// answer was produced and can be checked locally.
type kindResult struct {
	component  string
	answer     string
	confidence float64
	err        error
	verify     func() (float64, string)
}

// kindSolver solves one problem kind from normalized text.
type kindSolver func(text string) kindResult

// Fast is the low-cost strategy: the oracle in fast mode, then a
// deterministic symbolic dispatch keyed on the problem kind.
type Fast struct {
	limits models.StrategyLimits
	gate   oracleGate
	accept float64
	solver services.SymbolicSolver
	arms   map[models.ProblemKind]kindSolver
}

// NewFast creates the fast strategy. A nil oracle skips consultation.
func NewFast(cfg models.PipelineConfig, oracle services.Oracle, solver services.SymbolicSolver) *Fast {
	f := &Fast{
		limits: cfg.Strategies.Fast,
		gate:   newOracleGate(oracle, cfg.Oracle),
		accept: cfg.Oracle.FastAcceptConfidence,
		solver: solver,
	}
	f.arms = map[models.ProblemKind]kindSolver{
		models.KindArithmetic: f.solveArithmetic,
		models.KindEquation:   f.solveEquation,
		models.KindDerivative: f.solveDerivative,
		models.KindIntegral:   f.solveIntegral,
	}
	return f
}

// Strategy returns FAST.
func (f *Fast) Strategy() models.Strategy {
	return models.StrategyFast
}

// Limits returns the configured FAST limits.
func (f *Fast) Limits() models.StrategyLimits {
	return f.limits
}

// Solve runs the fast strategy. It never fails: problems it cannot handle
// come back with a low confidence and an error message.
func (f *Fast) Solve(ctx context.Context, problem string) (sol *models.Solution) {
	ctx, span := startSolveSpan(ctx, models.StrategyFast, problem)
	defer func() {
		if r := recover(); r != nil {
			sol = recovered(models.StrategyFast, f.limits, r)
		}
		endSolveSpan(span, sol)
	}()

	if resp := f.gate.consult(ctx, problem, models.ThinkingModeFast); resp.Accepted(f.accept) {
		return f.fromOracle(resp)
	}
	return f.solveLocally(normalize(problem))
}

func (f *Fast) fromOracle(resp models.OracleResponse) *models.Solution {
	trace := models.NewSolutionTrace(resp.Steps...)
	return models.NewSolution(models.StrategyFast).
		MaybeAnswer(resp.Answer).
		Confidence(resp.Confidence).
		Trace(trace).
		TokensUsed(trace.WordCount()).
		Limits(f.limits).
		Build()
}

func (f *Fast) solveLocally(text string) *models.Solution {
	kind := classifyFast(text)
	arm, ok := f.arms[kind]
	if !ok {
		return models.NewDefaultSolution(models.StrategyFast, f.limits, 0.3, notSuitableForFast,
			fmt.Sprintf("Identified %s problem", kind), notSuitableForFast)
	}

	res := arm(text)
	component := res.component
	if component == "" {
		component = text
	}

	var trace models.SolutionTrace
	trace.Appendf("Identified %s problem: %s", kind, component)

	b := models.NewSolution(models.StrategyFast).Limits(f.limits)
	if res.err != nil {
		trace.Appendf("Error: %s", res.err)
		return b.Confidence(0.1).Trace(trace).TokensUsed(trace.WordCount()).Error(res.err).Build()
	}

	confidence := res.confidence
	result := fmt.Sprintf("Result: %s.", res.answer)
	if res.verify != nil && float64(trace.WordCount()) < 0.8*float64(f.limits.TokenBudget) {
		c, msg := res.verify()
		confidence = c
		result += " " + msg
	}
	trace.Append(result)

	return b.Answer(res.answer).
		Confidence(confidence).
		Trace(trace).
		TokensUsed(trace.WordCount()).
		Build()
}

func extractionFailure(format string, args ...interface{}) error {
	return models.NewFailure(models.FailureExtraction, models.ErrExtraction, format, args...)
}

func solverFailure(err error) error {
	return models.NewFailure(models.FailureSolver, fmt.Errorf("%w: %v", models.ErrSolver, err), "%s", err.Error())
}

func inconclusive(err error) string {
	return fmt.Sprintf("Verification inconclusive: %s", err)
}

func (f *Fast) solveArithmetic(text string) kindResult {
	expr, ok := extractArithmetic(text)
	if !ok {
		return kindResult{err: extractionFailure("Could not extract an arithmetic expression from the problem.")}
	}
	value, err := f.solver.Evaluate(expr)
	if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
		err = fmt.Errorf("%s is not a finite number", expr)
	}
	if err != nil {
		return kindResult{component: expr, err: solverFailure(err)}
	}

	answer := models.FormatNumber(value)
	return kindResult{
		component:  expr,
		answer:     answer,
		confidence: 0.95,
		verify: func() (float64, string) {
			again, err := f.solver.Evaluate(expr)
			if err != nil {
				return 0.5, inconclusive(err)
			}
			if models.FormatNumber(again) != answer {
				return 0.5, fmt.Sprintf("Verification failed: re-evaluation gave %s.", models.FormatNumber(again))
			}
			return 0.95, "Verification successful: Solution is correct."
		},
	}
}

func (f *Fast) solveEquation(text string) kindResult {
	equation, variable, ok := extractEquation(text)
	if !ok {
		return kindResult{err: extractionFailure("Could not extract an equation from the problem.")}
	}
	if variable == "" {
		vars, err := f.solver.FreeVariables(equation)
		if err != nil {
			return kindResult{component: equation, err: solverFailure(err)}
		}
		variable = preferredVariable(vars)
	}

	roots, err := f.solver.Solve(equation, variable)
	if err != nil {
		return kindResult{component: equation, err: solverFailure(err)}
	}

	answer := formatRoots(variable, roots)
	return kindResult{
		component:  equation,
		answer:     answer,
		confidence: 0.9,
		verify: func() (float64, string) {
			for _, root := range roots {
				diff, err := residual(f.solver, equation, variable, root)
				if err != nil {
					return 0.5, inconclusive(err)
				}
				if diff > 1e-9 {
					return 0.5, fmt.Sprintf("Verification failed: %s=%s does not satisfy the equation.",
						variable, models.FormatNumber(root))
				}
			}
			return 0.9, fmt.Sprintf("Verification successful: %s satisfies the equation.",
				strings.ReplaceAll(answer, " = ", "="))
		},
	}
}

// residual returns |lhs - rhs| of equation at variable = value. An
// equation without "=" is read as expr = 0.
func residual(solver services.SymbolicSolver, equation, variable string, value float64) (float64, error) {
	sides := strings.SplitN(equation, "=", 2)
	if len(sides) == 1 {
		sides = append(sides, "0")
	}
	env := map[string]float64{variable: value}
	lhs, err := solver.Substitute(sides[0], env)
	if err != nil {
		return 0, err
	}
	rhs, err := solver.Substitute(sides[1], env)
	if err != nil {
		return 0, err
	}
	return math.Abs(lhs - rhs), nil
}

func (f *Fast) solveDerivative(text string) kindResult {
	function, _, ok := extractFunction(text)
	if !ok {
		return kindResult{err: extractionFailure("Could not extract a function to differentiate.")}
	}
	derivative, err := f.solver.Differentiate(function, "")
	if err != nil {
		return kindResult{component: function, err: solverFailure(err)}
	}
	return kindResult{component: function, answer: derivative, confidence: 0.85, verify: computedPass}
}

func (f *Fast) solveIntegral(text string) kindResult {
	function, limits, ok := extractFunction(text)
	if !ok {
		return kindResult{err: extractionFailure("Could not extract a function to integrate.")}
	}
	bounds, err := evalBounds(f.solver, limits)
	if err != nil {
		return kindResult{component: function, err: solverFailure(err)}
	}
	integral, err := f.solver.Integrate(function, "", bounds)
	if err != nil {
		return kindResult{component: function, err: solverFailure(err)}
	}
	return kindResult{component: function, answer: integral, confidence: 0.8, verify: computedPass}
}

func computedPass() (float64, string) {
	return 0.8, "Verification based on computational method: Solution seems reasonable."
}

// evalBounds evaluates raw "from a to b" limits; no limits means an
// indefinite integral.
func evalBounds(solver services.SymbolicSolver, limits []string) (*models.Bounds, error) {
	if len(limits) != 2 {
		return nil, nil
	}
	lower, err := solver.Evaluate(limits[0])
	if err != nil {
		return nil, err
	}
	upper, err := solver.Evaluate(limits[1])
	if err != nil {
		return nil, err
	}
	return &models.Bounds{Lower: lower, Upper: upper}, nil
}

// preferredVariable picks x when present, otherwise the first variable.
func preferredVariable(vars []string) string {
	for _, v := range vars {
		if v == "x" {
			return v
		}
	}
	if len(vars) > 0 {
		return vars[0]
	}
	return "x"
}

// formatRoots renders roots as "x = -3, x = 0.5".
func formatRoots(variable string, roots []float64) string {
	parts := make([]string, len(roots))
	for i, r := range roots {
		parts[i] = fmt.Sprintf("%s = %s", variable, models.FormatNumber(r))
	}
	return strings.Join(parts, ", ")
}
