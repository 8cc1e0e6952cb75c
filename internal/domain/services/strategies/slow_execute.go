package strategies

import (
	"fmt"
	"strings"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// execution is the output of the execute phase.
type execution struct {
	answer *string
	steps  []string
	err    error

	// roots holds equation solutions for substitution checks.
	roots []float64
	// bounds is set for definite integrals.
	bounds *models.Bounds
}

func (ex *execution) step(format string, args ...interface{}) {
	ex.steps = append(ex.steps, fmt.Sprintf(format, args...))
}

func (ex *execution) fail(err error) execution {
	ex.step("Error during execution: %s", err)
	ex.err = err
	ex.answer = nil
	return *ex
}

func (ex *execution) succeed(answer string) execution {
	ex.answer = &answer
	return *ex
}

func (s *Slow) executeEquation(a *analysis) execution {
	var ex execution
	if a.equation == "" {
		return ex.fail(extractionFailure("Could not extract equation"))
	}

	if strings.Contains(a.equation, "=") && a.variable != "" {
		sides := strings.SplitN(a.equation, "=", 2)
		lhs, rhs := strings.TrimSpace(sides[0]), strings.TrimSpace(sides[1])
		ex.step("Equation: %s = %s", lhs, rhs)
		ex.step("Rearranged to: %s - (%s) = 0", lhs, rhs)
		ex.step("Solving for %s", a.variable)

		roots, err := s.solver.Solve(a.equation, a.variable)
		if err != nil {
			return ex.fail(solverFailure(err))
		}
		ex.roots = roots
		answer := formatRoots(a.variable, roots)
		ex.step("Solution: %s", answer)
		return ex.succeed(answer)
	}

	ex.step("Expression: %s", a.equation)
	value, err := s.solver.Evaluate(a.equation)
	if err != nil {
		return ex.fail(solverFailure(err))
	}
	answer := models.FormatNumber(value)
	ex.step("Evaluated result: %s", answer)
	return ex.succeed(answer)
}

func (s *Slow) executeCalculus(a *analysis) execution {
	var ex execution
	if a.function == "" {
		return ex.fail(extractionFailure("Could not extract function"))
	}
	ex.step("Function: f(%s) = %s", a.variable, a.function)

	if a.kind == models.KindDerivative {
		ex.step("Applying differentiation rules")
		derivative, err := s.solver.Differentiate(a.function, a.variable)
		if err != nil {
			return ex.fail(solverFailure(err))
		}
		ex.step("Derivative: f'(%s) = %s", a.variable, derivative)
		return ex.succeed(derivative)
	}

	bounds, err := evalBounds(s.solver, a.limits)
	if err != nil {
		return ex.fail(solverFailure(err))
	}
	if bounds != nil {
		ex.step("Calculating definite integral from %s to %s", a.limits[0], a.limits[1])
	}
	ex.step("Applying integration rules")
	integral, err := s.solver.Integrate(a.function, a.variable, bounds)
	if err != nil {
		return ex.fail(solverFailure(err))
	}
	if bounds != nil {
		ex.bounds = bounds
		ex.step("Definite integral: ∫(%s)d%s from %s to %s = %s", a.function, a.variable, a.limits[0], a.limits[1], integral)
	} else {
		ex.step("Indefinite integral: ∫(%s)d%s = %s + C", a.function, a.variable, integral)
	}
	return ex.succeed(integral)
}

func executeGeometry(a *analysis) execution {
	var ex execution
	ex.step("Identified shapes: %s", strings.Join(a.shapes, ", "))
	ex.step("Properties of interest: %s", strings.Join(a.properties, ", "))

	_, f, ok := lookupFormula(a.shapes, a.properties)
	if !ok {
		ex.step("Could not determine specific geometric formula to apply")
		ex.err = extractionFailure("Insufficient information to solve geometry problem")
		return ex
	}

	values, described := f.resolve(a.text)
	ex.step("Using values: %s", described)
	answer := models.FormatNumber(f.compute(values))
	ex.step("%s = %s", f.statement, answer)
	return ex.succeed(answer)
}

func executeWordProblem(a *analysis) execution {
	var ex execution
	ex.step("Entities identified: %s", strings.Join(a.entities, ", "))
	ex.step("Relationships identified: %s", strings.Join(a.relationships, ", "))
	ex.step("Question: %s", a.question)
	ex.step("Word problem solution requires context-specific translation to equations")
	ex.step("This implementation provides a framework but would need problem-specific logic")
	ex.err = models.NewFailure(models.FailureUnsupportedWord, models.ErrWordProblemNotSupport,
		"Generic word problem solver not fully implemented")
	return ex.succeed("Word problem solution would be implemented based on specific problem structure")
}
