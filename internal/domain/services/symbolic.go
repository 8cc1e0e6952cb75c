package services

import "github.com/mshogin/fastslow/internal/domain/models"

// SymbolicSolver is the deterministic math collaborator used by the
// strategies when the oracle cannot answer. Expressions are plain text
// using + - * / ^ (or **), parentheses, implicit multiplication and the
// functions sin, cos, tan, exp, ln, log and sqrt.
//
// Every method returns an error instead of panicking; the strategies
// convert errors into low-confidence solutions.
type SymbolicSolver interface {
	// Evaluate computes a closed numeric expression.
	Evaluate(expr string) (float64, error)

	// Substitute evaluates expr with the given variable bindings.
	Substitute(expr string, values map[string]float64) (float64, error)

	// Solve returns the real solutions of equation for variable in
	// ascending order. An empty variable selects the first free variable.
	Solve(equation, variable string) ([]float64, error)

	// Differentiate returns d(expr)/d(variable) as text.
	Differentiate(expr, variable string) (string, error)

	// Integrate returns the antiderivative of expr, or the numeric value of
	// the definite integral when bounds are given.
	Integrate(expr, variable string, bounds *models.Bounds) (string, error)

	// FreeVariables lists the variables appearing in expr, sorted.
	FreeVariables(expr string) ([]string, error)
}
