package symbolic

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// quadraturePoints is the Gauss-Legendre order used when no closed form
// antiderivative is found for a definite integral.
const quadraturePoints = 64

// Engine is the in-process SymbolicSolver. It holds no state and is safe
// for concurrent use.
type Engine struct{}

// NewEngine creates a symbolic engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate computes a closed numeric expression.
func (e *Engine) Evaluate(expr string) (float64, error) {
	n, err := Parse(expr)
	if err != nil {
		return 0, err
	}
	if vars := Variables(n); len(vars) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrUndefinedVariable, strings.Join(vars, ", "))
	}
	return n.Eval(nil)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Substitute evaluates expr under the given bindings.
func (e *Engine) Substitute(expr string, values map[string]float64) (float64, error) {
	n, err := Parse(expr)
	if err != nil {
		return 0, err
	}
	return n.Eval(values)
}

// FreeVariables lists the variables in expr.
func (e *Engine) FreeVariables(expr string) ([]string, error) {
	lhs, rhs, err := splitEquation(expr)
	if err != nil {
		return nil, err
	}
	vars := Variables(lhs)
	if rhs != nil {
		vars = mergeSorted(vars, Variables(rhs))
	}
	return vars, nil
}

// Solve returns the real roots of a polynomial equation of degree one or
// two. An equation without "=" is treated as expr = 0.
func (e *Engine) Solve(equation, variable string) ([]float64, error) {
	lhs, rhs, err := splitEquation(equation)
	if err != nil {
		return nil, err
	}
	var n Node = lhs
	if rhs != nil {
		n = Binary{Op: '-', L: lhs, R: rhs}
	}

	if variable == "" {
		vars := Variables(n)
		if len(vars) == 0 {
			return nil, fmt.Errorf("%w: equation has no variable", ErrNoSolution)
		}
		variable = pickVariable(vars)
	}

	p, err := polynomialOf(n, variable)
	if err != nil {
		return nil, err
	}
	return polynomialRoots(p)
}

// Differentiate returns d(expr)/d(variable) as text.
func (e *Engine) Differentiate(expr, variable string) (string, error) {
	n, err := Parse(expr)
	if err != nil {
		return "", err
	}
	if variable == "" {
		variable = pickVariable(Variables(n))
	}
	d, err := Derivative(n, variable)
	if err != nil {
		return "", err
	}
	if p, err := polynomialOf(d, variable); err == nil {
		d = p.toNode(variable)
	}
	return d.String(), nil
}

// Integrate returns the antiderivative, or the value of the definite
// integral when bounds are given. Definite integrals without a closed form
// antiderivative fall back to Gauss-Legendre quadrature. An antiderivative
// that cannot be evaluated at a bound means the integral diverges.
func (e *Engine) Integrate(expr, variable string, bounds *models.Bounds) (string, error) {
	n, err := Parse(expr)
	if err != nil {
		return "", err
	}
	if variable == "" {
		variable = pickVariable(Variables(n))
	}

	anti, antiErr := Antiderivative(n, variable)
	if bounds == nil {
		if antiErr != nil {
			return "", antiErr
		}
		return anti.String(), nil
	}

	if antiErr == nil {
		upper, errU := anti.Eval(map[string]float64{variable: bounds.Upper})
		lower, errL := anti.Eval(map[string]float64{variable: bounds.Lower})
		if errU != nil || errL != nil || !isFinite(upper-lower) {
			return "", fmt.Errorf("%w: integral diverges", ErrDomain)
		}
		return models.FormatNumber(upper - lower), nil
	}

	value, err := Quadrature(n, variable, bounds.Lower, bounds.Upper)
	if err != nil {
		return "", err
	}
	return models.FormatNumber(value), nil
}

// Quadrature numerically integrates n over [a, b].
func Quadrature(n Node, variable string, a, b float64) (float64, error) {
	var evalErr error
	f := func(x float64) float64 {
		y, err := n.Eval(map[string]float64{variable: x})
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		return y
	}
	// Serial evaluation: f records the first evaluation error.
	value := quad.Fixed(f, a, b, quadraturePoints, nil, 1)
	if evalErr != nil {
		return 0, evalErr
	}
	if !isFinite(value) {
		return 0, fmt.Errorf("%w: integral diverges", ErrDomain)
	}
	return value, nil
}

func splitEquation(text string) (Node, Node, error) {
	parts := strings.Split(text, "=")
	switch len(parts) {
	case 1:
		n, err := Parse(parts[0])
		return n, nil, err
	case 2:
		lhs, err := Parse(parts[0])
		if err != nil {
			return nil, nil, err
		}
		rhs, err := Parse(parts[1])
		if err != nil {
			return nil, nil, err
		}
		return lhs, rhs, nil
	default:
		return nil, nil, fmt.Errorf("%w: more than one '=' in %q", ErrSyntax, text)
	}
}

func polynomialRoots(p polynomial) ([]float64, error) {
	switch p.degree() {
	case 0:
		if p.isZero() {
			return nil, fmt.Errorf("%w: every value satisfies the equation", ErrNoSolution)
		}
		return nil, fmt.Errorf("%w: equation is inconsistent", ErrNoSolution)
	case 1:
		return []float64{cleanZero(-p.at(0) / p.at(1))}, nil
	case 2:
		a, b, c := p.at(2), p.at(1), p.at(0)
		disc := b*b - 4*a*c
		if disc < -1e-12 {
			return nil, fmt.Errorf("%w: no real solutions", ErrNoSolution)
		}
		if math.Abs(disc) <= 1e-12 {
			return []float64{cleanZero(-b / (2 * a))}, nil
		}
		s := math.Sqrt(disc)
		roots := []float64{cleanZero((-b - s) / (2 * a)), cleanZero((-b + s) / (2 * a))}
		sort.Float64s(roots)
		return roots, nil
	default:
		return nil, fmt.Errorf("%w: cannot solve polynomial of degree %d", ErrUnsupported, p.degree())
	}
}

func cleanZero(v float64) float64 {
	if math.Abs(v) < 1e-12 {
		return 0
	}
	return v
}

// pickVariable prefers x, then the first variable alphabetically.
func pickVariable(vars []string) string {
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

func mergeSorted(a, b []string) []string {
	seen := map[string]struct{}{}
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
