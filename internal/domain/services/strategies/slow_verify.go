package strategies

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services"
)

// verification is the output of the verify phase.
type verification struct {
	method     string
	result     string
	issues     []string
	confidence float64
}

// samplePoints are where derivatives and antiderivatives are compared.
// They are positive so that sqrt and ln stay in their domain.
var samplePoints = []float64{0.5, 1.25, 2, 3.1}

const (
	quadraturePoints = 64
	tolerance        = 1e-4
)

func inconclusiveVerification(err error) verification {
	return verification{
		method:     "Verification attempt",
		result:     "Failed",
		issues:     []string{fmt.Sprintf("Error during verification: %s", err)},
		confidence: 0.4,
	}
}

func (s *Slow) verifyEquation(a *analysis, ex execution) verification {
	if len(ex.roots) == 0 {
		return verification{method: "Computational verification", result: "Passed", confidence: 0.9}
	}

	var issues []string
	for _, root := range ex.roots {
		r := models.FormatNumber(root)
		diff, err := residual(s.solver, a.equation, a.variable, root)
		switch {
		case err != nil:
			issues = append(issues, fmt.Sprintf("Error verifying solution %s: %s", r, err))
		case diff > 1e-9:
			issues = append(issues, fmt.Sprintf("Solution %s does not satisfy the equation", r))
		}
	}
	if len(issues) > 0 {
		return verification{method: "Substitution check", result: "Failed", issues: issues, confidence: 0.3}
	}
	return verification{method: "Substitution check", result: "Passed", confidence: 0.95}
}

func (s *Slow) verifyCalculus(a *analysis, ex execution) verification {
	answer := *ex.answer
	switch {
	case a.kind == models.KindDerivative:
		ok, err := derivativeMatches(s.solver, a.function, answer, a.variable)
		if err != nil {
			return inconclusiveVerification(err)
		}
		if !ok {
			return verification{method: "Derivative verification", result: "Failed",
				issues: []string{"Derivative does not match expected result"}, confidence: 0.3}
		}
		return verification{method: "Derivative verification", result: "Passed", confidence: 0.95}

	case ex.bounds != nil:
		if _, err := s.solver.Integrate(a.function, a.variable, nil); err != nil {
			// No antiderivative: the answer is itself a quadrature value.
			return verification{method: "Definite integral verification by quadrature", result: "Inconclusive",
				issues: []string{"No closed form antiderivative; the numeric result could not be checked independently"}, confidence: 0.4}
		}
		ok, err := quadratureMatches(s.solver, a.function, answer, a.variable, *ex.bounds)
		if err != nil {
			return inconclusiveVerification(err)
		}
		if !ok {
			return verification{method: "Definite integral verification by quadrature", result: "Failed",
				issues: []string{"Numerical quadrature does not match the computed integral"}, confidence: 0.4}
		}
		return verification{method: "Definite integral verification by quadrature", result: "Passed", confidence: 0.9}

	default:
		// d/dx of the antiderivative must give back the integrand.
		ok, err := derivativeMatches(s.solver, answer, a.function, a.variable)
		if err != nil {
			return inconclusiveVerification(err)
		}
		if !ok {
			return verification{method: "Integral verification by differentiation", result: "Failed",
				issues: []string{"Differentiating the integral does not yield the original function"}, confidence: 0.4}
		}
		return verification{method: "Integral verification by differentiation", result: "Passed", confidence: 0.9}
	}
}

func verifyGeometry(*analysis, execution) verification {
	return verification{method: "Formula application check", result: "Passed with medium confidence", confidence: 0.8}
}

func verifyWordProblem(*analysis, execution) verification {
	return verification{
		method:     "Basic consistency check",
		result:     "Passed with low confidence",
		issues:     []string{"No specific verification method available for this problem type"},
		confidence: 0.6,
	}
}

// numericFunc adapts a symbolic expression to a float function. Points
// outside the domain evaluate to NaN.
func numericFunc(solver services.SymbolicSolver, expr, variable string) func(float64) float64 {
	return func(x float64) float64 {
		v, err := solver.Substitute(expr, map[string]float64{variable: x})
		if err != nil {
			return math.NaN()
		}
		return v
	}
}

// derivativeMatches compares the central finite difference of function
// with derivative at the sample points. Points where either side cannot be
// evaluated are skipped; if none remain the check is inconclusive.
func derivativeMatches(solver services.SymbolicSolver, function, derivative, variable string) (bool, error) {
	f := numericFunc(solver, function, variable)
	g := numericFunc(solver, derivative, variable)
	settings := &fd.Settings{Formula: fd.Central}

	checked := 0
	for _, x := range samplePoints {
		want := fd.Derivative(f, x, settings)
		got := g(x)
		if math.IsNaN(want) || math.IsNaN(got) || math.IsInf(want, 0) {
			continue
		}
		checked++
		if math.Abs(got-want) > tolerance*math.Max(1, math.Abs(want)) {
			return false, nil
		}
	}
	if checked == 0 {
		return false, fmt.Errorf("%w: no sample point could be evaluated", models.ErrVerification)
	}
	return true, nil
}

// quadratureMatches compares a definite integral result with
// Gauss-Legendre quadrature over the bounds.
func quadratureMatches(solver services.SymbolicSolver, function, answer, variable string, b models.Bounds) (bool, error) {
	claimed, err := strconv.ParseFloat(answer, 64)
	if err != nil {
		return false, fmt.Errorf("%w: integral result %q is not numeric", models.ErrVerification, answer)
	}
	value := quad.Fixed(numericFunc(solver, function, variable), b.Lower, b.Upper, quadraturePoints, nil, 1)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false, fmt.Errorf("%w: quadrature did not converge", models.ErrVerification)
	}
	return math.Abs(value-claimed) <= tolerance*math.Max(1, math.Abs(value)), nil
}
