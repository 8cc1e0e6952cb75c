package symbolic_test

import (
	"testing"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/infrastructure/symbolic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Evaluate(t *testing.T) {
	engine := symbolic.NewEngine()

	tests := []struct {
		expr string
		want float64
	}{
		{"2+2", 4},
		{"25 * 4", 100},
		{"25 × 4", 100},
		{"10 / 4", 2.5},
		{"2^3^2", 512},
		{"2**3", 8},
		{"-3^2", -9},
		{"(1+2)(3+4)", 21},
		{"2(3)", 6},
		{"sqrt(16) + 1", 5},
		{"sin(0) + cos(0)", 1},
		{"2*pi - 2*pi", 0},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := engine.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEngine_EvaluateErrors(t *testing.T) {
	engine := symbolic.NewEngine()

	_, err := engine.Evaluate("1/0")
	assert.ErrorIs(t, err, symbolic.ErrDomain)

	_, err = engine.Evaluate("2 + x")
	assert.ErrorIs(t, err, symbolic.ErrUndefinedVariable)

	_, err = engine.Evaluate("(2+3")
	assert.ErrorIs(t, err, symbolic.ErrSyntax)

	_, err = engine.Evaluate("2 $ 3")
	assert.ErrorIs(t, err, symbolic.ErrSyntax)

	_, err = engine.Evaluate("sqrt(-1)")
	assert.ErrorIs(t, err, symbolic.ErrDomain)

	_, err = engine.Evaluate("10^400")
	assert.ErrorIs(t, err, symbolic.ErrDomain)
}

func TestEngine_Solve(t *testing.T) {
	engine := symbolic.NewEngine()

	tests := []struct {
		name     string
		equation string
		want     []float64
	}{
		{"linear", "2x + 3 = 7", []float64{2}},
		{"linear rhs variable", "5 = x - 1", []float64{6}},
		{"quadratic", "2x^2 + 5x - 3 = 0", []float64{-3, 0.5}},
		{"double root", "x^2 - 4x + 4 = 0", []float64{2}},
		{"no equals", "x^2 - 9", []float64{-3, 3}},
		{"implicit product", "3(x - 1) = 6", []float64{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Solve(tt.equation, "")
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestEngine_SolveFailures(t *testing.T) {
	engine := symbolic.NewEngine()

	_, err := engine.Solve("x^2 + 1 = 0", "x")
	assert.ErrorIs(t, err, symbolic.ErrNoSolution)

	_, err = engine.Solve("x^3 = 8", "x")
	assert.ErrorIs(t, err, symbolic.ErrUnsupported)

	_, err = engine.Solve("sin(x) = 0", "x")
	assert.ErrorIs(t, err, symbolic.ErrUnsupported)

	_, err = engine.Solve("x = 1 = 2", "x")
	assert.ErrorIs(t, err, symbolic.ErrSyntax)
}

func TestEngine_Differentiate(t *testing.T) {
	engine := symbolic.NewEngine()

	tests := []struct {
		expr string
		want string
	}{
		{"x^2", "2*x"},
		{"3x^2 + 2x + 1", "6*x + 2"},
		{"sin(x)", "cos(x)"},
		{"cos(x)", "-sin(x)"},
		{"5", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := engine.Differentiate(tt.expr, "x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEngine_DifferentiateNumerically checks derivatives that do not print
// in a canonical form by evaluating them.
func TestEngine_DifferentiateNumerically(t *testing.T) {
	engine := symbolic.NewEngine()

	d, err := engine.Differentiate("x*exp(x)", "x")
	require.NoError(t, err)
	v, err := engine.Substitute(d, map[string]float64{"x": 1})
	require.NoError(t, err)
	assert.InDelta(t, 2*2.718281828459045, v, 1e-9)

	d, err = engine.Differentiate("ln(x^2 + 1)", "x")
	require.NoError(t, err)
	v, err = engine.Substitute(d, map[string]float64{"x": 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestEngine_Integrate(t *testing.T) {
	engine := symbolic.NewEngine()

	got, err := engine.Integrate("2x", "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "x^2", got)

	got, err = engine.Integrate("3x^2 + 1", "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "x^3 + x", got)

	got, err = engine.Integrate("cos(x)", "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "sin(x)", got)

	got, err = engine.Integrate("x^2", "x", &models.Bounds{Lower: 0, Upper: 3})
	require.NoError(t, err)
	assert.Equal(t, "9", got)

	got, err = engine.Integrate("pi*x", "x", &models.Bounds{Lower: 0, Upper: 4})
	require.NoError(t, err)
	v, err := engine.Evaluate(got)
	require.NoError(t, err)
	assert.InDelta(t, 8*3.141592653589793, v, 1e-6)
}

// TestEngine_IntegrateQuadratureFallback tests the numeric path for a
// definite integral without a closed form antiderivative.
func TestEngine_IntegrateQuadratureFallback(t *testing.T) {
	engine := symbolic.NewEngine()

	_, err := engine.Integrate("exp(x^2)", "x", nil)
	assert.ErrorIs(t, err, symbolic.ErrUnsupported)

	got, err := engine.Integrate("exp(x^2)", "x", &models.Bounds{Lower: 0, Upper: 1})
	require.NoError(t, err)
	v, err := engine.Evaluate(got)
	require.NoError(t, err)
	assert.InDelta(t, 1.4626517459, v, 1e-6)
}

// TestEngine_IntegrateDivergent tests that an antiderivative undefined at
// a bound is reported instead of being replaced by quadrature.
func TestEngine_IntegrateDivergent(t *testing.T) {
	engine := symbolic.NewEngine()

	_, err := engine.Integrate("1/x", "x", &models.Bounds{Lower: 0, Upper: 1})
	assert.ErrorIs(t, err, symbolic.ErrDomain)

	got, err := engine.Integrate("1/x", "x", &models.Bounds{Lower: 1, Upper: 2})
	require.NoError(t, err)
	assert.Equal(t, "0.6931471806", got)
}

// TestEngine_IntegrateRoundTrip tests that differentiating an
// antiderivative gives back the integrand.
func TestEngine_IntegrateRoundTrip(t *testing.T) {
	engine := symbolic.NewEngine()

	for _, expr := range []string{"x^3 - 2x", "sin(2x)", "exp(3x)", "1/(2x + 1)", "sqrt(x)"} {
		t.Run(expr, func(t *testing.T) {
			anti, err := engine.Integrate(expr, "x", nil)
			require.NoError(t, err)
			d, err := engine.Differentiate(anti, "x")
			require.NoError(t, err)

			for _, x := range []float64{0.5, 1, 2} {
				want, err := engine.Substitute(expr, map[string]float64{"x": x})
				require.NoError(t, err)
				got, err := engine.Substitute(d, map[string]float64{"x": x})
				require.NoError(t, err)
				assert.InDelta(t, want, got, 1e-9, "x=%v", x)
			}
		})
	}
}

func TestEngine_FreeVariables(t *testing.T) {
	engine := symbolic.NewEngine()

	vars, err := engine.FreeVariables("2x + y = z")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, vars)

	vars, err = engine.FreeVariables("sin(pi)")
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestEngine_SuperscriptPowers(t *testing.T) {
	engine := symbolic.NewEngine()

	roots, err := engine.Solve("2x² + 5x - 3 = 0", "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{-3, 0.5}, roots)

	v, err := engine.Evaluate("2³")
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)
}

// TestNum_StringRoundTrip tests that large constants print in a form the
// parser reads back
func TestNum_StringRoundTrip(t *testing.T) {
	for _, v := range []float64{1e20, 1e299, -123456789012345678} {
		text := symbolic.Num{V: v}.String()
		assert.NotContains(t, text, "e")

		n, err := symbolic.Parse(text)
		require.NoError(t, err)
		got, err := n.Eval(nil)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
