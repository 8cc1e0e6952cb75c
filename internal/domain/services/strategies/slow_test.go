package strategies

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/infrastructure/symbolic"
)

// TestSlow_OracleAccepted tests that a confident slow oracle answer is used
// with its verification appended
func TestSlow_OracleAccepted(t *testing.T) {
	oracle := answering("x = 2", 0.85, "Subtract 3", "Divide by 2")
	oracle.resp.Verification = "2*2 + 3 = 7"
	slow := newTestSlow(oracle)

	sol := slow.Solve(context.Background(), "Solve 2x + 3 = 7")

	assert.Equal(t, "x = 2", sol.AnswerText())
	assert.Equal(t, 0.85, sol.Confidence)
	assert.Equal(t, []string{"Subtract 3", "Divide by 2", "Verification: 2*2 + 3 = 7"}, sol.Trace.Steps())
	assert.Equal(t, models.StrategySlow, sol.Strategy)
	require.Len(t, oracle.calls, 1)
	assert.Equal(t, models.ThinkingModeSlow, oracle.calls[0].Mode)
}

// TestSlow_OracleAtThreshold tests that 0.8 does not clear the slow bar
func TestSlow_OracleAtThreshold(t *testing.T) {
	slow := newTestSlow(answering("x = 3", 0.8))

	sol := slow.Solve(context.Background(), "Solve 2x + 3 = 7")

	assert.Equal(t, "x = 2", sol.AnswerText())
	assert.Equal(t, 0.95, sol.Confidence)
}

// TestSlow_Phases tests the phase trace of an equation solve
func TestSlow_Phases(t *testing.T) {
	slow := newTestSlow(failingOracle())

	sol := slow.Solve(context.Background(), "Solve the equation 2x² + 5x - 3 = 0 for x.")

	assert.Equal(t, "x = -3, x = 0.5", sol.AnswerText())
	assert.Equal(t, 0.95, sol.Confidence)
	assert.False(t, sol.HasError())

	steps := sol.Trace.Steps()
	assert.Equal(t, "Step 1: Understanding the problem", steps[0])
	assert.Equal(t, "Problem type: equation", steps[1])
	assert.Contains(t, steps, "Step 2: Planning the solution approach")
	assert.Contains(t, steps, "Solution approach: Solve the equation for x")
	assert.Contains(t, steps, "Step 3: Executing the solution plan")
	assert.Contains(t, steps, "  Execution 4: Solution: x = -3, x = 0.5")
	assert.Contains(t, steps, "Verification method: Substitution check")
	assert.Contains(t, steps, "Verification result: Passed")
	assert.NotContains(t, steps, "Step 5: Refining the solution")

	assert.Equal(t, sol.Trace.Len(), sol.Resources.StepsUsed)
	assert.Equal(t, sol.Trace.WordCount(), sol.TokensUsed)
	assert.Equal(t, 10, sol.Resources.MaxSteps)
	assert.Equal(t, 500, sol.Resources.TokenBudget)
	assert.Equal(t, 0.8, sol.Resources.VerificationEffort)
}

// TestSlow_Kinds tests the per-kind execution and verification
func TestSlow_Kinds(t *testing.T) {
	tests := []struct {
		name       string
		problem    string
		answer     string
		confidence float64
		method     string
	}{
		{"expression", "Solve 3 + 4 * 2", "11", 0.9, "Computational verification"},
		{"derivative", "Find the derivative of x^3 + 2x", "3*x^2 + 2", 0.95, "Derivative verification"},
		{"indefinite integral", "Integrate cos(x)", "sin(x)", 0.9, "Integral verification by differentiation"},
		{"definite integral", "Find the integral of x^2 from 0 to 3", "9", 0.9, "Definite integral verification by quadrature"},
		{"triangle with measurements", "Find the area of a triangle with base 6 and height 3", "9", 0.8, "Formula application check"},
		{"circle placeholder", "What is the area of a circle?", "28.2743338823", 0.8, "Formula application check"},
		{"rectangle perimeter", "Find the perimeter of a rectangle with length 7 and width 2", "18", 0.8, "Formula application check"},
	}

	slow := newTestSlow(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := slow.Solve(context.Background(), tt.problem)

			require.True(t, sol.HasAnswer(), "error: %s", sol.ErrorText())
			assert.Equal(t, tt.answer, sol.AnswerText())
			assert.InDelta(t, tt.confidence, sol.Confidence, 1e-9)
			assert.Contains(t, sol.Trace.Steps(), "Verification method: "+tt.method)
			assert.False(t, sol.HasError())
		})
	}
}

// TestSlow_GeometryPlaceholders tests that missing measurements are named
func TestSlow_GeometryPlaceholders(t *testing.T) {
	sol := newTestSlow(nil).Solve(context.Background(), "What is the area of a circle?")

	assert.Contains(t, sol.Trace.Steps(), "  Execution 3: Using values: radius = 3 (placeholder)")
	assert.Contains(t, sol.Trace.Steps(), "  Substep 2: Apply the formula: Area = π × radius²")
}

// TestSlow_Failures tests degraded results and the refinement phase
func TestSlow_Failures(t *testing.T) {
	tests := []struct {
		name    string
		problem string
		answer  bool
		message string
	}{
		{
			name:    "unknown geometry formula",
			problem: "Find the angle of the polygon",
			message: "Insufficient information to solve geometry problem",
		},
		{
			name:    "word problem",
			problem: "John has 5 apples and gives 2 to Mary. How many apples does John have?",
			answer:  true,
			message: "Generic word problem solver not fully implemented",
		},
		{
			name:    "no real roots",
			problem: "Solve x^2 + 1 = 0",
			message: "no solution: no real solutions",
		},
		{
			name:    "divergent integral",
			problem: "Integrate 1/x from 0 to 1",
			message: "math domain error: integral diverges",
		},
	}

	slow := newTestSlow(failingOracle())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := slow.Solve(context.Background(), tt.problem)

			assert.Equal(t, tt.answer, sol.HasAnswer())
			assert.Equal(t, 0.1, sol.Confidence)
			assert.Equal(t, tt.message, sol.ErrorText())

			steps := sol.Trace.Steps()
			assert.Contains(t, steps, "Verification method: Error check")
			assert.Contains(t, steps, "Step 5: Refining the solution")
			assert.Contains(t, steps, "  Refinement 2: Verification issues: "+tt.message)
		})
	}
}

// TestSlow_QuadratureOnlyIntegral tests that a definite integral without a
// closed form is answered but not trusted
func TestSlow_QuadratureOnlyIntegral(t *testing.T) {
	sol := newTestSlow(failingOracle()).Solve(context.Background(), "Find the integral of exp(x^2) from 0 to 1")

	require.True(t, sol.HasAnswer(), "error: %s", sol.ErrorText())
	v, err := strconv.ParseFloat(sol.AnswerText(), 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.4626517459, v, 1e-6)
	assert.Equal(t, 0.4, sol.Confidence)

	steps := sol.Trace.Steps()
	assert.Contains(t, steps, "Verification method: Definite integral verification by quadrature")
	assert.Contains(t, steps, "Verification result: Inconclusive")
	assert.Contains(t, steps, "Step 5: Refining the solution")
}

// TestSlow_ArmsVerify tests that every arm carries its own verifier
func TestSlow_ArmsVerify(t *testing.T) {
	for kind, arm := range newTestSlow(nil).arms {
		assert.NotNil(t, arm.verify, "kind %s", kind)
	}

	v := verifyWordProblem(nil, execution{})
	assert.Equal(t, "Basic consistency check", v.method)
	assert.Equal(t, 0.6, v.confidence)
	assert.NotEmpty(t, v.issues)
}

// TestSlow_WordProblemComponents tests entity and question extraction
func TestSlow_WordProblemComponents(t *testing.T) {
	a := newTestSlow(nil).analyze("John has 5 apples and gives 2 to Mary. How many apples does John have?")

	assert.Equal(t, models.KindWordProblem, a.kind)
	assert.Contains(t, a.entities, "5 apple")
	assert.Contains(t, a.entities, "John")
	assert.Equal(t, "how many apples does john have?", a.question)
}

// TestSlow_Hint tests that the fast hint reaches the oracle but not the
// local analysis
func TestSlow_Hint(t *testing.T) {
	oracle := failingOracle()
	slow := newTestSlow(oracle)
	problem := withHint("Solve 2x + 3 = 7", "x = 2")

	sol := slow.Solve(context.Background(), problem)

	assert.Equal(t, "x = 2", sol.AnswerText())
	assert.Contains(t, sol.Trace.Steps(), "Initial estimate from Fast Thinking: x = 2")
	require.Len(t, oracle.calls, 1)
	assert.Equal(t, problem, oracle.calls[0].Prompt)
}

// TestSlow_VolumeOfRevolution tests the calculus path of the complex scenario
func TestSlow_VolumeOfRevolution(t *testing.T) {
	problem := "Find the volume of the solid of revolution obtained by rotating the region bounded by " +
		"y = sqrt(x), y = 0 and x = 4 about the x-axis, then calculate the integral of pi times y squared " +
		"from 0 to 4 and determine the derivative of the volume."

	sol := newTestSlow(failingOracle()).Solve(context.Background(), problem)

	require.True(t, sol.HasAnswer(), "error: %s", sol.ErrorText())
	v, err := strconv.ParseFloat(sol.AnswerText(), 64)
	require.NoError(t, err)
	assert.InDelta(t, 64*math.Pi/3, v, 1e-6)
	assert.Equal(t, 0.9, sol.Confidence)
	assert.Equal(t, "Problem type: integral", sol.Trace.Steps()[1])
}

// TestSlow_MissingArm tests the short circuit for kinds without an arm
func TestSlow_MissingArm(t *testing.T) {
	slow := newTestSlow(nil)
	delete(slow.arms, models.KindEquation)

	sol := slow.Solve(context.Background(), "Solve 2x + 3 = 7")

	assert.False(t, sol.HasAnswer())
	assert.Equal(t, 0.1, sol.Confidence)
	assert.Equal(t, "Unsupported problem type: equation", sol.ErrorText())
	assert.Equal(t, sol.Trace.Len(), sol.Resources.StepsUsed)
}

// TestClassifySlow tests slow problem classification
func TestClassifySlow(t *testing.T) {
	tests := []struct {
		text string
		want models.ProblemKind
	}{
		{"solve 2x + 3 = 7", models.KindEquation},
		{"find the derivative of x^2", models.KindDerivative},
		{"integrate x then differentiate", models.KindIntegral},
		{"find the area of a square", models.KindGeometry},
		{"find x if twice x is ten", models.KindEquation},
		{"how many apples are left", models.KindWordProblem},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, classifySlow(tt.text))
		})
	}
}

// TestDerivativeMatches tests the numeric derivative check
func TestDerivativeMatches(t *testing.T) {
	engine := symbolic.NewEngine()

	ok, err := derivativeMatches(engine, "x^2", "2*x", "x")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = derivativeMatches(engine, "x^2", "3*x", "x")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = derivativeMatches(engine, "sqrt(-1 - x^2)", "x", "x")
	assert.ErrorIs(t, err, models.ErrVerification)
}

// TestQuadratureMatches tests the numeric definite integral check
func TestQuadratureMatches(t *testing.T) {
	engine := symbolic.NewEngine()
	bounds := models.Bounds{Lower: 0, Upper: 3}

	ok, err := quadratureMatches(engine, "x^2", "9", "x", bounds)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = quadratureMatches(engine, "x^2", "10", "x", bounds)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = quadratureMatches(engine, "x^2", "x^3/3", "x", bounds)
	assert.ErrorIs(t, err, models.ErrVerification)
}
