package switching_test

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services/allocator"
	"github.com/mshogin/fastslow/internal/domain/services/complexity"
	"github.com/mshogin/fastslow/internal/domain/services/switching"
	"github.com/mshogin/fastslow/internal/infrastructure/symbolic"
)

const volumeOfRevolution = "Find the volume of the solid of revolution obtained by rotating the region " +
	"bounded by y = sqrt(x), y = 0 and x = 4 about the x-axis, then calculate the integral of pi " +
	"times y squared from 0 to 4 and determine the derivative of the volume."

type stubStrategy struct {
	tag   models.Strategy
	sol   *models.Solution
	calls int
}

func (s *stubStrategy) Strategy() models.Strategy { return s.tag }

func (s *stubStrategy) Solve(context.Context, string) *models.Solution {
	s.calls++
	return s.sol
}

func stub(tag models.Strategy, answer string, confidence float64, errMsg string, limits models.StrategyLimits, steps ...string) *stubStrategy {
	tr := models.NewSolutionTrace(steps...)
	sol := models.NewSolution(tag).
		Answer(answer).
		Confidence(confidence).
		Trace(tr).
		TokensUsed(tr.WordCount()).
		ErrorText(errMsg).
		Limits(limits).
		Build()
	return &stubStrategy{tag: tag, sol: sol}
}

type failingOracle struct{}

func (failingOracle) Name() string { return "failing" }

func (failingOracle) Consult(context.Context, models.OracleRequest) (models.OracleResponse, error) {
	return models.OracleResponse{}, errors.New("simulated outage")
}

func newDefault(t *testing.T) *switching.Switcher {
	t.Helper()
	return switching.NewDefault(models.DefaultPipelineConfig(), nil, symbolic.NewEngine())
}

type stubs struct {
	fast, slow, combined *stubStrategy
}

func newStubbed(fast *stubStrategy, opts ...switching.Option) (*switching.Switcher, stubs) {
	cfg := models.DefaultPipelineConfig()
	st := stubs{
		fast:     fast,
		slow:     stub(models.StrategySlow, "slow", 0.95, "", cfg.Strategies.Slow, "slow step"),
		combined: stub(models.StrategyFastThenSlow, "combined", 0.95, "", cfg.Strategies.Fast, "combined step"),
	}
	s := switching.New(cfg, complexity.NewAnalyzer(cfg), st.fast, st.slow, st.combined, opts...)
	return s, st
}

// TestSwitcher_SimpleArithmeticStaysFast tests a simple problem solved by FAST
func TestSwitcher_SimpleArithmeticStaysFast(t *testing.T) {
	sol := newDefault(t).Solve(context.Background(), "What is 25 × 4?")

	assert.Equal(t, "100", sol.AnswerText())
	assert.Equal(t, models.StrategyFast, sol.Strategy)
	assert.Equal(t, models.StrategyFast, sol.InitialStrategy)
	require.NotNil(t, sol.Complexity)
	assert.LessOrEqual(t, sol.Complexity.Score, 0.3)
	assert.Equal(t, models.ComplexitySimple, sol.Complexity.Level)
	assert.Nil(t, sol.StrategySwitch)
	require.NotNil(t, sol.Allocation)
	assert.LessOrEqual(t, sol.Allocation.MaxSteps, 3)
}

// TestSwitcher_MediumEquationUsesFastThenSlow tests a medium problem solved by FAST_THEN_SLOW
func TestSwitcher_MediumEquationUsesFastThenSlow(t *testing.T) {
	sol := newDefault(t).Solve(context.Background(), "Solve the equation 2x² + 5x - 3 = 0 for x.")

	require.NotNil(t, sol.Complexity)
	assert.Greater(t, sol.Complexity.Score, 0.3)
	assert.LessOrEqual(t, sol.Complexity.Score, 0.6)
	assert.Equal(t, models.ComplexityMedium, sol.Complexity.Level)
	assert.Equal(t, models.StrategyFastThenSlow, sol.InitialStrategy)
	assert.Equal(t, models.StrategyFastThenSlow, sol.Strategy)
	assert.Equal(t, "x = -3, x = 0.5", sol.AnswerText())
	require.NotNil(t, sol.SwitchDecision)
}

// TestSwitcher_ComplexCalculusUsesSlow tests a complex problem solved by SLOW
func TestSwitcher_ComplexCalculusUsesSlow(t *testing.T) {
	sol := newDefault(t).Solve(context.Background(), volumeOfRevolution)

	require.NotNil(t, sol.Complexity)
	assert.Greater(t, sol.Complexity.Score, 0.6)
	assert.Equal(t, models.ComplexityComplex, sol.Complexity.Level)
	assert.Equal(t, models.StrategySlow, sol.InitialStrategy)
	assert.Equal(t, models.StrategySlow, sol.Strategy)

	v, err := strconv.ParseFloat(sol.AnswerText(), 64)
	require.NoError(t, err)
	assert.InDelta(t, 64*math.Pi/3, v, 1e-6)
	require.NotNil(t, sol.Allocation)
	assert.GreaterOrEqual(t, sol.Allocation.MaxSteps, 10)
}

// TestSwitcher_OracleFailureFallsBackToArithmetic tests the arithmetic fallback when the oracle fails
func TestSwitcher_OracleFailureFallsBackToArithmetic(t *testing.T) {
	s := switching.NewDefault(models.DefaultPipelineConfig(), failingOracle{}, symbolic.NewEngine())

	sol := s.Solve(context.Background(), "2+2")

	assert.Equal(t, models.StrategyFast, sol.Strategy)
	assert.Equal(t, "4", sol.AnswerText())
	assert.InDelta(t, 0.95, sol.Confidence, 1e-9)
	assert.False(t, sol.HasError())
	assert.Nil(t, sol.StrategySwitch)
}

// TestSwitcher_LowConfidenceFastEscalates tests escalation of a low-confidence FAST result
func TestSwitcher_LowConfidenceFastEscalates(t *testing.T) {
	limits := models.DefaultPipelineConfig().Strategies.Fast
	s, st := newStubbed(stub(models.StrategyFast, "99", 0.5, "", limits, "Guess"))

	sol := s.Solve(context.Background(), "What is 25 × 4?")

	assert.Equal(t, models.ComplexitySimple, sol.Complexity.Level)
	assert.Equal(t, models.StrategyFast, sol.InitialStrategy)
	assert.Equal(t, models.StrategyFastThenSlow, sol.Strategy)
	assert.Equal(t, "combined", sol.AnswerText())
	assert.Equal(t, 1, st.fast.calls)
	assert.Equal(t, 1, st.combined.calls)

	require.NotNil(t, sol.StrategySwitch)
	assert.Equal(t, models.StrategyFast, sol.StrategySwitch.From)
	assert.Equal(t, models.StrategyFastThenSlow, sol.StrategySwitch.To)
	assert.Equal(t, "Low confidence: 0.50 < 0.7", sol.StrategySwitch.Reason)
	require.NotNil(t, sol.StrategySwitch.Original)
	assert.Equal(t, "99", sol.StrategySwitch.Original.AnswerText())
	assert.Equal(t, sol.Trace.Len(), sol.Resources.StepsUsed)
}

// TestSwitcher_EscalationReason tests the reason precedence
func TestSwitcher_EscalationReason(t *testing.T) {
	limits := models.StrategyLimits{MaxSteps: 2, TokenBudget: 100, VerificationEffort: 0.2}

	tests := []struct {
		name     string
		solution *models.Solution
		reason   string
		escalate bool
	}{
		{
			name:     "error before low confidence",
			solution: stub(models.StrategyFast, "1", 0.1, "boom", limits, "one").sol,
			reason:   "Error in current strategy: boom",
			escalate: true,
		},
		{
			name:     "low confidence",
			solution: stub(models.StrategyFast, "1", 0.65, "", limits, "one").sol,
			reason:   "Low confidence: 0.65 < 0.7",
			escalate: true,
		},
		{
			name:     "resource limit",
			solution: stub(models.StrategyFast, "1", 0.9, "", limits, "one", "two").sol,
			reason:   "Resource limit reached: 2 steps used",
			escalate: true,
		},
		{
			name:     "accepted",
			solution: stub(models.StrategyFast, "1", 0.7, "", limits, "one").sol,
		},
	}

	s, _ := newStubbed(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := s.EscalationReason(tt.solution)

			assert.Equal(t, tt.escalate, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

// TestSwitcher_OnlyFastEscalates tests that other strategies are returned
// as is even with low confidence
func TestSwitcher_OnlyFastEscalates(t *testing.T) {
	cfg := models.DefaultPipelineConfig()
	s, st := newStubbed(stub(models.StrategyFast, "f", 0.9, "", cfg.Strategies.Fast, "fast"))
	st.slow.sol = stub(models.StrategySlow, "s", 0.1, "failed", cfg.Strategies.Slow, "slow").sol

	sol := s.SolveWith(context.Background(), "What is 25 × 4?", models.StrategySlow)

	assert.Equal(t, "s", sol.AnswerText())
	assert.Nil(t, sol.StrategySwitch)
	assert.Equal(t, models.StrategySlow, sol.InitialStrategy)
	assert.Zero(t, st.combined.calls)
}

// TestSwitcher_ReservedStrategy tests that reserved tags run the combined
// strategy and keep the requested tag as the initial strategy
func TestSwitcher_ReservedStrategy(t *testing.T) {
	cfg := models.DefaultPipelineConfig()
	s, st := newStubbed(stub(models.StrategyFast, "f", 0.9, "", cfg.Strategies.Fast, "fast"))

	sol := s.SolveWith(context.Background(), "2+2", models.StrategyParallel)

	assert.Equal(t, "combined", sol.AnswerText())
	assert.Equal(t, models.StrategyParallel, sol.InitialStrategy)
	assert.Equal(t, 1, st.combined.calls)
	assert.Zero(t, st.fast.calls)
}

// TestSwitcher_States tests the state sequence with and without allocation
func TestSwitcher_States(t *testing.T) {
	limits := models.DefaultPipelineConfig().Strategies.Fast

	t.Run("escalation with allocator", func(t *testing.T) {
		var states []switching.SwitchState
		observer := func(_ context.Context, s switching.SwitchState) { states = append(states, s) }
		s, _ := newStubbed(stub(models.StrategyFast, "1", 0.2, "", limits, "one"),
			switching.WithAllocator(allocator.New(models.DefaultPipelineConfig().Allocator)),
			switching.WithObserver(observer))

		sol := s.Solve(context.Background(), "2+2")

		assert.Equal(t, []switching.SwitchState{
			switching.StateAnalyze,
			switching.StateSelectStrategy,
			switching.StateAllocate,
			switching.StateExecute,
			switching.StateEscalate,
			switching.StateDone,
		}, states)
		assert.NotNil(t, sol.Allocation)
	})

	t.Run("no allocator", func(t *testing.T) {
		var states []switching.SwitchState
		observer := func(_ context.Context, s switching.SwitchState) { states = append(states, s) }
		s, _ := newStubbed(stub(models.StrategyFast, "1", 0.95, "", limits, "one"), switching.WithObserver(observer))

		sol := s.Solve(context.Background(), "2+2")

		assert.Equal(t, []switching.SwitchState{
			switching.StateAnalyze,
			switching.StateSelectStrategy,
			switching.StateExecute,
			switching.StateDone,
		}, states)
		assert.Nil(t, sol.Allocation)
		assert.NotNil(t, sol.Complexity)
	})
}

// TestSwitcher_StepsMatchTrace tests the steps_used invariant over a mix of
// problems through the real pipeline
func TestSwitcher_StepsMatchTrace(t *testing.T) {
	s := newDefault(t)
	problems := []string{
		"What is 25 × 4?",
		"2+2",
		"Solve 2x + 3 = 7",
		"Find the derivative of x^3 + 2x",
		"Find the area of a triangle with base 5 and height 4",
		"John has 5 apples and gives 2 to Mary. How many apples does John have?",
		volumeOfRevolution,
		"",
	}

	for _, p := range problems {
		t.Run(p, func(t *testing.T) {
			sol := s.Solve(context.Background(), p)

			assert.NotEmpty(t, sol.Strategy)
			assert.Equal(t, sol.Trace.Len(), sol.Resources.StepsUsed)
			assert.GreaterOrEqual(t, sol.Confidence, 0.0)
			assert.LessOrEqual(t, sol.Confidence, 1.0)
		})
	}
}
