package strategies

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services"
	"github.com/mshogin/fastslow/internal/infrastructure/symbolic"
)

// stubOracle is a scripted oracle for strategy tests.
type stubOracle struct {
	resp  models.OracleResponse
	err   error
	delay time.Duration
	panic bool
	calls []models.OracleRequest
}

func (o *stubOracle) Name() string { return "stub" }

func (o *stubOracle) Consult(ctx context.Context, req models.OracleRequest) (models.OracleResponse, error) {
	o.calls = append(o.calls, req)
	if o.panic {
		panic("oracle exploded")
	}
	if o.delay > 0 {
		time.Sleep(o.delay)
	}
	return o.resp, o.err
}

func failingOracle() *stubOracle {
	return &stubOracle{err: errors.New("connection refused")}
}

func answering(answer string, confidence float64, steps ...string) *stubOracle {
	return &stubOracle{resp: models.OracleResponse{Answer: &answer, Confidence: confidence, Steps: steps}}
}

// infiniteSolver evaluates every expression to +Inf.
type infiniteSolver struct {
	services.SymbolicSolver
}

func (infiniteSolver) Evaluate(string) (float64, error) { return math.Inf(1), nil }

// fixedStrategy returns a canned solution.
type fixedStrategy struct {
	tag      models.Strategy
	solution *models.Solution
	problems []string
}

func (s *fixedStrategy) Strategy() models.Strategy { return s.tag }

func (s *fixedStrategy) Solve(_ context.Context, problem string) *models.Solution {
	s.problems = append(s.problems, problem)
	return s.solution
}

func testConfig() models.PipelineConfig {
	cfg := models.DefaultPipelineConfig()
	cfg.Oracle.Timeout = time.Second
	return cfg
}

func newTestFast(oracle *stubOracle) *Fast {
	if oracle == nil {
		return NewFast(testConfig(), nil, symbolic.NewEngine())
	}
	return NewFast(testConfig(), oracle, symbolic.NewEngine())
}

func newTestSlow(oracle *stubOracle) *Slow {
	if oracle == nil {
		return NewSlow(testConfig(), nil, symbolic.NewEngine())
	}
	return NewSlow(testConfig(), oracle, symbolic.NewEngine())
}
