package switching

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services"
	"github.com/mshogin/fastslow/internal/domain/services/allocator"
	"github.com/mshogin/fastslow/internal/domain/services/complexity"
	"github.com/mshogin/fastslow/internal/domain/services/strategies"
)

var tracer = otel.Tracer("fastslow.switching")

// SwitchState is a state of one switcher run.
type SwitchState string

const (
	StateInit           SwitchState = "Init"
	StateAnalyze        SwitchState = "Analyze"
	StateSelectStrategy SwitchState = "SelectStrategy"
	StateAllocate       SwitchState = "Allocate"
	StateExecute        SwitchState = "Execute"
	StateEscalate       SwitchState = "Escalate"
	StateDone           SwitchState = "Done"
)

// transitions lists the legal successors of each state.
var transitions = map[SwitchState][]SwitchState{
	StateInit:           {StateAnalyze},
	StateAnalyze:        {StateSelectStrategy},
	StateSelectStrategy: {StateAllocate, StateExecute},
	StateAllocate:       {StateExecute},
	StateExecute:        {StateEscalate, StateDone},
	StateEscalate:       {StateDone},
}

// Observer is notified of every state the switcher enters.
type Observer func(ctx context.Context, state SwitchState)

// Option configures a Switcher.
type Option func(*Switcher)

// WithAllocator enables the Allocate state.
func WithAllocator(a *allocator.Allocator) Option {
	return func(s *Switcher) { s.allocator = a }
}

// WithObserver registers a state observer.
func WithObserver(o Observer) Option {
	return func(s *Switcher) { s.observers = append(s.observers, o) }
}

// Switcher selects a strategy from the problem complexity, runs it, and
// escalates a failed FAST result once to FAST_THEN_SLOW.
type Switcher struct {
	analyzer   *complexity.Analyzer
	allocator  *allocator.Allocator
	strategies map[models.Strategy]services.ThinkingStrategy
	threshold  float64
	observers  []Observer
}

// New creates a switcher over explicit strategies. FAST_THEN_SLOW must be
// among them; it is the escalation target and the fallback for strategies
// without an executor.
func New(cfg models.PipelineConfig, analyzer *complexity.Analyzer, fast, slow, combined services.ThinkingStrategy, opts ...Option) *Switcher {
	s := &Switcher{
		analyzer: analyzer,
		strategies: map[models.Strategy]services.ThinkingStrategy{
			models.StrategyFast:         fast,
			models.StrategySlow:         slow,
			models.StrategyFastThenSlow: combined,
		},
		threshold: cfg.Switching.ConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDefault wires the stock pipeline: analyzer, allocator and the three
// strategies sharing one oracle and one symbolic solver.
func NewDefault(cfg models.PipelineConfig, oracle services.Oracle, solver services.SymbolicSolver, opts ...Option) *Switcher {
	fast := strategies.NewFast(cfg, oracle, solver)
	slow := strategies.NewSlow(cfg, oracle, solver)
	combined := strategies.NewCombined(cfg, fast, slow)
	opts = append([]Option{WithAllocator(allocator.New(cfg.Allocator))}, opts...)
	return New(cfg, complexity.NewAnalyzer(cfg), fast, slow, combined, opts...)
}

// Analyzer exposes the complexity analyzer.
func (s *Switcher) Analyzer() *complexity.Analyzer {
	return s.analyzer
}

// Allocator exposes the allocator; nil when allocation is disabled.
func (s *Switcher) Allocator() *allocator.Allocator {
	return s.allocator
}

// run tracks the state of one solve.
type run struct {
	s     *Switcher
	ctx   context.Context
	span  trace.Span
	state SwitchState
}

func (r *run) enter(next SwitchState) {
	legal := false
	for _, to := range transitions[r.state] {
		if to == next {
			legal = true
			break
		}
	}
	if !legal {
		panic(fmt.Sprintf("switcher: illegal transition %s -> %s", r.state, next))
	}
	r.state = next
	r.span.AddEvent("state", trace.WithAttributes(attribute.String("state", string(next))))
	for _, o := range r.s.observers {
		o(r.ctx, next)
	}
}

// Solve analyzes the problem and runs the strategy its level maps to.
func (s *Switcher) Solve(ctx context.Context, problem string) *models.Solution {
	return s.SolveWith(ctx, problem, "")
}

// SolveWith runs the pipeline with the strategy forced when non-empty.
// Strategies without an executor run as FAST_THEN_SLOW. The result is
// always annotated with the analysis and the initially selected strategy.
func (s *Switcher) SolveWith(ctx context.Context, problem string, forced models.Strategy) *models.Solution {
	ctx, span := tracer.Start(ctx, "switcher.solve")
	defer span.End()
	r := &run{s: s, ctx: ctx, span: span, state: StateInit}

	r.enter(StateAnalyze)
	analysis := s.analyzer.Analyze(problem)

	r.enter(StateSelectStrategy)
	initial := forced
	if initial == "" {
		initial = s.analyzer.RecommendedStrategy(analysis.Level)
	}
	span.SetAttributes(
		attribute.Float64("complexity.score", analysis.Score),
		attribute.String("complexity.level", string(analysis.Level)),
		attribute.String("strategy.initial", initial.String()),
	)

	var allocation *models.ResourceAllocation
	if s.allocator != nil {
		r.enter(StateAllocate)
		a := s.allocator.AllocateFor(analysis, initial)
		allocation = &a
	}

	r.enter(StateExecute)
	sol := s.execute(ctx, problem, initial)

	if initial == models.StrategyFast {
		if reason, ok := s.EscalationReason(sol); ok {
			r.enter(StateEscalate)
			span.SetAttributes(attribute.String("escalation.reason", reason))
			escalated := s.execute(ctx, problem, models.StrategyFastThenSlow)
			sol = escalated.WithSwitch(&models.StrategySwitch{
				From:     models.StrategyFast,
				To:       models.StrategyFastThenSlow,
				Reason:   reason,
				Original: sol,
			})
		}
	}

	r.enter(StateDone)
	return sol.WithAnalysis(&analysis, initial, allocation)
}

func (s *Switcher) execute(ctx context.Context, problem string, strategy models.Strategy) *models.Solution {
	if !strategy.Executable() {
		strategy = models.StrategyFastThenSlow
	}
	return s.strategies[strategy].Solve(ctx, problem)
}

// EscalationReason applies the acceptance test to a FAST result and
// returns why it failed. Errors are reported first, then low confidence,
// then exhausted steps.
func (s *Switcher) EscalationReason(sol *models.Solution) (string, bool) {
	switch {
	case sol.HasError():
		return fmt.Sprintf("Error in current strategy: %s", sol.ErrorText()), true
	case sol.Confidence < s.threshold:
		return fmt.Sprintf("Low confidence: %.2f < %v", sol.Confidence, s.threshold), true
	case sol.Resources.MaxSteps > 0 && sol.Resources.StepsUsed >= sol.Resources.MaxSteps:
		return fmt.Sprintf("Resource limit reached: %d steps used", sol.Resources.StepsUsed), true
	default:
		return "", false
	}
}
