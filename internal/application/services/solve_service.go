package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mshogin/fastslow/internal/domain/models"
	domainServices "github.com/mshogin/fastslow/internal/domain/services"
	"github.com/mshogin/fastslow/internal/domain/services/switching"
	"github.com/mshogin/fastslow/internal/infrastructure/logging"
	"github.com/mshogin/fastslow/internal/infrastructure/metrics"
)

var validate = validator.New()

// SolveService coordinates one solve call: validation, the switcher run,
// monitoring, metrics and logging.
//
// Design principles:
// - Single Responsibility: the domain pipeline decides, this layer records
// - Dependency Injection: oracle, solver and metrics are passed in
// - Every call gets its own solve ID; no state is shared between solves
type SolveService struct {
	switcher  *switching.Switcher
	monitor   *switching.Monitor
	logger    *logging.StructuredLogger
	exporter  *metrics.Exporter
	collector *metrics.Collector
}

// SolveOption configures a SolveService.
type SolveOption func(*SolveService)

// WithExporter records Prometheus metrics and instruments the oracle.
func WithExporter(e *metrics.Exporter) SolveOption {
	return func(s *SolveService) { s.exporter = e }
}

// WithCollector aggregates solves for the stats endpoint.
func WithCollector(c *metrics.Collector) SolveOption {
	return func(s *SolveService) { s.collector = c }
}

// NewSolveService wires the stock pipeline around the given collaborators.
func NewSolveService(
	cfg models.PipelineConfig,
	oracle domainServices.Oracle,
	solver domainServices.SymbolicSolver,
	logger *logging.StructuredLogger,
	opts ...SolveOption,
) *SolveService {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &SolveService{
		monitor: switching.NewMonitor(cfg.Switching),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exporter != nil {
		oracle = metrics.InstrumentOracle(oracle, s.exporter)
	}
	s.switcher = switching.NewDefault(cfg, oracle, solver, switching.WithObserver(s.observe))
	return s
}

// observe forwards switcher states to the stream of the current solve.
func (s *SolveService) observe(ctx context.Context, state switching.SwitchState) {
	if sink := eventSinkFrom(ctx); sink != nil {
		sink(NewStateEvent(state))
	}
}

// Validate checks a solve request.
func (s *SolveService) Validate(req models.SolveRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// Solve runs the pipeline on one problem. Only request validation fails;
// every solve outcome is reported inside the Solution.
func (s *SolveService) Solve(ctx context.Context, req models.SolveRequest) (*models.SolveResponse, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := s.logger.FromContext(ctx, map[string]interface{}{
		"solve_id":   id,
		"problem_id": req.ProblemID,
	})
	log.Debug("solving problem", map[string]interface{}{"problem": req.Problem, "forced_strategy": string(req.Strategy)})

	start := time.Now()
	sol := s.switcher.SolveWith(ctx, req.Problem, req.Strategy)
	elapsed := time.Since(start)
	sol = sol.WithRun(id, elapsed)

	feedback := s.monitor.MonitorSolution(sol)

	if s.exporter != nil {
		s.exporter.ObserveSolve(sol, elapsed)
	}
	if s.collector != nil {
		s.collector.RecordSolve(sol, elapsed)
	}

	fields := map[string]interface{}{
		"strategy":    sol.Strategy.String(),
		"initial":     sol.InitialStrategy.String(),
		"confidence":  sol.Confidence,
		"steps":       sol.Trace.Len(),
		"tokens_used": sol.TokensUsed,
		"duration_ms": elapsed.Milliseconds(),
		"quality":     string(feedback.QualityAssessment),
	}
	if sol.Complexity != nil {
		fields["complexity_level"] = string(sol.Complexity.Level)
		fields["complexity_score"] = sol.Complexity.Score
	}
	if sol.StrategySwitch != nil {
		fields["escalation_reason"] = sol.StrategySwitch.Reason
	}
	if sol.HasError() {
		log.Warn("problem solved with error", fields, map[string]interface{}{"solve_error": sol.ErrorText()})
	} else {
		log.Info("problem solved", fields)
	}

	return &models.SolveResponse{Solution: sol, Feedback: feedback}, nil
}

// SolveStream runs Solve asynchronously and streams the switcher states
// followed by the result. The channel is closed after the done event.
func (s *SolveService) SolveStream(ctx context.Context, req models.SolveRequest) (<-chan *StreamEvent, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	eventChan := make(chan *StreamEvent, 10)
	go func() {
		defer close(eventChan)

		send := func(e *StreamEvent) { s.sendEvent(ctx, eventChan, e) }
		resp, err := s.Solve(withEventSink(ctx, send), req)
		if err != nil {
			send(NewErrorEvent(err.Error()))
			return
		}
		send(NewSolutionEvent(resp))
		send(NewDoneEvent())
	}()

	return eventChan, nil
}

// sendEvent sends an event to the channel, checking for context cancellation.
func (s *SolveService) sendEvent(ctx context.Context, eventChan chan<- *StreamEvent, event *StreamEvent) {
	select {
	case eventChan <- event:
	case <-ctx.Done():
	}
}

// Analyze reports the complexity analysis, the recommended strategy and its
// allocation without solving.
func (s *SolveService) Analyze(ctx context.Context, req models.SolveRequest) (*models.AnalyzeResponse, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	analyzer := s.switcher.Analyzer()
	analysis := analyzer.Analyze(req.Problem)
	strategy := req.Strategy
	if strategy == "" {
		strategy = analyzer.RecommendedStrategy(analysis.Level)
	}
	allocation := s.switcher.Allocator().AllocateFor(analysis, strategy)

	if s.exporter != nil {
		s.exporter.ObserveAnalysis(analysis)
	}
	s.logger.FromContext(ctx, map[string]interface{}{"problem_id": req.ProblemID}).Debug("problem analyzed", map[string]interface{}{
		"complexity_level": string(analysis.Level),
		"complexity_score": analysis.Score,
		"strategy":         strategy.String(),
	})

	return &models.AnalyzeResponse{
		Analysis:            analysis,
		RecommendedStrategy: strategy,
		Allocation:          allocation,
	}, nil
}

// MonitorStep assesses a single reasoning step.
func (s *SolveService) MonitorStep(step models.StepInfo) (models.MonitorFeedback, error) {
	if _, err := models.ParseStrategy(step.Strategy.String()); err != nil {
		return models.MonitorFeedback{}, err
	}
	step.Confidence = models.Clamp01(step.Confidence)
	return s.monitor.MonitorStep(step), nil
}

// Stats returns the aggregated solve statistics, or false when no
// collector is configured.
func (s *SolveService) Stats() (metrics.Summary, bool) {
	if s.collector == nil {
		return metrics.Summary{}, false
	}
	return s.collector.Snapshot(), true
}
