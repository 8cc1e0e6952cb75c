package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mshogin/fastslow/internal/domain/models"
)

const namespace = "fastslow"

// Solve outcomes.
const (
	OutcomeAnswered   = "answered"
	OutcomeUnanswered = "unanswered"
	OutcomeError      = "error"
)

// Exporter owns the Prometheus registry of the pipeline.
//
// Design Principles:
// - One registry per process, injected so tests stay isolated
// - Labels limited to closed sets (strategy, level, mode, outcome)
// - Recording never fails and never blocks a solve
type Exporter struct {
	registry *prometheus.Registry

	solves          *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	confidence      *prometheus.HistogramVec
	steps           *prometheus.HistogramVec
	escalations     *prometheus.CounterVec
	complexityLevel *prometheus.CounterVec
	complexityScore prometheus.Histogram
	oracleCalls     *prometheus.CounterVec
	oracleDuration  *prometheus.HistogramVec
	evalAccuracy    prometheus.Gauge
	evalProblems    prometheus.Counter
}

// NewExporter registers the pipeline metrics on reg. A nil reg gets a fresh
// registry carrying the Go and process collectors.
func NewExporter(reg *prometheus.Registry) *Exporter {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)

	return &Exporter{
		registry: reg,
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Solve calls by final strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		solveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a solve call.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"strategy"}),
		confidence: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solution_confidence",
			Help:      "Confidence of returned solutions.",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 0.8, 0.9, 0.95, 1},
		}, []string{"strategy"}),
		steps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solution_steps",
			Help:      "Trace length of returned solutions.",
			Buckets:   prometheus.LinearBuckets(1, 2, 8),
		}, []string{"strategy"}),
		escalations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Escalations from one strategy to another.",
		}, []string{"from", "to"}),
		complexityLevel: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "complexity_level_total",
			Help:      "Analyzed problems by complexity level.",
		}, []string{"level"}),
		complexityScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "complexity_score",
			Help:      "Complexity scores of analyzed problems.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		oracleCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Oracle consultations by oracle, mode and outcome.",
		}, []string{"oracle", "mode", "outcome"}),
		oracleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_duration_seconds",
			Help:      "Latency of oracle consultations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		evalAccuracy: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_accuracy",
			Help:      "Accuracy of the most recent evaluation run.",
		}),
		evalProblems: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_problems_total",
			Help:      "Problems processed by evaluation runs.",
		}),
	}
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

// ObserveSolve records a finished solve.
func (e *Exporter) ObserveSolve(sol *models.Solution, d time.Duration) {
	if sol == nil {
		return
	}
	strategy := sol.Strategy.String()

	e.solves.WithLabelValues(strategy, SolveOutcome(sol)).Inc()
	e.solveDuration.WithLabelValues(strategy).Observe(d.Seconds())
	e.confidence.WithLabelValues(strategy).Observe(sol.Confidence)
	e.steps.WithLabelValues(strategy).Observe(float64(sol.Trace.Len()))

	if sw := sol.StrategySwitch; sw != nil {
		e.escalations.WithLabelValues(sw.From.String(), sw.To.String()).Inc()
	}
	if sol.Complexity != nil {
		e.ObserveAnalysis(*sol.Complexity)
	}
}

// ObserveAnalysis records a complexity analysis.
func (e *Exporter) ObserveAnalysis(a models.ComplexityAnalysis) {
	e.complexityLevel.WithLabelValues(string(a.Level)).Inc()
	e.complexityScore.Observe(a.Score)
}

// ObserveOracle records one oracle consultation.
func (e *Exporter) ObserveOracle(oracle string, mode models.ThinkingMode, outcome string, d time.Duration) {
	e.oracleCalls.WithLabelValues(oracle, string(mode), outcome).Inc()
	e.oracleDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
}

// ObserveEvaluation records a finished evaluation run.
func (e *Exporter) ObserveEvaluation(problems int, accuracy float64) {
	e.evalProblems.Add(float64(problems))
	e.evalAccuracy.Set(accuracy)
}

// SolveOutcome classifies a solution for the solves counter.
func SolveOutcome(sol *models.Solution) string {
	switch {
	case sol.HasError() && !sol.HasAnswer():
		return OutcomeError
	case sol.HasAnswer():
		return OutcomeAnswered
	default:
		return OutcomeUnanswered
	}
}
