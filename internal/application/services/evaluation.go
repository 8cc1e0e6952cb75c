package services

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/infrastructure/logging"
	"github.com/mshogin/fastslow/internal/infrastructure/metrics"
)

// EvaluationResult is the outcome of one problem of a batch.
type EvaluationResult struct {
	ProblemID       string          `json:"problem_id"`
	ProblemText     string          `json:"problem_text"`
	ComplexityLevel string          `json:"complexity_level"`
	ExpectedAnswer  string          `json:"expected_answer"`
	ActualAnswer    *string         `json:"actual_answer"`
	IsCorrect       bool            `json:"is_correct"`
	StrategyUsed    models.Strategy `json:"strategy_used"`
	Confidence      float64         `json:"confidence"`
	SolutionTime    float64         `json:"solution_time"`
}

// EvaluationMetrics aggregates a batch. Times are in seconds.
type EvaluationMetrics struct {
	TotalProblems    int            `json:"total_problems"`
	TotalTime        float64        `json:"total_time"`
	AvgTime          float64        `json:"avg_time"`
	MedianTime       float64        `json:"median_time"`
	P90Time          float64        `json:"p90_time"`
	StrategyCounts   map[string]int `json:"strategy_counts"`
	ComplexityCounts map[string]int `json:"complexity_counts"`
	AvgConfidence    float64        `json:"avg_confidence"`
	CorrectAnswers   int            `json:"correct_answers"`
	Accuracy         float64        `json:"accuracy"`
}

// EvaluationReport is the result of a batch run.
type EvaluationReport struct {
	Results []EvaluationResult `json:"results"`
	Metrics EvaluationMetrics  `json:"metrics"`
}

// EvaluationOptions bounds a batch run.
type EvaluationOptions struct {
	Workers    int
	PerProblem time.Duration
}

// Evaluator solves a problem feed concurrently and scores the answers.
type Evaluator struct {
	svc      *SolveService
	opts     EvaluationOptions
	logger   *logging.StructuredLogger
	exporter *metrics.Exporter
}

// NewEvaluator creates an evaluator over svc. A nil exporter disables
// evaluation metrics.
func NewEvaluator(svc *SolveService, opts EvaluationOptions, logger *logging.StructuredLogger, exporter *metrics.Exporter) *Evaluator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Evaluator{svc: svc, opts: opts, logger: logger, exporter: exporter}
}

// LoadProblems reads a problem feed: a JSON array of records, or an object
// holding the array under "problems". Numeric IDs and answers are accepted.
func LoadProblems(path string) ([]models.Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problems file: %w", err)
	}
	return ParseProblems(data)
}

// ParseProblems parses a problem feed.
func ParseProblems(data []byte) ([]models.Problem, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("failed to parse problems: invalid JSON")
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("problems")
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("failed to parse problems: expected an array of problems")
	}

	records := root.Array()
	problems := make([]models.Problem, 0, len(records))
	for i, r := range records {
		p := models.Problem{
			ID:              r.Get("id").String(),
			Text:            r.Get("problem").String(),
			ExpectedAnswer:  r.Get("answer").String(),
			ComplexityLevel: models.ComplexityLevel(r.Get("complexity_level").String()),
		}
		if p.ID == "" {
			p.ID = "unknown"
		}
		if strings.TrimSpace(p.Text) == "" {
			return nil, fmt.Errorf("problem %d (%s): %w", i, p.ID, models.ErrEmptyProblem)
		}
		problems = append(problems, p)
	}
	return problems, nil
}

// Run solves every problem with at most Workers in flight. Results keep the
// feed order. Only cancellation of ctx aborts the run.
func (e *Evaluator) Run(ctx context.Context, problems []models.Problem) (*EvaluationReport, error) {
	e.logger.Info("evaluation started", map[string]interface{}{
		"problems": len(problems),
		"workers":  e.opts.Workers,
	})

	results := make([]EvaluationResult, len(problems))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, p := range problems {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.evaluate(gctx, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation aborted: %w", err)
	}

	report := &EvaluationReport{Results: results, Metrics: ComputeMetrics(results)}
	if e.exporter != nil {
		e.exporter.ObserveEvaluation(report.Metrics.TotalProblems, report.Metrics.Accuracy)
	}
	e.logger.Info("evaluation complete", map[string]interface{}{
		"accuracy": report.Metrics.Accuracy,
		"avg_time": report.Metrics.AvgTime,
	})
	return report, nil
}

func (e *Evaluator) evaluate(ctx context.Context, p models.Problem) (EvaluationResult, error) {
	if e.opts.PerProblem > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.PerProblem)
		defer cancel()
	}

	resp, err := e.svc.Solve(ctx, models.SolveRequest{Problem: p.Text, ProblemID: p.ID})
	if err != nil {
		return EvaluationResult{}, fmt.Errorf("problem %s: %w", p.ID, err)
	}
	sol := resp.Solution

	level := string(p.ComplexityLevel)
	if level == "" {
		level = "unknown"
	}
	res := EvaluationResult{
		ProblemID:       p.ID,
		ProblemText:     p.Text,
		ComplexityLevel: level,
		ExpectedAnswer:  p.ExpectedAnswer,
		ActualAnswer:    sol.Answer,
		IsCorrect:       CheckAnswer(sol.Answer, p.ExpectedAnswer),
		StrategyUsed:    sol.Strategy,
		Confidence:      sol.Confidence,
		SolutionTime:    sol.Duration.Seconds(),
	}

	e.logger.Debug("problem evaluated", map[string]interface{}{
		"problem_id": p.ID,
		"solve_id":   sol.ID,
		"strategy":   sol.Strategy.String(),
		"correct":    res.IsCorrect,
	})
	return res, nil
}

// ComputeMetrics aggregates per-problem results. Complexity counts use the
// labels of the feed; unknown labels are not counted.
func ComputeMetrics(results []EvaluationResult) EvaluationMetrics {
	m := EvaluationMetrics{
		TotalProblems: len(results),
		StrategyCounts: map[string]int{
			models.StrategyFast.String():         0,
			models.StrategySlow.String():         0,
			models.StrategyFastThenSlow.String(): 0,
		},
		ComplexityCounts: map[string]int{
			string(models.ComplexitySimple):  0,
			string(models.ComplexityMedium):  0,
			string(models.ComplexityComplex): 0,
		},
	}
	if len(results) == 0 {
		return m
	}

	times := make(stats.Float64Data, 0, len(results))
	confidences := make(stats.Float64Data, 0, len(results))
	for _, r := range results {
		times = append(times, r.SolutionTime)
		confidences = append(confidences, r.Confidence)
		m.StrategyCounts[r.StrategyUsed.String()]++
		if _, ok := m.ComplexityCounts[r.ComplexityLevel]; ok {
			m.ComplexityCounts[r.ComplexityLevel]++
		}
		if r.IsCorrect {
			m.CorrectAnswers++
		}
	}

	m.TotalTime, _ = times.Sum()
	m.AvgTime, _ = times.Mean()
	m.MedianTime, _ = times.Median()
	m.P90Time, _ = times.Percentile(90)
	m.AvgConfidence, _ = confidences.Mean()
	m.Accuracy = float64(m.CorrectAnswers) / float64(len(results))
	return m
}

// CheckAnswer compares an answer with the expected one after lowercasing
// and removing spaces and '*'. Comma lists compare as sorted parts, two
// equations compare by their first right-hand side, and anything else
// compares numerically within 1e-6.
func CheckAnswer(actual *string, expected string) bool {
	if actual == nil {
		return false
	}

	a := normalizeAnswer(*actual)
	e := normalizeAnswer(expected)
	if a == e {
		return true
	}

	if strings.Contains(a, ",") && strings.Contains(e, ",") {
		ap, ep := strings.Split(a, ","), strings.Split(e, ",")
		sort.Strings(ap)
		sort.Strings(ep)
		return strings.Join(ap, ",") == strings.Join(ep, ",")
	}

	if strings.Contains(a, "=") && strings.Contains(e, "=") {
		return strings.Split(a, "=")[1] == strings.Split(e, "=")[1]
	}

	af, errA := strconv.ParseFloat(a, 64)
	ef, errE := strconv.ParseFloat(e, 64)
	if errA != nil || errE != nil {
		return false
	}
	return math.Abs(af-ef) < 1e-6
}

func normalizeAnswer(s string) string {
	return strings.NewReplacer(" ", "", "*", "").Replace(strings.ToLower(s))
}
