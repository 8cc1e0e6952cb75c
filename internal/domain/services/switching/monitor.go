package switching

import (
	"fmt"
	"strings"

	"github.com/mshogin/fastslow/internal/domain/models"
)

var (
	uncertaintyMarkers = []string{"maybe", "perhaps", "possibly", "not sure", "uncertain", "might be"}
	errorMarkers       = []string{"error", "mistake", "incorrect", "wrong", "invalid", "failed"}
)

// Confidence band edges above the configured thresholds.
const (
	moderateCeiling = 0.8
	highCeiling     = 0.95
	borderlineSlack = 0.1
)

// Monitor inspects reasoning steps and finished solutions after the fact.
// Its feedback is advisory and never changes strategy selection.
type Monitor struct {
	confidenceThreshold float64
	errorThreshold      float64
}

// NewMonitor creates a monitor from the switching configuration.
func NewMonitor(cfg models.SwitchingConfig) *Monitor {
	return &Monitor{
		confidenceThreshold: cfg.ConfidenceThreshold,
		errorThreshold:      cfg.ErrorDetectionThreshold,
	}
}

// MonitorStep reviews a single reasoning step.
func (m *Monitor) MonitorStep(step models.StepInfo) models.MonitorFeedback {
	issues := m.detectIssues(step.Content, step.Confidence)
	future := m.futureAdjustment(issues, step.Confidence, step.Strategy)
	return models.MonitorFeedback{
		Issues:               issues,
		AdjustmentNeeded:     m.needsAdjustment(issues, step.Confidence, step.Strategy),
		ConfidenceAssessment: m.Band(step.Confidence),
		Recommendations:      m.stepRecommendations(issues, step.Confidence, step.Strategy),
		FutureAdjustment:     &future,
	}
}

// MonitorSolution reviews every step of a solution at full confidence,
// then the solution's own error and confidence.
func (m *Monitor) MonitorSolution(sol *models.Solution) models.SolutionFeedback {
	issues := []string{}
	for _, step := range sol.Trace.Steps() {
		issues = append(issues, m.detectIssues(step, 1.0)...)
	}
	if sol.HasError() {
		issues = append(issues, fmt.Sprintf("Error in solution: %s", sol.ErrorText()))
	}

	future := m.futureAdjustment(issues, sol.Confidence, sol.Strategy)
	return models.SolutionFeedback{
		Issues:            issues,
		OverallConfidence: sol.Confidence,
		FutureAdjustment:  &future,
		QualityAssessment: quality(sol.Confidence, len(issues)),
		Recommendations:   m.overallRecommendations(issues, sol.Confidence, sol.Strategy),
	}
}

func (m *Monitor) detectIssues(content string, confidence float64) []string {
	issues := []string{}
	lower := strings.ToLower(content)
	for _, marker := range uncertaintyMarkers {
		if strings.Contains(lower, marker) {
			issues = append(issues, fmt.Sprintf("Uncertainty detected: '%s'", marker))
		}
	}
	for _, marker := range errorMarkers {
		if strings.Contains(lower, marker) {
			issues = append(issues, fmt.Sprintf("Potential error detected: '%s'", marker))
		}
	}
	if confidence < m.errorThreshold {
		issues = append(issues, fmt.Sprintf("Very low confidence: %.2f", confidence))
	}
	return issues
}

func (m *Monitor) needsAdjustment(issues []string, confidence float64, strategy models.Strategy) bool {
	return len(issues) > 0 ||
		confidence < m.confidenceThreshold ||
		(strategy == models.StrategyFast && confidence < m.confidenceThreshold+borderlineSlack)
}

// Band maps a confidence to its qualitative band.
func (m *Monitor) Band(confidence float64) models.ConfidenceBand {
	switch {
	case confidence < m.errorThreshold:
		return models.ConfidenceVeryLow
	case confidence < m.confidenceThreshold:
		return models.ConfidenceLow
	case confidence < moderateCeiling:
		return models.ConfidenceModerate
	case confidence < highCeiling:
		return models.ConfidenceHigh
	default:
		return models.ConfidenceVeryHigh
	}
}

func (m *Monitor) stepRecommendations(issues []string, confidence float64, strategy models.Strategy) []string {
	var out []string
	if len(issues) > 0 {
		switch strategy {
		case models.StrategyFast:
			out = append(out, "Consider switching to a more thorough strategy")
		case models.StrategyFastThenSlow:
			out = append(out, "Proceed to Slow Thinking phase")
		default:
			out = append(out, "Increase verification effort")
		}
	}
	if confidence < m.confidenceThreshold {
		out = append(out, "Verify intermediate results", "Consider alternative approaches")
	}
	if len(out) == 0 {
		out = append(out, "Continue with current strategy")
	}
	return out
}

func (m *Monitor) futureAdjustment(issues []string, confidence float64, strategy models.Strategy) models.FutureAdjustment {
	if len(issues) == 0 && confidence > 0.9 {
		switch strategy {
		case models.StrategySlow:
			return models.FutureAdjustment{Adjust: true, Recommendation: models.StrategyFast,
				Reason: "High confidence solution achieved with Slow Thinking, suggesting simpler strategy may be sufficient"}
		case models.StrategyFastThenSlow:
			return models.FutureAdjustment{Adjust: true, Recommendation: models.StrategyFast,
				Reason: "High confidence solution achieved with Fast-then-Slow, but may be solvable with just Fast Thinking"}
		default:
			return models.FutureAdjustment{Recommendation: strategy, Reason: "Current strategy is appropriate"}
		}
	}

	if len(issues) > 3 || confidence < m.errorThreshold {
		switch strategy {
		case models.StrategyFast:
			return models.FutureAdjustment{Adjust: true, Recommendation: models.StrategySlow,
				Reason: "Multiple issues or very low confidence with Fast Thinking"}
		case models.StrategyFastThenSlow:
			return models.FutureAdjustment{Adjust: true, Recommendation: models.StrategySlow,
				Reason: "Multiple issues or very low confidence with Fast-then-Slow"}
		default:
			return models.FutureAdjustment{Recommendation: strategy, Reason: "Already using most thorough strategy"}
		}
	}

	return models.FutureAdjustment{Recommendation: strategy, Reason: "Current strategy appears appropriate"}
}

func quality(confidence float64, issues int) models.QualityAssessment {
	switch {
	case confidence > 0.9 && issues == 0:
		return models.QualityExcellent
	case confidence > 0.8 && issues <= 1:
		return models.QualityGood
	case confidence > 0.6 && issues <= 2:
		return models.QualitySatisfactory
	case confidence > 0.4:
		return models.QualityQuestionable
	default:
		return models.QualityPoor
	}
}

func (m *Monitor) overallRecommendations(issues []string, confidence float64, strategy models.Strategy) []string {
	var out []string
	if len(issues) > 2 {
		out = append(out, "Review solution for errors")
	}
	if confidence < m.confidenceThreshold {
		out = append(out, "Consider alternative solution approaches")
		switch strategy {
		case models.StrategyFast:
			out = append(out, "Try solving with Slow Thinking strategy")
		case models.StrategyFastThenSlow:
			out = append(out, "Try solving directly with Slow Thinking strategy")
		}
	}
	if len(out) == 0 {
		out = append(out, "Solution appears reliable")
	}
	return out
}
