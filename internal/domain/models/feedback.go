package models

// ConfidenceBand is the qualitative reading of a confidence value.
type ConfidenceBand string

const (
	ConfidenceVeryLow  ConfidenceBand = "Very Low"
	ConfidenceLow      ConfidenceBand = "Low"
	ConfidenceModerate ConfidenceBand = "Moderate"
	ConfidenceHigh     ConfidenceBand = "High"
	ConfidenceVeryHigh ConfidenceBand = "Very High"
)

// QualityAssessment grades a finished solution.
type QualityAssessment string

const (
	QualityExcellent    QualityAssessment = "Excellent"
	QualityGood         QualityAssessment = "Good"
	QualitySatisfactory QualityAssessment = "Satisfactory"
	QualityQuestionable QualityAssessment = "Questionable"
	QualityPoor         QualityAssessment = "Poor"
)

// StepInfo is a single reasoning step submitted for monitoring.
type StepInfo struct {
	Content    string   `json:"content"`
	Confidence float64  `json:"confidence"`
	Strategy   Strategy `json:"strategy"`
}

// FutureAdjustment is advisory: it is never fed back into strategy
// selection.
type FutureAdjustment struct {
	Adjust         bool     `json:"adjust"`
	Recommendation Strategy `json:"recommendation"`
	Reason         string   `json:"reason"`
}

// MonitorFeedback is the result of monitoring one step.
type MonitorFeedback struct {
	Issues               []string          `json:"issues"`
	AdjustmentNeeded     bool              `json:"adjustment_needed"`
	ConfidenceAssessment ConfidenceBand    `json:"confidence_assessment"`
	Recommendations      []string          `json:"recommendations"`
	FutureAdjustment     *FutureAdjustment `json:"future_adjustment,omitempty"`
}

// SolutionFeedback is the result of monitoring a whole solution.
type SolutionFeedback struct {
	Issues            []string          `json:"issues"`
	OverallConfidence float64           `json:"overall_confidence"`
	FutureAdjustment  *FutureAdjustment `json:"future_adjustment"`
	QualityAssessment QualityAssessment `json:"quality_assessment"`
	Recommendations   []string          `json:"recommendations"`
}
