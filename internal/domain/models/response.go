package models

// OracleResponse is the structured answer of the language model oracle.
// A nil Answer means the oracle produced nothing usable.
type OracleResponse struct {
	Answer       *string  `json:"answer"`
	Confidence   float64  `json:"confidence"`
	Steps        []string `json:"steps"`
	Explanation  string   `json:"explanation,omitempty"`
	Verification string   `json:"verification,omitempty"`
}

// Accepted reports whether the response clears the given confidence bar.
// The comparison is strict.
func (r OracleResponse) Accepted(threshold float64) bool {
	return r.Answer != nil && r.Confidence > threshold
}

// EmptyOracleResponse is the degraded response used on any oracle failure.
func EmptyOracleResponse() OracleResponse {
	return OracleResponse{Answer: nil, Confidence: 0}
}

// SolveResponse is returned by the solve endpoint and CLI.
type SolveResponse struct {
	Solution *Solution        `json:"solution"`
	Feedback SolutionFeedback `json:"monitoring_feedback"`
}

// AnalyzeResponse is returned by the analyze endpoint.
type AnalyzeResponse struct {
	Analysis            ComplexityAnalysis `json:"analysis"`
	RecommendedStrategy Strategy           `json:"recommended_strategy"`
	Allocation          ResourceAllocation `json:"resource_allocation"`
}
