package models

// ResourceAllocation is the budget assigned to a solve attempt.
type ResourceAllocation struct {
	TokenBudget        int             `json:"token_budget"`
	MaxSteps           int             `json:"max_steps"`
	VerificationEffort float64         `json:"verification_effort"`
	ComplexityLevel    ComplexityLevel `json:"complexity_level"`
	ComplexityScore    float64         `json:"complexity_score"`
}

// ResourceUsage is the resource snapshot reported with a Solution.
type ResourceUsage struct {
	StepsUsed          int     `json:"steps_used"`
	MaxSteps           int     `json:"max_steps"`
	TokensUsed         int     `json:"tokens_used"`
	TokenBudget        int     `json:"token_budget"`
	VerificationEffort float64 `json:"verification_effort"`
}

// StrategyLimits are the configured per-strategy defaults.
type StrategyLimits struct {
	MaxSteps           int     `json:"max_steps" yaml:"max_steps"`
	TokenBudget        int     `json:"token_budget" yaml:"token_budget"`
	VerificationEffort float64 `json:"verification_effort" yaml:"verification_effort"`
}

// Usage builds a ResourceUsage from the limits and the consumed amounts.
func (l StrategyLimits) Usage(stepsUsed, tokensUsed int) ResourceUsage {
	return ResourceUsage{
		StepsUsed:          stepsUsed,
		MaxSteps:           l.MaxSteps,
		TokensUsed:         tokensUsed,
		TokenBudget:        l.TokenBudget,
		VerificationEffort: l.VerificationEffort,
	}
}
