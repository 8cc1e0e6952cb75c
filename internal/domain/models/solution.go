package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SolutionTrace is an ordered, append-only list of human-readable steps.
// Insertion order is replayed verbatim to the caller.
type SolutionTrace struct {
	steps []string
}

// NewSolutionTrace creates a trace seeded with the given steps.
func NewSolutionTrace(steps ...string) SolutionTrace {
	t := SolutionTrace{}
	t.Extend(steps...)
	return t
}

// Append adds one step.
func (t *SolutionTrace) Append(step string) {
	t.steps = append(t.steps, step)
}

// Appendf adds one formatted step.
func (t *SolutionTrace) Appendf(format string, args ...interface{}) {
	t.steps = append(t.steps, fmt.Sprintf(format, args...))
}

// Extend adds several steps in order.
func (t *SolutionTrace) Extend(steps ...string) {
	t.steps = append(t.steps, steps...)
}

// Len returns the number of steps.
func (t SolutionTrace) Len() int {
	return len(t.steps)
}

// Steps returns a copy of the steps.
func (t SolutionTrace) Steps() []string {
	out := make([]string, len(t.steps))
	copy(out, t.steps)
	return out
}

// Last returns the most recent step, or "" for an empty trace.
func (t SolutionTrace) Last() string {
	if len(t.steps) == 0 {
		return ""
	}
	return t.steps[len(t.steps)-1]
}

// WordCount returns the number of whitespace-separated words across all
// steps. It is the token accounting unit of the strategies.
func (t SolutionTrace) WordCount() int {
	n := 0
	for _, s := range t.steps {
		n += len(strings.Fields(s))
	}
	return n
}

// MarshalJSON encodes the trace as a JSON array of strings.
func (t SolutionTrace) MarshalJSON() ([]byte, error) {
	if t.steps == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.steps)
}

// UnmarshalJSON decodes a JSON array of strings.
func (t *SolutionTrace) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.steps)
}

// SwitchOutcome is the escalation decision value.
type SwitchOutcome string

const (
	DecisionContinue SwitchOutcome = "continue"
	DecisionSwitch   SwitchOutcome = "switch"
)

// SwitchDecision records the Combined Strategy's escalation evaluation.
type SwitchDecision struct {
	Decision SwitchOutcome `json:"decision"`
	Reason   string        `json:"reason"`
}

// StrategySwitch is the audit record attached when the Switcher escalates.
type StrategySwitch struct {
	From     Strategy  `json:"from_strategy"`
	To       Strategy  `json:"to_strategy"`
	Reason   string    `json:"reason"`
	Original *Solution `json:"original_solution"`
}

// Solution is the result of one solve call.
// It is produced by SolutionBuilder and not modified afterwards; the
// With* methods return annotated copies.
type Solution struct {
	ID              string              `json:"id,omitempty"`
	Answer          *string             `json:"answer"`
	Confidence      float64             `json:"confidence"`
	Trace           SolutionTrace       `json:"steps"`
	TokensUsed      int                 `json:"tokens_used"`
	Strategy        Strategy            `json:"strategy"`
	Error           *string             `json:"error"`
	Resources       ResourceUsage       `json:"resources"`
	SwitchDecision  *SwitchDecision     `json:"switch_decision,omitempty"`
	StrategySwitch  *StrategySwitch     `json:"strategy_switch,omitempty"`
	Complexity      *ComplexityAnalysis `json:"complexity_analysis,omitempty"`
	InitialStrategy Strategy            `json:"initial_strategy,omitempty"`
	Allocation      *ResourceAllocation `json:"resource_allocation,omitempty"`
	Duration        time.Duration       `json:"duration_ns,omitempty"`
}

// HasAnswer reports whether an answer was produced.
func (s *Solution) HasAnswer() bool {
	return s != nil && s.Answer != nil
}

// AnswerText returns the answer or "" when absent.
func (s *Solution) AnswerText() string {
	if s == nil || s.Answer == nil {
		return ""
	}
	return *s.Answer
}

// HasError reports whether the error field is populated.
func (s *Solution) HasError() bool {
	return s != nil && s.Error != nil
}

// ErrorText returns the error message or "" when absent.
func (s *Solution) ErrorText() string {
	if s == nil || s.Error == nil {
		return ""
	}
	return *s.Error
}

// WithAnalysis returns a copy annotated with the switcher metadata.
func (s Solution) WithAnalysis(analysis *ComplexityAnalysis, initial Strategy, allocation *ResourceAllocation) *Solution {
	s.Complexity = analysis
	s.InitialStrategy = initial
	s.Allocation = allocation
	return &s
}

// WithSwitch returns a copy carrying the switch audit record.
func (s Solution) WithSwitch(record *StrategySwitch) *Solution {
	s.StrategySwitch = record
	return &s
}

// WithRun returns a copy stamped with the solve ID and wall time.
func (s Solution) WithRun(id string, d time.Duration) *Solution {
	s.ID = id
	s.Duration = d
	return &s
}

// SolutionBuilder assembles a Solution.
type SolutionBuilder struct {
	s     Solution
	usage *ResourceUsage
}

// NewSolution starts a builder for the given strategy.
func NewSolution(strategy Strategy) *SolutionBuilder {
	return &SolutionBuilder{s: Solution{Strategy: strategy}}
}

// Answer sets the answer.
func (b *SolutionBuilder) Answer(answer string) *SolutionBuilder {
	a := answer
	b.s.Answer = &a
	return b
}

// MaybeAnswer sets the answer when non-nil.
func (b *SolutionBuilder) MaybeAnswer(answer *string) *SolutionBuilder {
	if answer != nil {
		return b.Answer(*answer)
	}
	b.s.Answer = nil
	return b
}

// Confidence sets the confidence, clamped to [0,1].
func (b *SolutionBuilder) Confidence(c float64) *SolutionBuilder {
	b.s.Confidence = Clamp01(c)
	return b
}

// Trace sets the trace.
func (b *SolutionBuilder) Trace(t SolutionTrace) *SolutionBuilder {
	b.s.Trace = NewSolutionTrace(t.steps...)
	return b
}

// TokensUsed sets the token count.
func (b *SolutionBuilder) TokensUsed(n int) *SolutionBuilder {
	b.s.TokensUsed = n
	return b
}

// Error sets the error message; a nil error clears it.
func (b *SolutionBuilder) Error(err error) *SolutionBuilder {
	if err == nil {
		b.s.Error = nil
		return b
	}
	msg := err.Error()
	b.s.Error = &msg
	return b
}

// ErrorText sets the error message; "" clears it.
func (b *SolutionBuilder) ErrorText(msg string) *SolutionBuilder {
	if msg == "" {
		b.s.Error = nil
		return b
	}
	m := msg
	b.s.Error = &m
	return b
}

// MaybeError copies an optional error message.
func (b *SolutionBuilder) MaybeError(msg *string) *SolutionBuilder {
	if msg == nil {
		b.s.Error = nil
		return b
	}
	return b.ErrorText(*msg)
}

// Limits reports resource usage against the configured strategy limits.
func (b *SolutionBuilder) Limits(l StrategyLimits) *SolutionBuilder {
	u := l.Usage(0, 0)
	b.usage = &u
	return b
}

// Usage reports resource usage with explicit limits.
func (b *SolutionBuilder) Usage(u ResourceUsage) *SolutionBuilder {
	b.usage = &u
	return b
}

// SwitchDecision attaches the escalation decision.
func (b *SolutionBuilder) SwitchDecision(d *SwitchDecision) *SolutionBuilder {
	b.s.SwitchDecision = d
	return b
}

// Build returns the Solution. Resource usage always reports the trace
// length as steps used and the builder's token count.
func (b *SolutionBuilder) Build() *Solution {
	s := b.s
	if b.usage != nil {
		s.Resources = *b.usage
	}
	s.Resources.StepsUsed = s.Trace.Len()
	s.Resources.TokensUsed = s.TokensUsed
	return &s
}

// NewDefaultSolution is the canonical placeholder Solution: no answer, the
// given confidence and error, and a trace explaining why.
func NewDefaultSolution(strategy Strategy, limits StrategyLimits, confidence float64, errMsg string, steps ...string) *Solution {
	trace := NewSolutionTrace(steps...)
	return NewSolution(strategy).
		Confidence(confidence).
		Trace(trace).
		TokensUsed(trace.WordCount()).
		ErrorText(errMsg).
		Limits(limits).
		Build()
}
