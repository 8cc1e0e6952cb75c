package models

import (
	"fmt"
	"strings"
)

// Strategy identifies the reasoning approach used to solve a problem.
type Strategy string

const (
	// StrategyFast is the low-cost strategy: oracle first, then a
	// deterministic symbolic dispatch.
	StrategyFast Strategy = "FAST"

	// StrategySlow is the high-cost multi-phase strategy
	// (analyze → plan → execute → verify → refine).
	StrategySlow Strategy = "SLOW"

	// StrategyFastThenSlow runs Fast first and escalates to Slow when the
	// fast result fails acceptance.
	StrategyFastThenSlow Strategy = "FAST_THEN_SLOW"

	// StrategyParallel is reserved by configuration and dataset tooling.
	// It has no executor.
	StrategyParallel Strategy = "PARALLEL"

	// StrategyIterative is reserved by configuration and dataset tooling.
	// It has no executor.
	StrategyIterative Strategy = "ITERATIVE"
)

// String returns the strategy tag.
func (s Strategy) String() string {
	return string(s)
}

// Executable reports whether the pipeline has an executor for the strategy.
func (s Strategy) Executable() bool {
	switch s {
	case StrategyFast, StrategySlow, StrategyFastThenSlow:
		return true
	default:
		return false
	}
}

// ParseStrategy parses a strategy tag (case-insensitive). Reserved tags
// parse successfully but are not Executable.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyFast:
		return StrategyFast, nil
	case StrategySlow:
		return StrategySlow, nil
	case StrategyFastThenSlow:
		return StrategyFastThenSlow, nil
	case StrategyParallel:
		return StrategyParallel, nil
	case StrategyIterative:
		return StrategyIterative, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// ThinkingMode selects the oracle prompt style.
type ThinkingMode string

const (
	ThinkingModeFast ThinkingMode = "fast"
	ThinkingModeSlow ThinkingMode = "slow"
)
