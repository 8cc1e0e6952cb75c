package models

import (
	"fmt"
	"time"
)

// ComplexityConfig configures the feature extractor and the analyzer.
type ComplexityConfig struct {
	SimpleThreshold  float64             `yaml:"simple_threshold" validate:"gt=0,lt=1"`
	MediumThreshold  float64             `yaml:"medium_threshold" validate:"gt=0,lt=1,gtfield=SimpleThreshold"`
	FeatureWeights   map[Feature]float64 `yaml:"feature_weights" validate:"required,dive,gte=0"`
	DomainWeights    map[string]float64  `yaml:"domain_weights" validate:"required,dive,gte=0,lte=1"`
	OperationWeights map[string]float64  `yaml:"operation_weights" validate:"required,dive,gte=0,lte=1"`
}

// CombinedConfig configures the escalation triggers of FAST_THEN_SLOW.
type CombinedConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" validate:"gte=0,lte=1"`
	MaxFastSteps        int     `yaml:"max_fast_steps" validate:"gt=0"`
	TokenUsageRatio     float64 `yaml:"token_usage_ratio" validate:"gt=0,lte=1"`
}

// StrategiesConfig holds the per-strategy defaults.
type StrategiesConfig struct {
	Fast         StrategyLimits `yaml:"fast"`
	Slow         StrategyLimits `yaml:"slow"`
	FastThenSlow CombinedConfig `yaml:"fast_then_slow"`
}

// SwitchingConfig configures strategy selection and monitoring.
type SwitchingConfig struct {
	StrategyMapping         map[ComplexityLevel]Strategy `yaml:"strategy_mapping"`
	ConfidenceThreshold     float64                      `yaml:"confidence_threshold" validate:"gte=0,lte=1"`
	ErrorDetectionThreshold float64                      `yaml:"error_detection_threshold" validate:"gte=0,lte=1"`
}

// AllocatorConfig configures the resource allocator.
type AllocatorConfig struct {
	BaseTokenBudget int `yaml:"base_token_budget" validate:"gt=0"`
}

// OracleGateConfig bounds and gates oracle consultations inside strategies.
type OracleGateConfig struct {
	Timeout              time.Duration `yaml:"timeout" validate:"gt=0"`
	FastAcceptConfidence float64       `yaml:"fast_accept_confidence" validate:"gte=0,lte=1"`
	SlowAcceptConfidence float64       `yaml:"slow_accept_confidence" validate:"gte=0,lte=1"`
}

// PipelineConfig is the immutable configuration injected into every
// pipeline component at construction.
type PipelineConfig struct {
	Complexity ComplexityConfig `yaml:"complexity"`
	Strategies StrategiesConfig `yaml:"strategies"`
	Switching  SwitchingConfig  `yaml:"switching"`
	Allocator  AllocatorConfig  `yaml:"allocator"`
	Oracle     OracleGateConfig `yaml:"oracle_gate"`
}

// DefaultPipelineConfig returns the stock policy values.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Complexity: ComplexityConfig{
			SimpleThreshold: 0.3,
			MediumThreshold: 0.6,
			FeatureWeights: map[Feature]float64{
				FeatureLength:            0.15,
				FeatureSentenceStructure: 0.1,
				FeatureVariables:         0.2,
				FeatureKeywords:          0.15,
				FeatureDomain:            0.15,
				FeatureOperations:        0.25,
			},
			DomainWeights: map[string]float64{
				"arithmetic":    0.2,
				"algebra":       0.4,
				"geometry":      0.5,
				"calculus":      0.7,
				"statistics":    0.6,
				"number_theory": 0.8,
				"combinatorics": 0.7,
			},
			OperationWeights: map[string]float64{
				"addition":       0.1,
				"subtraction":    0.1,
				"multiplication": 0.2,
				"division":       0.3,
				"exponentiation": 0.4,
				"root":           0.5,
				"logarithm":      0.6,
				"trigonometric":  0.6,
				"derivative":     0.7,
				"integral":       0.8,
				"limit":          0.7,
				"summation":      0.6,
				"product":        0.6,
			},
		},
		Strategies: StrategiesConfig{
			Fast: StrategyLimits{MaxSteps: 3, TokenBudget: 100, VerificationEffort: 0.2},
			Slow: StrategyLimits{MaxSteps: 10, TokenBudget: 500, VerificationEffort: 0.8},
			FastThenSlow: CombinedConfig{
				ConfidenceThreshold: 0.7,
				MaxFastSteps:        2,
				TokenUsageRatio:     0.9,
			},
		},
		Switching: SwitchingConfig{
			StrategyMapping: map[ComplexityLevel]Strategy{
				ComplexitySimple:  StrategyFast,
				ComplexityMedium:  StrategyFastThenSlow,
				ComplexityComplex: StrategySlow,
			},
			ConfidenceThreshold:     0.7,
			ErrorDetectionThreshold: 0.3,
		},
		Allocator: AllocatorConfig{BaseTokenBudget: 100},
		Oracle: OracleGateConfig{
			Timeout:              30 * time.Second,
			FastAcceptConfidence: 0.7,
			SlowAcceptConfidence: 0.8,
		},
	}
}

// Validate checks the cross-field rules that struct tags cannot express.
func (c PipelineConfig) Validate() error {
	if c.Complexity.SimpleThreshold >= c.Complexity.MediumThreshold {
		return fmt.Errorf("%w: simple threshold %.2f must be below medium threshold %.2f",
			ErrInvalidThreshold, c.Complexity.SimpleThreshold, c.Complexity.MediumThreshold)
	}
	for level, strategy := range c.Switching.StrategyMapping {
		if _, err := ParseComplexityLevel(string(level)); err != nil {
			return err
		}
		if !strategy.Executable() {
			return fmt.Errorf("%w: %s mapped to non-executable strategy %s", ErrUnknownStrategy, level, strategy)
		}
	}
	for _, f := range AllFeatures {
		if _, ok := c.Complexity.FeatureWeights[f]; !ok {
			return fmt.Errorf("missing feature weight %q", f)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can derive variants without sharing
// maps with the original.
func (c PipelineConfig) Clone() PipelineConfig {
	out := c
	out.Complexity.FeatureWeights = make(map[Feature]float64, len(c.Complexity.FeatureWeights))
	for k, v := range c.Complexity.FeatureWeights {
		out.Complexity.FeatureWeights[k] = v
	}
	out.Complexity.DomainWeights = make(map[string]float64, len(c.Complexity.DomainWeights))
	for k, v := range c.Complexity.DomainWeights {
		out.Complexity.DomainWeights[k] = v
	}
	out.Complexity.OperationWeights = make(map[string]float64, len(c.Complexity.OperationWeights))
	for k, v := range c.Complexity.OperationWeights {
		out.Complexity.OperationWeights[k] = v
	}
	out.Switching.StrategyMapping = make(map[ComplexityLevel]Strategy, len(c.Switching.StrategyMapping))
	for k, v := range c.Switching.StrategyMapping {
		out.Switching.StrategyMapping[k] = v
	}
	return out
}
