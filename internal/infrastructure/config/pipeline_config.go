package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// PipelineYAMLConfig represents a standalone pipeline policy file.
type PipelineYAMLConfig struct {
	Pipeline PipelineSection `yaml:"pipeline"`
}

// PipelineSection defines the pipeline policy. Every field is optional and
// overrides the stock value when present.
type PipelineSection struct {
	Complexity ComplexitySection `yaml:"complexity"`
	Strategies StrategiesSection `yaml:"strategies"`
	Switching  SwitchingSection  `yaml:"switching"`
	Allocator  AllocatorSection  `yaml:"allocator"`
	OracleGate OracleGateSection `yaml:"oracle_gate"`
}

// ComplexitySection configures the analyzer thresholds and weight tables.
type ComplexitySection struct {
	SimpleThreshold  *float64           `yaml:"simple_threshold,omitempty"`
	MediumThreshold  *float64           `yaml:"medium_threshold,omitempty"`
	FeatureWeights   map[string]float64 `yaml:"feature_weights,omitempty"`
	DomainWeights    map[string]float64 `yaml:"domain_weights,omitempty"`
	OperationWeights map[string]float64 `yaml:"operation_weights,omitempty"`
}

// LimitsSection configures one strategy's defaults.
type LimitsSection struct {
	MaxSteps           *int     `yaml:"max_steps,omitempty"`
	TokenBudget        *int     `yaml:"token_budget,omitempty"`
	VerificationEffort *float64 `yaml:"verification_effort,omitempty"`
}

// CombinedSection configures the FAST_THEN_SLOW escalation triggers.
type CombinedSection struct {
	ConfidenceThreshold *float64 `yaml:"confidence_threshold,omitempty"`
	MaxFastSteps        *int     `yaml:"max_fast_steps,omitempty"`
	TokenUsageRatio     *float64 `yaml:"token_usage_ratio,omitempty"`
}

// StrategiesSection groups the per-strategy settings.
type StrategiesSection struct {
	Fast         LimitsSection   `yaml:"fast,omitempty"`
	Slow         LimitsSection   `yaml:"slow,omitempty"`
	FastThenSlow CombinedSection `yaml:"fast_then_slow,omitempty"`
}

// SwitchingSection configures strategy selection and monitoring.
type SwitchingSection struct {
	StrategyMapping         map[string]string `yaml:"strategy_mapping,omitempty"`
	ConfidenceThreshold     *float64          `yaml:"confidence_threshold,omitempty"`
	ErrorDetectionThreshold *float64          `yaml:"error_detection_threshold,omitempty"`
}

// AllocatorSection configures the resource allocator.
type AllocatorSection struct {
	BaseTokenBudget *int `yaml:"base_token_budget,omitempty"`
}

// OracleGateSection configures oracle acceptance inside the strategies.
type OracleGateSection struct {
	Timeout              string   `yaml:"timeout,omitempty"`
	FastAcceptConfidence *float64 `yaml:"fast_accept_confidence,omitempty"`
	SlowAcceptConfidence *float64 `yaml:"slow_accept_confidence,omitempty"`
}

// LoadPipelineConfig loads pipeline policy from a YAML file.
func LoadPipelineConfig(path string) (models.PipelineConfig, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return models.PipelineConfig{}, fmt.Errorf("failed to read pipeline config: %w", err)
	}

	// Parse YAML
	var yamlConfig PipelineYAMLConfig
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &yamlConfig); err != nil {
		return models.PipelineConfig{}, fmt.Errorf("failed to parse pipeline config: %w", err)
	}

	// Convert to PipelineConfig
	config, err := convertToPipelineConfig(&yamlConfig.Pipeline)
	if err != nil {
		return models.PipelineConfig{}, fmt.Errorf("failed to convert pipeline config: %w", err)
	}

	// Validate
	if err := validatePipelineConfig(config); err != nil {
		return models.PipelineConfig{}, err
	}

	return config, nil
}

// convertToPipelineConfig applies the section's overrides to the stock
// policy.
func convertToPipelineConfig(s *PipelineSection) (models.PipelineConfig, error) {
	cfg := models.DefaultPipelineConfig()

	setFloat(&cfg.Complexity.SimpleThreshold, s.Complexity.SimpleThreshold)
	setFloat(&cfg.Complexity.MediumThreshold, s.Complexity.MediumThreshold)
	for name, w := range s.Complexity.FeatureWeights {
		feature, err := parseFeature(name)
		if err != nil {
			return cfg, err
		}
		cfg.Complexity.FeatureWeights[feature] = w
	}
	for name, w := range s.Complexity.DomainWeights {
		cfg.Complexity.DomainWeights[name] = w
	}
	for name, w := range s.Complexity.OperationWeights {
		cfg.Complexity.OperationWeights[name] = w
	}

	applyLimits(&cfg.Strategies.Fast, s.Strategies.Fast)
	applyLimits(&cfg.Strategies.Slow, s.Strategies.Slow)
	setFloat(&cfg.Strategies.FastThenSlow.ConfidenceThreshold, s.Strategies.FastThenSlow.ConfidenceThreshold)
	setInt(&cfg.Strategies.FastThenSlow.MaxFastSteps, s.Strategies.FastThenSlow.MaxFastSteps)
	setFloat(&cfg.Strategies.FastThenSlow.TokenUsageRatio, s.Strategies.FastThenSlow.TokenUsageRatio)

	for levelName, strategyName := range s.Switching.StrategyMapping {
		level, err := models.ParseComplexityLevel(levelName)
		if err != nil {
			return cfg, err
		}
		strategy, err := models.ParseStrategy(strategyName)
		if err != nil {
			return cfg, fmt.Errorf("strategy for %s: %w", level, err)
		}
		cfg.Switching.StrategyMapping[level] = strategy
	}
	setFloat(&cfg.Switching.ConfidenceThreshold, s.Switching.ConfidenceThreshold)
	setFloat(&cfg.Switching.ErrorDetectionThreshold, s.Switching.ErrorDetectionThreshold)

	setInt(&cfg.Allocator.BaseTokenBudget, s.Allocator.BaseTokenBudget)

	if s.OracleGate.Timeout != "" {
		timeout, err := parseTimeout(s.OracleGate.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid oracle gate timeout: %w", err)
		}
		cfg.Oracle.Timeout = timeout
	}
	setFloat(&cfg.Oracle.FastAcceptConfidence, s.OracleGate.FastAcceptConfidence)
	setFloat(&cfg.Oracle.SlowAcceptConfidence, s.OracleGate.SlowAcceptConfidence)

	return cfg, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func applyLimits(dst *models.StrategyLimits, s LimitsSection) {
	setInt(&dst.MaxSteps, s.MaxSteps)
	setInt(&dst.TokenBudget, s.TokenBudget)
	setFloat(&dst.VerificationEffort, s.VerificationEffort)
}

// parseFeature parses a feature weight key.
func parseFeature(name string) (models.Feature, error) {
	for _, f := range models.AllFeatures {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature: %s (valid: %v)", name, models.AllFeatures)
}

// parseTimeout parses a timeout string (e.g., "5s", "30s", "1m").
func parseTimeout(timeoutStr string) (time.Duration, error) {
	duration, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout format: %s (examples: 5s, 30s, 1m)", timeoutStr)
	}

	if duration <= 0 {
		return 0, fmt.Errorf("timeout must be positive: %s", timeoutStr)
	}

	return duration, nil
}

// validatePipelineConfig runs the struct tag rules and the cross-field
// rules of the policy.
func validatePipelineConfig(config models.PipelineConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}
	return nil
}

// SavePipelineConfig saves pipeline policy to a YAML file.
func SavePipelineConfig(config models.PipelineConfig, path string) error {
	data, err := MarshalPipelineConfig(config)
	if err != nil {
		return err
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pipeline config: %w", err)
	}

	return nil
}

// MarshalPipelineConfig renders pipeline policy as a complete YAML file.
func MarshalPipelineConfig(config models.PipelineConfig) ([]byte, error) {
	data, err := yaml.Marshal(convertFromPipelineConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline config: %w", err)
	}
	return data, nil
}

// convertFromPipelineConfig converts PipelineConfig to YAML config with
// every field set.
func convertFromPipelineConfig(config models.PipelineConfig) *PipelineYAMLConfig {
	features := make(map[string]float64, len(config.Complexity.FeatureWeights))
	for f, w := range config.Complexity.FeatureWeights {
		features[string(f)] = w
	}
	mapping := make(map[string]string, len(config.Switching.StrategyMapping))
	for level, strategy := range config.Switching.StrategyMapping {
		mapping[string(level)] = strategy.String()
	}

	c := config.Clone()
	limits := func(l models.StrategyLimits) LimitsSection {
		return LimitsSection{MaxSteps: &l.MaxSteps, TokenBudget: &l.TokenBudget, VerificationEffort: &l.VerificationEffort}
	}
	combined := c.Strategies.FastThenSlow

	return &PipelineYAMLConfig{
		Pipeline: PipelineSection{
			Complexity: ComplexitySection{
				SimpleThreshold:  &c.Complexity.SimpleThreshold,
				MediumThreshold:  &c.Complexity.MediumThreshold,
				FeatureWeights:   features,
				DomainWeights:    c.Complexity.DomainWeights,
				OperationWeights: c.Complexity.OperationWeights,
			},
			Strategies: StrategiesSection{
				Fast: limits(c.Strategies.Fast),
				Slow: limits(c.Strategies.Slow),
				FastThenSlow: CombinedSection{
					ConfidenceThreshold: &combined.ConfidenceThreshold,
					MaxFastSteps:        &combined.MaxFastSteps,
					TokenUsageRatio:     &combined.TokenUsageRatio,
				},
			},
			Switching: SwitchingSection{
				StrategyMapping:         mapping,
				ConfidenceThreshold:     &c.Switching.ConfidenceThreshold,
				ErrorDetectionThreshold: &c.Switching.ErrorDetectionThreshold,
			},
			Allocator: AllocatorSection{BaseTokenBudget: &c.Allocator.BaseTokenBudget},
			OracleGate: OracleGateSection{
				Timeout:              c.Oracle.Timeout.String(),
				FastAcceptConfidence: &c.Oracle.FastAcceptConfidence,
				SlowAcceptConfidence: &c.Oracle.SlowAcceptConfidence,
			},
		},
	}
}
