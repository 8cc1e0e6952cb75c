package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Pipeline   PipelineSection  `yaml:"pipeline"`

	// pipeline is the converted, immutable policy handed to the domain.
	pipeline models.PipelineConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port" validate:"gt=0,lte=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" validate:"gt=0"`
}

// OracleConfig contains the language model endpoint settings. An empty API
// key disables the oracle and the strategies run deterministically.
type OracleConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url" validate:"omitempty,url"`
	Model           string        `yaml:"model" validate:"required"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	RequestsPerSec  float64       `yaml:"requests_per_second" validate:"gt=0"`
	Burst           int           `yaml:"burst" validate:"gt=0"`
	FastTemperature float32       `yaml:"fast_temperature" validate:"gte=0,lte=2"`
	SlowTemperature float32       `yaml:"slow_temperature" validate:"gte=0,lte=2"`
	FastMaxTokens   int           `yaml:"fast_max_tokens" validate:"gt=0"`
	SlowMaxTokens   int           `yaml:"slow_max_tokens" validate:"gt=0"`
}

// Enabled reports whether an oracle client should be built.
func (o OracleConfig) Enabled() bool {
	return o.APIKey != ""
}

// EvaluationConfig contains batch evaluation settings.
type EvaluationConfig struct {
	ProblemsFile string        `yaml:"problems_file"`
	Workers      int           `yaml:"workers" validate:"gt=0,lte=64"`
	PerProblem   time.Duration `yaml:"per_problem_timeout" validate:"gt=0"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
	Output string `yaml:"output" validate:"oneof=stdout stderr"`
}

var validate = validator.New()

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration YAML, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.setDefaults()

	pipeline, err := convertToPipelineConfig(&cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to convert pipeline config: %w", err)
	}
	cfg.pipeline = pipeline

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{pipeline: models.DefaultPipelineConfig()}
	cfg.setDefaults()
	return cfg
}

// PipelineConfig returns a copy of the converted pipeline policy.
func (c *Config) PipelineConfig() models.PipelineConfig {
	return c.pipeline.Clone()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return validatePipelineConfig(c.pipeline)
}

// setDefaults sets default values for optional fields.
func (c *Config) setDefaults() {
	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8001
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	// Oracle defaults
	if c.Oracle.Model == "" {
		c.Oracle.Model = "gpt-4o-mini"
	}
	if c.Oracle.Timeout == 0 {
		c.Oracle.Timeout = 30 * time.Second
	}
	if c.Oracle.RequestsPerSec == 0 {
		c.Oracle.RequestsPerSec = 5
	}
	if c.Oracle.Burst == 0 {
		c.Oracle.Burst = 1
	}
	if c.Oracle.FastTemperature == 0 {
		c.Oracle.FastTemperature = 0.3
	}
	if c.Oracle.SlowTemperature == 0 {
		c.Oracle.SlowTemperature = 0.7
	}
	if c.Oracle.FastMaxTokens == 0 {
		c.Oracle.FastMaxTokens = 1000
	}
	if c.Oracle.SlowMaxTokens == 0 {
		c.Oracle.SlowMaxTokens = 2000
	}

	// Evaluation defaults
	if c.Evaluation.Workers == 0 {
		c.Evaluation.Workers = 4
	}
	if c.Evaluation.PerProblem == 0 {
		c.Evaluation.PerProblem = 2 * time.Minute
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// expandEnvVars replaces ${VAR} and $VAR with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}
