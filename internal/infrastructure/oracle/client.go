package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services"
	"github.com/mshogin/fastslow/internal/infrastructure/config"
)

var tracer = otel.Tracer("fastslow.oracle")

const systemPrompt = "You are a mathematical problem solver. Provide clear, step-by-step solutions."

const fastPromptTemplate = `Solve this mathematical problem quickly and efficiently:
%s

Provide:
1. The answer
2. A brief explanation
3. Confidence level (0-1)

Format your response as JSON:
{
    "answer": "your answer",
    "explanation": "brief explanation",
    "confidence": confidence_value
}`

const slowPromptTemplate = `Solve this mathematical problem thoroughly and carefully:
%s

Provide:
1. Problem analysis
2. Step-by-step solution
3. Verification steps
4. The final answer
5. Confidence level (0-1)

Format your response as JSON:
{
    "analysis": "problem analysis",
    "steps": ["step 1", "step 2", ...],
    "verification": "verification steps",
    "answer": "final answer",
    "confidence": confidence_value
}`

// Client consults an OpenAI-compatible chat completion endpoint.
type Client struct {
	client  *openai.Client
	limiter *rate.Limiter
	cfg     config.OracleConfig
}

// NewClient creates an oracle client from the oracle config section.
func NewClient(cfg config.OracleConfig) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientCfg),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst),
		cfg:     cfg,
	}
}

// New returns the configured oracle, or Unavailable when no API key is set.
func New(cfg config.OracleConfig) services.Oracle {
	if !cfg.Enabled() {
		return Unavailable{}
	}
	return NewClient(cfg)
}

// Name returns the oracle identifier.
func (c *Client) Name() string {
	return "openai"
}

// Consult sends the prompt for the requested thinking mode and parses the
// JSON object in the reply.
func (c *Client) Consult(ctx context.Context, req models.OracleRequest) (models.OracleResponse, error) {
	if err := req.Validate(); err != nil {
		return models.EmptyOracleResponse(), err
	}

	ctx, span := tracer.Start(ctx, "oracle.chat_completion",
		trace.WithAttributes(
			attribute.String("oracle.model", c.cfg.Model),
			attribute.String("oracle.mode", string(req.Mode)),
		),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.SetStatus(codes.Error, "rate limiter")
		return models.EmptyOracleResponse(), fmt.Errorf("%w: %v", models.ErrOracleTimeout, err)
	}

	chatReq := c.buildRequest(req)
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return models.EmptyOracleResponse(), fmt.Errorf("%w: %v", models.ErrOracleTimeout, err)
		}
		return models.EmptyOracleResponse(), fmt.Errorf("%w: %v", models.ErrOracleUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, "no choices")
		return models.EmptyOracleResponse(), fmt.Errorf("%w: no choices returned", models.ErrOracleMalformed)
	}

	span.SetAttributes(attribute.Int("oracle.total_tokens", resp.Usage.TotalTokens))

	parsed, err := ParseReply(resp.Choices[0].Message.Content, req.Mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return models.EmptyOracleResponse(), err
	}
	return parsed, nil
}

func (c *Client) buildRequest(req models.OracleRequest) openai.ChatCompletionRequest {
	temperature, maxTokens := c.cfg.FastTemperature, c.cfg.FastMaxTokens
	if req.Mode == models.ThinkingModeSlow {
		temperature, maxTokens = c.cfg.SlowTemperature, c.cfg.SlowMaxTokens
	}

	return openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(req)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

// Prompt renders the user message for a request.
func Prompt(req models.OracleRequest) string {
	if req.Mode == models.ThinkingModeSlow {
		return fmt.Sprintf(slowPromptTemplate, req.Prompt)
	}
	return fmt.Sprintf(fastPromptTemplate, req.Prompt)
}

// ParseReply extracts the JSON object spanning the first '{' to the last
// '}' of the reply. A fast reply yields its explanation as the only step;
// a slow reply yields its steps and verification.
func ParseReply(content string, mode models.ThinkingMode) (models.OracleResponse, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return models.EmptyOracleResponse(), fmt.Errorf("%w: no JSON object in reply", models.ErrOracleMalformed)
	}
	body := content[start : end+1]
	if !gjson.Valid(body) {
		return models.EmptyOracleResponse(), fmt.Errorf("%w: invalid JSON in reply", models.ErrOracleMalformed)
	}

	parsed := gjson.Parse(body)
	out := models.OracleResponse{
		Confidence: models.Clamp01(parsed.Get("confidence").Float()),
	}
	if answer := parsed.Get("answer"); answer.Exists() && answer.Type != gjson.Null {
		s := strings.TrimSpace(answer.String())
		out.Answer = &s
	}

	if mode == models.ThinkingModeSlow {
		for _, step := range parsed.Get("steps").Array() {
			out.Steps = append(out.Steps, step.String())
		}
		out.Verification = parsed.Get("verification").String()
		return out, nil
	}

	out.Explanation = parsed.Get("explanation").String()
	if !parsed.Get("explanation").Exists() {
		out.Explanation = "No explanation provided"
	}
	out.Steps = []string{out.Explanation}
	return out, nil
}
