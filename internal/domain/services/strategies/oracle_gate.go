package strategies

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services"
)

// oracleGate bounds a single oracle consultation. Every failure mode
// (missing oracle, timeout, transport error, panic) collapses into the
// empty response so that the caller takes its deterministic path.
type oracleGate struct {
	oracle  services.Oracle
	timeout time.Duration
}

func newOracleGate(oracle services.Oracle, cfg models.OracleGateConfig) oracleGate {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = models.DefaultPipelineConfig().Oracle.Timeout
	}
	return oracleGate{oracle: oracle, timeout: timeout}
}

type consultResult struct {
	resp models.OracleResponse
	err  error
}

// consult asks the oracle and waits at most the configured timeout, even
// when the oracle ignores context cancellation.
func (g oracleGate) consult(ctx context.Context, prompt string, mode models.ThinkingMode) models.OracleResponse {
	if g.oracle == nil {
		return models.EmptyOracleResponse()
	}

	ctx, span := tracer.Start(ctx, "oracle.consult",
		trace.WithAttributes(
			attribute.String("oracle.name", g.oracle.Name()),
			attribute.String("oracle.mode", string(mode)),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan consultResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- consultResult{err: fmt.Errorf("%w: oracle panicked: %v", models.ErrOracleUnavailable, r)}
			}
		}()
		resp, err := g.oracle.Consult(ctx, models.OracleRequest{Prompt: prompt, Mode: mode})
		done <- consultResult{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		span.SetAttributes(attribute.String("oracle.outcome", "timeout"))
		return models.EmptyOracleResponse()
	case res := <-done:
		if res.err != nil {
			span.RecordError(res.err)
			span.SetAttributes(attribute.String("oracle.outcome", "error"))
			return models.EmptyOracleResponse()
		}
		res.resp.Confidence = models.Clamp01(res.resp.Confidence)
		span.SetAttributes(
			attribute.String("oracle.outcome", "ok"),
			attribute.Bool("oracle.answered", res.resp.Answer != nil),
			attribute.Float64("oracle.confidence", res.resp.Confidence),
		)
		return res.resp
	}
}
