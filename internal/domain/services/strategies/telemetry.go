package strategies

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mshogin/fastslow/internal/domain/models"
)

var tracer = otel.Tracer("fastslow.strategies")

// startSolveSpan opens the span covering one strategy run.
func startSolveSpan(ctx context.Context, strategy models.Strategy, problem string) (context.Context, trace.Span) {
	return tracer.Start(ctx, fmt.Sprintf("strategy.%s", strategy),
		trace.WithAttributes(
			attribute.String("strategy", strategy.String()),
			attribute.Int("problem.length", len(problem)),
		),
	)
}

// endSolveSpan records the outcome of a strategy run and ends the span.
func endSolveSpan(span trace.Span, sol *models.Solution) {
	span.SetAttributes(
		attribute.Bool("solution.answered", sol.HasAnswer()),
		attribute.Float64("solution.confidence", sol.Confidence),
		attribute.Int("solution.steps", sol.Trace.Len()),
		attribute.Int("solution.tokens", sol.TokensUsed),
	)
	if sol.HasError() {
		span.SetStatus(codes.Error, sol.ErrorText())
	}
	span.End()
}

// recovered converts a panic inside a strategy into the default solution
// so that nothing escapes a Solution-producing call.
func recovered(strategy models.Strategy, limits models.StrategyLimits, r interface{}) *models.Solution {
	msg := fmt.Sprintf("internal error: %v", r)
	return models.NewDefaultSolution(strategy, limits, 0.1, msg, "Error: "+msg)
}
