package oracle

import (
	"context"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// Unavailable is the oracle used when no endpoint is configured. Every
// consultation fails, so the strategies take their deterministic paths.
type Unavailable struct{}

// Name returns the oracle identifier.
func (Unavailable) Name() string {
	return "unavailable"
}

// Consult always fails with ErrOracleUnavailable.
func (Unavailable) Consult(context.Context, models.OracleRequest) (models.OracleResponse, error) {
	return models.EmptyOracleResponse(), models.ErrOracleUnavailable
}
