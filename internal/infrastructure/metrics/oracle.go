package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services"
)

// Oracle outcomes.
const (
	OracleAnswered    = "answered"
	OracleNoAnswer    = "no_answer"
	OracleTimeout     = "timeout"
	OracleMalformed   = "malformed"
	OracleUnavailable = "unavailable"
)

// InstrumentedOracle records every consultation of the wrapped oracle.
type InstrumentedOracle struct {
	next     services.Oracle
	exporter *Exporter
}

// InstrumentOracle wraps next so its calls are counted and timed.
func InstrumentOracle(next services.Oracle, exporter *Exporter) services.Oracle {
	if next == nil || exporter == nil {
		return next
	}
	return &InstrumentedOracle{next: next, exporter: exporter}
}

// Name returns the wrapped oracle's name.
func (o *InstrumentedOracle) Name() string {
	return o.next.Name()
}

// Consult delegates to the wrapped oracle.
func (o *InstrumentedOracle) Consult(ctx context.Context, req models.OracleRequest) (models.OracleResponse, error) {
	start := time.Now()
	resp, err := o.next.Consult(ctx, req)
	o.exporter.ObserveOracle(o.next.Name(), req.Mode, OracleOutcome(resp, err), time.Since(start))
	return resp, err
}

// OracleOutcome classifies a consultation result.
func OracleOutcome(resp models.OracleResponse, err error) string {
	switch {
	case err == nil && resp.Answer != nil:
		return OracleAnswered
	case err == nil:
		return OracleNoAnswer
	case errors.Is(err, models.ErrOracleTimeout), errors.Is(err, context.DeadlineExceeded):
		return OracleTimeout
	case errors.Is(err, models.ErrOracleMalformed):
		return OracleMalformed
	default:
		return OracleUnavailable
	}
}
