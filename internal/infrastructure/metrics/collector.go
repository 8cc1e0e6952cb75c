package metrics

import (
	"sync"
	"time"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// Collector aggregates solve results in memory for the stats endpoint.
//
// Tracked Metrics:
// - Solve count and wall time per final strategy
// - Token usage per strategy
// - Answered and failed solves
// - Escalations out of the Fast strategy
type Collector struct {
	startTime time.Time

	// Metrics by final strategy
	strategyMetrics map[models.Strategy]*StrategyMetrics
	mu              sync.RWMutex

	// Totals
	totalSolves   int
	totalTokens   int
	totalDuration time.Duration
	escalations   int
}

// StrategyMetrics tracks solves that finished under one strategy.
type StrategyMetrics struct {
	Strategy        models.Strategy `json:"strategy"`
	SolveCount      int             `json:"solve_count"`
	TotalDurationMS int64           `json:"total_duration_ms"`
	AvgDurationMS   int64           `json:"avg_duration_ms"`
	TotalTokens     int             `json:"total_tokens"`
	AnsweredCount   int             `json:"answered_count"`
	ErrorCount      int             `json:"error_count"`
	AvgConfidence   float64         `json:"avg_confidence"`
	LastError       string          `json:"last_error,omitempty"`

	confidenceSum float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		startTime:       time.Now(),
		strategyMetrics: make(map[models.Strategy]*StrategyMetrics),
	}
}

// RecordSolve records a finished solve.
func (c *Collector) RecordSolve(sol *models.Solution, d time.Duration) {
	if sol == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Get or create strategy metrics
	m, exists := c.strategyMetrics[sol.Strategy]
	if !exists {
		m = &StrategyMetrics{Strategy: sol.Strategy}
		c.strategyMetrics[sol.Strategy] = m
	}

	m.SolveCount++
	m.TotalDurationMS += d.Milliseconds()
	m.AvgDurationMS = m.TotalDurationMS / int64(m.SolveCount)
	m.TotalTokens += sol.TokensUsed
	m.confidenceSum += sol.Confidence
	m.AvgConfidence = m.confidenceSum / float64(m.SolveCount)

	if sol.HasAnswer() {
		m.AnsweredCount++
	}
	if sol.HasError() {
		m.ErrorCount++
		m.LastError = sol.ErrorText()
	}

	c.totalSolves++
	c.totalTokens += sol.TokensUsed
	c.totalDuration += d
	if sol.StrategySwitch != nil {
		c.escalations++
	}
}

// GetStrategyMetrics returns a copy of the metrics for one strategy.
func (c *Collector) GetStrategyMetrics(strategy models.Strategy) *StrategyMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, exists := c.strategyMetrics[strategy]
	if !exists {
		return nil
	}
	copied := *m
	return &copied
}

// Snapshot returns the aggregated totals.
func (c *Collector) Snapshot() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	strategies := make(map[models.Strategy]StrategyMetrics, len(c.strategyMetrics))
	for k, v := range c.strategyMetrics {
		strategies[k] = *v
	}

	return Summary{
		Uptime:          time.Since(c.startTime).Round(time.Millisecond).String(),
		TotalSolves:     c.totalSolves,
		TotalTokens:     c.totalTokens,
		TotalDurationMS: c.totalDuration.Milliseconds(),
		Escalations:     c.escalations,
		Strategies:      strategies,
	}
}

// Reset clears all collected metrics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.strategyMetrics = make(map[models.Strategy]*StrategyMetrics)
	c.totalSolves = 0
	c.totalTokens = 0
	c.totalDuration = 0
	c.escalations = 0
	c.startTime = time.Now()
}

// Summary is the aggregated view served by the stats endpoint.
type Summary struct {
	Uptime          string                              `json:"uptime"`
	TotalSolves     int                                 `json:"total_solves"`
	TotalTokens     int                                 `json:"total_tokens"`
	TotalDurationMS int64                               `json:"total_duration_ms"`
	Escalations     int                                 `json:"escalations"`
	Strategies      map[models.Strategy]StrategyMetrics `json:"strategies"`
}

// EscalationRate returns the share of solves that escalated.
func (s Summary) EscalationRate() float64 {
	if s.TotalSolves == 0 {
		return 0
	}
	return float64(s.Escalations) / float64(s.TotalSolves)
}

// AvgTokensPerSolve returns the mean token usage.
func (s Summary) AvgTokensPerSolve() float64 {
	if s.TotalSolves == 0 {
		return 0
	}
	return float64(s.TotalTokens) / float64(s.TotalSolves)
}
