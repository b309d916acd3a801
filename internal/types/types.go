// Package types provides common type definitions shared across the tipping
// bot and API processes.
package types

// TipStatus represents the lifecycle state of a tip.
type TipStatus string

const (
	// TipStatusPending represents a recorded tip awaiting the on-chain transfer
	TipStatusPending TipStatus = "pending"
	// TipStatusCompleted represents a tip whose transfer was confirmed via webhook
	TipStatusCompleted TipStatus = "completed"
)

// LeaderboardPeriod represents the aggregation window for leaderboards.
type LeaderboardPeriod string

const (
	// PeriodWeekly aggregates completed tips over the last 7 days
	PeriodWeekly LeaderboardPeriod = "weekly"
	// PeriodMonthly aggregates completed tips over the last 30 days
	PeriodMonthly LeaderboardPeriod = "monthly"
)

// Days returns the lookback window in days for the period.
func (p LeaderboardPeriod) Days() int {
	if p == PeriodMonthly {
		return 30
	}
	return 7
}

// ServiceError represents a structured error returned by the service layer
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return e.Message
}
