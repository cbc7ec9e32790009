package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OutcomeStatus is the reconciliation state of a recorded signal
type OutcomeStatus string

const (
	OutcomePending OutcomeStatus = "pending"
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// SignalOutcome is a durable record of one emitted signal's prediction
// and, once reconciled, its realized result. Mutated exactly once,
// pending -> success/failure.
type SignalOutcome struct {
	ID                  uuid.UUID     `json:"id"`
	Symbol              string        `json:"symbol"`
	SignalType          SignalVariant `json:"signal_type"`
	Timestamp           time.Time     `json:"timestamp"`
	PredictedDirection  Direction     `json:"predicted_direction"`
	PredictedConfidence float64       `json:"predicted_confidence"` // 0-100
	Timeframe           string        `json:"timeframe"`
	PriceAtSignal       decimal.Decimal `json:"price_at_signal"`
	Status              OutcomeStatus `json:"status"`
	ActualChange        float64       `json:"actual_change"` // percent, set on reconcile
	ReconciledAt        time.Time     `json:"reconciled_at,omitempty"`
}

// LedgerMetrics aggregates the outcome log
type LedgerMetrics struct {
	Total             int     `json:"total"`
	Pending           int     `json:"pending"`
	Successes         int     `json:"successes"`
	Failures          int     `json:"failures"`
	Accuracy          float64 `json:"accuracy"`           // percent over completed
	AvgConfidence     float64 `json:"avg_confidence"`     // over completed
	OptimizationScore float64 `json:"optimization_score"` // 0-100
}

// ThresholdAdjustment is a suggested sensitivity change for one signal type
type ThresholdAdjustment struct {
	SignalType SignalVariant `json:"signal_type"`
	Current    float64       `json:"current"`
	Suggested  float64       `json:"suggested"`
	Reason     string        `json:"reason"`
}

// SensitivityMode is the coarse label for a sensitivity threshold
type SensitivityMode string

const (
	ModeAggressive   SensitivityMode = "aggressive"
	ModeBalanced     SensitivityMode = "balanced"
	ModeConservative SensitivityMode = "conservative"
)

const (
	// MinThreshold and MaxThreshold bound the sensitivity threshold;
	// writes outside the range are clamped, not rejected.
	MinThreshold = 50
	MaxThreshold = 90

	DefaultThreshold = 70
)

// ClampThreshold forces a threshold into the valid range
func ClampThreshold(t float64) float64 {
	if t < MinThreshold {
		return MinThreshold
	}
	if t > MaxThreshold {
		return MaxThreshold
	}
	return t
}

// ModeFor derives the mode label from a threshold
func ModeFor(threshold float64) SensitivityMode {
	switch {
	case threshold <= 60:
		return ModeAggressive
	case threshold <= 75:
		return ModeBalanced
	default:
		return ModeConservative
	}
}

// SensitivitySettings is the persisted, process-wide signal filter config
type SensitivitySettings struct {
	Threshold float64         `json:"threshold"`
	Mode      SensitivityMode `json:"mode"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DefaultSensitivity returns the settings used when nothing is persisted
func DefaultSensitivity() SensitivitySettings {
	return SensitivitySettings{
		Threshold: DefaultThreshold,
		Mode:      ModeFor(DefaultThreshold),
	}
}

// PerformanceSample is one entry of the sensitivity performance history
type PerformanceSample struct {
	Timestamp      time.Time `json:"timestamp"`
	Threshold      float64   `json:"threshold"`
	ActiveSignals  int       `json:"active_signals"`
	AvgProbability float64   `json:"avg_probability"`
}

// JournalEntry is one trade journal record
type JournalEntry struct {
	ID         uuid.UUID       `json:"id"`
	Symbol     string          `json:"symbol"`
	SignalType SignalVariant   `json:"signal_type"`
	Confidence Confidence      `json:"confidence"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	Outcome    string          `json:"outcome"`
	AlertID    string          `json:"alert_id,omitempty"`
	PositionID string          `json:"position_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
