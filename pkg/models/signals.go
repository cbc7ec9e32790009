package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalVariant represents the four directional zone signal kinds
type SignalVariant string

const (
	VariantEntry      SignalVariant = "entry"
	VariantExit       SignalVariant = "exit"
	VariantShortEntry SignalVariant = "short_entry"
	VariantCoverExit  SignalVariant = "cover_exit"
)

// Variants lists all signal variants in evaluation order
func Variants() []SignalVariant {
	return []SignalVariant{VariantEntry, VariantExit, VariantShortEntry, VariantCoverExit}
}

// Direction is the price move a signal predicts
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// PredictedDirection returns the direction a variant implies: entries and
// short covers predict the price goes up, exits and short entries down.
func (v SignalVariant) PredictedDirection() Direction {
	switch v {
	case VariantEntry, VariantCoverExit:
		return DirectionUp
	default:
		return DirectionDown
	}
}

// Confidence is the coarse label derived from trade success probability
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ConfidenceFor maps a success probability to its label.
// The 70/40 cutoffs are relied on by every consumer of zone signals.
func ConfidenceFor(probability float64) Confidence {
	switch {
	case probability >= 70:
		return ConfidenceHigh
	case probability >= 40:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// PriceRange brackets the recommended execution zone
type PriceRange struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

// ZoneConditions records which underlying checklist conditions held.
// For long variants: RSIBand = oversold/overbought band reached,
// Crossover = EMA alignment, Momentum = MACD polarity. Short variants
// carry the mirrored meanings in the same fields.
type ZoneConditions struct {
	RSIBand   bool `json:"rsi_band"`
	Crossover bool `json:"crossover"`
	Momentum  bool `json:"momentum"`
}

// MetCount returns how many conditions held
func (c ZoneConditions) MetCount() int {
	n := 0
	if c.RSIBand {
		n++
	}
	if c.Crossover {
		n++
	}
	if c.Momentum {
		n++
	}
	return n
}

// AllMet reports whether the full checklist held
func (c ZoneConditions) AllMet() bool {
	return c.RSIBand && c.Crossover && c.Momentum
}

// ZoneSignal is one actionable setup for one symbol at one tick.
// Projected signals have some-but-not-all conditions met and carry
// AwaitingCondition naming the outstanding one.
type ZoneSignal struct {
	Variant             SignalVariant   `json:"variant"`
	Symbol              string          `json:"symbol"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	Range               PriceRange      `json:"range"`
	Confidence          Confidence      `json:"confidence"`
	Probability         float64         `json:"probability"` // 0-100
	Strength            float64         `json:"strength"`    // 0-100
	ConsecutiveReadings int             `json:"consecutive_readings"`
	Conditions          ZoneConditions  `json:"conditions"`
	Recommendation      string          `json:"recommendation"`
	Projected           bool            `json:"projected"`
	AwaitingCondition   string          `json:"awaiting_condition,omitempty"`
	Timestamp           time.Time       `json:"timestamp"`
}
