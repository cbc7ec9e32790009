package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// EMASignal represents the relation of the short EMA to the long EMA
type EMASignal string

const (
	EMABullish EMASignal = "bullish"
	EMABearish EMASignal = "bearish"
)

// MACDPolarity represents the sign of the MACD line
type MACDPolarity string

const (
	MACDPositive MACDPolarity = "positive"
	MACDNegative MACDPolarity = "negative"
)

// Sparkline is an ordered price series, oldest to newest.
// Missing samples from the upstream feed are kept as nil.
type Sparkline []*float64

// Clean returns the series with nil samples dropped, order preserved
func (s Sparkline) Clean() []float64 {
	out := make([]float64, 0, len(s))
	for _, p := range s {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Valid reports whether the series has at least min usable samples
func (s Sparkline) Valid(min int) bool {
	count := 0
	for _, p := range s {
		if p != nil {
			count++
			if count >= min {
				return true
			}
		}
	}
	return false
}

// Last returns the most recent usable sample
func (s Sparkline) Last() (float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != nil {
			return *s[i], true
		}
	}
	return 0, false
}

// IndicatorSet holds indicators derived from a coin's sparkline.
// Valid is false when the series was too short; the remaining fields
// then carry neutral defaults rather than computed values.
type IndicatorSet struct {
	RSI            float64      `json:"rsi"`
	EMASignal      EMASignal    `json:"ema_signal"`
	FreshCrossover bool         `json:"fresh_crossover"`
	MACDPolarity   MACDPolarity `json:"macd_polarity"`
	Valid          bool         `json:"valid"`
}

// NeutralIndicators returns the non-actionable default indicator set
func NeutralIndicators() IndicatorSet {
	return IndicatorSet{
		RSI:          50,
		EMASignal:    EMABearish,
		MACDPolarity: MACDNegative,
		Valid:        false,
	}
}

// CoinSnapshot represents one coin at one refresh tick.
// Snapshots are immutable once fetched and replaced wholesale each refresh.
type CoinSnapshot struct {
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Change24h  decimal.Decimal `json:"change_24h"` // percent
	Volume24h  decimal.Decimal `json:"volume_24h"`
	MarketCap  decimal.Decimal `json:"market_cap"`
	Sparkline  Sparkline       `json:"sparkline"`
	Indicators IndicatorSet    `json:"indicators"`
	FetchedAt  time.Time       `json:"fetched_at"`
}
