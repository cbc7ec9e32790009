package models

import "time"

// CorrelationStrength is the coarse label for a correlation coefficient
type CorrelationStrength string

const (
	StrengthStrongPositive   CorrelationStrength = "strong_positive"
	StrengthModeratePositive CorrelationStrength = "moderate_positive"
	StrengthWeak             CorrelationStrength = "weak"
	StrengthModerateNegative CorrelationStrength = "moderate_negative"
	StrengthStrongNegative   CorrelationStrength = "strong_negative"
)

// CoinCorrelation holds one coin's correlation against the BTC series
type CoinCorrelation struct {
	Symbol         string              `json:"symbol"`
	BTCCorrelation float64             `json:"btc_correlation"` // [-1, 1]
	Strength       CorrelationStrength `json:"strength"`
	Divergence     bool                `json:"divergence"`
	Convergence    bool                `json:"convergence"`
	SampleSize     int                 `json:"sample_size"`
}

// CorrelationMatrix is the per-tick BTC-relative correlation table.
// Nil when no BTC series was available for the tick.
type CorrelationMatrix struct {
	BTCSymbol    string            `json:"btc_symbol"`
	Entries      []CoinCorrelation `json:"entries"`
	CalculatedAt time.Time         `json:"calculated_at"`
}

// Entry returns the matrix row for a symbol
func (m *CorrelationMatrix) Entry(symbol string) (CoinCorrelation, bool) {
	for _, e := range m.Entries {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return CoinCorrelation{}, false
}

// RotationAction is the side a correlation-derived rotation signal suggests
type RotationAction string

const (
	RotationBuy  RotationAction = "buy"
	RotationSell RotationAction = "sell"
)

// RotationSignal is a correlation-derived rotation recommendation
type RotationSignal struct {
	Symbol      string         `json:"symbol"`
	Action      RotationAction `json:"action"`
	Correlation float64        `json:"correlation"`
	Change24h   float64        `json:"change_24h"`
	Reason      string         `json:"reason"`
}
