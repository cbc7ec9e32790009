package correlation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/selivandex/market-pulse/pkg/models"
)

// Tunable thresholds for strength labels and rotation signals
const (
	moderateThreshold = 0.3
	strongThreshold   = 0.7

	// divergenceWindow is the recent-sample window compared against the
	// full-series baseline correlation
	divergenceWindow = 7
	divergenceDelta  = 0.25

	buyCorrelationMax  = -0.5
	sellCorrelationMin = 0.7
)

// Engine computes BTC-relative correlations and rotation signals
type Engine struct{}

// NewEngine creates new correlation engine
func NewEngine() *Engine {
	return &Engine{}
}

// Correlation computes the Pearson coefficient of two price series,
// truncated to their common length aligned from the most recent sample
// backward. Returns 0 for fewer than 2 overlapping points or zero
// variance in either series. Result is bounded to [-1, 1].
func (e *Engine) Correlation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	var numerator, varA, varB float64
	for i := 0; i < n; i++ {
		diffA := a[i] - meanA
		diffB := b[i] - meanB
		numerator += diffA * diffB
		varA += diffA * diffA
		varB += diffB * diffB
	}

	if varA == 0 || varB == 0 {
		return 0
	}

	r := numerator / math.Sqrt(varA*varB)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// BuildMatrix computes every coin's correlation against the BTC sparkline,
// with a strength label and divergence/convergence flags. Returns nil when
// no usable BTC series is present in the batch.
func (e *Engine) BuildMatrix(coins []models.CoinSnapshot) *models.CorrelationMatrix {
	var btcSeries []float64
	btcSymbol := ""
	for _, coin := range coins {
		if strings.EqualFold(coin.Symbol, "BTC") {
			btcSeries = coin.Sparkline.Clean()
			btcSymbol = coin.Symbol
			break
		}
	}
	if len(btcSeries) < 2 {
		return nil
	}

	matrix := &models.CorrelationMatrix{
		BTCSymbol:    btcSymbol,
		Entries:      make([]models.CoinCorrelation, 0, len(coins)),
		CalculatedAt: time.Now(),
	}

	for _, coin := range coins {
		if strings.EqualFold(coin.Symbol, "BTC") {
			continue
		}

		series := coin.Sparkline.Clean()
		if len(series) < 2 {
			continue
		}

		n := len(series)
		if len(btcSeries) < n {
			n = len(btcSeries)
		}

		baseline := e.Correlation(series, btcSeries)
		recent := e.Correlation(tail(series, divergenceWindow), tail(btcSeries, divergenceWindow))

		matrix.Entries = append(matrix.Entries, models.CoinCorrelation{
			Symbol:         coin.Symbol,
			BTCCorrelation: baseline,
			Strength:       strengthFor(baseline),
			Divergence:     baseline-recent > divergenceDelta,
			Convergence:    recent-baseline > divergenceDelta,
			SampleSize:     n,
		})
	}

	return matrix
}

// RotationSignals derives buy/sell rotation recommendations from the
// matrix: strongly inversely correlated coins outperforming BTC are buy
// candidates, strongly correlated coins are sell candidates while BTC
// declines. Returns an empty list for a nil matrix.
func (e *Engine) RotationSignals(matrix *models.CorrelationMatrix, coins []models.CoinSnapshot) []models.RotationSignal {
	signals := []models.RotationSignal{}
	if matrix == nil {
		return signals
	}

	changes := make(map[string]float64, len(coins))
	btcChange := 0.0
	for _, coin := range coins {
		change, _ := coin.Change24h.Float64()
		changes[coin.Symbol] = change
		if strings.EqualFold(coin.Symbol, "BTC") {
			btcChange = change
		}
	}

	for _, entry := range matrix.Entries {
		change := changes[entry.Symbol]

		switch {
		case entry.BTCCorrelation <= buyCorrelationMax && change > 0 && change > btcChange:
			signals = append(signals, models.RotationSignal{
				Symbol:      entry.Symbol,
				Action:      models.RotationBuy,
				Correlation: entry.BTCCorrelation,
				Change24h:   change,
				Reason:      fmt.Sprintf("inverse BTC correlation %.2f while up %.2f%% on 24h", entry.BTCCorrelation, change),
			})
		case entry.BTCCorrelation >= sellCorrelationMin && btcChange < 0:
			signals = append(signals, models.RotationSignal{
				Symbol:      entry.Symbol,
				Action:      models.RotationSell,
				Correlation: entry.BTCCorrelation,
				Change24h:   change,
				Reason:      fmt.Sprintf("tracks BTC at %.2f while BTC down %.2f%% on 24h", entry.BTCCorrelation, btcChange),
			})
		}
	}

	return signals
}

func strengthFor(r float64) models.CorrelationStrength {
	abs := math.Abs(r)
	switch {
	case abs < moderateThreshold:
		return models.StrengthWeak
	case abs < strongThreshold:
		if r > 0 {
			return models.StrengthModeratePositive
		}
		return models.StrengthModerateNegative
	default:
		if r > 0 {
			return models.StrengthStrongPositive
		}
		return models.StrengthStrongNegative
	}
}

func tail(series []float64, n int) []float64 {
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}
