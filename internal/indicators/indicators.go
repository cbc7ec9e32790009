package indicators

import (
	"math"

	"github.com/cinar/indicator"

	"github.com/selivandex/market-pulse/pkg/models"
)

const (
	// MinSamples is the shortest usable sparkline; anything shorter
	// yields the neutral indicator set instead of computed values.
	MinSamples = 14

	emaShortPeriod = 9
	emaLongPeriod  = 21
)

// Calculator derives technical indicators from sparkline series
type Calculator struct{}

// NewCalculator creates new indicator calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute derives RSI, EMA signal and MACD polarity from a sparkline.
// Pure function of the input series; a series with fewer than MinSamples
// usable points returns the neutral set rather than an error.
func (c *Calculator) Compute(spark models.Sparkline) models.IndicatorSet {
	closes := spark.Clean()
	if len(closes) < MinSamples {
		return models.NeutralIndicators()
	}

	_, rsiSeries := indicator.Rsi(closes)
	rsi := rsiSeries[len(rsiSeries)-1]
	if math.IsNaN(rsi) {
		// Flat series produces no gains and no losses
		rsi = 50
	}
	if rsi < 0 {
		rsi = 0
	} else if rsi > 100 {
		rsi = 100
	}

	short := indicator.Ema(emaShortPeriod, closes)
	long := indicator.Ema(emaLongPeriod, closes)

	last := len(closes) - 1
	signal := models.EMABearish
	if short[last] > long[last] {
		signal = models.EMABullish
	}

	fresh := false
	if last >= 1 {
		fresh = (short[last] > long[last]) != (short[last-1] > long[last-1])
	}

	macdLine, _ := indicator.Macd(closes)
	polarity := models.MACDNegative
	if macdLine[len(macdLine)-1] > 0 {
		polarity = models.MACDPositive
	}

	return models.IndicatorSet{
		RSI:            rsi,
		EMASignal:      signal,
		FreshCrossover: fresh,
		MACDPolarity:   polarity,
		Valid:          true,
	}
}

// Volatility returns the standard deviation of the usable samples
func (c *Calculator) Volatility(spark models.Sparkline) float64 {
	closes := spark.Clean()
	if len(closes) < 2 {
		return 0
	}

	var sum float64
	for _, v := range closes {
		sum += v
	}
	mean := sum / float64(len(closes))

	var variance float64
	for _, v := range closes {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(closes))

	return math.Sqrt(variance)
}

// Enrich computes indicators for every coin in the list. Each coin is
// processed independently; an unusable sparkline degrades that coin to
// the neutral set without affecting the rest of the batch.
func (c *Calculator) Enrich(coins []models.CoinSnapshot) []models.CoinSnapshot {
	out := make([]models.CoinSnapshot, len(coins))
	for i, coin := range coins {
		coin.Indicators = c.Compute(coin.Sparkline)
		out[i] = coin
	}
	return out
}
