package zones

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/internal/indicators"
	"github.com/selivandex/market-pulse/pkg/logger"
	"github.com/selivandex/market-pulse/pkg/models"
)

// Policy holds the tunable scoring constants. The RSI cutoffs and the
// strength weight split are policy, not contract; the confidence label
// boundaries live in models.ConfidenceFor.
type Policy struct {
	OversoldRSI   float64
	OverboughtRSI float64

	// MinConfirmations is the consecutive-tick count required before an
	// all-conditions signal becomes active
	MinConfirmations int

	WeightCrossover float64
	WeightRSIBand   float64
	WeightMomentum  float64
}

// DefaultPolicy returns the stock scoring policy
func DefaultPolicy() Policy {
	return Policy{
		OversoldRSI:      35,
		OverboughtRSI:    70,
		MinConfirmations: 1,
		WeightCrossover:  40,
		WeightRSIBand:    30,
		WeightMomentum:   30,
	}
}

const (
	minBandPct = 0.5
	maxBandPct = 5.0

	// projected ranges extrapolate from recent volatility
	projectedNearSigma = 0.5
	projectedFarSigma  = 2.0
)

// Result carries the per-variant active and projected signal lists for
// one tick. Lists are sorted by probability descending.
type Result struct {
	Active    map[models.SignalVariant][]models.ZoneSignal
	Projected map[models.SignalVariant][]models.ZoneSignal
}

// ActiveCount returns the total number of active signals
func (r *Result) ActiveCount() int {
	n := 0
	for _, list := range r.Active {
		n += len(list)
	}
	return n
}

// Engine evaluates the four directional zone variants per coin. It owns
// the only state that crosses refresh ticks: the per-symbol consecutive-
// readings map, replaced wholesale on every Evaluate call. The engine is
// written for a single logical thread of execution, matching the
// synchronous refresh cycle.
type Engine struct {
	calc    *indicators.Calculator
	policy  Policy
	streaks map[string]map[models.SignalVariant]int
}

// NewEngine creates new zone signal engine
func NewEngine(policy Policy) *Engine {
	return &Engine{
		calc:    indicators.NewCalculator(),
		policy:  policy,
		streaks: make(map[string]map[models.SignalVariant]int),
	}
}

// Reset clears the consecutive-readings state
func (e *Engine) Reset() {
	e.streaks = make(map[string]map[models.SignalVariant]int)
}

// Seed sets the consecutive-readings counter for a symbol and variant,
// so tests can start from a known streak
func (e *Engine) Seed(symbol string, variant models.SignalVariant, count int) {
	if e.streaks[symbol] == nil {
		e.streaks[symbol] = make(map[models.SignalVariant]int)
	}
	e.streaks[symbol][variant] = count
}

// Evaluate produces active and projected signals for the full coin list.
// Coins without a usable sparkline are skipped; one coin's bad data never
// aborts the batch.
func (e *Engine) Evaluate(coins []models.CoinSnapshot) *Result {
	result := &Result{
		Active:    make(map[models.SignalVariant][]models.ZoneSignal),
		Projected: make(map[models.SignalVariant][]models.ZoneSignal),
	}
	for _, v := range models.Variants() {
		result.Active[v] = []models.ZoneSignal{}
		result.Projected[v] = []models.ZoneSignal{}
	}

	nextStreaks := make(map[string]map[models.SignalVariant]int, len(coins))
	now := time.Now()

	for _, coin := range coins {
		if !coin.Sparkline.Valid(indicators.MinSamples) || !coin.Indicators.Valid {
			logger.Debug("skipping coin without usable sparkline",
				zap.String("symbol", coin.Symbol),
			)
			continue
		}

		price, _ := coin.Price.Float64()
		if price <= 0 {
			continue
		}

		sigma := e.calc.Volatility(coin.Sparkline)
		bandPct := clamp(sigma/price*100, minBandPct, maxBandPct)

		for _, variant := range models.Variants() {
			conds := e.conditions(variant, coin.Indicators)
			met := conds.MetCount()
			if met == 0 {
				continue
			}

			streak := 0
			if conds.AllMet() {
				streak = e.streaks[coin.Symbol][variant] + 1
				if nextStreaks[coin.Symbol] == nil {
					nextStreaks[coin.Symbol] = make(map[models.SignalVariant]int)
				}
				nextStreaks[coin.Symbol][variant] = streak
			}

			probability := e.probability(variant, coin.Indicators, conds, streak)

			signal := models.ZoneSignal{
				Variant:             variant,
				Symbol:              coin.Symbol,
				Name:                coin.Name,
				Price:               coin.Price,
				Confidence:          models.ConfidenceFor(probability),
				Probability:         probability,
				Strength:            e.strength(conds),
				ConsecutiveReadings: streak,
				Conditions:          conds,
				Timestamp:           now,
			}

			if conds.AllMet() && streak >= e.policy.MinConfirmations {
				signal.Range = activeRange(price, bandPct)
				signal.Recommendation = e.recommendation(variant, coin, probability)
				result.Active[variant] = append(result.Active[variant], signal)
			} else {
				signal.Projected = true
				signal.AwaitingCondition = e.awaiting(variant, conds)
				signal.Range = projectedRange(variant, price, sigma)
				signal.Recommendation = fmt.Sprintf("Watch %s: %s", coin.Symbol, signal.AwaitingCondition)
				result.Projected[variant] = append(result.Projected[variant], signal)
			}
		}
	}

	// Streak state is replaced wholesale: symbols that stopped confirming
	// (or left the universe) fall back to zero.
	e.streaks = nextStreaks

	for _, v := range models.Variants() {
		sortSignals(result.Active[v])
		sortSignals(result.Projected[v])
	}

	return result
}

// conditions builds the checklist for a variant. Exit mirrors entry with
// inverted polarity, short variants mirror the long ones.
func (e *Engine) conditions(variant models.SignalVariant, ind models.IndicatorSet) models.ZoneConditions {
	switch variant {
	case models.VariantEntry, models.VariantCoverExit:
		return models.ZoneConditions{
			RSIBand:   ind.RSI < e.policy.OversoldRSI,
			Crossover: ind.EMASignal == models.EMABullish,
			Momentum:  ind.MACDPolarity == models.MACDPositive,
		}
	default: // exit, short entry
		return models.ZoneConditions{
			RSIBand:   ind.RSI > e.policy.OverboughtRSI,
			Crossover: ind.EMASignal == models.EMABearish,
			Momentum:  ind.MACDPolarity == models.MACDNegative,
		}
	}
}

// strength is the weighted checklist sum out of 100
func (e *Engine) strength(conds models.ZoneConditions) float64 {
	score := 0.0
	if conds.Crossover {
		score += e.policy.WeightCrossover
	}
	if conds.RSIBand {
		score += e.policy.WeightRSIBand
	}
	if conds.Momentum {
		score += e.policy.WeightMomentum
	}
	return score
}

// probability scores trade success odds on [0,100]: 15 points per met
// condition, up to 25 for how deep RSI sits past its cutoff, up to 15
// for consecutive confirming ticks. Monotonic in streak and in RSI
// distance from the decision boundary.
func (e *Engine) probability(variant models.SignalVariant, ind models.IndicatorSet, conds models.ZoneConditions, streak int) float64 {
	p := float64(conds.MetCount()) * 15

	if conds.RSIBand {
		var distance float64
		switch variant {
		case models.VariantEntry, models.VariantCoverExit:
			distance = (e.policy.OversoldRSI - ind.RSI) / e.policy.OversoldRSI
		default:
			distance = (ind.RSI - e.policy.OverboughtRSI) / (100 - e.policy.OverboughtRSI)
		}
		p += clamp(distance, 0, 1) * 25
	}

	if streak > 0 {
		bonus := float64(streak) * 5
		if bonus > 15 {
			bonus = 15
		}
		p += bonus
	}

	return clamp(p, 0, 100)
}

// awaiting names the first outstanding condition for a projected signal
func (e *Engine) awaiting(variant models.SignalVariant, conds models.ZoneConditions) string {
	long := variant == models.VariantEntry || variant == models.VariantCoverExit

	if !conds.Crossover {
		if long {
			return "awaiting bullish EMA crossover"
		}
		return "awaiting bearish EMA crossover"
	}
	if !conds.RSIBand {
		if long {
			return fmt.Sprintf("awaiting RSI confirmation below %.0f", e.policy.OversoldRSI)
		}
		return fmt.Sprintf("awaiting RSI confirmation above %.0f", e.policy.OverboughtRSI)
	}
	if !conds.Momentum {
		if long {
			return "awaiting MACD to turn positive"
		}
		return "awaiting MACD to turn negative"
	}
	return "awaiting consecutive confirmation"
}

func (e *Engine) recommendation(variant models.SignalVariant, coin models.CoinSnapshot, probability float64) string {
	switch variant {
	case models.VariantEntry:
		return fmt.Sprintf("Accumulate %s inside the entry band (RSI %.1f, %.0f%% success odds)", coin.Symbol, coin.Indicators.RSI, probability)
	case models.VariantExit:
		return fmt.Sprintf("Take profit on %s near the exit band (RSI %.1f overbought)", coin.Symbol, coin.Indicators.RSI)
	case models.VariantShortEntry:
		return fmt.Sprintf("Open short on %s inside the band (RSI %.1f, %.0f%% success odds)", coin.Symbol, coin.Indicators.RSI, probability)
	default:
		return fmt.Sprintf("Cover short on %s near the band (RSI %.1f oversold)", coin.Symbol, coin.Indicators.RSI)
	}
}

// activeRange brackets a tight execution zone around the current price
func activeRange(price, bandPct float64) models.PriceRange {
	half := bandPct / 200
	return models.PriceRange{
		Low:  models.NewDecimal(price * (1 - half)),
		High: models.NewDecimal(price * (1 + half)),
	}
}

// projectedRange extrapolates a not-yet-confirmed zone from recent
// volatility: below current price for long variants, above for shorts
func projectedRange(variant models.SignalVariant, price, sigma float64) models.PriceRange {
	if sigma <= 0 {
		sigma = price * minBandPct / 100
	}

	switch variant {
	case models.VariantEntry, models.VariantCoverExit:
		low := price - projectedFarSigma*sigma
		if low < 0 {
			low = 0
		}
		high := price - projectedNearSigma*sigma
		if high < low {
			high = low
		}
		return models.PriceRange{
			Low:  models.NewDecimal(low),
			High: models.NewDecimal(high),
		}
	default:
		return models.PriceRange{
			Low:  models.NewDecimal(price + projectedNearSigma*sigma),
			High: models.NewDecimal(price + projectedFarSigma*sigma),
		}
	}
}

func sortSignals(signals []models.ZoneSignal) {
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Probability != signals[j].Probability {
			return signals[i].Probability > signals[j].Probability
		}
		return signals[i].Symbol < signals[j].Symbol
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
