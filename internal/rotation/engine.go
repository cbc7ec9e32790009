package rotation

import (
	"fmt"
	"math"
	"time"

	"github.com/selivandex/market-pulse/pkg/models"
)

// Tunable decision thresholds. The ladder order is fixed; the numbers
// below are policy.
const (
	dominanceRisingMin = 0.5 // pct points BTC must lead the rest by
	nearZeroBand       = 1.0 // |BTC 24h| below this counts as flat
	breadthLow         = 0.4
	breadthStrong      = 0.6
	outperformMargin   = 1.0  // pct points over BTC
	riskOffChangeMax   = -2.0 // every bucket below this avg change
)

// Engine derives the rotation phase from bucket-level metrics.
// Stateless: every tick re-derives the phase from scratch.
type Engine struct{}

// NewEngine creates new rotation phase engine
func NewEngine() *Engine {
	return &Engine{}
}

// Metrics aggregates dominance and per-bucket breadth numbers from a
// classification
func (e *Engine) Metrics(bc *models.BucketClassification) models.DominanceMetrics {
	m := models.DominanceMetrics{
		BucketBreadth:   make(map[models.Bucket]float64),
		BucketAvgChange: make(map[models.Bucket]float64),
	}
	if bc == nil {
		return m
	}

	var totalCap, btcCap, restCap, restWeightedChange float64

	for _, bucket := range models.AllBuckets() {
		coins := bc.Buckets[bucket]

		positive := 0
		var sumChange float64
		for _, coin := range coins {
			cap, _ := coin.MarketCap.Float64()
			change, _ := coin.Change24h.Float64()

			totalCap += cap
			sumChange += change
			if change > 0 {
				positive++
			}

			switch bucket {
			case models.BucketBTC:
				btcCap += cap
				m.BTCChange24h = change
			case models.BucketETH:
				m.ETHChange24h = change
				restCap += cap
				restWeightedChange += cap * change
			default:
				restCap += cap
				restWeightedChange += cap * change
			}
		}

		if len(coins) > 0 {
			m.BucketBreadth[bucket] = float64(positive) / float64(len(coins))
			m.BucketAvgChange[bucket] = sumChange / float64(len(coins))
		}
	}

	if totalCap > 0 {
		m.BTCDominance = btcCap / totalCap * 100
	}
	if restCap > 0 {
		// Positive trend: BTC outperforming the cap-weighted rest of the
		// market, i.e. dominance rising over the last 24h.
		m.DominanceTrend = m.BTCChange24h - restWeightedChange/restCap
	}

	return m
}

// Detect runs the phase decision ladder over the current classification.
// Empty input yields the insufficient-data result, never an error.
func (e *Engine) Detect(bc *models.BucketClassification) models.PhaseResult {
	now := time.Now()
	if bc == nil || bc.Count() == 0 {
		return models.PhaseResult{
			Phase:      models.PhaseInsufficientData,
			Confidence: 0,
			Signals:    []string{"no market data available for this tick"},
			DetectedAt: now,
		}
	}

	m := e.Metrics(bc)

	altBreadth := combinedBreadth(bc, m, models.BucketMajors, models.BucketMidCaps, models.BucketMicroCaps)
	majorsBreadth := m.BucketBreadth[models.BucketMajors]
	midBreadth := m.BucketBreadth[models.BucketMidCaps]
	majorsAvg := m.BucketAvgChange[models.BucketMajors]
	midAvg := m.BucketAvgChange[models.BucketMidCaps]

	switch {
	case m.DominanceTrend > dominanceRisingMin && altBreadth < breadthLow:
		margin := minf(m.DominanceTrend-dominanceRisingMin, (breadthLow-altBreadth)*10)
		return result(models.PhaseBTCDominance, margin, now,
			fmt.Sprintf("BTC leading the rest of the market by %.2f%% on 24h", m.DominanceTrend),
			fmt.Sprintf("altcoin breadth weak at %.0f%% positive", altBreadth*100),
			fmt.Sprintf("BTC dominance at %.1f%% of tracked cap", m.BTCDominance),
		)

	case m.DominanceTrend >= 0 && math.Abs(m.BTCChange24h) < nearZeroBand && altBreadth < breadthLow:
		margin := minf(nearZeroBand-math.Abs(m.BTCChange24h), (breadthLow-altBreadth)*10)
		return result(models.PhaseBTCAccumulation, margin, now,
			fmt.Sprintf("BTC flat at %.2f%% on 24h while holding dominance", m.BTCChange24h),
			fmt.Sprintf("altcoin breadth low at %.0f%% positive", altBreadth*100),
		)

	case m.ETHChange24h > m.BTCChange24h+outperformMargin &&
		majorsAvg > m.BTCChange24h+outperformMargin &&
		m.DominanceTrend < 0:
		margin := minf(m.ETHChange24h-m.BTCChange24h-outperformMargin, -m.DominanceTrend)
		return result(models.PhaseRotationToETH, margin, now,
			fmt.Sprintf("ETH outperforming BTC by %.2f%% on 24h", m.ETHChange24h-m.BTCChange24h),
			fmt.Sprintf("majors outperforming BTC by %.2f%%", majorsAvg-m.BTCChange24h),
			"BTC dominance falling",
		)

	case majorsBreadth > breadthStrong && midBreadth > breadthStrong &&
		majorsAvg > m.BTCChange24h && midAvg > m.BTCChange24h:
		margin := minf((majorsBreadth-breadthStrong)*10, (midBreadth-breadthStrong)*10)
		return result(models.PhaseAltcoinSeason, margin, now,
			fmt.Sprintf("majors breadth %.0f%% positive", majorsBreadth*100),
			fmt.Sprintf("mid-caps breadth %.0f%% positive", midBreadth*100),
			"both segments outperforming BTC",
		)

	case allBucketsBelow(bc, m, riskOffChangeMax):
		worst := 0.0
		for _, avg := range m.BucketAvgChange {
			if avg < worst {
				worst = avg
			}
		}
		return result(models.PhaseRiskOff, riskOffChangeMax-worst, now,
			"every bucket showing strongly negative 24h breadth",
			fmt.Sprintf("worst bucket averaging %.2f%% on 24h", worst),
		)

	default:
		return models.PhaseResult{
			Phase:      models.PhaseConsolidation,
			Confidence: 50,
			Signals:    []string{"no rotation pattern clearing its thresholds this tick"},
			DetectedAt: now,
		}
	}
}

// result scales the margin by which the deciding metrics cleared their
// thresholds into a 0-100 confidence
func result(phase models.RotationPhase, margin float64, at time.Time, signals ...string) models.PhaseResult {
	confidence := 55 + margin*15
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}
	return models.PhaseResult{
		Phase:      phase,
		Confidence: confidence,
		Signals:    signals,
		DetectedAt: at,
	}
}

// combinedBreadth is the coin-weighted positive share across buckets
func combinedBreadth(bc *models.BucketClassification, m models.DominanceMetrics, buckets ...models.Bucket) float64 {
	var coins int
	var weighted float64
	for _, b := range buckets {
		n := len(bc.Buckets[b])
		coins += n
		weighted += m.BucketBreadth[b] * float64(n)
	}
	if coins == 0 {
		return 0
	}
	return weighted / float64(coins)
}

// allBucketsBelow reports whether every non-empty bucket averages below max
func allBucketsBelow(bc *models.BucketClassification, m models.DominanceMetrics, max float64) bool {
	checked := 0
	for _, b := range models.AllBuckets() {
		if len(bc.Buckets[b]) == 0 {
			continue
		}
		checked++
		if m.BucketAvgChange[b] >= max {
			return false
		}
	}
	return checked > 0
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
