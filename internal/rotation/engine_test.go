package rotation

import (
	"fmt"
	"testing"

	"github.com/selivandex/market-pulse/pkg/models"
)

func metricCoin(symbol string, marketCap, change24h float64) models.CoinSnapshot {
	return models.CoinSnapshot{
		Symbol:    symbol,
		MarketCap: models.NewDecimal(marketCap),
		Change24h: models.NewDecimal(change24h),
	}
}

// classification assembles a bucket map directly; each alt gets a cap of
// 100 so trend arithmetic stays easy to reason about
func classification(btcChange, ethChange float64, majorChanges, midChanges []float64) *models.BucketClassification {
	bc := &models.BucketClassification{
		Buckets: map[models.Bucket][]models.CoinSnapshot{
			models.BucketBTC:       {metricCoin("BTC", 1000, btcChange)},
			models.BucketETH:       {metricCoin("ETH", 500, ethChange)},
			models.BucketMajors:    {},
			models.BucketMidCaps:   {},
			models.BucketMicroCaps: {},
		},
	}
	for i, change := range majorChanges {
		bc.Buckets[models.BucketMajors] = append(bc.Buckets[models.BucketMajors],
			metricCoin(fmt.Sprintf("MAJ%d", i), 100, change))
	}
	for i, change := range midChanges {
		bc.Buckets[models.BucketMidCaps] = append(bc.Buckets[models.BucketMidCaps],
			metricCoin(fmt.Sprintf("MID%d", i), 50, change))
	}
	return bc
}

func TestEngine_Metrics(t *testing.T) {
	e := NewEngine()

	bc := classification(3, -1, []float64{-1, -2, -0.5, 1}, nil)
	m := e.Metrics(bc)

	// BTC cap 1000 of 1900 total
	if m.BTCDominance < 52.5 || m.BTCDominance > 52.7 {
		t.Errorf("BTC dominance should be about 52.6%%, got %.2f", m.BTCDominance)
	}
	if m.BTCChange24h != 3 {
		t.Errorf("BTC 24h change should be 3, got %.2f", m.BTCChange24h)
	}
	if m.ETHChange24h != -1 {
		t.Errorf("ETH 24h change should be -1, got %.2f", m.ETHChange24h)
	}
	if m.DominanceTrend <= 0 {
		t.Errorf("BTC outperforming a falling rest should give a positive trend, got %.2f", m.DominanceTrend)
	}
	if b := m.BucketBreadth[models.BucketMajors]; b != 0.25 {
		t.Errorf("1 of 4 majors positive should give breadth 0.25, got %.2f", b)
	}
}

func TestEngine_Metrics_NilClassification(t *testing.T) {
	e := NewEngine()

	m := e.Metrics(nil)
	if m.BTCDominance != 0 || len(m.BucketBreadth) != 0 {
		t.Error("nil classification should yield zeroed metrics")
	}
}

func TestEngine_Detect_BTCDominance(t *testing.T) {
	e := NewEngine()

	// BTC up hard, alts bleeding
	result := e.Detect(classification(3, -1, []float64{-1, -2, -0.5, 1}, nil))

	if result.Phase != models.PhaseBTCDominance {
		t.Fatalf("expected BTC dominance phase, got %s", result.Phase)
	}
	if result.Confidence <= 0 || result.Confidence > 100 {
		t.Errorf("confidence out of range: %.1f", result.Confidence)
	}
	if len(result.Signals) == 0 {
		t.Error("phase result should explain itself with signals")
	}
}

func TestEngine_Detect_BTCAccumulation(t *testing.T) {
	e := NewEngine()

	// BTC flat, dominance holding, alts quiet and mostly negative
	result := e.Detect(classification(0.3, 0.2, []float64{-0.1, -0.2, -0.3, 0.1}, nil))

	if result.Phase != models.PhaseBTCAccumulation {
		t.Fatalf("expected BTC accumulation phase, got %s", result.Phase)
	}
}

func TestEngine_Detect_RotationToETH(t *testing.T) {
	e := NewEngine()

	// ETH and majors clearly outperforming BTC, dominance falling
	result := e.Detect(classification(0.5, 3, []float64{2, 2, 2, 2}, nil))

	if result.Phase != models.PhaseRotationToETH {
		t.Fatalf("expected ETH rotation phase, got %s", result.Phase)
	}
}

func TestEngine_Detect_AltcoinSeason(t *testing.T) {
	e := NewEngine()

	result := e.Detect(classification(1, 1.5,
		[]float64{2, 3, 2, -1},
		[]float64{2, 2, 3, -0.5},
	))

	if result.Phase != models.PhaseAltcoinSeason {
		t.Fatalf("expected altcoin season phase, got %s", result.Phase)
	}
}

func TestEngine_Detect_RiskOff(t *testing.T) {
	e := NewEngine()

	result := e.Detect(classification(-4, -4.5, []float64{-3, -3}, nil))

	if result.Phase != models.PhaseRiskOff {
		t.Fatalf("expected risk-off phase, got %s", result.Phase)
	}
}

func TestEngine_Detect_Consolidation(t *testing.T) {
	e := NewEngine()

	// Nothing clears its thresholds
	result := e.Detect(classification(0.5, 0.5, []float64{1, -1, 1, -1}, nil))

	if result.Phase != models.PhaseConsolidation {
		t.Fatalf("expected consolidation phase, got %s", result.Phase)
	}
	if result.Confidence != 50 {
		t.Errorf("consolidation carries a flat 50 confidence, got %.1f", result.Confidence)
	}
}

func TestEngine_Detect_InsufficientData(t *testing.T) {
	e := NewEngine()

	for _, bc := range []*models.BucketClassification{
		nil,
		{Buckets: map[models.Bucket][]models.CoinSnapshot{}},
	} {
		result := e.Detect(bc)
		if result.Phase != models.PhaseInsufficientData {
			t.Errorf("empty input should give the insufficient-data phase, got %s", result.Phase)
		}
		if result.Confidence != 0 {
			t.Errorf("insufficient data should carry zero confidence, got %.1f", result.Confidence)
		}
	}
}

func TestEngine_Detect_Deterministic(t *testing.T) {
	e := NewEngine()

	bc := classification(3, -1, []float64{-1, -2, -0.5, 1}, nil)
	first := e.Detect(bc)
	second := e.Detect(bc)

	if first.Phase != second.Phase || first.Confidence != second.Confidence {
		t.Error("detection should be deterministic for identical input")
	}
}
