package correlation

import (
	"math"
	"testing"

	"github.com/selivandex/market-pulse/pkg/models"
)

func sparklineOf(values ...float64) models.Sparkline {
	spark := make(models.Sparkline, len(values))
	for i := range values {
		v := values[i]
		spark[i] = &v
	}
	return spark
}

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestEngine_Correlation(t *testing.T) {
	e := NewEngine()

	t.Run("identical series", func(t *testing.T) {
		a := series(20, func(i int) float64 { return 100 + float64(i)*3 })
		r := e.Correlation(a, a)
		if math.Abs(r-1) > 1e-9 {
			t.Errorf("self correlation should be 1, got %.6f", r)
		}
	})

	t.Run("inverse series", func(t *testing.T) {
		a := series(20, func(i int) float64 { return float64(i) })
		b := series(20, func(i int) float64 { return -float64(i) })
		r := e.Correlation(a, b)
		if math.Abs(r+1) > 1e-9 {
			t.Errorf("perfectly inverse series should give -1, got %.6f", r)
		}
	})

	t.Run("too few points", func(t *testing.T) {
		if r := e.Correlation([]float64{1}, []float64{2}); r != 0 {
			t.Errorf("fewer than 2 overlapping points should give 0, got %.6f", r)
		}
		if r := e.Correlation(nil, []float64{1, 2, 3}); r != 0 {
			t.Errorf("empty series should give 0, got %.6f", r)
		}
	})

	t.Run("zero variance", func(t *testing.T) {
		flat := series(10, func(int) float64 { return 5 })
		rising := series(10, func(i int) float64 { return float64(i) })
		if r := e.Correlation(flat, rising); r != 0 {
			t.Errorf("zero-variance series should give 0, got %.6f", r)
		}
	})

	t.Run("bounds", func(t *testing.T) {
		a := series(30, func(i int) float64 { return float64((i*17)%13) + float64(i) })
		b := series(30, func(i int) float64 { return float64((i*7)%5) - float64(i)*2 })
		r := e.Correlation(a, b)
		if r < -1 || r > 1 {
			t.Errorf("correlation must stay inside [-1, 1], got %.6f", r)
		}
	})

	t.Run("unequal lengths align on tail", func(t *testing.T) {
		long := series(30, func(i int) float64 { return float64(i) })
		short := series(10, func(i int) float64 { return float64(i) * 2 })
		r := e.Correlation(long, short)
		if math.Abs(r-1) > 1e-9 {
			t.Errorf("tail-aligned linear series should give 1, got %.6f", r)
		}
	})
}

func TestEngine_BuildMatrix(t *testing.T) {
	e := NewEngine()

	btc := models.CoinSnapshot{
		Symbol:    "BTC",
		Sparkline: sparklineOf(series(20, func(i int) float64 { return 50000 + float64(i)*100 })...),
	}
	tracker := models.CoinSnapshot{
		Symbol:    "LTC",
		Sparkline: sparklineOf(series(20, func(i int) float64 { return 80 + float64(i) })...),
	}
	inverse := models.CoinSnapshot{
		Symbol:    "XMR",
		Sparkline: sparklineOf(series(20, func(i int) float64 { return 200 - float64(i)*2 })...),
	}

	matrix := e.BuildMatrix([]models.CoinSnapshot{btc, tracker, inverse})
	if matrix == nil {
		t.Fatal("matrix should be computed when a BTC series is present")
	}
	if matrix.BTCSymbol != "BTC" {
		t.Errorf("unexpected base symbol %s", matrix.BTCSymbol)
	}
	if len(matrix.Entries) != 2 {
		t.Fatalf("BTC itself should be excluded, want 2 entries, got %d", len(matrix.Entries))
	}

	ltc, ok := matrix.Entry("LTC")
	if !ok {
		t.Fatal("LTC entry missing")
	}
	if ltc.BTCCorrelation < 0.99 {
		t.Errorf("LTC tracks BTC linearly, want correlation near 1, got %.4f", ltc.BTCCorrelation)
	}
	if ltc.Strength != models.StrengthStrongPositive {
		t.Errorf("expected strong positive label, got %s", ltc.Strength)
	}

	xmr, _ := matrix.Entry("XMR")
	if xmr.BTCCorrelation > -0.99 {
		t.Errorf("XMR moves against BTC, want correlation near -1, got %.4f", xmr.BTCCorrelation)
	}
	if xmr.Strength != models.StrengthStrongNegative {
		t.Errorf("expected strong negative label, got %s", xmr.Strength)
	}
}

func TestEngine_BuildMatrix_NoBTC(t *testing.T) {
	e := NewEngine()

	matrix := e.BuildMatrix([]models.CoinSnapshot{
		{Symbol: "ETH", Sparkline: sparklineOf(1, 2, 3)},
	})
	if matrix != nil {
		t.Error("matrix should be nil without a usable BTC series")
	}

	// BTC present but with a single usable sample
	matrix = e.BuildMatrix([]models.CoinSnapshot{
		{Symbol: "BTC", Sparkline: sparklineOf(50000)},
		{Symbol: "ETH", Sparkline: sparklineOf(1, 2, 3)},
	})
	if matrix != nil {
		t.Error("matrix should be nil when the BTC series is too short")
	}
}

func TestEngine_BuildMatrix_SkipsShortSeries(t *testing.T) {
	e := NewEngine()

	matrix := e.BuildMatrix([]models.CoinSnapshot{
		{Symbol: "BTC", Sparkline: sparklineOf(series(20, func(i int) float64 { return float64(i) })...)},
		{Symbol: "DOT", Sparkline: sparklineOf(7)},
	})
	if matrix == nil {
		t.Fatal("matrix should exist")
	}
	if len(matrix.Entries) != 0 {
		t.Errorf("coin with a 1-sample series should be skipped, got %d entries", len(matrix.Entries))
	}
}

func TestEngine_RotationSignals(t *testing.T) {
	e := NewEngine()

	coins := []models.CoinSnapshot{
		{Symbol: "BTC", Change24h: models.NewDecimal(-3)},
		{Symbol: "XMR", Change24h: models.NewDecimal(4)},
		{Symbol: "LTC", Change24h: models.NewDecimal(-2.5)},
		{Symbol: "DOT", Change24h: models.NewDecimal(1)},
	}
	matrix := &models.CorrelationMatrix{
		BTCSymbol: "BTC",
		Entries: []models.CoinCorrelation{
			{Symbol: "XMR", BTCCorrelation: -0.8}, // inverse, outperforming
			{Symbol: "LTC", BTCCorrelation: 0.9},  // tracks a falling BTC
			{Symbol: "DOT", BTCCorrelation: 0.1},  // no signal either way
		},
	}

	signals := e.RotationSignals(matrix, coins)

	if len(signals) != 2 {
		t.Fatalf("expected 2 rotation signals, got %d", len(signals))
	}

	bySymbol := make(map[string]models.RotationSignal)
	for _, s := range signals {
		bySymbol[s.Symbol] = s
	}

	if s, ok := bySymbol["XMR"]; !ok || s.Action != models.RotationBuy {
		t.Error("inversely correlated outperformer should be a buy candidate")
	}
	if s, ok := bySymbol["LTC"]; !ok || s.Action != models.RotationSell {
		t.Error("strongly correlated coin should be a sell candidate while BTC declines")
	}
	if _, ok := bySymbol["DOT"]; ok {
		t.Error("weakly correlated coin should produce no rotation signal")
	}
}

func TestEngine_RotationSignals_NilMatrix(t *testing.T) {
	e := NewEngine()

	signals := e.RotationSignals(nil, nil)
	if signals == nil {
		t.Fatal("nil matrix should yield an empty list, not nil")
	}
	if len(signals) != 0 {
		t.Errorf("expected no signals, got %d", len(signals))
	}
}

func TestStrengthFor(t *testing.T) {
	cases := []struct {
		r    float64
		want models.CorrelationStrength
	}{
		{0, models.StrengthWeak},
		{0.29, models.StrengthWeak},
		{-0.29, models.StrengthWeak},
		{0.3, models.StrengthModeratePositive},
		{-0.5, models.StrengthModerateNegative},
		{0.7, models.StrengthStrongPositive},
		{-0.95, models.StrengthStrongNegative},
		{1, models.StrengthStrongPositive},
	}

	for _, tc := range cases {
		if got := strengthFor(tc.r); got != tc.want {
			t.Errorf("strengthFor(%.2f) = %s, want %s", tc.r, got, tc.want)
		}
	}
}
