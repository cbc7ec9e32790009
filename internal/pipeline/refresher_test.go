package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/selivandex/market-pulse/internal/journal"
	"github.com/selivandex/market-pulse/internal/optimizer"
	"github.com/selivandex/market-pulse/internal/sensitivity"
	"github.com/selivandex/market-pulse/pkg/kvstore"
	"github.com/selivandex/market-pulse/pkg/models"
)

// fakeProvider serves a canned coin list, or an error when failing
type fakeProvider struct {
	coins   []models.CoinSnapshot
	failing bool
	calls   int
}

func (f *fakeProvider) FetchCoins(_ context.Context) ([]models.CoinSnapshot, error) {
	f.calls++
	if f.failing {
		return nil, errors.New("upstream unavailable")
	}
	return f.coins, nil
}

func (f *fakeProvider) GetName() string { return "fake" }

func testMarket() []models.CoinSnapshot {
	coins := []models.CoinSnapshot{}
	symbols := []string{"BTC", "ETH", "SOL", "ADA", "DOT"}
	for i, symbol := range symbols {
		price := 1000.0 / float64(i+1)
		spark := make(models.Sparkline, 24)
		for j := range spark {
			v := price * (1 + float64(j)*0.005)
			spark[j] = &v
		}
		coins = append(coins, models.CoinSnapshot{
			Symbol:    symbol,
			Name:      symbol,
			Price:     models.NewDecimal(price),
			Change24h: models.NewDecimal(float64(i) - 2),
			MarketCap: models.NewDecimal(1_000_000 / float64(i+1)),
			Sparkline: spark,
		})
	}
	return coins
}

func newTestRefresher(provider *fakeProvider) *Refresher {
	store := kvstore.NewMemory()
	return NewRefresher(
		provider,
		sensitivity.NewSettingsStore(store),
		optimizer.NewLedger(store),
		journal.NewStore(store),
		24*time.Hour,
		Options{},
	)
}

func TestRefresher_Run(t *testing.T) {
	provider := &fakeProvider{coins: testMarket()}
	r := newTestRefresher(provider)

	if r.Snapshot() != nil {
		t.Fatal("snapshot should be nil before the first tick")
	}

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := r.Snapshot()
	if snap == nil {
		t.Fatal("snapshot should exist after a successful tick")
	}
	if snap.Seq != 1 {
		t.Errorf("first tick should carry seq 1, got %d", snap.Seq)
	}
	if len(snap.Coins) != 5 {
		t.Errorf("snapshot should hold the fetched coins, got %d", len(snap.Coins))
	}
	if snap.Classification == nil || snap.Classification.Count() != 5 {
		t.Error("snapshot should carry a full classification")
	}
	if snap.Phase.Phase == "" {
		t.Error("snapshot should carry a detected phase")
	}
	if snap.Threshold != models.DefaultThreshold {
		t.Errorf("snapshot threshold should default to %d, got %.0f", models.DefaultThreshold, snap.Threshold)
	}
	for _, v := range models.Variants() {
		if snap.Active[v] == nil || snap.Projected[v] == nil {
			t.Errorf("variant %s lists should be initialized", v)
		}
	}

	// Indicators were computed before classification
	for _, coin := range snap.Coins {
		if !coin.Indicators.Valid {
			t.Errorf("%s should have computed indicators", coin.Symbol)
		}
	}
}

func TestRefresher_FetchFailureKeepsSnapshot(t *testing.T) {
	provider := &fakeProvider{coins: testMarket()}
	r := newTestRefresher(provider)
	ctx := context.Background()

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	applied := r.Snapshot()

	provider.failing = true
	if err := r.Run(ctx); err == nil {
		t.Fatal("failed fetch should surface an error")
	}

	if r.Snapshot() != applied {
		t.Error("failed tick must keep the previous snapshot")
	}
	if r.Snapshot().Seq != 1 {
		t.Error("failed tick must not advance the applied sequence")
	}
}

func TestRefresher_SequenceAdvances(t *testing.T) {
	provider := &fakeProvider{coins: testMarket()}
	r := newTestRefresher(provider)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := r.Run(ctx); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
		if r.Snapshot().Seq != uint64(i) {
			t.Errorf("tick %d should carry seq %d, got %d", i, i, r.Snapshot().Seq)
		}
	}
	if provider.calls != 3 {
		t.Errorf("provider should be called once per tick, got %d", provider.calls)
	}
}

func TestRefresher_EmptyMarket(t *testing.T) {
	provider := &fakeProvider{coins: []models.CoinSnapshot{}}
	r := newTestRefresher(provider)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("empty market should still complete the tick: %v", err)
	}

	snap := r.Snapshot()
	if snap == nil {
		t.Fatal("empty market should still publish a snapshot")
	}
	if snap.Phase.Phase != models.PhaseInsufficientData {
		t.Errorf("empty market should detect the insufficient-data phase, got %s", snap.Phase.Phase)
	}
	if countSignals(snap.Active) != 0 || countSignals(snap.Projected) != 0 {
		t.Error("empty market should produce no signals")
	}
	if snap.Matrix != nil {
		t.Error("empty market should produce no correlation matrix")
	}
}

func TestRefresher_NoDuplicateOutcomeRecords(t *testing.T) {
	// Two ticks of an identical market must not grow the outcome log:
	// signals that stay active are recorded once, and a market without
	// active signals records nothing at all
	provider := &fakeProvider{coins: testMarket()}
	store := kvstore.NewMemory()
	ledger := optimizer.NewLedger(store)
	r := NewRefresher(
		provider,
		sensitivity.NewSettingsStore(store),
		ledger,
		journal.NewStore(store),
		24*time.Hour,
		Options{},
	)
	ctx := context.Background()

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	first := len(ledger.Outcomes(ctx))

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second := len(ledger.Outcomes(ctx))

	if second != first {
		t.Errorf("signals active on consecutive ticks must be recorded once: %d then %d", first, second)
	}
}
