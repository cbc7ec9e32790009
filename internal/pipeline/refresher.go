package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/internal/adapters/marketdata"
	"github.com/selivandex/market-pulse/internal/adapters/metrics"
	"github.com/selivandex/market-pulse/internal/adapters/telegram"
	"github.com/selivandex/market-pulse/internal/buckets"
	"github.com/selivandex/market-pulse/internal/correlation"
	"github.com/selivandex/market-pulse/internal/indicators"
	"github.com/selivandex/market-pulse/internal/journal"
	"github.com/selivandex/market-pulse/internal/optimizer"
	"github.com/selivandex/market-pulse/internal/rotation"
	"github.com/selivandex/market-pulse/internal/sensitivity"
	"github.com/selivandex/market-pulse/internal/zones"
	"github.com/selivandex/market-pulse/pkg/logger"
	"github.com/selivandex/market-pulse/pkg/models"
)

// Snapshot is the read-only pipeline output for one tick. Consumers get
// copies and must not mutate anything inside.
type Snapshot struct {
	Seq       uint64
	FetchedAt time.Time

	Coins          []models.CoinSnapshot
	Classification *models.BucketClassification
	Phase          models.PhaseResult
	Dominance      models.DominanceMetrics

	// Active holds the threshold-filtered signals per variant; Projected
	// holds the partially qualified ones (unfiltered). ZoneActive counts
	// the fully qualified signals before the sensitivity cut.
	Active     map[models.SignalVariant][]models.ZoneSignal
	Projected  map[models.SignalVariant][]models.ZoneSignal
	ZoneActive int

	Matrix          *models.CorrelationMatrix
	RotationSignals []models.RotationSignal

	Threshold     float64
	LedgerMetrics models.LedgerMetrics
}

// Refresher runs the full signal pipeline once per tick: fetch, enrich,
// classify, score, filter, publish. It implements worker.Worker so the
// cmd layer can drive it on an interval. All derived computation is
// synchronous; the only suspension point is the upstream fetch.
type Refresher struct {
	provider  marketdata.Provider
	stream    *marketdata.TickerStream
	calc      *indicators.Calculator
	buckets   *buckets.Classifier
	zones     *zones.Engine
	corr      *correlation.Engine
	rotation  *rotation.Engine
	settings  *sensitivity.SettingsStore
	ledger    *optimizer.Ledger
	journal   *journal.Store
	notifier  *telegram.Notifier
	sink      *metrics.ClickHouseSink
	timeframe time.Duration

	mu         sync.RWMutex
	fetchSeq   uint64
	appliedSeq uint64
	snapshot   *Snapshot
	prevActive map[string]bool
	prevPhase  models.PhaseResult
}

// Options carries the optional pipeline collaborators
type Options struct {
	Stream   *marketdata.TickerStream
	Notifier *telegram.Notifier
	Sink     *metrics.ClickHouseSink
}

// NewRefresher creates a pipeline refresher. The notifier, stream and
// metrics sink are optional.
func NewRefresher(
	provider marketdata.Provider,
	settings *sensitivity.SettingsStore,
	ledger *optimizer.Ledger,
	trades *journal.Store,
	timeframe time.Duration,
	opts Options,
) *Refresher {
	return &Refresher{
		provider:   provider,
		stream:     opts.Stream,
		calc:       indicators.NewCalculator(),
		buckets:    buckets.NewClassifier(),
		zones:      zones.NewEngine(zones.DefaultPolicy()),
		corr:       correlation.NewEngine(),
		rotation:   rotation.NewEngine(),
		settings:   settings,
		ledger:     ledger,
		journal:    trades,
		notifier:   opts.Notifier,
		sink:       opts.Sink,
		timeframe:  timeframe,
		prevActive: make(map[string]bool),
	}
}

// Name implements worker.Worker
func (r *Refresher) Name() string {
	return "pipeline-refresher"
}

// Snapshot returns the latest published snapshot, nil before the first
// successful tick
func (r *Refresher) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Run executes one refresh tick. A fetch failure skips the tick and
// keeps the previous snapshot; stale fetch results (an older sequence
// resolving after a newer one was applied) are discarded.
func (r *Refresher) Run(ctx context.Context) error {
	r.mu.Lock()
	r.fetchSeq++
	seq := r.fetchSeq
	r.mu.Unlock()

	coins, err := r.provider.FetchCoins(ctx)
	if err != nil {
		return fmt.Errorf("market data fetch failed: %w", err)
	}
	if r.stream != nil {
		coins = r.stream.Overlay(coins)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq <= r.appliedSeq && r.appliedSeq != 0 {
		logger.Warn("discarding stale fetch result",
			zap.Uint64("seq", seq),
			zap.Uint64("applied_seq", r.appliedSeq),
		)
		return nil
	}

	snap := r.compute(ctx, seq, coins)
	r.appliedSeq = seq
	r.snapshot = snap

	r.publish(ctx, snap)

	logger.Info("pipeline tick applied",
		zap.Uint64("seq", seq),
		zap.Int("coins", len(snap.Coins)),
		zap.String("phase", string(snap.Phase.Phase)),
		zap.Int("active_signals", countSignals(snap.Active)),
	)

	return nil
}

// compute runs every pipeline stage over the fetched coin list
func (r *Refresher) compute(ctx context.Context, seq uint64, coins []models.CoinSnapshot) *Snapshot {
	enriched := r.calc.Enrich(coins)

	classification := r.buckets.Classify(enriched)
	phase := r.rotation.Detect(classification)
	dominance := r.rotation.Metrics(classification)

	zoneResult := r.zones.Evaluate(enriched)

	settings := r.settings.Load(ctx)
	active := sensitivity.FilterVariants(zoneResult.Active, settings.Threshold)

	matrix := r.corr.BuildMatrix(enriched)
	rotSignals := r.corr.RotationSignals(matrix, enriched)

	r.recordNewSignals(ctx, active)
	r.reconcileDue(ctx, enriched)

	return &Snapshot{
		Seq:             seq,
		FetchedAt:       time.Now(),
		Coins:           enriched,
		Classification:  classification,
		Phase:           phase,
		Dominance:       dominance,
		Active:          active,
		Projected:       zoneResult.Projected,
		ZoneActive:      zoneResult.ActiveCount(),
		Matrix:          matrix,
		RotationSignals: rotSignals,
		Threshold:       settings.Threshold,
		LedgerMetrics:   r.ledger.Metrics(ctx),
	}
}

// recordNewSignals logs newly active signals into the optimizer ledger
// and the trade journal. Signals still active from the previous tick are
// not re-recorded.
func (r *Refresher) recordNewSignals(ctx context.Context, active map[models.SignalVariant][]models.ZoneSignal) {
	current := make(map[string]bool)
	timeframe := r.timeframe.String()

	for variant, signals := range active {
		for _, signal := range signals {
			key := string(variant) + ":" + signal.Symbol
			current[key] = true
			if r.prevActive[key] {
				continue
			}

			outcome, err := r.ledger.Record(ctx, signal, timeframe)
			if err != nil {
				logger.Warn("failed to record signal outcome",
					zap.String("symbol", signal.Symbol),
					zap.Error(err),
				)
				continue
			}

			if _, err := r.journal.Append(ctx, models.JournalEntry{
				Symbol:     signal.Symbol,
				SignalType: signal.Variant,
				Confidence: signal.Confidence,
				EntryPrice: signal.Price,
				Outcome:    "open",
				AlertID:    outcome.ID.String(),
			}); err != nil {
				logger.Warn("failed to append journal entry",
					zap.String("symbol", signal.Symbol),
					zap.Error(err),
				)
			}
		}
	}

	r.prevActive = current
}

// reconcileDue resolves pending outcomes whose timeframe has elapsed,
// using the realized change from the recorded price to the current one
func (r *Refresher) reconcileDue(ctx context.Context, coins []models.CoinSnapshot) {
	prices := make(map[string]float64, len(coins))
	for _, coin := range coins {
		price, _ := coin.Price.Float64()
		prices[coin.Symbol] = price
	}

	for _, due := range r.ledger.PendingDue(ctx, r.timeframe) {
		current, ok := prices[due.Symbol]
		if !ok || current <= 0 {
			continue
		}
		recorded, _ := due.PriceAtSignal.Float64()
		if recorded <= 0 {
			continue
		}

		change := (current - recorded) / recorded * 100
		if _, err := r.ledger.Reconcile(ctx, due.Symbol, due.SignalType, change); err != nil {
			logger.Warn("failed to reconcile signal outcome",
				zap.String("symbol", due.Symbol),
				zap.Error(err),
			)
		}
	}
}

// publish pushes the tick to the optional side consumers
func (r *Refresher) publish(ctx context.Context, snap *Snapshot) {
	activeCount := countSignals(snap.Active)

	if err := r.settings.RecordPerformance(ctx, models.PerformanceSample{
		Timestamp:      snap.FetchedAt,
		Threshold:      snap.Threshold,
		ActiveSignals:  activeCount,
		AvgProbability: avgProbability(snap.Active),
	}); err != nil {
		logger.Warn("failed to record sensitivity performance", zap.Error(err))
	}

	if r.notifier != nil {
		r.notifier.NotifyActiveSignals(snap.Active)
		if r.prevPhase.Phase != "" {
			if err := r.notifier.NotifyPhaseChange(r.prevPhase, snap.Phase); err != nil {
				logger.Warn("failed to send phase change alert", zap.Error(err))
			}
		}
	}
	r.prevPhase = snap.Phase

	if r.sink != nil {
		buys, sells := 0, 0
		for _, s := range snap.RotationSignals {
			if s.Action == models.RotationBuy {
				buys++
			} else {
				sells++
			}
		}

		if err := r.sink.WriteTick(ctx, metrics.TickRecord{
			Timestamp:       snap.FetchedAt,
			Coins:           len(snap.Coins),
			ActiveSignals:   snap.ZoneActive,
			FilteredSignals: activeCount,
			Projected:       countSignals(snap.Projected),
			Phase:           string(snap.Phase.Phase),
			PhaseConfidence: snap.Phase.Confidence,
			Threshold:       snap.Threshold,
			RotationBuys:    buys,
			RotationSells:   sells,
		}); err != nil {
			logger.Warn("failed to write tick metrics", zap.Error(err))
		}
	}
}

func countSignals(lists map[models.SignalVariant][]models.ZoneSignal) int {
	n := 0
	for _, signals := range lists {
		n += len(signals)
	}
	return n
}

func avgProbability(lists map[models.SignalVariant][]models.ZoneSignal) float64 {
	sum, n := 0.0, 0
	for _, signals := range lists {
		for _, s := range signals {
			sum += s.Probability
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
