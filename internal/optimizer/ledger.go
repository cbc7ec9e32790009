package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/pkg/kvstore"
	"github.com/selivandex/market-pulse/pkg/logger"
	"github.com/selivandex/market-pulse/pkg/models"
)

const (
	outcomesKey = "signal_outcomes"

	// retention bounds the outcome log; older records are dropped on
	// every write
	retention = 30 * 24 * time.Hour

	// minSampleSize completed outcomes are required per signal type
	// before a threshold adjustment is proposed
	minSampleSize = 5

	raiseBelowRate     = 60.0
	raiseStep          = 10.0
	lowerAboveRate     = 80.0
	lowerMinConfidence = 75.0
	lowerStep          = 5.0

	accuracyWeight   = 0.7
	confidenceWeight = 0.3
)

// Ledger is the adaptive-threshold feedback loop: it records each
// emitted signal's prediction, reconciles against realized price change
// and recomputes suggested thresholds from historical success rate.
// The outcome log is owned exclusively by the ledger.
type Ledger struct {
	store kvstore.Store
}

// NewLedger creates new optimizer ledger
func NewLedger(store kvstore.Store) *Ledger {
	return &Ledger{store: store}
}

// Record appends an outcome for a freshly emitted signal. The predicted
// direction is inferred from the signal variant.
func (l *Ledger) Record(ctx context.Context, signal models.ZoneSignal, timeframe string) (models.SignalOutcome, error) {
	outcome := models.SignalOutcome{
		ID:                  uuid.New(),
		Symbol:              signal.Symbol,
		SignalType:          signal.Variant,
		Timestamp:           time.Now(),
		PredictedDirection:  signal.Variant.PredictedDirection(),
		PredictedConfidence: signal.Probability,
		Timeframe:           timeframe,
		PriceAtSignal:       signal.Price,
		Status:              models.OutcomePending,
	}

	outcomes := l.load(ctx)
	outcomes = append(outcomes, outcome)

	if err := l.save(ctx, outcomes); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Reconcile resolves the oldest still-pending record for symbol+type
// against the realized price change. At most one record is resolved per
// call; returns nil when nothing matched.
func (l *Ledger) Reconcile(ctx context.Context, symbol string, signalType models.SignalVariant, actualChange float64) (*models.SignalOutcome, error) {
	outcomes := l.load(ctx)

	idx := -1
	for i, o := range outcomes {
		if o.Status != models.OutcomePending || o.Symbol != symbol || o.SignalType != signalType {
			continue
		}
		if idx == -1 || o.Timestamp.Before(outcomes[idx].Timestamp) {
			idx = i
		}
	}
	if idx == -1 {
		return nil, nil
	}

	resolved := &outcomes[idx]
	resolved.ActualChange = actualChange
	resolved.ReconciledAt = time.Now()

	matched := (resolved.PredictedDirection == models.DirectionUp && actualChange > 0) ||
		(resolved.PredictedDirection == models.DirectionDown && actualChange < 0)
	if matched {
		resolved.Status = models.OutcomeSuccess
	} else {
		resolved.Status = models.OutcomeFailure
	}

	logger.Debug("signal outcome reconciled",
		zap.String("symbol", symbol),
		zap.String("type", string(signalType)),
		zap.String("status", string(resolved.Status)),
		zap.Float64("actual_change", actualChange),
	)

	result := *resolved
	if err := l.save(ctx, outcomes); err != nil {
		return nil, err
	}
	return &result, nil
}

// Outcomes returns the current log
func (l *Ledger) Outcomes(ctx context.Context) []models.SignalOutcome {
	return l.load(ctx)
}

// PendingDue returns, per symbol+type, the oldest pending outcome that
// has been open for at least age and is ready to reconcile
func (l *Ledger) PendingDue(ctx context.Context, age time.Duration) []models.SignalOutcome {
	cutoff := time.Now().Add(-age)

	type key struct {
		symbol string
		kind   models.SignalVariant
	}
	oldest := make(map[key]models.SignalOutcome)

	for _, o := range l.load(ctx) {
		if o.Status != models.OutcomePending || o.Timestamp.After(cutoff) {
			continue
		}
		k := key{o.Symbol, o.SignalType}
		if prev, ok := oldest[k]; !ok || o.Timestamp.Before(prev.Timestamp) {
			oldest[k] = o
		}
	}

	due := make([]models.SignalOutcome, 0, len(oldest))
	for _, o := range oldest {
		due = append(due, o)
	}
	return due
}

// Metrics aggregates the log: accuracy over completed outcomes and the
// optimization score blending accuracy with average predicted confidence
func (l *Ledger) Metrics(ctx context.Context) models.LedgerMetrics {
	outcomes := l.load(ctx)

	m := models.LedgerMetrics{Total: len(outcomes)}
	var confidenceSum float64

	for _, o := range outcomes {
		switch o.Status {
		case models.OutcomeSuccess:
			m.Successes++
			confidenceSum += o.PredictedConfidence
		case models.OutcomeFailure:
			m.Failures++
			confidenceSum += o.PredictedConfidence
		default:
			m.Pending++
		}
	}

	completed := m.Successes + m.Failures
	if completed > 0 {
		m.Accuracy = float64(m.Successes) / float64(completed) * 100
		m.AvgConfidence = confidenceSum / float64(completed)
	}

	m.OptimizationScore = accuracyWeight*m.Accuracy + confidenceWeight*m.AvgConfidence
	if m.OptimizationScore > 100 {
		m.OptimizationScore = 100
	}

	return m
}

// ThresholdAdjustments proposes sensitivity changes per signal type from
// historical success rate. Types with fewer than minSampleSize completed
// outcomes are left alone.
func (l *Ledger) ThresholdAdjustments(ctx context.Context, current float64) []models.ThresholdAdjustment {
	type stats struct {
		completed     int
		successes     int
		confidenceSum float64
	}

	byType := make(map[models.SignalVariant]*stats)
	for _, o := range l.load(ctx) {
		if o.Status == models.OutcomePending {
			continue
		}
		s := byType[o.SignalType]
		if s == nil {
			s = &stats{}
			byType[o.SignalType] = s
		}
		s.completed++
		s.confidenceSum += o.PredictedConfidence
		if o.Status == models.OutcomeSuccess {
			s.successes++
		}
	}

	adjustments := []models.ThresholdAdjustment{}
	for _, variant := range models.Variants() {
		s := byType[variant]
		if s == nil || s.completed < minSampleSize {
			continue
		}

		rate := float64(s.successes) / float64(s.completed) * 100
		avgConfidence := s.confidenceSum / float64(s.completed)

		switch {
		case rate < raiseBelowRate:
			suggested := current + raiseStep
			if suggested > models.MaxThreshold {
				suggested = models.MaxThreshold
			}
			if suggested == current {
				continue
			}
			adjustments = append(adjustments, models.ThresholdAdjustment{
				SignalType: variant,
				Current:    current,
				Suggested:  suggested,
				Reason: fmt.Sprintf("%s signals succeeding only %.0f%% of the time over %d outcomes, raising bar to cut weak setups",
					variant, rate, s.completed),
			})

		case rate > lowerAboveRate && avgConfidence > lowerMinConfidence:
			suggested := current - lowerStep
			if suggested < models.MinThreshold {
				suggested = models.MinThreshold
			}
			if suggested == current {
				continue
			}
			adjustments = append(adjustments, models.ThresholdAdjustment{
				SignalType: variant,
				Current:    current,
				Suggested:  suggested,
				Reason: fmt.Sprintf("%s signals succeeding %.0f%% of the time at %.0f avg confidence, lowering bar to surface more setups",
					variant, rate, avgConfidence),
			})
		}
	}

	return adjustments
}

// Insights produces rule-based commentary over the aggregates
func (l *Ledger) Insights(ctx context.Context) []string {
	m := l.Metrics(ctx)
	insights := []string{}

	completed := m.Successes + m.Failures
	if completed == 0 {
		insights = append(insights, "no completed outcomes yet, keep collecting signal history")
		return insights
	}

	switch {
	case m.Accuracy >= 70:
		insights = append(insights, fmt.Sprintf("signal accuracy strong at %.0f%% over %d completed outcomes", m.Accuracy, completed))
	case m.Accuracy >= 50:
		insights = append(insights, fmt.Sprintf("signal accuracy middling at %.0f%%, consider a higher sensitivity threshold", m.Accuracy))
	default:
		insights = append(insights, fmt.Sprintf("signal accuracy weak at %.0f%%, current thresholds are letting noise through", m.Accuracy))
	}

	if m.Pending > completed {
		insights = append(insights, fmt.Sprintf("%d outcomes still pending reconciliation", m.Pending))
	}
	insights = append(insights, fmt.Sprintf("optimization score %.0f/100", m.OptimizationScore))

	return insights
}

// load reads the outcome log, empty on missing or corrupt state
func (l *Ledger) load(ctx context.Context) []models.SignalOutcome {
	outcomes := []models.SignalOutcome{}
	kvstore.GetJSON(ctx, l.store, outcomesKey, &outcomes)
	return outcomes
}

// save prunes expired records and persists the log
func (l *Ledger) save(ctx context.Context, outcomes []models.SignalOutcome) error {
	cutoff := time.Now().Add(-retention)
	kept := outcomes[:0]
	for _, o := range outcomes {
		if o.Timestamp.After(cutoff) {
			kept = append(kept, o)
		}
	}

	if err := kvstore.SetJSON(ctx, l.store, outcomesKey, kept); err != nil {
		return fmt.Errorf("failed to persist outcome log: %w", err)
	}
	return nil
}
