package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/internal/optimizer"
	"github.com/selivandex/market-pulse/internal/sensitivity"
	"github.com/selivandex/market-pulse/pkg/logger"
)

// Advisor periodically reviews the outcome ledger and logs threshold
// suggestions and accuracy insights. It never changes the threshold on
// its own; applying a suggestion stays a deliberate operator action.
type Advisor struct {
	ledger   *optimizer.Ledger
	settings *sensitivity.SettingsStore
}

// NewAdvisor creates an optimizer review worker
func NewAdvisor(ledger *optimizer.Ledger, settings *sensitivity.SettingsStore) *Advisor {
	return &Advisor{ledger: ledger, settings: settings}
}

// Name implements worker.Worker
func (a *Advisor) Name() string {
	return "optimizer-advisor"
}

// Run logs the current ledger insights and any suggested adjustments
func (a *Advisor) Run(ctx context.Context) error {
	current := a.settings.Load(ctx).Threshold

	for _, insight := range a.ledger.Insights(ctx) {
		logger.Info("optimizer insight", zap.String("insight", insight))
	}

	for _, adj := range a.ledger.ThresholdAdjustments(ctx, current) {
		logger.Info("threshold adjustment suggested",
			zap.String("signal_type", string(adj.SignalType)),
			zap.Float64("current", adj.Current),
			zap.Float64("suggested", adj.Suggested),
			zap.String("reason", adj.Reason),
		)
	}

	return nil
}
