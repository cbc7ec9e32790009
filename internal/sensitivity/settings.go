package sensitivity

import (
	"context"
	"fmt"
	"time"

	"github.com/selivandex/market-pulse/pkg/kvstore"
	"github.com/selivandex/market-pulse/pkg/models"
)

const (
	settingsKey = "sensitivity_settings"
	historyKey  = "sensitivity_performance"

	// historyLimit bounds the persisted performance history
	historyLimit = 100
)

// SettingsStore persists the process-wide sensitivity configuration and
// its performance history in the key-value store
type SettingsStore struct {
	store kvstore.Store
}

// NewSettingsStore creates new settings store
func NewSettingsStore(store kvstore.Store) *SettingsStore {
	return &SettingsStore{store: store}
}

// Load returns the persisted settings, falling back to defaults when
// nothing usable is stored
func (s *SettingsStore) Load(ctx context.Context) models.SensitivitySettings {
	settings := models.DefaultSensitivity()
	if kvstore.GetJSON(ctx, s.store, settingsKey, &settings) {
		// Re-derive the clamped threshold and mode in case the stored
		// value was written by an older build or edited by hand.
		settings.Threshold = models.ClampThreshold(settings.Threshold)
		settings.Mode = models.ModeFor(settings.Threshold)
	}
	return settings
}

// Seed persists the configured default threshold, but only when no
// settings were stored yet. A previously saved user choice wins.
func (s *SettingsStore) Seed(ctx context.Context, threshold float64) error {
	var existing models.SensitivitySettings
	if kvstore.GetJSON(ctx, s.store, settingsKey, &existing) {
		return nil
	}
	_, err := s.Save(ctx, threshold)
	return err
}

// Save clamps and persists a new threshold, returning the stored settings
func (s *SettingsStore) Save(ctx context.Context, threshold float64) (models.SensitivitySettings, error) {
	settings := models.SensitivitySettings{
		Threshold: models.ClampThreshold(threshold),
		UpdatedAt: time.Now(),
	}
	settings.Mode = models.ModeFor(settings.Threshold)

	if err := kvstore.SetJSON(ctx, s.store, settingsKey, settings); err != nil {
		return settings, fmt.Errorf("failed to persist sensitivity settings: %w", err)
	}
	return settings, nil
}

// RecordPerformance appends a sample to the bounded history
func (s *SettingsStore) RecordPerformance(ctx context.Context, sample models.PerformanceSample) error {
	history := s.History(ctx)
	history = append(history, sample)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	if err := kvstore.SetJSON(ctx, s.store, historyKey, history); err != nil {
		return fmt.Errorf("failed to persist sensitivity history: %w", err)
	}
	return nil
}

// History returns the persisted performance samples, empty when absent
func (s *SettingsStore) History(ctx context.Context) []models.PerformanceSample {
	history := []models.PerformanceSample{}
	kvstore.GetJSON(ctx, s.store, historyKey, &history)
	return history
}
