package sensitivity

import (
	"testing"

	"github.com/selivandex/market-pulse/pkg/models"
)

func signalWithProbability(symbol string, p float64) models.ZoneSignal {
	return models.ZoneSignal{
		Variant:     models.VariantEntry,
		Symbol:      symbol,
		Probability: p,
	}
}

func TestFilter(t *testing.T) {
	signals := []models.ZoneSignal{
		signalWithProbability("A", 85),
		signalWithProbability("B", 70),
		signalWithProbability("C", 55),
		signalWithProbability("D", 40),
	}

	out := Filter(signals, 70)

	if len(out) != 2 {
		t.Fatalf("threshold 70 should keep 2 signals, got %d", len(out))
	}
	if out[0].Symbol != "A" || out[1].Symbol != "B" {
		t.Error("filter should preserve input order")
	}
}

func TestFilter_ThresholdIsInclusive(t *testing.T) {
	out := Filter([]models.ZoneSignal{signalWithProbability("A", 70)}, 70)
	if len(out) != 1 {
		t.Error("a signal exactly at the threshold should pass")
	}
}

func TestFilter_Monotonic(t *testing.T) {
	signals := []models.ZoneSignal{
		signalWithProbability("A", 91),
		signalWithProbability("B", 77),
		signalWithProbability("C", 64),
		signalWithProbability("D", 52),
		signalWithProbability("E", 12),
	}

	prev := len(signals) + 1
	for threshold := 50.0; threshold <= 90; threshold += 5 {
		kept := Filter(signals, threshold)
		if len(kept) > prev {
			t.Fatalf("raising threshold to %.0f grew the result from %d to %d", threshold, prev, len(kept))
		}

		// Subset property: everything kept at a higher threshold was
		// kept at the lower one too
		for _, s := range kept {
			if s.Probability < threshold {
				t.Errorf("signal %s with p=%.0f leaked through threshold %.0f", s.Symbol, s.Probability, threshold)
			}
		}
		prev = len(kept)
	}
}

func TestFilter_Empty(t *testing.T) {
	out := Filter(nil, 70)
	if out == nil {
		t.Fatal("filter should return an empty slice, not nil")
	}
	if len(out) != 0 {
		t.Errorf("expected no signals, got %d", len(out))
	}
}

func TestFilterVariants(t *testing.T) {
	lists := map[models.SignalVariant][]models.ZoneSignal{
		models.VariantEntry: {
			signalWithProbability("A", 90),
			signalWithProbability("B", 30),
		},
		models.VariantShortEntry: {
			signalWithProbability("C", 75),
		},
	}

	out := FilterVariants(lists, 70)

	if len(out[models.VariantEntry]) != 1 {
		t.Errorf("entry list should keep 1 signal, got %d", len(out[models.VariantEntry]))
	}
	if len(out[models.VariantShortEntry]) != 1 {
		t.Errorf("short entry list should keep 1 signal, got %d", len(out[models.VariantShortEntry]))
	}

	// Originals untouched
	if len(lists[models.VariantEntry]) != 2 {
		t.Error("filtering must not mutate the input lists")
	}
}
