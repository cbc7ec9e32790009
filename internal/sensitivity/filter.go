package sensitivity

import "github.com/selivandex/market-pulse/pkg/models"

// Filter keeps the signals whose trade success probability clears the
// threshold. Pure: no state beyond the threshold argument, input order
// preserved. Monotonic: raising the threshold only removes signals.
func Filter(signals []models.ZoneSignal, threshold float64) []models.ZoneSignal {
	out := make([]models.ZoneSignal, 0, len(signals))
	for _, s := range signals {
		if s.Probability >= threshold {
			out = append(out, s)
		}
	}
	return out
}

// FilterVariants applies Filter to every variant list
func FilterVariants(lists map[models.SignalVariant][]models.ZoneSignal, threshold float64) map[models.SignalVariant][]models.ZoneSignal {
	out := make(map[models.SignalVariant][]models.ZoneSignal, len(lists))
	for variant, signals := range lists {
		out[variant] = Filter(signals, threshold)
	}
	return out
}
