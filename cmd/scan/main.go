package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/selivandex/market-pulse/internal/adapters/marketdata"
	"github.com/selivandex/market-pulse/internal/buckets"
	"github.com/selivandex/market-pulse/internal/correlation"
	"github.com/selivandex/market-pulse/internal/indicators"
	"github.com/selivandex/market-pulse/internal/rotation"
	"github.com/selivandex/market-pulse/internal/sensitivity"
	"github.com/selivandex/market-pulse/internal/zones"
	"github.com/selivandex/market-pulse/pkg/logger"
	"github.com/selivandex/market-pulse/pkg/models"
)

// scan runs a single pipeline pass against live market data and prints
// the results to stdout. Useful for eyeballing signal quality without
// running the full dashboard service.
func main() {
	// Parse flags
	var (
		topN      = flag.Int("top", 100, "Number of coins to scan by market cap")
		threshold = flag.Float64("threshold", models.DefaultThreshold, "Sensitivity threshold (50-90)")
		projected = flag.Bool("projected", false, "Also print projected (partially qualified) signals")
		timeout   = flag.Duration("timeout", 30*time.Second, "Fetch timeout")
	)

	flag.Parse()

	// Initialize logger
	if err := logger.Init("warn", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	provider := marketdata.NewCoinGeckoProvider(*topN, 0)

	coins, err := provider.FetchCoins(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch market data: %v\n", err)
		os.Exit(1)
	}

	coins = indicators.NewCalculator().Enrich(coins)

	classification := buckets.NewClassifier().Classify(coins)
	phase := rotation.NewEngine().Detect(classification)

	result := zones.NewEngine(zones.DefaultPolicy()).Evaluate(coins)
	active := sensitivity.FilterVariants(result.Active, models.ClampThreshold(*threshold))

	corr := correlation.NewEngine()
	matrix := corr.BuildMatrix(coins)
	rotSignals := corr.RotationSignals(matrix, coins)

	fmt.Printf("Scanned %d coins\n\n", len(coins))

	fmt.Printf("Market phase: %s (confidence %.0f%%)\n", phase.Phase, phase.Confidence)
	for _, s := range phase.Signals {
		fmt.Printf("  - %s\n", s)
	}
	fmt.Println()

	fmt.Println("Buckets:")
	for _, bucket := range models.AllBuckets() {
		fmt.Printf("  %-10s %d coins\n", bucket, len(classification.Buckets[bucket]))
	}
	fmt.Println()

	printSignals("Active signals", active, *threshold)
	if *projected {
		printSignals("Projected signals", result.Projected, 0)
	}

	if len(rotSignals) > 0 {
		fmt.Println("Rotation signals:")
		for _, s := range rotSignals {
			fmt.Printf("  %-6s %-5s corr=%+.2f 24h=%+.1f%%  %s\n",
				s.Symbol, s.Action, s.Correlation, s.Change24h, s.Reason)
		}
	}
}

func printSignals(title string, lists map[models.SignalVariant][]models.ZoneSignal, threshold float64) {
	total := 0
	for _, signals := range lists {
		total += len(signals)
	}

	if threshold > 0 {
		fmt.Printf("%s (threshold %.0f): %d\n", title, threshold, total)
	} else {
		fmt.Printf("%s: %d\n", title, total)
	}

	variants := models.Variants()
	sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })

	for _, variant := range variants {
		for _, s := range lists[variant] {
			line := fmt.Sprintf("  [%-11s] %-6s p=%.0f%% %-6s %s",
				variant, s.Symbol, s.Probability, s.Confidence, s.Recommendation)
			if s.AwaitingCondition != "" {
				line += fmt.Sprintf(" (awaiting %s)", s.AwaitingCondition)
			}
			fmt.Println(line)
		}
	}
	fmt.Println()
}
