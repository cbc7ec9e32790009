package buckets

import (
	"sort"
	"strings"

	"github.com/selivandex/market-pulse/pkg/models"
)

const (
	majorsCount  = 8
	midCapsCount = 20
)

// Classifier partitions a coin list into market-cap buckets
type Classifier struct{}

// NewClassifier creates new bucket classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify partitions the current coin list. BTC and ETH get singleton
// buckets matched by symbol; the remainder is split by market-cap rank:
// 1-8 Majors, 9-28 Mid-caps, rest Micro-caps. Duplicate symbols are
// dropped (first occurrence wins). Deterministic for identical input.
func (c *Classifier) Classify(coins []models.CoinSnapshot) *models.BucketClassification {
	result := &models.BucketClassification{
		Buckets: make(map[models.Bucket][]models.CoinSnapshot, 5),
		Rule:    "BTC/ETH singled out; remainder by cap rank: 1-8 majors, 9-28 mid-caps, 29+ micro-caps",
	}
	for _, b := range models.AllBuckets() {
		result.Buckets[b] = []models.CoinSnapshot{}
	}

	seen := make(map[string]bool, len(coins))
	deduped := make([]models.CoinSnapshot, 0, len(coins))
	for _, coin := range coins {
		key := strings.ToUpper(coin.Symbol)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, coin)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].MarketCap.GreaterThan(deduped[j].MarketCap)
	})

	rank := 0
	for _, coin := range deduped {
		switch {
		case strings.EqualFold(coin.Symbol, "BTC"):
			result.Buckets[models.BucketBTC] = append(result.Buckets[models.BucketBTC], coin)
		case strings.EqualFold(coin.Symbol, "ETH"):
			result.Buckets[models.BucketETH] = append(result.Buckets[models.BucketETH], coin)
		default:
			rank++
			switch {
			case rank <= majorsCount:
				result.Buckets[models.BucketMajors] = append(result.Buckets[models.BucketMajors], coin)
			case rank <= majorsCount+midCapsCount:
				result.Buckets[models.BucketMidCaps] = append(result.Buckets[models.BucketMidCaps], coin)
			default:
				result.Buckets[models.BucketMicroCaps] = append(result.Buckets[models.BucketMicroCaps], coin)
			}
		}
	}

	return result
}
