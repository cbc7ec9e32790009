package models

import "time"

// Bucket is one of the five market-cap groupings used for rotation analysis
type Bucket string

const (
	BucketBTC       Bucket = "BTC"
	BucketETH       Bucket = "ETH"
	BucketMajors    Bucket = "Majors"
	BucketMidCaps   Bucket = "Mid-caps"
	BucketMicroCaps Bucket = "Micro-caps"
)

// AllBuckets lists buckets in descending cap order
func AllBuckets() []Bucket {
	return []Bucket{BucketBTC, BucketETH, BucketMajors, BucketMidCaps, BucketMicroCaps}
}

// BucketClassification partitions a coin list into the five buckets.
// Every coin with a market cap appears in exactly one bucket; the BTC and
// ETH buckets hold at most one coin each, matched by symbol.
type BucketClassification struct {
	Buckets map[Bucket][]CoinSnapshot `json:"buckets"`
	Rule    string                    `json:"rule"`
}

// Count returns the total number of classified coins
func (bc *BucketClassification) Count() int {
	n := 0
	for _, coins := range bc.Buckets {
		n += len(coins)
	}
	return n
}

// RotationPhase is the inferred regime of capital flow between segments
type RotationPhase string

const (
	PhaseBTCDominance     RotationPhase = "BTC Dominance"
	PhaseBTCAccumulation  RotationPhase = "BTC Accumulation"
	PhaseRotationToETH    RotationPhase = "Rotation to ETH"
	PhaseAltcoinSeason    RotationPhase = "Altcoin Season"
	PhaseRiskOff          RotationPhase = "Risk-Off"
	PhaseConsolidation    RotationPhase = "Consolidation"
	PhaseInsufficientData RotationPhase = "Insufficient Data"
)

// PhaseResult carries the detected phase with its confidence and the
// textual metrics that support it
type PhaseResult struct {
	Phase      RotationPhase `json:"phase"`
	Confidence float64       `json:"confidence"` // 0-100
	Signals    []string      `json:"signals"`
	DetectedAt time.Time     `json:"detected_at"`
}

// DominanceMetrics aggregates bucket-level performance for phase detection
type DominanceMetrics struct {
	BTCDominance    float64            `json:"btc_dominance"`    // percent of total cap
	DominanceTrend  float64            `json:"dominance_trend"`  // BTC 24h change minus cap-weighted rest
	BTCChange24h    float64            `json:"btc_change_24h"`   // percent
	ETHChange24h    float64            `json:"eth_change_24h"`   // percent
	BucketBreadth   map[Bucket]float64 `json:"bucket_breadth"`   // share of coins positive on 24h
	BucketAvgChange map[Bucket]float64 `json:"bucket_avg_change"`
}
