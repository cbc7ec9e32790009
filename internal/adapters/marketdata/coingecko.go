package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/pkg/logger"
	"github.com/selivandex/market-pulse/pkg/models"
)

const coingeckoAPIURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider implements Provider using the CoinGecko markets
// endpoint (free, no API key needed)
type CoinGeckoProvider struct {
	client   *http.Client
	baseURL  string
	topN     int
	cacheTTL time.Duration

	mu        sync.Mutex
	cached    []models.CoinSnapshot
	fetchedAt time.Time
}

// marketRow mirrors one element of the /coins/markets response.
// Numeric fields are pointers because CoinGecko returns null for
// delisted or stale coins.
type marketRow struct {
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	CurrentPrice *float64 `json:"current_price"`
	MarketCap    *float64 `json:"market_cap"`
	TotalVolume  *float64 `json:"total_volume"`
	Change24h    *float64 `json:"price_change_percentage_24h"`
	Sparkline    *struct {
		Price models.Sparkline `json:"price"`
	} `json:"sparkline_in_7d"`
}

// NewCoinGeckoProvider creates new CoinGecko market data provider
func NewCoinGeckoProvider(topN int, cacheTTL time.Duration) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  coingeckoAPIURL,
		topN:     topN,
		cacheTTL: cacheTTL,
	}
}

func (cg *CoinGeckoProvider) GetName() string {
	return "CoinGecko"
}

// FetchCoins returns the top coins by market cap with 7d sparklines.
// Responses are cached in memory for the configured TTL. Rows with no
// usable price are dropped; duplicate symbols keep the first occurrence.
func (cg *CoinGeckoProvider) FetchCoins(ctx context.Context) ([]models.CoinSnapshot, error) {
	cg.mu.Lock()
	if cg.cached != nil && time.Since(cg.fetchedAt) < cg.cacheTTL {
		cached := cg.cached
		cg.mu.Unlock()
		return cached, nil
	}
	cg.mu.Unlock()

	url := fmt.Sprintf(
		"%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1&sparkline=true&price_change_percentage=24h",
		cg.baseURL, cg.topN,
	)

	req, err := http.NewRequestWithContext(ctx, "GET", url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := cg.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var rows []marketRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	now := time.Now()
	coins := make([]models.CoinSnapshot, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		symbol := strings.ToUpper(row.Symbol)
		if symbol == "" || seen[symbol] {
			continue
		}
		if row.CurrentPrice == nil {
			logger.Debug("skipping market row without price",
				zap.String("symbol", symbol),
			)
			continue
		}
		seen[symbol] = true

		coin := models.CoinSnapshot{
			Symbol:    symbol,
			Name:      row.Name,
			Price:     models.NewDecimal(*row.CurrentPrice),
			FetchedAt: now,
		}
		if row.Change24h != nil {
			coin.Change24h = models.NewDecimal(*row.Change24h)
		}
		if row.TotalVolume != nil {
			coin.Volume24h = models.NewDecimal(*row.TotalVolume)
		}
		if row.MarketCap != nil {
			coin.MarketCap = models.NewDecimal(*row.MarketCap)
		}
		if row.Sparkline != nil {
			coin.Sparkline = row.Sparkline.Price
		}

		coins = append(coins, coin)
	}

	cg.mu.Lock()
	cg.cached = coins
	cg.fetchedAt = now
	cg.mu.Unlock()

	return coins, nil
}
