package marketdata

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/pkg/logger"
	"github.com/selivandex/market-pulse/pkg/models"
)

const binanceStreamURL = "wss://stream.binance.com:9443/ws/!miniTicker@arr"

// TickerStream keeps a live last-price overlay from the Binance
// miniTicker stream, applied between full provider refreshes so the
// displayed prices stay current without extra REST calls
type TickerStream struct {
	url            string
	reconnectDelay time.Duration

	mu     sync.RWMutex
	latest map[string]float64
}

// miniTicker mirrors one element of the !miniTicker@arr payload
type miniTicker struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// NewTickerStream creates new live ticker stream
func NewTickerStream() *TickerStream {
	return &TickerStream{
		url:            binanceStreamURL,
		reconnectDelay: 5 * time.Second,
		latest:         make(map[string]float64),
	}
}

// Start runs the read loop until the context is cancelled, reconnecting
// on errors
func (ts *TickerStream) Start(ctx context.Context) {
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}

			if err := ts.readLoop(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("ticker stream disconnected, reconnecting",
					zap.Error(err),
					zap.Duration("delay", ts.reconnectDelay),
				)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(ts.reconnectDelay):
			}
		}
	}()
}

func (ts *TickerStream) readLoop(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, ts.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("ticker stream connected", zap.String("url", ts.url))

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var tickers []miniTicker
		if err := conn.ReadJSON(&tickers); err != nil {
			return err
		}

		ts.mu.Lock()
		for _, t := range tickers {
			// Only USDT pairs map cleanly onto USD-quoted snapshots
			base, ok := strings.CutSuffix(t.Symbol, "USDT")
			if !ok {
				continue
			}
			if price, err := parsePrice(t.Close); err == nil && price > 0 {
				ts.latest[base] = price
			}
		}
		ts.mu.Unlock()
	}
}

// Overlay replaces each coin's price with the freshest streamed value
// when one is available. Sparklines and derived fields are untouched;
// the next full refresh recomputes everything.
func (ts *TickerStream) Overlay(coins []models.CoinSnapshot) []models.CoinSnapshot {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if len(ts.latest) == 0 {
		return coins
	}

	out := make([]models.CoinSnapshot, len(coins))
	for i, coin := range coins {
		if price, ok := ts.latest[strings.ToUpper(coin.Symbol)]; ok {
			coin.Price = models.NewDecimal(price)
		}
		out[i] = coin
	}
	return out
}

func parsePrice(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
