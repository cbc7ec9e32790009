package marketdata

import (
	"context"

	"github.com/selivandex/market-pulse/pkg/models"
)

// Provider fetches the ranked coin list with sparklines
type Provider interface {
	// FetchCoins returns the current top coins by market cap
	FetchCoins(ctx context.Context) ([]models.CoinSnapshot, error)

	// GetName returns provider name
	GetName() string
}
