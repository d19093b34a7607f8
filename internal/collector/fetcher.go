package collector

import (
	"context"

	"BistRadar/internal/model"
)

// DefaultLookback is the trailing window requested from providers.
const DefaultLookback = "1y"

// Fetcher defines the interface for fetching daily price history.
// Implementations return bars ascending by time.
type Fetcher interface {
	FetchDailyHistory(ctx context.Context, symbol, lookback string) ([]model.Bar, error)
	Name() string
}
