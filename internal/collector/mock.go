package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"BistRadar/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols listed in Data get exactly those bars; symbols in Fail get an error;
// anything else gets Days deterministic synthetic bars seeded by the symbol name.
type MockFetcher struct {
	Price float64
	Days  int
	Data  map[string][]model.Bar
	Fail  map[string]error
	Delay time.Duration
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyHistory(ctx context.Context, symbol, _ string) ([]model.Bar, error) {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err, ok := m.Fail[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Data[symbol]; ok {
		return bars, nil
	}
	if m.Data != nil && m.Days == 0 {
		return nil, fmt.Errorf("mock: no data for %s", symbol)
	}
	days := m.Days
	if days == 0 {
		days = 250
	}
	price := m.Price
	if price == 0 {
		price = 100
	}
	return generateMockBars(symbol, price, days), nil
}

// generateMockBars draws a smooth, symbol-specific wave so different symbols rank differently.
func generateMockBars(symbol string, basePrice float64, count int) []model.Bar {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	seed := float64(h.Sum32()%1000) / 1000

	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		x := float64(i)
		p := basePrice * (1 + 0.15*math.Sin(x/(12+20*seed)+seed*6) + (seed-0.5)*x/float64(count))
		bars[i] = model.Bar{
			Time:   end.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
