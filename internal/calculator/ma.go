package calculator

import (
	"errors"
	"fmt"

	"BistRadar/internal/model"

	"github.com/markcheno/go-talib"
)

// Moving average windows reported by MovingAverages.
const (
	MA50Window  = 50
	MA100Window = 100
	MA200Window = 200
)

// CalculateSMA computes the simple moving average of the trailing period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("sma(%d) over %d prices: %w", period, len(prices), model.ErrInsufficientHistory)
	}
	sma := talib.Sma(prices, period)
	return sma[len(sma)-1], nil
}

// MovingAverages returns the latest close with its 50, 100 and 200-bar SMAs.
// Averages that need more history than available are left nil.
func MovingAverages(bars []model.Bar) (*model.MASnapshot, error) {
	if len(bars) == 0 {
		return nil, model.ErrDataUnavailable
	}
	closes := extractCloses(bars)
	snap := &model.MASnapshot{CurrentPrice: closes[len(closes)-1]}
	snap.MA50 = optionalSMA(closes, MA50Window)
	snap.MA100 = optionalSMA(closes, MA100Window)
	snap.MA200 = optionalSMA(closes, MA200Window)
	return snap, nil
}

func optionalSMA(closes []float64, period int) *float64 {
	v, err := CalculateSMA(closes, period)
	if err != nil {
		return nil
	}
	return &v
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
