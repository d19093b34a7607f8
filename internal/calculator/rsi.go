package calculator

import (
	"errors"
	"fmt"

	"BistRadar/internal/model"

	"github.com/markcheno/go-talib"
)

// DefaultRSIWindow is the conventional RSI lookback.
const DefaultRSIWindow = 14

// CalculateRSI computes RSI as 100 - 100/(1+RS), where RS is the ratio of the simple
// mean gain to the simple mean loss over the trailing period close-to-close changes.
// Requires at least period+1 bars. A window without losses yields exactly 100.
func CalculateRSI(bars []model.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("rsi(%d) over %d bars: %w", period, len(bars), model.ErrInsufficientHistory)
	}

	closes := extractCloses(bars)
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain := lastSMA(gains, period)
	avgLoss := lastSMA(losses, period)
	if avgLoss <= 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	return clamp(rsi, 0, 100), nil
}

// RSI returns the latest close together with its RSI.
func RSI(bars []model.Bar, period int) (*model.RSISnapshot, error) {
	if len(bars) == 0 {
		return nil, model.ErrDataUnavailable
	}
	rsi, err := CalculateRSI(bars, period)
	if err != nil {
		return nil, err
	}
	return &model.RSISnapshot{CurrentPrice: bars[len(bars)-1].Close, RSI: rsi}, nil
}

func lastSMA(values []float64, period int) float64 {
	sma := talib.Sma(values, period)
	return sma[len(sma)-1]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
