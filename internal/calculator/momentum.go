package calculator

import (
	"errors"
	"fmt"

	"BistRadar/internal/model"

	"github.com/markcheno/go-talib"
)

// DefaultMomentumWindow is the N in N-day momentum.
const DefaultMomentumWindow = 10

// Momentum returns close[last]-close[last-period] and that change as a percentage of the latest close.
func Momentum(bars []model.Bar, period int) (*model.MomentumSnapshot, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(bars) == 0 {
		return nil, model.ErrDataUnavailable
	}
	if len(bars) < period+1 {
		return nil, fmt.Errorf("momentum(%d) over %d bars: %w", period, len(bars), model.ErrInsufficientHistory)
	}

	closes := extractCloses(bars)
	current := closes[len(closes)-1]
	if current == 0 {
		return nil, fmt.Errorf("momentum: latest close is zero: %w", model.ErrNumericDegenerate)
	}
	mom := talib.Mom(closes, period)
	change := mom[len(mom)-1]
	return &model.MomentumSnapshot{
		CurrentPrice: current,
		Momentum:     change,
		MomentumPct:  change / current * 100,
	}, nil
}
