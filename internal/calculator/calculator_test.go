package calculator

import (
	"math"
	"testing"
	"time"

	"BistRadar/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes ...float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Time:  start.AddDate(0, 0, i),
			Open:  c,
			High:  c * 1.01,
			Low:   c * 0.99,
			Close: c,
		}
	}
	return bars
}

// linearBars returns n closes rising evenly from first to last.
func linearBars(n int, first, last float64) []model.Bar {
	closes := make([]float64, n)
	step := (last - first) / float64(n-1)
	for i := range closes {
		closes[i] = first + step*float64(i)
	}
	return barsFromCloses(closes...)
}

func TestCalculateSMA(t *testing.T) {
	v, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-9)

	_, err = CalculateSMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, model.ErrInsufficientHistory)

	_, err = CalculateSMA([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestMovingAverages_LinearUptrend(t *testing.T) {
	bars := linearBars(200, 10, 30)
	snap, err := MovingAverages(bars)
	require.NoError(t, err)

	require.NotNil(t, snap.MA50)
	require.NotNil(t, snap.MA100)
	require.NotNil(t, snap.MA200)
	assert.InDelta(t, 30.0, snap.CurrentPrice, 1e-9)
	assert.Less(t, *snap.MA50, snap.CurrentPrice)
	assert.Less(t, *snap.MA100, snap.CurrentPrice)
	assert.Less(t, *snap.MA200, snap.CurrentPrice)
	assert.InDelta(t, 20.0, *snap.MA200, 1e-6)
}

func TestMovingAverages_ShortSeries(t *testing.T) {
	snap, err := MovingAverages(linearBars(30, 10, 12))
	require.NoError(t, err)
	assert.Nil(t, snap.MA50)
	assert.Nil(t, snap.MA100)
	assert.Nil(t, snap.MA200)

	snap, err = MovingAverages(linearBars(120, 10, 12))
	require.NoError(t, err)
	assert.NotNil(t, snap.MA50)
	assert.NotNil(t, snap.MA100)
	assert.Nil(t, snap.MA200)
}

func TestMovingAverages_Empty(t *testing.T) {
	_, err := MovingAverages(nil)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestCalculateRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		period int
		want   float64
	}{
		{"only gains", []float64{1, 2, 3, 4, 5}, 4, 100},
		{"flat", []float64{5, 5, 5, 5, 5}, 4, 100},
		{"only losses", []float64{5, 4, 3, 2, 1}, 4, 0},
		// gains 2+2=4, losses 1+1=2 over 4 changes -> RS=2 -> RSI=66.67
		{"mixed", []float64{10, 12, 11, 13, 12}, 4, 100 - 100/3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateRSI(barsFromCloses(tt.closes...), tt.period)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCalculateRSI_UsesTrailingWindowOnly(t *testing.T) {
	// A large early drop falls outside the trailing window of 3 changes.
	got, err := CalculateRSI(barsFromCloses(100, 10, 11, 12, 13), 3)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
}

func TestCalculateRSI_InsufficientHistory(t *testing.T) {
	_, err := CalculateRSI(barsFromCloses(1, 2, 3), 3)
	assert.ErrorIs(t, err, model.ErrInsufficientHistory)

	_, err = RSI(nil, DefaultRSIWindow)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestCalculateRSI_Bounded(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 50 + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	bars := barsFromCloses(closes...)
	for end := DefaultRSIWindow + 1; end <= len(bars); end++ {
		v, err := CalculateRSI(bars[:end], DefaultRSIWindow)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestRSI_LinearUptrendIsHigh(t *testing.T) {
	snap, err := RSI(linearBars(200, 10, 30), DefaultRSIWindow)
	require.NoError(t, err)
	assert.Greater(t, snap.RSI, 50.0)
	assert.InDelta(t, 30.0, snap.CurrentPrice, 1e-9)
}

func TestMomentum(t *testing.T) {
	snap, err := Momentum(barsFromCloses(10, 11, 12, 13, 14, 15), 5)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, snap.Momentum, 1e-9)
	assert.InDelta(t, 100*5.0/15.0, snap.MomentumPct, 1e-9)

	snap, err = Momentum(linearBars(200, 10, 30), DefaultMomentumWindow)
	require.NoError(t, err)
	assert.Greater(t, snap.Momentum, 0.0)
	assert.Greater(t, snap.MomentumPct, 0.0)
}

func TestMomentum_Absent(t *testing.T) {
	_, err := Momentum(barsFromCloses(1, 2, 3), 3)
	assert.ErrorIs(t, err, model.ErrInsufficientHistory)

	_, err = Momentum(nil, 3)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)

	_, err = Momentum(barsFromCloses(5, 4, 3, 0), 3)
	assert.ErrorIs(t, err, model.ErrNumericDegenerate)
}
