// Package classifier fits a random forest on a symbol's own daily bars and calls the next move.
package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"BistRadar/internal/model"

	"gonum.org/v1/gonum/stat"
)

// Options configures one fit/predict cycle.
type Options struct {
	Trees          int
	Seed           int64
	TestFraction   float64
	MinBars        int
	MaxDepth       int // 0 grows trees until leaves are pure
	MinSamplesLeaf int
}

// DefaultOptions mirrors a stock random forest with a fixed seed and a 20% holdout.
func DefaultOptions() Options {
	return Options{
		Trees:          100,
		Seed:           42,
		TestFraction:   0.2,
		MinBars:        2,
		MinSamplesLeaf: 1,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Trees <= 0 {
		o.Trees = d.Trees
	}
	if o.TestFraction <= 0 || o.TestFraction >= 1 {
		o.TestFraction = d.TestFraction
	}
	if o.MinBars < 2 {
		o.MinBars = 2
	}
	if o.MinSamplesLeaf < 1 {
		o.MinSamplesLeaf = 1
	}
	return o
}

// Classifier predicts next-day direction. It holds no fitted state between calls.
type Classifier struct {
	opts Options
}

// New creates a Classifier; zero-valued options fall back to DefaultOptions.
func New(opts Options) *Classifier {
	return &Classifier{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (c *Classifier) Options() Options { return c.opts }

// Predict fits a fresh forest on bars and returns holdout accuracy and the call for the latest bar.
// Identical bars and seed always produce an identical result. The fit stops between trees
// once ctx is done.
func (c *Classifier) Predict(ctx context.Context, bars []model.Bar) (*model.ClassifierResult, error) {
	if len(bars) == 0 {
		return nil, model.ErrDataUnavailable
	}
	if len(bars) < c.opts.MinBars {
		return nil, fmt.Errorf("classifier needs %d bars, got %d: %w", c.opts.MinBars, len(bars), model.ErrInsufficientHistory)
	}

	x, y := buildDataset(bars)
	rng := rand.New(rand.NewSource(c.opts.Seed))
	train, test := splitIndices(len(y), c.opts.TestFraction, rng)

	xTrain, yTrain := subset(x, y, train)
	f, err := fitForest(ctx, xTrain, yTrain, c.opts, rng)
	if err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	res := &model.ClassifierResult{
		CurrentPrice: bars[len(bars)-1].Close,
		TrainSize:    len(train),
		TestSize:     len(test),
		Direction:    model.DirectionDown,
	}
	if len(test) > 0 {
		hits := make([]float64, len(test))
		for i, j := range test {
			if f.predict(x[j]) == y[j] {
				hits[i] = 1
			}
		}
		acc := stat.Mean(hits, nil)
		res.Accuracy = &acc
	}
	if f.predict(features(bars[len(bars)-1])) == 1 {
		res.Direction = model.DirectionUp
	}
	return res, nil
}

// buildDataset labels every bar but the last: 1 when the next close is higher.
func buildDataset(bars []model.Bar) ([][]float64, []float64) {
	n := len(bars) - 1
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = features(bars[i])
		if bars[i+1].Close > bars[i].Close {
			y[i] = 1
		}
	}
	return x, y
}

func features(b model.Bar) []float64 {
	return []float64{b.Open, b.High, b.Low, b.Close}
}

// splitIndices shuffles 0..n-1 and holds out floor(n*fraction) of them.
func splitIndices(n int, fraction float64, rng *rand.Rand) (train, test []int) {
	perm := rng.Perm(n)
	nTest := int(math.Floor(float64(n) * fraction))
	return perm[nTest:], perm[:nTest]
}

func subset(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
