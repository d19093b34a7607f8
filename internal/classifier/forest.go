package classifier

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// forest is a bagged ensemble of CART trees.
type forest struct {
	trees []*tree
}

func fitForest(ctx context.Context, x [][]float64, y []float64, opts Options, rng *rand.Rand) (*forest, error) {
	nFeatures := len(x[0])
	maxFeatures := int(math.Sqrt(float64(nFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	f := &forest{trees: make([]*tree, opts.Trees)}
	for i := range f.trees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sample := make([]int, len(x))
		for j := range sample {
			sample[j] = rng.Intn(len(x))
		}
		t := &tree{maxFeatures: maxFeatures, maxDepth: opts.MaxDepth, minLeaf: opts.MinSamplesLeaf}
		t.fit(x, y, sample, rng)
		f.trees[i] = t
	}
	return f, nil
}

// predictProb averages the class-1 probability across trees.
func (f *forest) predictProb(row []float64) float64 {
	votes := make([]float64, len(f.trees))
	for i, t := range f.trees {
		votes[i] = t.predictProb(row)
	}
	return stat.Mean(votes, nil)
}

func (f *forest) predict(row []float64) float64 {
	if f.predictProb(row) > 0.5 {
		return 1
	}
	return 0
}
