package classifier

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// node is one split or leaf of a CART tree.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	prob      float64 // fraction of class 1 among training samples reaching the leaf
	leaf      bool
}

// tree is a binary classification tree grown on Gini impurity.
type tree struct {
	root        *node
	maxFeatures int
	maxDepth    int
	minLeaf     int
}

func (t *tree) fit(x [][]float64, y []float64, idx []int, rng *rand.Rand) {
	t.root = t.grow(x, y, idx, 0, rng)
}

func (t *tree) predictProb(row []float64) float64 {
	n := t.root
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prob
}

func (t *tree) grow(x [][]float64, y []float64, idx []int, depth int, rng *rand.Rand) *node {
	labels := make([]float64, len(idx))
	for i, j := range idx {
		labels[i] = y[j]
	}
	p := stat.Mean(labels, nil)
	leaf := &node{leaf: true, prob: p}

	if p == 0 || p == 1 || len(idx) < 2*t.minLeaf {
		return leaf
	}
	if t.maxDepth > 0 && depth >= t.maxDepth {
		return leaf
	}

	best := t.bestSplit(x, y, idx, rng)
	if best == nil {
		return leaf
	}

	var left, right []int
	for _, j := range idx {
		if x[j][best.feature] <= best.threshold {
			left = append(left, j)
		} else {
			right = append(right, j)
		}
	}
	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		left:      t.grow(x, y, left, depth+1, rng),
		right:     t.grow(x, y, right, depth+1, rng),
	}
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

// bestSplit scans a random subset of maxFeatures features and, when none of them
// separates the samples, falls through to the remaining ones.
func (t *tree) bestSplit(x [][]float64, y []float64, idx []int, rng *rand.Rand) *split {
	nFeatures := len(x[idx[0]])
	order := rng.Perm(nFeatures)

	var best *split
	for k, f := range order {
		if k >= t.maxFeatures && best != nil {
			break
		}
		if s := t.scanFeature(x, y, idx, f); s != nil && (best == nil || s.impurity < best.impurity) {
			best = s
		}
	}
	return best
}

func (t *tree) scanFeature(x [][]float64, y []float64, idx []int, f int) *split {
	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.SliceStable(sorted, func(a, b int) bool { return x[sorted[a]][f] < x[sorted[b]][f] })

	n := float64(len(sorted))
	var totalPos float64
	for _, j := range sorted {
		totalPos += y[j]
	}

	var best *split
	var leftPos float64
	for i := 0; i < len(sorted)-1; i++ {
		leftPos += y[sorted[i]]
		lo, hi := x[sorted[i]][f], x[sorted[i+1]][f]
		if lo == hi {
			continue
		}
		nl := float64(i + 1)
		nr := n - nl
		if int(nl) < t.minLeaf || int(nr) < t.minLeaf {
			continue
		}
		imp := (nl*gini(leftPos, nl) + nr*gini(totalPos-leftPos, nr)) / n
		if best == nil || imp < best.impurity {
			best = &split{feature: f, threshold: (lo + hi) / 2, impurity: imp}
		}
	}
	return best
}

func gini(pos, n float64) float64 {
	if n == 0 {
		return 0
	}
	p := pos / n
	return 1 - p*p - (1-p)*(1-p)
}
