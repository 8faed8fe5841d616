package forecast

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// Regressor is the uniform fit/predict contract both ensemble members
// satisfy. Blending code works only against this interface so either
// implementation can be swapped out independently.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
}

// treeNode is a node of a binary regression tree. Leaves carry the mean
// residual of the samples that reached them.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

func (t *treeNode) predict(x []float64) float64 {
	for !t.leaf {
		if x[t.feature] < t.threshold {
			t = t.left
		} else {
			t = t.right
		}
	}
	return t.value
}

// splitFinder proposes candidate thresholds for one feature. The two
// ensemble members differ only in this heuristic, which is the point of
// blending them.
type splitFinder interface {
	candidates(values []float64) []float64
}

// exactSplits tries the midpoint between every pair of adjacent distinct
// values, the classic greedy approach.
type exactSplits struct{}

func (exactSplits) candidates(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var out []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			out = append(out, (sorted[i]+sorted[i-1])/2)
		}
	}
	return out
}

// histSplits bins each feature into quantile buckets and only tries the
// bucket boundaries. Coarser and faster than exact splitting, and finds
// slightly different trees on the same data.
type histSplits struct {
	bins int
}

func (h histSplits) candidates(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var out []float64
	var last float64
	for b := 1; b < h.bins; b++ {
		idx := b * (len(sorted) - 1) / h.bins
		v := sorted[idx]
		if len(out) == 0 || v != last {
			out = append(out, v)
			last = v
		}
	}
	return out
}

// buildTree grows a regression tree on the given sample indices, minimizing
// squared error at each split.
func buildTree(X [][]float64, y []float64, idx []int, depth, maxDepth int, finder splitFinder) *treeNode {
	mean := 0.0
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))

	if depth >= maxDepth || len(idx) < 2 {
		return &treeNode{leaf: true, value: mean}
	}

	bestSSE := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0
	nFeatures := len(X[idx[0]])
	values := make([]float64, len(idx))

	for f := 0; f < nFeatures; f++ {
		for i, s := range idx {
			values[i] = X[s][f]
		}
		for _, thr := range finder.candidates(values) {
			var lSum, rSum float64
			var lN, rN int
			for _, s := range idx {
				if X[s][f] < thr {
					lSum += y[s]
					lN++
				} else {
					rSum += y[s]
					rN++
				}
			}
			if lN == 0 || rN == 0 {
				continue
			}
			lMean, rMean := lSum/float64(lN), rSum/float64(rN)
			sse := 0.0
			for _, s := range idx {
				d := y[s] - rMean
				if X[s][f] < thr {
					d = y[s] - lMean
				}
				sse += d * d
			}
			if sse < bestSSE {
				bestSSE, bestFeature, bestThreshold = sse, f, thr
			}
		}
	}

	if bestFeature < 0 {
		return &treeNode{leaf: true, value: mean}
	}

	var lIdx, rIdx []int
	for _, s := range idx {
		if X[s][bestFeature] < bestThreshold {
			lIdx = append(lIdx, s)
		} else {
			rIdx = append(rIdx, s)
		}
	}
	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      buildTree(X, y, lIdx, depth+1, maxDepth, finder),
		right:     buildTree(X, y, rIdx, depth+1, maxDepth, finder),
	}
}

// GBTRegressor is a least-squares gradient boosted tree ensemble with exact
// greedy split finding. It always trains for the fixed round count.
type GBTRegressor struct {
	Params BoostParams

	base  float64
	trees []*treeNode
}

// NewGBTRegressor returns an untrained exact-split booster.
func NewGBTRegressor(p BoostParams) *GBTRegressor {
	return &GBTRegressor{Params: p}
}

func (m *GBTRegressor) Fit(X [][]float64, y []float64) error {
	base, trees, _, err := boost(X, y, m.Params, exactSplits{}, nil, nil)
	if err != nil {
		return err
	}
	m.base, m.trees = base, trees
	return nil
}

func (m *GBTRegressor) Predict(x []float64) float64 {
	return predictBoosted(m.base, m.trees, len(m.trees), m.Params.LearningRate, x)
}

// HistGBTRegressor is a least-squares gradient boosted tree ensemble with
// histogram split finding and early stopping against a held-out eval set.
type HistGBTRegressor struct {
	Params BoostParams
	Bins   int

	evalX [][]float64
	evalY []float64

	base      float64
	trees     []*treeNode
	bestRound int
}

// NewHistGBTRegressor returns an untrained histogram booster that early-stops
// against the given eval set during Fit.
func NewHistGBTRegressor(p BoostParams, evalX [][]float64, evalY []float64) *HistGBTRegressor {
	return &HistGBTRegressor{Params: p, Bins: 32, evalX: evalX, evalY: evalY}
}

func (m *HistGBTRegressor) Fit(X [][]float64, y []float64) error {
	base, trees, best, err := boost(X, y, m.Params, histSplits{bins: m.Bins}, m.evalX, m.evalY)
	if err != nil {
		return err
	}
	m.base, m.trees, m.bestRound = base, trees, best
	return nil
}

// Predict uses only the trees up to the best eval round, mirroring
// best-iteration prediction after early stopping.
func (m *HistGBTRegressor) Predict(x []float64) float64 {
	return predictBoosted(m.base, m.trees, m.bestRound, m.Params.LearningRate, x)
}

func predictBoosted(base float64, trees []*treeNode, rounds int, lr float64, x []float64) float64 {
	pred := base
	for i := 0; i < rounds && i < len(trees); i++ {
		pred += lr * trees[i].predict(x)
	}
	return pred
}

// boost runs least-squares gradient boosting: start from the target mean,
// then fit each tree to the current residuals on a row subsample. With an
// eval set it tracks eval RMSE per round and stops once no round has
// improved within the early-stopping patience, returning the best round.
func boost(X [][]float64, y []float64, p BoostParams, finder splitFinder, evalX [][]float64, evalY []float64) (float64, []*treeNode, int, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return 0, nil, 0, errors.New("boost: empty or mismatched training data")
	}

	base := 0.0
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	rng := rand.New(rand.NewSource(p.Seed))
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	evalPred := make([]float64, len(evalX))
	for i := range evalPred {
		evalPred[i] = base
	}

	residual := make([]float64, n)
	sampleN := int(float64(n) * p.Subsample)
	if sampleN < 1 {
		sampleN = n
	}

	var trees []*treeNode
	bestRound, bestRMSE := 0, math.Inf(1)
	sinceBest := 0

	for round := 0; round < p.Rounds; round++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}

		idx := rng.Perm(n)[:sampleN]
		tree := buildTree(X, residual, idx, 0, p.MaxDepth, finder)
		trees = append(trees, tree)

		for i := range pred {
			pred[i] += p.LearningRate * tree.predict(X[i])
		}

		if len(evalX) == 0 {
			bestRound = round + 1
			continue
		}

		sse := 0.0
		for i := range evalX {
			evalPred[i] += p.LearningRate * tree.predict(evalX[i])
			d := evalY[i] - evalPred[i]
			sse += d * d
		}
		rmse := math.Sqrt(sse / float64(len(evalX)))
		if rmse < bestRMSE {
			bestRMSE, bestRound, sinceBest = rmse, round+1, 0
		} else {
			sinceBest++
			if p.EarlyStoppingRounds > 0 && sinceBest >= p.EarlyStoppingRounds {
				break
			}
		}
	}
	return base, trees, bestRound, nil
}
