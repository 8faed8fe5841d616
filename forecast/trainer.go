package forecast

import (
	"fmt"
	"math"
	"time"
)

// ModelPair is the two-member ensemble trained for a single rice type. The
// pair lives only for the duration of one pipeline run; models are retrained
// from scratch every run and never persisted.
type ModelPair struct {
	Exact Regressor
	Hist  Regressor
}

// PredictQuantity blends both members: each predicts in log1p space, both
// are inverse-transformed, and the mean is returned in KG.
func (p *ModelPair) PredictQuantity(x []float64) float64 {
	return (math.Expm1(p.Exact.Predict(x)) + math.Expm1(p.Hist.Predict(x))) / 2
}

// Holdout is the chronological test tail kept aside during training, with
// the blended predictions for it.
type Holdout struct {
	Dates     []time.Time
	Actual    []float64 // KG, inverse-transformed
	Predicted []float64 // KG, blended and inverse-transformed
}

// TrainEnsemble fits both ensemble members for one rice type on the
// log1p-transformed target. The split is chronological with the last
// ceil(TestFraction·n) rows held out; shuffling would leak future values
// into training through the lag and rolling features of adjacent rows.
func TrainEnsemble(rows []FeatureRow, cfg Config) (*ModelPair, *Holdout, error) {
	n := len(rows)
	testN := int(math.Ceil(cfg.TestFraction * float64(n)))
	if testN < 1 || n-testN < 1 {
		return nil, nil, fmt.Errorf("train: %d rows is not enough for a %0.0f%% holdout", n, cfg.TestFraction*100)
	}

	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range rows {
		X[i] = rows[i].Vector()
		y[i] = math.Log1p(rows[i].Quantity)
	}

	trainX, testX := X[:n-testN], X[n-testN:]
	trainY, testY := y[:n-testN], y[n-testN:]

	exact := NewGBTRegressor(cfg.Boost)
	if err := exact.Fit(trainX, trainY); err != nil {
		return nil, nil, fmt.Errorf("train exact booster: %w", err)
	}
	hist := NewHistGBTRegressor(cfg.Boost, testX, testY)
	if err := hist.Fit(trainX, trainY); err != nil {
		return nil, nil, fmt.Errorf("train histogram booster: %w", err)
	}

	pair := &ModelPair{Exact: exact, Hist: hist}

	holdout := &Holdout{
		Dates:     make([]time.Time, testN),
		Actual:    make([]float64, testN),
		Predicted: make([]float64, testN),
	}
	for i := 0; i < testN; i++ {
		row := rows[n-testN+i]
		holdout.Dates[i] = row.Date
		holdout.Actual[i] = math.Expm1(y[n-testN+i])
		holdout.Predicted[i] = pair.PredictQuantity(testX[i])
	}
	return pair, holdout, nil
}
