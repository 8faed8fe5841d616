package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MAE returns the mean absolute error between predictions and actuals.
func MAE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	abs := make([]float64, len(actual))
	for i := range actual {
		abs[i] = math.Abs(actual[i] - predicted[i])
	}
	return stat.Mean(abs, nil)
}

// R2 returns the coefficient of determination. A constant actual series has
// zero total variance; to keep persisted reports finite that case returns 1
// for a perfect fit and 0 otherwise, never NaN or Inf.
func R2(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	mean := stat.Mean(actual, nil)
	var ssRes, ssTot float64
	for i := range actual {
		ssRes += (actual[i] - predicted[i]) * (actual[i] - predicted[i])
		ssTot += (actual[i] - mean) * (actual[i] - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
