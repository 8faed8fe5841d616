package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRegressor returns a fixed log-space value and records every input it
// was asked to predict.
type stubRegressor struct {
	value  float64
	inputs [][]float64
}

func (s *stubRegressor) Fit(X [][]float64, y []float64) error { return nil }

func (s *stubRegressor) Predict(x []float64) float64 {
	s.inputs = append(s.inputs, append([]float64(nil), x...))
	return s.value
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HorizonDays = 14
	cfg.Boost = testBoostParams()
	return cfg
}

func constantHistory(t *testing.T, n int, q float64) []FeatureRow {
	t.Helper()
	recs := makeRecords("Nadu", day("2024-01-01"), n, func(int) float64 { return q })
	rows := BuildFeatures(recs, testConfig())
	require.NotEmpty(t, rows)
	return rows
}

func TestForecastHorizonLengthAndOrder(t *testing.T) {
	cfg := testConfig()
	history := constantHistory(t, 100, 50)
	pair := &ModelPair{Exact: &stubRegressor{value: 1}, Hist: &stubRegressor{value: 1}}

	points := Forecast(pair, history, cfg)
	require.Len(t, points, cfg.HorizonDays)

	lastDate := history[len(history)-1].Date
	for i, p := range points {
		assert.Equal(t, lastDate.AddDate(0, 0, i+1), p.Date)
	}
}

func TestForecastClipsNegativePredictions(t *testing.T) {
	cfg := testConfig()
	history := constantHistory(t, 100, 50)
	// Strongly negative log-space output: expm1 goes below zero.
	pair := &ModelPair{Exact: &stubRegressor{value: -5}, Hist: &stubRegressor{value: -5}}

	for _, p := range Forecast(pair, history, cfg) {
		assert.GreaterOrEqual(t, p.PredictedQuantityKG, 0.0)
	}
}

func TestForecastWindowIsStaticAcrossHorizon(t *testing.T) {
	// Lag and rolling features must be identical for every horizon day:
	// the trailing window is the pre-run history and predictions are not
	// fed back into it.
	cfg := testConfig()
	recs := makeRecords("Samba", day("2023-01-01"), 120, func(i int) float64 { return float64(i % 13) })
	history := BuildFeatures(recs, cfg)
	stub := &stubRegressor{value: 1}
	pair := &ModelPair{Exact: stub, Hist: &stubRegressor{value: 1}}

	Forecast(pair, history, cfg)
	require.Len(t, stub.inputs, cfg.HorizonDays)

	// Vector layout: indices 11..12 are the carried monetary fields and
	// 13..end the rolling/lag features. Only the calendar prefix may vary.
	first := stub.inputs[0][11:]
	for i, in := range stub.inputs {
		assert.Equal(t, first, in[11:], "horizon day %d", i+1)
	}
}

func TestForecastCarriesMonetaryFieldsForward(t *testing.T) {
	cfg := testConfig()
	history := constantHistory(t, 100, 50)
	last := history[len(history)-1]
	stub := &stubRegressor{value: 1}
	pair := &ModelPair{Exact: stub, Hist: &stubRegressor{value: 1}}

	Forecast(pair, history, cfg)
	for _, in := range stub.inputs {
		assert.Equal(t, last.GrossAmount, in[11])
		assert.Equal(t, last.PricePerKG, in[12])
	}
}

func TestFutureRowLagDefaultsToZeroOnShortWindow(t *testing.T) {
	cfg := testConfig()
	window := constantHistory(t, 50, 20) // 20 feature rows, shorter than lag 30
	require.Less(t, len(window), 30)

	row := futureRow(day("2025-01-01"), window, &cfg)
	last := len(cfg.Lags) - 1
	require.Equal(t, 30, cfg.Lags[last])
	assert.Equal(t, 0.0, row.Lags[last])
	assert.Equal(t, 20.0, row.Lags[0]) // lag 1 still populated
}

func TestFutureRowHolidayLooksOneCalendarDayAhead(t *testing.T) {
	cfg := testConfig()
	window := constantHistory(t, 100, 50)

	row := futureRow(day("2024-12-24"), window, &cfg)
	assert.Equal(t, 1, row.IsDayBeforeHoliday) // 2024-12-25 is configured
	assert.Equal(t, 0, row.IsHoliday)

	row = futureRow(day("2024-12-25"), window, &cfg)
	assert.Equal(t, 1, row.IsHoliday)
}

func TestConstantSeriesForecastsFlat(t *testing.T) {
	// 100 days of constant 50 KG: the log target has zero variance, so the
	// trained blend must reproduce ~50 across the whole horizon and the
	// holdout metrics must be finite.
	cfg := testConfig()
	recs := makeRecords("Nadu", day("2024-01-01"), 100, func(int) float64 { return 50 })
	rows := BuildFeatures(recs, cfg)
	require.Len(t, rows, 70)

	pair, holdout, err := TrainEnsemble(rows, cfg)
	require.NoError(t, err)

	mae := MAE(holdout.Actual, holdout.Predicted)
	r2 := R2(holdout.Actual, holdout.Predicted)
	assert.InDelta(t, 0.0, mae, 0.01)
	assert.False(t, math.IsNaN(r2))
	assert.False(t, math.IsInf(r2, 0))

	for _, p := range Forecast(pair, rows, cfg) {
		assert.InDelta(t, 50.0, p.PredictedQuantityKG, 0.5)
	}
}

func TestTrainEnsembleHoldoutIsChronologicalTail(t *testing.T) {
	cfg := testConfig()
	recs := makeRecords("Samba", day("2023-03-01"), 110, func(i int) float64 { return 40 + float64(i%5) })
	rows := BuildFeatures(recs, cfg)
	require.Len(t, rows, 80)

	_, holdout, err := TrainEnsemble(rows, cfg)
	require.NoError(t, err)

	// ceil(0.2 * 80) = 16 rows, and they are the latest ones.
	require.Len(t, holdout.Dates, 16)
	assert.Equal(t, rows[64].Date, holdout.Dates[0])
	assert.Equal(t, rows[79].Date, holdout.Dates[15])
	for i := 1; i < len(holdout.Dates); i++ {
		assert.True(t, holdout.Dates[i].After(holdout.Dates[i-1]))
	}
}

func TestTrainEnsembleRejectsTinyInput(t *testing.T) {
	cfg := testConfig()
	_, _, err := TrainEnsemble(nil, cfg)
	assert.Error(t, err)
}
