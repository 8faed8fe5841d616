package forecast

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"app/models"
)

// tail returns the last k elements of qs (all of them if fewer).
func tail(qs []float64, k int) []float64 {
	if len(qs) <= k {
		return qs
	}
	return qs[len(qs)-k:]
}

// futureRow synthesizes the feature row for one horizon date. Calendar
// fields come straight from the date. Lag and rolling features come from
// the trailing window of historical rows; it is the SAME window for every
// horizon day, because predictions are not fed back into the history.
// That makes later horizon days share day 1's lag features by design —
// a deliberate simplification carried over from the system this replaces,
// not a bug to fix here.
func futureRow(date time.Time, window []FeatureRow, cfg *Config) FeatureRow {
	row := FeatureRow{Date: date}
	calendarFields(&row, date, cfg)
	if cfg.IsHoliday(date.AddDate(0, 0, 1)) {
		row.IsDayBeforeHoliday = 1
	}

	qs := make([]float64, len(window))
	for i := range window {
		qs[i] = window[i].Quantity
	}

	row.Lags = make([]float64, len(cfg.Lags))
	for j, lag := range cfg.Lags {
		if len(qs) >= lag {
			row.Lags[j] = qs[len(qs)-lag]
		}
		// shorter window than the offset: lag stays 0
	}

	if len(qs) > 0 {
		row.RollingMean3 = stat.Mean(tail(qs, 3), nil)
		mean7 := stat.Mean(tail(qs, 7), nil)
		if len(tail(qs, 7)) >= 2 {
			row.RollingStd7 = stat.StdDev(tail(qs, 7), nil)
		}
		row.RollingTrend = row.RollingMean3 - mean7
		last := window[len(window)-1]
		row.GrossAmount = last.GrossAmount
		row.PricePerKG = last.PricePerKG
	}
	if len(qs) >= 8 {
		row.WeeklyDiff = qs[len(qs)-1] - qs[len(qs)-8]
	}
	return row
}

// Forecast projects the configured horizon forward from the last historical
// date, one point per future day in ascending order. Predictions are the
// blended ensemble output, clipped at zero and rounded to 2 decimals for
// persistence.
func Forecast(pair *ModelPair, history []FeatureRow, cfg Config) []models.ForecastPoint {
	if len(history) == 0 {
		return nil
	}
	lastDate := history[len(history)-1].Date
	window := history
	if maxLag := cfg.MaxLag(); len(window) > maxLag {
		window = window[len(window)-maxLag:]
	}

	points := make([]models.ForecastPoint, 0, cfg.HorizonDays)
	for day := 1; day <= cfg.HorizonDays; day++ {
		date := lastDate.AddDate(0, 0, day)
		row := futureRow(date, window, &cfg)
		q := pair.PredictQuantity(row.Vector())
		if q < 0 {
			q = 0
		}
		points = append(points, models.ForecastPoint{
			Date:                date,
			PredictedQuantityKG: round2(q),
		})
	}
	return points
}
