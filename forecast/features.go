package forecast

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"app/models"
)

// FeatureRow is one fully-derived training example for a (rice type, date).
// The fields are named and typed so that any drift between the training
// feature set and the inference feature set fails at compile time instead
// of producing silently misaligned matrices.
type FeatureRow struct {
	Date     time.Time
	Quantity float64 // outlier-clipped quantity, also the regression target

	Year               int
	Month              int
	Day                int
	Weekday            int // Monday=0 .. Sunday=6
	WeekOfYear         int
	DayOfYear          int
	IsWeekend          int
	StartOfMonth       int
	EndOfMonth         int
	IsHoliday          int
	IsDayBeforeHoliday int

	GrossAmount float64
	PricePerKG  float64

	RollingMean3 float64
	RollingStd7  float64
	RollingTrend float64
	WeeklyDiff   float64

	Lags []float64 // aligned with Config.Lags
}

// Vector flattens the row into the fixed feature order shared by training
// and inference.
func (r *FeatureRow) Vector() []float64 {
	v := make([]float64, 0, 17+len(r.Lags))
	v = append(v,
		float64(r.Year), float64(r.Month), float64(r.Day),
		float64(r.Weekday), float64(r.WeekOfYear), float64(r.DayOfYear),
		float64(r.IsWeekend), float64(r.StartOfMonth), float64(r.EndOfMonth),
		float64(r.IsHoliday), float64(r.IsDayBeforeHoliday),
		r.GrossAmount, r.PricePerKG,
		r.RollingMean3, r.RollingStd7, r.RollingTrend, r.WeeklyDiff,
	)
	v = append(v, r.Lags...)
	return v
}

// mondayWeekday maps Go's Sunday-based weekday to Monday=0 .. Sunday=6.
func mondayWeekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func calendarFields(r *FeatureRow, d time.Time, cfg *Config) {
	r.Year = d.Year()
	r.Month = int(d.Month())
	r.Day = d.Day()
	r.Weekday = mondayWeekday(d)
	_, r.WeekOfYear = d.ISOWeek()
	r.DayOfYear = d.YearDay()
	if r.Weekday >= 5 {
		r.IsWeekend = 1
	}
	if r.Day <= 5 {
		r.StartOfMonth = 1
	}
	if r.Day >= 25 {
		r.EndOfMonth = 1
	}
	if cfg.IsHoliday(d) {
		r.IsHoliday = 1
	}
}

// clipUpper caps values above the given quantile of xs. The quantile is
// linearly interpolated between order statistics, matching the convention
// the historical reports were produced under.
func clipUpper(xs []float64, q float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	h := q * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	limit := sorted[lo]
	if lo+1 < len(sorted) {
		limit += (h - math.Floor(h)) * (sorted[lo+1] - sorted[lo])
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Min(x, limit)
	}
	return out
}

// BuildFeatures derives the full feature sequence for one rice type's
// chronologically ordered, open-day sales records. Rows without enough
// history to fill every lag and rolling feature are dropped, so the first
// MaxLag rows of the series never appear in the output.
func BuildFeatures(records []models.SalesRecord, cfg Config) []FeatureRow {
	recs := append([]models.SalesRecord(nil), records...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })

	n := len(recs)
	qs := make([]float64, n)
	for i, r := range recs {
		qs[i] = r.QuantityKG
	}
	qs = clipUpper(qs, cfg.OutlierQuantile)

	warmup := cfg.MaxLag()
	if warmup < 7 {
		warmup = 7 // the 7-row rolling std needs at least this much history
	}
	rows := make([]FeatureRow, 0, n)
	for i := 0; i < n; i++ {
		if i < warmup {
			continue // incomplete lag/rolling history, no imputation
		}

		row := FeatureRow{
			Date:        recs[i].Date,
			Quantity:    qs[i],
			GrossAmount: recs[i].GrossAmount,
			PricePerKG:  recs[i].PricePerKG,
		}
		calendarFields(&row, recs[i].Date, &cfg)
		// Day-before-holiday looks one row ahead in the sorted series, not
		// one calendar day.
		if i+1 < n && cfg.IsHoliday(recs[i+1].Date) {
			row.IsDayBeforeHoliday = 1
		}

		// Rolling stats exclude the current day: windows end at i-1.
		mean3 := stat.Mean(qs[i-3:i], nil)
		mean7 := stat.Mean(qs[i-7:i], nil)
		row.RollingMean3 = mean3
		row.RollingStd7 = stat.StdDev(qs[i-7:i], nil)
		row.RollingTrend = mean3 - mean7
		// weekly_diff intentionally uses the same-day value, unlike the
		// shifted rolling features above. Inference computes it from the
		// trailing window instead; keep both formulas as they are.
		row.WeeklyDiff = qs[i] - qs[i-7]

		row.Lags = make([]float64, len(cfg.Lags))
		for j, lag := range cfg.Lags {
			row.Lags[j] = qs[i-lag]
		}

		rows = append(rows, row)
	}
	return rows
}
