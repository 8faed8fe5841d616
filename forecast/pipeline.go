package forecast

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"app/models"
)

// ModelName identifies the two-booster blend in accuracy reports.
const ModelName = "Dual GBT Blend (exact + histogram)"

// SalesSource is the upstream bulk read of every historical sales record.
// The whole working set is expected to fit in memory; there is no paging.
type SalesSource interface {
	LoadAll(ctx context.Context) ([]models.SalesRecord, error)
}

// ForecastSink replaces all forecast rows for one rice type. Full replace,
// not merge: stale rows from earlier runs must never accumulate.
type ForecastSink interface {
	ReplaceForRiceType(ctx context.Context, riceType string, points []models.ForecastPoint) error
}

// ChartSink replaces the diagnostic rows for one (rice type, series) pair.
type ChartSink interface {
	ReplaceForRiceTypeSeries(ctx context.Context, riceType, seriesType string, points []models.ChartPoint) error
}

// AccuracySink appends one report per run. History is never mutated.
type AccuracySink interface {
	Insert(ctx context.Context, report models.AccuracyReport) error
}

// Pipeline runs the full forecasting batch: load, per-rice-type feature
// building, training, horizon forecasting and accuracy bookkeeping. It is
// the only component that touches storage; everything below it is a pure
// transformation over in-memory rows.
type Pipeline struct {
	cfg       Config
	sales     SalesSource
	forecasts ForecastSink
	charts    ChartSink
	accuracy  AccuracySink

	now func() time.Time
}

func NewPipeline(cfg Config, sales SalesSource, forecasts ForecastSink, charts ChartSink, accuracy AccuracySink) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		sales:     sales,
		forecasts: forecasts,
		charts:    charts,
		accuracy:  accuracy,
		now:       time.Now,
	}
}

// riceTypeResult is what one rice type's in-memory computation produces
// before anything is written.
type riceTypeResult struct {
	metrics  models.RiceTypeMetrics
	chart    []models.ChartPoint
	forecast []models.ForecastPoint
}

// Run executes one full forecasting batch. Rice types are processed
// sequentially; a failure inside one rice type's computation is logged and
// skipped so the others still complete, while load or write failures abort
// the whole run. The context is checked between rice types so a long run
// can be cancelled at a product boundary.
func (p *Pipeline) Run(ctx context.Context) (*models.RunSummary, error) {
	records, err := p.sales.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales records: %w", err)
	}

	// Closed days carry no demand signal and are dropped before anything else.
	open := records[:0:0]
	for _, r := range records {
		if !r.Closed {
			open = append(open, r)
		}
	}
	if len(open) == 0 {
		return nil, fmt.Errorf("no open-day sales records to train on")
	}

	byType := make(map[string][]models.SalesRecord)
	minDate, maxDate := open[0].Date, open[0].Date
	for _, r := range open {
		byType[r.RiceType] = append(byType[r.RiceType], r)
		if r.Date.Before(minDate) {
			minDate = r.Date
		}
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}
	riceTypes := make([]string, 0, len(byType))
	for rt := range byType {
		riceTypes = append(riceTypes, rt)
	}
	sort.Strings(riceTypes)

	summary := &models.RunSummary{
		ModelName:        ModelName,
		TrainingDate:     p.now(),
		HorizonDays:      p.cfg.HorizonDays,
		RiceTypesSeen:    len(riceTypes),
		TotalRecordsUsed: len(open),
		// Empty, not nil: a run where every rice type is gated out still
		// produces a valid report with an empty metrics list.
		Metrics: []models.RiceTypeMetrics{},
		DateRange: models.DateRange{
			Start: minDate.Format("2006-01-02"),
			End:   maxDate.Format("2006-01-02"),
		},
	}

	log.Printf("🚀 [FORECAST] Starting run: %d rice types, %d records", len(riceTypes), len(open))

	for _, riceType := range riceTypes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled before %q: %w", riceType, err)
		}

		recs := byType[riceType]
		if len(recs) < p.cfg.MinRawRows {
			summary.Skipped = append(summary.Skipped, models.SkippedRiceType{
				RiceType: riceType, Reason: "insufficient raw rows",
			})
			continue
		}

		rows := BuildFeatures(recs, p.cfg)
		if len(rows) < p.cfg.MinFeatureRows {
			summary.Skipped = append(summary.Skipped, models.SkippedRiceType{
				RiceType: riceType, Reason: "insufficient feature rows",
			})
			continue
		}

		result, err := p.modelRiceType(riceType, rows)
		if err != nil {
			// One bad rice type must not sink the rest of the run.
			log.Printf("⚠️ [FORECAST] Skipping %q: %v", riceType, err)
			summary.Skipped = append(summary.Skipped, models.SkippedRiceType{
				RiceType: riceType, Reason: err.Error(),
			})
			continue
		}

		// Write failures are run-level: a half-written rice type without its
		// metrics would corrupt downstream reporting.
		if err := p.charts.ReplaceForRiceTypeSeries(ctx, riceType, "test", result.chart); err != nil {
			return nil, fmt.Errorf("write chart data for %q: %w", riceType, err)
		}
		if err := p.forecasts.ReplaceForRiceType(ctx, riceType, result.forecast); err != nil {
			return nil, fmt.Errorf("write forecast for %q: %w", riceType, err)
		}

		summary.Metrics = append(summary.Metrics, result.metrics)
		summary.RiceTypesModeled++
		log.Printf("✅ [FORECAST] %s: MAE %.2f, R² %.4f, %d day horizon", riceType, result.metrics.MAE, result.metrics.R2Score, p.cfg.HorizonDays)
	}

	report := models.AccuracyReport{
		ModelName:           summary.ModelName,
		TrainingDate:        summary.TrainingDate,
		ForecastHorizonDays: summary.HorizonDays,
		// Counts every distinct rice type in the input, including ones the
		// row gates skipped. RiceTypesModeled in the summary carries the
		// narrower count.
		TotalRiceTypesModeled: summary.RiceTypesSeen,
		TotalRecordsUsed:      summary.TotalRecordsUsed,
		DateRange:             summary.DateRange,
		PerRiceTypeMetrics:    summary.Metrics,
	}
	if err := p.accuracy.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("write accuracy report: %w", err)
	}

	log.Printf("🏁 [FORECAST] Run complete: %d/%d rice types modeled", summary.RiceTypesModeled, summary.RiceTypesSeen)
	return summary, nil
}

// modelRiceType runs the in-memory part for one rice type: train the pair,
// score the holdout, project the horizon. A panic from degenerate numeric
// input is recovered into an error so the caller can skip just this type.
func (p *Pipeline) modelRiceType(riceType string, rows []FeatureRow) (result *riceTypeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("modeling panic: %v", r)
		}
	}()

	pair, holdout, err := TrainEnsemble(rows, p.cfg)
	if err != nil {
		return nil, err
	}

	metrics := models.RiceTypeMetrics{
		RiceType: riceType,
		MAE:      round2(MAE(holdout.Actual, holdout.Predicted)),
		R2Score:  round4(R2(holdout.Actual, holdout.Predicted)),
	}

	chart := make([]models.ChartPoint, len(holdout.Dates))
	for i := range holdout.Dates {
		chart[i] = models.ChartPoint{
			RiceType:   riceType,
			Date:       holdout.Dates[i],
			Actual:     round2(holdout.Actual[i]),
			Forecast:   round2(holdout.Predicted[i]),
			SeriesType: "test",
		}
	}

	points := Forecast(pair, rows, p.cfg)
	for i := range points {
		points[i].RiceType = riceType
	}

	return &riceTypeResult{metrics: metrics, chart: chart, forecast: points}, nil
}
