package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/models"
)

type fakeSales struct {
	records []models.SalesRecord
	err     error
}

func (f *fakeSales) LoadAll(ctx context.Context) ([]models.SalesRecord, error) {
	return f.records, f.err
}

type fakeForecasts struct {
	data map[string][]models.ForecastPoint
	err  error
}

func (f *fakeForecasts) ReplaceForRiceType(ctx context.Context, riceType string, points []models.ForecastPoint) error {
	if f.err != nil {
		return f.err
	}
	if f.data == nil {
		f.data = make(map[string][]models.ForecastPoint)
	}
	f.data[riceType] = points
	return nil
}

type fakeCharts struct {
	data map[string][]models.ChartPoint
}

func (f *fakeCharts) ReplaceForRiceTypeSeries(ctx context.Context, riceType, seriesType string, points []models.ChartPoint) error {
	if f.data == nil {
		f.data = make(map[string][]models.ChartPoint)
	}
	f.data[riceType+"/"+seriesType] = points
	return nil
}

type fakeAccuracy struct {
	reports []models.AccuracyReport
	err     error
}

func (f *fakeAccuracy) Insert(ctx context.Context, report models.AccuracyReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, report)
	return nil
}

func pipelineFixture(cfg Config, records []models.SalesRecord) (*Pipeline, *fakeForecasts, *fakeCharts, *fakeAccuracy) {
	forecasts := &fakeForecasts{}
	charts := &fakeCharts{}
	accuracy := &fakeAccuracy{}
	p := NewPipeline(cfg, &fakeSales{records: records}, forecasts, charts, accuracy)
	return p, forecasts, charts, accuracy
}

func TestRunModelsEligibleTypesAndSkipsSparseOnes(t *testing.T) {
	cfg := testConfig()
	var records []models.SalesRecord
	records = append(records, makeRecords("Nadu", day("2024-01-01"), 120, func(i int) float64 { return 40 + float64(i%7) })...)
	records = append(records, makeRecords("Samba", day("2024-01-01"), 110, func(i int) float64 { return 60 + float64(i%5) })...)
	records = append(records, makeRecords("Kekulu", day("2024-01-01"), 50, func(i int) float64 { return 30 })...)

	p, forecasts, charts, accuracy := pipelineFixture(cfg, records)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.RiceTypesSeen)
	assert.Equal(t, 2, summary.RiceTypesModeled)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, "Kekulu", summary.Skipped[0].RiceType)
	assert.Equal(t, "insufficient raw rows", summary.Skipped[0].Reason)

	// Exactly one report per run; its metric list covers only the modeled
	// types while the headline count covers every distinct type seen.
	require.Len(t, accuracy.reports, 1)
	report := accuracy.reports[0]
	assert.Equal(t, 3, report.TotalRiceTypesModeled)
	assert.Len(t, report.PerRiceTypeMetrics, 2)
	assert.Equal(t, 280, report.TotalRecordsUsed)

	// Horizon rows for the modeled types, nothing for the sparse one.
	assert.Len(t, forecasts.data["Nadu"], cfg.HorizonDays)
	assert.Len(t, forecasts.data["Samba"], cfg.HorizonDays)
	assert.NotContains(t, forecasts.data, "Kekulu")
	assert.NotContains(t, charts.data, "Kekulu/test")

	for _, p := range forecasts.data["Nadu"] {
		assert.GreaterOrEqual(t, p.PredictedQuantityKG, 0.0)
	}
}

func TestRunSkipsOnFeatureRowGate(t *testing.T) {
	cfg := testConfig()
	cfg.MinRawRows = 40
	// 60 raw rows leave only 30 feature rows, below the feature gate.
	records := makeRecords("Nadu", day("2024-01-01"), 60, func(int) float64 { return 25 })

	p, forecasts, _, accuracy := pipelineFixture(cfg, records)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.RiceTypesModeled)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, "insufficient feature rows", summary.Skipped[0].Reason)
	assert.Empty(t, forecasts.data)

	// The report still lands, with an empty metrics list.
	require.Len(t, accuracy.reports, 1)
	assert.NotNil(t, accuracy.reports[0].PerRiceTypeMetrics)
	assert.Len(t, accuracy.reports[0].PerRiceTypeMetrics, 0)
}

func TestRunExcludesClosedDays(t *testing.T) {
	cfg := testConfig()
	records := makeRecords("Nadu", day("2024-01-01"), 120, func(int) float64 { return 45 })
	// Closing 30 of them drops the type below the raw gate.
	for i := 0; i < 30; i++ {
		records[i].Closed = true
	}

	p, _, _, accuracy := pipelineFixture(cfg, records)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 90, summary.TotalRecordsUsed)
	require.Len(t, summary.Skipped, 1)
	require.Len(t, accuracy.reports, 1)
	assert.Equal(t, "2024-01-31", accuracy.reports[0].DateRange.Start)
}

func TestRunReplacesInsteadOfAccumulating(t *testing.T) {
	cfg := testConfig()
	records := makeRecords("Samba", day("2024-01-01"), 120, func(i int) float64 { return 50 + float64(i%3) })
	p, forecasts, charts, accuracy := pipelineFixture(cfg, records)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	// Forecast and chart rows are replaced per run; reports accumulate.
	assert.Len(t, forecasts.data["Samba"], cfg.HorizonDays)
	// 120 raw rows → 90 feature rows → ceil(20%) = 18 held out.
	assert.Len(t, charts.data["Samba/test"], 18)
	assert.Len(t, accuracy.reports, 2)
}

func TestRunFailsWhenSourceFails(t *testing.T) {
	p := NewPipeline(testConfig(), &fakeSales{err: errors.New("connection refused")}, &fakeForecasts{}, &fakeCharts{}, &fakeAccuracy{})
	_, err := p.Run(context.Background())
	assert.ErrorContains(t, err, "load sales records")
}

func TestRunFailsWhenForecastWriteFails(t *testing.T) {
	records := makeRecords("Nadu", day("2024-01-01"), 120, func(int) float64 { return 45 })
	forecasts := &fakeForecasts{err: errors.New("disk full")}
	p := NewPipeline(testConfig(), &fakeSales{records: records}, forecasts, &fakeCharts{}, &fakeAccuracy{})
	_, err := p.Run(context.Background())
	assert.ErrorContains(t, err, "write forecast")
}

func TestRunFailsWhenReportWriteFails(t *testing.T) {
	records := makeRecords("Nadu", day("2024-01-01"), 120, func(int) float64 { return 45 })
	accuracy := &fakeAccuracy{err: errors.New("disk full")}
	p := NewPipeline(testConfig(), &fakeSales{records: records}, &fakeForecasts{}, &fakeCharts{}, accuracy)
	_, err := p.Run(context.Background())
	assert.ErrorContains(t, err, "write accuracy report")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	records := makeRecords("Nadu", day("2024-01-01"), 120, func(int) float64 { return 45 })
	p, _, _, _ := pipelineFixture(testConfig(), records)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunFailsOnEmptyInput(t *testing.T) {
	p, _, _, _ := pipelineFixture(testConfig(), nil)
	_, err := p.Run(context.Background())
	assert.Error(t, err)
}

func TestRunSummaryTimestampAndHeader(t *testing.T) {
	cfg := testConfig()
	records := makeRecords("Nadu", day("2024-02-01"), 120, func(int) float64 { return 45 })
	p, _, _, _ := pipelineFixture(cfg, records)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ModelName, summary.ModelName)
	assert.Equal(t, fixed, summary.TrainingDate)
	assert.Equal(t, cfg.HorizonDays, summary.HorizonDays)
	assert.Equal(t, "2024-02-01", summary.DateRange.Start)
	assert.Equal(t, "2024-05-30", summary.DateRange.End)
}
