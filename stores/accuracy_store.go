package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"app/models"
)

// AccuracyStore holds one report per training run, append-only. The newest
// report describes the current model; older rows feed the trend endpoints.
type AccuracyStore struct {
	db *pgxpool.Pool
}

func NewAccuracyStore(db *pgxpool.Pool) *AccuracyStore {
	return &AccuracyStore{db: db}
}

// ErrNoReports is returned when no training run has been recorded yet.
var ErrNoReports = errors.New("no accuracy reports recorded")

func (s *AccuracyStore) Insert(ctx context.Context, report models.AccuracyReport) error {
	metrics, err := json.Marshal(report.PerRiceTypeMetrics)
	if err != nil {
		return fmt.Errorf("marshal per-rice-type metrics: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO forecast_accuracy
			(model_name, training_date, forecast_horizon_days, total_rice_types_modeled,
			 total_records_used, range_start, range_end, per_rice_type_metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.ModelName, report.TrainingDate, report.ForecastHorizonDays,
		report.TotalRiceTypesModeled, report.TotalRecordsUsed,
		report.DateRange.Start, report.DateRange.End, metrics,
	)
	if err != nil {
		return fmt.Errorf("insert accuracy report: %w", err)
	}
	return nil
}

// Latest returns the most recent report.
func (s *AccuracyStore) Latest(ctx context.Context) (*models.AccuracyReport, error) {
	row := s.db.QueryRow(ctx, `
		SELECT model_name, training_date, forecast_horizon_days, total_rice_types_modeled,
		       total_records_used, range_start, range_end, per_rice_type_metrics
		FROM forecast_accuracy
		ORDER BY training_date DESC
		LIMIT 1
	`)
	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoReports
	}
	return report, err
}

// List returns reports newest-first.
func (s *AccuracyStore) List(ctx context.Context, limit, offset int) ([]models.AccuracyReport, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM forecast_accuracy`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accuracy reports: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT model_name, training_date, forecast_horizon_days, total_rice_types_modeled,
		       total_records_used, range_start, range_end, per_rice_type_metrics
		FROM forecast_accuracy
		ORDER BY training_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query accuracy reports: %w", err)
	}
	defer rows.Close()

	var reports []models.AccuracyReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, *report)
	}
	return reports, total, rows.Err()
}

// TrendForRiceType returns one rice type's metrics across runs in
// chronological order, for the MAE / R² trend chart.
func (s *AccuracyStore) TrendForRiceType(ctx context.Context, riceType string) ([]models.MetricTrendPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.training_date, (m->>'mae')::float8, (m->>'r2_score')::float8
		FROM forecast_accuracy a,
		     jsonb_array_elements(a.per_rice_type_metrics) m
		WHERE m->>'rice_type' = $1
		ORDER BY a.training_date ASC
		LIMIT 50`, riceType)
	if err != nil {
		return nil, fmt.Errorf("query metric trend: %w", err)
	}
	defer rows.Close()

	var trend []models.MetricTrendPoint
	for rows.Next() {
		var p models.MetricTrendPoint
		var trainedAt time.Time
		if err := rows.Scan(&trainedAt, &p.MAE, &p.R2Score); err != nil {
			return nil, fmt.Errorf("scan metric trend row: %w", err)
		}
		p.TrainingDate = trainedAt.Format("2006-01-02 15:04:05")
		trend = append(trend, p)
	}
	return trend, rows.Err()
}

func scanReport(row pgx.Row) (*models.AccuracyReport, error) {
	var report models.AccuracyReport
	var metrics []byte
	err := row.Scan(
		&report.ModelName, &report.TrainingDate, &report.ForecastHorizonDays,
		&report.TotalRiceTypesModeled, &report.TotalRecordsUsed,
		&report.DateRange.Start, &report.DateRange.End, &metrics,
	)
	if err != nil {
		return nil, err
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &report.PerRiceTypeMetrics); err != nil {
			return nil, fmt.Errorf("unmarshal per-rice-type metrics: %w", err)
		}
	}
	if report.PerRiceTypeMetrics == nil {
		report.PerRiceTypeMetrics = []models.RiceTypeMetrics{}
	}
	return &report, nil
}
