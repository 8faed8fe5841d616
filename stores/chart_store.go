package stores

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"app/models"
)

// ChartStore holds the actual-vs-forecast diagnostic rows for the held-out
// test window. Same full-replace discipline as the forecast store, keyed by
// (rice type, series).
type ChartStore struct {
	db *pgxpool.Pool
}

func NewChartStore(db *pgxpool.Pool) *ChartStore {
	return &ChartStore{db: db}
}

func (s *ChartStore) ReplaceForRiceTypeSeries(ctx context.Context, riceType, seriesType string, points []models.ChartPoint) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin chart replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM forecast_chart_data WHERE rice_type = $1 AND series_type = $2`,
		riceType, seriesType,
	); err != nil {
		return fmt.Errorf("delete old chart rows: %w", err)
	}
	for _, p := range points {
		_, err := tx.Exec(ctx,
			`INSERT INTO forecast_chart_data (rice_type, date, actual, forecast, series_type)
			 VALUES ($1, $2, $3, $4, $5)`,
			riceType, p.Date, p.Actual, p.Forecast, seriesType,
		)
		if err != nil {
			return fmt.Errorf("insert chart row: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListByRiceTypeSeries returns chart rows in ascending date order.
func (s *ChartStore) ListByRiceTypeSeries(ctx context.Context, riceType, seriesType string) ([]models.ChartPoint, error) {
	query := `
		SELECT rice_type, date, actual, forecast, series_type
		FROM forecast_chart_data
		WHERE rice_type = $1 AND series_type = $2
		ORDER BY date
	`
	rows, err := s.db.Query(ctx, query, riceType, seriesType)
	if err != nil {
		return nil, fmt.Errorf("query chart data: %w", err)
	}
	defer rows.Close()

	var points []models.ChartPoint
	for rows.Next() {
		var p models.ChartPoint
		if err := rows.Scan(&p.RiceType, &p.Date, &p.Actual, &p.Forecast, &p.SeriesType); err != nil {
			return nil, fmt.Errorf("scan chart row: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
