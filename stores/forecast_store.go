package stores

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"app/models"
)

// ForecastStore holds the current forecast rows, one per (rice type, future
// date). Writes are full-replace per rice type.
type ForecastStore struct {
	db *pgxpool.Pool
}

func NewForecastStore(db *pgxpool.Pool) *ForecastStore {
	return &ForecastStore{db: db}
}

// ReplaceForRiceType deletes the rice type's previous forecast and inserts
// the new horizon in a single transaction. Concurrent readers may observe
// an empty window for this rice type while the transaction commits; that is
// accepted, no cross-rice-type atomicity is needed.
func (s *ForecastStore) ReplaceForRiceType(ctx context.Context, riceType string, points []models.ForecastPoint) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin forecast replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM rice_forecasts WHERE rice_type = $1`, riceType); err != nil {
		return fmt.Errorf("delete old forecast: %w", err)
	}
	for _, p := range points {
		_, err := tx.Exec(ctx,
			`INSERT INTO rice_forecasts (rice_type, date, predicted_quantity_kg) VALUES ($1, $2, $3)`,
			riceType, p.Date, p.PredictedQuantityKG,
		)
		if err != nil {
			return fmt.Errorf("insert forecast row: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListByRiceType returns the rice type's forecast in ascending date order.
func (s *ForecastStore) ListByRiceType(ctx context.Context, riceType string) ([]models.ForecastPoint, error) {
	query := `
		SELECT rice_type, date, predicted_quantity_kg
		FROM rice_forecasts
		WHERE rice_type = $1
		ORDER BY date
	`
	return s.scanPoints(ctx, query, riceType)
}

// ListAll returns every forecast row, ascending by date.
func (s *ForecastStore) ListAll(ctx context.Context) ([]models.ForecastPoint, error) {
	query := `
		SELECT rice_type, date, predicted_quantity_kg
		FROM rice_forecasts
		ORDER BY date, rice_type
	`
	return s.scanPoints(ctx, query)
}

func (s *ForecastStore) scanPoints(ctx context.Context, query string, args ...interface{}) ([]models.ForecastPoint, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query forecasts: %w", err)
	}
	defer rows.Close()

	var points []models.ForecastPoint
	for rows.Next() {
		var p models.ForecastPoint
		if err := rows.Scan(&p.RiceType, &p.Date, &p.PredictedQuantityKG); err != nil {
			return nil, fmt.Errorf("scan forecast row: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
