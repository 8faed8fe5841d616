package stores

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"app/models"
)

// SalesStore reads the uploaded historical sales records. The forecasting
// pipeline only ever reads this table; writes happen in the upload service.
type SalesStore struct {
	db *pgxpool.Pool
}

func NewSalesStore(db *pgxpool.Pool) *SalesStore {
	return &SalesStore{db: db}
}

// LoadAll returns every sales record. The working set is assumed to fit in
// memory, so there is no pagination.
func (s *SalesStore) LoadAll(ctx context.Context) ([]models.SalesRecord, error) {
	query := `
		SELECT date, rice_type, quantity_kg, gross_amount, price_per_kg, closed
		FROM sales_records
		ORDER BY rice_type, date
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}
	defer rows.Close()

	var records []models.SalesRecord
	for rows.Next() {
		var r models.SalesRecord
		if err := rows.Scan(&r.Date, &r.RiceType, &r.QuantityKG, &r.GrossAmount, &r.PricePerKG, &r.Closed); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
