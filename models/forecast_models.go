package models

import "time"

// --- Forecasting Documents ---

// SalesRecord is one day's sales for one rice type, as ingested by the
// upload service. The forecasting pipeline treats these rows as read-only.
type SalesRecord struct {
	Date        time.Time `json:"date"`
	RiceType    string    `json:"rice_type"`
	QuantityKG  float64   `json:"quantity_kg"`
	GrossAmount float64   `json:"gross_amount"`
	PricePerKG  float64   `json:"price_per_kg"`
	Closed      bool      `json:"closed"`
}

// ForecastPoint is one predicted day for one rice type.
type ForecastPoint struct {
	RiceType            string    `json:"rice_type"`
	Date                time.Time `json:"date"`
	PredictedQuantityKG float64   `json:"predicted_quantity_kg"`
}

// ChartPoint is a diagnostic actual-vs-forecast row for the held-out test
// window. SeriesType is "test" for rows written by the pipeline.
type ChartPoint struct {
	RiceType   string    `json:"rice_type"`
	Date       time.Time `json:"date"`
	Actual     float64   `json:"actual"`
	Forecast   float64   `json:"forecast"`
	SeriesType string    `json:"type"`
}

// RiceTypeMetrics holds the held-out error metrics for a single rice type.
type RiceTypeMetrics struct {
	RiceType string  `json:"rice_type"`
	MAE      float64 `json:"mae"`
	R2Score  float64 `json:"r2_score"`
}

// DateRange is the span of input data a training run saw.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AccuracyReport summarizes one full training run. Reports are append-only;
// the newest one describes the "current" model.
type AccuracyReport struct {
	ModelName             string            `json:"model_name"`
	TrainingDate          time.Time         `json:"training_date"`
	ForecastHorizonDays   int               `json:"forecast_horizon_days"`
	TotalRiceTypesModeled int               `json:"total_rice_types_modeled"`
	TotalRecordsUsed      int               `json:"total_records_used"`
	DateRange             DateRange         `json:"date_range"`
	PerRiceTypeMetrics    []RiceTypeMetrics `json:"per_rice_type_metrics"`
}

// SkippedRiceType records a rice type the run did not model and why.
type SkippedRiceType struct {
	RiceType string `json:"rice_type"`
	Reason   string `json:"reason"`
}

// RunSummary is the typed result of a pipeline run: enough for the caller
// to distinguish a clean run from success-with-warnings.
type RunSummary struct {
	ModelName        string            `json:"model_name"`
	TrainingDate     time.Time         `json:"training_date"`
	HorizonDays      int               `json:"horizon_days"`
	RiceTypesSeen    int               `json:"rice_types_seen"`
	RiceTypesModeled int               `json:"rice_types_modeled"`
	Skipped          []SkippedRiceType `json:"skipped"`
	Metrics          []RiceTypeMetrics `json:"metrics"`
	TotalRecordsUsed int               `json:"total_records_used"`
	DateRange        DateRange         `json:"date_range"`
}
