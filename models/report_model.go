package models

// TrainingDetails is the header of the most recent accuracy report, shown
// on the admin forecast page.
type TrainingDetails struct {
	ModelName             string    `json:"model_name"`
	TrainingDate          string    `json:"training_date"`
	ForecastHorizonDays   int       `json:"forecast_horizon_days"`
	TotalRiceTypesModeled int       `json:"total_rice_types_modeled"`
	TotalRecordsUsed      int       `json:"total_records_used"`
	DateRange             DateRange `json:"date_range"`
}

// DemandSummary aggregates the current forecast across all rice types.
type DemandSummary struct {
	TotalDemand   float64 `json:"total_demand"`
	AveragePerDay float64 `json:"average_per_day"`
	TopRiceType   string  `json:"top_rice_type"`
	TopRiceTotal  float64 `json:"top_rice_total"`
}

// DemandTableRow is one rice type's total predicted demand over a window.
type DemandTableRow struct {
	RiceType string  `json:"rice_type"`
	TotalQty float64 `json:"total_qty"`
}

// MetricTrendPoint is one training run's metrics for a single rice type,
// used for the MAE / R² trend chart.
type MetricTrendPoint struct {
	TrainingDate string  `json:"training_date"`
	MAE          float64 `json:"mae"`
	R2Score      float64 `json:"r2_score"`
}

// DemandInsightRequest asks the AI assistant for a narrative over a rice
// type's current forecast.
type DemandInsightRequest struct {
	RiceType string `json:"riceType"`
	Question string `json:"question"`
}
