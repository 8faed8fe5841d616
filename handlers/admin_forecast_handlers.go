package handlers

import (
	"app/database"
	"app/models"
	"app/stores"
	"app/utils"
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// HandleGetTrainingDetails returns the header of the most recent training
// run for the admin forecast page.
// GET /api/v1/admin/forecast/training-details
func HandleGetTrainingDetails(c *fiber.Ctx) error {
	store := stores.NewAccuracyStore(database.GetDB())
	report, err := store.Latest(context.Background())
	if errors.Is(err, stores.ErrNoReports) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Training details not found"})
	}
	if err != nil {
		log.Printf("Error fetching training details: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to retrieve training details"})
	}

	details := models.TrainingDetails{
		ModelName:             report.ModelName,
		TrainingDate:          report.TrainingDate.Format("2006-01-02 15:04:05"),
		ForecastHorizonDays:   report.ForecastHorizonDays,
		TotalRiceTypesModeled: report.TotalRiceTypesModeled,
		TotalRecordsUsed:      report.TotalRecordsUsed,
		DateRange:             report.DateRange,
	}
	return c.JSON(fiber.Map{"status": "success", "data": details})
}

// HandleGetAccuracyMetrics returns the latest run's per-rice-type metrics.
// A run where every rice type was gated out yields an empty list, not an
// error; only the absence of any run at all is a 404.
// GET /api/v1/admin/forecast/accuracy-metrics
func HandleGetAccuracyMetrics(c *fiber.Ctx) error {
	store := stores.NewAccuracyStore(database.GetDB())
	report, err := store.Latest(context.Background())
	if errors.Is(err, stores.ErrNoReports) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Accuracy data not found"})
	}
	if err != nil {
		log.Printf("Error fetching accuracy metrics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to retrieve accuracy data"})
	}

	return c.JSON(fiber.Map{"status": "success", "data": report.PerRiceTypeMetrics})
}

// HandleGetForecastVsActual returns the held-out chart rows for one rice type.
// GET /api/v1/admin/forecast/forecast-vs-actual?riceType=...&dataType=test
func HandleGetForecastVsActual(c *fiber.Ctx) error {
	riceType := c.Query("riceType")
	if riceType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "riceType query parameter is required"})
	}
	dataType := c.Query("dataType", "test")

	store := stores.NewChartStore(database.GetDB())
	points, err := store.ListByRiceTypeSeries(context.Background(), riceType, dataType)
	if err != nil {
		log.Printf("Error fetching chart data for %q: %v", riceType, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to retrieve chart data"})
	}
	if len(points) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "No chart data found for this rice type"})
	}

	data := make([]fiber.Map, 0, len(points))
	for _, p := range points {
		data = append(data, fiber.Map{
			"date":     p.Date.Format("2006-01-02"),
			"actual":   p.Actual,
			"forecast": p.Forecast,
		})
	}
	return c.JSON(fiber.Map{"status": "success", "data": data})
}

// HandleGetRunHistory lists training runs newest-first with pagination.
// GET /api/v1/admin/forecast/run-history?page=1&pageSize=10
func HandleGetRunHistory(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("pageSize", 10)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	store := stores.NewAccuracyStore(database.GetDB())
	reports, total, err := store.List(context.Background(), pageSize, offset)
	if err != nil {
		log.Printf("Error fetching run history: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to retrieve run history"})
	}
	if len(reports) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "No forecast run history found"})
	}

	history := make([]models.TrainingDetails, 0, len(reports))
	for _, r := range reports {
		history = append(history, models.TrainingDetails{
			ModelName:             r.ModelName,
			TrainingDate:          r.TrainingDate.Format("2006-01-02 15:04:05"),
			ForecastHorizonDays:   r.ForecastHorizonDays,
			TotalRiceTypesModeled: r.TotalRiceTypesModeled,
			TotalRecordsUsed:      r.TotalRecordsUsed,
			DateRange:             r.DateRange,
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"items":      history,
			"pagination": utils.CreatePagination(total, page, pageSize),
		},
	})
}

// HandleGetMaeR2Trend returns one rice type's metrics across training runs,
// oldest first, for the accuracy trend chart.
// GET /api/v1/admin/forecast/mae-r2-trend?riceType=...
func HandleGetMaeR2Trend(c *fiber.Ctx) error {
	riceType := c.Query("riceType")
	if riceType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "riceType query parameter is required"})
	}

	store := stores.NewAccuracyStore(database.GetDB())
	trend, err := store.TrendForRiceType(context.Background(), riceType)
	if err != nil {
		log.Printf("Error fetching metric trend for %q: %v", riceType, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to retrieve metric trend"})
	}
	if len(trend) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "No metric history found for this rice type"})
	}

	return c.JSON(fiber.Map{"status": "success", "data": trend})
}
