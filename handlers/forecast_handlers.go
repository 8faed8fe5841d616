package handlers

import (
	"app/database"
	"app/forecast"
	"app/stores"
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
)

// HandleRunForecast triggers a full forecasting run. The run is synchronous
// and can take a while with many rice types; the request context is passed
// down so a cancelled request stops the run at the next rice type boundary.
// POST /api/v1/admin/forecast/run
func HandleRunForecast(c *fiber.Ctx) error {
	db := database.GetDB()

	pipeline := forecast.NewPipeline(
		forecast.DefaultConfig(),
		stores.NewSalesStore(db),
		stores.NewForecastStore(db),
		stores.NewChartStore(db),
		stores.NewAccuracyStore(db),
	)

	summary, err := pipeline.Run(c.Context())
	if err != nil {
		log.Printf("❌ [FORECAST HANDLER] Run failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Forecasting failed"})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Forecasting complete",
		"data":    summary,
	})
}

// HandleGetForecast returns the current forecast for one rice type.
// GET /api/v1/forecast?riceType=...
func HandleGetForecast(c *fiber.Ctx) error {
	riceType := c.Query("riceType")
	if riceType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "riceType query parameter is required"})
	}

	store := stores.NewForecastStore(database.GetDB())
	points, err := store.ListByRiceType(context.Background(), riceType)
	if err != nil {
		log.Printf("Error listing forecast for %q: %v", riceType, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to retrieve forecast"})
	}
	if len(points) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "No forecast data found for this rice type"})
	}

	forecasts := make([]fiber.Map, 0, len(points))
	for _, p := range points {
		forecasts = append(forecasts, fiber.Map{
			"date":     p.Date.Format("2006-01-02"),
			"quantity": p.PredictedQuantityKG,
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"rice_type": riceType,
			"forecasts": forecasts,
		},
	})
}
