package handlers

import (
	"app/database"
	"app/models"
	"app/stores"
	"context"
	"log"
	"math"
	"sort"

	"github.com/gofiber/fiber/v2"
)

func roundTo2(v float64) float64 { return math.Round(v*100) / 100 }

// HandleGetDemandSummary aggregates the current forecast into the KPI tiles
// on the demand page: total demand, average per day, top rice type.
// GET /api/v1/demand/summary
func HandleGetDemandSummary(c *fiber.Ctx) error {
	store := stores.NewForecastStore(database.GetDB())
	points, err := store.ListAll(context.Background())
	if err != nil {
		log.Printf("Error listing forecasts for demand summary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to retrieve demand data"})
	}
	if len(points) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "No forecast data found"})
	}

	var totalDemand float64
	uniqueDates := make(map[string]bool)
	riceTotals := make(map[string]float64)
	for _, p := range points {
		totalDemand += p.PredictedQuantityKG
		uniqueDates[p.Date.Format("2006-01-02")] = true
		riceTotals[p.RiceType] += p.PredictedQuantityKG
	}

	summary := models.DemandSummary{
		TotalDemand:   roundTo2(totalDemand),
		AveragePerDay: roundTo2(totalDemand / float64(len(uniqueDates))),
	}
	for rt, total := range riceTotals {
		if total > summary.TopRiceTotal {
			summary.TopRiceType = rt
			summary.TopRiceTotal = roundTo2(total)
		}
	}

	return c.JSON(fiber.Map{"status": "success", "data": summary})
}

// HandleGetDemandTable totals predicted demand per rice type over the first
// N horizon days (30, 60 or 90), largest first.
// GET /api/v1/demand/table?days=30
func HandleGetDemandTable(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)

	store := stores.NewForecastStore(database.GetDB())
	points, err := store.ListAll(context.Background())
	if err != nil {
		log.Printf("Error listing forecasts for demand table: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to retrieve demand data"})
	}
	if len(points) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "No forecast data found"})
	}

	// Points come back date-ascending; keep only the first N distinct days.
	riceTotals := make(map[string]float64)
	dayCount := 0
	lastDay := ""
	for _, p := range points {
		day := p.Date.Format("2006-01-02")
		if day != lastDay {
			dayCount++
			lastDay = day
		}
		if dayCount > days {
			break
		}
		riceTotals[p.RiceType] += p.PredictedQuantityKG
	}

	table := make([]models.DemandTableRow, 0, len(riceTotals))
	for rt, total := range riceTotals {
		table = append(table, models.DemandTableRow{RiceType: rt, TotalQty: roundTo2(total)})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].TotalQty > table[j].TotalQty })

	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"days": days,
			"data": table,
		},
	})
}
