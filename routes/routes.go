package routes

import (
	"app/handlers"
	"app/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// --- Forecast Routes (authenticated users) ---
	api.Get("/forecast", middleware.JWTMiddleware, handlers.HandleGetForecast)

	demand := api.Group("/demand", middleware.JWTMiddleware)
	demand.Get("/summary", handlers.HandleGetDemandSummary)
	demand.Get("/table", handlers.HandleGetDemandTable)
	demand.Post("/insight", handlers.HandleDemandInsight)

	// --- Admin Routes ---
	admin := api.Group("/admin", middleware.JWTMiddleware, middleware.AdminRequired)

	adminForecast := admin.Group("/forecast")
	adminForecast.Post("/run", handlers.HandleRunForecast)
	adminForecast.Get("/training-details", handlers.HandleGetTrainingDetails)
	adminForecast.Get("/accuracy-metrics", handlers.HandleGetAccuracyMetrics)
	adminForecast.Get("/forecast-vs-actual", handlers.HandleGetForecastVsActual)
	adminForecast.Get("/run-history", handlers.HandleGetRunHistory)
	adminForecast.Get("/mae-r2-trend", handlers.HandleGetMaeR2Trend)
}
