package handlers

import (
	"app/config"
	"app/database"
	"app/models"
	"app/stores"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// HandleDemandInsight asks Gemini for a short narrative over one rice
// type's current forecast, optionally steered by a user question.
// POST /api/v1/demand/insight
func HandleDemandInsight(c *fiber.Ctx) error {
	var req models.DemandInsightRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "Invalid request body"})
	}
	if req.RiceType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "riceType is required"})
	}

	store := stores.NewForecastStore(database.GetDB())
	points, err := store.ListByRiceType(context.Background(), req.RiceType)
	if err != nil {
		log.Printf("Error listing forecast for insight on %q: %v", req.RiceType, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to retrieve forecast"})
	}
	if len(points) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "No forecast data found for this rice type"})
	}

	analysis, err := generateDemandAnalysis(req, points)
	if err != nil {
		log.Printf("Error generating demand analysis: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Failed to generate analysis"})
	}

	return c.JSON(fiber.Map{"status": "success", "analysis": analysis})
}

// generateDemandAnalysis summarizes the forecast rows into a compact prompt
// and asks Gemini for a plain-language read of the demand outlook.
func generateDemandAnalysis(req models.DemandInsightRequest, points []models.ForecastPoint) (string, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		return "", fmt.Errorf("failed to create AI client: %w", err)
	}
	defer client.Close()

	var total float64
	var sample strings.Builder
	for i, p := range points {
		total += p.PredictedQuantityKG
		// The full horizon does not need to go into the prompt; weekly
		// samples keep it small without losing the shape.
		if i%7 == 0 {
			fmt.Fprintf(&sample, "%s: %.1f KG\n", p.Date.Format("2006-01-02"), p.PredictedQuantityKG)
		}
	}

	question := req.Question
	if question == "" {
		question = "Summarize the demand outlook and anything a purchasing manager should prepare for."
	}

	prompt := fmt.Sprintf(
		`You are a demand planning assistant for a rice distributor.
Forecast for rice type %q over the next %d days (weekly samples, total %.0f KG):
%s
Question: %s
Answer in at most four sentences.`,
		req.RiceType, len(points), total, sample.String(), question,
	)

	model := client.GenerativeModel("gemini-1.5-pro")
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate analysis: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return strings.TrimSpace(fmt.Sprint(resp.Candidates[0].Content.Parts[0])), nil
}
