package http

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"weather-bot/internal/models"
	"weather-bot/pkg/observe"
)

// WeatherHandler is the single operation exposed to chat front ends.
type WeatherHandler interface {
	Handle(ctx context.Context, raw string) (models.Artifact, error)
}

type routes struct {
	service WeatherHandler
	l       *observe.Logger
}

func NewRouter(
	app *fiber.App,
	service WeatherHandler,
	l *observe.Logger,
) {
	r := &routes{
		service: service,
		l:       l,
	}

	// Swagger documentation
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		swaggerData, err := os.ReadFile("docs/swagger.json")
		if err != nil {
			return c.Status(fiber.ErrInternalServerError.Code).JSON(fiber.Map{"error": "Failed to read Swagger documentation"})
		}

		c.Set("Content-Type", "application/json")
		return c.Send(swaggerData)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	// API routes
	app.Get("/weather", r.handleWeatherCall)
	app.Get("/weather/image", r.handleWeatherImage)
	app.Post("/bot/message", r.handleBotMessage)
}
