package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"weather-bot/internal/models"
	"weather-bot/internal/services/weather"
)

const (
	greetingMessage    = "Hi! Send a city name to get the weather."
	checkInputMessage  = "Check the location name, e.g. Moscow, Berlin or 55.75, 37.61"
	missingLocationMsg = "Missing required parameter: location"
)

// WeatherResponse represents the rendered weather card
type WeatherResponse struct {
	Location string `json:"location" example:"Berlin"`
	Caption  string `json:"caption" example:"Berlin\nWeather: Clear sky\nTemperature: 24.0°C\nWind: 2.6 m/s"`
	Image    []byte `json:"image" swaggertype:"string" format:"base64"`
}

// BotMessage is an incoming chat message
type BotMessage struct {
	Text string `json:"text" example:"Berlin"`
}

// BotReply is what the chat front end sends back: a plain text or a photo with a caption
type BotReply struct {
	Text    string `json:"text,omitempty" example:"Hi! Send a city name to get the weather."`
	Caption string `json:"caption,omitempty"`
	Photo   []byte `json:"photo,omitempty" swaggertype:"string" format:"base64"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"Missing required parameter: location"`
}

// GetWeather godoc
// @Summary Get weather card
// @Description Returns current weather for a place name or "lat, lon" pair as a PNG card and caption
// @Tags Weather
// @Produce json
// @Param location query string true "Place name or coordinates" example(Berlin)
// @Success 200 {object} WeatherResponse "Successful response"
// @Failure 400 {object} ErrorResponse "Bad request - missing location"
// @Failure 404 {object} ErrorResponse "Unknown location or provider unavailable"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /weather [get]
func (r *routes) handleWeatherCall(c *fiber.Ctx) error {
	artifact, status, msg := r.lookup(c, c.Query("location"))
	if status != fiber.StatusOK {
		return c.Status(status).JSON(ErrorResponse{Error: msg})
	}

	return c.JSON(WeatherResponse{
		Location: artifact.Location,
		Caption:  artifact.Caption,
		Image:    artifact.Image,
	})
}

// GetWeatherImage godoc
// @Summary Get weather card image
// @Tags Weather
// @Produce png
// @Param location query string true "Place name or coordinates" example(55.75, 37.61)
// @Success 200 {file} binary "PNG image"
// @Failure 400 {object} ErrorResponse "Bad request - missing location"
// @Failure 404 {object} ErrorResponse "Unknown location or provider unavailable"
// @Router /weather/image [get]
func (r *routes) handleWeatherImage(c *fiber.Ctx) error {
	artifact, status, msg := r.lookup(c, c.Query("location"))
	if status != fiber.StatusOK {
		return c.Status(status).JSON(ErrorResponse{Error: msg})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(artifact.Image)
}

// PostBotMessage godoc
// @Summary Answer a chat message
// @Description "/start" returns a greeting, any other text is treated as a location
// @Tags Bot
// @Accept json
// @Produce json
// @Param message body BotMessage true "Incoming message"
// @Success 200 {object} BotReply
// @Failure 400 {object} ErrorResponse
// @Router /bot/message [post]
func (r *routes) handleBotMessage(c *fiber.Ctx) error {
	var msg BotMessage
	if err := c.BodyParser(&msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid message body"})
	}

	text := strings.TrimSpace(msg.Text)
	if text == "/start" {
		return c.JSON(BotReply{Text: greetingMessage})
	}

	artifact, status, reply := r.lookup(c, text)
	switch status {
	case fiber.StatusOK:
	case fiber.StatusInternalServerError:
		return c.Status(status).JSON(ErrorResponse{Error: reply})
	default:
		// the chat user gets a normal reply explaining what to fix
		return c.JSON(BotReply{Text: reply})
	}

	return c.JSON(BotReply{Caption: artifact.Caption, Photo: artifact.Image})
}

// lookup returns the artifact, or a non-200 status with the message to show the user.
func (r *routes) lookup(c *fiber.Ctx, raw string) (models.Artifact, int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Artifact{}, fiber.StatusBadRequest, missingLocationMsg
	}

	artifact, err := r.service.Handle(c.Context(), raw)
	switch {
	case err == nil:
		return artifact, fiber.StatusOK, ""
	case errors.Is(err, weather.ErrInvalidOrUnresolvable):
		return models.Artifact{}, fiber.StatusNotFound, checkInputMessage
	default:
		r.l.Error(err, map[string]any{
			"location":  raw,
			"requestId": c.Locals("requestid"),
		})
		return models.Artifact{}, fiber.StatusInternalServerError, "Failed to render weather"
	}
}
