package narrator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"weather-bot/internal/models"
)

const (
	MessageNoChange = "No change in the weather is expected soon."
	MessageRain     = "Rain is expected soon. Don't forget your umbrella!"
	messageChange   = "Coming up soon: %s"
)

// Narrate compares current conditions with the nearest forecast point.
// It reports no message when the forecast is unavailable.
func Narrate(current models.WeatherSnapshot, forecast models.Forecast) (string, bool) {
	next, ok := forecast.Next()
	if !ok {
		return "", false
	}

	switch {
	case next.Condition == current.Condition:
		return MessageNoChange, true
	case next.Condition == models.ConditionRain:
		return MessageRain, true
	default:
		return fmt.Sprintf(messageChange, Capitalize(next.Description)), true
	}
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
