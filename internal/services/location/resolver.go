package location

import (
	"strconv"
	"strings"

	"weather-bot/internal/models"
)

// Resolve turns user text into a place-name or coordinate query.
// "<float>,<float>" becomes coordinates; anything else, including a comma-separated
// pair that fails to parse, is kept verbatim as a place name.
func Resolve(raw string) models.LocationQuery {
	latPart, lonPart, found := strings.Cut(raw, ",")
	if !found {
		return models.NewNamedPlace(raw)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latPart), 64)
	if err != nil {
		return models.NewNamedPlace(raw)
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(lonPart), 64)
	if err != nil {
		return models.NewNamedPlace(raw)
	}

	return models.NewCoordinates(lat, lon)
}
