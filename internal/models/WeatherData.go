package models

import "time"

// Condition is the coarse weather category used for backgrounds and forecast comparison.
type Condition string

const (
	ConditionClear  Condition = "Clear"
	ConditionClouds Condition = "Clouds"
	ConditionRain   Condition = "Rain"
	ConditionSnow   Condition = "Snow"
	ConditionFog    Condition = "Fog"
	ConditionOther  Condition = "Other"
)

// ParseCondition maps a provider "main" group (e.g. OpenWeatherMap) to a Condition.
func ParseCondition(main string) Condition {
	switch main {
	case "Clear":
		return ConditionClear
	case "Clouds":
		return ConditionClouds
	case "Rain":
		return ConditionRain
	case "Snow":
		return ConditionSnow
	case "Fog", "Mist", "Haze":
		return ConditionFog
	default:
		return ConditionOther
	}
}

// WeatherSnapshot holds current conditions for a location.
type WeatherSnapshot struct {
	Place        string    `json:"place" example:"Berlin"`
	Condition    Condition `json:"condition" example:"Clouds"`
	Description  string    `json:"description" example:"broken clouds"`
	TemperatureC float64   `json:"temperature_c" example:"12.4"`
	WindSpeedMS  float64   `json:"wind_speed_ms" example:"3.6"`
	ObservedAt   time.Time `json:"observed_at"`
}

// WeatherReport is what gets cached per location: current conditions plus the best-effort forecast.
type WeatherReport struct {
	Current  WeatherSnapshot `json:"current"`
	Forecast Forecast        `json:"-"`
}
