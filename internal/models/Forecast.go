package models

import "time"

// ForecastPoint is the nearest-future forecast entry.
type ForecastPoint struct {
	Condition   Condition `json:"condition" example:"Rain"`
	Description string    `json:"description" example:"light rain"`
	At          time.Time `json:"at"`
}

// Forecast is an optional ForecastPoint. The zero value means the forecast is unavailable.
type Forecast struct {
	next  ForecastPoint
	valid bool
}

func ForecastOf(p ForecastPoint) Forecast {
	return Forecast{next: p, valid: true}
}

func NoForecast() Forecast {
	return Forecast{}
}

// Next returns the nearest forecast point and whether one is available.
func (f Forecast) Next() (ForecastPoint, bool) {
	return f.next, f.valid
}

func (f Forecast) Available() bool {
	return f.valid
}
