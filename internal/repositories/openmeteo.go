package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"weather-bot/config"
	"weather-bot/internal/models"
	"weather-bot/pkg/observe"
)

const (
	OpenMeteoBaseURL      = "https://api.open-meteo.com/v1"
	OpenMeteoGeocodingURL = "https://geocoding-api.open-meteo.com/v1"

	openMeteoTimeLayout = "2006-01-02T15:04"
)

// OpenMeteoRepository needs no API key. Place names are resolved through the
// Open-Meteo geocoding API; conditions come as WMO weather codes.
type OpenMeteoRepository struct {
	BaseURL      string
	GeocodingURL string
	Lang         string

	httpClient HTTPClient
	backoff    BackoffConfig
	circuit    *gobreaker.CircuitBreaker
	l          *observe.Logger
}

func NewOpenMeteoRepository(cfg config.WeatherConfig, l *observe.Logger, httpClient HTTPClient) *OpenMeteoRepository {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = OpenMeteoBaseURL
	}
	geocodingURL := cfg.GeocodingURL
	if geocodingURL == "" {
		geocodingURL = OpenMeteoGeocodingURL
	}

	return &OpenMeteoRepository{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		GeocodingURL: strings.TrimRight(geocodingURL, "/"),
		Lang:         cfg.Lang,
		httpClient:   httpClient,
		backoff:      defaultBackoff(cfg.MaxRetries),
		circuit:      newCircuitBreaker("open-meteo"),
		l:            l,
	}
}

func (o *OpenMeteoRepository) Name() string {
	return "open-meteo"
}

type OpenMeteoGeocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type OpenMeteoCurrentResponse struct {
	Current struct {
		Time          string  `json:"time"`
		Temperature2m float64 `json:"temperature_2m"`
		WindSpeed10m  float64 `json:"wind_speed_10m"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
}

type OpenMeteoHourlyResponse struct {
	Current struct {
		Time string `json:"time"`
	} `json:"current"`
	Hourly struct {
		Time        []string `json:"time"`
		WeatherCode []int    `json:"weather_code"`
	} `json:"hourly"`
}

type place struct {
	name     string
	lat, lon float64
}

func (o *OpenMeteoRepository) Fetch(ctx context.Context, q models.LocationQuery) (models.WeatherReport, error) {
	p, err := o.locate(ctx, q)
	if err != nil {
		return models.WeatherReport{}, err
	}

	return fetchReport(ctx, o.Name(), o.l,
		func(ctx context.Context) (models.WeatherSnapshot, error) { return o.fetchCurrent(ctx, p) },
		func(ctx context.Context) (models.Forecast, error) { return o.fetchForecast(ctx, p) },
	)
}

// locate turns a place name into coordinates; coordinate queries pass through.
func (o *OpenMeteoRepository) locate(ctx context.Context, q models.LocationQuery) (place, error) {
	if q.IsCoordinates() {
		return place{lat: q.Lat, lon: q.Lon}, nil
	}

	values := url.Values{}
	values.Set("name", q.Name)
	values.Set("count", "1")
	values.Set("language", o.Lang)
	values.Set("format", "json")

	var response OpenMeteoGeocodingResponse
	if err := o.get(ctx, o.GeocodingURL+"/search", values, &response); err != nil {
		return place{}, err
	}

	if len(response.Results) == 0 {
		return place{}, errors.Wrapf(models.ErrLocationNotFound, "geocoding %q", q.Name)
	}

	r := response.Results[0]
	return place{name: r.Name, lat: r.Latitude, lon: r.Longitude}, nil
}

func (o *OpenMeteoRepository) fetchCurrent(ctx context.Context, p place) (models.WeatherSnapshot, error) {
	values := coordinateValues(p)
	values.Set("current", "temperature_2m,wind_speed_10m,weather_code")

	var response OpenMeteoCurrentResponse
	if err := o.get(ctx, o.BaseURL+"/forecast", values, &response); err != nil {
		return models.WeatherSnapshot{}, err
	}

	observedAt, err := time.Parse(openMeteoTimeLayout, response.Current.Time)
	if err != nil {
		o.l.Warning("cannot parse open-meteo observation time", map[string]any{
			"time": response.Current.Time,
			"err":  err.Error(),
		})
	}
	code := response.Current.WeatherCode

	return models.WeatherSnapshot{
		Place:        p.name,
		Condition:    conditionFromWMO(code),
		Description:  describeWMO(code),
		TemperatureC: response.Current.Temperature2m,
		WindSpeedMS:  response.Current.WindSpeed10m,
		ObservedAt:   observedAt,
	}, nil
}

// fetchForecast returns the first hourly entry after the current observation time.
func (o *OpenMeteoRepository) fetchForecast(ctx context.Context, p place) (models.Forecast, error) {
	values := coordinateValues(p)
	values.Set("current", "weather_code")
	values.Set("hourly", "weather_code")
	values.Set("forecast_days", "2")

	var response OpenMeteoHourlyResponse
	if err := o.get(ctx, o.BaseURL+"/forecast", values, &response); err != nil {
		return models.NoForecast(), err
	}

	return nearestHourly(response)
}

func nearestHourly(response OpenMeteoHourlyResponse) (models.Forecast, error) {
	now, err := time.Parse(openMeteoTimeLayout, response.Current.Time)
	if err != nil {
		return models.NoForecast(), fmt.Errorf("failed to parse current time %q: %w", response.Current.Time, err)
	}

	n := min(len(response.Hourly.Time), len(response.Hourly.WeatherCode))
	for i := 0; i < n; i++ {
		at, err := time.Parse(openMeteoTimeLayout, response.Hourly.Time[i])
		if err != nil {
			return models.NoForecast(), fmt.Errorf("failed to parse date %s: %w", response.Hourly.Time[i], err)
		}
		if !at.After(now) {
			continue
		}

		code := response.Hourly.WeatherCode[i]
		return models.ForecastOf(models.ForecastPoint{
			Condition:   conditionFromWMO(code),
			Description: describeWMO(code),
			At:          at,
		}), nil
	}

	return models.NoForecast(), nil
}

func coordinateValues(p place) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(p.lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(p.lon, 'f', -1, 64))
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", "UTC")
	return values
}

func (o *OpenMeteoRepository) get(ctx context.Context, endpoint string, values url.Values, out any) error {
	u := endpoint + "?" + values.Encode()

	o.l.Info("making openmeteo API request", map[string]any{"endpoint": endpoint})

	resp, err := doRequest(ctx, o.httpClient, o.circuit, o.backoff, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return errors.Wrapf(models.ErrUpstreamUnavailable, "%s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	o.l.Info("received openmeteo API response", map[string]any{
		"status":     resp.StatusCode,
		"statusText": resp.Status,
	})

	// Open-Meteo answers 400 for coordinates out of range
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(models.ErrLocationNotFound, "%s: status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(models.ErrUpstreamUnavailable, "%s: read body: %v", endpoint, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(models.ErrUpstreamUnavailable, "%s: parse JSON response: %v", endpoint, err)
	}

	return nil
}

func conditionFromWMO(code int) models.Condition {
	switch {
	case code == 0 || code == 1:
		return models.ConditionClear
	case code == 2 || code == 3:
		return models.ConditionClouds
	case code == 45 || code == 48:
		return models.ConditionFog
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return models.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return models.ConditionSnow
	default:
		return models.ConditionOther
	}
}

var wmoDescriptions = map[int]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snow fall",
	73: "moderate snow fall",
	75: "heavy snow fall",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

func describeWMO(code int) string {
	if d, ok := wmoDescriptions[code]; ok {
		return d
	}
	return fmt.Sprintf("weather code %d", code)
}
