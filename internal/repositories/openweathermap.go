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
	OpenWeatherMapBaseURL = "https://api.openweathermap.org/data/2.5"
)

type OpenWeatherMapRepository struct {
	BaseURL string
	APIKey  string
	Lang    string

	httpClient HTTPClient
	backoff    BackoffConfig
	circuit    *gobreaker.CircuitBreaker
	l          *observe.Logger
}

func NewOpenWeatherMapRepository(cfg config.WeatherConfig, l *observe.Logger, httpClient HTTPClient) (*OpenWeatherMapRepository, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("API key cannot be empty")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = OpenWeatherMapBaseURL
	}

	return &OpenWeatherMapRepository{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     cfg.APIKey,
		Lang:       cfg.Lang,
		httpClient: httpClient,
		backoff:    defaultBackoff(cfg.MaxRetries),
		circuit:    newCircuitBreaker("openweathermap"),
		l:          l,
	}, nil
}

func (o *OpenWeatherMapRepository) Name() string {
	return "openweathermap"
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type OpenWeatherMapCurrentResponse struct {
	Cod     json.Number    `json:"cod"`
	Name    string         `json:"name"`
	Dt      int64          `json:"dt"`
	Weather []owmCondition `json:"weather"`
	Main    struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type OpenWeatherMapForecastResponse struct {
	Cod  json.Number `json:"cod"`
	List []struct {
		Dt      int64          `json:"dt"`
		Weather []owmCondition `json:"weather"`
	} `json:"list"`
}

func (o *OpenWeatherMapRepository) Fetch(ctx context.Context, q models.LocationQuery) (models.WeatherReport, error) {
	return fetchReport(ctx, o.Name(), o.l,
		func(ctx context.Context) (models.WeatherSnapshot, error) { return o.FetchCurrent(ctx, q) },
		func(ctx context.Context) (models.Forecast, error) { return o.FetchForecast(ctx, q) },
	)
}

// FetchCurrent queries /weather.
func (o *OpenWeatherMapRepository) FetchCurrent(ctx context.Context, q models.LocationQuery) (models.WeatherSnapshot, error) {
	var response OpenWeatherMapCurrentResponse
	if err := o.get(ctx, "weather", q, &response); err != nil {
		return models.WeatherSnapshot{}, err
	}

	if response.Cod != "" && response.Cod.String() != "200" {
		return models.WeatherSnapshot{}, errors.Wrapf(models.ErrLocationNotFound, "cod %s", response.Cod)
	}

	snapshot := models.WeatherSnapshot{
		Place:        response.Name,
		Condition:    models.ConditionOther,
		TemperatureC: response.Main.Temp,
		WindSpeedMS:  response.Wind.Speed,
		ObservedAt:   time.Unix(response.Dt, 0).UTC(),
	}
	if len(response.Weather) > 0 {
		snapshot.Condition = models.ParseCondition(response.Weather[0].Main)
		snapshot.Description = response.Weather[0].Description
	}

	return snapshot, nil
}

// FetchForecast queries /forecast and keeps only the nearest entry.
func (o *OpenWeatherMapRepository) FetchForecast(ctx context.Context, q models.LocationQuery) (models.Forecast, error) {
	var response OpenWeatherMapForecastResponse
	if err := o.get(ctx, "forecast", q, &response); err != nil {
		return models.NoForecast(), err
	}

	o.l.Debug("parsed forecast response", map[string]any{"items": len(response.List)})

	if len(response.List) == 0 || len(response.List[0].Weather) == 0 {
		return models.NoForecast(), nil
	}

	next := response.List[0]
	return models.ForecastOf(models.ForecastPoint{
		Condition:   models.ParseCondition(next.Weather[0].Main),
		Description: next.Weather[0].Description,
		At:          time.Unix(next.Dt, 0).UTC(),
	}), nil
}

func (o *OpenWeatherMapRepository) get(ctx context.Context, endpoint string, q models.LocationQuery, out any) error {
	values := url.Values{}
	values.Set("appid", o.APIKey)
	values.Set("units", "metric")
	values.Set("lang", o.Lang)
	if q.IsCoordinates() {
		values.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	} else {
		values.Set("q", q.Name)
	}
	u := fmt.Sprintf("%s/%s?%s", o.BaseURL, endpoint, values.Encode())

	o.l.Info("making openweathermap API request", map[string]any{
		"endpoint": endpoint,
		"params":   q.RequestParams(),
	})

	resp, err := doRequest(ctx, o.httpClient, o.circuit, o.backoff, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return errors.Wrapf(models.ErrUpstreamUnavailable, "%s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	o.l.Info("received openweathermap API response", map[string]any{
		"endpoint":   endpoint,
		"status":     resp.StatusCode,
		"statusText": resp.Status,
	})

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
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
