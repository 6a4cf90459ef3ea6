package repositories

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"weather-bot/config"
	"weather-bot/internal/models"
	"weather-bot/pkg/observe"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WeatherRepository fetches current conditions and the nearest forecast for a location.
// Fetch fails with models.ErrLocationNotFound or models.ErrUpstreamUnavailable; a forecast
// failure only leaves the report's forecast empty.
type WeatherRepository interface {
	Name() string
	Fetch(ctx context.Context, q models.LocationQuery) (models.WeatherReport, error)
}

func InitWeatherRepository(cfg config.WeatherConfig, l *observe.Logger) (WeatherRepository, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}

	switch cfg.Provider {
	case "openweathermap":
		repo, err := NewOpenWeatherMapRepository(cfg, l, httpClient)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "open-meteo":
		return NewOpenMeteoRepository(cfg, l, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", cfg.Provider)
	}
}

type currentFunc func(ctx context.Context) (models.WeatherSnapshot, error)
type forecastFunc func(ctx context.Context) (models.Forecast, error)

// fetchReport runs both lookups concurrently. Only the current conditions decide the outcome.
func fetchReport(ctx context.Context, name string, l *observe.Logger, current currentFunc, forecast forecastFunc) (models.WeatherReport, error) {
	var (
		wg          sync.WaitGroup
		snapshot    models.WeatherSnapshot
		currentErr  error
		outlook     models.Forecast
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		snapshot, currentErr = current(ctx)
	}()
	go func() {
		defer wg.Done()
		outlook, forecastErr = forecast(ctx)
	}()
	wg.Wait()

	if currentErr != nil {
		return models.WeatherReport{}, currentErr
	}

	if forecastErr != nil {
		l.Warning("forecast unavailable, continuing without it", map[string]any{"repo": name, "err": forecastErr.Error()})
		outlook = models.NoForecast()
	}

	return models.WeatherReport{Current: snapshot, Forecast: outlook}, nil
}
