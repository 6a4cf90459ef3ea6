package weather

import (
	"context"

	"github.com/pkg/errors"

	"weather-bot/internal/models"
	"weather-bot/internal/repositories"
	"weather-bot/internal/services/cache"
	"weather-bot/internal/services/location"
	"weather-bot/internal/services/render"
	"weather-bot/pkg/observe"
)

// ErrInvalidOrUnresolvable is the single error users see when a location cannot be
// answered, whether the provider did not know it or could not be reached.
var ErrInvalidOrUnresolvable = errors.New("invalid or unresolvable location")

// WeatherService answers "what is the weather at location L" with a rendered card.
type WeatherService struct {
	repo     repositories.WeatherRepository
	cache    *cache.WeatherCache
	renderer *render.Renderer
	l        *observe.Logger
}

func NewWeatherService(
	repo repositories.WeatherRepository,
	cache *cache.WeatherCache,
	renderer *render.Renderer,
	l *observe.Logger,
) *WeatherService {
	return &WeatherService{
		repo:     repo,
		cache:    cache,
		renderer: renderer,
		l:        l,
	}
}

// Handle resolves raw, serves the report from cache or the provider, and renders it.
// raw must already be trimmed and non-empty.
func (s *WeatherService) Handle(ctx context.Context, raw string) (models.Artifact, error) {
	query := location.Resolve(raw)

	s.l.Info("weather requested", map[string]any{
		"raw":    raw,
		"query":  query.RequestParams(),
		"source": s.repo.Name(),
	})

	report, err := s.cache.GetOrFetch(ctx, raw, func(ctx context.Context) (models.WeatherReport, error) {
		return s.repo.Fetch(ctx, query)
	})
	if err != nil {
		s.l.Warning("weather lookup failed", map[string]any{
			"raw":      raw,
			"err":      err.Error(),
			"notFound": errors.Is(err, models.ErrLocationNotFound),
		})
		return models.Artifact{}, ErrInvalidOrUnresolvable
	}

	label := report.Current.Place
	if label == "" {
		label = query.Label()
	}

	artifact, err := s.renderer.Render(ctx, report.Current, report.Forecast, label)
	if err != nil {
		s.l.Error(err, map[string]any{"raw": raw})
		return models.Artifact{}, errors.Wrap(err, "render weather card")
	}

	return artifact, nil
}
