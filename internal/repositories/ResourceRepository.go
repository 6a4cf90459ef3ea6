package repositories

import (
	"context"
	"fmt"

	"weather-bot/config"
	"weather-bot/pkg/observe"
)

// ResourceRepository serves background images and fonts by name.
type ResourceRepository interface {
	TryLoad(ctx context.Context, name string) ([]byte, error)
}

func InitResourceRepository(cfg config.AssetsConfig, l *observe.Logger) (ResourceRepository, error) {
	switch cfg.Source {
	case "fs":
		return NewFileResourceRepository(cfg.Dir, l), nil
	case "s3":
		repo, err := NewMinioResourceRepository(cfg.S3, l)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown assets source %q", cfg.Source)
	}
}
