package render

import (
	"context"

	"weather-bot/internal/models"
)

// ErrResourceNotFound is returned by a ResourceProvider when the named resource does not exist.
var ErrResourceNotFound = models.ErrResourceNotFound

// ResourceProvider loads named binary resources such as background images and fonts.
// Any error makes the renderer use its built-in substitute.
type ResourceProvider interface {
	TryLoad(ctx context.Context, name string) ([]byte, error)
}
