package repositories

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"weather-bot/internal/models"
	"weather-bot/pkg/observe"
)

type FileResourceRepository struct {
	dir string
	l   *observe.Logger
}

func NewFileResourceRepository(dir string, l *observe.Logger) *FileResourceRepository {
	return &FileResourceRepository{dir: dir, l: l}
}

// TryLoad reads name from the assets directory. Names cannot escape the directory.
func (f *FileResourceRepository) TryLoad(_ context.Context, name string) ([]byte, error) {
	path := filepath.Join(f.dir, filepath.Base(filepath.Clean("/"+name)))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(models.ErrResourceNotFound, path)
		}
		return nil, errors.Wrapf(err, "read resource %s", path)
	}

	f.l.Debug("loaded resource", map[string]any{"path": path, "bytes": len(data)})
	return data, nil
}
