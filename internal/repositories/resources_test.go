package repositories

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-bot/config"
	"weather-bot/internal/models"
	"weather-bot/pkg/observe"
)

func TestFileResourceRepository_TryLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sunny.png"), []byte("png-bytes"), 0o600))

	repo := NewFileResourceRepository(dir, observe.NewNopLogger())

	data, err := repo.TryLoad(context.Background(), "sunny.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	_, err = repo.TryLoad(context.Background(), "rain.png")
	assert.True(t, errors.Is(err, models.ErrResourceNotFound))
}

func TestFileResourceRepository_StaysInsideDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "assets")
	require.NoError(t, os.Mkdir(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o600))

	repo := NewFileResourceRepository(dir, observe.NewNopLogger())

	_, err := repo.TryLoad(context.Background(), "../secret.txt")
	assert.True(t, errors.Is(err, models.ErrResourceNotFound))
}

// fakeS3 answers GetObject requests for a single bucket the way an S3 server does.
func fakeS3(t *testing.T, bucket string, objects map[string][]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/"+bucket+"/")
		data, ok := objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>%s</Key><BucketName>%s</BucketName></Error>`, key, bucket)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Date(2025, 7, 25, 12, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.Write(data)
	}))
}

func TestMinioResourceRepository_TryLoad(t *testing.T) {
	server := fakeS3(t, "weather-assets", map[string][]byte{"fog.png": []byte("fog-bytes")})
	defer server.Close()

	repo, err := NewMinioResourceRepository(config.MinioConfig{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "weather-assets",
	}, observe.NewNopLogger())
	require.NoError(t, err)

	data, err := repo.TryLoad(context.Background(), "fog.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("fog-bytes"), data)

	_, err = repo.TryLoad(context.Background(), "snow.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrResourceNotFound))
}

func TestNewMinioResourceRepository_RequiresBucket(t *testing.T) {
	_, err := NewMinioResourceRepository(config.MinioConfig{Endpoint: "localhost:9000"}, observe.NewNopLogger())
	assert.Error(t, err)
}

func TestInitResourceRepository(t *testing.T) {
	repo, err := InitResourceRepository(config.AssetsConfig{Source: "fs", Dir: t.TempDir()}, observe.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &FileResourceRepository{}, repo)

	_, err = InitResourceRepository(config.AssetsConfig{Source: "ftp"}, observe.NewNopLogger())
	assert.Error(t, err)
}

func TestInitWeatherRepository(t *testing.T) {
	repo, err := InitWeatherRepository(config.WeatherConfig{Provider: "open-meteo", Timeout: 5}, observe.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "open-meteo", repo.Name())

	_, err = InitWeatherRepository(config.WeatherConfig{Provider: "openweathermap", Timeout: 5}, observe.NewNopLogger())
	assert.Error(t, err, "openweathermap needs an API key")

	_, err = InitWeatherRepository(config.WeatherConfig{Provider: "darksky"}, observe.NewNopLogger())
	assert.Error(t, err)
}
