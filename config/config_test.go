package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	// Test with default values (without config file)
	provider := NewFileConfigProvider("nonexistent.yaml")
	config, err := NewConfigWithProvider(provider)
	require.NoError(t, err)
	assert.NotNil(t, config)

	assert.Equal(t, "weather-bot", config.App.Name)
	assert.Equal(t, "1.0.0", config.App.Version)
	assert.Equal(t, "development", config.App.Env)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, 10, config.Server.ReadTimeout)
	assert.Equal(t, 10, config.Server.WriteTimeout)
	assert.Equal(t, 120, config.Server.IdleTimeout)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "openweathermap", config.Weather.Provider)
	assert.Equal(t, "fs", config.Assets.Source)
	assert.Equal(t, "DejaVuSans.ttf", config.Assets.Font)
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	t.Setenv("APP_NAME", "test-app")
	t.Setenv("APP_VERSION", "2.0.0")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WEATHER_API_KEY", "secret")

	provider := NewFileConfigProvider("nonexistent.yaml")
	config, err := NewConfigWithProvider(provider)
	require.NoError(t, err)

	assert.Equal(t, "test-app", config.App.Name)
	assert.Equal(t, "2.0.0", config.App.Version)
	assert.Equal(t, "production", config.App.Env)
	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "secret", config.Weather.APIKey)
}

func TestConfigEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("app:\n  name: from-file\nserver:\n  port: \"7070\"\nweather:\n  api_key: file-key\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("WEATHER_API_KEY", "env-key")

	config, err := NewConfigWithProvider(NewFileConfigProvider(path))
	require.NoError(t, err)

	assert.Equal(t, "from-file", config.App.Name)
	assert.Equal(t, "7070", config.Server.Port)
	assert.Equal(t, "env-key", config.Weather.APIKey)
	// untouched sections keep their defaults
	assert.Equal(t, "info", config.Log.Level)
}

func TestConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unterminated"), 0o600))

	_, err := NewConfigWithProvider(NewFileConfigProvider(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML config")
}

func TestConfigValidation(t *testing.T) {
	provider := NewFileConfigProvider(DefaultConfigPath)

	config := Default()
	assert.NoError(t, provider.Validate(config))

	invalidConfig := Default()
	invalidConfig.App.Name = ""

	err := provider.Validate(invalidConfig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "app.name is required")

	invalidConfig = Default()
	invalidConfig.Log.Level = "verbose"

	err = provider.Validate(invalidConfig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "log.level must be one of")

	consoleConfig := Default()
	consoleConfig.Log.Format = "console"
	assert.NoError(t, provider.Validate(consoleConfig))

	invalidConfig = Default()
	invalidConfig.Log.Format = "xml"

	err = provider.Validate(invalidConfig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "log.format must be one of [json console]")
}

func TestConfigValidation_S3Assets(t *testing.T) {
	provider := NewFileConfigProvider(DefaultConfigPath)

	config := Default()
	config.Assets.Source = "s3"

	err := provider.Validate(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assets.s3.endpoint")

	config.Assets.S3 = MinioConfig{Endpoint: "localhost:9000", Bucket: "weather-assets"}
	assert.NoError(t, provider.Validate(config))
}

func TestConfigHelperMethods(t *testing.T) {
	config := &Config{
		App: AppConfig{
			Env: "development",
		},
	}

	assert.True(t, config.IsDevelopment())
	assert.False(t, config.IsProduction())

	config.App.Env = "production"
	assert.False(t, config.IsDevelopment())
	assert.True(t, config.IsProduction())
}

func TestFileConfigProvider_LoadFromFile(t *testing.T) {
	provider := NewFileConfigProvider("nonexistent.yaml")
	config := &Config{}

	// Test loading from non-existent file (should not error)
	err := provider.loadFromFile(config)
	assert.NoError(t, err)
}

func TestNewConfigWithProvider(t *testing.T) {
	mockProvider := &MockConfigProvider{config: Default()}
	mockProvider.config.App.Name = "test-app"

	config, err := NewConfigWithProvider(mockProvider)
	require.NoError(t, err)
	assert.Equal(t, "test-app", config.App.Name)

	mockProvider = &MockConfigProvider{err: assert.AnError}
	_, err = NewConfigWithProvider(mockProvider)
	assert.ErrorIs(t, err, assert.AnError)
}

// MockConfigProvider for testing
type MockConfigProvider struct {
	config *Config
	err    error
}

func (m *MockConfigProvider) Load() (*Config, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.config, nil
}

func (m *MockConfigProvider) Validate(config *Config) error {
	return nil
}
