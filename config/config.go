package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "config/config.yaml"

type Config struct {
	App     AppConfig     `yaml:"app"`
	Server  ServerConfig  `yaml:"server"`
	Weather WeatherConfig `yaml:"weather"`
	Assets  AssetsConfig  `yaml:"assets"`
	Log     LogConfig     `yaml:"log"`
}

type AppConfig struct {
	Name    string `yaml:"name" split_words:"true" validate:"required"`
	Version string `yaml:"version" split_words:"true" validate:"required"`
	Env     string `yaml:"env" split_words:"true" validate:"required,oneof=development staging production test"`
}

type ServerConfig struct {
	Port         string `yaml:"port" split_words:"true" validate:"required,numeric"`
	ReadTimeout  int    `yaml:"read_timeout" split_words:"true" validate:"min=1"`
	WriteTimeout int    `yaml:"write_timeout" split_words:"true" validate:"min=1"`
	IdleTimeout  int    `yaml:"idle_timeout" split_words:"true" validate:"min=1"`
}

// WeatherConfig describes the upstream provider. Timeout is in seconds.
// Empty URLs select the provider's public endpoints.
type WeatherConfig struct {
	Provider     string `yaml:"provider" split_words:"true" validate:"required,oneof=openweathermap open-meteo"`
	BaseURL      string `yaml:"base_url" split_words:"true" validate:"omitempty,url"`
	GeocodingURL string `yaml:"geocoding_url" split_words:"true" validate:"omitempty,url"`
	APIKey       string `yaml:"api_key,omitempty" split_words:"true"`
	Lang         string `yaml:"lang" split_words:"true" validate:"required"`
	Timeout      int    `yaml:"timeout" split_words:"true" validate:"min=1"`
	MaxRetries   int    `yaml:"max_retries" split_words:"true" validate:"min=0"`
}

type AssetsConfig struct {
	Source string      `yaml:"source" split_words:"true" validate:"required,oneof=fs s3"`
	Dir    string      `yaml:"dir" split_words:"true"`
	Font   string      `yaml:"font" split_words:"true" validate:"required"`
	S3     MinioConfig `yaml:"s3"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" split_words:"true"`
	AccessKey string `yaml:"access_key" split_words:"true"`
	SecretKey string `yaml:"secret_key" split_words:"true"`
	Bucket    string `yaml:"bucket" split_words:"true"`
	UseSSL    bool   `yaml:"use_ssl" split_words:"true"`
}

type LogConfig struct {
	Level     string `yaml:"level" split_words:"true" validate:"required,oneof=debug info warn error"`
	Format    string `yaml:"format" split_words:"true" validate:"required,oneof=json console"`
	SentryDSN string `yaml:"sentry_dsn" split_words:"true"`
}

// ConfigProvider loads and validates a Config.
type ConfigProvider interface {
	Load() (*Config, error)
	Validate(config *Config) error
}

// FileConfigProvider layers defaults, a YAML file, a .env file and environment variables, in that order.
type FileConfigProvider struct {
	path     string
	validate *validator.Validate
}

func NewFileConfigProvider(path string) *FileConfigProvider {
	v := validator.New()
	v.RegisterTagNameFunc(yamlTagName)

	return &FileConfigProvider{
		path:     path,
		validate: v,
	}
}

func NewConfig() (*Config, error) {
	return NewConfigWithProvider(NewFileConfigProvider(DefaultConfigPath))
}

func NewConfigWithProvider(provider ConfigProvider) (*Config, error) {
	cnf, err := provider.Load()
	if err != nil {
		return nil, err
	}

	if err := provider.Validate(cnf); err != nil {
		return nil, err
	}

	return cnf, nil
}

func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "weather-bot",
			Version: "1.0.0",
			Env:     "development",
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10,
			WriteTimeout: 10,
			IdleTimeout:  120,
		},
		Weather: WeatherConfig{
			Provider:   "openweathermap",
			Lang:       "en",
			Timeout:    10,
			MaxRetries: 2,
		},
		Assets: AssetsConfig{
			Source: "fs",
			Dir:    "assets",
			Font:   "DejaVuSans.ttf",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func (p *FileConfigProvider) Load() (*Config, error) {
	cnf := Default()

	if err := p.loadFromFile(cnf); err != nil {
		return nil, err
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	if err := envconfig.Process("", cnf); err != nil {
		return nil, fmt.Errorf("error environment variable parsing: %w", err)
	}

	return cnf, nil
}

// loadFromFile merges the YAML file into config. A missing file is not an error.
func (p *FileConfigProvider) loadFromFile(config *Config) error {
	yamlData, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", p.path, err)
	}

	if err := yaml.Unmarshal(yamlData, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

func (p *FileConfigProvider) Validate(config *Config) error {
	err := p.validate.Struct(config)
	if err == nil {
		return p.validateAssets(config)
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, describe(fe))
	}

	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func (p *FileConfigProvider) validateAssets(config *Config) error {
	if config.Assets.Source != "s3" {
		return nil
	}

	s3 := config.Assets.S3
	if s3.Endpoint == "" || s3.Bucket == "" {
		return fmt.Errorf("invalid config: assets.s3.endpoint and assets.s3.bucket are required when assets.source is s3")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func yamlTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
