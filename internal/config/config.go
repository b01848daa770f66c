// Package config loads service settings from defaults, an optional YAML file
// and the environment, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// Storage backends.
const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Kakao     KakaoConfig     `koanf:"kakao"`
	Recommend RecommendConfig `koanf:"recommend"`
	Storage   StorageConfig   `koanf:"storage"`
	MQTT      MQTTConfig      `koanf:"mqtt"`
	Security  SecurityConfig  `koanf:"security"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "text" or "json"
}

type OpenAIConfig struct {
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
	BaseURL     string  `koanf:"base_url"`
}

type KakaoConfig struct {
	APIKey     string  `koanf:"api_key"`
	BaseURL    string  `koanf:"base_url"`
	RatePerSec float64 `koanf:"rate_per_sec"`
}

type RecommendConfig struct {
	UpstreamTimeout time.Duration `koanf:"upstream_timeout"`
	RadiusMeters    int           `koanf:"radius_m"`
	PlacesRadius    int           `koanf:"places_radius_m"`
	PlacesMax       int           `koanf:"places_max_results"`
}

type StorageConfig struct {
	Backend         string `koanf:"backend"`
	RestaurantsFile string `koanf:"restaurants_file"`
	HistoryFile     string `koanf:"history_file"`
	MongoURI        string `koanf:"mongo_uri"`
	MongoDB         string `koanf:"mongo_db"`
	SQLitePath      string `koanf:"sqlite_path"`
	ElasticURL      string `koanf:"elastic_url"`
	ElasticIndex    string `koanf:"elastic_index"`
}

type MQTTConfig struct {
	Broker         string        `koanf:"broker"`
	Topic          string        `koanf:"topic"`
	ClientID       string        `koanf:"client_id"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
}

type SecurityConfig struct {
	CORSOrigins     string        `koanf:"cors_origins"` // comma-separated
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Origins splits the configured CORS origins.
func (s SecurityConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Kakao: KakaoConfig{
			BaseURL:    "https://dapi.kakao.com",
			RatePerSec: 10,
		},
		Recommend: RecommendConfig{
			UpstreamTimeout: 10 * time.Second,
			RadiusMeters:    1000,
			PlacesRadius:    1000,
			PlacesMax:       10,
		},
		Storage: StorageConfig{
			Backend:         BackendFile,
			RestaurantsFile: "data/restaurants.json",
			HistoryFile:     "storage/history.json",
			MongoDB:         "lunch",
			SQLitePath:      "storage/lunch.db",
			ElasticIndex:    "restaurants",
		},
		MQTT: MQTTConfig{
			Topic:          "lunch/selections",
			ClientID:       "lunch-recommender",
			PublishTimeout: 2 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     "*",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}

var envMappings = map[string]string{
	"api_host":                "server.host",
	"api_port":                "server.port",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"openai_api_key":          "openai.api_key",
	"openai_model":            "openai.model",
	"openai_temperature":      "openai.temperature",
	"openai_base_url":         "openai.base_url",
	"kakao_rest_api_key":      "kakao.api_key",
	"kakao_base_url":          "kakao.base_url",
	"kakao_rate_per_sec":      "kakao.rate_per_sec",
	"upstream_timeout":        "recommend.upstream_timeout",
	"recommend_radius_m":      "recommend.radius_m",
	"places_default_radius_m": "recommend.places_radius_m",
	"places_max_results":      "recommend.places_max_results",
	"store_backend":           "storage.backend",
	"restaurants_file":        "storage.restaurants_file",
	"history_file":            "storage.history_file",
	"mongo_uri":               "storage.mongo_uri",
	"mongo_db":                "storage.mongo_db",
	"sqlite_path":             "storage.sqlite_path",
	"elastic_url":             "storage.elastic_url",
	"elastic_index":           "storage.elastic_index",
	"mqtt_broker":             "mqtt.broker",
	"mqtt_topic":              "mqtt.topic",
	"mqtt_client_id":          "mqtt.client_id",
	"mqtt_publish_timeout":    "mqtt.publish_timeout",
	"cors_origins":            "security.cors_origins",
	"rate_limit_requests":     "security.rate_limit_requests",
	"rate_limit_window":       "security.rate_limit_window",
}

// envTransformFunc maps a known environment variable to its config path.
// Unknown variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load reads .env (if present), then layers defaults, the YAML file and the
// environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Logging.Format))
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2, got %v", c.OpenAI.Temperature))
	}
	if c.Kakao.RatePerSec <= 0 {
		errs = append(errs, errors.New("KAKAO_RATE_PER_SEC must be positive"))
	}
	if c.Recommend.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.Recommend.RadiusMeters <= 0 {
		errs = append(errs, errors.New("RECOMMEND_RADIUS_M must be positive"))
	}
	if c.Recommend.PlacesRadius <= 0 {
		errs = append(errs, errors.New("PLACES_DEFAULT_RADIUS_M must be positive"))
	}
	if c.Recommend.PlacesMax <= 0 {
		errs = append(errs, errors.New("PLACES_MAX_RESULTS must be positive"))
	}

	switch c.Storage.Backend {
	case BackendFile:
	case BackendMongo:
		if c.Storage.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_BACKEND=mongo"))
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORE_BACKEND=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be one of file, mongo, sqlite, got %q", c.Storage.Backend))
	}

	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		errs = append(errs, errors.New("MQTT_TOPIC is required when MQTT_BROKER is set"))
	}
	if c.Security.RateLimitReqs <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be positive"))
	}
	if c.Security.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}
