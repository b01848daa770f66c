package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no .env or config.yaml
// from the working tree is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, "https://dapi.kakao.com", cfg.Kakao.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Recommend.UpstreamTimeout)
	assert.Equal(t, 1000, cfg.Recommend.RadiusMeters)
	assert.Equal(t, 10, cfg.Recommend.PlacesMax)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "data/restaurants.json", cfg.Storage.RestaurantsFile)
	assert.Equal(t, "storage/history.json", cfg.Storage.HistoryFile)
	assert.Equal(t, []string{"*"}, cfg.Security.Origins())
	assert.Equal(t, time.Minute, cfg.Security.RateLimitWindow)
	assert.Equal(t, 2*time.Second, cfg.MQTT.PublishTimeout)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("KAKAO_REST_API_KEY", "kakao-key")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://lunch.example.com")
	t.Setenv("MQTT_PUBLISH_TIMEOUT", "500ms")
	t.Setenv("UNRELATED_SETTING", "ignored")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "kakao-key", cfg.Kakao.APIKey)
	assert.InDelta(t, 0.2, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Recommend.UpstreamTimeout)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.MQTT.PublishTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://lunch.example.com"}, cfg.Security.Origins())
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_MODEL=gpt-4o\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("OPENAI_MODEL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "lunch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recommend:\n  radius_m: 2500\nstorage:\n  history_file: /tmp/h.json\n"), 0o644))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2500, cfg.Recommend.RadiusMeters)
	assert.Equal(t, "/tmp/h.json", cfg.Storage.HistoryFile)
}

func TestLoad_InvalidBackend(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := Load()
	assert.ErrorContains(t, err, "STORE_BACKEND")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port", func(c *Config) { c.Server.Port = 0 }, "API_PORT"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"radius", func(c *Config) { c.Recommend.RadiusMeters = -1 }, "RECOMMEND_RADIUS_M"},
		{"timeout", func(c *Config) { c.Recommend.UpstreamTimeout = 0 }, "UPSTREAM_TIMEOUT"},
		{"mongo uri", func(c *Config) { c.Storage.Backend = BackendMongo }, "MONGO_URI"},
		{"mqtt topic", func(c *Config) { c.MQTT.Broker = "tcp://localhost:1883"; c.MQTT.Topic = "" }, "MQTT_TOPIC"},
		{"rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOrigins_SkipsBlanks(t *testing.T) {
	s := SecurityConfig{CORSOrigins: " a ,, b ,"}
	assert.Equal(t, []string{"a", "b"}, s.Origins())
}
