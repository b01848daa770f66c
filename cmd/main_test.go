package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/lunch-recommender/internal/config"
	"github.com/ukydev/lunch-recommender/internal/db"
	"github.com/ukydev/lunch-recommender/internal/models"
	"github.com/ukydev/lunch-recommender/internal/recommend"
)

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)

	logger, err = newLogger(config.LoggingConfig{Level: "warn", Format: "text"})
	require.NoError(t, err)
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)

	_, err = newLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestBuildStores_File(t *testing.T) {
	dir := t.TempDir()
	stores, err := buildStores(context.Background(), config.StorageConfig{
		Backend:         config.BackendFile,
		RestaurantsFile: filepath.Join(dir, "restaurants.json"),
		HistoryFile:     filepath.Join(dir, "history.json"),
	}, log.New())
	require.NoError(t, err)
	defer stores.close()

	assert.IsType(t, &db.FileCatalog{}, stores.catalog)
	assert.IsType(t, &db.FileHistory{}, stores.history)
}

func TestBuildStores_SQLiteHistory(t *testing.T) {
	dir := t.TempDir()
	stores, err := buildStores(context.Background(), config.StorageConfig{
		Backend:         config.BackendSQLite,
		RestaurantsFile: filepath.Join(dir, "restaurants.json"),
		SQLitePath:      filepath.Join(dir, "lunch.db"),
	}, log.New())
	require.NoError(t, err)
	defer stores.close()

	assert.IsType(t, &db.FileCatalog{}, stores.catalog)
	assert.IsType(t, &db.SQLiteHistory{}, stores.history)
}

func TestBuildStores_ElasticCatalogOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "node", "cluster_name": "lunch", "version": {"number": "7.17.0"}, "tagline": "You Know, for Search"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	stores, err := buildStores(context.Background(), config.StorageConfig{
		Backend:      config.BackendFile,
		HistoryFile:  filepath.Join(dir, "history.json"),
		ElasticURL:   srv.URL,
		ElasticIndex: "restaurants",
	}, log.New())
	require.NoError(t, err)
	defer stores.close()

	assert.IsType(t, &db.ElasticCatalog{}, stores.catalog)
}

func TestNewEngine_WithoutKeyFallsBackToRandom(t *testing.T) {
	cfg := &config.Config{Recommend: config.RecommendConfig{UpstreamTimeout: 1}}
	engine := newEngine(cfg, log.New())

	recs := engine.Recommend(context.Background(), []models.Restaurant{{ID: 4}}, "somewhere")
	assert.Equal(t, []models.Recommendation{{ID: 4, Reason: recommend.ReasonDefault}}, recs)
}
