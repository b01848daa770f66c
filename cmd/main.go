package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/lunch-recommender/internal/catalog"
	"github.com/ukydev/lunch-recommender/internal/config"
	"github.com/ukydev/lunch-recommender/internal/db"
	"github.com/ukydev/lunch-recommender/internal/events"
	"github.com/ukydev/lunch-recommender/internal/handlers"
	"github.com/ukydev/lunch-recommender/internal/history"
	"github.com/ukydev/lunch-recommender/internal/lunch"
	"github.com/ukydev/lunch-recommender/internal/places"
	"github.com/ukydev/lunch-recommender/internal/recommend"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := buildStores(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer stores.close()

	filter := catalog.NewFilter(stores.catalog, logger)

	placeClient := places.NewClient(places.Config{
		APIKey:        cfg.Kakao.APIKey,
		BaseURL:       cfg.Kakao.BaseURL,
		Timeout:       cfg.Recommend.UpstreamTimeout,
		RatePerSecond: cfg.Kakao.RatePerSec,
	}, logger)
	if cfg.Kakao.APIKey == "" {
		logger.Warn("KAKAO_REST_API_KEY not set, external place search will return no results")
	}

	engine := newEngine(cfg, logger)

	var ledgerOpts []history.Option
	if cfg.MQTT.Broker != "" {
		pub, err := events.NewMQTTPublisher(events.MQTTConfig{
			Broker:         cfg.MQTT.Broker,
			Topic:          cfg.MQTT.Topic,
			ClientID:       cfg.MQTT.ClientID,
			PublishTimeout: cfg.MQTT.PublishTimeout,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("MQTT unavailable, selection events disabled")
		} else {
			defer pub.Close()
			ledgerOpts = append(ledgerOpts, history.WithPublisher(pub))
		}
	}
	ledger := history.NewLedger(stores.history, filter, logger, ledgerOpts...)

	svc := lunch.NewService(filter, placeClient, engine, ledger, lunch.Options{
		RecommendRadius:     float64(cfg.Recommend.RadiusMeters),
		PlacesDefaultRadius: cfg.Recommend.PlacesRadius,
		PlacesMaxResults:    cfg.Recommend.PlacesMax,
	}, logger)

	router := handlers.NewRouter(handlers.NewLunchHandler(svc, logger), handlers.RouterOptions{
		CORSOrigins:     cfg.Security.Origins(),
		RateLimitReqs:   cfg.Security.RateLimitReqs,
		RateLimitWindow: cfg.Security.RateLimitWindow,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LoggingConfig) (*log.Logger, error) {
	logger := log.New()
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func newEngine(cfg *config.Config, logger log.FieldLogger) *recommend.Engine {
	opts := []recommend.Option{recommend.WithTimeout(cfg.Recommend.UpstreamTimeout)}
	if cfg.OpenAI.APIKey != "" {
		opts = append(opts, recommend.WithLLM(recommend.NewOpenAIChat(recommend.OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: float32(cfg.OpenAI.Temperature),
		}, logger)))
	} else {
		logger.Warn("OPENAI_API_KEY not set, recommendations will be picked at random")
	}
	return recommend.NewEngine(logger, opts...)
}

type storeSet struct {
	catalog db.CatalogStore
	history db.HistoryStore
	closers []func()
}

func (s *storeSet) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildStores selects the catalog and history backends. An Elasticsearch URL
// overrides the catalog source for every backend.
func buildStores(ctx context.Context, cfg config.StorageConfig, logger log.FieldLogger) (*storeSet, error) {
	set := &storeSet{
		catalog: &db.FileCatalog{Path: cfg.RestaurantsFile},
		history: &db.FileHistory{Path: cfg.HistoryFile},
	}

	switch cfg.Backend {
	case config.BackendMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		set.closers = append(set.closers, func() { _ = client.Disconnect(context.Background()) })
		database := client.Database(cfg.MongoDB)
		set.catalog = &db.MongoCatalog{Collection: database.Collection("restaurants")}
		set.history = db.NewMongoHistory(database.Collection("history"))
		logger.WithField("db", cfg.MongoDB).Info("Connected to MongoDB")
	case config.BackendSQLite:
		sqlite, err := db.OpenSQLiteHistory(ctx, cfg.SQLitePath)
		if err != nil {
			set.close()
			return nil, err
		}
		set.closers = append(set.closers, func() { _ = sqlite.Close() })
		set.history = sqlite
		logger.WithField("path", cfg.SQLitePath).Info("Using SQLite history store")
	}

	if cfg.ElasticURL != "" {
		es, err := db.NewElasticCatalog(cfg.ElasticURL, cfg.ElasticIndex)
		if err != nil {
			set.close()
			return nil, err
		}
		set.catalog = es
		logger.WithField("index", cfg.ElasticIndex).Info("Using Elasticsearch catalog")
	}
	return set, nil
}
