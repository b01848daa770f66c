package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/lunch-recommender/internal/models"
)

// Office districts lunch-goers start from
var offices = []models.Coordinate{
	{Latitude: 37.5665, Longitude: 126.9780}, // City Hall
	{Latitude: 37.4979, Longitude: 127.0276}, // Gangnam
	{Latitude: 37.5219, Longitude: 126.9245}, // Yeouido
	{Latitude: 37.5443, Longitude: 127.0557}, // Seongsu
	{Latitude: 37.4012, Longitude: 127.1086}, // Pangyo
	{Latitude: 37.5705, Longitude: 126.9920}, // Jongno
	{Latitude: 37.5563, Longitude: 126.9236}, // Hongdae
	{Latitude: 37.5172, Longitude: 127.0473}, // Samseong
}

func jitterLocation(base models.Coordinate, meters float64) models.Coordinate {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Latitude*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return models.Coordinate{Latitude: base.Latitude + dLat, Longitude: base.Longitude + dLon}
}

func randomOffice() models.Coordinate {
	return jitterLocation(offices[rand.Intn(len(offices))], 300)
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: 15 * time.Second}}
}

func (c *apiClient) recommendations(ctx context.Context, at models.Coordinate) (models.RecommendationResponse, error) {
	var out models.RecommendationResponse

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Latitude, 'f', 6, 64))
	q.Set("lng", strconv.FormatFloat(at.Longitude, 'f', 6, 64))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/restaurants/random?"+q.Encode(), nil)
	if err != nil {
		return out, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("request recommendations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("recommendations failed with status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

func (c *apiClient) recordSelection(ctx context.Context, restaurantID int) (models.HistoryResponse, error) {
	var out models.HistoryResponse

	data, err := json.Marshal(models.HistoryRequest{RestaurantID: restaurantID})
	if err != nil {
		return out, fmt.Errorf("failed to marshal selection: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/history", bytes.NewReader(data))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("record selection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("selection failed with status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// lunchBreak asks for recommendations near the goer and records the top pick.
// It returns false when nothing was recorded.
func lunchBreak(ctx context.Context, c *apiClient, goer int, at models.Coordinate) bool {
	logger := log.WithFields(log.Fields{
		"goer": goer,
		"lat":  at.Latitude,
		"lng":  at.Longitude,
	})

	recs, err := c.recommendations(ctx, at)
	if err != nil {
		logger.WithError(err).Error("Failed to get recommendations")
		return false
	}
	if len(recs.Recommendations) == 0 {
		logger.WithField("candidates", recs.TotalCount).Info("No restaurants nearby")
		return false
	}

	pick := recs.Recommendations[0]
	saved, err := c.recordSelection(ctx, pick.ID)
	if err != nil {
		logger.WithError(err).WithField("restaurant_id", pick.ID).Error("Failed to record selection")
		return false
	}
	logger.WithFields(log.Fields{
		"restaurant_id": pick.ID,
		"reason":        pick.Reason,
		"history_id":    saved.ID,
	}).Info("Recorded lunch")
	return true
}

func simulateGoer(ctx context.Context, c *apiClient, goer int, interval time.Duration) {
	home := randomOffice()
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		lunchBreak(ctx, c, goer, jitterLocation(home, 150))
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func envInt(key string, def, min int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			return n
		}
	}
	return def
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8000/api"
	}
	goers := envInt("SIM_USERS", 5, 1)
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 30, 1)) * time.Second

	log.WithFields(log.Fields{
		"goers":    goers,
		"api_url":  apiURL,
		"interval": interval,
	}).Info("Starting lunch simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newAPIClient(apiURL)
	var wg sync.WaitGroup
	for i := 1; i <= goers; i++ {
		wg.Add(1)
		go func(goer int) {
			defer wg.Done()
			simulateGoer(ctx, client, goer, interval)
		}(i)
	}
	wg.Wait()
	log.Info("Lunch simulation stopped")
}
