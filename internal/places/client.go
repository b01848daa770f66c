// Package places searches the Kakao Local API for food venues near a point.
package places

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/ukydev/lunch-recommender/internal/models"
	"github.com/ukydev/lunch-recommender/internal/resilience"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Kakao API host.
	DefaultBaseURL = "https://dapi.kakao.com"

	categorySearchPath = "/v2/local/search/category.json"
	foodCategoryCode   = "FD6"
	upstreamName       = "kakao-local"

	maxRadiusMeters = 20000
	maxPageSize     = 15
)

var (
	ErrMissingCredentials = errors.New("kakao REST API key not configured")
	ErrUpstreamStatus     = errors.New("kakao API returned non-success status")
)

// Config configures the place-search client.
type Config struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client calls the Kakao Local category search endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]models.Place]
	logger     logrus.FieldLogger
}

// NewClient creates a place-search client.
func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	logger = logger.WithField("component", "places")

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    resilience.NewBreaker[[]models.Place](upstreamName, logger),
		logger:     logger,
	}
}

// SearchNearby returns food venues within radius meters of origin, nearest first.
// Every failure is logged and yields an empty slice.
func (c *Client) SearchNearby(ctx context.Context, origin models.Coordinate, radius, maxResults int) []models.Place {
	log := c.logger.WithFields(logrus.Fields{
		"lat":    origin.Latitude,
		"lng":    origin.Longitude,
		"radius": radius,
	})

	places, err := c.Search(ctx, origin, radius, maxResults)
	if err != nil {
		log.WithError(err).Error("Kakao place search failed")
		return []models.Place{}
	}
	log.WithField("count", len(places)).Info("Kakao place search completed")
	return places
}

// Search performs one category search and reports failures to the caller.
func (c *Client) Search(ctx context.Context, origin models.Coordinate, radius, maxResults int) ([]models.Place, error) {
	if c.apiKey == "" {
		return nil, ErrMissingCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	places, err := c.breaker.Execute(func() ([]models.Place, error) {
		return c.fetch(ctx, origin, clamp(radius, 0, maxRadiusMeters), clamp(maxResults, 1, maxPageSize))
	})
	resilience.Record(upstreamName, err)
	if err != nil {
		return nil, err
	}
	return places, nil
}

type searchResponse struct {
	Documents []document `json:"documents"`
}

type document struct {
	PlaceURL          string `json:"place_url"`
	PlaceName         string `json:"place_name"`
	CategoryName      string `json:"category_name"`
	Distance          string `json:"distance"`
	AddressName       string `json:"address_name"`
	Y                 string `json:"y"`
	X                 string `json:"x"`
	Phone             string `json:"phone"`
	CategoryGroupName string `json:"category_group_name"`
	RoadAddressName   string `json:"road_address_name"`
}

func (c *Client) fetch(ctx context.Context, origin models.Coordinate, radius, size int) ([]models.Place, error) {
	params := url.Values{}
	params.Set("category_group_code", foodCategoryCode)
	params.Set("x", strconv.FormatFloat(origin.Longitude, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(origin.Latitude, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("sort", "distance")
	params.Set("size", strconv.Itoa(size))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+categorySearchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode kakao response: %w", err)
	}

	places := make([]models.Place, 0, len(body.Documents))
	for _, d := range body.Documents {
		places = append(places, d.toPlace())
	}
	return places, nil
}

func (d document) toPlace() models.Place {
	return models.Place{
		ID:            ExtractPlaceID(d.PlaceURL),
		Name:          d.PlaceName,
		Category:      d.CategoryName,
		Distance:      int(parseFloat(d.Distance)),
		Address:       d.AddressName,
		Lat:           parseFloat(d.Y),
		Lng:           parseFloat(d.X),
		URL:           d.PlaceURL,
		Phone:         d.Phone,
		CategoryGroup: d.CategoryGroupName,
		RoadAddress:   d.RoadAddressName,
	}
}

// ExtractPlaceID returns the last path segment of a provider place URL, or
// models.UnknownPlaceID when the URL is empty or has no usable segment.
func ExtractPlaceID(placeURL string) string {
	p := strings.TrimSpace(placeURL)
	if p == "" {
		return models.UnknownPlaceID
	}
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	segment := path.Base(strings.TrimRight(p, "/"))
	if segment == "" || segment == "." || segment == "/" {
		return models.UnknownPlaceID
	}
	return segment
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
