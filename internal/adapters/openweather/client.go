// Package openweather reads current conditions from the OpenWeatherMap
// API with a short-lived per-coordinate cache.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/domain"
	"github.com/haneul-labs/moodshift/internal/core/ports"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

	// Weather shifts slowly; one observation per coordinate per ten
	// minutes is plenty.
	cacheTTL = 600 * time.Second
)

type cacheEntry struct {
	obs     domain.WeatherObservation
	fetched time.Time
}

// Client implements the weather source port.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logrus.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

var _ ports.WeatherSource = (*Client)(nil)

// NewClient constructs an OpenWeatherMap client.
func NewClient(apiKey string, log *logrus.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openweather adapter: api key: %w", domain.ErrConfigMissing)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		log:        log,
		cache:      make(map[string]cacheEntry),
	}, nil
}

// cacheKey rounds coordinates to four decimals, about eleven meters, so
// nearby requests share an observation.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// CurrentWeather returns the cached observation when fresh, otherwise
// fetches and caches a new one.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherObservation, error) {
	key := cacheKey(lat, lon)

	c.mu.Lock()
	if e, ok := c.cache[key]; ok && time.Since(e.fetched) < cacheTTL {
		c.mu.Unlock()
		return e.obs, nil
	}
	c.mu.Unlock()

	obs, err := c.fetch(ctx, lat, lon)
	if err != nil {
		return domain.WeatherObservation{}, err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{obs: obs, fetched: time.Now()}
	c.mu.Unlock()
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (domain.WeatherObservation, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("openweather adapter: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("openweather adapter: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.WeatherObservation{}, fmt.Errorf("openweather adapter: status %d", resp.StatusCode)
	}

	var body struct {
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
		Main struct {
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("openweather adapter: decode: %w", err)
	}

	condition := "clear"
	if len(body.Weather) > 0 && body.Weather[0].Main != "" {
		condition = strings.ToLower(body.Weather[0].Main)
	}
	return domain.WeatherObservation{
		Condition: condition,
		FeelsLike: body.Main.FeelsLike,
		WindSpeed: body.Wind.Speed,
		Humidity:  body.Main.Humidity,
	}, nil
}
