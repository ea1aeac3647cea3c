// Package ingest is the pipeline's front door: it pulls current conditions
// from the external weather source and writes them to the raw layer, and it
// serves the raw-layer query API.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"weather-pipeline/config"
)

// ErrCityNotFound is returned when the weather source has no data for the
// requested city.
var ErrCityNotFound = errors.New("city not found")

// Observation is one current-conditions reading from the weather source,
// already flattened out of the provider's response shape.
type Observation struct {
	City          string
	Country       string
	Temperature   float64
	FeelsLike     float64
	Humidity      int
	Description   string
	WindSpeed     float64
	WindDirection *int
	Pressure      *int
	Visibility    *int
	ObservedAt    time.Time
}

// Source fetches current conditions for a city. The HTTP client below is the
// real implementation; tests substitute their own.
type Source interface {
	CurrentWeather(ctx context.Context, city, countryCode string) (*Observation, error)
}

// Client talks to an OpenWeatherMap-compatible current-weather endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a Client from the source configuration. BaseURL and APIKey
// must both be set (config falls back to the environment for them).
func NewClient(cfg config.SourceConfig) (*Client, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, errors.New("weather source base URL and API key must be configured")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// sourceResponse mirrors the provider's current-weather payload. Only the
// fields the raw layer keeps are decoded.
type sourceResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  *int    `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   *int    `json:"deg"`
	} `json:"wind"`
	Visibility *int  `json:"visibility"`
	Dt         int64 `json:"dt"`
}

// CurrentWeather fetches current conditions in metric units. A country code
// narrows the city lookup; empty means provider default resolution.
func (c *Client) CurrentWeather(ctx context.Context, city, countryCode string) (*Observation, error) {
	query := city
	if countryCode != "" {
		query = city + "," + countryCode
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather for %s: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, query)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather source returned %d for %s: %s", resp.StatusCode, query, body)
	}

	var payload sourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather response for %s: %w", query, err)
	}
	if len(payload.Weather) == 0 {
		return nil, fmt.Errorf("weather response for %s has no conditions block", query)
	}

	observedAt := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		observedAt = time.Now().UTC()
	}

	return &Observation{
		City:          payload.Name,
		Country:       payload.Sys.Country,
		Temperature:   payload.Main.Temp,
		FeelsLike:     payload.Main.FeelsLike,
		Humidity:      payload.Main.Humidity,
		Description:   payload.Weather[0].Description,
		WindSpeed:     payload.Wind.Speed,
		WindDirection: payload.Wind.Deg,
		Pressure:      payload.Main.Pressure,
		Visibility:    payload.Visibility,
		ObservedAt:    observedAt,
	}, nil
}
