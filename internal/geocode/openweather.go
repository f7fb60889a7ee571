package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/observability"
)

// OpenWeatherProvider forward-geocodes against the OpenWeather direct
// geocoding API. Requires an API key; the resolver only places it in the
// chain when one is configured. directURL is the full endpoint.
type OpenWeatherProvider struct {
	directURL string
	apiKey    string
	client    *http.Client
}

func NewOpenWeatherProvider(directURL, apiKey string, timeout time.Duration) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		directURL: directURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *OpenWeatherProvider) Name() string { return "openweather" }

type openWeatherDirectResult struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
}

func (p *OpenWeatherProvider) Search(ctx context.Context, query string) (models.GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("appid", p.apiKey)

	start := time.Now()
	body, err := fetchJSON(ctx, p.client, p.directURL, params, nil)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.ObserveUpstreamCall("openweather_geocode", status, time.Since(start))
	if err != nil {
		return models.GeocodeResult{}, err
	}

	var results []openWeatherDirectResult
	if err := json.Unmarshal(body, &results); err != nil {
		return models.GeocodeResult{}, fmt.Errorf("openweather geocode decode: %w", err)
	}
	if len(results) == 0 {
		return models.GeocodeResult{}, ErrNotFound
	}

	r := results[0]
	label := r.Name
	if r.Country != "" {
		label = r.Name + ", " + r.Country
	}
	return models.GeocodeResult{
		Coordinates: models.Coordinates{Lat: r.Lat, Lon: r.Lon},
		Label:       label,
	}, nil
}
