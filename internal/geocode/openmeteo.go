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

// OpenMeteoProvider forward-geocodes against the Open-Meteo geocoding API.
// Keyless, so it sits in the chain after providers that need credentials.
// searchURL is the full endpoint.
type OpenMeteoProvider struct {
	searchURL string
	client    *http.Client
}

func NewOpenMeteoProvider(searchURL string, timeout time.Duration) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		searchURL: searchURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *OpenMeteoProvider) Name() string { return "openmeteo" }

type openMeteoSearchResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      string  `json:"name"`
		Country   string  `json:"country"`
	} `json:"results"`
}

func (p *OpenMeteoProvider) Search(ctx context.Context, query string) (models.GeocodeResult, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("count", "1")
	params.Set("language", "en")

	start := time.Now()
	body, err := fetchJSON(ctx, p.client, p.searchURL, params, nil)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.ObserveUpstreamCall("openmeteo_geocode", status, time.Since(start))
	if err != nil {
		return models.GeocodeResult{}, err
	}

	var resp openMeteoSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.GeocodeResult{}, fmt.Errorf("openmeteo geocode decode: %w", err)
	}
	if len(resp.Results) == 0 {
		return models.GeocodeResult{}, ErrNotFound
	}

	r := resp.Results[0]
	label := r.Name
	if r.Country != "" {
		label = r.Name + ", " + r.Country
	}
	return models.GeocodeResult{
		Coordinates: models.Coordinates{Lat: r.Latitude, Lon: r.Longitude},
		Label:       label,
	}, nil
}
