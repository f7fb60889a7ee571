package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/observability"
)

const nominatimUserAgent = "nuvolino-weather-service/1.0"

// NominatimProvider serves both forward search and reverse lookup against an
// OSM Nominatim instance. Usage policy for the public instance caps requests
// at 1/s, enforced here with a shared token bucket across both directions.
type NominatimProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewNominatimProvider(baseURL string, timeout time.Duration, rps int) *NominatimProvider {
	if rps <= 0 {
		rps = 1
	}
	return &NominatimProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

func (p *NominatimProvider) Name() string { return "nominatim" }

type nominatimSearchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (p *NominatimProvider) Search(ctx context.Context, query string) (models.GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	body, err := p.get(ctx, p.baseURL+"/search", params)
	if err != nil {
		return models.GeocodeResult{}, err
	}

	var results []nominatimSearchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return models.GeocodeResult{}, fmt.Errorf("nominatim search decode: %w", err)
	}
	if len(results) == 0 {
		return models.GeocodeResult{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.GeocodeResult{}, fmt.Errorf("nominatim latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.GeocodeResult{}, fmt.Errorf("nominatim longitude %q: %w", results[0].Lon, err)
	}

	return models.GeocodeResult{
		Coordinates: models.Coordinates{Lat: lat, Lon: lon},
		Label:       results[0].DisplayName,
	}, nil
}

type nominatimReverseResult struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		State        string `json:"state"`
		Country      string `json:"country"`
	} `json:"address"`
}

func (p *NominatimProvider) Reverse(ctx context.Context, coords models.Coordinates) (Place, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	params.Set("format", "json")

	body, err := p.get(ctx, p.baseURL+"/reverse", params)
	if err != nil {
		return Place{}, err
	}

	var result nominatimReverseResult
	if err := json.Unmarshal(body, &result); err != nil {
		return Place{}, fmt.Errorf("nominatim reverse decode: %w", err)
	}

	return Place{
		City:         result.Address.City,
		Town:         result.Address.Town,
		Village:      result.Address.Village,
		Municipality: result.Address.Municipality,
		County:       result.Address.County,
		State:        result.Address.State,
		Country:      result.Address.Country,
	}, nil
}

func (p *NominatimProvider) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim rate wait: %w", err)
	}

	start := time.Now()
	body, err := fetchJSON(ctx, p.client, endpoint, params, map[string]string{
		"User-Agent": nominatimUserAgent,
	})
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.ObserveUpstreamCall("nominatim", status, time.Since(start))
	return body, err
}

// fetchJSON is the shared GET helper for geocoding providers.
func fetchJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, headers map[string]string) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid provider URL: %w", err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
