package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/observability"
)

// ForecastClient is the transport boundary for meteorological data. Providers
// are interchangeable by contract: parallel arrays per section keyed by a
// time axis, plus a resolved timezone identifier.
type ForecastClient interface {
	Forecast(ctx context.Context, coords models.Coordinates, units models.Units, days int) (*ForecastResponse, error)
	AirQuality(ctx context.Context, coords models.Coordinates) (*float64, error)
}

var (
	ErrUpstream    = errors.New("upstream failure")
	ErrRateLimited = errors.New("rate limited")
	ErrCircuitOpen = errors.New("circuit breaker open")
	ErrBadResponse = errors.New("malformed upstream response")
)

// ForecastResponse mirrors the provider's combined current+hourly+daily
// payload. Sections are pointers so callers can distinguish a missing section
// from an empty one.
type ForecastResponse struct {
	Timezone string          `json:"timezone"`
	Current  *CurrentSection `json:"current"`
	Hourly   *HourlySection  `json:"hourly"`
	Daily    *DailySection   `json:"daily"`
}

type CurrentSection struct {
	Time                string   `json:"time"`
	Temperature         float64  `json:"temperature_2m"`
	ApparentTemperature float64  `json:"apparent_temperature"`
	Humidity            float64  `json:"relative_humidity_2m"`
	Precipitation       float64  `json:"precipitation"`
	PrecipProbability   *float64 `json:"precipitation_probability"`
	CloudCover          float64  `json:"cloudcover"`
	WindSpeed           float64  `json:"wind_speed_10m"` // m/s, as requested
	WindDirection       float64  `json:"wind_direction_10m"`
	UVIndex             float64  `json:"uv_index"`
	SurfacePressure     float64  `json:"surface_pressure"`
	WeatherCode         int      `json:"weathercode"`
}

type HourlySection struct {
	Time              []string  `json:"time"`
	Temperature       []float64 `json:"temperature_2m"`
	PrecipProbability []float64 `json:"precipitation_probability"`
	WindSpeed         []float64 `json:"windspeed_10m"`
	WeatherCode       []int     `json:"weathercode"`
}

type DailySection struct {
	Time              []string  `json:"time"`
	WeatherCode       []int     `json:"weathercode"`
	TempMax           []float64 `json:"temperature_2m_max"`
	TempMin           []float64 `json:"temperature_2m_min"`
	PrecipProbability []float64 `json:"precipitation_probability_mean"`
	WindSpeedMax      []float64 `json:"windspeed_10m_max"`
	Sunrise           []string  `json:"sunrise"`
	Sunset            []string  `json:"sunset"`
}

// BreakerConfig tunes the per-upstream circuit breakers.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// OpenMeteoClient talks to the Open-Meteo forecast and air-quality services.
// No retries: a failed call fails once and the caller decides fallback
// behavior. A circuit breaker per upstream sheds load when one is down.
type OpenMeteoClient struct {
	forecastURL   string
	airQualityURL string
	client        *http.Client

	forecastBreaker *gobreaker.CircuitBreaker
	airBreaker      *gobreaker.CircuitBreaker
}

// NewOpenMeteoClient creates a client for the given endpoints. timeout bounds
// each upstream call.
func NewOpenMeteoClient(forecastURL, airQualityURL string, timeout time.Duration, bc BreakerConfig) *OpenMeteoClient {
	return &OpenMeteoClient{
		forecastURL:   forecastURL,
		airQualityURL: airQualityURL,
		client: &http.Client{
			Timeout: timeout,
		},
		forecastBreaker: newBreaker("forecast", bc),
		airBreaker:      newBreaker("air_quality", bc),
	}
}

func newBreaker(name string, bc BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
	})
}

// Forecast issues one combined current+hourly+daily request sized to the
// requested horizon and unit system.
func (c *OpenMeteoClient) Forecast(ctx context.Context, coords models.Coordinates, units models.Units, days int) (*ForecastResponse, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(coords.Lat))
	params.Set("longitude", formatCoord(coords.Lon))
	params.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,precipitation,precipitation_probability,cloudcover,wind_speed_10m,wind_direction_10m,uv_index,surface_pressure,weathercode")
	params.Set("hourly", "temperature_2m,precipitation_probability,windspeed_10m,weathercode")
	params.Set("daily", "weathercode,temperature_2m_max,temperature_2m_min,precipitation_probability_mean,windspeed_10m_max,sunrise,sunset")
	params.Set("forecast_days", strconv.Itoa(days))
	params.Set("timezone", "auto")
	// Wind is always requested in m/s; the unit parameter covers every wind
	// field in the response, and the service converts all of them in one
	// place. Other figures come back already in the requested system.
	params.Set("windspeed_unit", "ms")
	if units == models.UnitsImperial {
		params.Set("temperature_unit", "fahrenheit")
	} else {
		params.Set("temperature_unit", "celsius")
	}

	body, err := c.call(ctx, c.forecastBreaker, "forecast", c.forecastURL, params)
	if err != nil {
		return nil, err
	}

	var resp ForecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return &resp, nil
}

type airQualityResponse struct {
	Current *struct {
		EuropeanAQI *float64 `json:"european_aqi"`
	} `json:"current"`
}

// AirQuality returns the current European AQI, or nil when the provider
// reports no value.
func (c *OpenMeteoClient) AirQuality(ctx context.Context, coords models.Coordinates) (*float64, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(coords.Lat))
	params.Set("longitude", formatCoord(coords.Lon))
	params.Set("current", "european_aqi")

	body, err := c.call(ctx, c.airBreaker, "air_quality", c.airQualityURL, params)
	if err != nil {
		return nil, err
	}

	var resp airQualityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if resp.Current == nil {
		return nil, nil
	}
	return resp.Current.EuropeanAQI, nil
}

// call executes one GET through the circuit breaker and records metrics.
func (c *OpenMeteoClient) call(ctx context.Context, cb *gobreaker.CircuitBreaker, service, baseURL string, params url.Values) ([]byte, error) {
	start := time.Now()

	result, err := cb.Execute(func() (interface{}, error) {
		req, err := c.buildRequest(ctx, baseURL, params)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, fmt.Errorf("request timeout: %w", err)
			}
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		defer resp.Body.Close()

		if err := handleErrorResponse(resp); err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		return body, nil
	})

	duration := time.Since(start)
	if err != nil {
		observability.ObserveUpstreamCall(service, "error", duration)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}
	observability.ObserveUpstreamCall(service, "success", duration)

	return result.([]byte), nil
}

func (c *OpenMeteoClient) buildRequest(ctx context.Context, baseURL string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	return req, nil
}

func handleErrorResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}
