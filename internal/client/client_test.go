package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/nuvolino/weather-service/internal/models"
)

var testBreaker = BreakerConfig{
	MaxRequests: 3,
	Interval:    time.Minute,
	Timeout:     30 * time.Second,
}

const forecastBody = `{
	"timezone": "Europe/Rome",
	"current": {
		"time": "2026-03-14T12:00",
		"temperature_2m": 17.3,
		"apparent_temperature": 16.1,
		"relative_humidity_2m": 62,
		"precipitation": 0.0,
		"precipitation_probability": 10,
		"cloudcover": 25,
		"wind_speed_10m": 3.4,
		"wind_direction_10m": 210,
		"uv_index": 4.2,
		"surface_pressure": 1015.2,
		"weathercode": 1
	},
	"hourly": {
		"time": ["2026-03-14T12:00", "2026-03-14T13:00"],
		"temperature_2m": [17.3, 17.9],
		"precipitation_probability": [10, 15],
		"windspeed_10m": [12.2, 13.0],
		"weathercode": [1, 2]
	},
	"daily": {
		"time": ["2026-03-14"],
		"weathercode": [2],
		"temperature_2m_max": [19.0],
		"temperature_2m_min": [8.5],
		"precipitation_probability_mean": [12],
		"windspeed_10m_max": [18.4],
		"sunrise": ["2026-03-14T06:21"],
		"sunset": ["2026-03-14T18:09"]
	}
}`

func newForecastClient(forecastURL, airURL string) *OpenMeteoClient {
	return NewOpenMeteoClient(forecastURL, airURL, 5*time.Second, testBreaker)
}

func TestForecast_Success(t *testing.T) {
	var capturedQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forecastBody))
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	coords := models.Coordinates{Lat: 41.9028, Lon: 12.4964}

	resp, err := c.Forecast(context.Background(), coords, models.UnitsMetric, 10)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if resp.Timezone != "Europe/Rome" {
		t.Errorf("Timezone = %q, want Europe/Rome", resp.Timezone)
	}
	if resp.Current == nil {
		t.Fatal("Current section is nil")
	}
	if resp.Current.Temperature != 17.3 {
		t.Errorf("Current.Temperature = %v, want 17.3", resp.Current.Temperature)
	}
	if resp.Current.PrecipProbability == nil || *resp.Current.PrecipProbability != 10 {
		t.Errorf("Current.PrecipProbability = %v, want 10", resp.Current.PrecipProbability)
	}
	if resp.Hourly == nil || len(resp.Hourly.Time) != 2 {
		t.Fatalf("Hourly section incomplete: %+v", resp.Hourly)
	}
	if resp.Daily == nil || len(resp.Daily.Sunrise) != 1 {
		t.Fatalf("Daily section incomplete: %+v", resp.Daily)
	}

	if got := capturedQuery.Get("latitude"); got != "41.9028" {
		t.Errorf("latitude param = %q, want 41.9028", got)
	}
	if got := capturedQuery.Get("timezone"); got != "auto" {
		t.Errorf("timezone param = %q, want auto", got)
	}
	if got := capturedQuery.Get("forecast_days"); got != "10" {
		t.Errorf("forecast_days param = %q, want 10", got)
	}
	if got := capturedQuery.Get("temperature_unit"); got != "celsius" {
		t.Errorf("temperature_unit param = %q, want celsius", got)
	}
	if got := capturedQuery.Get("windspeed_unit"); got != "ms" {
		t.Errorf("windspeed_unit param = %q, want ms", got)
	}
}

func TestForecast_ImperialUnits(t *testing.T) {
	var capturedQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query()
		w.Write([]byte(forecastBody))
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	_, err := c.Forecast(context.Background(), models.Coordinates{Lat: 40.7, Lon: -74.0}, models.UnitsImperial, 10)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if got := capturedQuery.Get("temperature_unit"); got != "fahrenheit" {
		t.Errorf("temperature_unit param = %q, want fahrenheit", got)
	}
	if got := capturedQuery.Get("windspeed_unit"); got != "ms" {
		t.Errorf("windspeed_unit param = %q, want ms", got)
	}
}

func TestForecast_MissingDailySection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"timezone": "Europe/Rome", "current": {"time": "2026-03-14T12:00", "temperature_2m": 17.3, "weathercode": 1}}`))
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	resp, err := c.Forecast(context.Background(), models.Coordinates{Lat: 41.9, Lon: 12.5}, models.UnitsMetric, 10)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if resp.Current == nil {
		t.Error("Current section is nil, want present")
	}
	if resp.Daily != nil {
		t.Errorf("Daily section = %+v, want nil", resp.Daily)
	}
	if resp.Hourly != nil {
		t.Errorf("Hourly section = %+v, want nil", resp.Hourly)
	}
}

func TestForecast_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	_, err := c.Forecast(context.Background(), models.Coordinates{Lat: 41.9, Lon: 12.5}, models.UnitsMetric, 10)
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Forecast() error = %v, want ErrUpstream", err)
	}
}

func TestForecast_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	_, err := c.Forecast(context.Background(), models.Coordinates{Lat: 41.9, Lon: 12.5}, models.UnitsMetric, 10)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Forecast() error = %v, want ErrRateLimited", err)
	}
}

func TestForecast_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"timezone": `))
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	_, err := c.Forecast(context.Background(), models.Coordinates{Lat: 41.9, Lon: 12.5}, models.UnitsMetric, 10)
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("Forecast() error = %v, want ErrBadResponse", err)
	}
}

func TestForecast_NoRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	_, err := c.Forecast(context.Background(), models.Coordinates{Lat: 41.9, Lon: 12.5}, models.UnitsMetric, 10)
	if err == nil {
		t.Fatal("Forecast() error = nil, want error")
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retries)", calls)
	}
}

func TestForecast_CircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	coords := models.Coordinates{Lat: 41.9, Lon: 12.5}

	// gobreaker defaults trip after 5 consecutive failures.
	for i := 0; i < 6; i++ {
		c.Forecast(context.Background(), coords, models.UnitsMetric, 10)
	}

	_, err := c.Forecast(context.Background(), coords, models.UnitsMetric, 10)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Forecast() error = %v, want ErrCircuitOpen", err)
	}
}

func TestForecast_CorrelationIDPropagated(t *testing.T) {
	var capturedCorrID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedCorrID = r.Header.Get("X-Correlation-ID")
		w.Write([]byte(forecastBody))
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	ctx := context.WithValue(context.Background(), "correlation_id", "test-correlation-id-123")

	if _, err := c.Forecast(ctx, models.Coordinates{Lat: 41.9, Lon: 12.5}, models.UnitsMetric, 10); err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if capturedCorrID != "test-correlation-id-123" {
		t.Errorf("X-Correlation-ID header = %q, want test-correlation-id-123", capturedCorrID)
	}
}

func TestAirQuality_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("current"); got != "european_aqi" {
			t.Errorf("current param = %q, want european_aqi", got)
		}
		w.Write([]byte(`{"current": {"european_aqi": 34.0}}`))
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	aqi, err := c.AirQuality(context.Background(), models.Coordinates{Lat: 41.9, Lon: 12.5})
	if err != nil {
		t.Fatalf("AirQuality() error = %v", err)
	}
	if aqi == nil || *aqi != 34.0 {
		t.Errorf("AirQuality() = %v, want 34.0", aqi)
	}
}

func TestAirQuality_NoValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	aqi, err := c.AirQuality(context.Background(), models.Coordinates{Lat: 41.9, Lon: 12.5})
	if err != nil {
		t.Fatalf("AirQuality() error = %v", err)
	}
	if aqi != nil {
		t.Errorf("AirQuality() = %v, want nil", *aqi)
	}
}

func TestAirQuality_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newForecastClient(server.URL, server.URL)
	_, err := c.AirQuality(context.Background(), models.Coordinates{Lat: 41.9, Lon: 12.5})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("AirQuality() error = %v, want ErrUpstream", err)
	}
}
