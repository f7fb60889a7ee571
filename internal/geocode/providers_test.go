package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nuvolino/weather-service/internal/models"
)

func TestNominatim_Search(t *testing.T) {
	var capturedUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUA = r.Header.Get("User-Agent")
		if got := r.URL.Query().Get("q"); got != "Milano" {
			t.Errorf("q param = %q, want Milano", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format param = %q, want json", got)
		}
		w.Write([]byte(`[{"lat": "45.4642", "lon": "9.1900", "display_name": "Milano, Lombardia, Italia"}]`))
	}))
	defer server.Close()

	p := NewNominatimProvider(server.URL, 5*time.Second, 10)
	result, err := p.Search(context.Background(), "Milano")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Coordinates.Lat != 45.4642 || result.Coordinates.Lon != 9.19 {
		t.Errorf("Coordinates = %+v, want 45.4642/9.19", result.Coordinates)
	}
	if result.Label != "Milano, Lombardia, Italia" {
		t.Errorf("Label = %q", result.Label)
	}
	if capturedUA != nominatimUserAgent {
		t.Errorf("User-Agent = %q, want %q", capturedUA, nominatimUserAgent)
	}
}

func TestNominatim_SearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	p := NewNominatimProvider(server.URL, 5*time.Second, 10)
	_, err := p.Search(context.Background(), "xyzzy")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Search() error = %v, want ErrNotFound", err)
	}
}

func TestNominatim_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("lat"); got != "41.9028" {
			t.Errorf("lat param = %q, want 41.9028", got)
		}
		w.Write([]byte(`{"address": {"city": "Roma", "state": "Lazio", "country": "Italia"}}`))
	}))
	defer server.Close()

	p := NewNominatimProvider(server.URL, 5*time.Second, 10)
	place, err := p.Reverse(context.Background(), models.Coordinates{Lat: 41.9028, Lon: 12.4964})
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	if place.City != "Roma" || place.Country != "Italia" {
		t.Errorf("Place = %+v, want City=Roma Country=Italia", place)
	}
}

func TestNominatim_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewNominatimProvider(server.URL, 5*time.Second, 10)
	if _, err := p.Reverse(context.Background(), models.Coordinates{Lat: 41.9, Lon: 12.5}); err == nil {
		t.Error("Reverse() error = nil, want error")
	}
}

func TestPhoton_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": [{"properties": {"city": "Roma", "state": "Lazio", "country": "Italia"}}]}`))
	}))
	defer server.Close()

	p := NewPhotonProvider(server.URL, 5*time.Second)
	place, err := p.Reverse(context.Background(), models.Coordinates{Lat: 41.9028, Lon: 12.4964})
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	if place.Label() != "Roma, Italia" {
		t.Errorf("Label() = %q, want Roma, Italia", place.Label())
	}
}

func TestPhoton_NameFallsBackToTown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": [{"properties": {"name": "Frascati", "country": "Italia"}}]}`))
	}))
	defer server.Close()

	p := NewPhotonProvider(server.URL, 5*time.Second)
	place, err := p.Reverse(context.Background(), models.Coordinates{Lat: 41.8, Lon: 12.68})
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	if place.Label() != "Frascati, Italia" {
		t.Errorf("Label() = %q, want Frascati, Italia", place.Label())
	}
}

func TestPhoton_EmptyFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": []}`))
	}))
	defer server.Close()

	p := NewPhotonProvider(server.URL, 5*time.Second)
	_, err := p.Reverse(context.Background(), models.Coordinates{Lat: 0, Lon: 0})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Reverse() error = %v, want ErrNotFound", err)
	}
}

func TestOpenMeteo_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "Roma" {
			t.Errorf("name param = %q, want Roma", got)
		}
		w.Write([]byte(`{"results": [{"latitude": 41.89, "longitude": 12.51, "name": "Rome", "country": "Italy"}]}`))
	}))
	defer server.Close()

	p := NewOpenMeteoProvider(server.URL, 5*time.Second)
	result, err := p.Search(context.Background(), "Roma")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Label != "Rome, Italy" {
		t.Errorf("Label = %q, want Rome, Italy", result.Label)
	}
	if result.Coordinates.Lat != 41.89 {
		t.Errorf("Lat = %v, want 41.89", result.Coordinates.Lat)
	}
}

func TestOpenMeteo_SearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	p := NewOpenMeteoProvider(server.URL, 5*time.Second)
	_, err := p.Search(context.Background(), "xyzzy")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Search() error = %v, want ErrNotFound", err)
	}
}

func TestOpenWeather_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Errorf("appid param = %q, want test-key", got)
		}
		w.Write([]byte(`[{"lat": 45.4643, "lon": 9.1895, "name": "Milan", "country": "IT"}]`))
	}))
	defer server.Close()

	p := NewOpenWeatherProvider(server.URL, "test-key", 5*time.Second)
	result, err := p.Search(context.Background(), "Milan")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Label != "Milan, IT" {
		t.Errorf("Label = %q, want Milan, IT", result.Label)
	}
}
