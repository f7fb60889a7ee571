package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/observability"
)

// GoogleProvider reverse-geocodes through the Google Geocoding API. The
// kelvins/geocoder package holds the API key in package state, so the
// constructor sets it once at wiring time.
type GoogleProvider struct{}

func NewGoogleProvider(apiKey string) *GoogleProvider {
	geocoder.ApiKey = apiKey
	return &GoogleProvider{}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Reverse(ctx context.Context, coords models.Coordinates) (Place, error) {
	start := time.Now()
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  coords.Lat,
		Longitude: coords.Lon,
	})
	if err == nil && len(addresses) == 0 {
		err = errors.New("geocode: no results")
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.ObserveUpstreamCall("google_geocode", status, time.Since(start))
	if err != nil {
		return Place{}, err
	}

	address := addresses[0]
	return Place{
		City:    address.City,
		County:  address.County,
		State:   address.State,
		Country: address.Country,
	}, nil
}
