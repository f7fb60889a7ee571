// Package geocode resolves place names to coordinates and coordinates to
// human-readable labels through ordered provider chains. Providers are
// best-effort: a failing provider falls through to the next one.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/nuvolino/weather-service/internal/models"
)

var (
	ErrEmptyQuery = errors.New("empty query")
	ErrNotFound   = errors.New("place not found")
	ErrNoProvider = errors.New("no reverse geocoding provider succeeded")
)

// ForwardProvider turns a free-text place query into coordinates and a label.
type ForwardProvider interface {
	Name() string
	Search(ctx context.Context, query string) (models.GeocodeResult, error)
}

// ReverseProvider turns coordinates into structured place fields.
type ReverseProvider interface {
	Name() string
	Reverse(ctx context.Context, coords models.Coordinates) (Place, error)
}

// Place holds the locality fields a reverse provider may return. Zero-value
// fields mean the provider did not report them.
type Place struct {
	City         string
	Town         string
	Village      string
	Municipality string
	County       string
	State        string
	Country      string
}

// Label picks the most specific locality name and appends the country when
// it is not already part of the name. Empty when no locality field is set.
func (p Place) Label() string {
	name := firstNonEmpty(p.City, p.Town, p.Village, p.Municipality, p.County, p.State)
	if name == "" {
		return ""
	}
	if p.Country != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(p.Country)) {
		return name + ", " + p.Country
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
