// Package units converts provider-native units into the units requested by
// the caller. Conversions are applied exactly once at ingestion, never
// downstream, so idempotency concerns do not arise.
package units

import "github.com/nuvolino/weather-service/internal/models"

const (
	// KmhPerMs converts meters/second to kilometers/hour.
	KmhPerMs = 3.6
	// MphPerMs converts meters/second to miles/hour.
	MphPerMs = 2.236936
)

// KmhFromMs converts a wind speed from meters/second to kilometers/hour.
func KmhFromMs(v float64) float64 {
	return v * KmhPerMs
}

// MphFromMs converts a wind speed from meters/second to miles/hour.
func MphFromMs(v float64) float64 {
	return v * MphPerMs
}

// WindFromMs converts a raw meters/second wind speed into the display unit
// implied by units. The upstream forecast request is already parameterized
// with a windspeed unit for the hourly and daily sections; this conversion
// covers the current section, which the upstream does not unit-parameterize.
func WindFromMs(v float64, u models.Units) float64 {
	if u == models.UnitsImperial {
		return MphFromMs(v)
	}
	return KmhFromMs(v)
}

// WindUnitLabel returns the display suffix for wind speeds.
func WindUnitLabel(u models.Units) string {
	if u == models.UnitsImperial {
		return "mph"
	}
	return "km/h"
}

// TempUnitLabel returns the display suffix for temperatures. Temperatures
// pass through unconverted: the upstream emits the requested unit directly.
func TempUnitLabel(u models.Units) string {
	if u == models.UnitsImperial {
		return "°F"
	}
	return "°C"
}
