// Package condition maps provider weather codes to the closed Mood enum.
package condition

import (
	"github.com/nuvolino/weather-service/internal/models"
)

// Classify maps a WMO weather code and a precipitation probability to a Mood
// and a display description. The probability is accepted on either the 0-1 or
// the 0-100 convention and normalized to 0-1.
//
// Probability takes precedence over the raw code: code plus probability
// jointly approximate a richer condition than the code alone conveys. The
// function is pure and total; unknown codes fall back to clouds.
func Classify(code int, probability float64) (models.Mood, string) {
	p := normalizeProbability(probability)
	if p >= 0.5 {
		return models.MoodRain, "Rain likely"
	}
	if p >= 0.2 {
		return models.MoodDrizzle, "Light rain possible"
	}

	switch code {
	case 0:
		return models.MoodClear, "Clear sky"
	case 1:
		return models.MoodClear, "Mostly clear"
	case 2:
		return models.MoodClouds, "Partly cloudy"
	case 3:
		return models.MoodClouds, "Overcast"
	case 45, 48:
		return models.MoodMist, "Fog or mist"
	case 51, 53, 55:
		return models.MoodDrizzle, "Drizzle"
	case 56, 57:
		return models.MoodDrizzle, "Freezing drizzle"
	case 61, 63, 65:
		return models.MoodRain, "Rain"
	case 66, 67:
		return models.MoodRain, "Freezing rain"
	case 71, 73, 75, 77:
		return models.MoodSnow, "Snow"
	case 80, 81, 82:
		return models.MoodRain, "Rain showers"
	case 85, 86:
		return models.MoodSnow, "Snow showers"
	case 95, 96, 99:
		return models.MoodStorm, "Thunderstorm"
	}

	return models.MoodClouds, "Variable"
}

// normalizeProbability folds the 0-100 convention onto 0-1 and clamps
// negative input to zero.
func normalizeProbability(p float64) float64 {
	if p > 1 {
		p = p / 100
	}
	if p < 0 {
		return 0
	}
	return p
}
