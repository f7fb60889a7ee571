package models

// Mood is the closed classification of weather conditions used downstream to
// select an icon and a background theme. There is no meaningful ordering;
// values are only used for lookup.
type Mood string

const (
	MoodClear   Mood = "clear"
	MoodClouds  Mood = "clouds"
	MoodRain    Mood = "rain"
	MoodDrizzle Mood = "drizzle"
	MoodSnow    Mood = "snow"
	MoodStorm   Mood = "storm"
	MoodMist    Mood = "mist"
	MoodWind    Mood = "wind"
	MoodNight   Mood = "night"
)

// Valid reports whether m is a member of the closed enum. Used to reject
// arbitrary hover input at the API boundary.
func (m Mood) Valid() bool {
	switch m {
	case MoodClear, MoodClouds, MoodRain, MoodDrizzle, MoodSnow, MoodStorm, MoodMist, MoodWind, MoodNight:
		return true
	}
	return false
}

// Units is the display-mode flag threading through unit conversion and
// labels. It does not affect upstream request identity beyond unit parameters.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits normalizes a units string, defaulting to metric.
func ParseUnits(s string) Units {
	if s == string(UnitsImperial) {
		return UnitsImperial
	}
	return UnitsMetric
}
