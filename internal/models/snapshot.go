package models

import "time"

// HourlyPoint is one normalized hourly forecast entry. Sequences are ordered
// ascending by Timestamp with unique timestamps; WindSpeed is expressed in
// the unit implied by the active Units.
type HourlyPoint struct {
	Timestamp         time.Time `json:"timestamp"`
	LabelShort        string    `json:"labelShort"`
	LabelFull         string    `json:"labelFull"`
	Temperature       float64   `json:"temperature"`
	PrecipProbability float64   `json:"precipitationProbability"` // 0-100
	WindSpeed         float64   `json:"windSpeed"`
	Mood              Mood      `json:"mood"`
}

// DailyPoint is one normalized calendar-day forecast entry. Sequences hold
// exactly the forecast horizon, ordered ascending with unique dates, and
// TempMax >= TempMin whenever both are defined.
type DailyPoint struct {
	Date              time.Time `json:"date"`
	WeekdayLabel      string    `json:"weekdayLabel"`
	DateLabel         string    `json:"dateLabel"`
	TempMax           float64   `json:"tempMax"`
	TempMin           float64   `json:"tempMin"`
	PrecipProbability float64   `json:"precipitationProbability"` // 0-100
	WindSpeedMax      float64   `json:"windSpeedMax"`
	Mood              Mood      `json:"mood"`
}

// WeatherSnapshot is the complete normalized weather state for one coordinate
// at one point in time. It is created atomically once all required upstream
// calls resolve (air quality may be absent), replaced wholesale on the next
// coordinate change, and never partially mutated.
type WeatherSnapshot struct {
	Coordinates Coordinates `json:"coordinates"`

	Temperature         float64 `json:"temperature"`
	ApparentTemperature float64 `json:"apparentTemperature"`
	Humidity            float64 `json:"humidity"`
	Precipitation       float64 `json:"precipitation"`
	PrecipProbability   float64 `json:"precipitationProbability"` // 0-100
	CloudCover          float64 `json:"cloudCover"`
	SurfacePressure     float64 `json:"surfacePressure"`
	WindSpeed           float64 `json:"windSpeed"`
	WindDirection       float64 `json:"windDirection"`
	UVIndex             float64 `json:"uvIndex"`

	Mood        Mood   `json:"mood"`
	Description string `json:"description"`

	Sunrise string `json:"sunrise"` // "HH:mm" in the snapshot's zone
	Sunset  string `json:"sunset"`

	// AirQuality is the current European AQI, nil when the air-quality
	// provider was unavailable.
	AirQuality *float64 `json:"airQuality"`

	Timezone string `json:"timezone"`

	Hourly []HourlyPoint `json:"hourly"`
	Daily  []DailyPoint  `json:"daily"`

	FetchedAt time.Time `json:"fetchedAt"`
}

// GeocodeResult is a forward-geocoding hit: coordinates plus a display label,
// optionally annotated with a country. Consumed once, not retained.
type GeocodeResult struct {
	Coordinates Coordinates `json:"coordinates"`
	Label       string      `json:"label"`
}
