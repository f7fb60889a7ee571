// Package service assembles normalized weather snapshots from raw provider
// payloads: concurrent upstream fan-out, condition classification, unit
// normalization and timezone-aware temporal labeling.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nuvolino/weather-service/internal/client"
	"github.com/nuvolino/weather-service/internal/condition"
	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/units"
)

// ErrMissingData marks a provider response that decoded but lacks the
// sections a snapshot cannot be built without.
var ErrMissingData = errors.New("provider response missing required data")

const (
	hourlyTimeLayout = "2006-01-02T15:04"
	dailyTimeLayout  = "2006-01-02"
)

// WeatherService fetches and normalizes weather data for one coordinate.
type WeatherService struct {
	client           client.ForecastClient
	forecastDays     int
	fallbackTimezone string
	logger           *zap.Logger
}

func NewWeatherService(c client.ForecastClient, forecastDays int, fallbackTimezone string, logger *zap.Logger) *WeatherService {
	return &WeatherService{
		client:           c,
		forecastDays:     forecastDays,
		fallbackTimezone: fallbackTimezone,
		logger:           logger,
	}
}

// Fetch builds a complete snapshot for coords. The forecast and air-quality
// calls run concurrently; only the forecast is required. A failed or absent
// air-quality answer leaves AirQuality nil and is never an error.
func (s *WeatherService) Fetch(ctx context.Context, coords models.Coordinates, unitSystem models.Units) (models.WeatherSnapshot, error) {
	type airResult struct {
		aqi *float64
		err error
	}
	airCh := make(chan airResult, 1)
	go func() {
		aqi, err := s.client.AirQuality(ctx, coords)
		airCh <- airResult{aqi: aqi, err: err}
	}()

	forecast, err := s.client.Forecast(ctx, coords, unitSystem, s.forecastDays)
	air := <-airCh

	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("forecast fetch: %w", err)
	}
	if forecast.Current == nil || forecast.Daily == nil {
		return models.WeatherSnapshot{}, fmt.Errorf("%w: current or daily section absent", ErrMissingData)
	}

	if air.err != nil {
		s.logger.Warn("air quality unavailable, continuing without it",
			zap.Float64("lat", coords.Lat),
			zap.Float64("lon", coords.Lon),
			zap.Error(air.err))
		air.aqi = nil
	}

	loc := s.resolveTimezone(forecast.Timezone)

	snapshot := s.buildSnapshot(forecast, coords, unitSystem, loc)
	snapshot.AirQuality = air.aqi
	return snapshot, nil
}

// resolveTimezone loads the provider-reported zone, falling back to the
// configured default when the field is absent, still "auto", or unknown to
// the local zone database.
func (s *WeatherService) resolveTimezone(name string) *time.Location {
	if name != "" && name != "auto" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
		s.logger.Warn("unknown provider timezone, using fallback",
			zap.String("timezone", name),
			zap.String("fallback", s.fallbackTimezone))
	}
	if loc, err := time.LoadLocation(s.fallbackTimezone); err == nil {
		return loc
	}
	return time.UTC
}

func (s *WeatherService) buildSnapshot(forecast *client.ForecastResponse, coords models.Coordinates, unitSystem models.Units, loc *time.Location) models.WeatherSnapshot {
	current := forecast.Current

	precipProb := currentPrecipProbability(forecast)
	mood, description := condition.Classify(current.WeatherCode, precipProb)

	snapshot := models.WeatherSnapshot{
		Coordinates:         coords,
		Temperature:         current.Temperature,
		ApparentTemperature: current.ApparentTemperature,
		Humidity:            current.Humidity,
		Precipitation:       current.Precipitation,
		PrecipProbability:   precipProb,
		CloudCover:          current.CloudCover,
		SurfacePressure:     current.SurfacePressure,
		WindSpeed:           units.WindFromMs(current.WindSpeed, unitSystem),
		WindDirection:       current.WindDirection,
		UVIndex:             current.UVIndex,
		Mood:                mood,
		Description:         description,
		Timezone:            loc.String(),
		Hourly:              s.buildHourly(forecast.Hourly, unitSystem, loc),
		FetchedAt:           time.Now(),
	}

	snapshot.Daily, snapshot.Sunrise, snapshot.Sunset = s.buildDaily(forecast.Daily, unitSystem, loc)
	return snapshot
}

// currentPrecipProbability prefers the current-section value and falls back
// to the first hourly entry when the provider omits it.
func currentPrecipProbability(forecast *client.ForecastResponse) float64 {
	if forecast.Current.PrecipProbability != nil {
		return *forecast.Current.PrecipProbability
	}
	if forecast.Hourly != nil && len(forecast.Hourly.PrecipProbability) > 0 {
		return forecast.Hourly.PrecipProbability[0]
	}
	return 0
}

// buildHourly normalizes the hourly section. Winds arrive in m/s and are
// converted here, like every other wind field in the snapshot.
func (s *WeatherService) buildHourly(hourly *client.HourlySection, unitSystem models.Units, loc *time.Location) []models.HourlyPoint {
	if hourly == nil {
		return nil
	}

	points := make([]models.HourlyPoint, 0, len(hourly.Time))
	for i, raw := range hourly.Time {
		ts, err := time.ParseInLocation(hourlyTimeLayout, raw, loc)
		if err != nil {
			s.logger.Warn("skipping unparseable hourly timestamp", zap.String("value", raw), zap.Error(err))
			continue
		}

		point := models.HourlyPoint{
			Timestamp:  ts,
			LabelShort: ts.Format("15:04"),
			LabelFull:  ts.Format("Mon 02 Jan 15:04"),
		}
		if i < len(hourly.Temperature) {
			point.Temperature = hourly.Temperature[i]
		}
		if i < len(hourly.PrecipProbability) {
			point.PrecipProbability = hourly.PrecipProbability[i]
		}
		if i < len(hourly.WindSpeed) {
			point.WindSpeed = units.WindFromMs(hourly.WindSpeed[i], unitSystem)
		}
		if i < len(hourly.WeatherCode) {
			point.Mood, _ = condition.Classify(hourly.WeatherCode[i], point.PrecipProbability)
		}
		points = append(points, point)
	}
	return points
}

// buildDaily normalizes the daily section and extracts today's sunrise and
// sunset as zone-local "HH:mm" strings.
func (s *WeatherService) buildDaily(daily *client.DailySection, unitSystem models.Units, loc *time.Location) ([]models.DailyPoint, string, string) {
	points := make([]models.DailyPoint, 0, len(daily.Time))
	var sunrise, sunset string

	for i, raw := range daily.Time {
		date, err := time.ParseInLocation(dailyTimeLayout, raw, loc)
		if err != nil {
			s.logger.Warn("skipping unparseable daily date", zap.String("value", raw), zap.Error(err))
			continue
		}

		point := models.DailyPoint{
			Date:         date,
			WeekdayLabel: date.Format("Mon"),
			DateLabel:    date.Format("Mon 02 Jan"),
		}
		if i < len(daily.TempMax) {
			point.TempMax = daily.TempMax[i]
		}
		if i < len(daily.TempMin) {
			point.TempMin = daily.TempMin[i]
		}
		if i < len(daily.PrecipProbability) {
			point.PrecipProbability = daily.PrecipProbability[i]
		}
		if i < len(daily.WindSpeedMax) {
			point.WindSpeedMax = units.WindFromMs(daily.WindSpeedMax[i], unitSystem)
		}
		if i < len(daily.WeatherCode) {
			point.Mood, _ = condition.Classify(daily.WeatherCode[i], point.PrecipProbability)
		}
		points = append(points, point)

		if i == 0 {
			sunrise = formatSunTime(daily.Sunrise, i, loc)
			sunset = formatSunTime(daily.Sunset, i, loc)
		}
	}
	return points, sunrise, sunset
}

func formatSunTime(values []string, i int, loc *time.Location) string {
	if i >= len(values) {
		return ""
	}
	ts, err := time.ParseInLocation(hourlyTimeLayout, values[i], loc)
	if err != nil {
		return ""
	}
	return ts.Format("15:04")
}
