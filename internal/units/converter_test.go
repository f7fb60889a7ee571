package units

import (
	"math"
	"testing"

	"github.com/nuvolino/weather-service/internal/models"
)

func TestKmhFromMs(t *testing.T) {
	tests := []struct {
		name string
		ms   float64
		want float64
	}{
		{"zero", 0, 0},
		{"one", 1, 3.6},
		{"ten", 10, 36},
		{"fractional", 2.5, 9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := KmhFromMs(tc.ms)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("KmhFromMs(%v) = %v, want %v", tc.ms, got, tc.want)
			}
		})
	}
}

func TestKmhFromMs_RoundTrip(t *testing.T) {
	for _, v := range []float64{0.1, 1, 5.5, 12.34, 100} {
		back := KmhFromMs(v) / KmhPerMs
		if math.Abs(back-v) > 1e-9 {
			t.Errorf("round trip of %v = %v", v, back)
		}
	}
}

func TestWindFromMs_ByUnits(t *testing.T) {
	if got := WindFromMs(10, models.UnitsMetric); math.Abs(got-36) > 1e-9 {
		t.Errorf("metric WindFromMs(10) = %v, want 36", got)
	}
	if got := WindFromMs(10, models.UnitsImperial); math.Abs(got-22.36936) > 1e-4 {
		t.Errorf("imperial WindFromMs(10) = %v, want ~22.37", got)
	}
}

func TestUnitLabels(t *testing.T) {
	if WindUnitLabel(models.UnitsMetric) != "km/h" || WindUnitLabel(models.UnitsImperial) != "mph" {
		t.Error("wind unit labels wrong")
	}
	if TempUnitLabel(models.UnitsMetric) != "°C" || TempUnitLabel(models.UnitsImperial) != "°F" {
		t.Error("temperature unit labels wrong")
	}
}
