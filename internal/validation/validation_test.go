package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestValidateQuery_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateQuery(tc.input)
			if !errors.Is(err, ErrQueryEmpty) {
				t.Errorf("error = %v, want ErrQueryEmpty", err)
			}
		})
	}
}

func TestValidateQuery_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Milano", "Milano"},
		{"trimmed", "  Roma  ", "Roma"},
		{"with comma", "Cortina d'Ampezzo, Veneto", "Cortina d'Ampezzo, Veneto"},
		{"accents", "São Paulo", "São Paulo"},
		{"hyphen", "Saint-Étienne", "Saint-Étienne"},
		{"abbreviation", "St. Moritz", "St. Moritz"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateQuery(tc.input)
			if err != nil {
				t.Fatalf("ValidateQuery(%q) error = %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ValidateQuery(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestValidateQuery_InvalidChars(t *testing.T) {
	for _, in := range []string{"rome/lazio", "rome?", "<script>", "a;b"} {
		if _, err := ValidateQuery(in); !errors.Is(err, ErrQueryInvalidChars) {
			t.Errorf("ValidateQuery(%q) error = %v, want ErrQueryInvalidChars", in, err)
		}
	}
}

func TestValidateQuery_TooLong(t *testing.T) {
	long := strings.Repeat("a", 101)
	if _, err := ValidateQuery(long); !errors.Is(err, ErrQueryTooLong) {
		t.Errorf("error = %v, want ErrQueryTooLong", err)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr error
	}{
		{"rome", 41.9028, 12.4964, nil},
		{"equator meridian", 0, 0, nil},
		{"poles", 90, 180, nil},
		{"negative bounds", -90, -180, nil},
		{"lat too high", 90.1, 0, ErrInvalidLatitude},
		{"lat too low", -91, 0, ErrInvalidLatitude},
		{"lon too high", 0, 181, ErrInvalidLongitude},
		{"lon too low", 0, -180.5, ErrInvalidLongitude},
		{"nan lat", math.NaN(), 0, ErrInvalidLatitude},
		{"inf lon", 0, math.Inf(1), ErrInvalidLongitude},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinates(tc.lat, tc.lon)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCoordinates(%v, %v) = %v, want nil", tc.lat, tc.lon, err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateCoordinates(%v, %v) = %v, want %v", tc.lat, tc.lon, err, tc.wantErr)
			}
		})
	}
}
