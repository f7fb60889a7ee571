// Package validation checks user-supplied coordinates and search queries
// before they reach the orchestrator.
package validation

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrQueryEmpty is returned when a search query is empty or whitespace-only
// after trim. Callers treat this as a no-op rather than a user-visible error.
var ErrQueryEmpty = errors.New("query is required")

// ErrQueryTooLong is returned when query length exceeds the maximum.
var ErrQueryTooLong = errors.New("query too long")

// ErrQueryInvalidChars is returned when a query contains disallowed characters.
var ErrQueryInvalidChars = errors.New("query contains invalid characters")

// ErrInvalidLatitude is returned for non-finite or out-of-range latitudes.
var ErrInvalidLatitude = errors.New("latitude out of range")

// ErrInvalidLongitude is returned for non-finite or out-of-range longitudes.
var ErrInvalidLongitude = errors.New("longitude out of range")

// maxQueryRunes bounds search queries; place names do not get longer than this.
const maxQueryRunes = 100

// ValidateQuery trims the input, enforces the length bound (in runes), and
// restricts to allowed characters: letters (Unicode), digits, space, comma,
// apostrophe, period, hyphen. Returns the trimmed string or an error suitable
// for 400 INVALID_QUERY responses. Normalization (lowercase) is left to the
// geocoding layer.
func ValidateQuery(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrQueryEmpty
	}
	if len(r) > maxQueryRunes {
		return "", ErrQueryTooLong
	}
	for _, c := range r {
		if !isAllowedQueryRune(c) {
			return "", ErrQueryInvalidChars
		}
	}
	return s, nil
}

// isAllowedQueryRune returns true for letters (Unicode), digits, and the
// punctuation that occurs in real place names.
func isAllowedQueryRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '\'', '.', '-':
		return true
	}
	return false
}

// ValidateCoordinates checks that both components are finite and within the
// WGS84 bounds lat [-90, 90], lon [-180, 180].
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return ErrInvalidLatitude
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return ErrInvalidLongitude
	}
	if err := validate.Var(lat, "latitude"); err != nil {
		return ErrInvalidLatitude
	}
	if err := validate.Var(lon, "longitude"); err != nil {
		return ErrInvalidLongitude
	}
	return nil
}
