package condition

import (
	"testing"

	"github.com/nuvolino/weather-service/internal/models"
)

func TestClassify_CodeTables(t *testing.T) {
	tests := []struct {
		name string
		code int
		want models.Mood
	}{
		{"clear sky", 0, models.MoodClear},
		{"mostly clear", 1, models.MoodClear},
		{"partly cloudy", 2, models.MoodClouds},
		{"overcast", 3, models.MoodClouds},
		{"fog", 45, models.MoodMist},
		{"rime fog", 48, models.MoodMist},
		{"light drizzle", 51, models.MoodDrizzle},
		{"dense drizzle", 55, models.MoodDrizzle},
		{"freezing drizzle", 56, models.MoodDrizzle},
		{"light rain", 61, models.MoodRain},
		{"heavy rain", 65, models.MoodRain},
		{"freezing rain", 67, models.MoodRain},
		{"rain showers", 80, models.MoodRain},
		{"violent showers", 82, models.MoodRain},
		{"light snow", 71, models.MoodSnow},
		{"snow grains", 77, models.MoodSnow},
		{"snow showers", 85, models.MoodSnow},
		{"thunderstorm", 95, models.MoodStorm},
		{"thunderstorm hail", 99, models.MoodStorm},
		{"unknown code", 42, models.MoodClouds},
		{"negative code", -1, models.MoodClouds},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mood, desc := Classify(tc.code, 0)
			if mood != tc.want {
				t.Errorf("Classify(%d, 0) mood = %q, want %q", tc.code, mood, tc.want)
			}
			if desc == "" {
				t.Errorf("Classify(%d, 0) returned empty description", tc.code)
			}
			if !mood.Valid() {
				t.Errorf("Classify(%d, 0) returned mood %q outside the closed enum", tc.code, mood)
			}
		})
	}
}

// High precipitation probability overrides the raw code for every code.
func TestClassify_ProbabilityPrecedence(t *testing.T) {
	codes := []int{0, 1, 2, 3, 45, 51, 61, 71, 95, 42}
	for _, code := range codes {
		mood, _ := Classify(code, 0.5)
		if mood != models.MoodRain {
			t.Errorf("Classify(%d, 0.5) = %q, want rain", code, mood)
		}
		mood, _ = Classify(code, 0.2)
		if mood != models.MoodDrizzle {
			t.Errorf("Classify(%d, 0.2) = %q, want drizzle", code, mood)
		}
	}
}

func TestClassify_ProbabilityConventions(t *testing.T) {
	tests := []struct {
		name string
		prob float64
		want models.Mood
	}{
		{"fraction rain", 0.6, models.MoodRain},
		{"percent rain", 60, models.MoodRain},
		{"fraction drizzle", 0.3, models.MoodDrizzle},
		{"percent drizzle", 30, models.MoodDrizzle},
		{"below threshold", 0.1, models.MoodClear},
		{"percent below threshold", 10, models.MoodClear},
		{"negative clamps to zero", -5, models.MoodClear},
		{"exactly one is a fraction", 1, models.MoodRain},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mood, _ := Classify(0, tc.prob)
			if mood != tc.want {
				t.Errorf("Classify(0, %v) = %q, want %q", tc.prob, mood, tc.want)
			}
		})
	}
}
