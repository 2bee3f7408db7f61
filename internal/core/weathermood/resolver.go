// Package weathermood maps a weather observation and local time of day to
// a music mood rule with attached search keywords.
package weathermood

import (
	"strings"
	"time"

	"github.com/haneul-labs/moodshift/internal/core/domain"
)

// Threshold constants shared across time bands.
const (
	hotFeelsLike      = 25.0
	scorchingFeels    = 30.0
	mildFeelsLow      = 18.0
	coolFeelsLow      = 10.0
	dawnCoolFeelsLow  = 12.0
	dawnCoolFeelsHigh = 18.0
	strongWind        = 5.0
	muggyHumidity     = 70.0
)

func rule(id string, keywords ...string) domain.MoodResolution {
	return domain.MoodResolution{Rule: id, Keywords: keywords}
}

func isRainy(cond string) bool {
	return strings.Contains(cond, "rain") ||
		strings.Contains(cond, "drizzle") ||
		strings.Contains(cond, "thunder")
}

func isSnowy(cond string) bool { return strings.Contains(cond, "snow") }

func isCloudy(cond string) bool {
	return strings.Contains(cond, "cloud") ||
		strings.Contains(cond, "mist") ||
		strings.Contains(cond, "fog") ||
		strings.Contains(cond, "haze")
}

// Resolve walks the decision table: a four-way time band first, then
// condition and threshold checks inside the band. The table is total —
// every observation resolves to exactly one rule.
func Resolve(w domain.WeatherObservation, now time.Time) domain.MoodResolution {
	cond := strings.ToLower(w.Condition)
	h := now.Hour()

	switch {
	case h < 6:
		return resolveDawn(w)
	case h < 12:
		return resolveMorning(cond, w)
	case h < 18:
		return resolveAfternoon(cond, w)
	default:
		return resolveEvening(cond, w)
	}
}

func resolveDawn(w domain.WeatherObservation) domain.MoodResolution {
	switch {
	case w.FeelsLike >= dawnCoolFeelsLow && w.FeelsLike <= dawnCoolFeelsHigh:
		return rule("dawn_cool", "dawn", "mellow", "lofi", "calm")
	case w.FeelsLike < dawnCoolFeelsLow:
		return rule("dawn_cold", "cold night", "dawn", "calm", "winter night")
	default:
		return rule("dawn_warm", "night", "rest", "comfort", "dawn")
	}
}

func resolveMorning(cond string, w domain.WeatherObservation) domain.MoodResolution {
	switch {
	case isRainy(cond):
		return rule("morning_rain", "morning rain", "mellow", "cafe", "sentimental")
	case isCloudy(cond):
		return rule("morning_cloudy", "morning", "brunch", "indie", "cafe")
	case w.FeelsLike >= hotFeelsLike:
		return rule("morning_hot", "hot morning", "refreshing", "summer", "bright")
	default:
		return rule("morning_clear", "morning", "fresh", "good mood", "lively")
	}
}

func resolveAfternoon(cond string, w domain.WeatherObservation) domain.MoodResolution {
	switch {
	case isRainy(cond):
		if w.WindSpeed >= strongWind {
			return rule("afternoon_storm", "rain shower", "storm", "sentimental", "rain sounds")
		}
		return rule("afternoon_rain", "afternoon rain", "rainy day", "sentimental", "cafe")
	case isSnowy(cond):
		return rule("afternoon_snow", "winter", "snowy day", "warm", "sentimental")
	case isCloudy(cond):
		if w.Humidity >= muggyHumidity {
			return rule("afternoon_humid_cloudy", "overcast", "heavy air", "lofi", "calm")
		}
		return rule("afternoon_cloudy", "cloudy", "clouds", "calm", "sentimental")
	case w.FeelsLike >= scorchingFeels:
		return rule("afternoon_very_hot", "heat wave", "cool down", "summer", "bright")
	case w.FeelsLike >= hotFeelsLike:
		return rule("afternoon_hot", "hot day", "summer", "lively", "upbeat")
	case w.FeelsLike >= mildFeelsLow:
		if w.WindSpeed >= strongWind {
			return rule("afternoon_windy", "breezy day", "cool", "refreshing", "walk")
		}
		return rule("afternoon_perfect", "nice weather", "walk", "picnic", "good mood")
	case w.FeelsLike >= coolFeelsLow:
		return rule("afternoon_cool", "autumn", "crisp", "walk", "sentimental")
	default:
		return rule("afternoon_cold", "cold day", "winter", "cozy", "warm")
	}
}

func resolveEvening(cond string, w domain.WeatherObservation) domain.MoodResolution {
	switch {
	case isRainy(cond):
		return rule("evening_rain", "evening rain", "night rain", "sentimental", "mellow")
	case isCloudy(cond):
		return rule("evening_cloudy", "evening", "cloudy night", "calm", "sentimental")
	case w.FeelsLike >= hotFeelsLike:
		return rule("evening_warm", "warm evening", "night view", "drive", "summer night")
	case w.FeelsLike >= mildFeelsLow:
		if w.WindSpeed >= strongWind {
			return rule("evening_breezy", "evening breeze", "drive", "cool", "night")
		}
		return rule("evening_perfect", "nice evening", "walk", "leisure", "night")
	default:
		return rule("evening_cold", "cold evening", "winter night", "warm", "home")
	}
}
