package domain

// WeatherObservation is the slice of a weather report the mood resolver
// consumes. Condition is the lowercase category reported by the provider
// (for example "rain", "clouds", "clear").
type WeatherObservation struct {
	Condition string
	FeelsLike float64
	WindSpeed float64
	Humidity  float64
}

// MoodResolution names the decision-table rule that fired and the search
// keywords attached to it.
type MoodResolution struct {
	Rule     string
	Keywords []string
}
