package services

import "strings"

// Keyword families scanned out of a playlist display name. Families are
// checked in order inside each group; within a group only the first match
// contributes.
var (
	summerNameKeywords = []string{"summer", "hot", "beach", "tropical"}
	winterNameKeywords = []string{"winter", "cold", "snow", "christmas"}
	springNameKeywords = []string{"spring", "blossom"}
	autumnNameKeywords = []string{"autumn", "fall"}

	morningNameKeywords = []string{"morning", "wake"}
	nightNameKeywords   = []string{"night", "midnight"}

	workoutNameKeywords = []string{"workout", "gym", "fitness"}
	studyNameKeywords   = []string{"study", "focus"}
	sleepNameKeywords   = []string{"sleep", "lullaby"}
	partyNameKeywords   = []string{"party", "club"}

	romanticNameKeywords = []string{"romantic", "love"}
	sadNameKeywords      = []string{"sad", "melancholy", "breakup"}
	happyNameKeywords    = []string{"happy", "upbeat", "cheerful"}
)

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// inferContextTags extracts mood tags from a playlist display name. The
// result feeds the inversion engine with extra weight applied by the
// caller.
func inferContextTags(name string) []string {
	lower := strings.ToLower(name)
	var tags []string

	switch {
	case containsAny(lower, summerNameKeywords):
		tags = append(tags, "summer", "tropical", "hot", "beach", "sunny")
	case containsAny(lower, winterNameKeywords):
		tags = append(tags, "winter", "cold", "snow", "cozy")
	case containsAny(lower, springNameKeywords):
		tags = append(tags, "spring", "fresh", "blossom")
	case containsAny(lower, autumnNameKeywords):
		tags = append(tags, "autumn", "fall", "nostalgic")
	}

	switch {
	case containsAny(lower, morningNameKeywords):
		tags = append(tags, "morning", "fresh", "energizing")
	case containsAny(lower, nightNameKeywords):
		tags = append(tags, "night", "midnight", "nocturnal")
	}

	switch {
	case containsAny(lower, workoutNameKeywords):
		tags = append(tags, "workout", "energetic", "power")
	case containsAny(lower, studyNameKeywords):
		tags = append(tags, "study", "focus", "concentration")
	case containsAny(lower, sleepNameKeywords):
		tags = append(tags, "sleep", "peaceful", "calm")
	case containsAny(lower, partyNameKeywords):
		tags = append(tags, "party", "dance", "club")
	}

	switch {
	case containsAny(lower, romanticNameKeywords):
		tags = append(tags, "romantic", "love", "sweet")
	case containsAny(lower, sadNameKeywords):
		tags = append(tags, "sad", "melancholy", "emotional")
	case containsAny(lower, happyNameKeywords):
		tags = append(tags, "happy", "upbeat", "cheerful")
	}

	return tags
}

// Keyword families for the keyword-inference fallback tier.
var (
	highEnergyKeywords = []string{"rap", "hip-hop", "hip hop", "edm", "party", "club", "dance", "workout", "gym", "rock", "metal", "energy", "fast"}
	calmKeywords       = []string{"calm", "quiet", "sleep", "relaxing", "study", "chill", "lofi"}
	sadKeywords        = []string{"sad", "melancholy", "breakup"}
)

// alternativeTagsFor picks an opposite-mood tag list from context keywords
// when no tag data was available for any seed.
func alternativeTagsFor(name string) []string {
	lower := strings.ToLower(name)
	switch {
	case containsAny(lower, highEnergyKeywords):
		return []string{"acoustic", "piano", "ballad", "jazz", "classical", "ambient", "singer-songwriter", "indie folk"}
	case containsAny(lower, calmKeywords):
		return []string{"dance", "electronic", "pop", "upbeat", "energetic", "party", "house", "edm"}
	case containsAny(lower, sadKeywords):
		return []string{"happy", "upbeat", "summer", "feel good", "cheerful", "pop", "funk", "disco"}
	default:
		return []string{"sad", "melancholy", "acoustic", "piano", "ballad", "emotional", "indie folk", "singer-songwriter"}
	}
}
