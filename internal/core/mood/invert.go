package mood

// Axis names reported by the inversion engine.
const (
	AxisSeason          = "season"
	AxisTimeOfDay       = "time_of_day"
	AxisActivity        = "activity"
	AxisSentiment       = "sentiment"
	AxisValence         = "valence"
	AxisActivityLevel   = "activity_level"
	AxisEnergy          = "energy"
	AxisCulture         = "culture"
	AxisInstrumentation = "instrumentation"
	AxisDefault         = "default"
)

// maxAntonymTags caps the replacement tag list.
const maxAntonymTags = 8

// Inversion is the outcome of inverting an observed tag multiset.
type Inversion struct {
	Axis      string
	Tags      []string
	Rationale string
}

// dominantPole returns the highest-scoring pole from poles, walking the
// declared order so ties resolve to the earlier entry.
func dominantPole(scores map[string]int, poles []string) (string, int) {
	best, bestScore := poles[0], scores[poles[0]]
	for _, p := range poles[1:] {
		if scores[p] > bestScore {
			best, bestScore = p, scores[p]
		}
	}
	return best, bestScore
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// Invert decides the single dominant mood characteristic of the observed
// tags and returns a curated antonym tag set for it. The cascade is
// priority-ordered, most specific axis first; the first axis whose score
// clears its threshold wins regardless of magnitude elsewhere. The culture
// axis deliberately uses a lower threshold, its signal being rarer. The
// default branch always fires on empty or mixed input, so the result is
// never empty. Deterministic; any shuffling of the result belongs to the
// caller.
func Invert(rawTags []string) Inversion {
	tags := NormalizeTags(rawTags)
	scores := ScoreAxes(tags)
	applyGenreHints(tags, scores)

	// 1. Season.
	if pole, n := dominantPole(scores, []string{PoleSummer, PoleWinter, PoleSpring, PoleAutumn}); n >= 2 {
		switch pole {
		case PoleSummer:
			return inversion(AxisSeason, "summer mood, steering to winter calm",
				"winter", "cold", "cozy", "calm", "acoustic", "piano", "mellow", "warm")
		case PoleWinter:
			return inversion(AxisSeason, "winter mood, steering to summer energy",
				"summer", "tropical", "beach", "upbeat", "sunny", "dance", "energetic", "fun")
		case PoleSpring:
			return inversion(AxisSeason, "spring mood, steering to autumn warmth",
				"autumn", "mellow", "nostalgic", "contemplative", "jazz", "folk")
		default:
			return inversion(AxisSeason, "autumn mood, steering to spring brightness",
				"spring", "fresh", "bright", "cheerful", "uplifting", "new")
		}
	}

	// 2. Time of day.
	if pole, n := dominantPole(scores, []string{PoleMorning, PoleNight, PoleEvening}); n >= 2 {
		switch pole {
		case PoleMorning:
			return inversion(AxisTimeOfDay, "morning mood, steering to night",
				"night", "midnight", "dreamy", "mysterious", "dark", "ambient")
		case PoleNight:
			return inversion(AxisTimeOfDay, "night mood, steering to morning",
				"morning", "fresh", "energizing", "bright", "upbeat", "wake up")
		default:
			return inversion(AxisTimeOfDay, "evening mood, steering to daytime",
				"daytime", "energetic", "active", "bright", "uplifting")
		}
	}

	// 3. Activity.
	if pole, n := dominantPole(scores, []string{PoleWorkout, PoleStudy, PoleSleep, PoleParty}); n >= 2 {
		switch pole {
		case PoleWorkout:
			return inversion(AxisActivity, "workout music, steering to rest",
				"sleep", "relaxing", "calm", "peaceful", "ambient", "soft")
		case PoleStudy:
			return inversion(AxisActivity, "study music, steering to party",
				"party", "dance", "fun", "energetic", "upbeat", "club")
		case PoleSleep:
			return inversion(AxisActivity, "sleep music, steering to workout",
				"workout", "energetic", "power", "intense", "motivation", "rock")
		default:
			return inversion(AxisActivity, "party music, steering to focus",
				"study", "focus", "calm", "peaceful", "instrumental", "background")
		}
	}

	// 4. Sentiment style.
	if pole, n := dominantPole(scores, []string{PoleRomantic, PoleNostalgic, PoleDreamy, PoleIntense}); n >= 2 {
		switch pole {
		case PoleRomantic:
			return inversion(AxisSentiment, "romantic mood, steering to intensity",
				"intense", "powerful", "aggressive", "rock", "metal", "dramatic")
		case PoleNostalgic:
			return inversion(AxisSentiment, "nostalgic mood, steering to modern sounds",
				"modern", "electronic", "edm", "futuristic", "techno", "progressive")
		case PoleDreamy:
			return inversion(AxisSentiment, "dreamy mood, steering to raw directness",
				"raw", "realistic", "rock", "punk", "aggressive", "direct")
		default:
			return inversion(AxisSentiment, "intense mood, steering to softness",
				"soft", "gentle", "calm", "peaceful", "mellow", "smooth")
		}
	}

	// 5. Valence.
	if absDiff(scores[PoleBright], scores[PoleDark]) >= 2 {
		if scores[PoleBright] > scores[PoleDark] {
			return inversion(AxisValence, "bright mood, steering dark",
				"sad", "melancholy", "dark", "emotional", "depressing", "somber")
		}
		return inversion(AxisValence, "dark mood, steering bright",
			"happy", "upbeat", "cheerful", "positive", "uplifting", "joyful")
	}

	// 6. Activity level.
	if absDiff(scores[PoleDanceable], scores[PoleCalm]) >= 2 {
		if scores[PoleDanceable] > scores[PoleCalm] {
			return inversion(AxisActivityLevel, "danceable mood, steering calm",
				"acoustic", "piano", "ballad", "soft", "calm", "peaceful")
		}
		return inversion(AxisActivityLevel, "calm mood, steering danceable",
			"dance", "party", "energetic", "upbeat", "edm", "house")
	}

	// 7. Energy.
	if absDiff(scores[PoleHighEnergy], scores[PoleLowEnergy]) >= 2 {
		if scores[PoleHighEnergy] > scores[PoleLowEnergy] {
			return inversion(AxisEnergy, "high energy, steering low",
				"ambient", "chillout", "downtempo", "relaxing", "meditation")
		}
		return inversion(AxisEnergy, "low energy, steering high",
			"rock", "energetic", "powerful", "intense", "metal")
	}

	// 8. Culture. Threshold of 1: the signal is rarer than mood words.
	if pole, n := dominantPole(scores, []string{PoleKPop, PoleJPop, PoleLatin, PoleHipHop}); n >= 1 {
		switch pole {
		case PoleKPop:
			return inversion(AxisCulture, "k-pop, steering to western indie",
				"indie", "alternative", "rock", "folk", "singer-songwriter")
		case PoleJPop:
			return inversion(AxisCulture, "j-pop, steering to western pop",
				"pop", "dance", "edm", "house", "western")
		case PoleLatin:
			return inversion(AxisCulture, "latin, steering to nordic calm",
				"nordic", "calm", "folk", "acoustic", "mellow")
		default:
			return inversion(AxisCulture, "hip-hop, steering to acoustic and classical",
				"acoustic", "classical", "folk", "piano", "strings")
		}
	}

	// 9. Instrumentation.
	if absDiff(scores[PoleVocal], scores[PoleInstrumental]) >= 2 {
		if scores[PoleVocal] > scores[PoleInstrumental] {
			return inversion(AxisInstrumentation, "vocal-centric, steering instrumental",
				"instrumental", "beats", "orchestral", "electronic", "ambient")
		}
		return inversion(AxisInstrumentation, "instrumental, steering vocal",
			"vocal", "singing", "pop", "ballad", "choir")
	}

	// 10. Default: no axis dominated.
	for _, marker := range []string{"pop", "hip-hop", "hip hop", "rap"} {
		if _, ok := tags[marker]; ok {
			return inversion(AxisDefault, "mixed mainstream mood, defaulting to energetic",
				"dance", "edm", "house", "party", "energetic")
		}
	}
	return inversion(AxisDefault, "mixed mood, defaulting to calm melancholy",
		"sad", "melancholy", "acoustic", "piano", "ballad")
}

func inversion(axis, rationale string, tags ...string) Inversion {
	if len(tags) > maxAntonymTags {
		tags = tags[:maxAntonymTags]
	}
	return Inversion{Axis: axis, Tags: tags, Rationale: rationale}
}
