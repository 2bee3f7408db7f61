// Package mood holds the hand-built taxonomy of mood axes and the tag
// inversion engine that drives "opposite mood" recommendations.
package mood

import "strings"

// Pole names. Each axis has one or more poles; a pole is defined by a set
// of representative tags and scored by intersection size.
const (
	PoleBright       = "bright"
	PoleDark         = "dark"
	PoleHighEnergy   = "high_energy"
	PoleLowEnergy    = "low_energy"
	PoleDanceable    = "danceable"
	PoleCalm         = "calm"
	PoleMainstream   = "mainstream"
	PoleAlternative  = "alternative"
	PoleSummer       = "summer"
	PoleWinter       = "winter"
	PoleSpring       = "spring"
	PoleAutumn       = "autumn"
	PoleMorning      = "morning"
	PoleNight        = "night"
	PoleEvening      = "evening"
	PoleWorkout      = "workout"
	PoleStudy        = "study"
	PoleSleep        = "sleep"
	PoleParty        = "party"
	PoleRomantic     = "romantic"
	PoleNostalgic    = "nostalgic"
	PoleDreamy       = "dreamy"
	PoleIntense      = "intense"
	PoleKPop         = "kpop"
	PoleJPop         = "jpop"
	PoleLatin        = "latin"
	PoleHipHop       = "hiphop"
	PoleVocal        = "vocal"
	PoleInstrumental = "instrumental"
)

func tagSet(tags ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Valence axis.
var (
	brightTags = tagSet("happy", "upbeat", "cheerful", "fun", "party", "energetic", "positive", "uplifting", "feel good", "joyful", "euphoric")
	darkTags   = tagSet("sad", "melancholy", "depressing", "dark", "gloomy", "somber", "emotional", "tearjerker", "heartbreak", "lonely", "moody", "melancholic")
)

// Energy axis.
var (
	highEnergyTags = tagSet("rock", "metal", "punk", "hardcore", "aggressive", "intense", "heavy", "hard rock", "energetic", "powerful", "explosive")
	lowEnergyTags  = tagSet("ambient", "chillout", "downtempo", "sleep", "meditation", "peaceful", "tranquil", "slow", "calm", "relaxing", "soothing")
)

// Activity-level axis.
var (
	danceableTags = tagSet("dance", "edm", "house", "techno", "electro", "club", "disco", "electronic dance", "party", "upbeat", "groove")
	calmTags      = tagSet("acoustic", "piano", "classical", "jazz", "folk", "ballad", "soft", "gentle", "mellow", "chill", "smooth")
)

// Formality axis. Scored for completeness; the inversion cascade only
// consults the raw mainstream markers in its default branch.
var (
	mainstreamTags  = tagSet("pop", "top 40", "chart", "radio", "mainstream", "commercial", "popular")
	alternativeTags = tagSet("indie", "alternative", "experimental", "underground", "art rock", "avant-garde", "progressive")
)

// Season axis.
var (
	summerTags = tagSet("summer", "tropical", "beach", "sunshine", "vacation", "hot", "sunny", "reggae", "latin", "caribbean", "island")
	winterTags = tagSet("winter", "cold", "snow", "christmas", "cozy", "warm", "fireplace", "melancholic", "nostalgic")
	springTags = tagSet("spring", "fresh", "blossom", "renewal", "light", "cheerful", "bright", "new beginning")
	autumnTags = tagSet("autumn", "fall", "mellow", "nostalgic", "rainy", "contemplative", "introspective", "cozy")
)

// Time-of-day axis.
var (
	morningTags = tagSet("morning", "wake up", "sunrise", "fresh", "energizing", "coffee", "starting", "bright")
	nightTags   = tagSet("night", "midnight", "nocturnal", "dreamy", "mysterious", "late night", "moonlight", "starry")
	eveningTags = tagSet("evening", "sunset", "twilight", "romantic", "dinner", "wine", "mellow", "golden hour")
)

// Activity axis.
var (
	workoutTags = tagSet("workout", "gym", "running", "exercise", "training", "fitness", "motivation", "power")
	studyTags   = tagSet("study", "focus", "concentration", "work", "productive", "reading", "background", "instrumental")
	sleepTags   = tagSet("sleep", "lullaby", "bedtime", "rest", "peaceful", "quiet", "serene", "dreamy")
	partyTags   = tagSet("party", "celebration", "social", "fun", "festive", "drinking", "club", "dance")
)

// Sentiment-style axis.
var (
	romanticTags  = tagSet("romantic", "love", "sweet", "tender", "intimate", "passionate", "sensual", "loving")
	nostalgicTags = tagSet("nostalgic", "memories", "throwback", "retro", "vintage", "old school", "reminiscent", "sentimental")
	dreamyTags    = tagSet("dreamy", "ethereal", "atmospheric", "floating", "surreal", "psychedelic", "spacey", "hypnotic")
	intenseTags   = tagSet("intense", "dramatic", "epic", "powerful", "emotional", "passionate", "raw", "visceral")
)

// Culture axis.
var (
	kpopTags   = tagSet("k-pop", "kpop", "korean", "idol", "korean pop")
	jpopTags   = tagSet("j-pop", "jpop", "japanese", "anime", "japanese pop")
	latinTags  = tagSet("latin", "spanish", "salsa", "reggaeton", "bachata", "brazilian", "samba")
	hiphopTags = tagSet("hip-hop", "hip hop", "rap", "trap", "underground rap", "boom bap")
)

// Instrumentation axis.
var (
	vocalTags        = tagSet("vocal", "singing", "acapella", "choir", "voices", "harmonies")
	instrumentalTags = tagSet("instrumental", "no vocals", "orchestral", "symphony", "beats", "background")
)

var poleTags = map[string]map[string]struct{}{
	PoleBright:       brightTags,
	PoleDark:         darkTags,
	PoleHighEnergy:   highEnergyTags,
	PoleLowEnergy:    lowEnergyTags,
	PoleDanceable:    danceableTags,
	PoleCalm:         calmTags,
	PoleMainstream:   mainstreamTags,
	PoleAlternative:  alternativeTags,
	PoleSummer:       summerTags,
	PoleWinter:       winterTags,
	PoleSpring:       springTags,
	PoleAutumn:       autumnTags,
	PoleMorning:      morningTags,
	PoleNight:        nightTags,
	PoleEvening:      eveningTags,
	PoleWorkout:      workoutTags,
	PoleStudy:        studyTags,
	PoleSleep:        sleepTags,
	PoleParty:        partyTags,
	PoleRomantic:     romanticTags,
	PoleNostalgic:    nostalgicTags,
	PoleDreamy:       dreamyTags,
	PoleIntense:      intenseTags,
	PoleKPop:         kpopTags,
	PoleJPop:         jpopTags,
	PoleLatin:        latinTags,
	PoleHipHop:       hiphopTags,
	PoleVocal:        vocalTags,
	PoleInstrumental: instrumentalTags,
}

// genreMood maps known genre names to a coarse mood, used to add weight
// when explicit mood tags are sparse.
var genreMood = map[string]string{
	"rnb": "calm", "r&b": "calm", "soul": "calm", "neo-soul": "calm",
	"lo-fi": "calm", "lofi": "calm", "chillhop": "calm",
	"singer-songwriter": "calm", "indie folk": "calm",
	"trip-hop": "calm", "downtempo": "calm",

	"house": "energetic", "techno": "energetic", "trance": "energetic",
	"drum and bass": "energetic", "dubstep": "energetic",
	"hardstyle": "energetic", "big room": "energetic",

	"emo": "dark", "gothic": "dark", "doom": "dark",
	"trap": "dark",

	"bubblegum pop": "bright", "k-pop": "bright", "j-pop": "bright",
	"disco": "bright", "funk": "bright",
}

// NormalizeTags lowercases a tag multiset into a deduplicated set.
func NormalizeTags(tags []string) map[string]struct{} {
	s := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// ScoreAxes counts, per pole, how many of the observed tags belong to that
// pole's defining set. Unknown tags contribute nothing; the result is
// defined for any input.
func ScoreAxes(tags map[string]struct{}) map[string]int {
	scores := make(map[string]int, len(poleTags))
	for pole, defined := range poleTags {
		n := 0
		for t := range tags {
			if _, ok := defined[t]; ok {
				n++
			}
		}
		scores[pole] = n
	}
	return scores
}

// applyGenreHints folds the genre lookup into the four coarse poles the
// hints map onto. Only fires when at least one genre matched.
func applyGenreHints(tags map[string]struct{}, scores map[string]int) {
	hints := map[string]int{"calm": 0, "energetic": 0, "dark": 0, "bright": 0}
	any := false
	for t := range tags {
		if m, ok := genreMood[t]; ok {
			hints[m]++
			any = true
		}
	}
	if !any {
		return
	}
	scores[PoleCalm] += hints["calm"]
	scores[PoleDanceable] += hints["energetic"]
	scores[PoleDark] += hints["dark"]
	scores[PoleBright] += hints["bright"]
}
