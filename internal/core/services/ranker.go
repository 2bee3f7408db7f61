package services

import (
	"sort"
	"strings"

	"github.com/haneul-labs/moodshift/internal/core/domain"
)

// Scoring weights and the per-artist diversity cap for ranked output.
const (
	affinityWeight   = 1.0
	popularityWeight = 0.2
	titleSimWeight   = 0.1
	maxPerArtist     = 2
)

// titleTokens splits a title into lowercase words longer than one rune.
func titleTokens(s string) map[string]struct{} {
	cleaned := strings.ReplaceAll(strings.ToLower(s), ",", " ")
	out := make(map[string]struct{})
	for _, w := range strings.Fields(cleaned) {
		if len(w) > 1 {
			out[w] = struct{}{}
		}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	if inter == 0 {
		return 0
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// RankBySimilarity scores candidates against the user's recent-listen
// metadata and greedily selects up to take tracks, admitting at most two
// per artist. Ordering is stable, so equal scores keep candidate order and
// the selection stays deterministic.
func RankBySimilarity(candidates, userTracks []domain.TrackInfo, take int) []domain.ScoredCandidate {
	if len(candidates) == 0 || len(userTracks) == 0 {
		return nil
	}

	userArtists := make(map[string]struct{}, len(userTracks))
	userTitles := make([]map[string]struct{}, 0, len(userTracks))
	for _, u := range userTracks {
		if u.Artists != "" {
			userArtists[u.Artists] = struct{}{}
		}
		if toks := titleTokens(u.Title); len(toks) > 0 {
			userTitles = append(userTitles, toks)
		}
	}

	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		pop := float64(c.Popularity) / 100.0
		if pop < 0 {
			pop = 0
		} else if pop > 1 {
			pop = 1
		}

		affinity := 0.0
		if _, ok := userArtists[c.Artists]; ok {
			affinity = 1.0
		}

		titleSim := 0.0
		candToks := titleTokens(c.Title)
		for _, utoks := range userTitles {
			if s := jaccard(candToks, utoks); s > titleSim {
				titleSim = s
			}
		}

		scored = append(scored, domain.ScoredCandidate{
			Track: c,
			Score: affinityWeight*affinity + popularityWeight*pop + titleSimWeight*titleSim,
			Components: domain.ScoreComponents{
				Affinity:        affinity,
				Popularity:      pop,
				TitleSimilarity: titleSim,
			},
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	picked := make([]domain.ScoredCandidate, 0, take)
	perArtist := make(map[string]int)
	for _, s := range scored {
		if perArtist[s.Track.Artists] >= maxPerArtist {
			continue
		}
		picked = append(picked, s)
		perArtist[s.Track.Artists]++
		if len(picked) >= take {
			break
		}
	}
	return picked
}
