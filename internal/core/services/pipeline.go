package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/domain"
	"github.com/haneul-labs/moodshift/internal/core/mood"
	"github.com/haneul-labs/moodshift/internal/core/ports"
	"github.com/haneul-labs/moodshift/internal/core/seeded"
)

const (
	maxSeedExtract   = 200
	maxSeedPairs     = 10
	similarPerSeed   = 50
	tagTracksLimit   = 50
	supplementLimit  = 40
	fallbackLimit    = 60
	minSimilarPool   = 10
	supplementTarget = 30
	defaultLimit     = 24
	maxLimit         = 100
	defaultFanOut    = 6
	defaultCallTime  = 15 * time.Second
)

// supplementTags backs the similar-mode supplementation tier.
var supplementTags = []string{"k-pop", "korean", "pop", "indie", "ballad"}

// fallbackBaseTags feed the no-seed tier in similar mode.
var fallbackBaseTags = []string{"pop", "rock", "indie", "k-pop", "dance", "chill", "house", "hip-hop", "ambient", "metal"}

// fallbackInvertedTags feed the no-seed tier in inverted mode.
var fallbackInvertedTags = []string{"ambient", "sad", "lofi"}

// Pipeline orchestrates candidate collection and cross-catalog matching.
// Every sampling decision comes from the request-scoped seeded RNG, so a
// request is a pure function of (playlist id, mode, variant) given fixed
// collaborator responses.
type Pipeline struct {
	seeds       ports.SeedSource
	tags        ports.TagLookup
	matcher     *Matcher
	log         *logrus.Logger
	fanOut      int
	callTimeout time.Duration
}

// NewPipeline constructs the collection pipeline.
func NewPipeline(seeds ports.SeedSource, tags ports.TagLookup, matcher *Matcher, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		seeds:       seeds,
		tags:        tags,
		matcher:     matcher,
		log:         log,
		fanOut:      defaultFanOut,
		callTimeout: defaultCallTime,
	}
}

// PipelineRequest describes one recommendation run.
type PipelineRequest struct {
	PlaylistID   string
	PlaylistName string
	Mode         domain.Mode
	Limit        int
	Variant      int
}

// PipelineResult is the verified, deduplicated output.
type PipelineResult struct {
	Tracks    []domain.MatchedTrack
	UsedTags  []string
	SeedCount int
	PoolSize  int
}

func modeKey(m domain.Mode) string {
	if m == domain.ModeInverted {
		return "inv"
	}
	return "sim"
}

// Recommend runs seed extraction, mode-specific collection with tiered
// fallback, and catalog matching. It fails only when the matched result is
// empty after every tier.
func (p *Pipeline) Recommend(ctx context.Context, req PipelineRequest) (PipelineResult, error) {
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}
	rng := seeded.New(req.PlaylistID, modeKey(req.Mode), req.Variant)

	seedPairs := p.selectSeeds(ctx, rng, req.PlaylistID)
	p.log.WithFields(logrus.Fields{
		"stage":    "seed_selection",
		"playlist": req.PlaylistID,
		"mode":     req.Mode,
		"seeds":    len(seedPairs),
		"rng_seed": rng.Seed(),
	}).Info("seed pairs selected")

	var collected []domain.Candidate
	var usedTags []string
	switch {
	case len(seedPairs) == 0:
		collected, usedTags = p.collectFallback(ctx, rng, req.Mode)
	case req.Mode == domain.ModeInverted:
		collected, usedTags = p.collectInverted(ctx, rng, seedPairs, req.PlaylistName)
	default:
		collected, usedTags = p.collectSimilar(ctx, rng, seedPairs)
	}

	p.log.WithFields(logrus.Fields{
		"stage": "collection",
		"pool":  len(collected),
		"tags":  usedTags,
	}).Info("candidate pool collected")

	matched := p.matcher.Match(ctx, rng, collected, req.Limit)
	if len(matched) == 0 {
		return PipelineResult{}, domain.ErrEmptyResult
	}
	return PipelineResult{
		Tracks:    matched,
		UsedTags:  usedTags,
		SeedCount: len(seedPairs),
		PoolSize:  len(collected),
	}, nil
}

// selectSeeds extracts up to ten seed pairs, shuffles them, and keeps a
// random subset of 3-6. Extraction failures collapse to no seeds.
func (p *Pipeline) selectSeeds(ctx context.Context, rng *seeded.RNG, playlistID string) []domain.TrackRef {
	refs, err := p.seeds.PlaylistTrackPairs(ctx, playlistID, maxSeedExtract)
	if err != nil {
		p.log.WithError(err).WithField("playlist", playlistID).Warn("seed extraction failed, continuing without seeds")
		refs = nil
	}
	pairs := make([]domain.TrackRef, 0, maxSeedPairs)
	for _, r := range refs {
		if r.Title == "" || len(r.Artists) == 0 {
			continue
		}
		pairs = append(pairs, r)
		if len(pairs) == maxSeedPairs {
			break
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	rng.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
	n := rng.IntBetween(3, 6)
	if n > len(pairs) {
		n = len(pairs)
	}
	return pairs[:n]
}

// collectSimilar queries similar tracks per seed, then supplements from
// generic genre tags when the pool stays thin.
func (p *Pipeline) collectSimilar(ctx context.Context, rng *seeded.RNG, seedPairs []domain.TrackRef) ([]domain.Candidate, []string) {
	usedTags := p.seedTagSummary(ctx, seedPairs)

	simLists := fetchEach(ctx, p.fanOut, p.callTimeout, seedPairs, func(ctx context.Context, s domain.TrackRef) ([]domain.TrackRef, error) {
		return p.tags.SimilarTracks(ctx, s.PrimaryArtist(), s.Title, similarPerSeed)
	})

	var collected []domain.Candidate
	hits := 0
	for _, list := range simLists {
		if len(list) == 0 {
			continue
		}
		hits++
		take := rng.IntBetween(10, 20)
		collected = appendSlice(collected, rng, list, take, domain.ProvenanceSimilar)
	}
	p.log.WithFields(logrus.Fields{
		"stage": "similar_tracks",
		"hits":  hits,
		"seeds": len(seedPairs),
		"pool":  len(collected),
	}).Info("similar-track queries done")

	if len(collected) >= minSimilarPool {
		return collected, usedTags
	}

	// Supplementation tier: thin pool, widen with generic genre tags.
	supp := append([]string(nil), supplementTags...)
	rng.ShuffleStrings(supp)
	if len(supp) > 3 {
		supp = supp[:3]
	}
	tagLists := fetchEach(ctx, p.fanOut, p.callTimeout, supp, func(ctx context.Context, tag string) ([]domain.TrackRef, error) {
		return p.tags.TopTracksByTag(ctx, tag, supplementLimit)
	})
	for _, list := range tagLists {
		if len(list) == 0 {
			continue
		}
		take := rng.IntBetween(15, 25)
		collected = appendSlice(collected, rng, list, take, domain.ProvenanceSupplement)
		if len(collected) >= supplementTarget {
			break
		}
	}
	p.log.WithFields(logrus.Fields{
		"stage": "supplement",
		"pool":  len(collected),
	}).Info("supplementation tier done")
	return collected, usedTags
}

// collectInverted merges seed tags (plus context-inferred tags, weighted
// three-fold), inverts the dominant mood, and queries tracks per chosen
// antonym tag. When no tags surface at all it falls back to keyword
// inference over the context name.
func (p *Pipeline) collectInverted(ctx context.Context, rng *seeded.RNG, seedPairs []domain.TrackRef, contextName string) ([]domain.Candidate, []string) {
	tags := make([]string, 0, 64)
	if inferred := inferContextTags(contextName); len(inferred) > 0 {
		for i := 0; i < 3; i++ {
			tags = append(tags, inferred...)
		}
		p.log.WithFields(logrus.Fields{
			"stage":    "context_inference",
			"context":  contextName,
			"inferred": inferred,
		}).Info("context tags inferred from display name")
	}

	tagLists := fetchEach(ctx, p.fanOut, p.callTimeout, seedPairs, func(ctx context.Context, s domain.TrackRef) ([]string, error) {
		return p.tags.TopTagsForTrack(ctx, s.PrimaryArtist(), s.Title)
	})
	hits := 0
	for _, list := range tagLists {
		if len(list) > 0 {
			hits++
			tags = append(tags, list...)
		}
	}
	p.log.WithFields(logrus.Fields{
		"stage": "seed_tags",
		"hits":  hits,
		"seeds": len(seedPairs),
		"tags":  len(tags),
	}).Info("seed tag queries done")

	if len(tags) > 0 {
		inv := mood.Invert(tags)
		p.log.WithFields(logrus.Fields{
			"stage":     "inversion",
			"axis":      inv.Axis,
			"rationale": inv.Rationale,
			"antonyms":  inv.Tags,
		}).Info("tag set inverted")

		opp := append([]string(nil), inv.Tags...)
		rng.ShuffleStrings(opp)
		k := rng.IntBetween(3, 5)
		if k > len(opp) {
			k = len(opp)
		}
		chosen := opp[:k]
		return p.collectByTags(ctx, rng, chosen, tagTracksLimit, 10, 20, domain.ProvenanceTagSearch), chosen
	}

	// Keyword-inference tier: no tag data anywhere, steer from the
	// context name alone with wider slices.
	alt := alternativeTagsFor(contextName)
	rng.ShuffleStrings(alt)
	k := rng.IntBetween(4, 6)
	if k > len(alt) {
		k = len(alt)
	}
	chosen := alt[:k]
	p.log.WithFields(logrus.Fields{
		"stage":   "keyword_inference",
		"context": contextName,
		"tags":    chosen,
	}).Info("no seed tags found, inferring from context keywords")
	return p.collectByTags(ctx, rng, chosen, fallbackLimit, 12, 20, domain.ProvenanceTagSearch), chosen
}

// collectFallback handles the no-seed case with a fixed, mode-specific
// base tag list.
func (p *Pipeline) collectFallback(ctx context.Context, rng *seeded.RNG, m domain.Mode) ([]domain.Candidate, []string) {
	base := append([]string(nil), fallbackBaseTags...)
	rng.ShuffleStrings(base)
	src := base
	if m == domain.ModeInverted {
		src = append([]string(nil), fallbackInvertedTags...)
	}
	k := rng.IntBetween(3, 5)
	if k > len(src) {
		k = len(src)
	}
	chosen := src[:k]
	p.log.WithFields(logrus.Fields{
		"stage": "no_seed_fallback",
		"mode":  m,
		"tags":  chosen,
	}).Info("no seeds available, using base tags")
	return p.collectByTags(ctx, rng, chosen, fallbackLimit, 12, 24, domain.ProvenanceFallback), chosen
}

// collectByTags queries top tracks per tag concurrently and slices each
// result with the RNG in tag order.
func (p *Pipeline) collectByTags(ctx context.Context, rng *seeded.RNG, tags []string, limit, sliceLo, sliceHi int, prov domain.Provenance) []domain.Candidate {
	lists := fetchEach(ctx, p.fanOut, p.callTimeout, tags, func(ctx context.Context, tag string) ([]domain.TrackRef, error) {
		return p.tags.TopTracksByTag(ctx, tag, limit)
	})
	var collected []domain.Candidate
	for _, list := range lists {
		if len(list) == 0 {
			continue
		}
		take := rng.IntBetween(sliceLo, sliceHi)
		collected = appendSlice(collected, rng, list, take, prov)
	}
	return collected
}

// appendSlice shuffles list and appends up to take entries as candidates.
func appendSlice(dst []domain.Candidate, rng *seeded.RNG, list []domain.TrackRef, take int, prov domain.Provenance) []domain.Candidate {
	rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
	if take > len(list) {
		take = len(list)
	}
	for _, r := range list[:take] {
		dst = append(dst, domain.Candidate{Track: r, Provenance: prov})
	}
	return dst
}

// seedTagSummary gathers tags for the first three seeds (five per seed)
// and reports the five most frequent, for diagnostics only.
func (p *Pipeline) seedTagSummary(ctx context.Context, seedPairs []domain.TrackRef) []string {
	probe := seedPairs
	if len(probe) > 3 {
		probe = probe[:3]
	}
	lists := fetchEach(ctx, p.fanOut, p.callTimeout, probe, func(ctx context.Context, s domain.TrackRef) ([]string, error) {
		return p.tags.TopTagsForTrack(ctx, s.PrimaryArtist(), s.Title)
	})
	counts := make(map[string]int)
	var order []string
	for _, list := range lists {
		if len(list) > 5 {
			list = list[:5]
		}
		for _, t := range list {
			t = strings.ToLower(t)
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	// Most frequent first; first-seen order breaks ties.
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 5 {
		order = order[:5]
	}
	return order
}
