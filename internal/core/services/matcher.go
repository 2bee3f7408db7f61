package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/domain"
	"github.com/haneul-labs/moodshift/internal/core/ports"
	"github.com/haneul-labs/moodshift/internal/core/seeded"
)

// Matcher verifies candidates against the playable catalog and
// deduplicates them by (artist, title) identity.
type Matcher struct {
	catalog     ports.CatalogSearch
	log         *logrus.Logger
	fanOut      int
	callTimeout time.Duration
}

// NewMatcher constructs a Matcher.
func NewMatcher(catalog ports.CatalogSearch, log *logrus.Logger) *Matcher {
	return &Matcher{
		catalog:     catalog,
		log:         log,
		fanOut:      defaultFanOut,
		callTimeout: defaultCallTime,
	}
}

// Match shuffles the pool with the request RNG, drops identity duplicates,
// and looks candidates up in the catalog in order-preserving batches until
// target matches accept. A failed lookup consumes its candidate without
// producing output; running out of candidates is not an error here.
func (m *Matcher) Match(ctx context.Context, rng *seeded.RNG, pool []domain.Candidate, target int) []domain.MatchedTrack {
	shuffled := append([]domain.Candidate(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	seen := make(map[domain.IdentityKey]struct{}, len(shuffled))
	queue := shuffled[:0]
	for _, c := range shuffled {
		key := c.Track.Identity()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		queue = append(queue, c)
	}

	out := make([]domain.MatchedTrack, 0, target)
	attempts := 0
	for start := 0; start < len(queue) && len(out) < target; start += m.fanOut {
		end := start + m.fanOut
		if end > len(queue) {
			end = len(queue)
		}
		batch := queue[start:end]
		attempts += len(batch)

		results := fetchEach(ctx, m.fanOut, m.callTimeout, batch, func(ctx context.Context, c domain.Candidate) (*domain.MatchedTrack, error) {
			mt, err := m.catalog.SearchByArtistTitle(ctx, c.Track.PrimaryArtist(), c.Track.Title)
			if err != nil {
				return nil, err
			}
			return &mt, nil
		})
		for _, r := range results {
			if r == nil || len(out) >= target {
				continue
			}
			out = append(out, *r)
		}
	}

	m.log.WithFields(logrus.Fields{
		"stage":    "catalog_match",
		"pool":     len(pool),
		"unique":   len(queue),
		"attempts": attempts,
		"matched":  len(out),
		"target":   target,
	}).Info("catalog matching done")
	return out
}
