// Package seeded derives reproducible random generators from request
// parameters, so two requests with identical logical inputs make identical
// sampling decisions.
package seeded

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
)

// RNG wraps a pseudo-random generator seeded purely from its inputs.
// It is not safe for concurrent use; one request owns one RNG.
type RNG struct {
	seed uint64
	r    *rand.Rand
}

// New concatenates the string forms of parts with a separator, hashes the
// result, and seeds the generator from the leading eight digest bytes.
// No time-based entropy is involved anywhere.
func New(parts ...any) *RNG {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	sum := sha256.Sum256([]byte(strings.Join(strs, "|")))
	seed := binary.BigEndian.Uint64(sum[:8])
	return &RNG{
		seed: seed,
		r:    rand.New(rand.NewSource(int64(seed))),
	}
}

// Seed exposes the derived seed for diagnostics.
func (g *RNG) Seed() uint64 { return g.seed }

// IntBetween returns a value in [lo, hi], inclusive on both ends.
func (g *RNG) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.r.Intn(hi-lo+1)
}

// Intn returns a value in [0, n).
func (g *RNG) Intn(n int) int { return g.r.Intn(n) }

// Shuffle pseudo-randomizes the order of n elements via swap.
func (g *RNG) Shuffle(n int, swap func(i, j int)) {
	g.r.Shuffle(n, swap)
}

// ShuffleStrings shuffles a string slice in place.
func (g *RNG) ShuffleStrings(s []string) {
	g.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
