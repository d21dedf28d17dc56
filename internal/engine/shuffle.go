package engine

import (
	"hash/fnv"
	"math/rand"
)

// Shuffler is the injectable randomness seam spec.md §9 requires ("All
// shuffles must be injectable"). The default implementation seeds from
// (tournamentId, level, entity, roundLabel) so tests can pin the seed.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// SeededShuffler deterministically seeds per (tournamentId, roundLabel,
// entityId) as spec.md §4.3 "Ordering and tie-breaks" requires.
type SeededShuffler struct {
	rnd *rand.Rand
}

// NewSeededShuffler builds a shuffler seeded from the round's identity.
func NewSeededShuffler(tournamentID string, level string, entityID string, roundLabel string) *SeededShuffler {
	h := fnv.New64a()
	h.Write([]byte(tournamentID))
	h.Write([]byte{0})
	h.Write([]byte(level))
	h.Write([]byte{0})
	h.Write([]byte(entityID))
	h.Write([]byte{0})
	h.Write([]byte(roundLabel))
	seed := int64(h.Sum64())
	return &SeededShuffler{rnd: rand.New(rand.NewSource(seed))}
}

func (s *SeededShuffler) Shuffle(n int, swap func(i, j int)) {
	s.rnd.Shuffle(n, swap)
}

// ShufflePlayers shuffles a player slice in place using the given shuffler.
func ShufflePlayers[T any](s Shuffler, items []T) {
	s.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
