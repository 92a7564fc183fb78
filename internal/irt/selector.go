package irt

import (
	"math"
	"math/rand"
	"sync"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

// SelectionJitter is the half-width of the uniform noise added to each
// candidate's distance so that ties do not resolve to the same item
// every time.
const SelectionJitter = 0.1

// Selector picks the candidate item whose difficulty parameter sits
// closest to the student's ability estimate. One Selector is shared by
// all sessions; the mutex guards the rng, which is not safe for
// concurrent use.
type Selector struct {
	mu     sync.Mutex
	rng    *rand.Rand
	jitter float64
}

func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng, jitter: SelectionJitter}
}

// Select returns the candidate minimizing |theta - difficulty| plus a small
// uniform jitter, or nil when the candidate list is empty. Skill and
// exposure filtering happens before this call; Select only scores.
func (s *Selector) Select(candidates []models.Item, theta float64) *models.Item {
	var best *models.Item
	bestScore := math.Inf(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range candidates {
		item := &candidates[i]
		score := math.Abs(theta - item.Difficulty)
		if s.jitter > 0 {
			score += (s.rng.Float64()*2 - 1) * s.jitter
		}
		if score < bestScore {
			bestScore = score
			best = item
		}
	}

	return best
}
