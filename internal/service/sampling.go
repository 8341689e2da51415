package service

import (
	"math/rand"
	"sync"
	"time"
)

// QualitySampler decides whether a given submission triggers a background
// quality audit of its problem. It is injectable so tests can force
// deterministic triggering.
type QualitySampler interface {
	Sample() bool
}

// NewRandomSampler returns a sampler that fires with the given probability
// per call. Probability is clamped to [0, 1].
func NewRandomSampler(probability float64) QualitySampler {
	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}

	return &randomSampler{
		probability: probability,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type randomSampler struct {
	mu          sync.Mutex
	probability float64
	rng         *rand.Rand
}

func (s *randomSampler) Sample() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.probability
}
