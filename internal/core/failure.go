package core

import (
	"math/rand"
	"sync"
)

// FailurePolicy decides whether a mutation should fail artificially before it
// reaches storage. Used to rehearse client-side rollback paths against
// realistic error rates.
type FailurePolicy interface {
	// ShouldFail reports whether the named operation must be rejected.
	ShouldFail(operation string) bool
}

// NeverFail disables fault injection. The service default.
type NeverFail struct{}

func (NeverFail) ShouldFail(string) bool { return false }

// AlwaysFail rejects every mutation. Intended for tests.
type AlwaysFail struct{}

func (AlwaysFail) ShouldFail(string) bool { return true }

// RateFailure rejects mutations with the given probability.
type RateFailure struct {
	rate float64
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewRateFailure builds a policy failing with probability rate in [0,1].
// A nil source selects a time-seeded generator.
func NewRateFailure(rate float64, src rand.Source) *RateFailure {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	var rng *rand.Rand
	if src != nil {
		rng = rand.New(src)
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &RateFailure{rate: rate, rng: rng}
}

func (r *RateFailure) ShouldFail(string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < r.rate
}
