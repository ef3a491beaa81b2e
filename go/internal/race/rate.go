package race

import (
	"math/rand/v2"
	"sync"
)

// Bounds of the simulated generation rate, in Wh per second.
const (
	DefaultMinRate = 0.5
	DefaultMaxRate = 1.0
)

// RateProvider supplies the instantaneous generation rate for one tick.
type RateProvider interface {
	Rate() float64
}

// UniformRate draws each rate independently from [Min, Max).
type UniformRate struct {
	Min float64
	Max float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformRate creates a rate provider over [min, max). A nil rng uses the
// package-level generator.
func NewUniformRate(min, max float64, rng *rand.Rand) *UniformRate {
	return &UniformRate{Min: min, Max: max, rng: rng}
}

// Rate returns the next rate
func (u *UniformRate) Rate() float64 {
	var f float64
	if u.rng == nil {
		f = rand.Float64()
	} else {
		u.mu.Lock()
		f = u.rng.Float64()
		u.mu.Unlock()
	}
	return u.Min + f*(u.Max-u.Min)
}

// FixedRate always returns the same rate.
type FixedRate float64

// Rate returns r
func (r FixedRate) Rate() float64 { return float64(r) }

// SequenceRate replays a fixed list of rates, repeating the last one when exhausted.
type SequenceRate struct {
	mu    sync.Mutex
	rates []float64
	next  int
}

// NewSequenceRate creates a provider that returns rates in order
func NewSequenceRate(rates ...float64) *SequenceRate {
	return &SequenceRate{rates: rates}
}

// Rate returns the next rate in the sequence
func (s *SequenceRate) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rates) == 0 {
		return 0
	}
	r := s.rates[s.next]
	if s.next < len(s.rates)-1 {
		s.next++
	}
	return r
}

func randomBatteryLevel(int) int {
	return 70 + rand.IntN(30)
}
