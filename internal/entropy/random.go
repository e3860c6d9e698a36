// Package entropy provides the random sources behind weighted outcomes:
// seeded generators for ticks, crypto seeds, fixed sequences for tests,
// and a smooth noise field for incident pressure.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// Source produces uniform random numbers.
type Source interface {
	Float64() float64 // [0, 1)
	Intn(n int) int   // [0, n)
}

// Seeded is a deterministic source. Not safe for concurrent use; each vault
// tick gets its own.
type Seeded struct {
	rng *mrand.Rand
}

// NewSeeded creates a deterministic source from seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

func (s *Seeded) Float64() float64 { return s.rng.Float64() }

func (s *Seeded) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.Intn(n)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewCryptoSeeded returns a Seeded source with a crypto seed, falling back to
// a fixed seed if the system source fails.
func NewCryptoSeeded() *Seeded {
	seed, err := NewSeed()
	if err != nil {
		seed = 0x5eed
	}
	return NewSeeded(seed)
}

// CryptoFloat returns a random float64 in [0, 1) from crypto/rand.
func CryptoFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	// 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Sequence replays fixed values in order, wrapping around. Intn maps the
// next value onto [0, n).
type Sequence struct {
	values []float64
	next   int
}

// NewSequence creates a replaying source. With no values it always yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Weighted picks an index with probability proportional to its weight.
// Negative weights count as zero. Returns -1 when all weights are zero.
func Weighted(src Source, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	roll := src.Float64() * total
	current := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		current += w
		last = i
		if roll < current {
			return i
		}
	}
	return last
}

// Between returns a uniform integer in [lo, hi].
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}
