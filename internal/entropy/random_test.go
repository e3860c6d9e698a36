package entropy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeededIsDeterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.Intn(7), b.Intn(7))
	}
	assert.Equal(t, 0, a.Intn(0))
}

func TestSequenceWraps(t *testing.T) {
	s := NewSequence(0.1, 0.9)
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.9, s.Float64())
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 9, s.Intn(10)) // 0.9 * 10
	assert.Equal(t, 0.0, NewSequence().Float64())
}

func TestWeighted(t *testing.T) {
	weights := []float64{70, 25, 5}

	assert.Equal(t, 0, Weighted(NewSequence(0.0), weights))
	assert.Equal(t, 0, Weighted(NewSequence(0.69), weights))
	assert.Equal(t, 1, Weighted(NewSequence(0.71), weights))
	assert.Equal(t, 2, Weighted(NewSequence(0.96), weights))
	assert.Equal(t, -1, Weighted(NewSequence(0.5), []float64{0, 0}))
	assert.Equal(t, 2, Weighted(NewSequence(0.1), []float64{0, -3, 1}))
}

func TestBetween(t *testing.T) {
	assert.Equal(t, 3, Between(NewSequence(0.0), 3, 12))
	assert.Equal(t, 12, Between(NewSequence(0.999), 3, 12))
	assert.Equal(t, 5, Between(NewSequence(0.4), 5, 5))
}

func TestCryptoFloatRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := CryptoFloat()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestThreatFieldRangeAndSmoothness(t *testing.T) {
	f := NewThreatField(7)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	prev := f.At(start)
	for i := 1; i <= 200; i++ {
		v := f.At(start.Add(time.Duration(i) * time.Minute))
		assert.GreaterOrEqual(t, v, 0.5)
		assert.LessOrEqual(t, v, 1.5)
		assert.InDelta(t, prev, v, 0.1, "one minute apart should be close")
		prev = v
	}

	var zero ThreatField
	assert.Equal(t, 1.0, zero.At(start))
}
