package entropy

import (
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// ThreatField is a smooth pressure curve over time. Neighbouring instants get
// similar values so incidents cluster into rough and quiet stretches instead
// of arriving as independent coin flips.
type ThreatField struct {
	noise opensimplex.Noise
}

// NewThreatField creates the field for one vault.
func NewThreatField(seed int64) ThreatField {
	return ThreatField{noise: opensimplex.NewNormalized(seed)}
}

// At returns the pressure multiplier in [0.5, 1.5] at t.
func (f ThreatField) At(t time.Time) float64 {
	if f.noise == nil {
		return 1.0
	}
	days := float64(t.Unix()) / 86400.0
	v := octaveNoise(f.noise, days, 0.5, 3, 4.0, 0.5)
	return 0.5 + clamp01(v)
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
