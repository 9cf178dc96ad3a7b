package util

import (
	"math/rand"
	"sync"

	"github.com/fogleman/ease"
)

// RandomiseSaturation picks a value in [min, max) from r.
func RandomiseSaturation(r *rand.Rand, min float64, max float64) float64 {
	return r.Float64()*(max-min) + min
}

// GenerateLut builds a rise-then-fall pulse of the given length.
func GenerateLut(length int) []float64 {
	increment := 1.0 / float64(length/2)
	lut := make([]float64, length)
	for i, j := 0, length-1; i < length/2; i, j = i+1, j-1 {
		value := float64(i) * increment
		lut[i] = ease.InOutQuad(value)
		lut[j] = ease.InOutQuad(value)
	}
	return lut
}

// Memoizer caches look-up tables by length.
type Memoizer struct {
	mu     sync.Mutex
	pulses map[int][]float64
	glows  map[int][]float64
}

// NewMemoizer creates an empty Memoizer.
func NewMemoizer() *Memoizer {
	m := new(Memoizer)
	m.pulses = make(map[int][]float64)
	m.glows = make(map[int][]float64)
	return m
}

// GenerateLutMemoized returns GenerateLut(length), building it at most once.
func GenerateLutMemoized(length int, m *Memoizer) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lut, ok := m.pulses[length]; ok {
		return lut
	}
	lut := GenerateLut(length)
	m.pulses[length] = lut
	return lut
}

// Falloff returns radius+1 gains for pixels at distance 0..radius from a
// light source. The gain is 1 at the centre and eases down towards 0.
func (m *Memoizer) Falloff(radius int) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gains, ok := m.glows[radius]; ok {
		return gains
	}

	gains := make([]float64, radius+1)
	for d := 0; d <= radius; d++ {
		gains[d] = ease.InOutQuad(1.0 - float64(d)/float64(radius+1))
	}
	m.glows[radius] = gains
	return gains
}
