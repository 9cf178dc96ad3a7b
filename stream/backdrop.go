package stream

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledrace/race"
	"github.com/matt-g-everett/ledrace/util"
)

const backdropPulseLength = 48

type sparkle struct {
	phase int
	peak  float64
}

// A Backdrop is an Animation that shows the empty lanes with a few
// particles twinkling on them. It is shown while the race fades in.
type Backdrop struct {
	track     *Track
	lut       []float64
	highlight colorful.Color
	particles map[int]sparkle
}

// NewBackdrop scatters numParticles twinkling particles over the lanes of
// track. The same seed always gives the same backdrop.
func NewBackdrop(track *Track, numParticles int, seed int64, memoizer *util.Memoizer) *Backdrop {
	b := new(Backdrop)
	b.track = track
	b.lut = util.GenerateLutMemoized(backdropPulseLength, memoizer)
	b.highlight, _ = colorful.Hex("#404040")
	b.particles = make(map[int]sparkle)

	r := rand.New(rand.NewSource(seed))
	for i := 0; i < numParticles; i++ {
		l := track.lanes[r.Intn(len(track.lanes))]
		pixel := l.start + r.Intn(l.length)
		b.particles[pixel] = sparkle{
			phase: r.Intn(len(b.lut)),
			peak:  util.RandomiseSaturation(r, 0.3, 0.8),
		}
	}

	return b
}

// CalculateFrame creates a new Frame instance.
func (b *Backdrop) CalculateFrame(frameIndex int, states []race.FrameState) *Frame {
	f := b.track.paintLanes()
	for pixel, s := range b.particles {
		gain := b.lut[(frameIndex+s.phase)%len(b.lut)] * s.peak
		f.pixels[pixel] = f.pixels[pixel].BlendHcl(b.highlight, gain).Clamped()
	}

	return f
}
