package stream

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledrace/race"
	"github.com/matt-g-everett/ledrace/util"
)

const (
	laneChroma    = 1.0
	ballLuminance = 0.5
	laneLuminance = 0.04
)

type lane struct {
	start  int
	length int
}

// A Track is an Animation that splits the strip into one lane per racer and
// draws each racer as a glowing ball bouncing along its lane.
type Track struct {
	numPixels int
	lanes     []lane
	ball      []colorful.Color
	back      []colorful.Color
	glow      []float64
}

// NewTrack lays out numLanes lanes on a strip of numPixels pixels, with one
// dark pixel between neighbouring lanes.
func NewTrack(numPixels int, numLanes int, glowRadius int, memoizer *util.Memoizer) (*Track, error) {
	if numLanes < 1 {
		return nil, fmt.Errorf("stream: track needs at least one lane")
	}
	if glowRadius < 0 {
		return nil, fmt.Errorf("stream: negative glow radius %d", glowRadius)
	}

	laneLength := (numPixels - (numLanes - 1)) / numLanes
	if laneLength < 2 {
		return nil, fmt.Errorf("stream: %d pixels cannot hold %d lanes", numPixels, numLanes)
	}

	t := new(Track)
	t.numPixels = numPixels
	t.lanes = make([]lane, numLanes)
	for i := range t.lanes {
		t.lanes[i] = lane{start: i * (laneLength + 1), length: laneLength}
	}
	t.ball = RainbowGradient.LaneColours(numLanes, laneChroma, ballLuminance)
	t.back = RainbowGradient.LaneColours(numLanes, laneChroma, laneLuminance)
	t.glow = memoizer.Falloff(glowRadius)

	return t, nil
}

// Lanes is the number of lanes on the track.
func (t *Track) Lanes() int {
	return len(t.lanes)
}

// BallPixel is the strip index of a ball at position (0..1) in lane i.
func (t *Track) BallPixel(i int, position float64) int {
	l := t.lanes[i]
	offset := int(math.Round(position * float64(l.length-1)))
	if offset < 0 {
		offset = 0
	} else if offset > l.length-1 {
		offset = l.length - 1
	}
	return l.start + offset
}

// paintLanes creates a frame with every lane in its dim background colour.
func (t *Track) paintLanes() *Frame {
	f := NewFrame(t.numPixels)
	for i, l := range t.lanes {
		f.Fill(l.start, l.start+l.length, t.back[i])
	}
	return f
}

// CalculateFrame creates a new Frame instance.
func (t *Track) CalculateFrame(frameIndex int, states []race.FrameState) *Frame {
	f := t.paintLanes()
	for i, s := range states {
		if i >= len(t.lanes) {
			break
		}

		l := t.lanes[i]
		centre := t.BallPixel(i, s.Position)
		for d := -(len(t.glow) - 1); d < len(t.glow); d++ {
			p := centre + d
			if p < l.start || p >= l.start+l.length {
				continue
			}
			gain := t.glow[absInt(d)]
			f.pixels[p] = t.back[i].BlendHcl(t.ball[i], gain).Clamped()
		}
	}

	return f
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
