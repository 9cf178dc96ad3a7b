package stream

import "github.com/matt-g-everett/ledrace/race"

// An Animation implements a way to render a specific animation. states holds
// the race position of every lane on this frame.
type Animation interface {
	CalculateFrame(frameIndex int, states []race.FrameState) *Frame
}
