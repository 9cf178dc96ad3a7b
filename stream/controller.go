package stream

import (
	"github.com/matt-g-everett/ledrace/race"
)

// Controller fades from one animation into the next over the first frames of
// the race.
type Controller struct {
	animation        Animation
	nextAnimation    Animation
	transitionFrames int
}

// NewController creates an instance of a Controller. With transitionFrames
// of zero or less the next animation is shown straight away.
func NewController(animation Animation, nextAnimation Animation, transitionFrames int) *Controller {
	c := new(Controller)
	c.animation = animation
	c.nextAnimation = nextAnimation
	c.transitionFrames = transitionFrames
	return c
}

// Transition is how far into nextAnimation the given frame is, from 0 to 1.
func (c *Controller) Transition(frameIndex int) float64 {
	if c.transitionFrames <= 0 || frameIndex >= c.transitionFrames {
		return 1.0
	}
	return float64(frameIndex) / float64(c.transitionFrames)
}

// CalculateFrame creates a new Frame instance.
func (c *Controller) CalculateFrame(frameIndex int, states []race.FrameState) *Frame {
	transition := c.Transition(frameIndex)
	if transition >= 1.0 {
		return c.nextAnimation.CalculateFrame(frameIndex, states)
	}

	f1 := c.animation.CalculateFrame(frameIndex, states)
	f2 := c.nextAnimation.CalculateFrame(frameIndex, states)
	return f1.InterpolateFrame(f2, transition)
}
