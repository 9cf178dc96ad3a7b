package race

import (
	"fmt"
)

// ConfigurationError reports an entity list or setting the planner rejects.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("race: invalid %s: %s", e.Field, e.Reason)
}

// DegenerateTimelineError is returned when a race would last less than one
// frame.
type DegenerateTimelineError struct {
	MaxDuration   float64
	PlaybackSpeed float64
	FrameRate     int
	TotalFrames   int
}

func (e *DegenerateTimelineError) Error() string {
	return fmt.Sprintf("race: timeline of %d frames (max duration %gs, speed %g, %dfps)",
		e.TotalFrames, e.MaxDuration, e.PlaybackSpeed, e.FrameRate)
}
