package race

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultCeiling is the number of loops each language has to complete.
	DefaultCeiling int64 = 1000000000
	// DefaultFrameRate is the target frames per second.
	DefaultFrameRate = 60
	// DefaultPlaybackSpeed plays the race in real time.
	DefaultPlaybackSpeed = 1.0
)

// Entity is a single racer: a name and the seconds it took to complete the
// work ceiling.
type Entity struct {
	Name     string  `yaml:"name" json:"name"`
	Duration float64 `yaml:"time" json:"time"`
}

// Settings are the named constants a Plan is built from.
type Settings struct {
	PlaybackSpeed float64
	FrameRate     int
	Ceiling       int64
	Mode          Mode
}

// DefaultSettings returns real time playback at 60fps in synchronized mode.
func DefaultSettings() Settings {
	return Settings{
		PlaybackSpeed: DefaultPlaybackSpeed,
		FrameRate:     DefaultFrameRate,
		Ceiling:       DefaultCeiling,
		Mode:          Synchronized,
	}
}

// Plan is the timeline of a race. It is immutable once built.
type Plan struct {
	Entities      []Entity `json:"entities"`
	MaxDuration   float64  `json:"maxDuration"`
	TotalFrames   int      `json:"totalFrames"`
	FrameRate     int      `json:"frameRate"`
	PlaybackSpeed float64  `json:"playbackSpeed"`
	Ceiling       int64    `json:"ceiling"`
	Mode          Mode     `json:"mode"`
}

// NewPlan plans a race with the default ceiling and synchronized finish.
func NewPlan(entities []Entity, playbackSpeed float64, frameRate int) (*Plan, error) {
	settings := DefaultSettings()
	settings.PlaybackSpeed = playbackSpeed
	settings.FrameRate = frameRate
	return PlanWith(entities, settings)
}

// PlanWith validates the entities and settings and works out how many frames
// the race lasts. A higher playback speed gives a shorter race.
func PlanWith(entities []Entity, settings Settings) (*Plan, error) {
	if err := validate(entities, settings); err != nil {
		return nil, err
	}

	maxDuration := 0.0
	for _, e := range entities {
		maxDuration = math.Max(maxDuration, e.Duration)
	}

	totalDuration := maxDuration / settings.PlaybackSpeed
	frames := math.Floor(float64(settings.FrameRate) * totalDuration)
	if frames > math.MaxInt32 {
		return nil, &ConfigurationError{Field: "playbackSpeed", Reason: "race would need more than 2^31 frames"}
	}
	if frames < 1 {
		return nil, &DegenerateTimelineError{
			MaxDuration:   maxDuration,
			PlaybackSpeed: settings.PlaybackSpeed,
			FrameRate:     settings.FrameRate,
			TotalFrames:   int(frames),
		}
	}

	p := new(Plan)
	p.Entities = append([]Entity(nil), entities...)
	p.MaxDuration = maxDuration
	p.TotalFrames = int(frames)
	p.FrameRate = settings.FrameRate
	p.PlaybackSpeed = settings.PlaybackSpeed
	p.Ceiling = settings.Ceiling
	p.Mode = settings.Mode

	return p, nil
}

func validate(entities []Entity, settings Settings) error {
	if len(entities) == 0 {
		return &ConfigurationError{Field: "entities", Reason: "at least one entity is required"}
	}

	seen := make(map[string]bool, len(entities))
	for i, e := range entities {
		if e.Name == "" {
			return &ConfigurationError{Field: "entities", Reason: fmt.Sprintf("entity %d has no name", i)}
		}
		if seen[e.Name] {
			return &ConfigurationError{Field: "entities", Reason: "duplicate name " + e.Name}
		}
		seen[e.Name] = true
		if !(e.Duration > 0) || math.IsInf(e.Duration, 1) {
			return &ConfigurationError{Field: "entities", Reason: e.Name + " needs a positive finite duration"}
		}
	}

	if !(settings.PlaybackSpeed > 0) || math.IsInf(settings.PlaybackSpeed, 1) {
		return &ConfigurationError{Field: "playbackSpeed", Reason: "must be a positive number"}
	}
	if settings.FrameRate <= 0 {
		return &ConfigurationError{Field: "frameRate", Reason: "must be a positive integer"}
	}
	if settings.Ceiling <= 0 {
		return &ConfigurationError{Field: "ceiling", Reason: "must be positive"}
	}
	if !settings.Mode.valid() {
		return &ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %d", int(settings.Mode))}
	}

	return nil
}

// Evaluator returns the evaluator matching the plan's constants.
func (p *Plan) Evaluator() Evaluator {
	return Evaluator{Ceiling: p.Ceiling, Mode: p.Mode}
}

// Evaluate computes the state of entity i at the given frame.
func (p *Plan) Evaluate(frameIndex int, i int) FrameState {
	return p.Evaluator().Evaluate(frameIndex, p.TotalFrames, p.Entities[i].Duration, p.MaxDuration)
}

// Frame computes the state of every entity, in display order.
func (p *Plan) Frame(frameIndex int) []FrameState {
	ev := p.Evaluator()
	states := make([]FrameState, len(p.Entities))
	for i, e := range p.Entities {
		states[i] = ev.Evaluate(frameIndex, p.TotalFrames, e.Duration, p.MaxDuration)
	}
	return states
}

// Finished reports whether frameIndex is at or past the last frame.
func (p *Plan) Finished(frameIndex int) bool {
	return frameIndex >= p.TotalFrames-1
}

// Interval is the nominal time between frames.
func (p *Plan) Interval() time.Duration {
	return time.Second / time.Duration(p.FrameRate)
}

// Duration is the nominal playback length of the whole race.
func (p *Plan) Duration() time.Duration {
	return time.Duration(p.TotalFrames) * p.Interval()
}
