package race

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects how the last frame of a race is treated.
type Mode int

const (
	// Synchronized ends every entity together on the last frame, at rest
	// with a full counter.
	Synchronized Mode = iota
	// Independent lets each entity run to the ceiling at its own pace with
	// no special last frame.
	Independent
)

func (m Mode) valid() bool {
	return m == Synchronized || m == Independent
}

func (m Mode) String() string {
	switch m {
	case Synchronized:
		return "synchronized"
	case Independent:
		return "independent"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("race: unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseMode parses a mode name. An empty name means Synchronized.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "synchronized", "sync":
		return Synchronized, nil
	case "independent":
		return Independent, nil
	}
	return Synchronized, &ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
}

// FrameState is where an entity is drawn on one frame. Position is in [0,1]
// and Counter is the number of loops completed, in [0, Ceiling].
type FrameState struct {
	Position float64 `json:"position"`
	Counter  int64   `json:"counter"`
}

// Evaluator computes FrameStates. It holds no state between calls.
type Evaluator struct {
	Ceiling int64
	Mode    Mode
}

// Evaluate computes the state of an entity taking duration seconds, in a
// race whose slowest entity takes maxDuration seconds. totalFrames must be
// positive and duration must not exceed maxDuration.
func (e Evaluator) Evaluate(frameIndex, totalFrames int, duration, maxDuration float64) FrameState {
	if totalFrames < 1 {
		panic(fmt.Sprintf("race: evaluate with %d total frames", totalFrames))
	}

	if e.Mode == Synchronized && frameIndex >= totalFrames-1 {
		return FrameState{Position: 0, Counter: e.Ceiling}
	}

	ceiling := float64(e.Ceiling)
	raw := (float64(frameIndex) / float64(totalFrames)) / (duration / maxDuration)
	units := math.Min(raw*ceiling, ceiling)

	return FrameState{
		Position: Bounce(units),
		Counter:  int64(math.Floor(units)),
	}
}

// Bounce folds a monotonically increasing number of loops into a ping-pong
// position: forwards on even loops, backwards on odd ones.
func Bounce(units float64) float64 {
	whole := math.Floor(units)
	frac := units - whole
	if math.Mod(whole, 2) == 0 {
		return frac
	}
	return 1 - frac
}
