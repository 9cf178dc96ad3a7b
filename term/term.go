// Package term draws the race as coloured text in a terminal.
package term

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledrace/race"
	"github.com/matt-g-everett/ledrace/stream"
)

const (
	title   = "A Billion Loops in Different Langs"
	caption = "One Loop"

	clearScreen = "\x1b[H\x1b[2J"
	home        = "\x1b[H"
	reset       = "\x1b[0m"
)

// Renderer draws one row per racer: its name and time, an optional loop
// counter and a track with the ball on it.
type Renderer struct {
	w       io.Writer
	plan    *race.Plan
	labels  bool
	width   int
	colours []colorful.Color
	nameW   int
	started bool
}

// NewRenderer creates a Renderer writing to w with a track of width cells.
func NewRenderer(w io.Writer, plan *race.Plan, labels bool, width int) *Renderer {
	r := new(Renderer)
	r.w = w
	r.plan = plan
	r.labels = labels
	r.width = width
	if r.width < 2 {
		r.width = 2
	}
	r.colours = stream.RainbowGradient.LaneColours(len(plan.Entities), 1.0, 0.6)
	for _, e := range plan.Entities {
		if n := len(rowLabel(e)); n > r.nameW {
			r.nameW = n
		}
	}
	return r
}

func rowLabel(e race.Entity) string {
	return fmt.Sprintf("%s %.2fs", e.Name, e.Duration)
}

// Column is the track cell a ball at position (0..1) is drawn in.
func (r *Renderer) Column(position float64) int {
	col := int(position*float64(r.width-1) + 0.5)
	if col < 0 {
		return 0
	}
	if col > r.width-1 {
		return r.width - 1
	}
	return col
}

func ansiColour(c colorful.Color) string {
	red, green, blue := c.Clamped().RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", red, green, blue)
}

// ObserveFrame redraws the race.
func (r *Renderer) ObserveFrame(frameIndex int, states []race.FrameState) {
	bw := bufio.NewWriter(r.w)
	if !r.started {
		bw.WriteString(clearScreen)
		r.started = true
	} else {
		bw.WriteString(home)
	}

	fmt.Fprintf(bw, "%s\n\n", title)
	counterW := len(humanize.Comma(r.plan.Ceiling))
	for i, s := range states {
		e := r.plan.Entities[i]
		fmt.Fprintf(bw, "%*s ", r.nameW, rowLabel(e))
		if r.labels {
			fmt.Fprintf(bw, "%*s ", counterW, humanize.Comma(s.Counter))
		}

		col := r.Column(s.Position)
		bw.WriteString("|")
		bw.WriteString(strings.Repeat(" ", col))
		bw.WriteString(ansiColour(r.colours[i]))
		bw.WriteString("o")
		bw.WriteString(reset)
		bw.WriteString(strings.Repeat(" ", r.width-1-col))
		bw.WriteString("|\n")
	}

	pad := r.nameW + 1
	if r.labels {
		pad += counterW + 1
	}
	fmt.Fprintf(bw, "%*s0%*s1\n", pad+1, "", r.width-2, "")
	fmt.Fprintf(bw, "%*s%s   frame %d/%d\n", pad+1, "", caption, frameIndex+1, r.plan.TotalFrames)
	bw.Flush()
}
