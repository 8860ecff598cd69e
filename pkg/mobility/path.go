// Package mobility generates the station positions a simulation run walks
// through. Paths are pure position sequences; the tick loop that consumes
// them owns all timing.
package mobility

import (
	"fmt"

	"github.com/roamsim/roamsim/pkg"
)

// Path yields the ordered positions of one run.
type Path interface {
	Positions() []pkg.Position
}

// LinearSweep walks a station along a horizontal line at fixed Y, the
// classic two-AP corridor walk (x=10..120 in 5 m steps).
type LinearSweep struct {
	StartX float64
	EndX   float64
	StepX  float64
	Y      float64
}

// Positions returns the sweep positions, inclusive of both ends when the
// step lands exactly on EndX.
func (s LinearSweep) Positions() []pkg.Position {
	step := s.StepX
	if step == 0 {
		step = 5
	}
	if (s.EndX-s.StartX > 0) != (step > 0) {
		step = -step
	}

	var out []pkg.Position
	if step > 0 {
		for x := s.StartX; x <= s.EndX; x += step {
			out = append(out, pkg.Position{X: x, Y: s.Y})
		}
	} else {
		for x := s.StartX; x >= s.EndX; x += step {
			out = append(out, pkg.Position{X: x, Y: s.Y})
		}
	}
	return out
}

// Validate checks the sweep makes progress.
func (s LinearSweep) Validate() error {
	if s.StartX == s.EndX {
		return fmt.Errorf("linear sweep start and end coincide at x=%v", s.StartX)
	}
	return nil
}

// Waypoints visits an explicit list of positions in order, for the richer
// multi-AP comparison walks.
type Waypoints []pkg.Position

// Positions returns a copy of the waypoint list.
func (w Waypoints) Positions() []pkg.Position {
	out := make([]pkg.Position, len(w))
	copy(out, w)
	return out
}
