// Package patterns holds diagnostic and demo patterns for a strip.
package patterns

import (
	"github.com/coreman2200/apa102"
	"github.com/coreman2200/apa102/internal/layout"
)

type Kind string

const (
	None        Kind = ""
	IndexSweep  Kind = "index_sweep"
	RGBChannels Kind = "rgb_channels"
	RowSweep    Kind = "row_sweep"
	Rainbow     Kind = "rainbow"
)

// Kinds lists every runnable pattern.
var Kinds = []Kind{IndexSweep, RGBChannels, RowSweep, Rainbow}

// Parse returns the Kind named s, or None.
func Parse(s string) Kind {
	for _, k := range Kinds {
		if string(k) == s {
			return k
		}
	}
	return None
}

type Plan struct {
	Kind   Kind
	Layout layout.Layout // used by RowSweep
	Steps  int           // stop after this many steps; 0 runs to the natural end, forever for Rainbow
}

type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

// Step draws the next frame of the pattern into s; returns false when
// complete. It does not call Show.
func (r *Runner) Step(s *apa102.Strip) bool {
	n := s.NumLED()
	if r.plan.Steps > 0 && r.step >= r.plan.Steps {
		return false
	}

	switch r.plan.Kind {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		s.Clear()
		s.SetPixel(r.step, 255, 255, 255)
	case RGBChannels:
		if r.plan.Steps == 0 && r.step >= 3 {
			return false
		}
		switch r.step % 3 {
		case 0:
			s.SetAll(255, 0, 0)
		case 1:
			s.SetAll(0, 255, 0)
		case 2:
			s.SetAll(0, 0, 255)
		}
	case RowSweep:
		l := r.plan.Layout
		if r.step >= l.Height {
			return false
		}
		s.Clear()
		for x := 0; x < l.Width; x++ {
			s.SetPixel(l.Index(x, r.step), 0, 255, 255) // cyan
		}
	case Rainbow:
		if r.step == 0 {
			for i := 0; i < n; i++ {
				s.SetPixelRGB(i, apa102.Wheel(uint8(i*256/n)))
			}
		} else {
			s.Rotate(1)
		}
	default:
		return false
	}
	r.step++
	return true
}
