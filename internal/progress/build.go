package progress

import (
	"errors"
	"fmt"
)

var ErrWindow = errors.New("freeze window out of order")

// Window is a closed scroll range [From, To].
type Window struct {
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`
}

// Build lays out alternating play and freeze windows.
//
// bounds holds the progress value reached by every segment (segment.Map.Holds
// or segment.Map.Bounds), freezes holds at most len(bounds)-1 scroll windows;
// freezes[i] holds the progress at bounds[i] after segment i finishes playing.
// Play windows fill the remaining scroll range in order, each spanning its
// segment's normalized frame range.
func Build(bounds []float64, freezes []Window, easing Easing) (*Curve, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("%w: no segment bounds", ErrLength)
	}
	if len(freezes) > len(bounds)-1 {
		return nil, fmt.Errorf("%w: %d freezes for %d segments", ErrWindow, len(freezes), len(bounds))
	}

	c := &Curve{Scroll: []float64{0}, Frame: []float64{0}, Easing: easing}

	prev := 0.0
	for i, w := range freezes {
		if !(w.From > prev) || !(w.To > w.From) || !(w.To < 1) {
			return nil, fmt.Errorf("%w: freeze %d [%v,%v]", ErrWindow, i, w.From, w.To)
		}
		// play segment i up to the freeze, then hold.
		c.Scroll = append(c.Scroll, w.From, w.To)
		c.Frame = append(c.Frame, bounds[i], bounds[i])
		prev = w.To
	}

	// remaining segments play through to the end without further holds
	c.Scroll = append(c.Scroll, 1)
	c.Frame = append(c.Frame, 1)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
