package progress

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrLength     = errors.New("curve needs at least two breakpoints of equal length")
	ErrScrollEnds = errors.New("scroll breakpoints must start at 0 and end at 1")
	ErrScrollTick = errors.New("scroll breakpoints must be strictly increasing")
	ErrFrameTick  = errors.New("frame breakpoints must be non-decreasing")
	ErrFrameRange = errors.New("frame breakpoints must lie in [0,1]")
)

// Easing shapes the interpolation inside a window.
type Easing string

const (
	EaseLinear     Easing = "linear"
	EaseSmoothStep Easing = "smoothstep"
	EaseInOutCubic Easing = "cubic"
)

// Curve maps the raw scroll fraction to a target progress through a
// breakpoint table. Flat stretches (equal consecutive Frame values) are
// freeze windows: scrolling inside them does not advance the frame.
type Curve struct {
	Scroll []float64 `yaml:"scroll"`
	Frame  []float64 `yaml:"frame"`
	Easing Easing    `yaml:"easing,omitempty"`
}

// Linear returns the identity curve.
func Linear() *Curve {
	return &Curve{Scroll: []float64{0, 1}, Frame: []float64{0, 1}, Easing: EaseLinear}
}

// Validate checks the breakpoint table once at startup.
func (c *Curve) Validate() error {
	if len(c.Scroll) < 2 || len(c.Scroll) != len(c.Frame) {
		return fmt.Errorf("%w (scroll=%d, frame=%d)", ErrLength, len(c.Scroll), len(c.Frame))
	}
	if c.Scroll[0] != 0 || c.Scroll[len(c.Scroll)-1] != 1 {
		return ErrScrollEnds
	}
	for i := range c.Scroll {
		if c.Frame[i] < 0 || c.Frame[i] > 1 || math.IsNaN(c.Frame[i]) {
			return fmt.Errorf("%w: frame[%d]=%v", ErrFrameRange, i, c.Frame[i])
		}
		if i == 0 {
			continue
		}
		if !(c.Scroll[i] > c.Scroll[i-1]) {
			return fmt.Errorf("%w: scroll[%d]=%v", ErrScrollTick, i, c.Scroll[i])
		}
		if c.Frame[i] < c.Frame[i-1] {
			return fmt.Errorf("%w: frame[%d]=%v", ErrFrameTick, i, c.Frame[i])
		}
	}
	switch c.Easing {
	case "", EaseLinear, EaseSmoothStep, EaseInOutCubic:
	default:
		return fmt.Errorf("unknown easing %q", c.Easing)
	}
	return nil
}

// Map converts a scroll fraction into target progress. Input is clamped to
// [0,1]; the output is within [0,1] and non-decreasing in the input.
func (c *Curve) Map(scroll float64) float64 {
	if math.IsNaN(scroll) || scroll <= 0 {
		return c.Frame[0]
	}
	last := len(c.Scroll) - 1
	if scroll >= 1 {
		return c.Frame[last]
	}

	i := c.window(scroll)
	span := c.Scroll[i+1] - c.Scroll[i]
	t := (scroll - c.Scroll[i]) / span
	return lerp(c.Frame[i], c.Frame[i+1], c.ease(t))
}

// Frozen reports whether scroll currently sits inside a freeze window.
func (c *Curve) Frozen(scroll float64) bool {
	if scroll <= 0 || scroll >= 1 {
		return false
	}
	i := c.window(scroll)
	return c.Frame[i] == c.Frame[i+1]
}

// window returns i such that Scroll[i] <= scroll < Scroll[i+1].
func (c *Curve) window(scroll float64) int {
	lo, hi := 0, len(c.Scroll)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if c.Scroll[mid] <= scroll {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

func (c *Curve) ease(t float64) float64 {
	switch c.Easing {
	case EaseSmoothStep:
		return t * t * (3 - 2*t)
	case EaseInOutCubic:
		return easeInOutCubic(t)
	default:
		return t
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
