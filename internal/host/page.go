package host

import (
	"math"

	"github.com/ivlev/scrollwalk/internal/config"
)

// Input is one tick of scroll input. Lines and Pages count downward steps;
// negative values scroll up.
type Input struct {
	WheelY float64 // ebiten convention: positive scrolls up
	Lines  int
	Pages  int
	Home   bool
	End    bool
}

func (in Input) Empty() bool {
	return in.WheelY == 0 && in.Lines == 0 && in.Pages == 0 && !in.Home && !in.End
}

// ScrollRange is the scrollable distance in logical pixels: the page is
// HeightViewports tall and one viewport of it is always visible.
func ScrollRange(page config.Page, viewportHeight float64) float64 {
	return math.Max(0, (page.HeightViewports-1)*viewportHeight)
}

// ApplyInput moves the scroll fraction by one tick of input.
func ApplyInput(page config.Page, fraction, viewportHeight float64, in Input) float64 {
	switch {
	case in.End:
		return 1
	case in.Home:
		return 0
	}

	r := ScrollRange(page, viewportHeight)
	if r <= 0 {
		return fraction
	}
	px := -in.WheelY*page.WheelStep +
		float64(in.Lines)*page.WheelStep +
		float64(in.Pages)*viewportHeight
	return math.Max(0, math.Min(1, fraction+px/r))
}
