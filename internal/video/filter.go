package video

import (
	"fmt"
	"strings"
)

// Filter builds the -vf chain. yuv420p needs even dimensions, so odd frames
// are padded by one pixel; Fade adds a fade from and to black.
func Filter(p Params) string {
	parts := []string{"pad=ceil(iw/2)*2:ceil(ih/2)*2"}

	fade := p.Fade
	if fade > 0 && p.Duration > 0 {
		// both fades must fit
		if fade > p.Duration/2 {
			fade = p.Duration / 2
		}
		parts = append(parts,
			fmt.Sprintf("fade=t=in:st=0:d=%f", fade),
			fmt.Sprintf("fade=t=out:st=%f:d=%f", p.Duration-fade, fade),
		)
	}
	return strings.Join(parts, ",")
}
