package renderer

import "math"

// Placement is where an image lands on the surface, in logical pixels.
type Placement struct {
	Scale  float64
	Width  float64
	Height float64
	X      float64
	Y      float64
}

// Cover scales an iw×ih image to fill a vw×vh viewport completely, cropping
// the longer axis, and centers it.
func Cover(vw, vh, iw, ih float64) Placement {
	if iw <= 0 || ih <= 0 {
		return Placement{}
	}
	scale := math.Max(vw/iw, vh/ih)
	w := iw * scale
	h := ih * scale
	return Placement{
		Scale:  scale,
		Width:  w,
		Height: h,
		X:      (vw - w) / 2,
		Y:      (vh - h) / 2,
	}
}

// Viewport is a snapshot of the logical display size and device pixel ratio.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	DPR    float64 `yaml:"dpr"`
}

// Scale returns the device pixel ratio, defaulting to 1.
func (v Viewport) Scale() float64 {
	if !(v.DPR > 0) {
		return 1
	}
	return v.DPR
}

// Physical is the backing store size in device pixels.
func (v Viewport) Physical() (int, int) {
	s := v.Scale()
	return int(math.Round(v.Width * s)), int(math.Round(v.Height * s))
}

func (v Viewport) Empty() bool {
	w, h := v.Physical()
	return w <= 0 || h <= 0
}
