package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ivlev/scrollwalk/internal/system"
)

// Quality selects the resampling kernel used when scaling frames.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

func (q Quality) Kernel() (xdraw.Interpolator, error) {
	switch q {
	case QualityHigh, "":
		return xdraw.CatmullRom, nil
	case QualityMedium:
		return xdraw.ApproxBiLinear, nil
	case QualityLow:
		return xdraw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("unknown quality %q", q)
	}
}

// Background fills the surface under every frame.
var Background = color.RGBA{R: 0x05, G: 0x05, B: 0x05, A: 0xff}

// RasterSurface is an offscreen RGBA surface. Backing stores come from the
// shared image pool.
type RasterSurface struct {
	img      *image.RGBA
	lw, lh   float64
	scale    float64
	kernel   xdraw.Interpolator
	released bool
}

func NewRasterSurface(q Quality) (*RasterSurface, error) {
	k, err := q.Kernel()
	if err != nil {
		return nil, err
	}
	return &RasterSurface{kernel: k, scale: 1}, nil
}

func (s *RasterSurface) Valid() bool { return !s.released }

func (s *RasterSurface) PhysicalSize() (int, int) {
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *RasterSurface) Resize(w, h int) {
	if s.released {
		return
	}
	if s.img != nil {
		system.PutImage(s.img)
		s.img = nil
	}
	if w <= 0 || h <= 0 {
		return
	}
	s.img = system.GetImage(w, h)
	s.Clear()
}

func (s *RasterSurface) LogicalSize() (float64, float64) { return s.lw, s.lh }

func (s *RasterSurface) SetLogicalSize(w, h float64) { s.lw, s.lh = w, h }

func (s *RasterSurface) SetTransform(scale float64) { s.scale = scale }

func (s *RasterSurface) Clear() {
	if s.img == nil {
		return
	}
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
}

// Draw scales src into the placement (logical pixels) through the current transform.
func (s *RasterSurface) Draw(src image.Image, p Placement) {
	if s.img == nil || src == nil {
		return
	}
	b := src.Bounds()
	k := p.Scale * s.scale
	m := f64.Aff3{
		k, 0, p.X*s.scale - float64(b.Min.X)*k,
		0, k, p.Y*s.scale - float64(b.Min.Y)*k,
	}
	s.kernel.Transform(s.img, m, src, b, xdraw.Over, nil)
}

// Image exposes the backing store. It is reused by the next Resize.
func (s *RasterSurface) Image() *image.RGBA { return s.img }

// Release returns the backing store to the pool and invalidates the surface.
func (s *RasterSurface) Release() {
	if s.released {
		return
	}
	s.released = true
	if s.img != nil {
		system.PutImage(s.img)
		s.img = nil
	}
}
