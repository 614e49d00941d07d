//go:build cgo

package host

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ivlev/scrollwalk/internal/renderer"
)

// Surface is a renderer.Surface backed by an offscreen ebiten image. The
// game copies it to the screen every frame, so its pixels persist between
// draws the way a canvas does.
type Surface struct {
	canvas   *ebiten.Image
	lw, lh   float64
	scale    float64
	filter   ebiten.Filter
	textures map[image.Image]*ebiten.Image
	released bool
}

func NewSurface(q renderer.Quality) *Surface {
	filter := ebiten.FilterLinear
	if q == renderer.QualityLow {
		filter = ebiten.FilterNearest
	}
	return &Surface{scale: 1, filter: filter, textures: make(map[image.Image]*ebiten.Image)}
}

func (s *Surface) Valid() bool { return !s.released }

func (s *Surface) PhysicalSize() (int, int) {
	if s.canvas == nil {
		return 0, 0
	}
	b := s.canvas.Bounds()
	return b.Dx(), b.Dy()
}

func (s *Surface) Resize(w, h int) {
	if s.released {
		return
	}
	if s.canvas != nil {
		s.canvas.Deallocate()
		s.canvas = nil
	}
	if w <= 0 || h <= 0 {
		return
	}
	s.canvas = ebiten.NewImage(w, h)
	s.Clear()
}

func (s *Surface) LogicalSize() (float64, float64) { return s.lw, s.lh }

func (s *Surface) SetLogicalSize(w, h float64) { s.lw, s.lh = w, h }

func (s *Surface) SetTransform(scale float64) { s.scale = scale }

func (s *Surface) Clear() {
	if s.canvas != nil {
		s.canvas.Fill(renderer.Background)
	}
}

func (s *Surface) Draw(img image.Image, p renderer.Placement) {
	if s.canvas == nil || img == nil {
		return
	}
	tex := s.texture(img)
	origin := tex.Bounds().Min

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-float64(origin.X), -float64(origin.Y))
	op.GeoM.Scale(p.Scale, p.Scale)
	op.GeoM.Translate(p.X, p.Y)
	op.GeoM.Scale(s.scale, s.scale)
	op.Filter = s.filter
	s.canvas.DrawImage(tex, op)
}

// texture uploads a frame once; frames never change after loading.
func (s *Surface) texture(img image.Image) *ebiten.Image {
	if tex, ok := s.textures[img]; ok {
		return tex
	}
	tex := ebiten.NewImageFromImage(img)
	s.textures[img] = tex
	return tex
}

// Canvas is what the game copies to the screen.
func (s *Surface) Canvas() *ebiten.Image { return s.canvas }

func (s *Surface) Release() {
	if s.released {
		return
	}
	s.released = true
	for _, tex := range s.textures {
		tex.Deallocate()
	}
	s.textures = nil
	if s.canvas != nil {
		s.canvas.Deallocate()
		s.canvas = nil
	}
}
