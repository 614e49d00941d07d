package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
)

type fakeFrames struct {
	imgs []image.Image
}

func (f *fakeFrames) Total() int { return len(f.imgs) }

func (f *fakeFrames) Frame(i int) (image.Image, bool) {
	if i < 0 || i >= len(f.imgs) || f.imgs[i] == nil {
		return nil, false
	}
	return f.imgs[i], true
}

func (f *fakeFrames) FrameIndex(p float64) int {
	i := int(math.Floor(p * float64(len(f.imgs))))
	if i < 0 {
		return 0
	}
	if i >= len(f.imgs) {
		return len(f.imgs) - 1
	}
	return i
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func newRaster(t *testing.T) *RasterSurface {
	t.Helper()
	s, err := NewRasterSurface(QualityHigh)
	if err != nil {
		t.Fatalf("NewRasterSurface failed: %v", err)
	}
	return s
}

func TestCoverFit(t *testing.T) {
	p := Cover(800, 600, 1600, 900)

	if math.Abs(p.Scale-0.667) > 0.001 {
		t.Errorf("Scale = %f, want ~0.667", p.Scale)
	}
	if math.Abs(p.Width-1067) > 0.5 || p.Height != 600 {
		t.Errorf("Size = %.2fx%.2f, want ~1067x600", p.Width, p.Height)
	}
	if math.Abs(p.X-(-133.5)) > 0.5 || p.Y != 0 {
		t.Errorf("Offset = (%.2f, %.2f), want ~(-133.5, 0)", p.X, p.Y)
	}
	t.Logf("placement: %+v", p)
}

func TestCoverFitAlwaysCovers(t *testing.T) {
	tests := []struct{ vw, vh, iw, ih float64 }{
		{800, 600, 1600, 900},
		{390, 844, 1920, 1080},
		{1920, 1080, 1080, 1920},
		{100, 100, 100, 100},
	}
	for _, tt := range tests {
		p := Cover(tt.vw, tt.vh, tt.iw, tt.ih)
		if p.X > 1e-9 || p.Y > 1e-9 || p.X+p.Width < tt.vw-1e-9 || p.Y+p.Height < tt.vh-1e-9 {
			t.Errorf("Cover(%v) leaves a gap: %+v", tt, p)
		}
		if math.Abs(p.Width/p.Height-tt.iw/tt.ih) > 1e-9 {
			t.Errorf("Cover(%v) distorts aspect: %+v", tt, p)
		}
	}
	if (Cover(10, 10, 0, 5) != Placement{}) {
		t.Error("Zero-size image should produce an empty placement")
	}
}

func TestViewportPhysical(t *testing.T) {
	tests := []struct {
		vp   Viewport
		w, h int
	}{
		{Viewport{800, 600, 2}, 1600, 1200},
		{Viewport{100.5, 50, 1.5}, 151, 75},
		{Viewport{800, 600, 0}, 800, 600},
	}
	for _, tt := range tests {
		w, h := tt.vp.Physical()
		if w != tt.w || h != tt.h {
			t.Errorf("%+v.Physical() = %dx%d, want %dx%d", tt.vp, w, h, tt.w, tt.h)
		}
	}
	if !(Viewport{0, 600, 1}).Empty() {
		t.Error("Zero-width viewport should be empty")
	}
}

func TestRenderIdempotent(t *testing.T) {
	frames := &fakeFrames{imgs: []image.Image{solid(16, 9, red), solid(16, 9, green)}}
	s := newRaster(t)
	r := New(frames, frames, s, Viewport{Width: 80, Height: 60, DPR: 2})

	r.Render(0.75)
	first := bytes.Clone(s.Image().Pix)
	r.Render(0.75)

	st := r.Stats()
	if st.Resizes != 1 {
		t.Errorf("Expected exactly one resize, got %d", st.Resizes)
	}
	if st.Draws != 2 {
		t.Errorf("Expected two draws, got %d", st.Draws)
	}
	if !bytes.Equal(first, s.Image().Pix) {
		t.Error("Second render changed pixels")
	}
	if w, h := s.PhysicalSize(); w != 160 || h != 120 {
		t.Errorf("Physical size %dx%d, want 160x120", w, h)
	}
	if w, h := s.LogicalSize(); w != 80 || h != 60 {
		t.Errorf("Logical size %vx%v, want 80x60", w, h)
	}
	if got := s.Image().RGBAAt(80, 60); got != green {
		t.Errorf("Center pixel %v, want green", got)
	}
}

func TestRenderHoldsLastGoodFrame(t *testing.T) {
	frames := &fakeFrames{imgs: []image.Image{solid(4, 4, red), nil, solid(4, 4, blue)}}
	s := newRaster(t)
	r := New(frames, frames, s, Viewport{Width: 10, Height: 10, DPR: 1})

	r.Render(0.1)
	r.Render(0.5) // frame 1 failed

	if r.LastDrawn() != 0 {
		t.Errorf("Expected frame 0 held, got %d", r.LastDrawn())
	}
	if r.Stats().Holds != 1 {
		t.Errorf("Expected one hold, got %+v", r.Stats())
	}
	if got := s.Image().RGBAAt(5, 5); got != red {
		t.Errorf("Held pixel %v, want red", got)
	}

	r.Render(0.9)
	if r.LastDrawn() != 2 || s.Image().RGBAAt(5, 5) != blue {
		t.Error("Expected playback to continue after the failed frame")
	}
}

func TestRenderSkipsWithoutGoodFrame(t *testing.T) {
	frames := &fakeFrames{imgs: []image.Image{nil, solid(4, 4, red)}}
	s := newRaster(t)
	r := New(frames, frames, s, Viewport{Width: 10, Height: 10, DPR: 1})

	r.Render(0)

	if r.Stats().Skips != 1 || r.Stats().Draws != 0 {
		t.Errorf("Expected a skipped render, got %+v", r.Stats())
	}
	if s.Image() != nil {
		t.Error("Surface must stay untouched when nothing can be drawn")
	}
}

func TestRenderOnReleasedSurface(t *testing.T) {
	frames := &fakeFrames{imgs: []image.Image{solid(4, 4, red)}}
	s := newRaster(t)
	r := New(frames, frames, s, Viewport{Width: 10, Height: 10, DPR: 1})
	r.Render(0)
	s.Release()

	r.Render(0)
	r.Request(0.5)
	r.Flush()

	if r.Stats().Draws != 1 || r.Stats().Skips != 2 {
		t.Errorf("Expected silent skips after release, got %+v", r.Stats())
	}
}

func TestRequestsCoalesce(t *testing.T) {
	frames := &fakeFrames{imgs: []image.Image{solid(4, 4, red), solid(4, 4, green), solid(4, 4, blue)}}
	s := newRaster(t)
	r := New(frames, frames, s, Viewport{Width: 10, Height: 10, DPR: 1})

	r.Request(0.1)
	r.Request(0.4)
	r.Request(0.9)
	if !r.Flush() {
		t.Fatal("Expected a pending draw")
	}
	if r.Flush() {
		t.Error("Second flush without a request should not draw")
	}
	if r.Stats().Draws != 1 || r.LastDrawn() != 2 {
		t.Errorf("Expected one draw of the latest progress, got %+v frame %d", r.Stats(), r.LastDrawn())
	}
}

func TestSetViewportRedrawsCurrentFrame(t *testing.T) {
	frames := &fakeFrames{imgs: []image.Image{solid(4, 4, red), solid(4, 4, green)}}
	s := newRaster(t)
	r := New(frames, frames, s, Viewport{Width: 10, Height: 10, DPR: 1})
	r.Render(0.6)

	r.SetViewport(Viewport{Width: 10, Height: 10, DPR: 1})
	if r.Pending() {
		t.Error("Unchanged viewport must not schedule a draw")
	}

	r.SetViewport(Viewport{Width: 20, Height: 10, DPR: 2})
	if !r.Pending() {
		t.Fatal("Resize should schedule a redraw")
	}
	r.Flush()

	if r.LastDrawn() != 1 {
		t.Errorf("Resize changed the frame: %d", r.LastDrawn())
	}
	if r.Stats().Resizes != 2 {
		t.Errorf("Expected a second resize, got %d", r.Stats().Resizes)
	}
	if w, h := s.PhysicalSize(); w != 40 || h != 20 {
		t.Errorf("Physical size %dx%d, want 40x20", w, h)
	}
}

func TestQualityKernel(t *testing.T) {
	for _, q := range []Quality{"", QualityHigh, QualityMedium, QualityLow} {
		if _, err := q.Kernel(); err != nil {
			t.Errorf("Kernel(%q) failed: %v", q, err)
		}
	}
	if _, err := Quality("ultra").Kernel(); err == nil {
		t.Error("Expected error for unknown quality")
	}
}
