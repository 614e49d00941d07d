package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
	"time"

	"github.com/ivlev/scrollwalk/internal/config"
	"github.com/ivlev/scrollwalk/internal/motion"
	"github.com/ivlev/scrollwalk/internal/renderer"
	"github.com/ivlev/scrollwalk/internal/segment"
)

var palette = []color.RGBA{
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, A: 255},
}

// paletteFetcher serves a solid image per locator, in global frame order.
type paletteFetcher struct {
	colors map[string]color.RGBA
	fail   map[string]bool
}

func newPaletteFetcher(t *testing.T, cfg *config.Config) *paletteFetcher {
	t.Helper()
	m, err := cfg.SegmentMap()
	if err != nil {
		t.Fatal(err)
	}
	f := &paletteFetcher{colors: map[string]color.RGBA{}, fail: map[string]bool{}}
	for i, loc := range m.Locators() {
		f.colors[loc] = palette[i%len(palette)]
	}
	return f
}

func (f *paletteFetcher) Fetch(ctx context.Context, locator string) (image.Image, error) {
	if f.fail[locator] {
		return nil, errors.New("404")
	}
	c, ok := f.colors[locator]
	if !ok {
		return nil, errors.New("unknown locator " + locator)
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img, nil
}

func (f *paletteFetcher) Close() error { return nil }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Segments = []segment.Segment{{Name: "a", Frames: 2}, {Name: "b", Frames: 2}}
	cfg.Freezes = nil
	cfg.Spring = motion.Params{Stiffness: 400, Damping: 40, Mass: 1, RestDelta: 0.001, RestSpeed: 0.01}
	cfg.Viewport = renderer.Viewport{Width: 8, Height: 6, DPR: 1}
	cfg.Render.Quality = renderer.QualityLow
	cfg.Export = config.Export{Duration: 2, FPS: 20}
	return cfg
}

func mount(t *testing.T, cfg *config.Config, scroll *Signal) (*Walkthrough, *renderer.RasterSurface) {
	t.Helper()
	surface, err := renderer.NewRasterSurface(cfg.Render.Quality)
	if err != nil {
		t.Fatal(err)
	}
	w, err := New(cfg, newPaletteFetcher(t, cfg), surface)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Mount(context.Background(), scroll); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	t.Cleanup(w.Teardown)
	return w, surface
}

func waitReady(t *testing.T, w *Walkthrough) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady failed: %v", err)
	}
}

func TestSignal(t *testing.T) {
	s := NewSignal(2)
	if s.Progress() != 1 {
		t.Errorf("NewSignal(2) = %v, want clamped 1", s.Progress())
	}

	var got []float64
	unsubscribe := s.Subscribe(func(v float64) { got = append(got, v) })

	s.Set(0.5)
	s.Set(0.5)
	s.Add(-1)
	s.Set(math.NaN())
	if len(got) != 2 || got[0] != 0.5 || got[1] != 0 {
		t.Errorf("Notifications = %v, want [0.5 0]", got)
	}

	unsubscribe()
	s.Set(0.7)
	if len(got) != 2 || s.Subscribers() != 0 {
		t.Errorf("Notified after unsubscribe: %v", got)
	}
}

func TestMountJumpsToScroll(t *testing.T) {
	cfg := testConfig()
	w, _ := mount(t, cfg, NewSignal(0.5))

	if w.SmoothedProgress() != 0.5 || w.TargetProgress() != 0.5 {
		t.Errorf("Smoothed=%v target=%v, want both 0.5", w.SmoothedProgress(), w.TargetProgress())
	}
	if !w.Settled() {
		t.Error("Spring should start at rest")
	}
	if err := w.Mount(context.Background(), NewSignal(0)); !errors.Is(err, ErrMounted) {
		t.Errorf("Second Mount = %v, want ErrMounted", err)
	}
}

func TestNoDrawBeforeReady(t *testing.T) {
	cfg := testConfig()
	w, surface := mount(t, cfg, NewSignal(0))

	// ready only flips inside Tick
	if w.Ready() {
		t.Fatal("Ready before the first tick")
	}
	if w.Frame() {
		t.Error("Frame drew before loading finished")
	}
	if surface.Image() != nil {
		t.Error("Surface touched before ready")
	}
	if img := w.LoadingImage(); img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Errorf("Loading image bounds %v", img.Bounds())
	}
}

func TestReadyIsOneWay(t *testing.T) {
	cfg := testConfig()
	w, surface := mount(t, cfg, NewSignal(0))
	waitReady(t, w)

	if !w.Ready() || w.LoadProgress() != 1 {
		t.Fatalf("Ready=%v progress=%v", w.Ready(), w.LoadProgress())
	}
	if !w.Frame() {
		t.Fatal("Expected the first draw once ready")
	}
	if got := surface.Image().RGBAAt(4, 3); got != palette[0] {
		t.Errorf("First frame pixel %v, want %v", got, palette[0])
	}

	for i := 0; i < 5; i++ {
		w.Tick(1.0 / 60)
		if !w.Ready() {
			t.Fatal("Ready flipped back")
		}
	}
}

func TestScrollDrivesFrames(t *testing.T) {
	cfg := testConfig()
	scroll := NewSignal(0)
	w, surface := mount(t, cfg, scroll)
	waitReady(t, w)
	w.Frame()

	scroll.Set(1)
	if w.TargetProgress() != 1 {
		t.Fatalf("Target = %v, want 1", w.TargetProgress())
	}

	prev := w.SmoothedProgress()
	steps := 0
	for ; steps < 600 && !w.Settled(); steps++ {
		w.Tick(1.0 / 60)
		w.Frame()
		if v := w.SmoothedProgress(); v < prev-1e-9 {
			t.Fatalf("Critically damped spring went backwards at step %d: %v < %v", steps, v, prev)
		}
		prev = w.SmoothedProgress()
	}
	t.Logf("settled after %d steps", steps)

	if !w.Settled() || w.SmoothedProgress() != 1 {
		t.Fatalf("Spring did not settle: %v", w.SmoothedProgress())
	}
	if got := surface.Image().RGBAAt(4, 3); got != palette[3] {
		t.Errorf("Last frame pixel %v, want %v", got, palette[3])
	}
	if w.Renderer().LastDrawn() != 3 {
		t.Errorf("LastDrawn = %d, want 3", w.Renderer().LastDrawn())
	}
}

func TestResizeRedraws(t *testing.T) {
	cfg := testConfig()
	w, surface := mount(t, cfg, NewSignal(0))
	waitReady(t, w)
	w.Frame()

	w.Resize(renderer.Viewport{Width: 10, Height: 10, DPR: 2})
	if !w.Frame() {
		t.Fatal("Resize should schedule a redraw")
	}
	if pw, ph := surface.PhysicalSize(); pw != 20 || ph != 20 {
		t.Errorf("Physical size %dx%d, want 20x20", pw, ph)
	}
	if img := w.LoadingImage(); img.Bounds().Dx() != 20 {
		t.Errorf("Loading image not rescaled: %v", img.Bounds())
	}
}

func TestTeardown(t *testing.T) {
	cfg := testConfig()
	scroll := NewSignal(0)
	w, _ := mount(t, cfg, scroll)
	waitReady(t, w)

	w.Teardown()
	w.Teardown()

	if scroll.Subscribers() != 0 {
		t.Errorf("Subscription leaked: %d", scroll.Subscribers())
	}
	scroll.Set(1)
	if w.TargetProgress() != 0 {
		t.Error("Scroll reached a torn down walkthrough")
	}
	if w.Tick(1.0/60) || w.Frame() {
		t.Error("Torn down walkthrough still running")
	}
	if err := w.Mount(context.Background(), scroll); !errors.Is(err, ErrTornDown) {
		t.Errorf("Mount after teardown = %v", err)
	}
}

func TestFailedFramesStillReady(t *testing.T) {
	cfg := testConfig()
	f := newPaletteFetcher(t, cfg)
	for loc := range f.colors {
		f.fail[loc] = true
	}
	surface, _ := renderer.NewRasterSurface(cfg.Render.Quality)
	w, err := New(cfg, f, surface)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Mount(context.Background(), NewSignal(0)); err != nil {
		t.Fatal(err)
	}
	defer w.Teardown()
	waitReady(t, w)

	if !w.Ready() || len(w.Loader().Failed()) != 4 {
		t.Fatalf("Expected ready with 4 failures, got ready=%v failed=%v", w.Ready(), w.Loader().Failed())
	}
	w.Frame()
	if w.Renderer().Stats().Skips != 1 || surface.Image() != nil {
		t.Errorf("Expected a silent skip, got %+v", w.Renderer().Stats())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Segments = nil
	surface, _ := renderer.NewRasterSurface(cfg.Render.Quality)
	if _, err := New(cfg, newPaletteFetcher(t, testConfig()), surface); !errors.Is(err, segment.ErrNoSegments) {
		t.Errorf("New = %v, want ErrNoSegments", err)
	}
}
