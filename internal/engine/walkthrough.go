package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/ivlev/scrollwalk/internal/config"
	"github.com/ivlev/scrollwalk/internal/loader"
	"github.com/ivlev/scrollwalk/internal/loading"
	"github.com/ivlev/scrollwalk/internal/motion"
	"github.com/ivlev/scrollwalk/internal/progress"
	"github.com/ivlev/scrollwalk/internal/renderer"
	"github.com/ivlev/scrollwalk/internal/segment"
	"github.com/ivlev/scrollwalk/internal/source"
)

var (
	ErrMounted  = errors.New("walkthrough already mounted")
	ErrTornDown = errors.New("walkthrough torn down")
)

type Option func(*Walkthrough)

func WithLogger(logger *log.Logger) Option {
	return func(w *Walkthrough) { w.logger = logger }
}

// Walkthrough wires scroll, curve, spring, loader and renderer together.
// Every method runs on the goroutine that owns it; only fetches are
// concurrent, and their results enter through Tick.
type Walkthrough struct {
	segments *segment.Map
	curve    *progress.Curve
	loader   *loader.Loader
	spring   *motion.Spring
	renderer *renderer.Renderer
	view     *loading.View
	logger   *log.Logger

	unsubscribe func()
	target      float64

	mounted  bool
	ready    bool
	tornDown bool

	// cached loading frame
	overlay       *image.RGBA
	overlayLoaded int
	overlayVP     renderer.Viewport
}

func New(cfg *config.Config, fetcher source.Fetcher, surface renderer.Surface, opts ...Option) (*Walkthrough, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	m, err := cfg.SegmentMap()
	if err != nil {
		return nil, err
	}
	curve, err := cfg.ProgressCurve(m)
	if err != nil {
		return nil, err
	}
	sp, err := motion.NewSpring(cfg.Spring)
	if err != nil {
		return nil, err
	}

	w := &Walkthrough{
		segments: m,
		curve:    curve,
		spring:   sp,
		view:     loading.NewView(cfg.Viewport.DPR),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.loader = loader.New(fetcher, m.Locators(), loader.WithLogger(w.logger))
	w.renderer = renderer.New(w.loader, m, surface, cfg.Viewport)
	return w, nil
}

// Mount starts loading every frame, subscribes to scroll and places the
// spring at the current scroll position without animating.
func (w *Walkthrough) Mount(ctx context.Context, scroll ScrollSource) error {
	if w.tornDown {
		return ErrTornDown
	}
	if w.mounted {
		return ErrMounted
	}
	w.mounted = true

	w.logger.Printf("[*] Загрузка кадров: %d (сегментов: %d)", w.segments.Total(), len(w.segments.Segments()))
	w.loader.Start(ctx)

	w.target = w.curve.Map(scroll.Progress())
	w.spring.Jump(w.target)
	w.unsubscribe = scroll.Subscribe(w.OnScroll)
	w.renderer.Request(w.spring.Value())
	return nil
}

// OnScroll maps a new scroll fraction to the spring target.
func (w *Walkthrough) OnScroll(p float64) {
	if w.tornDown {
		return
	}
	w.target = w.curve.Map(p)
	w.spring.SetTarget(w.target)
}

// Tick applies finished loads and advances the spring by dt seconds. It
// reports whether the smoothed progress moved.
func (w *Walkthrough) Tick(dt float64) bool {
	if w.tornDown || !w.mounted {
		return false
	}

	w.loader.Pump()
	if !w.ready && w.loader.Ready() {
		w.ready = true
		if failed := w.loader.Failed(); len(failed) > 0 {
			w.logger.Printf("[!] Кадров с ошибкой: %d из %d", len(failed), w.loader.Total())
		}
		w.logger.Printf("[+++] Все кадры загружены: %d", w.loader.Total())
		w.renderer.Request(w.spring.Value())
	}

	v, moved := w.spring.Step(dt)
	if moved {
		w.renderer.Request(v)
	}
	return moved
}

// Frame runs the draw scheduled since the last refresh, once loading is over.
func (w *Walkthrough) Frame() bool {
	if w.tornDown || !w.ready {
		return false
	}
	return w.renderer.Flush()
}

// Resize replaces the viewport snapshot.
func (w *Walkthrough) Resize(v renderer.Viewport) {
	if w.tornDown {
		return
	}
	if v.DPR != w.view.DPR {
		w.view = loading.NewView(v.DPR)
		w.overlay = nil
	}
	w.renderer.SetViewport(v)
}

// Teardown releases the scroll subscription and stops loading. Later calls
// are no-ops.
func (w *Walkthrough) Teardown() {
	if w.tornDown {
		return
	}
	w.tornDown = true
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	w.loader.Close()
}

// LoadingImage is the loading indicator for the current viewport, redrawn
// only when the load count or the viewport changes.
func (w *Walkthrough) LoadingImage() *image.RGBA {
	vp := w.renderer.Viewport()
	loaded := w.loader.Loaded()
	if w.overlay != nil && loaded == w.overlayLoaded && vp == w.overlayVP {
		return w.overlay
	}
	w.overlay = w.view.Render(vp.Width, vp.Height, loaded, w.loader.Total())
	w.overlayLoaded, w.overlayVP = loaded, vp
	return w.overlay
}

// WaitReady blocks until every frame resolved and flips the ready state.
func (w *Walkthrough) WaitReady(ctx context.Context) error {
	if !w.mounted {
		return errors.New("walkthrough not mounted")
	}
	if err := w.loader.Wait(ctx); err != nil {
		return err
	}
	w.Tick(0)
	return nil
}

func (w *Walkthrough) SmoothedProgress() float64 { return w.spring.Value() }

func (w *Walkthrough) TargetProgress() float64 { return w.target }

// Ready flips to true once and stays there.
func (w *Walkthrough) Ready() bool { return w.ready }

func (w *Walkthrough) LoadProgress() float64 { return w.loader.Progress() }

func (w *Walkthrough) Loader() *loader.Loader { return w.loader }

func (w *Walkthrough) Renderer() *renderer.Renderer { return w.renderer }

func (w *Walkthrough) Segments() *segment.Map { return w.segments }

func (w *Walkthrough) Curve() *progress.Curve { return w.curve }

func (w *Walkthrough) Settled() bool { return w.spring.Settled() }
