//go:build cgo

package host

import (
	"context"
	"image"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ivlev/scrollwalk/internal/config"
	"github.com/ivlev/scrollwalk/internal/engine"
	"github.com/ivlev/scrollwalk/internal/renderer"
	"github.com/ivlev/scrollwalk/internal/source"
)

// RunWindow opens a desktop window with the walkthrough and blocks until it
// is closed. The wheel and the keyboard scroll the page.
func RunWindow(ctx context.Context, cfg *config.Config, fetcher source.Fetcher, logger *log.Logger) error {
	surface := NewSurface(cfg.Render.Quality)
	defer surface.Release()

	w, err := engine.New(cfg, fetcher, surface, engine.WithLogger(logger))
	if err != nil {
		return err
	}
	scroll := engine.NewSignal(0)
	if err := w.Mount(ctx, scroll); err != nil {
		return err
	}
	defer w.Teardown()

	g := &game{
		w:        w,
		surface:  surface,
		scroll:   scroll,
		page:     cfg.Page,
		viewport: cfg.Viewport,
		layout:   cfg.Viewport,
		dt:       1 / float64(cfg.Render.TPS),
	}

	ebiten.SetWindowTitle("scrollwalk")
	ebiten.SetWindowSize(int(cfg.Viewport.Width), int(cfg.Viewport.Height))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Render.TPS)
	return ebiten.RunGame(g)
}

type game struct {
	w       *engine.Walkthrough
	surface *Surface
	scroll  *engine.Signal
	page    config.Page
	dt      float64

	// viewport is applied, layout is the latest one ebiten reported
	viewport renderer.Viewport
	layout   renderer.Viewport

	loading    *ebiten.Image
	loadingSrc *image.RGBA
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if g.layout != g.viewport && !g.layout.Empty() {
		g.viewport = g.layout
		g.w.Resize(g.viewport)
	}

	if in := readInput(); !in.Empty() {
		g.scroll.Set(ApplyInput(g.page, g.scroll.Progress(), g.viewport.Height, in))
	}
	g.w.Tick(g.dt)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if !g.w.Ready() {
		g.drawLoading(screen)
		return
	}
	g.w.Frame()
	if c := g.surface.Canvas(); c != nil {
		screen.DrawImage(c, nil)
	}
}

func (g *game) drawLoading(screen *ebiten.Image) {
	src := g.w.LoadingImage()
	if src.Bounds().Empty() {
		return
	}
	if src != g.loadingSrc {
		if g.loading == nil || g.loading.Bounds().Size() != src.Bounds().Size() {
			if g.loading != nil {
				g.loading.Deallocate()
			}
			g.loading = ebiten.NewImage(src.Bounds().Dx(), src.Bounds().Dy())
		}
		g.loading.WritePixels(src.Pix)
		g.loadingSrc = src
	}
	screen.DrawImage(g.loading, nil)
}

// Layout keeps the screen in device pixels.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.layout = renderer.Viewport{
		Width:  float64(outsideWidth),
		Height: float64(outsideHeight),
		DPR:    ebiten.Monitor().DeviceScaleFactor(),
	}
	w, h := g.layout.Physical()
	if w <= 0 || h <= 0 {
		return 1, 1
	}
	return w, h
}

func readInput() Input {
	var in Input
	_, in.WheelY = ebiten.Wheel()

	if repeating(ebiten.KeyArrowDown) {
		in.Lines++
	}
	if repeating(ebiten.KeyArrowUp) {
		in.Lines--
	}
	if repeating(ebiten.KeyPageDown) || repeating(ebiten.KeySpace) {
		in.Pages++
	}
	if repeating(ebiten.KeyPageUp) {
		in.Pages--
	}
	in.Home = inpututil.IsKeyJustPressed(ebiten.KeyHome)
	in.End = inpututil.IsKeyJustPressed(ebiten.KeyEnd)
	return in
}

// repeating fires on press and then like a held key in a text field.
func repeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d > 30 && d%4 == 0)
}
