package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scrollwalk/internal/config"
	"github.com/ivlev/scrollwalk/internal/renderer"
	"github.com/ivlev/scrollwalk/internal/source"
	"github.com/ivlev/scrollwalk/internal/system"
)

// FrameSink consumes rendered frames in order. Implementations must not keep
// img after returning.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

// scrollTail is the share of the export spent at the bottom of the page so
// the spring can settle on the last frame.
const scrollTail = 0.15

// ExportStats summarizes a headless run.
type ExportStats struct {
	Frames  int
	Draws   int
	Holds   int
	Failed  int
	Elapsed time.Duration
}

// ExportScroll is the simulated scroll fraction at time t of an export of
// the given duration: a steady scroll to the bottom, then a short rest.
func ExportScroll(t, duration float64) float64 {
	if !(duration > 0) {
		return 1
	}
	return clamp01(t / (duration * (1 - scrollTail)))
}

// Export drives a walkthrough without a window. Scroll is simulated from top
// to bottom over cfg.Export.Duration, the engine ticks at cfg.Export.FPS and
// every tick's surface goes to sink. Rendering and sinking run as a two-stage
// pipeline.
func Export(ctx context.Context, cfg *config.Config, fetcher source.Fetcher, sink FrameSink, opts ...Option) (ExportStats, error) {
	var stats ExportStats
	if cfg.Export.Duration <= 0 || cfg.Export.FPS <= 0 {
		return stats, config.ErrExport
	}
	start := time.Now()

	surface, err := renderer.NewRasterSurface(cfg.Render.Quality)
	if err != nil {
		return stats, err
	}
	defer surface.Release()

	w, err := New(cfg, fetcher, surface, opts...)
	if err != nil {
		return stats, err
	}

	scroll := NewSignal(0)
	if err := w.Mount(ctx, scroll); err != nil {
		return stats, err
	}
	defer w.Teardown()

	if err := w.WaitReady(ctx); err != nil {
		return stats, fmt.Errorf("loading frames: %w", err)
	}
	stats.Failed = len(w.Loader().Failed())

	fps := cfg.Export.FPS
	total := int(math.Round(cfg.Export.Duration * float64(fps)))
	dt := 1 / float64(fps)
	pw, ph := cfg.Viewport.Physical()
	if pw <= 0 || ph <= 0 {
		return stats, errors.New("export viewport is empty")
	}

	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan *image.RGBA, 4)

	g.Go(func() error {
		defer close(frames)
		for i := 0; i < total; i++ {
			scroll.Set(ExportScroll(float64(i)*dt, cfg.Export.Duration))
			w.Tick(dt)
			w.Frame()

			out := system.GetImage(pw, ph)
			if img := surface.Image(); img != nil {
				copy(out.Pix, img.Pix)
			} else {
				draw.Draw(out, out.Bounds(), image.NewUniform(renderer.Background), image.Point{}, draw.Src)
			}

			select {
			case frames <- out:
			case <-gctx.Done():
				system.PutImage(out)
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		written := 0
		for img := range frames {
			err := sink.WriteFrame(img)
			system.PutImage(img)
			if err != nil {
				return fmt.Errorf("frame %d: %w", written, err)
			}
			written++
			if written%fps == 0 {
				w.logger.Printf("[>] Ready: %d/%d", written, total)
			}
		}
		stats.Frames = written
		return nil
	})

	if err := g.Wait(); err != nil {
		// drain so pooled buffers are not stranded
		for img := range frames {
			system.PutImage(img)
		}
		return stats, err
	}

	rs := w.Renderer().Stats()
	stats.Draws, stats.Holds = rs.Draws, rs.Holds
	stats.Elapsed = time.Since(start)
	return stats, nil
}
