package renderer

import "image"

// Surface is a drawing target with a physical backing store and a logical
// coordinate space. Renderer owns its surface exclusively.
type Surface interface {
	// Valid is false once the surface is torn down; drawing is then a no-op.
	Valid() bool
	PhysicalSize() (w, h int)
	// Resize reallocates the backing store; previous pixels are lost.
	Resize(w, h int)
	LogicalSize() (w, h float64)
	SetLogicalSize(w, h float64)
	// SetTransform maps logical coordinates to physical pixels.
	SetTransform(scale float64)
	Clear()
	Draw(img image.Image, p Placement)
}

// FrameSource hands out drawable frames; ok is false for frames that are
// pending, failed or have no pixels.
type FrameSource interface {
	Total() int
	Frame(i int) (image.Image, bool)
}

// Indexer maps progress to a global frame index, clamped.
type Indexer interface {
	FrameIndex(progress float64) int
}

type Stats struct {
	Draws   int
	Resizes int
	Skips   int
	Holds   int
}

// Renderer draws the frame selected by the smoothed progress. Draw requests
// coalesce: Request only records the latest progress and Flush renders once.
type Renderer struct {
	frames   FrameSource
	index    Indexer
	surface  Surface
	viewport Viewport

	progress float64
	pending  bool

	lastGood  int
	lastDrawn int
	stats     Stats
}

func New(frames FrameSource, index Indexer, surface Surface, vp Viewport) *Renderer {
	return &Renderer{
		frames:    frames,
		index:     index,
		surface:   surface,
		viewport:  vp,
		lastGood:  -1,
		lastDrawn: -1,
	}
}

// Request schedules a draw at the next Flush. Multiple requests between two
// flushes collapse into one draw of the most recent progress.
func (r *Renderer) Request(progress float64) {
	r.progress = progress
	r.pending = true
}

// Flush performs the pending draw, if any. Call once per display refresh.
func (r *Renderer) Flush() bool {
	if !r.pending {
		return false
	}
	r.pending = false
	r.Render(r.progress)
	return true
}

func (r *Renderer) Pending() bool { return r.pending }

// SetViewport replaces the viewport snapshot. It is the only place the
// viewport changes; a change schedules a redraw at the current progress.
func (r *Renderer) SetViewport(v Viewport) {
	if v == r.viewport {
		return
	}
	r.viewport = v
	r.Request(r.progress)
}

func (r *Renderer) Viewport() Viewport { return r.viewport }

// Render draws the frame for progress immediately. Frames that cannot be
// drawn fall back to the last frame drawn successfully; with no such frame
// the surface is left untouched.
func (r *Renderer) Render(progress float64) {
	r.progress = progress

	if r.surface == nil || !r.surface.Valid() || r.viewport.Empty() || r.frames.Total() == 0 {
		r.stats.Skips++
		return
	}

	idx := r.index.FrameIndex(progress)
	img, ok := r.frames.Frame(idx)
	if ok {
		r.lastGood = idx
	} else {
		if r.lastGood < 0 {
			r.stats.Skips++
			return
		}
		if img, ok = r.frames.Frame(r.lastGood); !ok {
			r.stats.Skips++
			return
		}
		idx = r.lastGood
		r.stats.Holds++
	}

	r.prepare()

	b := img.Bounds()
	p := Cover(r.viewport.Width, r.viewport.Height, float64(b.Dx()), float64(b.Dy()))
	r.surface.Clear()
	r.surface.Draw(img, p)

	r.lastDrawn = idx
	r.stats.Draws++
}

// prepare syncs backing store and logical size with the viewport snapshot,
// touching the surface only when something changed.
func (r *Renderer) prepare() {
	pw, ph := r.viewport.Physical()
	if w, h := r.surface.PhysicalSize(); w != pw || h != ph {
		r.surface.Resize(pw, ph)
		r.stats.Resizes++
	}
	if w, h := r.surface.LogicalSize(); w != r.viewport.Width || h != r.viewport.Height {
		r.surface.SetLogicalSize(r.viewport.Width, r.viewport.Height)
	}
	r.surface.SetTransform(r.viewport.Scale())
}

// Progress is the progress of the latest request or render.
func (r *Renderer) Progress() float64 { return r.progress }

// LastDrawn is the frame index currently on the surface, or -1.
func (r *Renderer) LastDrawn() int { return r.lastDrawn }

func (r *Renderer) Stats() Stats { return r.stats }
