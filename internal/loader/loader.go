package loader

import (
	"context"
	"errors"
	"image"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scrollwalk/internal/source"
)

// State of a single frame.
type State int

const (
	Pending State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

type frame struct {
	locator string
	state   State
	img     image.Image
	err     error
}

type result struct {
	index int
	img   image.Image
	err   error
}

// Option configures a Loader.
type Option func(*Loader)

// WithProgress registers a callback invoked from Pump after every resolution.
func WithProgress(fn func(loaded, total int)) Option {
	return func(l *Loader) { l.onProgress = fn }
}

// WithLogger replaces the default logger for broken frames.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// Loader preloads a fixed frame set. Fetches run concurrently, but every
// state change is applied by Pump on the goroutine that owns the loader, so
// frame state itself is never shared.
type Loader struct {
	fetcher source.Fetcher
	frames  []frame
	loaded  int

	results chan result
	group   errgroup.Group
	cancel  context.CancelFunc

	started bool
	closed  bool

	onProgress func(loaded, total int)
	logger     *log.Logger
}

func New(fetcher source.Fetcher, locators []string, opts ...Option) *Loader {
	l := &Loader{
		fetcher: fetcher,
		frames:  make([]frame, len(locators)),
		results: make(chan result, len(locators)),
		logger:  log.Default(),
	}
	for i, loc := range locators {
		l.frames[i].locator = loc
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start issues one fetch per frame immediately. Calling it twice is a no-op.
func (l *Loader) Start(ctx context.Context) {
	if l.started || l.closed {
		return
	}
	l.started = true

	ctx, l.cancel = context.WithCancel(ctx)
	for i := range l.frames {
		i, loc := i, l.frames[i].locator
		l.group.Go(func() error {
			img, err := l.fetcher.Fetch(ctx, loc)
			// results is sized for one send per frame and never blocks
			l.results <- result{index: i, img: img, err: err}
			return ctx.Err()
		})
	}
}

// Pump applies every completion received so far and returns how many frames
// changed state. It never blocks.
func (l *Loader) Pump() int {
	applied := 0
	for {
		select {
		case r := <-l.results:
			if l.apply(r) {
				applied++
			}
		default:
			return applied
		}
	}
}

// Wait pumps until every frame is resolved or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	for !l.Ready() {
		if l.closed {
			return context.Canceled
		}
		select {
		case r := <-l.results:
			l.apply(r)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// apply moves a frame out of Pending exactly once. Late results after Close
// and duplicates are dropped.
func (l *Loader) apply(r result) bool {
	if l.closed || r.index < 0 || r.index >= len(l.frames) {
		return false
	}
	f := &l.frames[r.index]
	if f.state != Pending {
		return false
	}

	if r.err != nil || r.img == nil || r.img.Bounds().Empty() {
		f.state = Failed
		f.err = r.err
		l.logger.Printf("[!] Frame broken/missing: %s (%v)", f.locator, r.err)
	} else {
		f.state = Loaded
		f.img = r.img
	}
	l.loaded++

	if l.onProgress != nil {
		l.onProgress(l.loaded, len(l.frames))
	}
	return true
}

// Close cancels outstanding fetches and waits for their goroutines to
// return. State is frozen from here on.
func (l *Loader) Close() {
	if l.closed {
		return
	}
	l.closed = true
	if l.cancel == nil {
		return
	}
	l.cancel()
	if err := l.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		l.logger.Printf("[!] Fetch shutdown: %v", err)
	}
}

func (l *Loader) Total() int { return len(l.frames) }

// Loaded counts resolved frames, failures included.
func (l *Loader) Loaded() int { return l.loaded }

func (l *Loader) Ready() bool { return l.loaded == len(l.frames) }

// Progress is Loaded/Total in [0,1].
func (l *Loader) Progress() float64 {
	if len(l.frames) == 0 {
		return 1
	}
	return float64(l.loaded) / float64(len(l.frames))
}

func (l *Loader) State(i int) State {
	if i < 0 || i >= len(l.frames) {
		return Pending
	}
	return l.frames[i].state
}

// Failed lists frames that could not be loaded.
func (l *Loader) Failed() []int {
	var out []int
	for i, f := range l.frames {
		if f.state == Failed {
			out = append(out, i)
		}
	}
	return out
}

// Frame returns a drawable image for frame i.
func (l *Loader) Frame(i int) (image.Image, bool) {
	if i < 0 || i >= len(l.frames) {
		return nil, false
	}
	f := l.frames[i]
	if f.state != Loaded || f.img == nil || f.img.Bounds().Empty() {
		return nil, false
	}
	return f.img, true
}
