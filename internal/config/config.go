package config

import (
	"errors"
	"fmt"

	"github.com/ivlev/scrollwalk/internal/motion"
	"github.com/ivlev/scrollwalk/internal/progress"
	"github.com/ivlev/scrollwalk/internal/renderer"
	"github.com/ivlev/scrollwalk/internal/segment"
)

type Config struct {
	Version  string            `yaml:"version"`
	Assets   Assets            `yaml:"assets"`
	Segments []segment.Segment `yaml:"segments"`
	Curve    *progress.Curve   `yaml:"curve,omitempty"`
	Freezes  []progress.Window `yaml:"freezes,omitempty"`
	Easing   progress.Easing   `yaml:"easing,omitempty"`
	Spring   motion.Params     `yaml:"spring"`
	Viewport renderer.Viewport `yaml:"viewport"`
	Page     Page              `yaml:"page"`
	Render   Render            `yaml:"render"`
	Export   Export            `yaml:"export"`
}

// Assets tells where frames live and how their files are named.
type Assets struct {
	// Base is a local directory or an http(s) URL the locators are resolved against.
	Base   string `yaml:"base"`
	Root   string `yaml:"root"`
	Prefix string `yaml:"prefix"`
	Ext    string `yaml:"ext"`
}

// Page models the scrollable document the walkthrough lives in.
type Page struct {
	// HeightViewports is the page height in viewport heights; the scrollable
	// range is one viewport less.
	HeightViewports float64 `yaml:"height_viewports"`

	// WheelStep is how many logical pixels one wheel notch scrolls.
	WheelStep float64 `yaml:"wheel_step"`
}

type Render struct {
	Quality renderer.Quality `yaml:"quality"`
	TPS     int              `yaml:"tps"`
}

type Export struct {
	Output   string  `yaml:"output"`
	Duration float64 `yaml:"duration"`
	FPS      int     `yaml:"fps"`
	Quality  int     `yaml:"quality"`
	Encoder  string  `yaml:"encoder"`
	Fade     float64 `yaml:"fade"`
}

var (
	ErrPage   = errors.New("page must be taller than one viewport")
	ErrRender = errors.New("render tps must be positive")
	ErrExport = errors.New("export duration and fps must be positive")
)

// Default reproduces the Forum Angren walkthrough.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Assets: Assets{
			Base:   "public",
			Root:   "assets",
			Prefix: "ezgif",
			Ext:    "jpg",
		},
		Segments: []segment.Segment{
			{Name: "entrance", Frames: 40},
			{Name: "stairs", Frames: 32},
			{Name: "second-floor", Frames: 24},
		},
		Freezes: []progress.Window{
			{From: 0.35, To: 0.55},
			{From: 0.75, To: 0.90},
		},
		Easing:   progress.EaseLinear,
		Spring:   motion.DefaultParams(),
		Viewport: renderer.Viewport{Width: 1280, Height: 720, DPR: 1},
		Page:     Page{HeightViewports: 6, WheelStep: 100},
		Render:   Render{Quality: renderer.QualityHigh, TPS: 60},
		Export:   Export{Duration: 12, FPS: 30, Fade: 0.5},
	}
}

// Naming is the locator convention for the segment map.
func (c *Config) Naming() segment.Naming {
	return segment.Naming{Root: c.Assets.Root, Prefix: c.Assets.Prefix, Ext: c.Assets.Ext}
}

// SegmentMap builds the validated segment map.
func (c *Config) SegmentMap() (*segment.Map, error) {
	return segment.NewMap(c.Segments, c.Naming())
}

// ProgressCurve resolves the scroll curve: an explicit breakpoint table wins,
// then freeze windows holding the last frame of each segment, then the identity.
func (c *Config) ProgressCurve(m *segment.Map) (*progress.Curve, error) {
	switch {
	case c.Curve != nil:
		curve := *c.Curve
		if curve.Easing == "" {
			curve.Easing = c.Easing
		}
		if err := curve.Validate(); err != nil {
			return nil, fmt.Errorf("curve: %w", err)
		}
		return &curve, nil
	case len(c.Freezes) > 0:
		curve, err := progress.Build(m.Holds(), c.Freezes, c.Easing)
		if err != nil {
			return nil, fmt.Errorf("freezes: %w", err)
		}
		return curve, nil
	default:
		curve := progress.Linear()
		if c.Easing != "" {
			curve.Easing = c.Easing
		}
		return curve, curve.Validate()
	}
}

// Validate checks every section once at startup.
func (c *Config) Validate() error {
	m, err := c.SegmentMap()
	if err != nil {
		return err
	}
	if _, err := c.ProgressCurve(m); err != nil {
		return err
	}
	if err := c.Spring.Validate(); err != nil {
		return err
	}
	if c.Page.HeightViewports <= 1 {
		return fmt.Errorf("%w (%v)", ErrPage, c.Page.HeightViewports)
	}
	if _, err := c.Render.Quality.Kernel(); err != nil {
		return err
	}
	if c.Render.TPS <= 0 {
		return ErrRender
	}
	if c.Export.Output != "" && (c.Export.Duration <= 0 || c.Export.FPS <= 0) {
		return ErrExport
	}
	return nil
}
