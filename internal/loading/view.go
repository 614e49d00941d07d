package loading

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	Black = color.RGBA{R: 0x05, G: 0x05, B: 0x05, A: 0xff}
	Gold  = color.RGBA{R: 0xc5, G: 0xa0, B: 0x59, A: 0xff}
	Track = color.RGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff}

	// Label is Gold at 60% opacity.
	Label = color.NRGBA{R: 0xc5, G: 0xa0, B: 0x59, A: 0x99}
)

const (
	barWidth  = 256.0
	barHeight = 2.0
	labelGap  = 16.0
	label     = "LOADING EXPERIENCE"
)

// Percent is the load progress in [0,100]. Deterministic: it depends only on the counts.
func Percent(loaded, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(loaded) / float64(total) * 100
	return math.Max(0, math.Min(100, p))
}

// View draws the loading indicator shown until every frame has resolved.
type View struct {
	DPR float64

	once sync.Once
	face font.Face
	err  error
}

func NewView(dpr float64) *View {
	if !(dpr > 0) {
		dpr = 1
	}
	return &View{DPR: dpr}
}

func (v *View) loadFace() (font.Face, error) {
	v.once.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			v.err = fmt.Errorf("failed to parse font: %v", err)
			return
		}
		v.face = truetype.NewFace(f, &truetype.Options{
			Size:    10,
			DPI:     72 * v.DPR,
			Hinting: font.HintingFull,
		})
	})
	return v.face, v.err
}

// Render draws the indicator for a logical w×h viewport at the view's DPR.
func (v *View) Render(w, h float64, loaded, total int) *image.RGBA {
	pw := int(math.Round(w * v.DPR))
	ph := int(math.Round(h * v.DPR))
	if pw <= 0 || ph <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}

	dc := gg.NewContext(pw, ph)
	dc.Scale(v.DPR, v.DPR)
	dc.SetColor(Black)
	dc.Clear()

	x := (w - barWidth) / 2
	y := h/2 - barHeight/2

	dc.SetColor(Track)
	dc.DrawRectangle(x, y, barWidth, barHeight)
	dc.Fill()

	if fill := barWidth * Percent(loaded, total) / 100; fill > 0 {
		dc.SetColor(Gold)
		dc.DrawRectangle(x, y, fill, barHeight)
		dc.Fill()
	}

	if face, err := v.loadFace(); err == nil {
		// face is sized in device pixels; draw it unscaled
		dc.Identity()
		dc.SetFontFace(face)
		dc.SetColor(Label)
		dc.DrawStringAnchored(label, w/2*v.DPR, (y+barHeight+labelGap)*v.DPR, 0.5, 0.5)
	}

	return dc.Image().(*image.RGBA)
}

// BarRect is the filled part of the bar in device pixels, for hosts that
// draw the indicator themselves.
func (v *View) BarRect(w, h float64, loaded, total int) image.Rectangle {
	x := (w - barWidth) / 2
	y := h/2 - barHeight/2
	fill := barWidth * Percent(loaded, total) / 100
	return image.Rect(
		int(math.Round(x*v.DPR)), int(math.Round(y*v.DPR)),
		int(math.Round((x+fill)*v.DPR)), int(math.Round((y+barHeight)*v.DPR)),
	)
}
