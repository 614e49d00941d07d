package system

import (
	"image"
	"testing"
)

func TestImagePool(t *testing.T) {
	p := NewImagePool()

	img := p.Get(32, 18)
	if img.Bounds() != image.Rect(0, 0, 32, 18) {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}
	p.Put(img)

	other := p.Get(8, 8)
	if other.Bounds().Dx() != 8 {
		t.Errorf("Pool returned wrong size %v", other.Bounds())
	}

	// foreign sizes and offset images are ignored
	p.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	p.Put(image.NewRGBA(image.Rect(1, 1, 9, 9)))
	p.Put(nil)
}

func TestFrameMemory(t *testing.T) {
	if got := FrameMemory(96, 1920, 1080); got != 96*1920*1080*4 {
		t.Errorf("FrameMemory = %d", got)
	}
}

func TestDefaultQuality(t *testing.T) {
	tests := map[string]int{
		"h264_videotoolbox": 75,
		"h264_nvenc":        28,
		"libx264":           23,
		"":                  23,
	}
	for enc, want := range tests {
		if got := DefaultQuality(enc); got != want {
			t.Errorf("DefaultQuality(%q) = %d, want %d", enc, got, want)
		}
	}
}
