package segment

import (
	"errors"
	"fmt"
	"math"
	"path"
)

var (
	ErrNoSegments    = errors.New("segment map is empty")
	ErrEmptyName     = errors.New("segment name is empty")
	ErrDuplicateName = errors.New("duplicate segment name")
	ErrFrameCount    = errors.New("segment frame count must be positive")
)

// Segment is a named, ordered run of frames sharing one asset folder.
type Segment struct {
	Name   string `yaml:"name"`
	Frames int    `yaml:"frames"`
}

// Naming describes how a frame locator is built:
// /{Root}/{segment}/{Prefix}-frame-{local:03d}.{Ext}
type Naming struct {
	Root   string `yaml:"root"`
	Prefix string `yaml:"prefix"`
	Ext    string `yaml:"ext"`
}

// Location is a resolved global frame index.
type Location struct {
	Global       int
	Segment      Segment
	SegmentIndex int
	Local        int // 1-based
}

// Map lays segments end to end into one global frame index space [0, Total).
type Map struct {
	segments []Segment
	offsets  []int
	total    int
	naming   Naming
}

// NewMap validates the segment list and precomputes running offsets.
func NewMap(segments []Segment, naming Naming) (*Map, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	seen := make(map[string]bool, len(segments))
	offsets := make([]int, len(segments))
	total := 0
	for i, s := range segments {
		if s.Name == "" {
			return nil, fmt.Errorf("segment %d: %w", i, ErrEmptyName)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("segment %q: %w", s.Name, ErrDuplicateName)
		}
		if s.Frames <= 0 {
			return nil, fmt.Errorf("segment %q: %w (%d)", s.Name, ErrFrameCount, s.Frames)
		}
		seen[s.Name] = true
		offsets[i] = total
		total += s.Frames
	}

	cp := make([]Segment, len(segments))
	copy(cp, segments)

	return &Map{segments: cp, offsets: offsets, total: total, naming: naming}, nil
}

func (m *Map) Total() int { return m.total }

func (m *Map) Naming() Naming { return m.naming }

// Segments returns a copy of the ordered segment list.
func (m *Map) Segments() []Segment {
	cp := make([]Segment, len(m.segments))
	copy(cp, m.segments)
	return cp
}

// Bounds returns the normalized end fraction (end/Total) of every segment.
// The last value is always 1.
func (m *Map) Bounds() []float64 {
	bounds := make([]float64, len(m.segments))
	for i, s := range m.segments {
		bounds[i] = float64(m.offsets[i]+s.Frames) / float64(m.total)
	}
	bounds[len(bounds)-1] = 1
	return bounds
}

// Holds returns, for every segment, the progress value at the middle of its
// last frame. FrameIndex maps it back to that frame, where Bounds would
// already select the first frame of the next segment.
func (m *Map) Holds() []float64 {
	holds := make([]float64, len(m.segments))
	for i, s := range m.segments {
		holds[i] = (float64(m.offsets[i]+s.Frames) - 0.5) / float64(m.total)
	}
	return holds
}

// Clamp pins a global index to [0, Total-1].
func (m *Map) Clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= m.total {
		return m.total - 1
	}
	return i
}

// FrameIndex selects the frame for a progress value: clamp(floor(p*Total)).
func (m *Map) FrameIndex(progress float64) int {
	if math.IsNaN(progress) {
		return 0
	}
	f := math.Floor(progress * float64(m.total))
	if f <= 0 {
		return 0
	}
	if f >= float64(m.total) {
		return m.total - 1
	}
	return int(f)
}

// Locate resolves a global index to its segment and 1-based local index.
// Out-of-range indices resolve to the nearest boundary frame.
func (m *Map) Locate(i int) Location {
	g := m.Clamp(i)
	for k := len(m.offsets) - 1; k >= 0; k-- {
		if g >= m.offsets[k] {
			return Location{
				Global:       g,
				Segment:      m.segments[k],
				SegmentIndex: k,
				Local:        g - m.offsets[k] + 1,
			}
		}
	}
	// unreachable: offsets[0] == 0
	return Location{Global: g, Segment: m.segments[0], Local: g + 1}
}

// Resolve returns the asset locator for a global index.
func (m *Map) Resolve(i int) string {
	loc := m.Locate(i)
	return m.naming.Locator(loc.Segment.Name, loc.Local)
}

// Locators lists every locator in global order.
func (m *Map) Locators() []string {
	out := make([]string, m.total)
	for i := range out {
		out[i] = m.Resolve(i)
	}
	return out
}

// Locator formats the asset path for a segment folder and 1-based local index.
func (n Naming) Locator(segment string, local int) string {
	file := fmt.Sprintf("%s-frame-%03d.%s", n.Prefix, local, n.Ext)
	return path.Join("/", n.Root, segment, file)
}
