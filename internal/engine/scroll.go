package engine

import "math"

// ScrollSource is the host's scroll fraction. The core only reads it.
type ScrollSource interface {
	Progress() float64
	// Subscribe registers fn for every change and returns its release func.
	Subscribe(fn func(float64)) (unsubscribe func())
}

// Signal is an in-process ScrollSource. Like the rest of the engine it is
// driven from a single goroutine.
type Signal struct {
	value float64
	subs  map[int]func(float64)
	next  int
}

func NewSignal(v float64) *Signal {
	return &Signal{value: clamp01(v), subs: make(map[int]func(float64))}
}

func (s *Signal) Progress() float64 { return s.value }

func (s *Signal) Subscribe(fn func(float64)) func() {
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

// Set clamps v to [0,1] and notifies subscribers when the value changed.
func (s *Signal) Set(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = clamp01(v)
	if v == s.value {
		return
	}
	s.value = v
	for _, fn := range s.subs {
		fn(v)
	}
}

// Add scrolls by delta.
func (s *Signal) Add(delta float64) { s.Set(s.value + delta) }

// Subscribers is the number of live subscriptions.
func (s *Signal) Subscribers() int { return len(s.subs) }

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
