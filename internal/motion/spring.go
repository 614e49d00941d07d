package motion

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/harmonica"
)

// Params configure a damped spring. Stiffness, damping and mass follow the
// usual second-order model m*x'' = -k*(x-target) - c*x'.
type Params struct {
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
	Mass      float64 `yaml:"mass"`
	RestDelta float64 `yaml:"rest_delta"`
	RestSpeed float64 `yaml:"rest_speed"`
}

// DefaultParams is a heavy, over-damped spring.
func DefaultParams() Params {
	return Params{
		Stiffness: 60,
		Damping:   45,
		Mass:      1,
		RestDelta: 0.001,
		RestSpeed: 0.01,
	}
}

func (p Params) Validate() error {
	if !(p.Stiffness > 0) || !(p.Damping > 0) || !(p.Mass > 0) {
		return fmt.Errorf("spring: stiffness, damping and mass must be positive (k=%v c=%v m=%v)", p.Stiffness, p.Damping, p.Mass)
	}
	if !(p.RestDelta > 0) || p.RestSpeed < 0 {
		return errors.New("spring: rest_delta must be positive and rest_speed non-negative")
	}
	return nil
}

// AngularFrequency is sqrt(k/m).
func (p Params) AngularFrequency() float64 {
	return math.Sqrt(p.Stiffness / p.Mass)
}

// DampingRatio is c / (2*sqrt(k*m)). 1 is critical damping.
func (p Params) DampingRatio() float64 {
	return p.Damping / (2 * math.Sqrt(p.Stiffness*p.Mass))
}

// MaxOvershoot is the largest fraction of a step change the spring can
// overshoot when starting from rest. Zero for critical and over-damping.
func (p Params) MaxOvershoot() float64 {
	z := p.DampingRatio()
	if z >= 1 {
		return 0
	}
	return math.Exp(-math.Pi * z / math.Sqrt(1-z*z))
}

// Spring smooths a target value. It integrates only while awake and goes to
// sleep once within RestDelta of the target and slower than RestSpeed.
type Spring struct {
	params Params

	spring harmonica.Spring
	dt     float64

	pos    float64
	vel    float64
	target float64
	awake  bool
}

func NewSpring(p Params) (*Spring, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Spring{params: p}, nil
}

func (s *Spring) Params() Params { return s.params }

func (s *Spring) Value() float64 { return s.pos }

func (s *Spring) Velocity() float64 { return s.vel }

func (s *Spring) Target() float64 { return s.target }

// Settled reports whether the spring is asleep at its target.
func (s *Spring) Settled() bool { return !s.awake }

// SetTarget moves the equilibrium and wakes the spring if it is not there yet.
func (s *Spring) SetTarget(t float64) {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return
	}
	s.target = t
	if s.pos != t || s.vel != 0 {
		s.awake = true
	}
}

// Jump places the spring at v, at rest, with v as its target.
func (s *Spring) Jump(v float64) {
	s.pos, s.vel, s.target = v, 0, v
	s.awake = false
}

// Step advances the spring by dt seconds and reports whether the value moved.
func (s *Spring) Step(dt float64) (float64, bool) {
	if !s.awake || !(dt > 0) {
		return s.pos, false
	}

	if dt != s.dt {
		s.spring = harmonica.NewSpring(dt, s.params.AngularFrequency(), s.params.DampingRatio())
		s.dt = dt
	}

	prev := s.pos
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)

	if math.Abs(s.pos-s.target) < s.params.RestDelta && math.Abs(s.vel) < s.params.RestSpeed {
		s.pos = s.target
		s.vel = 0
		s.awake = false
	}

	return s.pos, s.pos != prev
}
