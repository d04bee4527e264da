package input

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	smath "spaceflight/math"
	"spaceflight/rig"
)

// Params tunes the mapping from held keys to motion. Rates are per tick,
// where one tick is a sixtieth of a second.
type Params struct {
	BaseRate           float32
	BoostFactor        float32
	RotationRate       float32
	ShipRateFactor     float32
	PointerSensitivity float32

	ThrustGain      float32
	ThrustDecay     float32
	MaxShipVelocity float32
	// BrakeFactor scales the ship velocity every frame the reset key is held.
	BrakeFactor float32
}

func DefaultParams() Params {
	return Params{
		BaseRate:           0.1,
		BoostFactor:        3,
		RotationRate:       0.15,
		ShipRateFactor:     0.5,
		PointerSensitivity: 0.001,
		ThrustGain:         0.005,
		ThrustDecay:        0.01,
		MaxShipVelocity:    0.5,
		BrakeFactor:        0.95,
	}
}

// Mapper converts one frame of input into rig motion.
type Mapper struct {
	Params Params
}

func NewMapper(p Params) *Mapper {
	return &Mapper{Params: p}
}

// axis returns +1 or -1 when exactly one key of an opposed pair is held.
func axis(s *State, neg, pos Action) float32 {
	n, p := s.Held(neg), s.Held(pos)
	switch {
	case p && !n:
		return 1
	case n && !p:
		return -1
	}
	return 0
}

// Direction is the held-key accumulator: X right, Y up, Z forward, W roll.
func Direction(s *State) mgl32.Vec4 {
	return mgl32.Vec4{
		axis(s, MoveLeft, MoveRight),
		axis(s, MoveDown, MoveUp),
		axis(s, MoveBack, MoveForward),
		axis(s, RollLeft, RollRight),
	}
}

// Update applies held keys and the accumulated pointer delta to the rig.
// In free-camera mode the keys fly the camera; otherwise they steer the
// ship and set its thrust. The pointer always turns the camera, which in
// chase mode orbits it around the ship.
func (m *Mapper) Update(s *State, r *rig.Rig, ticks float32) {
	p := m.Params
	k := ticks * p.BaseRate
	dir := Direction(s)

	if s.Held(ResetCamera) {
		rig.ResetUp(r.Camera, math32.Min(1, k))
		r.Ship.Velocity = r.Ship.Velocity.Mul(math32.Min(p.BrakeFactor/k, p.BrakeFactor))
	}
	if s.Held(Boost) {
		k *= p.BoostFactor
	}

	if s.Triggers.FreeCamera {
		cam := r.Camera
		delta := cam.Right.Mul(dir[0]).
			Add(cam.Up.Mul(dir[1])).
			Add(cam.Front.Mul(dir[2]))
		cam.Translate(delta.Mul(k))
		if dir[3] != 0 {
			cam.Rotate(0, 0, dir[3]*k*p.RotationRate)
		}
	} else {
		k *= p.ShipRateFactor
		turn := k * p.RotationRate
		if dir[0] != 0 || dir[1] != 0 || dir[3] != 0 {
			r.Ship.Rotate(-dir[0]*turn, dir[1]*turn, dir[3]*turn)
		}
		r.Ship.Thrust = smath.Clamp(r.Ship.Thrust+k*dir[2], -1, 1)
	}

	yaw, pitch := s.TakePointer()
	if yaw != 0 || pitch != 0 {
		r.Camera.Rotate(yaw*p.PointerSensitivity, pitch*p.PointerSensitivity, 0)
	}
}

// Integrate advances the ship by ticks. Speed is clamped by uniform
// rescaling so the heading survives the clamp. Without thrust input the
// thrust decays linearly and stops at exactly zero.
func (m *Mapper) Integrate(ship *rig.Ship, ticks float32, thrustHeld bool) {
	p := m.Params

	ship.Velocity = ship.Velocity.Add(ship.Front.Mul(ship.Thrust * p.ThrustGain))
	ship.Velocity = smath.ClampLength(ship.Velocity, p.MaxShipVelocity)

	if !thrustHeld {
		step := p.ThrustDecay * ticks
		if math32.Abs(ship.Thrust) <= step {
			ship.Thrust = 0
		} else {
			ship.Thrust -= step * smath.Sign(ship.Thrust)
		}
	}

	ship.Translate(ship.Velocity.Mul(ticks))
}
