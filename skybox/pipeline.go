// Package skybox keeps a procedural space cubemap in step with the viewer.
// Two cubemaps are crossfaded by displacement; when the viewer moves past a
// threshold a fresh one is rendered, either at once or one face per frame,
// and the pair is swapped when it is complete.
package skybox

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	smath "spaceflight/math"
)

// ErrIncompleteTarget is returned by targets whose framebuffer cannot be
// completed for a face.
var ErrIncompleteTarget = errors.New("skybox: incomplete render target")

// Cubemap is a backend texture handle.
type Cubemap uint32

// Target renders one face of a cubemap as seen from position.
type Target interface {
	RenderFace(cube Cubemap, face Face, position mgl32.Vec3) error
}

type Policy int

const (
	// Instant renders all six faces in the frame that triggers regeneration.
	Instant Policy = iota
	// Progressive renders one face per frame.
	Progressive
)

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "instant", "":
		return Instant, nil
	case "progressive":
		return Progressive, nil
	}
	return Instant, fmt.Errorf("unknown skybox policy %q", s)
}

const idle = -1

// Pipeline is the regeneration state machine. The displayed sky is
// mix(Current, Next, Blend). New renders go into Current while Blend is
// held at 1, so the face being drawn is never on screen.
type Pipeline struct {
	target Target
	policy Policy

	current Cubemap
	next    Cubemap

	threshold float32
	blend     float32

	initialized bool
	lastRegen   mgl32.Vec3
	regenAt     mgl32.Vec3
	cursor      int
}

func NewPipeline(target Target, current, next Cubemap, threshold float32, policy Policy) *Pipeline {
	return &Pipeline{
		target:    target,
		policy:    policy,
		current:   current,
		next:      next,
		threshold: threshold,
		cursor:    idle,
	}
}

func (p *Pipeline) Current() Cubemap       { return p.current }
func (p *Pipeline) Next() Cubemap          { return p.next }
func (p *Pipeline) Blend() float32         { return p.blend }
func (p *Pipeline) Threshold() float32     { return p.threshold }
func (p *Pipeline) LastRegen() mgl32.Vec3  { return p.lastRegen }
func (p *Pipeline) Regenerating() bool     { return p.cursor != idle }
func (p *Pipeline) SetThreshold(t float32) { p.threshold = t }

// Update advances the pipeline for a viewer at position. A face that fails
// to render is retried on the next call.
func (p *Pipeline) Update(position mgl32.Vec3) error {
	if !p.initialized {
		return p.initialize(position)
	}

	if p.cursor == idle {
		delta := smath.Clamp(position.Sub(p.lastRegen).Len(), 0, p.threshold)
		if delta < p.threshold {
			p.blend = delta / p.threshold
			return nil
		}
		p.regenAt = position
		p.cursor = 0
	}

	p.blend = 1
	for p.cursor < FaceCount {
		if err := p.target.RenderFace(p.current, Face(p.cursor), p.regenAt); err != nil {
			return fmt.Errorf("skybox: regenerate face %v: %w", Face(p.cursor), err)
		}
		p.cursor++
		if p.policy == Progressive {
			break
		}
	}

	if p.cursor == FaceCount {
		p.current, p.next = p.next, p.current
		p.lastRegen = p.regenAt
		p.blend = 0
		p.cursor = idle
	}
	return nil
}

func (p *Pipeline) initialize(position mgl32.Vec3) error {
	for _, cube := range []Cubemap{p.current, p.next} {
		for f := Face(0); f < FaceCount; f++ {
			if err := p.target.RenderFace(cube, f, position); err != nil {
				return fmt.Errorf("skybox: initial render of face %v: %w", f, err)
			}
		}
	}
	p.initialized = true
	p.lastRegen = position
	p.blend = 0
	return nil
}
