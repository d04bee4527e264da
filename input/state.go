// Package input turns raw key and pointer events into per-frame motion of
// the camera rig.
package input

import "fmt"

// Action is a logical control, bound to a physical key code by Bindings.
type Action int

const (
	MoveLeft Action = iota
	MoveRight
	MoveForward
	MoveBack
	MoveUp
	MoveDown
	RollLeft
	RollRight
	ResetCamera
	Boost
	ToggleFreeCamera
	ToggleCameraLight
	ToggleDebugObjects

	actionCount
)

var actionNames = [actionCount]string{
	MoveLeft:           "move_left",
	MoveRight:          "move_right",
	MoveForward:        "move_forward",
	MoveBack:           "move_back",
	MoveUp:             "move_up",
	MoveDown:           "move_down",
	RollLeft:           "roll_left",
	RollRight:          "roll_right",
	ResetCamera:        "reset_camera",
	Boost:              "boost",
	ToggleFreeCamera:   "toggle_free_camera",
	ToggleCameraLight:  "toggle_camera_light",
	ToggleDebugObjects: "toggle_debug_objects",
}

func (a Action) String() string {
	if a < 0 || a >= actionCount {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction looks up an action by its config name.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return Action(a), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Bindings maps actions to key codes. Several actions may share a key.
type Bindings map[Action]int

// Triggers are the toggled mode flags. They flip on key release only.
type Triggers struct {
	FreeCamera   bool
	CameraLight  bool
	DebugObjects bool
	// BackToFreeCamera is raised when free-camera mode is switched on and
	// cleared by the first frame that observes it.
	BackToFreeCamera bool
}

// Sink receives events from a window. Implementations only record state;
// they never draw.
type Sink interface {
	KeyDown(key int)
	KeyUp(key int)
	PointerMoved(dx, dy float64, locked bool)
}

// State is the shared input state written by event callbacks and read once
// per frame by the Mapper. Both run on the render thread, so it is not
// locked.
type State struct {
	bindings Bindings
	held     map[int]bool

	Triggers Triggers

	pointerYaw   float32
	pointerPitch float32
}

var _ Sink = (*State)(nil)

func NewState(bindings Bindings) *State {
	return &State{
		bindings: bindings,
		held:     make(map[int]bool),
	}
}

func (s *State) KeyDown(key int) {
	s.held[key] = true
}

func (s *State) KeyUp(key int) {
	delete(s.held, key)

	if s.bound(ToggleCameraLight, key) {
		s.Triggers.CameraLight = !s.Triggers.CameraLight
	}
	if s.bound(ToggleDebugObjects, key) {
		s.Triggers.DebugObjects = !s.Triggers.DebugObjects
	}
	if s.bound(ToggleFreeCamera, key) {
		s.Triggers.FreeCamera = !s.Triggers.FreeCamera
		if s.Triggers.FreeCamera {
			s.Triggers.BackToFreeCamera = true
		}
	}
}

// PointerMoved accumulates a cursor delta in pixels. A locked pointer turns
// the view against the motion; dragging an unlocked pointer grabs the view
// and turns it with the motion.
func (s *State) PointerMoved(dx, dy float64, locked bool) {
	if locked {
		dx, dy = -dx, -dy
	}
	s.pointerYaw += float32(dx)
	s.pointerPitch += float32(dy)
}

// TakePointer returns the pointer delta accumulated since the last call and
// resets it.
func (s *State) TakePointer() (yaw, pitch float32) {
	yaw, pitch = s.pointerYaw, s.pointerPitch
	s.pointerYaw, s.pointerPitch = 0, 0
	return yaw, pitch
}

// ConsumeTransition reports and clears BackToFreeCamera.
func (s *State) ConsumeTransition() bool {
	t := s.Triggers.BackToFreeCamera
	s.Triggers.BackToFreeCamera = false
	return t
}

func (s *State) Held(a Action) bool {
	key, ok := s.bindings[a]
	return ok && s.held[key]
}

// ThrustHeld reports whether the ship is receiving forward or back input.
// Opposed keys cancel, so holding both counts as no input.
func (s *State) ThrustHeld() bool {
	return !s.Triggers.FreeCamera && axis(s, MoveBack, MoveForward) != 0
}

func (s *State) bound(a Action, key int) bool {
	k, ok := s.bindings[a]
	return ok && k == key
}
