// Package core owns the GLFW window: the GL context, the display size and
// the raw input events forwarded to an input.Sink.
package core

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"spaceflight/input"
)

func init() {
	runtime.LockOSThread()
}

// clickSlop is how far, in pixels, the cursor may travel between press and
// release for the release to count as a click.
const clickSlop = 4

type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	fullscreenOnLock bool
	locked           bool
	dragging         bool
	pressX, pressY   float64
	lastX, lastY     float64
	hasLast          bool
	windowedX        int
	windowedY        int
	windowedW        int
	windowedH        int
}

type WindowConfig struct {
	Width            int
	Height           int
	Title            string
	Resizable        bool
	VSync            bool
	FullscreenOnLock bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:     1280,
		Height:    720,
		Title:     "spaceflight",
		Resizable: true,
		VSync:     true,
	}
}

// NewWindow creates a window with a current OpenGL 4.1 core context.
func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w := &Window{
		Handle:           handle,
		Title:            config.Title,
		fullscreenOnLock: config.FullscreenOnLock,
	}
	w.Width, w.Height = handle.GetFramebufferSize()

	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.Width = width
		w.Height = height
	})

	return w, nil
}

// AttachInput forwards key and pointer events to sink. Escape releases the
// pointer lock and is not forwarded.
func (w *Window) AttachInput(sink input.Sink) {
	w.Handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape {
			if action == glfw.Release && w.locked {
				w.SetPointerLock(false)
			}
			return
		}
		switch action {
		case glfw.Press:
			sink.KeyDown(int(key))
		case glfw.Release:
			sink.KeyUp(int(key))
		}
	})

	w.Handle.SetMouseButtonCallback(func(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		x, y := win.GetCursorPos()
		switch action {
		case glfw.Press:
			w.dragging = !w.locked
			w.pressX, w.pressY = x, y
		case glfw.Release:
			w.dragging = false
			if abs(x-w.pressX) <= clickSlop && abs(y-w.pressY) <= clickSlop {
				w.SetPointerLock(!w.locked)
			}
		}
	})

	w.Handle.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		dx, dy := x-w.lastX, y-w.lastY
		first := !w.hasLast
		w.lastX, w.lastY, w.hasLast = x, y, true
		if first {
			return
		}
		if w.locked || w.dragging {
			sink.PointerMoved(dx, dy, w.locked)
		}
	})
}

// SetPointerLock captures or releases the cursor. While captured the cursor
// is hidden and reports unbounded relative motion.
func (w *Window) SetPointerLock(locked bool) {
	if locked == w.locked {
		return
	}
	w.locked = locked
	w.hasLast = false
	if locked {
		w.Handle.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		if glfw.RawMouseMotionSupported() {
			w.Handle.SetInputMode(glfw.RawMouseMotion, glfw.True)
		}
	} else {
		w.Handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	if w.fullscreenOnLock {
		w.setFullscreen(locked)
	}
}

func (w *Window) PointerLocked() bool {
	return w.locked
}

func (w *Window) setFullscreen(on bool) {
	if on {
		w.windowedX, w.windowedY = w.Handle.GetPos()
		w.windowedW, w.windowedH = w.Handle.GetSize()
		monitor := glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()
		w.Handle.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
		return
	}
	w.Handle.SetMonitor(nil, w.windowedX, w.windowedY, w.windowedW, w.windowedH, 0)
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

// Time is the number of seconds since GLFW was initialized.
func (w *Window) Time() float64 {
	return glfw.GetTime()
}

func (w *Window) GetFramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func boolToInt(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
