package core

import (
	"fmt"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"

	"spaceflight/input"
)

var keyNames = map[string]glfw.Key{
	"Space":        glfw.KeySpace,
	"Tab":          glfw.KeyTab,
	"Enter":        glfw.KeyEnter,
	"Backspace":    glfw.KeyBackspace,
	"Up":           glfw.KeyUp,
	"Down":         glfw.KeyDown,
	"Left":         glfw.KeyLeft,
	"Right":        glfw.KeyRight,
	"LeftShift":    glfw.KeyLeftShift,
	"RightShift":   glfw.KeyRightShift,
	"LeftControl":  glfw.KeyLeftControl,
	"RightControl": glfw.KeyRightControl,
	"LeftAlt":      glfw.KeyLeftAlt,
	"RightAlt":     glfw.KeyRightAlt,
}

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		keyNames[string(c)] = glfw.KeyA + glfw.Key(c-'A')
	}
	for c := '0'; c <= '9'; c++ {
		keyNames[string(c)] = glfw.Key0 + glfw.Key(c-'0')
	}
	for i := 1; i <= 12; i++ {
		keyNames[fmt.Sprintf("F%d", i)] = glfw.KeyF1 + glfw.Key(i-1)
	}
}

// ParseKey maps a key name such as "W", "LeftShift" or "F3" to its GLFW
// key code. Single letters are case-insensitive.
func ParseKey(name string) (int, error) {
	if len(name) == 1 {
		name = strings.ToUpper(name)
	}
	k, ok := keyNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return int(k), nil
}

// ParseBindings resolves an action-name to key-name map.
func ParseBindings(controls map[string]string) (input.Bindings, error) {
	b := make(input.Bindings, len(controls))
	for actionName, keyName := range controls {
		action, err := input.ParseAction(actionName)
		if err != nil {
			return nil, fmt.Errorf("controls: %w", err)
		}
		key, err := ParseKey(keyName)
		if err != nil {
			return nil, fmt.Errorf("controls.%s: %w", actionName, err)
		}
		b[action] = key
	}
	return b, nil
}

// Bindings resolves controls against this window's key codes.
func (w *Window) Bindings(controls map[string]string) (input.Bindings, error) {
	return ParseBindings(controls)
}
