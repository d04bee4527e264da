// Package config loads the YAML settings file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

type Settings struct {
	Window   Window            `yaml:"window"`
	Assets   Assets            `yaml:"assets"`
	Camera   Camera            `yaml:"camera"`
	Ship     Ship              `yaml:"ship"`
	Skybox   Skybox            `yaml:"skybox"`
	Shadow   Shadow            `yaml:"shadow"`
	Lighting Lighting          `yaml:"lighting"`
	Controls map[string]string `yaml:"controls"`
}

type Window struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	VSync      bool   `yaml:"vsync"`
	Fullscreen bool   `yaml:"fullscreen_on_lock"`
}

type Assets struct {
	Model   string `yaml:"model"`
	BRDFLUT string `yaml:"brdf_lut"`
}

type Camera struct {
	FOV  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
	// ShipDelta is the chase offset in camera space.
	ShipDelta          [3]float32 `yaml:"ship_delta"`
	Discipline         string     `yaml:"discipline"`
	PointerSensitivity float32    `yaml:"pointer_sensitivity"`
	BaseRate           float32    `yaml:"base_rate"`
	BoostFactor        float32    `yaml:"boost_factor"`
	RotationRate       float32    `yaml:"rotation_rate"`
}

type Ship struct {
	MaxVelocity  float32    `yaml:"max_velocity"`
	ThrustGain   float32    `yaml:"thrust_gain"`
	ThrustDecay  float32    `yaml:"thrust_decay"`
	EngineOffset [3]float32 `yaml:"engine_offset"`
}

type Skybox struct {
	Resolution    int     `yaml:"resolution"`
	BaseThreshold float32 `yaml:"base_threshold"`
	Policy        string  `yaml:"policy"`
	Generator     string  `yaml:"generator"`
	Seed          int64   `yaml:"seed"`
	NoiseScale    float32 `yaml:"noise_scale"`
	Parallax      float32 `yaml:"parallax"`
	DiffuseSize   int     `yaml:"diffuse_size"`
}

type Shadow struct {
	Resolution int     `yaml:"resolution"`
	HalfExtent float32 `yaml:"half_extent"`
	Far        float32 `yaml:"far"`
	// Receivers lists mesh or node names drawn with shadow sampling. Empty
	// means every mesh receives shadows.
	Receivers []string `yaml:"receivers"`
}

type Lighting struct {
	EngineColor  [3]float32 `yaml:"engine_color"`
	AmbientColor [3]float32 `yaml:"ambient_color"`
	Attenuation  float32    `yaml:"attenuation"`
}

func Default() Settings {
	return Settings{
		Window: Window{
			Width:      1280,
			Height:     720,
			Title:      "spaceflight",
			VSync:      true,
			Fullscreen: false,
		},
		Assets: Assets{
			Model:   "resources/45-e/scene.gltf",
			BRDFLUT: "resources/brdfLUT.png",
		},
		Camera: Camera{
			FOV:                45,
			Near:               0.1,
			Far:                500,
			ShipDelta:          [3]float32{0, 0, -15},
			Discipline:         "relative",
			PointerSensitivity: 0.001,
			BaseRate:           0.1,
			BoostFactor:        3,
			RotationRate:       0.15,
		},
		Ship: Ship{
			MaxVelocity:  0.5,
			ThrustGain:   0.005,
			ThrustDecay:  0.01,
			EngineOffset: [3]float32{0, 0.28, 6.7},
		},
		Skybox: Skybox{
			Resolution:    1024,
			BaseThreshold: 10,
			Policy:        "progressive",
			Generator:     "gpu",
			Seed:          1,
			NoiseScale:    4,
			Parallax:      0.002,
			DiffuseSize:   16,
		},
		Shadow: Shadow{
			Resolution: 1024,
			HalfExtent: 4,
			Far:        64,
			Receivers:  []string{"Cube.021_0-primitive-0"},
		},
		Lighting: Lighting{
			EngineColor:  [3]float32{0.2, 0.5, 0.8},
			AmbientColor: [3]float32{0.2, 0.5, 0.8},
			Attenuation:  0.01,
		},
		Controls: map[string]string{
			"move_forward":         "W",
			"move_back":            "S",
			"move_left":            "A",
			"move_right":           "D",
			"move_up":              "Z",
			"move_down":            "C",
			"roll_left":            "Q",
			"roll_right":           "E",
			"reset_camera":         "X",
			"boost":                "LeftShift",
			"toggle_free_camera":   "V",
			"toggle_camera_light":  "L",
			"toggle_debug_objects": "P",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Controls in the file replace individual bindings, not the whole map.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config: %w", err)
	}

	defaults := s.Controls
	s.Controls = nil
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config %q: %w", path, err)
	}
	for action, key := range defaults {
		if _, ok := s.Controls[action]; !ok {
			if s.Controls == nil {
				s.Controls = make(map[string]string)
			}
			s.Controls[action] = key
		}
	}

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("config %q: %w", path, err)
	}
	return s, nil
}

func (s Settings) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(s.Window.Width > 0 && s.Window.Height > 0, "window size %dx%d", s.Window.Width, s.Window.Height)
	check(s.Camera.FOV > 0 && s.Camera.FOV < 180, "camera fov %v", s.Camera.FOV)
	check(s.Camera.Near > 0 && s.Camera.Far > s.Camera.Near, "camera clip range %v..%v", s.Camera.Near, s.Camera.Far)
	check(s.Camera.Discipline == "relative" || s.Camera.Discipline == "absolute", "camera discipline %q", s.Camera.Discipline)
	check(s.Ship.MaxVelocity > 0, "ship max_velocity %v", s.Ship.MaxVelocity)
	check(s.Skybox.Resolution > 0, "skybox resolution %d", s.Skybox.Resolution)
	check(s.Skybox.BaseThreshold > 0, "skybox base_threshold %v", s.Skybox.BaseThreshold)
	check(s.Skybox.Policy == "instant" || s.Skybox.Policy == "progressive", "skybox policy %q", s.Skybox.Policy)
	check(s.Skybox.Generator == "gpu" || s.Skybox.Generator == "cpu", "skybox generator %q", s.Skybox.Generator)
	check(s.Skybox.DiffuseSize > 0, "skybox diffuse_size %d", s.Skybox.DiffuseSize)
	check(s.Shadow.Resolution > 0, "shadow resolution %d", s.Shadow.Resolution)
	check(s.Shadow.HalfExtent > 0 && s.Shadow.Far > 0, "shadow volume %v/%v", s.Shadow.HalfExtent, s.Shadow.Far)

	return errors.Join(errs...)
}
