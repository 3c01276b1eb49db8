package storage

// CurrentVersion is the config schema written by this build.
const CurrentVersion = 1

// Config represents the host configuration stored in config.json
type Config struct {
	Version int           `json:"version"`
	Window  WindowConfig  `json:"window"`
	Machine MachineConfig `json:"machine"`
	Input   InputConfig   `json:"input"`
}

// WindowConfig contains window scale and position
type WindowConfig struct {
	Scale int  `json:"scale"`
	X     *int `json:"x,omitempty"` // nil = OS decides position; saved on exit
	Y     *int `json:"y,omitempty"`
}

// Position returns the saved window position. ok is false when the OS should
// place the window.
func (w WindowConfig) Position() (x, y int, ok bool) {
	if w.X == nil || w.Y == nil {
		return 0, 0, false
	}
	return *w.X, *w.Y, true
}

// SetPosition records the window position.
func (w *WindowConfig) SetPosition(x, y int) {
	w.X, w.Y = &x, &y
}

// MachineConfig contains defaults applied when a program starts
type MachineConfig struct {
	Region        string `json:"region"` // "ntsc" or "pal"
	StrictStack   bool   `json:"strictStack"`
	StepsPerFrame int    `json:"stepsPerFrame,omitempty"` // 0 = region timing
	ManualLatch   bool   `json:"manualLatch"`             // program latches pads itself
}

// InputConfig maps pad buttons to keyboard key names, one map per pad.
// Button names are up, down, left, right, a, b, select, start.
type InputConfig struct {
	Pad1 map[string]string `json:"pad1"`
	Pad2 map[string]string `json:"pad2,omitempty"`
}

// DefaultPad1Keys is the keyboard layout for pad 1
func DefaultPad1Keys() map[string]string {
	return map[string]string{
		"up":     "ArrowUp",
		"down":   "ArrowDown",
		"left":   "ArrowLeft",
		"right":  "ArrowRight",
		"a":      "Z",
		"b":      "X",
		"select": "ShiftRight",
		"start":  "Enter",
	}
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Window: WindowConfig{
			Scale: 3,
		},
		Machine: MachineConfig{
			Region: "ntsc",
		},
		Input: InputConfig{
			Pad1: DefaultPad1Keys(),
		},
	}
}
