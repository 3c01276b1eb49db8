//go:build !libretro

// Package cli runs the emulator in a plain window without the full UI.
package cli

import (
	"bytes"
	"fmt"
	"image/png"
	"sort"

	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	ebitenbridge "github.com/user-none/amulet/bridge/ebiten"
	"github.com/user-none/amulet/emu"
	"github.com/user-none/amulet/storage"
)

// buttonBits maps config button names to pad register bits.
var buttonBits = map[string]uint8{
	"up":     emu.PadUp,
	"down":   emu.PadDown,
	"left":   emu.PadLeft,
	"right":  emu.PadRight,
	"a":      emu.PadA,
	"b":      emu.PadB,
	"select": emu.PadSelect,
	"start":  emu.PadStart,
}

type binding struct {
	key ebiten.Key
	bit uint8
}

// parseBindings turns a button-to-key-name map into key bindings.
func parseBindings(keys map[string]string) ([]binding, error) {
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]binding, 0, len(keys))
	for _, name := range names {
		bit, ok := buttonBits[name]
		if !ok {
			return nil, fmt.Errorf("unknown button %q", name)
		}
		var k ebiten.Key
		if err := k.UnmarshalText([]byte(keys[name])); err != nil {
			return nil, fmt.Errorf("button %s: %w", name, err)
		}
		out = append(out, binding{key: k, bit: bit})
	}
	return out, nil
}

// Runner wraps an emulator for command-line mode. The emulator never polls
// input itself; the runner reads the keyboard and gamepads each frame and
// sets the pad state, as a libretro frontend would.
type Runner struct {
	emulator *emu.Emulator
	screen   *ebitenbridge.Screen
	pads     [emu.MaxPads][]binding
	title    string

	clipboardOK bool
	faultShown  bool
}

// NewRunner creates a new Runner wrapping the given emulator.
func NewRunner(e *emu.Emulator, input storage.InputConfig, title string) (*Runner, error) {
	r := &Runner{
		emulator: e,
		screen:   ebitenbridge.NewScreen(e),
		title:    title,
	}
	for i, keys := range []map[string]string{input.Pad1, input.Pad2} {
		b, err := parseBindings(keys)
		if err != nil {
			return nil, fmt.Errorf("pad %d: %w", i+1, err)
		}
		r.pads[i] = b
	}

	if err := clipboard.Init(); err != nil {
		glog.Warningf("clipboard unavailable, screenshots disabled: %v", err)
	} else {
		r.clipboardOK = true
	}
	return r, nil
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	r.pollInput()
	r.emulator.RunFrame()

	if f := r.emulator.Fault(); f != nil && !r.faultShown {
		ebiten.SetWindowTitle(fmt.Sprintf("%s - %s at $%04X", r.title, f.Kind, f.PC))
		r.faultShown = true
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		r.screenshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		r.emulator.Reset()
		ebiten.SetWindowTitle(r.title)
		r.faultShown = false
	}
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	r.screen.DrawToScreen(screen)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.screen.Layout(outsideWidth, outsideHeight)
}

// pollInput reads keyboard and gamepad input and sets the live pad state.
func (r *Runner) pollInput() {
	var state [emu.MaxPads]uint8
	for i, bindings := range r.pads {
		for _, b := range bindings {
			if ebiten.IsKeyPressed(b.key) {
				state[i] |= b.bit
			}
		}
	}

	// Gamepads map to pads in connection order.
	for i, id := range ebiten.AppendGamepadIDs(nil) {
		if i >= emu.MaxPads {
			break
		}
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		state[i] |= gamepadBits(id)
	}

	for i, bits := range state {
		r.emulator.Pads().SetState(i, bits)
	}
}

func gamepadBits(id ebiten.GamepadID) uint8 {
	var bits uint8
	buttons := []struct {
		button ebiten.StandardGamepadButton
		bit    uint8
	}{
		{ebiten.StandardGamepadButtonLeftTop, emu.PadUp},
		{ebiten.StandardGamepadButtonLeftBottom, emu.PadDown},
		{ebiten.StandardGamepadButtonLeftLeft, emu.PadLeft},
		{ebiten.StandardGamepadButtonLeftRight, emu.PadRight},
		{ebiten.StandardGamepadButtonRightBottom, emu.PadA},
		{ebiten.StandardGamepadButtonRightRight, emu.PadB},
		{ebiten.StandardGamepadButtonCenterLeft, emu.PadSelect},
		{ebiten.StandardGamepadButtonCenterRight, emu.PadStart},
	}
	for _, b := range buttons {
		if ebiten.IsStandardGamepadButtonPressed(id, b.button) {
			bits |= b.bit
		}
	}

	// Left analog stick (with deadzone)
	const deadzone = 0.5
	axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	if axisX < -deadzone {
		bits |= emu.PadLeft
	}
	if axisX > deadzone {
		bits |= emu.PadRight
	}
	if axisY < -deadzone {
		bits |= emu.PadUp
	}
	if axisY > deadzone {
		bits |= emu.PadDown
	}
	return bits
}

// screenshot copies the current frame to the clipboard as a PNG.
func (r *Runner) screenshot() {
	if !r.clipboardOK {
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.emulator.PPU().Framebuffer()); err != nil {
		glog.Errorf("screenshot: %v", err)
		return
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	glog.Infof("frame %d copied to clipboard", r.emulator.Frame())
}
