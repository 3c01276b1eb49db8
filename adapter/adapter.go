package adapter

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/amulet/emu"
	"github.com/user-none/amulet/scene"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the amulet console.
type Factory struct {
	// Config is the machine layout; nil uses emu.DefaultConfig. Its Region
	// is replaced by the region passed to CreateEmulator.
	Config *emu.Config

	// DemoScene preloads the demo palette, tiles, map and sprites. With an
	// empty program it also runs the demo program.
	DemoScene bool

	// SceneScript is a Lua file run against the PPU after creation.
	SceneScript string
}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            emu.Name,
		ConsoleName:     "Amulet",
		Extensions:      []string{".bin", ".amu"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.MaxScreenHeight,
		AspectRatio:     float64(emu.ScreenWidth) / float64(emu.ScreenHeight),
		SampleRate:      emu.SampleRate,
		Buttons: []emucore.Button{
			{Name: "A", ID: 4, DefaultKey: "Z", DefaultPad: "A"},
			{Name: "B", ID: 5, DefaultKey: "X", DefaultPad: "B"},
			{Name: "Select", ID: 6, DefaultKey: "ShiftRight", DefaultPad: "Back"},
			{Name: "Start", ID: 7, DefaultKey: "Enter", DefaultPad: "Start"},
		},
		Players: emu.MaxPads,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         emu.OptionStrictStack,
				Label:       "Strict Stacks",
				Description: "Fault on data stack underflow instead of reading zero",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
			},
			{
				Key:         emu.OptionAutoLatch,
				Label:       "Latch Pads Each Frame",
				Description: "Latch controller state at every VBlank",
				Type:        emucore.CoreOptionBool,
				Default:     "true",
			},
		},
		DataDirName: emu.Name,
		CoreName:    emu.Name,
		CoreVersion: emu.Version,
	}
}

// CreateEmulator creates a new emulator instance with the given program and region.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	cfg := emu.DefaultConfig()
	if f.Config != nil {
		cfg = *f.Config
	}
	cfg.Region = region

	if len(rom) == 0 && f.DemoScene {
		rom = scene.DemoProgram()
	}

	e, err := emu.NewEmulatorWithConfig(rom, cfg)
	if err != nil {
		return nil, err
	}
	if err := f.Prepare(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Prepare loads the configured scene content into e's PPU.
func (f *Factory) Prepare(e *emu.Emulator) error {
	if f.DemoScene {
		scene.InitDemoScene(e.PPU())
		glog.V(1).Info("demo scene loaded")
	}
	if f.SceneScript != "" {
		if err := scene.RunScriptFile(context.Background(), e.PPU(), f.SceneScript); err != nil {
			return fmt.Errorf("prepare scene: %w", err)
		}
		glog.V(1).Infof("scene script %s loaded", f.SceneScript)
	}
	return nil
}

// DetectRegion reports the default region. Program images carry no header,
// so the bool is always false.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emu.DefaultRegion(), false
}
