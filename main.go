//go:build !libretro

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/profile"

	"github.com/user-none/amulet/cli"
	"github.com/user-none/amulet/emu"
	"github.com/user-none/amulet/romloader"
	"github.com/user-none/amulet/scene"
	"github.com/user-none/amulet/statsview"
	"github.com/user-none/amulet/storage"
)

func main() {
	romPath := flag.String("rom", "", "path to program image")
	regionFlag := flag.String("region", "", "region: ntsc or pal (default from config)")
	configPath := flag.String("config", "", "config file (default in the user config dir)")
	scaleFlag := flag.Int("scale", 0, "window scale (default from config)")
	stepsFlag := flag.Int("steps", -1, "steps per frame (0 uses the region timing)")
	strictStack := flag.Bool("strict-stack", false, "fault on data stack underflow")
	demo := flag.Bool("demo", false, "preload the demo scene; runs the demo program without -rom")
	scenePath := flag.String("scene", "", "Lua scene script run before the program starts")
	profileMode := flag.String("profile", "", "write a profile: cpu, mem or trace")
	stats := flag.Bool("statsview", false, "serve runtime statistics on "+statsview.Address)
	flag.Parse()
	defer glog.Flush()

	if *romPath == "" && !*demo {
		fmt.Println("Usage: amulet -rom <file> | -demo [-region ntsc|pal] [-scale n] [-scene script.lua]")
		os.Exit(1)
	}

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	case "trace":
		defer profile.Start(profile.TraceProfile, profile.ProfilePath(".")).Stop()
	default:
		glog.Exitf("invalid profile mode: %s (use cpu, mem or trace)", *profileMode)
	}
	if *stats {
		statsview.Launch(os.Stdout, statsview.Address)
	}

	storage.SetConfigPath(*configPath)
	if err := storage.CreateConfigIfMissing(); err != nil {
		glog.Warningf("config not created: %v", err)
	}
	config, err := storage.LoadConfig()
	if err != nil {
		glog.Warningf("config unreadable, using defaults: %v", err)
		config = storage.DefaultConfig()
	}

	program := scene.DemoProgram()
	title := "amulet - demo"
	if *romPath != "" {
		data, name, err := romloader.LoadProgram(*romPath)
		if err != nil {
			glog.Exitf("failed to load program: %v", err)
		}
		program = data
		title = "amulet - " + name
	}

	regionName := config.Machine.Region
	if *regionFlag != "" {
		regionName = *regionFlag
	}
	region, ok := emu.ParseRegion(regionName)
	if !ok {
		glog.Exitf("invalid region: %s (use ntsc or pal)", regionName)
	}

	cfg := emu.DefaultConfig()
	cfg.Region = region
	cfg.StepsPerFrame = config.Machine.StepsPerFrame
	if *stepsFlag >= 0 {
		cfg.StepsPerFrame = *stepsFlag
	}
	if *strictStack || config.Machine.StrictStack {
		cfg.StackPolicy = emu.StackStrict
	}
	cfg.AutoLatch = !config.Machine.ManualLatch

	e, err := emu.NewEmulatorWithConfig(program, cfg)
	if err != nil {
		glog.Exitf("failed to create emulator: %v", err)
	}
	defer e.Close()

	if *demo {
		scene.InitDemoScene(e.PPU())
	}
	if *scenePath != "" {
		if err := scene.RunScriptFile(context.Background(), e.PPU(), *scenePath); err != nil {
			glog.Exit(err)
		}
	}

	runner, err := cli.NewRunner(e, config.Input, title)
	if err != nil {
		glog.Exitf("input config: %v", err)
	}

	if *scaleFlag > 0 {
		config.Window.Scale = *scaleFlag
	}
	scale := config.Window.Scale

	ebiten.SetWindowSize(emu.ScreenWidth*scale, emu.ScreenHeight*scale)
	if x, y, ok := config.Window.Position(); ok {
		ebiten.SetWindowPosition(x, y)
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(emu.ScreenWidth, emu.ScreenHeight, -1, -1)
	ebiten.SetTPS(e.GetTiming().FPS)

	if err := ebiten.RunGame(runner); err != nil {
		glog.Exit(err)
	}

	config.Window.SetPosition(ebiten.WindowPosition())
	if err := storage.SaveConfig(config); err != nil {
		glog.Warningf("config not saved: %v", err)
	}
}
