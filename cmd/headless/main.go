// Command headless runs a program for a fixed number of frames without a
// window, then optionally saves a screenshot, dumps memory or graphs the CPU
// state. It exits with status 1 if the CPU faulted.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"
	"github.com/golang/glog"
	"golang.org/x/term"

	"github.com/user-none/amulet/emu"
	"github.com/user-none/amulet/romloader"
	"github.com/user-none/amulet/scene"
)

func main() {
	romPath := flag.String("rom", "", "path to program image")
	demo := flag.Bool("demo", false, "run the demo program and scene")
	scenePath := flag.String("scene", "", "Lua scene script run before the program starts")
	frames := flag.Int("frames", 60, "number of frames to run")
	regionFlag := flag.String("region", "ntsc", "region: ntsc or pal")
	strictStack := flag.Bool("strict-stack", false, "fault on data stack underflow")
	stepsFlag := flag.Int("steps", 0, "steps per frame (0 uses the region timing)")
	pngPath := flag.String("png", "", "write the last frame as PNG")
	bmpPath := flag.String("bmp", "", "write the last frame as BMP")
	scale := flag.Int("scale", 1, "screenshot scale factor")
	dump := flag.String("dump", "", "hex dump an address range, e.g. 8000:803F")
	memvizPath := flag.String("memviz", "", "write a Graphviz graph of the CPU state")
	flag.Parse()
	defer glog.Flush()

	region, ok := emu.ParseRegion(*regionFlag)
	if !ok {
		glog.Exitf("invalid region: %s (use ntsc or pal)", *regionFlag)
	}

	var program []byte
	switch {
	case *romPath != "":
		data, name, err := romloader.LoadProgram(*romPath)
		if err != nil {
			glog.Exitf("failed to load program: %v", err)
		}
		glog.V(1).Infof("loaded %s (%d bytes)", name, len(data))
		program = data
	case *demo:
		program = scene.DemoProgram()
	default:
		fmt.Fprintln(os.Stderr, "Usage: headless -rom <file> | -demo [-frames n] [-png out.png] [-dump 8000:80FF]")
		os.Exit(2)
	}

	cfg := emu.DefaultConfig()
	cfg.Region = region
	cfg.StepsPerFrame = *stepsFlag
	cfg.Output = os.Stdout
	if *strictStack {
		cfg.StackPolicy = emu.StackStrict
	}

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

	run(e, *frames)

	if *pngPath != "" {
		if err := writeScreenshot(*pngPath, formatPNG, e.PPU().Framebuffer(), *scale); err != nil {
			glog.Exitf("png: %v", err)
		}
	}
	if *bmpPath != "" {
		if err := writeScreenshot(*bmpPath, formatBMP, e.PPU().Framebuffer(), *scale); err != nil {
			glog.Exitf("bmp: %v", err)
		}
	}
	if *dump != "" {
		start, end, err := parseRange(*dump)
		if err != nil {
			glog.Exitf("dump: %v", err)
		}
		if err := e.Bus().Dump(os.Stdout, start, end); err != nil {
			glog.Exitf("dump: %v", err)
		}
	}
	if *memvizPath != "" {
		if err := writeMemviz(*memvizPath, e); err != nil {
			glog.Exitf("memviz: %v", err)
		}
	}

	if f := e.Fault(); f != nil {
		report(os.Stderr, f, term.IsTerminal(int(os.Stderr.Fd())))
		glog.Flush()
		os.Exit(1)
	}
}

// run executes up to n frames, stopping early once the CPU has stopped.
func run(e *emu.Emulator, n int) {
	for i := 0; i < n; i++ {
		e.RunFrame()
		if !e.CPU().Running() {
			glog.V(1).Infof("CPU stopped in frame %d after %d steps", i, e.CPU().Steps())
			return
		}
	}
}

// report prints a fault, in red when w is a terminal.
func report(w io.Writer, f *emu.Fault, colour bool) {
	if colour {
		fmt.Fprintf(w, "\x1b[31m%v\x1b[0m\n", f)
		return
	}
	fmt.Fprintln(w, f)
}

func writeMemviz(path string, e *emu.Emulator) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	state := e.CPU().State()
	memviz.Map(f, &state)
	return f.Close()
}
