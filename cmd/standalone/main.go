//go:build !libretro && !ios

package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/user-none/eblitui/standalone"

	"github.com/user-none/amulet/adapter"
	"github.com/user-none/amulet/emu"
)

func main() {
	romPath := flag.String("rom", "", "path to program image (opens UI if not provided)")
	regionFlag := flag.String("region", "ntsc", "region: ntsc or pal")
	strictStack := flag.Bool("strict-stack", false, "fault on data stack underflow")
	demo := flag.Bool("demo", false, "preload the demo scene")
	scenePath := flag.String("scene", "", "Lua scene script run before the program starts")
	flag.Parse()
	defer glog.Flush()

	factory := &adapter.Factory{
		DemoScene:   *demo,
		SceneScript: *scenePath,
	}

	if *romPath != "" {
		options := map[string]string{}
		if *strictStack {
			options[emu.OptionStrictStack] = "true"
		}
		if err := standalone.RunDirect(factory, *romPath, *regionFlag, options); err != nil {
			glog.Exit(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		glog.Exit(err)
	}
}
