package main

import (
	libretro "github.com/user-none/eblitui/libretro"

	"github.com/user-none/amulet/adapter"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadA, BitID: 4},     // A
		{RetroID: libretro.JoypadB, BitID: 5},     // B
		{RetroID: libretro.JoypadStart, BitID: 7}, // Start
	})
}

func main() {}
