package scene

import "github.com/user-none/amulet/emu"

// DemoPalette is a grey ramp followed by primaries, secondaries and accents.
var DemoPalette = []RGB{
	{0, 0, 0}, {2, 2, 2}, {4, 4, 4}, {8, 8, 8}, {12, 12, 12}, {15, 15, 15},
	{15, 0, 0}, {0, 15, 0}, {0, 0, 15},
	{15, 15, 0}, {0, 15, 15}, {15, 0, 15},
	{15, 6, 0}, {10, 0, 15}, {0, 12, 6}, {15, 8, 8},
}

// demoProgram traces an incrementing counter forever:
//
//	IM1 5; SYS TRACE; loop: IM1 2; ADD; SYS TRACE; HOP loop
var demoProgram = []byte{
	emu.OpIM1, 0x05,
	emu.OpSYS, emu.SysTrace,
	emu.OpIM1, 0x02,
	emu.OpADD,
	emu.OpSYS, emu.SysTrace,
	emu.OpHOP, 0xFB,
}

// DemoProgram returns a copy of the demo program image.
func DemoProgram() []byte {
	return append([]byte(nil), demoProgram...)
}

// InitDemoPalette loads DemoPalette.
func InitDemoPalette(w Writer) {
	WritePalette(w, DemoPalette)
}

// InitDemoTileset fills tiles 0-7 with test patterns. Tile 0 is colour 0 so it
// reads as transparent when used by a sprite.
func InitDemoTileset(w Writer) {
	LoadTileset(w, map[uint8]Tile{
		0: SolidTile(0),
		1: SolidTile(7),
		2: SolidTile(10),
		3: CheckerTile(3, 12),
		4: CheckerTile(1, 5),
		5: StripeTile(2, 0, true),
		6: StripeTile(4, 0, false),
		7: GradientTile(),
	})
}

// InitDemoTilemap repeats tiles 1-7 in 2x2 blocks, flips the top-left corner
// and puts a priority border around the map.
func InitDemoTilemap(w Writer) {
	ring := [...]uint8{1, 2, 3, 4, 5, 6, 7, 3}
	var idx Grid
	for y := range idx {
		for x := range idx[y] {
			idx[y][x] = ring[(x/2+y/2)%len(ring)]
		}
	}
	SetTilemapIndices(w, &idx)

	attrs := AttrGrid(4, 4, 1)
	SetTilemapAttrs(w, &attrs)
}

// InitDemoSprites places an 8x8 priority sprite, a flipped 8x8 sprite and a
// 16x16 priority sprite.
func InitDemoSprites(w Writer) {
	PlaceSprite(w, 0, 40, 40, 7, SpriteAttr(SpriteOptions{Priority: true}))
	PlaceSprite(w, 1, 60, 40, 7, SpriteAttr(SpriteOptions{HFlip: true, VFlip: true}))
	PlaceSprite(w, 2, 100, 80, 3, SpriteAttr(SpriteOptions{Large: true, Priority: true}))
}

// InitDemoScene loads the full demo and enables background and sprites.
func InitDemoScene(w Writer) {
	InitDemoPalette(w)
	InitDemoTileset(w)
	InitDemoTilemap(w)
	InitDemoSprites(w)
	w.Write8(emu.RegDisplayControl, emu.DisplayEnable|emu.DisplaySprites|emu.DisplayBackground)
}
