package emu

import (
	"testing"
)

// newFlatCPU creates a CPU over 64KB of RAM with program copied to $0000
// and the CPU reset to $0000.
func newFlatCPU(t *testing.T, program []byte) (*CPU, *Bus) {
	t.Helper()
	return newFlatCPUAt(t, 0x0000, program)
}

// newFlatCPUAt is newFlatCPU with program placed and started at org.
// Programs that run past $FFFF wrap to $0000.
func newFlatCPUAt(t *testing.T, org uint16, program []byte) (*CPU, *Bus) {
	t.Helper()
	ram, err := NewRAM(0x0000, addressSpace)
	if err != nil {
		t.Fatalf("NewRAM: %v", err)
	}
	for i, b := range program {
		ram.Write8(org+uint16(i), b)
	}
	bus, err := NewBus(ram)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	cpu := NewCPU(bus)
	cpu.Reset(org)
	return cpu, bus
}

// newMappedBus creates the standard device layout: program ROM at $0000,
// 8KB RAM at $8000, a two pad hub and a PPU.
func newMappedBus(t *testing.T, program []byte) (*Bus, *ROM, *RAM, *ControllerHub, *PPU) {
	t.Helper()
	rom, err := NewROM(0x0000, program)
	if err != nil {
		t.Fatalf("NewROM: %v", err)
	}
	ram, err := NewRAM(DefaultRAMBase, DefaultRAMSize)
	if err != nil {
		t.Fatalf("NewRAM: %v", err)
	}
	pads := NewControllerHub(2)
	ppu := NewPPU()
	bus, err := NewBus(rom, ram, pads, ppu)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	return bus, rom, ram, pads, ppu
}

// fakeVBlank is a VBlankSource the test controls.
type fakeVBlank struct {
	pending bool
	polls   int
}

func (f *fakeVBlank) TakeVBlank() bool {
	f.polls++
	if f.pending {
		f.pending = false
		return true
	}
	return false
}

// setPaletteRGB writes a 4-bit per channel colour to palette entry i.
func setPaletteRGB(p *PPU, i int, r, g, b uint8) {
	word := uint16(r&0xF)<<8 | uint16(g&0xF)<<4 | uint16(b&0xF)
	p.Write8(uint16(PaletteBase+i*2), uint8(word))
	p.Write8(uint16(PaletteBase+i*2+1), uint8(word>>8))
}

// setSolidTile fills tile id with colour index ci.
func setSolidTile(p *PPU, id int, ci uint8) {
	v := ci<<4 | ci
	for i := 0; i < TileBytes; i++ {
		p.Write8(uint16(TilesetBase+id*TileBytes+i), v)
	}
}

// setTileRow sets one row of tile id from eight colour indices.
func setTileRow(p *PPU, id, row int, pixels [8]uint8) {
	base := TilesetBase + id*TileBytes + row*4
	for i := 0; i < 4; i++ {
		p.Write8(uint16(base+i), pixels[i*2]<<4|pixels[i*2+1]&0xF)
	}
}

// setCell sets the tile and attribute of map cell (cx, cy).
func setCell(p *PPU, cx, cy int, tile, attr uint8) {
	off := cy*MapWidth + cx
	p.Write8(uint16(TilemapIndexBase+off), tile)
	p.Write8(uint16(TilemapAttrBase+off), attr)
}

// fillMap sets every map cell to tile with attr.
func fillMap(p *PPU, tile, attr uint8) {
	for cy := 0; cy < MapHeight; cy++ {
		for cx := 0; cx < MapWidth; cx++ {
			setCell(p, cx, cy, tile, attr)
		}
	}
}

// setSprite writes the four used bytes of OAM slot.
func setSprite(p *PPU, slot int, x, y, tile, attr uint8) {
	base := OAMBase + slot*SpriteStride
	p.Write8(uint16(base), x)
	p.Write8(uint16(base+1), y)
	p.Write8(uint16(base+2), tile)
	p.Write8(uint16(base+3), attr)
}

// framePixels returns a copy of the current framebuffer bytes.
func framePixels(p *PPU) []byte {
	return append([]byte(nil), p.Framebuffer().Pix...)
}
