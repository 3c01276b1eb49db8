package emu

import (
	"image"
	"image/color"
)

// Screen geometry. The background is a 28x32 grid of 8x8 tiles covering the
// whole screen, so scrolling wraps around the map.
const (
	ScreenWidth  = 224
	ScreenHeight = 256
	TileSize     = 8
	MapWidth     = ScreenWidth / TileSize  // 28
	MapHeight    = ScreenHeight / TileSize // 32
	MapCells     = MapWidth * MapHeight    // 896
)

// CPU-visible VRAM windows.
const (
	TilemapIndexBase = 0xA000
	TilemapAttrBase  = 0xA380
	OAMBase          = 0xA800
	OAMSize          = SpriteCount * SpriteStride
	PaletteBase      = 0xA900
	PaletteSize      = PaletteEntries * 2
	TilesetBase      = 0xB000
	TilesetSize      = TileCount * TileBytes

	SpriteCount    = 16
	SpriteStride   = 16 // bytes per OAM slot; 4..15 reserved
	PaletteEntries = 16
	TileCount      = 256
	TileBytes      = 32 // 8 rows of 4 bytes, two pixels per byte
)

// PPU IO registers.
const (
	RegDisplayControl = 0xE000
	RegStatus         = 0xE001
	RegScrollX        = 0xE002
	RegScrollY        = 0xE003
)

// Display control bits. They are stored for the program and host; rendering
// does not consult them.
const (
	DisplayEnable     = 1 << 0
	DisplaySprites    = 1 << 1
	DisplayBackground = 1 << 2
)

// StatusVBlank is set by SetVBlank and cleared by TakeVBlank.
const StatusVBlank = 1 << 7

// Tilemap attribute bits.
const (
	AttrHFlip    = 1 << 4
	AttrVFlip    = 1 << 5
	AttrPriority = 1 << 6 // background drawn over non-priority sprites
)

// Sprite attribute bits (OAM byte 3). Bits 0-3 are a reserved palette bank.
const (
	SpriteHFlip    = 1 << 4
	SpriteVFlip    = 1 << 5
	SpriteLarge    = 1 << 6 // 16x16 from four tiles
	SpritePriority = 1 << 7 // drawn over priority background
)

// PPU owns video memory and renders it into an RGBA framebuffer.
type PPU struct {
	tilemap [MapCells]uint8
	attrs   [MapCells]uint8
	oam     [OAMSize]uint8
	palRaw  [PaletteSize]uint8
	tileset [TilesetSize]uint8

	dispCtrl uint8
	status   uint8
	scrollX  uint8
	scrollY  uint8

	// Derived from palRaw on every palette write.
	palette [PaletteEntries]color.RGBA

	bgPriority  [ScreenWidth]bool // priority mask for the line being rendered
	framebuffer *image.RGBA
}

// NewPPU creates a PPU with zeroed VRAM and registers.
func NewPPU() *PPU {
	p := &PPU{
		framebuffer: image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight)),
	}
	p.recalcPalette()
	return p
}

func inWindow(addr uint16, base, size int) bool {
	return int(addr) >= base && int(addr) < base+size
}

// Handles reports whether addr is in one of the VRAM windows or is one of the
// four PPU registers. The gaps between windows are unmapped.
func (p *PPU) Handles(addr uint16) bool {
	return inWindow(addr, TilemapIndexBase, MapCells) ||
		inWindow(addr, TilemapAttrBase, MapCells) ||
		inWindow(addr, OAMBase, OAMSize) ||
		inWindow(addr, PaletteBase, PaletteSize) ||
		inWindow(addr, TilesetBase, TilesetSize) ||
		(addr >= RegDisplayControl && addr <= RegScrollY)
}

// Read8 returns a register or VRAM byte. Every VRAM window and register reads
// back what was last written.
func (p *PPU) Read8(addr uint16) uint8 {
	switch addr {
	case RegDisplayControl:
		return p.dispCtrl
	case RegStatus:
		return p.status
	case RegScrollX:
		return p.scrollX
	case RegScrollY:
		return p.scrollY
	}
	switch {
	case inWindow(addr, TilemapIndexBase, MapCells):
		return p.tilemap[addr-TilemapIndexBase]
	case inWindow(addr, TilemapAttrBase, MapCells):
		return p.attrs[addr-TilemapAttrBase]
	case inWindow(addr, OAMBase, OAMSize):
		return p.oam[addr-OAMBase]
	case inWindow(addr, PaletteBase, PaletteSize):
		return p.palRaw[addr-PaletteBase]
	case inWindow(addr, TilesetBase, TilesetSize):
		return p.tileset[addr-TilesetBase]
	}
	return 0
}

// Write8 stores a register or VRAM byte. Palette writes refresh the resolved
// colour cache immediately.
func (p *PPU) Write8(addr uint16, val uint8) {
	switch addr {
	case RegDisplayControl:
		p.dispCtrl = val
		return
	case RegStatus:
		p.status = val
		return
	case RegScrollX:
		p.scrollX = val
		return
	case RegScrollY:
		p.scrollY = val
		return
	}
	switch {
	case inWindow(addr, TilemapIndexBase, MapCells):
		p.tilemap[addr-TilemapIndexBase] = val
	case inWindow(addr, TilemapAttrBase, MapCells):
		p.attrs[addr-TilemapAttrBase] = val
	case inWindow(addr, OAMBase, OAMSize):
		p.oam[addr-OAMBase] = val
	case inWindow(addr, PaletteBase, PaletteSize):
		p.palRaw[addr-PaletteBase] = val
		p.recalcPalette()
	case inWindow(addr, TilesetBase, TilesetSize):
		p.tileset[addr-TilesetBase] = val
	}
}

// recalcPalette expands the packed 0x0RGB little-endian entries to RGB888.
// Each 4-bit channel c becomes c*17 so 15 maps to 255.
func (p *PPU) recalcPalette() {
	for i := range p.palette {
		word := (uint16(p.palRaw[i*2]) | uint16(p.palRaw[i*2+1])<<8) & 0x0FFF
		r := uint8(word>>8) & 0xF
		g := uint8(word>>4) & 0xF
		b := uint8(word) & 0xF
		p.palette[i] = color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 0xFF}
	}
}

// PaletteColor returns the resolved colour of palette entry i (0-15).
func (p *PPU) PaletteColor(i int) color.RGBA {
	return p.palette[i&0xF]
}

// TileRow decodes one 8-pixel row of a tile into colour indices, left to
// right, applying the flips.
func (p *PPU) TileRow(id uint8, row int, hflip, vflip bool) [TileSize]uint8 {
	row &= 7
	if vflip {
		row = 7 - row
	}
	base := int(id)*TileBytes + row*4
	var out [TileSize]uint8
	for i := 0; i < 4; i++ {
		b := p.tileset[base+i]
		out[i*2] = b >> 4
		out[i*2+1] = b & 0xF
	}
	if hflip {
		for i, j := 0, TileSize-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// SetVBlank raises the VBlank status bit. The frame loop calls it after each
// render.
func (p *PPU) SetVBlank() {
	p.status |= StatusVBlank
}

// TakeVBlank reports whether VBlank is pending and acknowledges it.
func (p *PPU) TakeVBlank() bool {
	if p.status&StatusVBlank == 0 {
		return false
	}
	p.status &^= StatusVBlank
	return true
}

// Status returns the status register.
func (p *PPU) Status() uint8 { return p.status }

// DisplayControl returns the display control register.
func (p *PPU) DisplayControl() uint8 { return p.dispCtrl }

// Scroll returns the background scroll registers.
func (p *PPU) Scroll() (x, y uint8) { return p.scrollX, p.scrollY }

// Framebuffer returns the most recently rendered frame.
func (p *PPU) Framebuffer() *image.RGBA {
	return p.framebuffer
}

// RenderFrame rasterises the current VRAM into the framebuffer and returns
// it. VRAM and registers are only read. The returned image is reused by the
// next call.
func (p *PPU) RenderFrame() *image.RGBA {
	for y := 0; y < ScreenHeight; y++ {
		p.renderBackground(y)
		p.renderSprites(y)
	}
	return p.framebuffer
}

// renderBackground draws one scanline of the scrolled tilemap and records the
// per-pixel priority mask for the sprite pass.
func (p *PPU) renderBackground(line int) {
	sy := (line + int(p.scrollY)) % ScreenHeight
	rowBase := (sy / TileSize) * MapWidth
	tileLine := sy % TileSize
	scrollX := int(p.scrollX)

	// Decode each tile row once per cell as the scanline crosses it.
	var row [TileSize]uint8
	lastCell := -1
	var attr uint8

	for x := 0; x < ScreenWidth; x++ {
		sx := (x + scrollX) % ScreenWidth
		cell := rowBase + sx/TileSize
		if cell != lastCell {
			attr = p.attrs[cell]
			row = p.TileRow(p.tilemap[cell], tileLine, attr&AttrHFlip != 0, attr&AttrVFlip != 0)
			lastCell = cell
		}
		p.framebuffer.SetRGBA(x, line, p.palette[row[sx%TileSize]])
		p.bgPriority[x] = attr&AttrPriority != 0
	}
}

// renderSprites draws the OAM slots that cross line in slot order, so a
// higher slot overwrites a lower one. Pixels off screen are clipped.
func (p *PPU) renderSprites(line int) {
	for i := 0; i < SpriteCount; i++ {
		base := i * SpriteStride
		x0 := int(p.oam[base])
		y0 := int(p.oam[base+1])
		tile := p.oam[base+2]
		attr := p.oam[base+3]

		size := TileSize
		if attr&SpriteLarge != 0 {
			size = TileSize * 2
		}
		dy := line - y0
		if dy < 0 || dy >= size {
			continue
		}
		hflip := attr&SpriteHFlip != 0
		vflip := attr&SpriteVFlip != 0
		front := attr&SpritePriority != 0

		// A 16x16 sprite is tiles id, id+1 over id+2, id+3. Flips apply
		// within each quadrant tile.
		rowTile := tile + uint8(dy/TileSize)*2
		for half := 0; half < size/TileSize; half++ {
			pixels := p.TileRow(rowTile+uint8(half), dy%TileSize, hflip, vflip)
			for px, ci := range pixels {
				screenX := x0 + half*TileSize + px
				if screenX >= ScreenWidth {
					break
				}
				// Colour 0 is transparent
				if ci == 0 {
					continue
				}
				if !front && p.bgPriority[screenX] {
					continue
				}
				p.framebuffer.SetRGBA(screenX, line, p.palette[ci])
			}
		}
	}
}

// VRAM accessors for debuggers. They return copies.

// Tilemap returns the 896 tile indices, row by row.
func (p *PPU) Tilemap() []uint8 { return append([]uint8(nil), p.tilemap[:]...) }
// Attributes returns the 896 tilemap attribute bytes.
func (p *PPU) Attributes() []uint8 { return append([]uint8(nil), p.attrs[:]...) }
// OAM returns the 16 sprite slots of SpriteStride bytes.
func (p *PPU) OAM() []uint8 { return append([]uint8(nil), p.oam[:]...) }
// PaletteRAM returns the raw little-endian palette words.
func (p *PPU) PaletteRAM() []uint8 { return append([]uint8(nil), p.palRaw[:]...) }
// Tileset returns the packed 4bpp pattern data.
func (p *PPU) Tileset() []uint8 { return append([]uint8(nil), p.tileset[:]...) }
