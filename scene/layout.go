package scene

import (
	"fmt"

	"github.com/user-none/amulet/emu"
)

// RGB is a palette colour with 4-bit channels.
type RGB struct {
	R, G, B uint8
}

// PaletteEntry packs a colour as little-endian 0x0RGB.
func PaletteEntry(r, g, b uint8) (lo, hi uint8) {
	word := uint16(r&0x0F)<<8 | uint16(g&0x0F)<<4 | uint16(b&0x0F)
	return uint8(word), uint8(word >> 8)
}

// SetPaletteEntry writes one palette colour.
func SetPaletteEntry(w Writer, index int, c RGB) {
	addr := uint16(emu.PaletteBase) + uint16(index&0x0F)*2
	lo, hi := PaletteEntry(c.R, c.G, c.B)
	w.Write8(addr, lo)
	w.Write8(addr+1, hi)
}

// WritePalette writes entries from index 0. Entries past the sixteenth are
// ignored.
func WritePalette(w Writer, entries []RGB) {
	for i, c := range entries {
		if i >= emu.PaletteEntries {
			break
		}
		SetPaletteEntry(w, i, c)
	}
}

// Grid holds one byte per tilemap cell, indexed [row][column].
type Grid [emu.MapHeight][emu.MapWidth]uint8

// SetTilemapIndices writes the tile index of every cell.
func SetTilemapIndices(w Writer, g *Grid) {
	writeGrid(w, emu.TilemapIndexBase, g)
}

// SetTilemapAttrs writes the attribute byte of every cell.
func SetTilemapAttrs(w Writer, g *Grid) {
	writeGrid(w, emu.TilemapAttrBase, g)
}

// FillTilemapAttrs sets every cell's attributes to attr.
func FillTilemapAttrs(w Writer, attr uint8) {
	for off := 0; off < emu.MapCells; off++ {
		w.Write8(uint16(emu.TilemapAttrBase+off), attr)
	}
}

// SetCell writes a single tilemap cell. x must be below MapWidth and y below
// MapHeight.
func SetCell(w Writer, x, y int, tile, attr uint8) error {
	if x < 0 || x >= emu.MapWidth || y < 0 || y >= emu.MapHeight {
		return fmt.Errorf("%w: (%d,%d)", ErrCellRange, x, y)
	}
	off := uint16(y*emu.MapWidth + x)
	w.Write8(emu.TilemapIndexBase+off, tile)
	w.Write8(emu.TilemapAttrBase+off, attr)
	return nil
}

func writeGrid(w Writer, base uint16, g *Grid) {
	for y := range g {
		for x, v := range g[y] {
			w.Write8(base+uint16(y*emu.MapWidth+x), v)
		}
	}
}

// ChequerIndices alternates t0 and t1 from cell to cell.
func ChequerIndices(t0, t1 uint8) Grid {
	var g Grid
	for y := range g {
		for x := range g[y] {
			if (x+y)&1 == 0 {
				g[y][x] = t0
			} else {
				g[y][x] = t1
			}
		}
	}
	return g
}

// AttrGrid sets H-flip on the first hflipCols columns, V-flip on the first
// vflipRows rows and priority on a border prioBorder cells wide.
func AttrGrid(hflipCols, vflipRows, prioBorder int) Grid {
	var g Grid
	for y := range g {
		for x := range g[y] {
			var a uint8
			if x < hflipCols {
				a |= emu.AttrHFlip
			}
			if y < vflipRows {
				a |= emu.AttrVFlip
			}
			if prioBorder > 0 && (x < prioBorder || x >= emu.MapWidth-prioBorder ||
				y < prioBorder || y >= emu.MapHeight-prioBorder) {
				a |= emu.AttrPriority
			}
			g[y][x] = a
		}
	}
	return g
}

// SpriteOptions describes a sprite attribute byte.
type SpriteOptions struct {
	PaletteBank uint8 // stored, not used by the renderer
	HFlip       bool
	VFlip       bool
	Large       bool // 16x16 from a 2x2 tile block
	Priority    bool // in front of priority background
}

// SpriteAttr encodes o as an OAM attribute byte.
func SpriteAttr(o SpriteOptions) uint8 {
	a := o.PaletteBank & 0x0F
	if o.HFlip {
		a |= emu.SpriteHFlip
	}
	if o.VFlip {
		a |= emu.SpriteVFlip
	}
	if o.Large {
		a |= emu.SpriteLarge
	}
	if o.Priority {
		a |= emu.SpritePriority
	}
	return a
}

// PlaceSprite writes the first four OAM bytes of slot.
func PlaceSprite(w Writer, slot int, x, y, tile, attr uint8) error {
	base, err := spriteBase(slot)
	if err != nil {
		return err
	}
	w.Write8(base, x)
	w.Write8(base+1, y)
	w.Write8(base+2, tile)
	w.Write8(base+3, attr)
	return nil
}

// MoveSpriteX rewrites only the X position of slot.
func MoveSpriteX(w Writer, slot int, x uint8) error {
	base, err := spriteBase(slot)
	if err != nil {
		return err
	}
	w.Write8(base, x)
	return nil
}

func spriteBase(slot int) (uint16, error) {
	if slot < 0 || slot >= emu.SpriteCount {
		return 0, fmt.Errorf("%w: %d", ErrSpriteSlot, slot)
	}
	return uint16(emu.OAMBase + slot*emu.SpriteStride), nil
}
