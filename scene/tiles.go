// Package scene builds PPU content: palettes, tiles, tilemaps and sprites.
// Every builder writes through a Writer so it can target a PPU directly or any
// other byte sink that mirrors the PPU memory map.
package scene

import (
	"errors"
	"fmt"

	"github.com/user-none/amulet/emu"
)

var (
	ErrColourIndex = errors.New("colour index out of range")
	ErrTileBlob    = errors.New("tile data is not a whole number of tiles")
	ErrTileRange   = errors.New("tile id out of range")
	ErrSpriteSlot  = errors.New("sprite slot out of range")
	ErrCellRange   = errors.New("cell outside the tilemap")
)

// Writer receives VRAM and register writes. *emu.PPU satisfies it.
type Writer interface {
	Write8(addr uint16, val uint8)
}

// Pixels is one 8x8 tile as colour indices, row-major.
type Pixels [emu.TileSize][emu.TileSize]uint8

// Tile is a packed 4bpp tile: two pixels per byte, high nibble left.
type Tile [emu.TileBytes]byte

// PackTile4bpp packs colour indices into tileset format. Indices must be 0-15.
func PackTile4bpp(p Pixels) (Tile, error) {
	var t Tile
	k := 0
	for y := 0; y < emu.TileSize; y++ {
		for x := 0; x < emu.TileSize; x += 2 {
			l, r := p[y][x], p[y][x+1]
			if l > 0x0F || r > 0x0F {
				return Tile{}, fmt.Errorf("%w: pixel (%d,%d)", ErrColourIndex, x, y)
			}
			t[k] = l<<4 | r
			k++
		}
	}
	return t, nil
}

// pack is PackTile4bpp for pixels built from masked indices.
func pack(p Pixels) Tile {
	t, _ := PackTile4bpp(p)
	return t
}

func pixelsOf(fn func(x, y int) uint8) Pixels {
	var p Pixels
	for y := range p {
		for x := range p[y] {
			p[y][x] = fn(x, y) & 0x0F
		}
	}
	return p
}

// SolidTile fills a tile with one colour.
func SolidTile(ci uint8) Tile {
	return pack(pixelsOf(func(x, y int) uint8 { return ci }))
}

// CheckerTile alternates a and b in 2x2 pixel blocks.
func CheckerTile(a, b uint8) Tile {
	return pack(pixelsOf(func(x, y int) uint8 {
		if ((x>>1)+(y>>1))&1 == 0 {
			return a
		}
		return b
	}))
}

// StripeTile alternates a and b every row, or every column when horizontal
// is false.
func StripeTile(a, b uint8, horizontal bool) Tile {
	return pack(pixelsOf(func(x, y int) uint8 {
		n := x
		if horizontal {
			n = y
		}
		if n&1 == 0 {
			return a
		}
		return b
	}))
}

// GradientTile runs a diagonal ramp through all 16 colours.
func GradientTile() Tile {
	return pack(pixelsOf(func(x, y int) uint8 { return uint8(x + y) }))
}

// WriteTile stores t as tile id in the tileset.
func WriteTile(w Writer, id uint8, t Tile) {
	base := uint16(emu.TilesetBase) + uint16(id)*emu.TileBytes
	for i, b := range t {
		w.Write8(base+uint16(i), b)
	}
}

// LoadTileset writes each tile in tiles under its id.
func LoadTileset(w Writer, tiles map[uint8]Tile) {
	for id, t := range tiles {
		WriteTile(w, id, t)
	}
}

// LoadTilesetSequential writes consecutive packed tiles from blob starting at
// tile start.
func LoadTilesetSequential(w Writer, blob []byte, start int) error {
	if len(blob)%emu.TileBytes != 0 {
		return fmt.Errorf("%w: %d bytes", ErrTileBlob, len(blob))
	}
	n := len(blob) / emu.TileBytes
	if start < 0 || start+n > emu.TileCount {
		return fmt.Errorf("%w: tiles %d-%d", ErrTileRange, start, start+n-1)
	}
	for i := 0; i < n; i++ {
		var t Tile
		copy(t[:], blob[i*emu.TileBytes:])
		WriteTile(w, uint8(start+i), t)
	}
	return nil
}
