package emu

import (
	"bytes"
	"image/color"
	"testing"
)

var (
	colBlack = color.RGBA{A: 255}
	colRed   = color.RGBA{R: 255, A: 255}
	colGreen = color.RGBA{G: 255, A: 255}
	colBlue  = color.RGBA{B: 255, A: 255}
	colWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// newRenderPPU returns a PPU with palette 0 black, 1 red, 2 green, 3 blue,
// 4 white and solid tiles 1-4 of those colours. Tile 0 is colour 0.
func newRenderPPU() *PPU {
	p := NewPPU()
	setPaletteRGB(p, 1, 15, 0, 0)
	setPaletteRGB(p, 2, 0, 15, 0)
	setPaletteRGB(p, 3, 0, 0, 15)
	setPaletteRGB(p, 4, 15, 15, 15)
	for i := 1; i <= 4; i++ {
		setSolidTile(p, i, uint8(i))
	}
	return p
}

// TestPPU_RenderBackgroundSolid tests that every pixel is painted by the background pass
func TestPPU_RenderBackgroundSolid(t *testing.T) {
	p := newRenderPPU()
	fillMap(p, 2, 0)

	fb := p.RenderFrame()
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if c := fb.RGBAAt(x, y); c != colGreen {
				t.Fatalf("Pixel (%d, %d): expected %v, got %v", x, y, colGreen, c)
			}
		}
	}
}

// TestPPU_RenderTilemapLayout tests cell to screen mapping on a 28x32 grid
func TestPPU_RenderTilemapLayout(t *testing.T) {
	p := newRenderPPU()
	setCell(p, 0, 0, 1, 0)
	setCell(p, MapWidth-1, 0, 2, 0)
	setCell(p, 0, MapHeight-1, 3, 0)
	setCell(p, MapWidth-1, MapHeight-1, 4, 0)

	fb := p.RenderFrame()

	testCases := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, colRed},
		{7, 7, colRed},
		{8, 0, colBlack},
		{ScreenWidth - 1, 0, colGreen},
		{ScreenWidth - 8, 7, colGreen},
		{0, ScreenHeight - 1, colBlue},
		{ScreenWidth - 1, ScreenHeight - 1, colWhite},
		{ScreenWidth - 1, ScreenHeight - 9, colBlack},
	}
	for _, tc := range testCases {
		if c := fb.RGBAAt(tc.x, tc.y); c != tc.want {
			t.Errorf("Pixel (%d, %d): expected %v, got %v", tc.x, tc.y, tc.want, c)
		}
	}
}

// TestPPU_RenderBackgroundFlip tests per-cell flip attributes
func TestPPU_RenderBackgroundFlip(t *testing.T) {
	p := newRenderPPU()

	// Tile 10: top-left pixel red, everything else black.
	setTileRow(p, 10, 0, [8]uint8{1, 0, 0, 0, 0, 0, 0, 0})
	setCell(p, 0, 0, 10, 0)
	setCell(p, 1, 0, 10, AttrHFlip)
	setCell(p, 2, 0, 10, AttrVFlip)
	setCell(p, 3, 0, 10, AttrHFlip|AttrVFlip)

	fb := p.RenderFrame()

	testCases := []struct {
		x, y int
	}{
		{0, 0},      // no flip
		{8 + 7, 0},  // hflip: top-right
		{16, 7},     // vflip: bottom-left
		{24 + 7, 7}, // both: bottom-right
	}
	for _, tc := range testCases {
		if c := fb.RGBAAt(tc.x, tc.y); c != colRed {
			t.Errorf("Pixel (%d, %d): expected red, got %v", tc.x, tc.y, c)
		}
	}
	if c := fb.RGBAAt(8, 0); c != colBlack {
		t.Errorf("Pixel (8, 0): expected black under hflip, got %v", c)
	}
}

// patternedPPU fills the map with a pattern that differs in every cell.
func patternedPPU() *PPU {
	p := newRenderPPU()
	for cy := 0; cy < MapHeight; cy++ {
		for cx := 0; cx < MapWidth; cx++ {
			setCell(p, cx, cy, uint8(1+(cx+cy*3)%4), 0)
		}
	}
	return p
}

// TestPPU_ScrollFullWidthIsIdentity tests that scrollX equal to the screen width wraps to 0
func TestPPU_ScrollFullWidthIsIdentity(t *testing.T) {
	p := patternedPPU()

	want := append([]byte(nil), p.RenderFrame().Pix...)

	p.Write8(RegScrollX, ScreenWidth)
	got := p.RenderFrame().Pix
	if !bytes.Equal(want, got) {
		t.Error("scrollX = screen width: frame differs from scrollX = 0")
	}
}

// TestPPU_ScrollWraps tests toroidal wraparound of both scroll registers
func TestPPU_ScrollWraps(t *testing.T) {
	p := patternedPPU()

	testCases := []struct {
		sx, sy uint8
	}{
		{8, 0},
		{3, 0},
		{0, 8},
		{0, 255},
		{250, 17},
	}

	for _, tc := range testCases {
		// RenderFrame reuses its buffer, so take a fresh reference.
		p.Write8(RegScrollX, 0)
		p.Write8(RegScrollY, 0)
		want := make([]color.RGBA, 0, ScreenWidth*ScreenHeight)
		fb := p.RenderFrame()
		for y := 0; y < ScreenHeight; y++ {
			for x := 0; x < ScreenWidth; x++ {
				want = append(want, fb.RGBAAt((x+int(tc.sx))%ScreenWidth, (y+int(tc.sy))%ScreenHeight))
			}
		}

		p.Write8(RegScrollX, tc.sx)
		p.Write8(RegScrollY, tc.sy)
		fb = p.RenderFrame()
		for y := 0; y < ScreenHeight; y++ {
			for x := 0; x < ScreenWidth; x++ {
				if c := fb.RGBAAt(x, y); c != want[y*ScreenWidth+x] {
					t.Fatalf("scroll (%d, %d) pixel (%d, %d): expected %v, got %v",
						tc.sx, tc.sy, x, y, want[y*ScreenWidth+x], c)
				}
			}
		}
	}
}

// TestPPU_SpriteDraw tests an 8x8 sprite at its OAM position
func TestPPU_SpriteDraw(t *testing.T) {
	p := newRenderPPU()
	setSprite(p, 0, 40, 50, 1, 0)

	fb := p.RenderFrame()
	for y := 50; y < 58; y++ {
		for x := 40; x < 48; x++ {
			if c := fb.RGBAAt(x, y); c != colRed {
				t.Fatalf("Pixel (%d, %d): expected red, got %v", x, y, c)
			}
		}
	}
	for _, pt := range [][2]int{{39, 50}, {48, 50}, {40, 49}, {40, 58}} {
		if c := fb.RGBAAt(pt[0], pt[1]); c != colBlack {
			t.Errorf("Pixel (%d, %d): expected black outside sprite, got %v", pt[0], pt[1], c)
		}
	}
}

// TestPPU_SpriteTransparency tests that colour 0 sprite pixels leave the background untouched
func TestPPU_SpriteTransparency(t *testing.T) {
	p := patternedPPU()
	want := append([]byte(nil), p.RenderFrame().Pix...)

	// Tile 0 is all colour 0. Cover the screen with transparent sprites of
	// both sizes and priorities.
	for slot := 0; slot < SpriteCount; slot++ {
		attr := uint8(0)
		if slot%2 == 1 {
			attr |= SpriteLarge
		}
		if slot%3 == 0 {
			attr |= SpritePriority | SpriteHFlip
		}
		setSprite(p, slot, uint8(slot*13), uint8(slot*15), 0, attr)
	}

	if got := p.RenderFrame().Pix; !bytes.Equal(want, got) {
		t.Error("transparent sprites modified the background")
	}
}

// TestPPU_SpritePartialTransparency tests per-pixel transparency inside a sprite
func TestPPU_SpritePartialTransparency(t *testing.T) {
	p := newRenderPPU()
	fillMap(p, 2, 0)
	setTileRow(p, 20, 0, [8]uint8{1, 0, 1, 0, 1, 0, 1, 0})
	setSprite(p, 0, 0, 0, 20, 0)

	fb := p.RenderFrame()
	for x := 0; x < 8; x++ {
		want := colGreen
		if x%2 == 0 {
			want = colRed
		}
		if c := fb.RGBAAt(x, 0); c != want {
			t.Errorf("Pixel (%d, 0): expected %v, got %v", x, want, c)
		}
	}
}

// TestPPU_SpriteBackgroundPriority tests background priority against sprite priority
func TestPPU_SpriteBackgroundPriority(t *testing.T) {
	testCases := []struct {
		name       string
		bgAttr     uint8
		spriteAttr uint8
		want       color.RGBA
	}{
		{"bg priority hides normal sprite", AttrPriority, 0, colGreen},
		{"priority sprite beats bg priority", AttrPriority, SpritePriority, colRed},
		{"normal bg under normal sprite", 0, 0, colRed},
		{"normal bg under priority sprite", 0, SpritePriority, colRed},
	}

	for _, tc := range testCases {
		p := newRenderPPU()
		fillMap(p, 2, tc.bgAttr)
		setSprite(p, 0, 16, 16, 1, tc.spriteAttr)

		fb := p.RenderFrame()
		if c := fb.RGBAAt(20, 20); c != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, c)
		}
	}
}

// TestPPU_PriorityIgnoresBackgroundColour tests that the mask follows the
// attribute even where the background pixel is colour 0
func TestPPU_PriorityIgnoresBackgroundColour(t *testing.T) {
	p := newRenderPPU()
	fillMap(p, 0, AttrPriority)
	setSprite(p, 0, 0, 0, 1, 0)

	if c := p.RenderFrame().RGBAAt(0, 0); c != colBlack {
		t.Errorf("expected background colour 0 to keep priority, got %v", c)
	}
}

// TestPPU_SpriteOverlapOrder tests that later OAM slots draw over earlier ones
func TestPPU_SpriteOverlapOrder(t *testing.T) {
	p := newRenderPPU()
	setSprite(p, 3, 100, 100, 1, 0)
	setSprite(p, 7, 104, 100, 3, 0)

	fb := p.RenderFrame()
	if c := fb.RGBAAt(102, 100); c != colRed {
		t.Errorf("slot 3 only: expected red, got %v", c)
	}
	if c := fb.RGBAAt(105, 100); c != colBlue {
		t.Errorf("overlap: expected slot 7 blue, got %v", c)
	}
	if c := fb.RGBAAt(110, 100); c != colBlue {
		t.Errorf("slot 7 only: expected blue, got %v", c)
	}
}

// TestPPU_LargeSprite tests 16x16 quadrant tile selection
func TestPPU_LargeSprite(t *testing.T) {
	p := newRenderPPU()
	setSprite(p, 0, 60, 60, 1, SpriteLarge)

	fb := p.RenderFrame()
	testCases := []struct {
		x, y int
		want color.RGBA
	}{
		{60, 60, colRed},   // tile 1
		{68, 60, colGreen}, // tile 2
		{60, 68, colBlue},  // tile 3
		{75, 75, colWhite}, // tile 4
		{76, 60, colBlack}, // outside
	}
	for _, tc := range testCases {
		if c := fb.RGBAAt(tc.x, tc.y); c != tc.want {
			t.Errorf("Pixel (%d, %d): expected %v, got %v", tc.x, tc.y, tc.want, c)
		}
	}
}

// TestPPU_LargeSpriteTileWrap tests that quadrant tile IDs wrap at 256
func TestPPU_LargeSpriteTileWrap(t *testing.T) {
	p := newRenderPPU()
	setSolidTile(p, 255, 4)
	// 255, 0 / 1, 2
	setSprite(p, 0, 0, 0, 255, SpriteLarge)

	fb := p.RenderFrame()
	if c := fb.RGBAAt(0, 0); c != colWhite {
		t.Errorf("tile 255: expected white, got %v", c)
	}
	if c := fb.RGBAAt(8, 8); c != colGreen {
		t.Errorf("tile 2 at bottom-right: expected green, got %v", c)
	}
	if c := fb.RGBAAt(0, 8); c != colRed {
		t.Errorf("tile 1 at bottom-left: expected red, got %v", c)
	}
}

// TestPPU_SpriteFlip tests sprite flips within an 8x8 tile
func TestPPU_SpriteFlip(t *testing.T) {
	p := newRenderPPU()
	setTileRow(p, 30, 0, [8]uint8{1, 0, 0, 0, 0, 0, 0, 0})

	setSprite(p, 0, 0, 0, 30, SpriteHFlip)
	setSprite(p, 1, 16, 0, 30, SpriteVFlip)
	setSprite(p, 2, 32, 0, 30, SpriteHFlip|SpriteVFlip)

	fb := p.RenderFrame()
	for _, pt := range [][2]int{{7, 0}, {16, 7}, {39, 7}} {
		if c := fb.RGBAAt(pt[0], pt[1]); c != colRed {
			t.Errorf("Pixel (%d, %d): expected red, got %v", pt[0], pt[1], c)
		}
	}
	for _, pt := range [][2]int{{0, 0}, {16, 0}, {32, 0}} {
		if c := fb.RGBAAt(pt[0], pt[1]); c != colBlack {
			t.Errorf("Pixel (%d, %d): expected black, got %v", pt[0], pt[1], c)
		}
	}
}

// TestPPU_SpriteClipping tests that sprites past the right and bottom edges are clipped
func TestPPU_SpriteClipping(t *testing.T) {
	p := newRenderPPU()
	fillMap(p, 2, 0)
	setSprite(p, 0, ScreenWidth-4, 10, 1, 0)
	setSprite(p, 1, 250, 20, 1, SpriteLarge) // entirely off the right edge
	setSprite(p, 2, 10, 252, 3, SpriteLarge) // bottom rows clipped

	fb := p.RenderFrame()
	for x := ScreenWidth - 4; x < ScreenWidth; x++ {
		if c := fb.RGBAAt(x, 10); c != colRed {
			t.Errorf("Pixel (%d, 10): expected red, got %v", x, c)
		}
	}
	// No horizontal wrap to the left edge.
	if c := fb.RGBAAt(0, 10); c != colGreen {
		t.Errorf("Pixel (0, 10): expected background, got %v", c)
	}
	if c := fb.RGBAAt(0, 20); c != colGreen {
		t.Errorf("Pixel (0, 20): expected background, got %v", c)
	}
	if c := fb.RGBAAt(10, 255); c != colBlue {
		t.Errorf("Pixel (10, 255): expected blue, got %v", c)
	}
	// No vertical wrap to the top.
	if c := fb.RGBAAt(10, 0); c != colGreen {
		t.Errorf("Pixel (10, 0): expected background, got %v", c)
	}
}

// TestPPU_DisplayControlDoesNotGate tests that DISP_CTRL is storage only
func TestPPU_DisplayControlDoesNotGate(t *testing.T) {
	p := newRenderPPU()
	fillMap(p, 2, 0)
	setSprite(p, 0, 0, 0, 1, 0)

	want := append([]byte(nil), p.RenderFrame().Pix...)
	p.Write8(RegDisplayControl, 0)
	if !bytes.Equal(want, p.RenderFrame().Pix) {
		t.Error("DISP_CTRL = 0 changed the rendered frame")
	}
}

// TestPPU_RenderDeterministic tests that rendering twice yields the same frame
func TestPPU_RenderDeterministic(t *testing.T) {
	p := patternedPPU()
	setSprite(p, 0, 30, 30, 1, SpriteLarge|SpriteHFlip)

	p.RenderFrame()
	first := framePixels(p)
	p.RenderFrame()
	if !bytes.Equal(first, framePixels(p)) {
		t.Error("second render differs from the first")
	}
}
