package scene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	lua "github.com/yuin/gopher-lua"

	"github.com/user-none/amulet/emu"
)

// ScriptTimeout bounds how long a scene script may run.
const ScriptTimeout = 5 * time.Second

// script binds a Lua state to a Writer.
type script struct {
	w    Writer
	name string
}

// RunScript executes Lua source that builds a scene through w. The script sees
// the functions write8, palette, solid, checker, stripe, gradient, tile, cell,
// fill, sprite, sprite_attr, display, scroll and demo, plus the attribute bit
// constants. Only the base, table, string and math libraries are loaded.
func RunScript(ctx context.Context, w Writer, name, src string) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.fn), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			return fmt.Errorf("scene script %s: open %s: %w", name, lib.name, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, ScriptTimeout)
	defer cancel()
	L.SetContext(ctx)

	s := &script{w: w, name: name}
	s.register(L)

	fn, err := L.LoadString(src)
	if err != nil {
		return fmt.Errorf("scene script %s: %w", name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("scene script %s: %w", name, err)
	}
	return nil
}

// RunScriptFile reads and runs a scene script from path.
func RunScriptFile(ctx context.Context, w Writer, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene script: %w", err)
	}
	return RunScript(ctx, w, filepath.Base(path), string(src))
}

func (s *script) register(L *lua.LState) {
	funcs := map[string]lua.LGFunction{
		"write8":      s.write8,
		"palette":     s.palette,
		"solid":       s.solid,
		"checker":     s.checker,
		"stripe":      s.stripe,
		"gradient":    s.gradient,
		"tile":        s.tile,
		"cell":        s.cell,
		"fill":        s.fill,
		"sprite":      s.sprite,
		"sprite_attr": s.spriteAttr,
		"display":     s.display,
		"scroll":      s.scroll,
		"demo":        s.demo,
		"trace":       s.trace,
	}
	for name, fn := range funcs {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	consts := map[string]int{
		"SCREEN_W":   emu.ScreenWidth,
		"SCREEN_H":   emu.ScreenHeight,
		"MAP_W":      emu.MapWidth,
		"MAP_H":      emu.MapHeight,
		"HFLIP":      emu.AttrHFlip,
		"VFLIP":      emu.AttrVFlip,
		"PRIORITY":   emu.AttrPriority,
		"DISP_ON":    emu.DisplayEnable,
		"DISP_SPR":   emu.DisplaySprites,
		"DISP_BG":    emu.DisplayBackground,
		"SPRITES":    emu.SpriteCount,
		"TILE_COUNT": emu.TileCount,
	}
	for name, v := range consts {
		L.SetGlobal(name, lua.LNumber(v))
	}
}

// checkByte reads argument n as an integer in 0-255.
func checkByte(L *lua.LState, n int) uint8 {
	v := L.CheckInt(n)
	if v < 0 || v > 0xFF {
		L.ArgError(n, fmt.Sprintf("%d out of byte range", v))
	}
	return uint8(v)
}

func optByte(L *lua.LState, n int, def uint8) uint8 {
	if L.Get(n) == lua.LNil {
		return def
	}
	return checkByte(L, n)
}

func checkNibble(L *lua.LState, n int) uint8 {
	v := L.CheckInt(n)
	if v < 0 || v > 0x0F {
		L.ArgError(n, fmt.Sprintf("%d out of range 0-15", v))
	}
	return uint8(v)
}

// nibbleValue converts a table field to an integer in 0-15.
func nibbleValue(v lua.LValue) (uint8, bool) {
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, false
	}
	i := int(n)
	if lua.LNumber(i) != n || i < 0 || i > 0x0F {
		return 0, false
	}
	return uint8(i), true
}

// write8(addr, val)
func (s *script) write8(L *lua.LState) int {
	addr := L.CheckInt(1)
	if addr < 0 || addr > 0xFFFF {
		L.ArgError(1, fmt.Sprintf("address %d out of range", addr))
	}
	s.w.Write8(uint16(addr), checkByte(L, 2))
	return 0
}

// palette(index, r, g, b)
func (s *script) palette(L *lua.LState) int {
	SetPaletteEntry(s.w, int(checkNibble(L, 1)), RGB{checkNibble(L, 2), checkNibble(L, 3), checkNibble(L, 4)})
	return 0
}

// solid(id, colour)
func (s *script) solid(L *lua.LState) int {
	WriteTile(s.w, checkByte(L, 1), SolidTile(checkNibble(L, 2)))
	return 0
}

// checker(id, a, b)
func (s *script) checker(L *lua.LState) int {
	WriteTile(s.w, checkByte(L, 1), CheckerTile(checkNibble(L, 2), checkNibble(L, 3)))
	return 0
}

// stripe(id, a, b [, horizontal=true])
func (s *script) stripe(L *lua.LState) int {
	WriteTile(s.w, checkByte(L, 1), StripeTile(checkNibble(L, 2), checkNibble(L, 3), L.OptBool(4, true)))
	return 0
}

// gradient(id)
func (s *script) gradient(L *lua.LState) int {
	WriteTile(s.w, checkByte(L, 1), GradientTile())
	return 0
}

// tile(id, rows) where rows is 8 tables of 8 colour indices.
func (s *script) tile(L *lua.LState) int {
	id := checkByte(L, 1)
	rows := L.CheckTable(2)

	var p Pixels
	for y := 0; y < emu.TileSize; y++ {
		row, ok := rows.RawGetInt(y + 1).(*lua.LTable)
		if !ok {
			L.ArgError(2, fmt.Sprintf("row %d is not a table", y+1))
		}
		for x := 0; x < emu.TileSize; x++ {
			v, ok := nibbleValue(row.RawGetInt(x + 1))
			if !ok {
				L.ArgError(2, fmt.Sprintf("pixel (%d,%d) is not a colour 0-15", x, y))
			}
			p[y][x] = v
		}
	}
	t, err := PackTile4bpp(p)
	if err != nil {
		L.ArgError(2, err.Error())
	}
	WriteTile(s.w, id, t)
	return 0
}

// cell(x, y, tile [, attr=0])
func (s *script) cell(L *lua.LState) int {
	x, y := L.CheckInt(1), L.CheckInt(2)
	if err := SetCell(s.w, x, y, checkByte(L, 3), optByte(L, 4, 0)); err != nil {
		L.ArgError(1, err.Error())
	}
	return 0
}

// fill(tile [, attr=0])
func (s *script) fill(L *lua.LState) int {
	tile, attr := checkByte(L, 1), optByte(L, 2, 0)
	var idx, attrs Grid
	for y := range idx {
		for x := range idx[y] {
			idx[y][x], attrs[y][x] = tile, attr
		}
	}
	SetTilemapIndices(s.w, &idx)
	SetTilemapAttrs(s.w, &attrs)
	return 0
}

// sprite(slot, x, y, tile [, attr=0])
func (s *script) sprite(L *lua.LState) int {
	slot := L.CheckInt(1)
	if err := PlaceSprite(s.w, slot, checkByte(L, 2), checkByte(L, 3), checkByte(L, 4), optByte(L, 5, 0)); err != nil {
		L.ArgError(1, err.Error())
	}
	return 0
}

// sprite_attr{hflip=, vflip=, large=, priority=, bank=} returns the byte.
func (s *script) spriteAttr(L *lua.LState) int {
	t := L.OptTable(1, L.NewTable())
	o := SpriteOptions{
		HFlip:    lua.LVAsBool(t.RawGetString("hflip")),
		VFlip:    lua.LVAsBool(t.RawGetString("vflip")),
		Large:    lua.LVAsBool(t.RawGetString("large")),
		Priority: lua.LVAsBool(t.RawGetString("priority")),
	}
	if bank := t.RawGetString("bank"); bank != lua.LNil {
		v, ok := nibbleValue(bank)
		if !ok {
			L.ArgError(1, "bank must be an integer 0-15")
		}
		o.PaletteBank = v
	}
	L.Push(lua.LNumber(SpriteAttr(o)))
	return 1
}

// display(bits)
func (s *script) display(L *lua.LState) int {
	s.w.Write8(emu.RegDisplayControl, checkByte(L, 1))
	return 0
}

// scroll(x, y)
func (s *script) scroll(L *lua.LState) int {
	s.w.Write8(emu.RegScrollX, checkByte(L, 1))
	s.w.Write8(emu.RegScrollY, checkByte(L, 2))
	return 0
}

// demo() loads the built-in demo scene.
func (s *script) demo(L *lua.LState) int {
	InitDemoScene(s.w)
	return 0
}

// trace(msg) logs from the script.
func (s *script) trace(L *lua.LState) int {
	glog.Infof("%s: %s", s.name, L.CheckString(1))
	return 0
}
