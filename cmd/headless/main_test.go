package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/user-none/amulet/emu"
	"github.com/user-none/amulet/scene"
)

func TestParseRange(t *testing.T) {
	testCases := []struct {
		in         string
		start, end uint16
		ok         bool
	}{
		{"8000:803F", 0x8000, 0x803F, true},
		{"$A000:$A01F", 0xA000, 0xA01F, true},
		{"0x10:0x20", 0x10, 0x20, true},
		{"0:FFFF", 0, 0xFFFF, true},
		{"8000", 0, 0, false},
		{"9000:8000", 0, 0, false},
		{"10000:10001", 0, 0, false},
		{"zz:10", 0, 0, false},
	}
	for _, tc := range testCases {
		start, end, err := parseRange(tc.in)
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.start, start, tc.in)
		assert.Equal(t, tc.end, end, tc.in)
	}
}

func TestScaleImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	red := color.RGBA{R: 255, A: 255}
	src.SetRGBA(1, 0, red)

	assert.Same(t, src, scaleImage(src, 1))

	dst := scaleImage(src, 3)
	assert.Equal(t, image.Rect(0, 0, 6, 6), dst.Bounds())
	assert.Equal(t, red, dst.RGBAAt(3, 0))
	assert.Equal(t, red, dst.RGBAAt(5, 2))
	assert.NotEqual(t, red, dst.RGBAAt(2, 0))
}

func TestEncodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, emu.ScreenWidth, emu.ScreenHeight))

	var buf bytes.Buffer
	require.NoError(t, encodeImage(&buf, formatPNG, src))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())

	buf.Reset()
	require.NoError(t, encodeImage(&buf, formatBMP, src))
	img, err = bmp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())
}

func TestRunStopsOnFault(t *testing.T) {
	cfg := emu.DefaultConfig()
	cfg.Output = &bytes.Buffer{}
	e, err := emu.NewEmulatorWithConfig([]byte{0xEE}, cfg)
	require.NoError(t, err)

	run(e, 100)
	assert.Equal(t, uint64(1), e.Frame())
	require.NotNil(t, e.Fault())

	var plain, coloured bytes.Buffer
	report(&plain, e.Fault(), false)
	report(&coloured, e.Fault(), true)
	assert.True(t, strings.HasPrefix(plain.String(), "cpu fault"))
	assert.True(t, strings.HasPrefix(coloured.String(), "\x1b[31m"))
}

func TestRunDemo(t *testing.T) {
	out := &bytes.Buffer{}
	cfg := emu.DefaultConfig()
	cfg.Output = out
	e, err := emu.NewEmulatorWithConfig(scene.DemoProgram(), cfg)
	require.NoError(t, err)
	scene.InitDemoScene(e.PPU())

	run(e, 2)
	assert.Equal(t, uint64(2), e.Frame())
	assert.Nil(t, e.Fault())
	assert.True(t, strings.HasPrefix(out.String(), "PC=0002 DS[1]: 05\nPC=0007 DS[1]: 07\n"))
}

func TestWriteMemviz(t *testing.T) {
	cfg := emu.DefaultConfig()
	cfg.Output = &bytes.Buffer{}
	e, err := emu.NewEmulatorWithConfig(scene.DemoProgram(), cfg)
	require.NoError(t, err)
	run(e, 1)

	path := filepath.Join(t.TempDir(), "cpu.dot")
	require.NoError(t, writeMemviz(path, e))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")

	assert.Error(t, writeMemviz(filepath.Join(t.TempDir(), "missing", "cpu.dot"), e))
}
