package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/amulet/emu"
)

func TestSystemInfo(t *testing.T) {
	info := (&Factory{}).SystemInfo()

	assert.Equal(t, emu.Name, info.CoreName)
	assert.Equal(t, emu.ScreenWidth, info.ScreenWidth)
	assert.Equal(t, emu.ScreenHeight, info.MaxScreenHeight)
	assert.Contains(t, info.Extensions, ".bin")
	assert.Len(t, info.Buttons, 4)
	assert.Len(t, info.CoreOptions, 2)
}

func TestCreateEmulator(t *testing.T) {
	f := &Factory{}
	core, err := f.CreateEmulator([]byte{emu.OpHALT}, emu.RegionPAL)
	require.NoError(t, err)

	e, ok := core.(*emu.Emulator)
	require.True(t, ok)
	assert.Equal(t, emu.RegionPAL, e.GetRegion())
	assert.Equal(t, 600, e.StepsPerFrame())

	_, err = f.CreateEmulator(nil, emu.RegionNTSC)
	assert.ErrorIs(t, err, emu.ErrEmptyImage)
}

func TestCreateEmulatorConfig(t *testing.T) {
	cfg := emu.DefaultConfig()
	cfg.StackPolicy = emu.StackStrict
	cfg.StepsPerFrame = 10
	f := &Factory{Config: &cfg}

	core, err := f.CreateEmulator([]byte{emu.OpDROP}, emu.RegionNTSC)
	require.NoError(t, err)
	e := core.(*emu.Emulator)
	assert.Equal(t, 10, e.StepsPerFrame())

	e.RunFrame()
	require.NotNil(t, e.Fault())
	assert.Equal(t, emu.FaultDataStackUnderflow, e.Fault().Kind)
}

func TestCreateEmulatorDemo(t *testing.T) {
	f := &Factory{DemoScene: true}
	core, err := f.CreateEmulator(nil, emu.RegionNTSC)
	require.NoError(t, err)
	e := core.(*emu.Emulator)

	assert.Equal(t, uint8(0x07), e.PPU().DisplayControl())
	assert.Equal(t, uint8(emu.OpIM1), e.ROM().Read8(0))
}

func TestCreateEmulatorScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.lua")
	require.NoError(t, os.WriteFile(path, []byte("scroll(5, 6)"), 0644))

	core, err := (&Factory{SceneScript: path}).CreateEmulator([]byte{emu.OpHALT}, emu.RegionNTSC)
	require.NoError(t, err)
	x, y := core.(*emu.Emulator).PPU().Scroll()
	assert.Equal(t, uint8(5), x)
	assert.Equal(t, uint8(6), y)

	bad := filepath.Join(t.TempDir(), "bad.lua")
	require.NoError(t, os.WriteFile(bad, []byte("display("), 0644))
	_, err = (&Factory{SceneScript: bad}).CreateEmulator([]byte{emu.OpHALT}, emu.RegionNTSC)
	assert.Error(t, err)
}

func TestDetectRegion(t *testing.T) {
	region, found := (&Factory{}).DetectRegion([]byte{0x00})
	assert.Equal(t, emu.RegionNTSC, region)
	assert.False(t, found)
}
