package emu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_UnmappedAddress(t *testing.T) {
	bus, _, _, _, _ := newMappedBus(t, []byte{0x00})

	// ROM is one byte, so $0001 is the first hole.
	for _, addr := range []uint16{0x0001, 0x7FFF, 0xA700, 0xA920, 0xE004, 0xE00D, 0xFFFF} {
		_, err := bus.Read8(addr)
		require.Error(t, err, "read $%04X", addr)
		assert.ErrorIs(t, err, ErrUnmappedAddress)

		var be *BusError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, addr, be.Addr)
		assert.Equal(t, "read", be.Op)

		err = bus.Write8(addr, 0x55)
		assert.ErrorIs(t, err, ErrUnmappedAddress, "write $%04X", addr)
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "write", be.Op)
	}
}

func TestBus_ROMWriteIgnored(t *testing.T) {
	program := []byte{0x34, 0x05, 0x01, 0x10}
	bus, _, _, _, _ := newMappedBus(t, program)

	for i, want := range program {
		addr := uint16(i)
		require.NoError(t, bus.Write8(addr, ^want))
		got, err := bus.Read8(addr)
		require.NoError(t, err)
		assert.Equal(t, want, got, "ROM[$%04X]", addr)
	}
}

func TestBus_RoundTrip(t *testing.T) {
	bus, _, _, _, _ := newMappedBus(t, []byte{0x00})

	addrs := []uint16{
		DefaultRAMBase, DefaultRAMBase + DefaultRAMSize - 1,
		TilemapIndexBase, TilemapIndexBase + MapCells - 1,
		TilemapAttrBase, TilemapAttrBase + MapCells - 1,
		OAMBase, OAMBase + OAMSize - 1,
		PaletteBase, PaletteBase + PaletteSize - 1,
		TilesetBase, TilesetBase + TilesetSize - 1,
		RegDisplayControl, RegStatus, RegScrollX, RegScrollY,
		RegPadCtrl,
	}
	for _, addr := range addrs {
		for _, v := range []uint8{0x00, 0x5A, 0xA5, 0xFF} {
			require.NoError(t, bus.Write8(addr, v))
			got, err := bus.Read8(addr)
			require.NoError(t, err)
			assert.Equal(t, v, got, "$%04X", addr)
		}
	}
}

func TestBus_DispatchOrder(t *testing.T) {
	bus, rom, ram, pads, ppu := newMappedBus(t, []byte{0x00})

	assert.Equal(t, []Device{rom, ram, pads, ppu}, bus.Devices())
	assert.Same(t, rom, bus.Device(0x0000))
	assert.Same(t, ram, bus.Device(0x9FFF))
	assert.Same(t, pads, bus.Device(RegPad2))
	assert.Same(t, ppu, bus.Device(RegScrollY))
	assert.Nil(t, bus.Device(0xC000))
}

func TestBus_OverlapRejected(t *testing.T) {
	a, err := NewRAM(0x8000, 0x100)
	require.NoError(t, err)
	b, err := NewRAM(0x80F0, 0x20)
	require.NoError(t, err)

	_, err = NewBus(a, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeviceOverlap))

	var oe *OverlapError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, 0, oe.First)
	assert.Equal(t, 1, oe.Second)
	assert.Equal(t, uint16(0x80F0), oe.Addr)
}

func TestBus_OverlapWithPPU(t *testing.T) {
	// RAM reaching into the tilemap window.
	ram, err := NewRAM(0x9000, 0x1001)
	require.NoError(t, err)

	_, err = NewBus(ram, NewPPU())
	var oe *OverlapError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, uint16(TilemapIndexBase), oe.Addr)
}

func TestBus_Word(t *testing.T) {
	_, bus := newFlatCPU(t, nil)

	require.NoError(t, bus.Write16(0x8000, 0x1234))
	lo, _ := bus.Read8(0x8000)
	hi, _ := bus.Read8(0x8001)
	assert.Equal(t, uint8(0x34), lo)
	assert.Equal(t, uint8(0x12), hi)

	w, err := bus.Read16(0x8000)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), w)

	// High byte wraps to $0000.
	require.NoError(t, bus.Write16(0xFFFF, 0xBEEF))
	lo, _ = bus.Read8(0xFFFF)
	hi, _ = bus.Read8(0x0000)
	assert.Equal(t, uint8(0xEF), lo)
	assert.Equal(t, uint8(0xBE), hi)
}

func TestBus_Dump(t *testing.T) {
	bus, _, _, _, _ := newMappedBus(t, []byte{0x01, 0x02, 0x03, 0x04})

	var buf bytes.Buffer
	require.NoError(t, bus.Dump(&buf, 0x0000, 0x001F))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0000: 01 02 03 04"+strings.Repeat(" --", 12), lines[0])
	assert.Equal(t, "0010:"+strings.Repeat(" --", 16), lines[1])
}

func TestBus_DumpPartialRow(t *testing.T) {
	bus, _, _, _, _ := newMappedBus(t, []byte{0xAA, 0xBB, 0xCC})

	var buf bytes.Buffer
	require.NoError(t, bus.Dump(&buf, 0x0001, 0x0002))
	assert.Equal(t, "0001: BB CC\n", buf.String())

	assert.Error(t, bus.Dump(&buf, 0x0010, 0x0000))
}
