package emu

import (
	"fmt"
	"io"
	"strings"
)

// noDevice marks an address no device claims in the dispatch table.
const noDevice = 0xFF

// Bus routes CPU reads and writes to the device that owns each address.
//
// Dispatch follows registration order: the first device whose Handles
// returns true wins. NewBus rejects overlapping devices, so in practice every
// mapped address has exactly one owner. The owner of each address is resolved
// once at construction into a 64K lookup table.
type Bus struct {
	devices []Device
	owner   [addressSpace]uint8 // index into devices, or noDevice
}

// NewBus creates a bus over devices in the given order. It fails with an
// *OverlapError if two devices claim the same address.
func NewBus(devices ...Device) (*Bus, error) {
	if len(devices) >= noDevice {
		return nil, fmt.Errorf("too many devices: %d", len(devices))
	}
	b := &Bus{devices: devices}
	for addr := 0; addr < addressSpace; addr++ {
		b.owner[addr] = noDevice
		for i, d := range devices {
			if !d.Handles(uint16(addr)) {
				continue
			}
			if b.owner[addr] != noDevice {
				return nil, &OverlapError{First: int(b.owner[addr]), Second: i, Addr: uint16(addr)}
			}
			b.owner[addr] = uint8(i)
		}
	}
	return b, nil
}

// Device returns the device that owns addr, or nil if the address is unmapped.
func (b *Bus) Device(addr uint16) Device {
	idx := b.owner[addr]
	if idx == noDevice {
		return nil
	}
	return b.devices[idx]
}

// Devices returns the devices in registration order.
func (b *Bus) Devices() []Device {
	out := make([]Device, len(b.devices))
	copy(out, b.devices)
	return out
}

// Read8 reads one byte. Unmapped addresses fail with a *BusError.
func (b *Bus) Read8(addr uint16) (uint8, error) {
	d := b.Device(addr)
	if d == nil {
		return 0, &BusError{Op: "read", Addr: addr}
	}
	return d.Read8(addr), nil
}

// Write8 writes one byte. Unmapped addresses fail with a *BusError.
func (b *Bus) Write8(addr uint16, val uint8) error {
	d := b.Device(addr)
	if d == nil {
		return &BusError{Op: "write", Addr: addr}
	}
	d.Write8(addr, val)
	return nil
}

// Read16 reads a little-endian word; the high byte address wraps at $FFFF.
func (b *Bus) Read16(addr uint16) (uint16, error) {
	lo, err := b.Read8(addr)
	if err != nil {
		return 0, err
	}
	hi, err := b.Read8(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// Write16 writes a little-endian word; the high byte address wraps at $FFFF.
func (b *Bus) Write16(addr uint16, val uint16) error {
	if err := b.Write8(addr, uint8(val)); err != nil {
		return err
	}
	return b.Write8(addr+1, uint8(val>>8))
}

// Dump writes a hex dump of [start, end] to w, 16 bytes per row.
// Unmapped bytes are shown as "--".
func (b *Bus) Dump(w io.Writer, start, end uint16) error {
	if end < start {
		return fmt.Errorf("dump range $%04X-$%04X is reversed", start, end)
	}
	var line strings.Builder
	for row := int(start); row <= int(end); row += 16 {
		line.Reset()
		fmt.Fprintf(&line, "%04X:", row)
		for addr := row; addr < row+16 && addr <= int(end); addr++ {
			if d := b.Device(uint16(addr)); d != nil {
				fmt.Fprintf(&line, " %02X", d.Read8(uint16(addr)))
			} else {
				line.WriteString(" --")
			}
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}
