package emu

import "hash/crc32"

// Device is implemented by every peripheral that occupies part of the 16-bit
// address space. Handles reports whether the device owns addr; Read8 and
// Write8 are only called for addresses the device handles.
type Device interface {
	Handles(addr uint16) bool
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

// addressSpace is the size of the CPU-visible address space.
const addressSpace = 0x10000

// ROM is a read-only program image mapped at a fixed base address.
type ROM struct {
	base uint16
	data []uint8
}

// NewROM copies image into a new ROM device starting at base.
// The image must be non-empty and end at or before $FFFF.
func NewROM(base uint16, image []byte) (*ROM, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if int(base)+len(image) > addressSpace {
		return nil, ErrImageTooLarge
	}
	r := &ROM{
		base: base,
		data: make([]uint8, len(image)),
	}
	copy(r.data, image)
	return r, nil
}

// Handles reports whether addr falls inside the image.
func (r *ROM) Handles(addr uint16) bool {
	return addr >= r.base && int(addr) < int(r.base)+len(r.data)
}

// Read8 returns the image byte at addr.
func (r *ROM) Read8(addr uint16) uint8 {
	return r.data[addr-r.base]
}

// Write8 discards the write. Programs may write to ROM
// without faulting.
func (r *ROM) Write8(addr uint16, val uint8) {}

// Base returns the first address of the ROM.
func (r *ROM) Base() uint16 { return r.base }

// Size returns the ROM length in bytes.
func (r *ROM) Size() int { return len(r.data) }

// Bytes returns a copy of the ROM contents.
func (r *ROM) Bytes() []byte {
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

// CRC32 returns the CRC32 checksum of the loaded image.
func (r *ROM) CRC32() uint32 {
	return crc32.ChecksumIEEE(r.data)
}

// RAM is zero-initialised read/write memory.
type RAM struct {
	base uint16
	data []uint8
}

// NewRAM creates size bytes of RAM starting at base.
func NewRAM(base uint16, size int) (*RAM, error) {
	if size <= 0 || int(base)+size > addressSpace {
		return nil, ErrBadRAMSize
	}
	return &RAM{
		base: base,
		data: make([]uint8, size),
	}, nil
}

// Handles reports whether addr falls inside [Base, Base+Size).
func (r *RAM) Handles(addr uint16) bool {
	return addr >= r.base && int(addr) < int(r.base)+len(r.data)
}

// Read8 returns the byte stored at addr.
func (r *RAM) Read8(addr uint16) uint8 {
	return r.data[addr-r.base]
}

// Write8 stores val at addr.
func (r *RAM) Write8(addr uint16, val uint8) {
	r.data[addr-r.base] = val
}

// Base returns the first address of the RAM.
func (r *RAM) Base() uint16 { return r.base }

// Size returns the RAM length in bytes.
func (r *RAM) Size() int { return len(r.data) }

// ReadAt copies RAM starting at offset into buf and returns the count copied.
// Offsets are relative to Base.
func (r *RAM) ReadAt(offset int, buf []byte) int {
	if offset < 0 || offset >= len(r.data) {
		return 0
	}
	return copy(buf, r.data[offset:])
}

// WriteAt copies buf into RAM starting at offset and returns the count copied.
func (r *RAM) WriteAt(offset int, buf []byte) int {
	if offset < 0 || offset >= len(r.data) {
		return 0
	}
	return copy(r.data[offset:], buf)
}
