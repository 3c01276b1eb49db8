package emu

import (
	"errors"
	"fmt"
)

// Bus and configuration errors.
var (
	// ErrUnmappedAddress is returned when no device claims an address.
	ErrUnmappedAddress = errors.New("unmapped address")

	// ErrDeviceOverlap is returned when two devices claim the same address.
	ErrDeviceOverlap = errors.New("device address ranges overlap")

	// ErrImageTooLarge is returned when a program image does not fit the address space.
	ErrImageTooLarge = errors.New("program image does not fit address space")

	// ErrEmptyImage is returned for a zero-length program image.
	ErrEmptyImage = errors.New("program image is empty")

	// ErrBadRAMSize is returned when a RAM device would not fit the address space.
	ErrBadRAMSize = errors.New("invalid RAM size")
)

// CPU fault sentinels. Every *Fault unwraps to exactly one of these (or to
// the underlying *BusError for FaultBus).
var (
	ErrIllegalOpcode        = errors.New("illegal opcode")
	ErrReservedOpcode       = errors.New("reserved opcode not implemented")
	ErrReturnStackUnderflow = errors.New("return stack underflow")
	ErrDataStackUnderflow   = errors.New("data stack underflow")
	ErrStackOverflow        = errors.New("stack overflow")
	ErrIllegalSyscall       = errors.New("illegal syscall")
)

// BusError reports a bus access that no device claimed.
type BusError struct {
	Op   string // "read" or "write"
	Addr uint16
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s at $%04X: %v", e.Op, e.Addr, ErrUnmappedAddress)
}

func (e *BusError) Unwrap() error {
	return ErrUnmappedAddress
}

// OverlapError reports two devices claiming the same address at registration.
type OverlapError struct {
	First  int // index of the earlier registered device
	Second int // index of the later registered device
	Addr   uint16
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("devices %d and %d both claim $%04X: %v", e.First, e.Second, e.Addr, ErrDeviceOverlap)
}

func (e *OverlapError) Unwrap() error {
	return ErrDeviceOverlap
}

// FaultKind classifies a fatal CPU condition.
type FaultKind int

const (
	FaultIllegalOpcode FaultKind = iota + 1
	FaultReservedOpcode
	FaultReturnStackUnderflow
	FaultDataStackUnderflow
	FaultStackOverflow
	FaultIllegalSyscall
	FaultBus
)

// String returns a short description of the kind.
func (k FaultKind) String() string {
	switch k {
	case FaultIllegalOpcode:
		return "illegal opcode"
	case FaultReservedOpcode:
		return "reserved opcode"
	case FaultReturnStackUnderflow:
		return "return stack underflow"
	case FaultDataStackUnderflow:
		return "data stack underflow"
	case FaultStackOverflow:
		return "stack overflow"
	case FaultIllegalSyscall:
		return "illegal syscall"
	case FaultBus:
		return "bus fault"
	}
	return "unknown fault"
}

// Fault is the structured diagnostic for a CPU-fatal condition. The CPU is
// halted whenever a Fault is returned.
type Fault struct {
	Kind        FaultKind
	PC          uint16 // address of the faulting opcode
	Opcode      uint8
	DataDepth   int
	ReturnDepth int
	Err         error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("cpu fault at PC=$%04X op=$%02X (%s) DS=%d RS=%d: %v",
		f.PC, f.Opcode, Mnemonic(f.Opcode), f.DataDepth, f.ReturnDepth, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
