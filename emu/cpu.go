package emu

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// StackDepth is the capacity of each CPU stack in entries.
const StackDepth = 256

// traceDepth is the number of entries SYS TRACE prints.
const traceDepth = 8

// putsLimit caps the length of a SYS PUTS string.
const putsLimit = 256

// Flag bits set by CMP.
const (
	FlagC uint8 = 1 << 0 // a >= b
	FlagZ uint8 = 1 << 1 // a == b
	FlagN uint8 = 1 << 7 // bit 7 of a-b
)

// Memory is the bus as seen by the CPU.
type Memory interface {
	Reader
	Write8(addr uint16, val uint8) error
}

// VBlankSource reports and acknowledges vertical blanking. TakeVBlank returns
// true at most once per blanking period.
type VBlankSource interface {
	TakeVBlank() bool
}

// StackPolicy selects data stack underflow behaviour.
type StackPolicy int

const (
	// StackLenient pops 0 from an empty data stack.
	StackLenient StackPolicy = iota
	// StackStrict faults on data stack underflow.
	StackStrict
)

// String returns "strict" or "lenient".
func (p StackPolicy) String() string {
	if p == StackStrict {
		return "strict"
	}
	return "lenient"
}

type stack struct {
	data [StackDepth]uint8
	n    int
}

func (s *stack) push(v uint8) bool {
	if s.n == StackDepth {
		return false
	}
	s.data[s.n] = v
	s.n++
	return true
}

func (s *stack) pop() (uint8, bool) {
	if s.n == 0 {
		return 0, false
	}
	s.n--
	return s.data[s.n], true
}

func (s *stack) snapshot() []uint8 {
	out := make([]uint8, s.n)
	copy(out, s.data[:s.n])
	return out
}

// CPUState is a snapshot of the CPU for debuggers and tests.
type CPUState struct {
	PC          uint16
	Running     bool
	Waiting     bool
	Flags       uint8
	DataStack   []uint8 // bottom first
	ReturnStack []uint8 // bottom first
	Steps       uint64
}

// CPU is an 8-bit dual-stack machine with a 16-bit program counter.
type CPU struct {
	mem    Memory
	out    io.Writer
	vblank VBlankSource
	policy StackPolicy

	pc      uint16
	running bool
	waiting bool
	flags   uint8
	ds      stack
	rs      stack

	// Decode context of the instruction in flight.
	opPC   uint16
	opcode uint8

	fault *Fault
	steps uint64
}

// NewCPU creates a halted CPU attached to mem. Call Reset to start it.
func NewCPU(mem Memory) *CPU {
	return &CPU{
		mem: mem,
		out: io.Discard,
	}
}

// Reset clears both stacks, flags and any fault, sets PC and starts the CPU.
func (c *CPU) Reset(pc uint16) {
	c.pc = pc
	c.running = true
	c.waiting = false
	c.flags = 0
	c.ds.n = 0
	c.rs.n = 0
	c.fault = nil
	c.steps = 0
}

// SetStackPolicy selects how data stack underflow is handled.
func (c *CPU) SetStackPolicy(p StackPolicy) { c.policy = p }

// StackPolicy returns the active data stack policy.
func (c *CPU) StackPolicy() StackPolicy { return c.policy }

// SetOutput sets the destination for SYS service output. nil discards it.
func (c *CPU) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	c.out = w
}

// SetVBlankSource attaches the source WAITVBL polls. With no source WAITVBL
// completes immediately.
func (c *CPU) SetVBlankSource(src VBlankSource) { c.vblank = src }

// PC returns the address of the next instruction.
func (c *CPU) PC() uint16 { return c.pc }

// Running reports whether Step will execute. HALT and faults clear it.
func (c *CPU) Running() bool { return c.running }

// Waiting reports whether the last step was WAITVBL with no VBlank pending.
func (c *CPU) Waiting() bool { return c.waiting }

// Flags returns the Z, N and C bits set by the last CMP.
func (c *CPU) Flags() uint8 { return c.flags }

// Steps returns the number of instructions completed since Reset.
func (c *CPU) Steps() uint64 { return c.steps }

// DataStack returns a copy of the data stack, bottom first.
func (c *CPU) DataStack() []uint8 { return c.ds.snapshot() }

// ReturnStack returns a copy of the return stack, bottom first.
func (c *CPU) ReturnStack() []uint8 { return c.rs.snapshot() }

// Fault returns the fault that stopped the CPU, or nil.
func (c *CPU) Fault() *Fault { return c.fault }

// State returns a copy of the architectural state.
func (c *CPU) State() CPUState {
	return CPUState{
		PC:          c.pc,
		Running:     c.running,
		Waiting:     c.waiting,
		Flags:       c.flags,
		DataStack:   c.ds.snapshot(),
		ReturnStack: c.rs.snapshot(),
		Steps:       c.steps,
	}
}

// Step executes one instruction. It returns nil without doing anything when
// the CPU is not running. Any returned error is a *Fault and leaves the CPU
// halted.
func (c *CPU) Step() error {
	if !c.running {
		return nil
	}
	c.opPC = c.pc
	c.opcode = 0

	op, err := c.fetch8()
	if err != nil {
		return c.halt(err)
	}
	c.opcode = op

	in := &instructions[op]
	switch {
	case in.reserved:
		return c.halt(c.fail(FaultReservedOpcode, ErrReservedOpcode))
	case in.exec == nil:
		return c.halt(c.fail(FaultIllegalOpcode, ErrIllegalOpcode))
	}

	c.waiting = false
	if err := in.exec(c); err != nil {
		return c.halt(err)
	}
	c.steps++
	return nil
}

// Run steps until the CPU stops or maxSteps instructions have executed.
// It returns the number of steps taken.
func (c *CPU) Run(maxSteps int) (int, error) {
	for n := 0; n < maxSteps; n++ {
		if !c.running {
			return n, nil
		}
		if err := c.Step(); err != nil {
			return n + 1, err
		}
	}
	return maxSteps, nil
}

func (c *CPU) halt(err error) error {
	c.running = false
	c.waiting = false
	var f *Fault
	if !errors.As(err, &f) {
		f = c.fail(FaultBus, err).(*Fault)
	}
	c.fault = f
	return f
}

// fail builds a fault for the instruction in flight.
func (c *CPU) fail(kind FaultKind, err error) error {
	return &Fault{
		Kind:        kind,
		PC:          c.opPC,
		Opcode:      c.opcode,
		DataDepth:   c.ds.n,
		ReturnDepth: c.rs.n,
		Err:         err,
	}
}

func (c *CPU) read(addr uint16) (uint8, error) {
	v, err := c.mem.Read8(addr)
	if err != nil {
		return 0, c.fail(FaultBus, err)
	}
	return v, nil
}

func (c *CPU) write(addr uint16, val uint8) error {
	if err := c.mem.Write8(addr, val); err != nil {
		return c.fail(FaultBus, err)
	}
	return nil
}

func (c *CPU) fetch8() (uint8, error) {
	v, err := c.read(c.pc)
	if err != nil {
		return 0, err
	}
	c.pc++
	return v, nil
}

func (c *CPU) fetch16() (uint16, error) {
	lo, err := c.fetch8()
	if err != nil {
		return 0, err
	}
	hi, err := c.fetch8()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func (c *CPU) push(v uint8) error {
	if !c.ds.push(v) {
		return c.fail(FaultStackOverflow, ErrStackOverflow)
	}
	return nil
}

func (c *CPU) pop() (uint8, error) {
	v, ok := c.ds.pop()
	if !ok && c.policy == StackStrict {
		return 0, c.fail(FaultDataStackUnderflow, ErrDataStackUnderflow)
	}
	return v, nil
}

func (c *CPU) rpush(v uint8) error {
	if !c.rs.push(v) {
		return c.fail(FaultStackOverflow, ErrStackOverflow)
	}
	return nil
}

func (c *CPU) rpop() (uint8, error) {
	v, ok := c.rs.pop()
	if !ok {
		return 0, c.fail(FaultReturnStackUnderflow, ErrReturnStackUnderflow)
	}
	return v, nil
}

// popAddr pops a 16-bit address pushed low byte first.
func (c *CPU) popAddr() (uint16, error) {
	hi, err := c.pop()
	if err != nil {
		return 0, err
	}
	lo, err := c.pop()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func (c *CPU) pushAll(vals ...uint8) error {
	for _, v := range vals {
		if err := c.push(v); err != nil {
			return err
		}
	}
	return nil
}

// popN pops n values and returns them bottom first.
func (c *CPU) popN(n int) ([]uint8, error) {
	vals := make([]uint8, n)
	for i := n - 1; i >= 0; i-- {
		v, err := c.pop()
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (c *CPU) drop() error {
	_, err := c.pop()
	return err
}

func (c *CPU) dup() error {
	a, err := c.pop()
	if err != nil {
		return err
	}
	return c.pushAll(a, a)
}

func (c *CPU) swap() error {
	v, err := c.popN(2)
	if err != nil {
		return err
	}
	return c.pushAll(v[1], v[0])
}

func (c *CPU) over() error {
	v, err := c.popN(2)
	if err != nil {
		return err
	}
	return c.pushAll(v[0], v[1], v[0])
}

func (c *CPU) rot() error {
	v, err := c.popN(3)
	if err != nil {
		return err
	}
	return c.pushAll(v[1], v[2], v[0])
}

func (c *CPU) nip() error {
	v, err := c.popN(2)
	if err != nil {
		return err
	}
	return c.push(v[1])
}

func (c *CPU) im1() error {
	v, err := c.fetch8()
	if err != nil {
		return err
	}
	return c.push(v)
}

func (c *CPU) im2() error {
	w, err := c.fetch16()
	if err != nil {
		return err
	}
	return c.pushAll(uint8(w), uint8(w>>8))
}

func (c *CPU) ld8() error {
	addr, err := c.popAddr()
	if err != nil {
		return err
	}
	v, err := c.read(addr)
	if err != nil {
		return err
	}
	return c.push(v)
}

func (c *CPU) st8() error {
	addr, err := c.popAddr()
	if err != nil {
		return err
	}
	v, err := c.pop()
	if err != nil {
		return err
	}
	return c.write(addr, v)
}

func (c *CPU) ld16() error {
	addr, err := c.popAddr()
	if err != nil {
		return err
	}
	lo, err := c.read(addr)
	if err != nil {
		return err
	}
	hi, err := c.read(addr + 1)
	if err != nil {
		return err
	}
	return c.pushAll(lo, hi)
}

func (c *CPU) st16() error {
	addr, err := c.popAddr()
	if err != nil {
		return err
	}
	val, err := c.popAddr()
	if err != nil {
		return err
	}
	if err := c.write(addr, uint8(val)); err != nil {
		return err
	}
	return c.write(addr+1, uint8(val>>8))
}

func (c *CPU) cmp() error {
	v, err := c.popN(2)
	if err != nil {
		return err
	}
	a, b := v[0], v[1]
	r := a - b
	c.flags = 0
	if r == 0 {
		c.flags |= FlagZ
	}
	if r&0x80 != 0 {
		c.flags |= FlagN
	}
	if a >= b {
		c.flags |= FlagC
	}
	return nil
}

func (c *CPU) jmp() error {
	target, err := c.fetch16()
	if err != nil {
		return err
	}
	c.pc = target
	return nil
}

func (c *CPU) call() error {
	target, err := c.fetch16()
	if err != nil {
		return err
	}
	ret := c.pc
	if err := c.rpush(uint8(ret >> 8)); err != nil {
		return err
	}
	if err := c.rpush(uint8(ret)); err != nil {
		return err
	}
	c.pc = target
	return nil
}

func (c *CPU) ret() error {
	lo, err := c.rpop()
	if err != nil {
		return err
	}
	hi, err := c.rpop()
	if err != nil {
		return err
	}
	c.pc = uint16(lo) | uint16(hi)<<8
	return nil
}

func (c *CPU) retz() error {
	x, err := c.pop()
	if err != nil {
		return err
	}
	if x != 0 {
		return nil
	}
	return c.ret()
}

func (c *CPU) pushrs() error {
	v, err := c.pop()
	if err != nil {
		return err
	}
	return c.rpush(v)
}

func (c *CPU) poprs() error {
	v, err := c.rpop()
	if err != nil {
		return err
	}
	return c.push(v)
}

// waitVBlank rewinds onto itself until the VBlank source reports a blank.
func (c *CPU) waitVBlank() error {
	if c.vblank == nil || c.vblank.TakeVBlank() {
		return nil
	}
	c.pc = c.opPC
	c.waiting = true
	return nil
}

func (c *CPU) sys() error {
	n, err := c.fetch8()
	if err != nil {
		return err
	}
	switch n {
	case SysTrace:
		c.trace("DS", &c.ds)
		return nil
	case SysRTrace:
		c.trace("RS", &c.rs)
		return nil
	case SysPuts:
		return c.puts()
	}
	return c.fail(FaultIllegalSyscall, fmt.Errorf("%w: $%02X", ErrIllegalSyscall, n))
}

// trace prints up to traceDepth entries of s, top first.
func (c *CPU) trace(name string, s *stack) {
	var b strings.Builder
	fmt.Fprintf(&b, "PC=%04X %s[%d]:", c.opPC, name, s.n)
	for i := 0; i < traceDepth && i < s.n; i++ {
		fmt.Fprintf(&b, " %02X", s.data[s.n-1-i])
	}
	b.WriteByte('\n')
	io.WriteString(c.out, b.String())
}

func (c *CPU) puts() error {
	addr, err := c.popAddr()
	if err != nil {
		return err
	}
	buf := make([]byte, 0, 32)
	for i := 0; i < putsLimit; i++ {
		v, err := c.read(addr + uint16(i))
		if err != nil {
			return err
		}
		if v == 0 {
			break
		}
		buf = append(buf, v)
	}
	c.out.Write(buf)
	return nil
}
