package emu

import "fmt"

// Opcodes. Gaps in the numbering are illegal; PICK, ADD16, IN and OUT are
// reserved for future use and fault distinctly from illegal bytes.
const (
	OpNOP  = 0x00
	OpSYS  = 0x01 // sub-op byte follows
	OpHALT = 0x02

	OpDROP = 0x10
	OpDUP  = 0x11
	OpSWAP = 0x12
	OpOVER = 0x13
	OpROT  = 0x14
	OpNIP  = 0x15
	OpPICK = 0x16 // reserved

	OpIM1  = 0x34 // imm8
	OpIM2  = 0x35 // lo hi
	OpLD8  = 0x36
	OpST8  = 0x37
	OpLD16 = 0x38
	OpST16 = 0x39

	OpADD   = 0x40
	OpSUB   = 0x41
	OpAND   = 0x42
	OpOR    = 0x43
	OpXOR   = 0x44
	OpNOT   = 0x45
	OpSHL   = 0x46
	OpSHR   = 0x47
	OpROL   = 0x48
	OpROR   = 0x49
	OpCMP   = 0x4A
	OpADD16 = 0x4B // reserved
	OpINC   = 0x4C
	OpDEC   = 0x4D

	OpJMP  = 0x50 // lo hi
	OpCALL = 0x51 // lo hi
	OpRET  = 0x52
	OpRETZ = 0x53
	OpHOP  = 0x54 // rel8
	OpBZ   = 0x55 // rel8
	OpBNZ  = 0x56 // rel8
	OpBC   = 0x57 // rel8
	OpBNC  = 0x58 // rel8

	OpPUSHRS  = 0x60
	OpPOPRS   = 0x61
	OpWAITVBL = 0x62
	OpIN      = 0x63 // reserved
	OpOUT     = 0x64 // reserved
)

// SYS service numbers.
const (
	SysTrace  = 0x10 // dump top of data stack with PC
	SysRTrace = 0x11 // dump top of return stack with PC
	SysPuts   = 0x20 // print NUL-terminated string at popped address
)

// operandMode describes the bytes that follow an opcode.
type operandMode uint8

const (
	modeNone  operandMode = iota
	modeImm8              // one literal byte
	modeAbs16             // two address bytes, low first
	modeRel8              // one signed branch offset
	modeSys               // one service number
)

func (m operandMode) size() int {
	switch m {
	case modeImm8, modeRel8, modeSys:
		return 1
	case modeAbs16:
		return 2
	}
	return 0
}

type instr struct {
	name     string
	mode     operandMode
	reserved bool
	exec     func(c *CPU) error
}

var instructions [0x100]instr

func init() {
	set := func(op uint8, name string, mode operandMode, fn func(c *CPU) error) {
		instructions[op] = instr{name: name, mode: mode, exec: fn}
	}
	reserve := func(op uint8, name string, mode operandMode) {
		instructions[op] = instr{name: name, mode: mode, reserved: true}
	}

	set(OpNOP, "NOP", modeNone, func(c *CPU) error { return nil })
	set(OpSYS, "SYS", modeSys, (*CPU).sys)
	set(OpHALT, "HALT", modeNone, func(c *CPU) error {
		c.running = false
		return nil
	})

	set(OpDROP, "DROP", modeNone, (*CPU).drop)
	set(OpDUP, "DUP", modeNone, (*CPU).dup)
	set(OpSWAP, "SWAP", modeNone, (*CPU).swap)
	set(OpOVER, "OVER", modeNone, (*CPU).over)
	set(OpROT, "ROT", modeNone, (*CPU).rot)
	set(OpNIP, "NIP", modeNone, (*CPU).nip)
	reserve(OpPICK, "PICK", modeImm8)

	set(OpIM1, "IM1", modeImm8, (*CPU).im1)
	set(OpIM2, "IM2", modeAbs16, (*CPU).im2)
	set(OpLD8, "LD8", modeNone, (*CPU).ld8)
	set(OpST8, "ST8", modeNone, (*CPU).st8)
	set(OpLD16, "LD16", modeNone, (*CPU).ld16)
	set(OpST16, "ST16", modeNone, (*CPU).st16)

	set(OpADD, "ADD", modeNone, binary(func(a, b uint8) uint8 { return a + b }))
	set(OpSUB, "SUB", modeNone, binary(func(a, b uint8) uint8 { return a - b }))
	set(OpAND, "AND", modeNone, binary(func(a, b uint8) uint8 { return a & b }))
	set(OpOR, "OR", modeNone, binary(func(a, b uint8) uint8 { return a | b }))
	set(OpXOR, "XOR", modeNone, binary(func(a, b uint8) uint8 { return a ^ b }))
	set(OpNOT, "NOT", modeNone, unary(func(a uint8) uint8 { return ^a }))
	set(OpSHL, "SHL", modeNone, unary(func(a uint8) uint8 { return a << 1 }))
	set(OpSHR, "SHR", modeNone, unary(func(a uint8) uint8 { return a >> 1 }))
	set(OpROL, "ROL", modeNone, unary(func(a uint8) uint8 { return a<<1 | a>>7 }))
	set(OpROR, "ROR", modeNone, unary(func(a uint8) uint8 { return a>>1 | a<<7 }))
	set(OpCMP, "CMP", modeNone, (*CPU).cmp)
	reserve(OpADD16, "ADD16", modeNone)
	set(OpINC, "INC", modeNone, unary(func(a uint8) uint8 { return a + 1 }))
	set(OpDEC, "DEC", modeNone, unary(func(a uint8) uint8 { return a - 1 }))

	set(OpJMP, "JMP", modeAbs16, (*CPU).jmp)
	set(OpCALL, "CALL", modeAbs16, (*CPU).call)
	set(OpRET, "RET", modeNone, (*CPU).ret)
	set(OpRETZ, "RETZ", modeNone, (*CPU).retz)
	set(OpHOP, "HOP", modeRel8, branch(func(c *CPU) bool { return true }))
	set(OpBZ, "BZ", modeRel8, branch(func(c *CPU) bool { return c.flags&FlagZ != 0 }))
	set(OpBNZ, "BNZ", modeRel8, branch(func(c *CPU) bool { return c.flags&FlagZ == 0 }))
	set(OpBC, "BC", modeRel8, branch(func(c *CPU) bool { return c.flags&FlagC != 0 }))
	set(OpBNC, "BNC", modeRel8, branch(func(c *CPU) bool { return c.flags&FlagC == 0 }))

	set(OpPUSHRS, "PUSHRS", modeNone, (*CPU).pushrs)
	set(OpPOPRS, "POPRS", modeNone, (*CPU).poprs)
	set(OpWAITVBL, "WAITVBL", modeNone, (*CPU).waitVBlank)
	reserve(OpIN, "IN", modeImm8)
	reserve(OpOUT, "OUT", modeImm8)
}

// Mnemonic returns the assembler name of op, or "???" for illegal bytes.
func Mnemonic(op uint8) string {
	if name := instructions[op].name; name != "" {
		return name
	}
	return "???"
}

// InstructionSize returns the encoded length of op including operands.
// Illegal opcodes are one byte.
func InstructionSize(op uint8) int {
	return 1 + instructions[op].mode.size()
}

// Reader is the read half of the bus, used by the disassembler.
type Reader interface {
	Read8(addr uint16) (uint8, error)
}

// Disassemble decodes the instruction at addr and returns its text and size
// in bytes. Branch targets are resolved to absolute addresses.
func Disassemble(mem Reader, addr uint16) (string, int) {
	op, err := mem.Read8(addr)
	if err != nil {
		return fmt.Sprintf("$%04X: ???", addr), 1
	}
	in := instructions[op]
	if in.name == "" {
		return fmt.Sprintf("$%04X: .byte $%02X", addr, op), 1
	}
	size := 1 + in.mode.size()

	var operand [2]uint8
	for i := 0; i < in.mode.size(); i++ {
		b, err := mem.Read8(addr + 1 + uint16(i))
		if err != nil {
			return fmt.Sprintf("$%04X: %s ???", addr, in.name), size
		}
		operand[i] = b
	}

	var text string
	switch in.mode {
	case modeNone:
		text = in.name
	case modeImm8:
		text = fmt.Sprintf("%s #$%02X", in.name, operand[0])
	case modeSys:
		text = fmt.Sprintf("%s $%02X", in.name, operand[0])
	case modeAbs16:
		text = fmt.Sprintf("%s $%04X", in.name, uint16(operand[0])|uint16(operand[1])<<8)
	case modeRel8:
		target := addr + uint16(size) + uint16(int16(int8(operand[0])))
		text = fmt.Sprintf("%s $%04X", in.name, target)
	}
	return fmt.Sprintf("$%04X: %s", addr, text), size
}

// binary builds an ALU op that pops b then a and pushes fn(a, b).
func binary(fn func(a, b uint8) uint8) func(c *CPU) error {
	return func(c *CPU) error {
		b, err := c.pop()
		if err != nil {
			return err
		}
		a, err := c.pop()
		if err != nil {
			return err
		}
		return c.push(fn(a, b))
	}
}

// unary builds an ALU op that pops a and pushes fn(a).
func unary(fn func(a uint8) uint8) func(c *CPU) error {
	return func(c *CPU) error {
		a, err := c.pop()
		if err != nil {
			return err
		}
		return c.push(fn(a))
	}
}

// branch builds a relative branch taken when cond holds. The offset byte is
// always consumed.
func branch(cond func(c *CPU) bool) func(c *CPU) error {
	return func(c *CPU) error {
		off, err := c.fetch8()
		if err != nil {
			return err
		}
		if cond(c) {
			c.pc += uint16(int16(int8(off)))
		}
		return nil
	}
}
