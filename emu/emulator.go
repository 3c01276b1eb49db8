package emu

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/glog"
	emucore "github.com/user-none/eblitui/api"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

const (
	MaxScreenHeight = ScreenHeight
	SampleRate      = 48000 // reported to frontends; no samples are produced
)

// Machine defaults.
const (
	DefaultLoadAddress = 0x0000
	DefaultRAMBase     = 0x8000
	DefaultRAMSize     = 0x2000
)

// Core option keys understood by SetOption.
const (
	OptionStrictStack = "strict_stack"
	OptionAutoLatch   = "auto_latch"
)

// Config describes how a program is mapped and run.
type Config struct {
	LoadAddress   uint16 // ROM base; the image is copied verbatim here
	RAMBase       uint16
	RAMSize       int
	StartPC       uint16
	StepsPerFrame int // 0 uses the region timing
	StackPolicy   StackPolicy
	AutoLatch     bool // latch pads after every frame
	Region        Region
	Output        io.Writer // SYS output; nil logs through glog
}

// DefaultConfig returns the standard memory map: program at $0000, 8KB RAM
// at $8000, execution from $0000, automatic pad latching, lenient stacks.
func DefaultConfig() Config {
	return Config{
		LoadAddress: DefaultLoadAddress,
		RAMBase:     DefaultRAMBase,
		RAMSize:     DefaultRAMSize,
		StartPC:     DefaultLoadAddress,
		StackPolicy: StackLenient,
		AutoLatch:   true,
		Region:      RegionNTSC,
	}
}

// Emulator contains the machine components and drives the frame loop.
type Emulator struct {
	cpu  *CPU
	bus  *Bus
	rom  *ROM
	ram  *RAM
	pads *ControllerHub
	ppu  *PPU

	cfg           Config
	region        Region
	timing        RegionTiming
	stepsPerFrame int
	frame         uint64

	faultLogged bool
}

// NewEmulator creates an emulator for program with the default config.
func NewEmulator(program []byte, region Region) (Emulator, error) {
	cfg := DefaultConfig()
	cfg.Region = region
	e, err := NewEmulatorWithConfig(program, cfg)
	if err != nil {
		return Emulator{}, err
	}
	return *e, nil
}

// NewEmulatorWithConfig builds the machine described by cfg and resets the
// CPU to cfg.StartPC.
func NewEmulatorWithConfig(program []byte, cfg Config) (*Emulator, error) {
	rom, err := NewROM(cfg.LoadAddress, program)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	ram, err := NewRAM(cfg.RAMBase, cfg.RAMSize)
	if err != nil {
		return nil, fmt.Errorf("create RAM: %w", err)
	}
	pads := NewControllerHub(MaxPads)
	ppu := NewPPU()

	bus, err := NewBus(rom, ram, pads, ppu)
	if err != nil {
		return nil, fmt.Errorf("map devices: %w", err)
	}

	cpu := NewCPU(bus)
	cpu.SetStackPolicy(cfg.StackPolicy)
	cpu.SetVBlankSource(ppu)
	if cfg.Output != nil {
		cpu.SetOutput(cfg.Output)
	} else {
		cpu.SetOutput(&logWriter{})
	}

	e := &Emulator{
		cpu:  cpu,
		bus:  bus,
		rom:  rom,
		ram:  ram,
		pads: pads,
		ppu:  ppu,
		cfg:  cfg,
	}
	e.SetRegion(cfg.Region)
	e.Reset()

	glog.V(1).Infof("program loaded: %d bytes at $%04X crc32=%08X, RAM $%04X+%d, start $%04X",
		rom.Size(), rom.Base(), rom.CRC32(), ram.Base(), ram.Size(), cfg.StartPC)
	return e, nil
}

// Reset restarts the CPU at the configured start address. Memory and video
// state are left as they are.
func (e *Emulator) Reset() {
	e.cpu.Reset(e.cfg.StartPC)
	e.faultLogged = false
}

// RunFrame executes one frame: up to the frame's step budget, stopping early
// when the CPU halts, faults or waits for VBlank, then renders the picture,
// raises VBlank and latches the pads.
func (e *Emulator) RunFrame() {
	if e.cpu.Running() {
		e.runSteps()
	}

	e.ppu.RenderFrame()
	e.ppu.SetVBlank()
	if e.cfg.AutoLatch {
		e.pads.VBlankLatch()
	}
	e.frame++
}

func (e *Emulator) runSteps() {
	for n := 0; n < e.stepsPerFrame; n++ {
		if err := e.cpu.Step(); err != nil {
			if !e.faultLogged {
				glog.Errorf("frame %d: %v", e.frame, err)
				e.faultLogged = true
			}
			return
		}
		if !e.cpu.Running() || e.cpu.Waiting() {
			if glog.V(2) {
				glog.Infof("frame %d: CPU phase ended after %d steps (running=%v waiting=%v)",
					e.frame, n+1, e.cpu.Running(), e.cpu.Waiting())
			}
			return
		}
	}
}

// Fault returns the fault that stopped the CPU, or nil.
func (e *Emulator) Fault() *Fault { return e.cpu.Fault() }

// Frame returns the number of frames run since creation.
func (e *Emulator) Frame() uint64 { return e.frame }

// Component accessors for hosts, debuggers and tests.

func (e *Emulator) CPU() *CPU { return e.cpu }
func (e *Emulator) PPU() *PPU { return e.ppu }
func (e *Emulator) Bus() *Bus { return e.bus }
func (e *Emulator) Pads() *ControllerHub { return e.pads }
func (e *Emulator) ROM() *ROM { return e.rom }
func (e *Emulator) RAM() *RAM { return e.ram }

// Config returns the active configuration, including option changes.
func (e *Emulator) Config() Config { return e.cfg }

// StepsPerFrame returns the CPU step budget of one frame.
func (e *Emulator) StepsPerFrame() int { return e.stepsPerFrame }

// SetInput unpacks an emucore button bitmask and sets the live state of the
// player's pad. Bits 0-7 share their meaning with the pad register.
func (e *Emulator) SetInput(player int, buttons uint32) {
	up := buttons&(1<<emucore.ButtonUp) != 0
	down := buttons&(1<<emucore.ButtonDown) != 0
	left := buttons&(1<<emucore.ButtonLeft) != 0
	right := buttons&(1<<emucore.ButtonRight) != 0
	a := buttons&PadA != 0
	b := buttons&PadB != 0
	sel := buttons&PadSelect != 0
	start := buttons&PadStart != 0

	e.pads.SetState(player, PadBits(up, down, left, right, a, b, sel, start))
}

// GetFramebuffer returns raw RGBA pixel data for the current frame.
func (e *Emulator) GetFramebuffer() []byte {
	return e.ppu.Framebuffer().Pix
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	return e.ppu.Framebuffer().Stride
}

// GetActiveHeight returns the displayed height. The whole screen is always
// active.
func (e *Emulator) GetActiveHeight() int {
	return ScreenHeight
}

// GetRegion returns the emulator's region setting
func (e *Emulator) GetRegion() Region {
	return e.region
}

// GetTiming returns FPS and scanline count for the current region.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       e.timing.FPS,
		Scanlines: e.timing.Scanlines,
	}
}

// SetRegion updates the frame rate and the per-frame step budget. An explicit
// Config.StepsPerFrame overrides the region budget.
func (e *Emulator) SetRegion(region Region) {
	e.region = region
	e.timing = GetTimingForRegion(region)
	e.stepsPerFrame = e.timing.StepsPerFrame
	if e.cfg.StepsPerFrame > 0 {
		e.stepsPerFrame = e.cfg.StepsPerFrame
	}
}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case OptionStrictStack:
		e.cfg.StackPolicy = StackLenient
		if value == "true" {
			e.cfg.StackPolicy = StackStrict
		}
		e.cpu.SetStackPolicy(e.cfg.StackPolicy)
	case OptionAutoLatch:
		e.cfg.AutoLatch = value == "true"
	default:
		glog.Warningf("unknown core option %q", key)
	}
}

// Close releases any resources held by the emulator.
func (e *Emulator) Close() {
	glog.Flush()
}

// GetAudioSamples returns no samples; the machine has no sound hardware.
func (e *Emulator) GetAudioSamples() []int16 {
	return nil
}

// ReadMemory reads from a flat address into buf and returns the number of
// bytes read. Flat addresses map to system RAM starting at 0.
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	if addr >= uint32(e.ram.Size()) {
		return 0
	}
	return uint32(e.ram.ReadAt(int(addr), buf))
}

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: e.ram.Size()},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		out := make([]byte, e.ram.Size())
		e.ram.ReadAt(0, out)
		return out
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		e.ram.WriteAt(0, data)
	}
}

// logWriter forwards SYS output to glog one line at a time.
type logWriter struct {
	buf bytes.Buffer
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line: keep it for the next write.
			w.buf.Reset()
			w.buf.Write(line)
			return len(p), nil
		}
		glog.Infof("sys: %s", bytes.TrimRight(line, "\n"))
	}
}
