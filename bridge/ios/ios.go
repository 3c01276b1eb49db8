// Package emuios provides a gomobile-compatible interface to the emulator.
package emuios

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/user-none/amulet/emu"
	"github.com/user-none/amulet/romloader"
	"github.com/user-none/amulet/scene"
)

// ExtractResult contains the result of program extraction
type ExtractResult struct {
	Crc32    string // Hex string, e.g., "AABBCCDD"
	Filename string // Original filename from archive, e.g., "scroller.amu"
}

// currentEmu holds the emulator state (unexported)
var currentEmu *emulatorState

// lastErr is the message of the most recent failed call
var lastErr string

type emulatorState struct {
	emu       *emu.Emulator
	frameData []byte
}

func regionFromCode(regionCode int) emu.Region {
	if regionCode == 1 {
		return emu.RegionPAL
	}
	return emu.RegionNTSC
}

func start(program []byte, regionCode int) bool {
	cfg := emu.DefaultConfig()
	cfg.Region = regionFromCode(regionCode)
	e, err := emu.NewEmulatorWithConfig(program, cfg)
	if err != nil {
		lastErr = err.Error()
		return false
	}
	currentEmu = &emulatorState{emu: e}
	lastErr = ""
	return true
}

// InitFromPath creates an emulator from a program file path.
// Automatically extracts from ZIP/7z/gzip/RAR if needed.
// regionCode: 0=NTSC, 1=PAL
// Returns true on success, false on error.
func InitFromPath(path string, regionCode int) bool {
	program, _, err := romloader.LoadProgram(path)
	if err != nil {
		lastErr = err.Error()
		return false
	}
	return start(program, regionCode)
}

// InitDemo creates an emulator running the built-in demo program and scene.
func InitDemo(regionCode int) bool {
	if !start(scene.DemoProgram(), regionCode) {
		return false
	}
	scene.InitDemoScene(currentEmu.emu.PPU())
	return true
}

// LastError returns the reason the last Init call failed.
func LastError() string {
	return lastErr
}

// Close releases the emulator.
func Close() {
	if currentEmu != nil {
		currentEmu.emu.Close()
	}
	currentEmu = nil
}

// RunFrame executes one frame of emulation.
func RunFrame() {
	if currentEmu == nil {
		return
	}
	currentEmu.emu.RunFrame()

	fb := currentEmu.emu.GetFramebuffer()
	active := currentEmu.emu.GetFramebufferStride() * currentEmu.emu.GetActiveHeight()
	currentEmu.frameData = fb[:active]
}

// FrameWidth returns the display width (always 224).
func FrameWidth() int {
	return emu.ScreenWidth
}

// FrameHeight returns the display height (always 256).
func FrameHeight() int {
	return emu.ScreenHeight
}

// GetFrameData returns the RGBA frame buffer of the last frame.
func GetFrameData() []byte {
	if currentEmu == nil {
		return nil
	}
	return currentEmu.frameData
}

// SetInput sets the live state of a pad. buttons uses the pad register
// layout: bit 0 Up, 1 Down, 2 Left, 3 Right, 4 A, 5 B, 6 Select, 7 Start.
func SetInput(pad int, buttons int) {
	if currentEmu != nil {
		currentEmu.emu.Pads().SetState(pad, uint8(buttons))
	}
}

// Region returns the current region (0=NTSC, 1=PAL).
func Region() int {
	if currentEmu == nil {
		return 0
	}
	if currentEmu.emu.GetRegion() == emu.RegionPAL {
		return 1
	}
	return 0
}

// FaultMessage describes the CPU fault, or returns "" while the program runs.
func FaultMessage() string {
	if currentEmu == nil {
		return ""
	}
	if f := currentEmu.emu.Fault(); f != nil {
		return f.Error()
	}
	return ""
}

// Halted reports whether the CPU has stopped, by HALT or by a fault.
func Halted() bool {
	return currentEmu != nil && !currentEmu.emu.CPU().Running()
}

// Reset restarts the program.
func Reset() {
	if currentEmu != nil {
		currentEmu.emu.Reset()
	}
}

// GetFPS returns the target FPS for a region code.
func GetFPS(regionCode int) int {
	return emu.GetTimingForRegion(regionFromCode(regionCode)).FPS
}

// GetCRC32FromPath calculates the CRC32 checksum of a program file.
// Automatically extracts from ZIP/7z/gzip/RAR if needed.
// Returns -1 on error.
func GetCRC32FromPath(path string) int64 {
	program, _, err := romloader.LoadProgram(path)
	if err != nil {
		return -1
	}

	return int64(crc32.ChecksumIEEE(program))
}

// ExtractAndStoreProgram extracts a program from an archive (or copies a raw
// image), calculates its CRC32, and stores it as {destDir}/{CRC32}.amu.
// If a file with the same CRC32 already exists, it skips writing.
func ExtractAndStoreProgram(srcPath, destDir string) (*ExtractResult, error) {
	program, filename, err := romloader.LoadProgram(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}

	crcHex := fmt.Sprintf("%08X", crc32.ChecksumIEEE(program))
	destPath := filepath.Join(destDir, crcHex+".amu")

	// Skip write if file already exists (same CRC = same content)
	if _, err := os.Stat(destPath); err == nil {
		return &ExtractResult{Crc32: crcHex, Filename: filename}, nil
	}

	if err := os.WriteFile(destPath, program, 0644); err != nil {
		return nil, fmt.Errorf("failed to write program: %w", err)
	}

	return &ExtractResult{Crc32: crcHex, Filename: filename}, nil
}
