package emu

// Controller hub registers.
const (
	RegPad1    = 0xE00A
	RegPad2    = 0xE00B
	RegPadCtrl = 0xE00C
)

// PadCtrlLatch in a CTRL write copies live pad state to the latched registers.
const PadCtrlLatch = 0x01

// Pad button bits (active high, 1 = pressed).
const (
	PadUp     = 1 << 0
	PadDown   = 1 << 1
	PadLeft   = 1 << 2
	PadRight  = 1 << 3
	PadA      = 1 << 4
	PadB      = 1 << 5
	PadSelect = 1 << 6
	PadStart  = 1 << 7
)

// MaxPads is the number of pad registers in the address map.
const MaxPads = 2

// ControllerHub holds live pad state set by the host and a latched copy the
// CPU reads. The CPU only ever sees the latched copy, so input is stable for
// the whole frame.
type ControllerHub struct {
	num     int
	live    [MaxPads]uint8
	latched [MaxPads]uint8
	ctrl    uint8
}

// NewControllerHub creates a hub with numPads connected pads (clamped to
// 0..MaxPads). Registers of unconnected pads read 0.
func NewControllerHub(numPads int) *ControllerHub {
	if numPads < 0 {
		numPads = 0
	}
	if numPads > MaxPads {
		numPads = MaxPads
	}
	return &ControllerHub{num: numPads}
}

// Handles reports whether addr is PAD1, PAD2 or CTRL.
func (h *ControllerHub) Handles(addr uint16) bool {
	return addr == RegPad1 || addr == RegPad2 || addr == RegPadCtrl
}

// Read8 returns the latched state of a pad, or the last CTRL value.
func (h *ControllerHub) Read8(addr uint16) uint8 {
	switch addr {
	case RegPad1:
		return h.latched[0]
	case RegPad2:
		return h.latched[1]
	case RegPadCtrl:
		return h.ctrl
	}
	return 0
}

// Write8 stores CTRL and latches when bit 0 is set. Pad registers are
// read-only.
func (h *ControllerHub) Write8(addr uint16, val uint8) {
	if addr != RegPadCtrl {
		return
	}
	h.ctrl = val
	if val&PadCtrlLatch != 0 {
		h.latch()
	}
}

// SetState sets the live buttons of pad. Pads that are not connected are
// ignored.
func (h *ControllerHub) SetState(pad int, bits uint8) {
	if pad < 0 || pad >= h.num {
		return
	}
	h.live[pad] = bits
}

// State returns the live buttons of pad.
func (h *ControllerHub) State(pad int) uint8 {
	if pad < 0 || pad >= h.num {
		return 0
	}
	return h.live[pad]
}

// Latched returns the buttons of pad as the CPU sees them.
func (h *ControllerHub) Latched(pad int) uint8 {
	if pad < 0 || pad >= h.num {
		return 0
	}
	return h.latched[pad]
}

// VBlankLatch copies live state to the latched registers. The frame loop
// calls it once per frame when automatic latching is enabled.
func (h *ControllerHub) VBlankLatch() {
	h.latch()
}

// NumPads returns the number of connected pads.
func (h *ControllerHub) NumPads() int { return h.num }

func (h *ControllerHub) latch() {
	copy(h.latched[:h.num], h.live[:h.num])
}

// PadBits builds a pad state byte from individual buttons.
func PadBits(up, down, left, right, a, b, sel, start bool) uint8 {
	var bits uint8
	set := func(on bool, mask uint8) {
		if on {
			bits |= mask
		}
	}
	set(up, PadUp)
	set(down, PadDown)
	set(left, PadLeft)
	set(right, PadRight)
	set(a, PadA)
	set(b, PadB)
	set(sel, PadSelect)
	set(start, PadStart)
	return bits
}
