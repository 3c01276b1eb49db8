package emu

import (
	emucore "github.com/user-none/eblitui/api"
)

// Region is an alias for emucore.Region so frontends and the core share it.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// StepsPerSecond is the nominal CPU speed. Timing is a step budget per frame,
// not cycle counting.
const StepsPerSecond = 30000

// RegionTiming holds the frame timing for a region.
type RegionTiming struct {
	FPS           int
	StepsPerFrame int
	Scanlines     int // rendered lines per frame
}

// NTSC timing: 60 Hz
var NTSCTiming = RegionTiming{
	FPS:           60,
	StepsPerFrame: StepsPerSecond / 60,
	Scanlines:     ScreenHeight,
}

// PAL timing: 50 Hz
var PALTiming = RegionTiming{
	FPS:           50,
	StepsPerFrame: StepsPerSecond / 50,
	Scanlines:     ScreenHeight,
}

// GetTimingForRegion returns the timing for r. Unknown regions use NTSC.
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// DefaultRegion returns the default region (NTSC).
// Program images carry no header, so the region is a host choice.
func DefaultRegion() Region {
	return RegionNTSC
}

// ParseRegion maps "ntsc", "pal" or "auto" (or "") to a region. The boolean
// is false for "auto" and for unrecognised names, in which case NTSC is
// returned.
func ParseRegion(s string) (Region, bool) {
	switch s {
	case "ntsc", "NTSC":
		return RegionNTSC, true
	case "pal", "PAL":
		return RegionPAL, true
	}
	return RegionNTSC, false
}

// RegionName returns the lower-case name of r.
func RegionName(r Region) string {
	if r == RegionPAL {
		return "pal"
	}
	return "ntsc"
}
