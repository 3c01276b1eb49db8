//go:build !libretro && !ios

// Package ebiten draws an emulator framebuffer onto Ebiten images.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/amulet/emu"
)

// Screen presents an emulator's framebuffer through Ebiten.
type Screen struct {
	emu *emu.Emulator

	offscreen *ebiten.Image           // Offscreen buffer for native resolution rendering
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation
}

// NewScreen creates a Screen for e.
func NewScreen(e *emu.Emulator) *Screen {
	return &Screen{emu: e}
}

// DrawToScreen renders the framebuffer to screen, scaled to fit with the
// aspect ratio kept and centred.
func (s *Screen) DrawToScreen(screen *ebiten.Image) {
	src := s.GetFramebufferImage()
	if src == nil {
		return
	}

	// Calculate scaling to fit window while preserving aspect ratio
	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	nativeW := float64(emu.ScreenWidth)
	nativeH := float64(s.emu.GetActiveHeight())

	scaleX := float64(screenW) / nativeW
	scaleY := float64(screenH) / nativeH
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	// Calculate offset to center the image
	offsetX := (float64(screenW) - nativeW*scale) / 2
	offsetY := (float64(screenH) - nativeH*scale) / 2

	s.drawOpts = ebiten.DrawImageOptions{}
	s.drawOpts.GeoM.Scale(scale, scale)
	s.drawOpts.GeoM.Translate(offsetX, offsetY)
	s.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(src, &s.drawOpts)
}

// Layout returns the window size so DrawToScreen controls scaling.
func (s *Screen) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// GetFramebufferImage returns the framebuffer as an ebiten.Image at native
// resolution, or nil if the buffer is short.
func (s *Screen) GetFramebufferImage() *ebiten.Image {
	activeHeight := s.emu.GetActiveHeight()

	if s.offscreen == nil || s.offscreen.Bounds().Dy() != activeHeight {
		s.offscreen = ebiten.NewImage(emu.ScreenWidth, activeHeight)
	}

	fb := s.emu.GetFramebuffer()
	requiredLen := s.emu.GetFramebufferStride() * activeHeight
	if len(fb) < requiredLen {
		return nil
	}
	s.offscreen.WritePixels(fb[:requiredLen])
	return s.offscreen
}
