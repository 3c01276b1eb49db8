//go:build !libretro

package cli

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/amulet/emu"
	"github.com/user-none/amulet/storage"
)

func TestParseBindings(t *testing.T) {
	bindings, err := parseBindings(storage.DefaultPad1Keys())
	if err != nil {
		t.Fatalf("parseBindings failed: %v", err)
	}
	if len(bindings) != 8 {
		t.Fatalf("expected 8 bindings, got %d", len(bindings))
	}

	var all uint8
	for _, b := range bindings {
		all |= b.bit
		if b.bit == emu.PadA && b.key != ebiten.KeyZ {
			t.Errorf("A: expected key Z, got %v", b.key)
		}
	}
	if all != 0xFF {
		t.Errorf("expected every pad bit bound, got 0x%02X", all)
	}
}

func TestParseBindingsErrors(t *testing.T) {
	if _, err := parseBindings(map[string]string{"turbo": "T"}); err == nil {
		t.Error("expected error for unknown button")
	}
	if _, err := parseBindings(map[string]string{"a": "NoSuchKey"}); err == nil {
		t.Error("expected error for unknown key")
	}
	if b, err := parseBindings(nil); err != nil || len(b) != 0 {
		t.Errorf("nil map: expected no bindings, got %v, %v", b, err)
	}
}
