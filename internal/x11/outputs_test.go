package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/randr"
)

func TestRefreshRate(t *testing.T) {
	// 1920x1080@60 CVT reduced blanking.
	info := randr.ModeInfo{DotClock: 138500000, Htotal: 2080, Vtotal: 1111}
	if got := refreshRate(info); got != 60 {
		t.Fatalf("expected 60 Hz, got %d", got)
	}

	// 1920x1080@144
	info = randr.ModeInfo{DotClock: 325080000, Htotal: 2000, Vtotal: 1129}
	if got := refreshRate(info); got != 144 {
		t.Fatalf("expected 144 Hz, got %d", got)
	}

	info.ModeFlags = randr.ModeFlagDoubleScan
	if got := refreshRate(info); got != 72 {
		t.Fatalf("expected double-scan to halve refresh, got %d", got)
	}

	if got := refreshRate(randr.ModeInfo{DotClock: 1}); got != 0 {
		t.Fatalf("expected 0 for empty timings, got %d", got)
	}
}

func TestQuarterTurns(t *testing.T) {
	cases := map[uint16]int{
		randr.RotationRotate0:                          0,
		randr.RotationRotate90:                         1,
		randr.RotationRotate180:                        2,
		randr.RotationRotate270:                        3,
		randr.RotationRotate90 | randr.RotationReflectX: 1,
	}
	for in, want := range cases {
		if got := quarterTurns(in); got != want {
			t.Fatalf("quarterTurns(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestEDIDMonitorName(t *testing.T) {
	edid := make([]byte, 128)
	// Second descriptor carries the product name.
	d := edid[72:90]
	d[3] = 0xFC
	copy(d[5:], "DELL U2720Q\n  ")

	if got := edidMonitorName(edid); got != "DELL U2720Q" {
		t.Fatalf("expected DELL U2720Q, got %q", got)
	}

	if got := edidMonitorName(edid[:64]); got != "" {
		t.Fatalf("expected empty name for short EDID, got %q", got)
	}

	blank := make([]byte, 128)
	blank[54] = 0x01 // detailed timing, not a descriptor
	if got := edidMonitorName(blank); got != "" {
		t.Fatalf("expected empty name without descriptor, got %q", got)
	}
}
