package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/1broseidon/screenmode/internal/config"
	"github.com/1broseidon/screenmode/internal/display"
	"github.com/1broseidon/screenmode/internal/ipc"
	"github.com/1broseidon/screenmode/internal/settings"
)

func sampleScreens() []settings.ScreenInfo {
	sel := display.FrameLimit{Index: 2, Limit: 72}
	return []settings.ScreenInfo{
		{
			DevicePath: "randr/DP-1",
			Name:       "DELL S2721DGF",
			Primary:    true,
			Mode:       display.DeviceMode{Width: 2560, Height: 1440, Frequency: 144},
			Selected:   &sel,
		},
		{
			DevicePath: "randr/HDMI-1",
			Name:       "HDMI-1",
			Mode:       display.DeviceMode{Width: 1080, Height: 1920, Frequency: 60},
			Rotation:   90,
		},
	}
}

func TestWriteScreens_Piped(t *testing.T) {
	var buf bytes.Buffer
	writeScreens(&buf, sampleScreens(), false)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines without header, got %q", buf.String())
	}
	if lines[0] != "randr/DP-1\tDELL S2721DGF\t2560x1440@144\t0\ttrue\t72 FPS" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "\t90\tfalse\t-") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestWriteScreens_Terminal(t *testing.T) {
	var buf bytes.Buffer
	writeScreens(&buf, sampleScreens(), true)

	out := buf.String()
	if !strings.Contains(out, "DEVICE") {
		t.Fatalf("expected header, got %q", out)
	}
	if !strings.Contains(out, "* randr/DP-1") {
		t.Fatalf("expected primary marker, got %q", out)
	}

	buf.Reset()
	writeScreens(&buf, nil, true)
	if strings.TrimSpace(buf.String()) != "no screens" {
		t.Fatalf("expected empty notice, got %q", buf.String())
	}
}

func TestWriteFrameLimits(t *testing.T) {
	data := &ipc.FrameLimitsData{
		Screen:      "randr/HDMI-1",
		Frequency:   60,
		FrameLimits: display.NewFrameLimitCache().Get(60),
	}

	var buf bytes.Buffer
	writeFrameLimits(&buf, data, false)
	if buf.String() != "0\t0\n1\t60\n2\t40\n3\t30\n4\t20\n" {
		t.Fatalf("unexpected piped output %q", buf.String())
	}

	buf.Reset()
	writeFrameLimits(&buf, data, true)
	if !strings.Contains(buf.String(), "randr/HDMI-1 (60 Hz)") || !strings.Contains(buf.String(), " 0  Disabled") {
		t.Fatalf("unexpected terminal output %q", buf.String())
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{}, "default"},
		{config.Source{File: "/etc/sm.yaml"}, "/etc/sm.yaml"},
		{config.Source{File: "/etc/sm.yaml", Line: 3, Column: 5}, "/etc/sm.yaml:3:5"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Errorf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}
