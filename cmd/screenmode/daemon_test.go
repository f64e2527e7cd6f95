package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/screenmode/internal/display"
	"github.com/1broseidon/screenmode/internal/settings"
)

func TestRestartNotice_AnnouncesEachChangeOnce(t *testing.T) {
	n := &restartNotice{running: 30, last: 30}

	if n.changed(30) {
		t.Fatalf("unchanged value must not be announced")
	}
	if !n.changed(10) {
		t.Fatalf("expected first change to be announced")
	}
	if n.changed(10) {
		t.Fatalf("repeated reload of the same value must not be announced again")
	}
	if !n.changed(5) {
		t.Fatalf("expected a second edit to be announced")
	}
	if n.changed(30) {
		t.Fatalf("reverting to the running value needs no restart")
	}
}

type fakeSelections map[string]int

func (f fakeSelections) Selection(id string) (display.FrameLimit, bool, error) {
	if id == "randr/broken" {
		return display.FrameLimit{}, false, errors.New("unknown screen")
	}
	limit, ok := f[id]
	if !ok {
		return display.FrameLimit{}, false, nil
	}
	return display.FrameLimit{Index: 1, Limit: limit}, true, nil
}

func TestReportRestoredSelections(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	reportRestoredSelections(fakeSelections{"randr/DP-1": 72}, logger, settings.RefreshResult{
		Screens: 3,
		Added:   []string{"randr/DP-1", "randr/HDMI-1", "randr/broken"},
		Removed: []string{"randr/DP-2"},
	})

	out := buf.String()
	if strings.Count(out, "frame limit restored") != 1 {
		t.Fatalf("expected exactly one restored line, got %q", out)
	}
	if !strings.Contains(out, "screen=randr/DP-1") || !strings.Contains(out, `limit="72 FPS"`) {
		t.Fatalf("unexpected log line %q", out)
	}
}
