package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/1broseidon/screenmode/internal/config"
	"github.com/1broseidon/screenmode/internal/ipc"
	"github.com/1broseidon/screenmode/internal/settings"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal. Piped output
// drops headers and aligns with tabs instead.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func selectedLabel(s settings.ScreenInfo) string {
	if s.Selected == nil {
		return "-"
	}
	return s.Selected.String()
}

func writeScreens(w io.Writer, screens []settings.ScreenInfo, tty bool) {
	if !tty {
		for _, s := range screens {
			fmt.Fprintf(w, "%s\t%s\t%dx%d@%d\t%d\t%v\t%s\n",
				s.DevicePath, s.Name, s.Mode.Width, s.Mode.Height, s.Mode.Frequency,
				s.Rotation, s.Primary, selectedLabel(s))
		}
		return
	}

	if len(screens) == 0 {
		fmt.Fprintln(w, "no screens")
		return
	}
	fmt.Fprintf(w, "  %-16s %-24s %-16s %-8s %s\n", "DEVICE", "NAME", "MODE", "ROTATION", "FRAME LIMIT")
	for _, s := range screens {
		marker := " "
		if s.Primary {
			marker = "*"
		}
		mode := fmt.Sprintf("%dx%d@%d", s.Mode.Width, s.Mode.Height, s.Mode.Frequency)
		fmt.Fprintf(w, "%s %-16s %-24s %-16s %-8s %s\n",
			marker, s.DevicePath, s.Name, mode, fmt.Sprintf("%d", s.Rotation), selectedLabel(s))
	}
}

func writeFrameLimits(w io.Writer, data *ipc.FrameLimitsData, tty bool) {
	if !tty {
		for _, fl := range data.FrameLimits {
			fmt.Fprintf(w, "%d\t%d\n", fl.Index, fl.Limit)
		}
		return
	}
	fmt.Fprintf(w, "%s (%d Hz)\n", data.Screen, data.Frequency)
	for _, fl := range data.FrameLimits {
		fmt.Fprintf(w, "  %2d  %s\n", fl.Index, fl)
	}
}

func writeSources(w io.Writer, sources map[string]config.Source) {
	keys := make([]string, 0, len(sources))
	for k := range sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "# %s: %s\n", k, formatSource(sources[k]))
	}
}

func formatSource(src config.Source) string {
	if src.File == "" {
		return "default"
	}
	if src.Line > 0 {
		return fmt.Sprintf("%s:%d:%d", src.File, src.Line, src.Column)
	}
	return src.File
}
