package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/1broseidon/screenmode/internal/config"
	"github.com/1broseidon/screenmode/internal/ipc"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "screens":
		os.Exit(runScreens(os.Args[2:]))
	case "limits":
		os.Exit(runLimits(os.Args[2:]))
	case "closest":
		os.Exit(runFrameLimit("closest", os.Args[2:]))
	case "select":
		os.Exit(runFrameLimit("select", os.Args[2:]))
	case "refresh":
		os.Exit(runRefresh(os.Args[2:]))
	case "keyboard":
		os.Exit(runKeyboard(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: screenmode <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon                  Start the screenmode daemon (foreground)")
	fmt.Fprintln(w, "  status                  Show daemon status")
	fmt.Fprintln(w, "  refresh                 Re-enumerate screens")
	fmt.Fprintln(w, "  reload                  Reload the daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  screens                 List screens")
	fmt.Fprintln(w, "  limits <screen>         Show the frame-limit menu of a screen")
	fmt.Fprintln(w, "  closest <screen> <fps>  Show the menu entry closest to fps")
	fmt.Fprintln(w, "  select <screen> <fps>   Select the menu entry closest to fps")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  keyboard toggle         Show or hide the on-screen keyboard")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate         Validate configuration")
	fmt.Fprintln(w, "  config print            Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve               Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "A <screen> is a device path, output name, monitor name or \"primary\".")
	fmt.Fprintln(w, "Run 'screenmode <command> --help' for command-specific options.")
}

// parseFlags parses args into fs and returns an exit code when the caller
// should stop.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenmode status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(os.Stdout, status)
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("session_id:     %s\n", status.SessionID)
	fmt.Printf("provider:       %s\n", status.Provider)
	fmt.Printf("screen_count:   %d\n", status.ScreenCount)
	fmt.Printf("last_refresh:   %s\n", status.LastRefresh.Format("2006-01-02 15:04:05"))
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	if status.HTTPListen != "" {
		fmt.Printf("http_listen:    %s\n", status.HTTPListen)
	}
	return 0
}

func runScreens(args []string) int {
	fs := flag.NewFlagSet("screens", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenmode screens [--json]")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	data, err := ipc.NewClient().GetScreens()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(os.Stdout, data.Screens)
	}
	writeScreens(os.Stdout, data.Screens, isTerminal(os.Stdout))
	return 0
}

func runLimits(args []string) int {
	fs := flag.NewFlagSet("limits", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenmode limits [--json] <screen>")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	data, err := ipc.NewClient().GetFrameLimits(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(os.Stdout, data)
	}
	writeFrameLimits(os.Stdout, data, isTerminal(os.Stdout))
	return 0
}

// runFrameLimit implements both "closest" and "select"; only select records
// the result.
func runFrameLimit(name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: screenmode %s [--json] <screen> <fps>\n", name)
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	fps, err := strconv.Atoi(fs.Arg(1))
	if err != nil || fps < 0 {
		fmt.Fprintf(os.Stderr, "invalid fps %q\n", fs.Arg(1))
		return 2
	}

	client := ipc.NewClient()
	var data *ipc.FrameLimitData
	if name == "select" {
		data, err = client.SelectFrameLimit(fs.Arg(0), fps)
	} else {
		data, err = client.GetClosest(fs.Arg(0), fps)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(os.Stdout, data)
	}
	fmt.Printf("%s: %s (index %d)\n", data.Screen, data.FrameLimit, data.FrameLimit.Index)
	return 0
}

func runRefresh(args []string) int {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	res, err := ipc.NewClient().Refresh()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("screens: %d\n", res.Screens)
	for _, p := range res.Added {
		fmt.Printf("added:   %s\n", p)
	}
	for _, p := range res.Removed {
		fmt.Printf("removed: %s\n", p)
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runKeyboard(args []string) int {
	if len(args) != 1 || args[0] != "toggle" {
		fmt.Fprintln(os.Stderr, "Usage: screenmode keyboard toggle")
		return 2
	}
	data, err := ipc.NewClient().ToggleKeyboard()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("keyboard: %s\n", data.State)
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  screenmode config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  screenmode config print [--path PATH] [--defaults] [--sources]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/screenmode/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/screenmode/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printSources := fs.Bool("sources", false, "Print where each value was set")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if *printDefaults {
			data, err := yaml.Marshal(config.DefaultConfig())
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fmt.Print(string(data))
			return 0
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, f := range res.Files {
			fmt.Printf("# file: %s\n", f)
		}
		if *printSources {
			writeSources(os.Stdout, res.Sources)
		}
		data, err := yaml.Marshal(res.Config)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}
