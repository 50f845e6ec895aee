package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/vanderheijden86/checktree/pkg/config"
	"github.com/vanderheijden86/checktree/pkg/debug"
	"github.com/vanderheijden86/checktree/pkg/tree"
	"github.com/vanderheijden86/checktree/pkg/ui"
	"github.com/vanderheijden86/checktree/pkg/version"
	"github.com/vanderheijden86/checktree/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file (default $XDG_CONFIG_HOME/ct/config.yaml)")
	workspacePath := flag.String("workspace", "", "Load every source listed in a workspace YAML file")
	rootID := flag.String("root", "", "ID of the root entry")
	minSearch := flag.Int("min-search", 0, "Characters needed before search activates")
	expand := flag.String("expand", "", "Comma-separated IDs to expand initially")
	query := flag.String("query", "", "Initial search query")
	check := flag.String("check", "", "Comma-separated IDs to check initially")
	watch := flag.Bool("watch", false, "Reload when the definition changes on disk")
	robotVisible := flag.Bool("robot-visible", false, "Print the visible rows as JSON and exit")
	robotChecked := flag.Bool("robot-checked", false, "Print the checked leaves as JSON and exit")
	robotMetrics := flag.Bool("robot-metrics", false, "Print engine metrics as JSON and exit")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: ct [options] [path]")
		fmt.Println("\nA checkbox tree picker for JSON, YAML, JSONL and SQLite definitions.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("ct %s\n", version.Version)
		os.Exit(0)
	}

	robot := *robotVisible || *robotChecked || *robotMetrics
	if robot {
		// Loader warnings would corrupt the JSON on stdout.
		_ = os.Setenv("CT_ROBOT", "1")
	}

	var (
		cfg    config.Config
		cfgErr error
	)
	if *configPath != "" {
		cfg, cfgErr = config.LoadFrom(*configPath)
	} else {
		cfg, cfgErr = config.Load()
	}
	if cfgErr != nil {
		if *configPath != "" {
			fmt.Fprintf(os.Stderr, "Error: %v\n", cfgErr)
			os.Exit(1)
		}
		// Non-fatal: continue with defaults
		debug.Log("config: %v", cfgErr)
		cfg = config.DefaultConfig()
	}

	applyFlags(&cfg, *rootID, *minSearch, splitList(*expand))
	if *watch {
		cfg.Watch.Enabled = true
	}

	src := sourceSpec{
		Path:          flag.Arg(0),
		WorkspacePath: *workspacePath,
		Config:        cfg,
		ConfigPath:    *configPath,
	}
	loaded, err := src.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tree: %v\n", err)
		os.Exit(1)
	}

	e := tree.New(loaded.Definition, loaded.EngineOptions...)
	// Toggle rather than SetChecked so folder IDs check their leaves.
	for _, id := range splitList(*check) {
		e.Toggle(id, true)
	}
	if *query != "" {
		e.SetSearchQuery(*query)
	}

	if robot || !term.IsTerminal(int(os.Stdout.Fd())) {
		mode := robotModeVisible
		switch {
		case *robotChecked:
			mode = robotModeChecked
		case *robotMetrics:
			mode = robotModeMetrics
		}
		if err := writeRobot(os.Stdout, e, mode); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts := ui.Options{
		Title:         loaded.Title,
		ShowCounts:    cfg.UI.ShowCounts,
		DetailWidth:   cfg.UI.DetailWidth,
		Definition:    loaded.Definition,
		EngineOptions: loaded.EngineOptions,
	}
	var w *watcher.Watcher
	if cfg.Watch.Enabled && len(loaded.WatchPaths) > 0 {
		w, err = newWatcher(cfg, loaded.WatchPaths)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer w.Stop()
			opts.Watcher = w
			opts.Reload = loaded.Reload
		}
	}

	m := ui.NewModel(e, opts)
	defer m.Close()

	final, err := runTUIProgram(m)
	if err != nil {
		fmt.Printf("Error running ct: %v\n", err)
		os.Exit(1)
	}
	if final.Confirmed() {
		for _, id := range final.Checked() {
			fmt.Println(id)
		}
	}
}

// applyFlags overrides config values with the ones given on the command line.
func applyFlags(cfg *config.Config, rootID string, minSearch int, expand []string) {
	if rootID != "" {
		cfg.Tree.RootID = rootID
	}
	if minSearch > 0 {
		cfg.Tree.MinSearchChars = minSearch
	}
	if len(expand) > 0 {
		cfg.Tree.InitialExpanded = append(cfg.Tree.InitialExpanded, expand...)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newWatcher(cfg config.Config, paths []string) (*watcher.Watcher, error) {
	w, err := watcher.NewWatcher(paths[0],
		watcher.WithAdditionalPaths(paths[1:]...),
		watcher.WithDebounceDuration(cfg.DebounceDuration()),
		watcher.WithForcePoll(cfg.Watch.ForcePoll),
		watcher.WithOnError(func(err error) { debug.Log("watcher: %v", err) }),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

func runTUIProgram(m ui.Model) (ui.Model, error) {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set CT_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("CT_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	final, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		err = nil
	}
	if fm, ok := final.(ui.Model); ok {
		return fm, err
	}
	return m, err
}
