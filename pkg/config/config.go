// Package config handles loading and saving ct configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/ct/config.yaml
//   - State:   ~/.local/state/ct/ (last selection)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/checktree/pkg/tree"
	"github.com/vanderheijden86/checktree/pkg/workspace"
)

const appName = "ct"

// TreeConfig holds engine construction settings.
type TreeConfig struct {
	RootID          string   `yaml:"root_id,omitempty"`
	MinSearchChars  int      `yaml:"min_search_chars,omitempty"`
	InitialExpanded []string `yaml:"initial_expanded,omitempty"`
}

// UIConfig holds picker preferences.
type UIConfig struct {
	ShowCounts  bool `yaml:"show_counts"`            // Append "(checked/total)" to folders
	DetailWidth int  `yaml:"detail_width,omitempty"` // Columns for the detail pane; 0 hides it
}

// WatchConfig controls live reload of the definition file.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms,omitempty"`
	ForcePoll  bool `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration for ct.
type Config struct {
	Tree    TreeConfig         `yaml:"tree,omitempty"`
	UI      UIConfig           `yaml:"ui,omitempty"`
	Watch   WatchConfig        `yaml:"watch,omitempty"`
	Sources []workspace.Source `yaml:"sources,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Tree: TreeConfig{
			RootID:         tree.DefaultRootID,
			MinSearchChars: tree.DefaultMinSearchChars,
		},
		UI: UIConfig{
			ShowCounts:  true,
			DetailWidth: 40,
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
	}
}

// ConfigDir returns the XDG config directory for ct.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for ct.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Tree.RootID == "" {
		cfg.Tree.RootID = tree.DefaultRootID
	}
	if cfg.Tree.MinSearchChars < 1 {
		cfg.Tree.MinSearchChars = tree.DefaultMinSearchChars
	}
	if cfg.Watch.DebounceMs < 0 {
		cfg.Watch.DebounceMs = 0
	}
	for i := range cfg.Sources {
		cfg.Sources[i].Path = expandHome(cfg.Sources[i].Path)
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// EngineOptions converts the tree section into engine options.
func (c Config) EngineOptions() []tree.Option {
	opts := []tree.Option{
		tree.WithRootID(c.Tree.RootID),
		tree.WithMinSearchChars(c.Tree.MinSearchChars),
	}
	if len(c.Tree.InitialExpanded) > 0 {
		opts = append(opts, tree.WithInitialExpanded(c.Tree.InitialExpanded...))
	}
	return opts
}

// DebounceDuration returns the watch debounce as a duration.
func (c Config) DebounceDuration() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// Workspace returns the configured sources as a workspace config, or nil
// when none are set.
func (c Config) Workspace() *workspace.Config {
	if len(c.Sources) == 0 {
		return nil
	}
	return &workspace.Config{Sources: c.Sources}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
