package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/checktree/pkg/tree"
	"github.com/vanderheijden86/checktree/pkg/workspace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tree.RootID != tree.DefaultRootID {
		t.Errorf("expected root %q, got %q", tree.DefaultRootID, cfg.Tree.RootID)
	}
	if cfg.Tree.MinSearchChars != 3 {
		t.Errorf("expected min search chars 3, got %d", cfg.Tree.MinSearchChars)
	}
	if !cfg.UI.ShowCounts {
		t.Error("expected counts shown by default")
	}
	if cfg.Watch.Enabled {
		t.Error("expected watch disabled by default")
	}
	if cfg.DebounceDuration() != 200*time.Millisecond {
		t.Errorf("expected 200ms debounce, got %v", cfg.DebounceDuration())
	}
	if cfg.Workspace() != nil {
		t.Error("expected no workspace without sources")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Tree.MinSearchChars != 3 {
		t.Errorf("expected default config, got min search %d", cfg.Tree.MinSearchChars)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
tree:
  root_id: top
  min_search_chars: 2
  initial_expanded: [fruit, veg]

ui:
  show_counts: false
  detail_width: 60

watch:
  enabled: true
  debounce_ms: 50
  force_poll: true

sources:
  - name: menu
    path: ~/trees/menu.json
  - path: /abs/pantry.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Tree.RootID != "top" {
		t.Errorf("expected root top, got %q", cfg.Tree.RootID)
	}
	if cfg.Tree.MinSearchChars != 2 {
		t.Errorf("expected min search 2, got %d", cfg.Tree.MinSearchChars)
	}
	if len(cfg.Tree.InitialExpanded) != 2 {
		t.Errorf("expected 2 initial expanded, got %v", cfg.Tree.InitialExpanded)
	}
	if cfg.UI.ShowCounts {
		t.Error("expected show_counts false")
	}
	if cfg.UI.DetailWidth != 60 {
		t.Errorf("expected detail width 60, got %d", cfg.UI.DetailWidth)
	}
	if !cfg.Watch.Enabled || !cfg.Watch.ForcePoll {
		t.Errorf("expected watch enabled with polling, got %+v", cfg.Watch)
	}
	if cfg.DebounceDuration() != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %v", cfg.DebounceDuration())
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "trees/menu.json"); cfg.Sources[0].Path != want {
		t.Errorf("expected expanded path %q, got %q", want, cfg.Sources[0].Path)
	}
	if cfg.Sources[1].Path != "/abs/pantry.db" {
		t.Errorf("expected absolute path kept, got %q", cfg.Sources[1].Path)
	}

	ws := cfg.Workspace()
	if ws == nil || len(ws.Sources) != 2 {
		t.Fatalf("expected workspace with 2 sources, got %+v", ws)
	}
	if err := ws.Validate(); err != nil {
		t.Errorf("expected valid workspace, got %v", err)
	}
}

func TestLoadFrom_ClampsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "tree:\n  root_id: \"\"\n  min_search_chars: 0\nwatch:\n  debounce_ms: -5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Tree.RootID != tree.DefaultRootID {
		t.Errorf("expected default root, got %q", cfg.Tree.RootID)
	}
	if cfg.Tree.MinSearchChars != tree.DefaultMinSearchChars {
		t.Errorf("expected default min search, got %d", cfg.Tree.MinSearchChars)
	}
	if cfg.Watch.DebounceMs != 0 {
		t.Errorf("expected debounce clamped to 0, got %d", cfg.Watch.DebounceMs)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("tree: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Tree.MinSearchChars = 1
	cfg.Sources = []workspace.Source{{Name: "menu", Path: "/data/menu.json", Prefix: "m:"}}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Tree.MinSearchChars != 1 {
		t.Errorf("expected min search 1, got %d", loaded.Tree.MinSearchChars)
	}
	if len(loaded.Sources) != 1 || loaded.Sources[0].GetPrefix() != "m:" {
		t.Errorf("expected round-tripped source, got %+v", loaded.Sources)
	}
}

func TestConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigDir(); got != "/custom/config/ct" {
		t.Errorf("expected /custom/config/ct, got %q", got)
	}
	if got := ConfigPath(); got != "/custom/config/ct/config.yaml" {
		t.Errorf("expected /custom/config/ct/config.yaml, got %q", got)
	}

	t.Setenv("XDG_STATE_HOME", "/custom/state")
	if got := StateDir(); got != "/custom/state/ct" {
		t.Errorf("expected /custom/state/ct, got %q", got)
	}
}

func TestLoadUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := DefaultConfig()
	cfg.UI.DetailWidth = 77
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.UI.DetailWidth != 77 {
		t.Errorf("expected detail width 77, got %d", loaded.UI.DetailWidth)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tree.MinSearchChars = 2
	cfg.Tree.InitialExpanded = []string{"a"}

	def := tree.Definition{
		tree.DefaultRootID: {Children: []string{"a"}},
		"a":                {Children: []string{"b"}},
		"b":                {},
	}
	e := tree.New(def, cfg.EngineOptions()...)
	if e.MinSearchChars() != 2 {
		t.Errorf("expected min search 2, got %d", e.MinSearchChars())
	}
	if !e.IsExpanded("a") {
		t.Error("expected a expanded from config")
	}
}
