package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/checktree/internal/datasource"
	"github.com/vanderheijden86/checktree/pkg/config"
	"github.com/vanderheijden86/checktree/pkg/loader"
	"github.com/vanderheijden86/checktree/pkg/tree"
	"github.com/vanderheijden86/checktree/pkg/workspace"
)

// sourceSpec says where the tree comes from. Precedence: an explicit
// -workspace file, then a positional path, then sources from the config
// file, then the current directory.
type sourceSpec struct {
	Path          string
	WorkspacePath string
	Config        config.Config
	ConfigPath    string
}

// loadedTree is a definition plus everything needed to rebuild it.
type loadedTree struct {
	Definition    tree.Definition
	EngineOptions []tree.Option
	Title         string
	WatchPaths    []string
	Reload        func() (tree.Definition, error)
}

func (s sourceSpec) load() (loadedTree, error) {
	switch {
	case s.WorkspacePath != "":
		ws, err := workspace.LoadConfig(s.WorkspacePath)
		if err != nil {
			return loadedTree{}, err
		}
		return s.loadWorkspace(ws, filepath.Dir(s.WorkspacePath))

	case s.Path == "" && s.Config.Workspace() != nil:
		root := config.ConfigDir()
		if s.ConfigPath != "" {
			root = filepath.Dir(s.ConfigPath)
		}
		return s.loadWorkspace(s.Config.Workspace(), root)

	default:
		return s.loadSingle()
	}
}

func (s sourceSpec) loadSingle() (loadedTree, error) {
	path := s.Path
	if path == "" {
		path = "."
	}
	opts := loader.ParseOptions{RootID: s.Config.Tree.RootID}

	def, src, err := datasource.Load(path, opts)
	if err != nil {
		return loadedTree{}, err
	}
	return loadedTree{
		Definition:    def,
		EngineOptions: s.Config.EngineOptions(),
		Title:         filepath.Base(src.Path),
		WatchPaths:    []string{src.Path},
		Reload: func() (tree.Definition, error) {
			return datasource.LoadFromSource(src, opts)
		},
	}, nil
}

func (s sourceSpec) loadWorkspace(ws *workspace.Config, root string) (loadedTree, error) {
	agg := workspace.NewAggregateLoader(ws, root)
	if os.Getenv("CT_ROBOT") != "1" {
		agg.SetLogger(log.New(os.Stderr, "", 0))
	}

	load := func() (tree.Definition, error) {
		def, results, err := agg.LoadAll(context.Background())
		if err != nil {
			return nil, err
		}
		if sum := workspace.Summarize(results); sum.SuccessfulSources == 0 {
			return nil, fmt.Errorf("no workspace source could be loaded (%d failed)", sum.FailedSources)
		}
		return def, nil
	}
	def, err := load()
	if err != nil {
		return loadedTree{}, err
	}

	opts := append(s.Config.EngineOptions(), tree.WithRootID(workspace.CombinedRootID))
	return loadedTree{
		Definition:    def,
		EngineOptions: opts,
		Title:         ws.GetName(),
		WatchPaths:    sourcePaths(ws, root),
		Reload:        load,
	}, nil
}

// sourcePaths resolves the files behind each enabled source. Sources that
// cannot be resolved are not watched.
func sourcePaths(ws *workspace.Config, root string) []string {
	var paths []string
	for _, src := range ws.Sources {
		if !src.IsEnabled() {
			continue
		}
		p := src.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		ds, err := datasource.DetectSource(p)
		if err != nil {
			continue
		}
		paths = append(paths, ds.Path)
	}
	return paths
}
