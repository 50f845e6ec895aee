package workspace

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/checktree/internal/datasource"
	"github.com/vanderheijden86/checktree/pkg/loader"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// LoadResult is the outcome of loading one source.
type LoadResult struct {
	Name   string
	Prefix string
	// MountID is the qualified ID of the source's folder in the combined tree.
	MountID string
	// Definition holds the qualified nodes. Nil when Error is set.
	Definition tree.Definition
	Error      error
}

// AggregateLoader loads every enabled source of a workspace.
type AggregateLoader struct {
	config        *Config
	workspaceRoot string
	opts          loader.ParseOptions
	logger        *log.Logger
}

// NewAggregateLoader creates a loader. Relative source paths resolve against
// workspaceRoot.
func NewAggregateLoader(config *Config, workspaceRoot string) *AggregateLoader {
	return &AggregateLoader{
		config:        config,
		workspaceRoot: workspaceRoot,
		// Silent unless the caller opts in; robot output shares stderr.
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sets the logger used for per-source failures.
func (l *AggregateLoader) SetLogger(logger *log.Logger) {
	l.logger = logger
}

// SetParseOptions sets the options passed to each source's parser. RootID is
// ignored; every source is read with its own default root.
func (l *AggregateLoader) SetParseOptions(opts loader.ParseOptions) {
	l.opts = opts
}

// LoadAll loads all enabled sources concurrently and merges them beneath
// CombinedRootID. A source that fails to load is reported in its LoadResult
// and left out of the merged definition.
func (l *AggregateLoader) LoadAll(ctx context.Context) (tree.Definition, []LoadResult, error) {
	if l.config == nil {
		return nil, nil, fmt.Errorf("workspace config is nil")
	}

	sources := l.enabledSources()
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("no enabled sources in workspace")
	}

	results, err := l.loadParallel(ctx, sources)
	if err != nil {
		return nil, results, fmt.Errorf("fatal error during parallel loading: %w", err)
	}

	combined := tree.Definition{
		CombinedRootID: {Label: l.config.GetName()},
	}
	var mounts []string
	for _, r := range results {
		if r.Error != nil {
			l.logger.Printf("WARNING: Failed to load source %q: %v", r.Name, r.Error)
			continue
		}
		for id, node := range r.Definition {
			combined[id] = node
		}
		mounts = append(mounts, r.MountID)
	}
	root := combined[CombinedRootID]
	root.Children = mounts
	combined[CombinedRootID] = root

	return combined, results, nil
}

func (l *AggregateLoader) enabledSources() []Source {
	var enabled []Source
	for _, src := range l.config.Sources {
		if src.IsEnabled() {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

func (l *AggregateLoader) loadParallel(ctx context.Context, sources []Source) ([]LoadResult, error) {
	results := make([]LoadResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(32)

	for i, src := range sources {
		g.Go(func() error {
			results[i] = LoadResult{
				Name:    src.GetName(),
				Prefix:  src.GetPrefix(),
				MountID: QualifyID(tree.DefaultRootID, src.GetPrefix()),
			}
			if err := ctx.Err(); err != nil {
				results[i].Error = err
				return nil
			}
			def, err := l.loadSource(src)
			if err != nil {
				results[i].Error = err
				return nil
			}
			results[i].Definition = def
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	l.logger.Printf("Finished parallel loading of %d sources", len(sources))
	return results, nil
}

// loadSource reads one source and qualifies every ID, its root included. The
// root is relabelled with the source name so it reads as a folder.
func (l *AggregateLoader) loadSource(src Source) (tree.Definition, error) {
	path := src.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.workspaceRoot, path)
	}

	opts := l.opts
	opts.RootID = tree.DefaultRootID
	def, _, err := datasource.Load(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %s: %w", src.GetName(), err)
	}
	return namespace(def, src.GetPrefix(), src.GetName()), nil
}

func namespace(def tree.Definition, prefix, name string) tree.Definition {
	out := make(tree.Definition, len(def)+1)
	for id, node := range def {
		q := tree.NodeRecord{Label: node.Label, Data: node.Data}
		if q.Label == "" && id != tree.DefaultRootID {
			// Keep the unqualified ID as the visible label.
			q.Label = id
		}
		if len(node.Children) > 0 {
			q.Children = make([]string, len(node.Children))
			for i, c := range node.Children {
				q.Children[i] = QualifyID(c, prefix)
			}
		}
		out[QualifyID(id, prefix)] = q
	}

	rootID := QualifyID(tree.DefaultRootID, prefix)
	root := out[rootID]
	root.Label = name
	out[rootID] = root
	return out
}

// LoadAllFromConfig reads the workspace file at configPath and loads it.
// Relative source paths resolve against the file's directory.
func LoadAllFromConfig(ctx context.Context, configPath string) (tree.Definition, []LoadResult, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	return NewAggregateLoader(cfg, filepath.Dir(configPath)).LoadAll(ctx)
}

// LoadSummary aggregates a slice of LoadResult.
type LoadSummary struct {
	TotalSources      int      `json:"total_sources"`
	SuccessfulSources int      `json:"successful_sources"`
	FailedSources     int      `json:"failed_sources"`
	TotalNodes        int      `json:"total_nodes"`
	FailedNames       []string `json:"failed_names,omitempty"`
	Prefixes          []string `json:"prefixes,omitempty"`
}

// Summarize counts successes, failures and loaded nodes. Mount folders are
// counted as nodes.
func Summarize(results []LoadResult) LoadSummary {
	s := LoadSummary{TotalSources: len(results)}
	for _, r := range results {
		if r.Error != nil {
			s.FailedSources++
			s.FailedNames = append(s.FailedNames, r.Name)
			continue
		}
		s.SuccessfulSources++
		s.TotalNodes += len(r.Definition)
		s.Prefixes = append(s.Prefixes, r.Prefix)
	}
	return s
}
