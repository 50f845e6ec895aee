package datasource

import (
	"fmt"

	"github.com/vanderheijden86/checktree/pkg/debug"
	"github.com/vanderheijden86/checktree/pkg/loader"
	"github.com/vanderheijden86/checktree/pkg/metrics"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// Load detects the source behind path and reads its definition.
func Load(path string, opts loader.ParseOptions) (tree.Definition, DataSource, error) {
	src, err := DetectSource(path)
	if err != nil {
		return nil, DataSource{}, err
	}
	def, err := LoadFromSource(src, opts)
	if err != nil {
		return nil, src, err
	}
	return def, src, nil
}

// LoadFromSource reads a definition from an already detected source,
// dispatching on its type.
func LoadFromSource(source DataSource, opts loader.ParseOptions) (tree.Definition, error) {
	debug.Log("datasource: loading %s", source)

	switch source.Type {
	case SourceTypeSQLite:
		defer metrics.Timer(metrics.DefinitionLoad)()
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadDefinition(opts.RootID)

	case SourceTypeJSON, SourceTypeYAML, SourceTypeJSONL:
		return loader.LoadFile(source.Path, opts)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
