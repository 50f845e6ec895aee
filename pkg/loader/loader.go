// Package loader reads tree definitions from disk.
//
// Three formats are recognised by extension:
//
//	.json         one object keyed by node ID
//	.yaml / .yml  the same mapping as YAML
//	.jsonl        one node record per line, see ParseJSONL
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/checktree/pkg/debug"
	"github.com/vanderheijden86/checktree/pkg/metrics"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// ErrUnknownFormat is returned for files whose extension no parser handles.
var ErrUnknownFormat = errors.New("unknown definition format")

// PreferredNames is the lookup order FindDefinitionPath uses inside a
// directory.
var PreferredNames = []string{"tree.json", "tree.yaml", "tree.yml", "tree.jsonl"}

// Format identifies a definition encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatJSONL Format = "jsonl"
)

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// FindDefinitionPath picks the definition file inside dir: the first of
// PreferredNames that exists and is non-empty, otherwise the first file
// with a known extension.
func FindDefinitionPath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read definition directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := FormatOf(e.Name()); err == nil {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no definition file found in %s", dir)
	}

	for _, preferred := range PreferredNames {
		for _, name := range candidates {
			if name != preferred {
				continue
			}
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Size() > 0 {
				return path, nil
			}
		}
	}
	return filepath.Join(dir, candidates[0]), nil
}

// LoadFile reads a definition from path, choosing the parser by extension.
func LoadFile(path string, opts ParseOptions) (tree.Definition, error) {
	defer metrics.Timer(metrics.DefinitionLoad)()
	defer debug.LogEnterExit("loader.LoadFile " + path)()

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no definition found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to open definition: %w", err)
	}
	defer f.Close()

	def, err := Parse(f, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	debug.Log("loader: %s: %d entries (%s)", path, len(def), format)
	return def, nil
}

// Parse decodes a definition in the given format.
func Parse(r io.Reader, format Format, opts ParseOptions) (tree.Definition, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(r)
	case FormatYAML:
		return ParseYAML(r)
	case FormatJSONL:
		return ParseJSONL(r, opts)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

// ParseJSON decodes a JSON object keyed by node ID.
func ParseJSON(r io.Reader) (tree.Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading definition: %w", err)
	}
	data = stripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return tree.Definition{}, nil
	}

	var def tree.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing JSON definition: %w", err)
	}
	return def, nil
}

// ParseYAML decodes a YAML mapping keyed by node ID.
func ParseYAML(r io.Reader) (tree.Definition, error) {
	var def tree.Definition
	if err := yaml.NewDecoder(r).Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return tree.Definition{}, nil
		}
		return nil, fmt.Errorf("parsing YAML definition: %w", err)
	}
	if def == nil {
		def = tree.Definition{}
	}
	return def, nil
}

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}
