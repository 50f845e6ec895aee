// Package workspace combines several tree sources into a single definition.
//
// A workspace file lists sources by path. Each source's IDs are qualified with
// a prefix ("menu:soup") so sources cannot collide, and each source is mounted
// as a folder beneath a shared root.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PrefixSeparator joins a source prefix to a local ID.
const PrefixSeparator = ":"

// CombinedRootID is the root of an aggregated definition.
const CombinedRootID = "__workspace__"

// Config is the on-disk workspace description.
type Config struct {
	// Name labels the combined root. Defaults to "workspace".
	Name string `yaml:"name,omitempty"`

	Sources []Source `yaml:"sources"`
}

// Source is one definition source inside a workspace.
type Source struct {
	// Name labels the mount folder. Defaults to the file name without
	// extension.
	Name string `yaml:"name,omitempty"`

	// Path is a definition file, directory, or SQLite database. Relative
	// paths resolve against the workspace file's directory.
	Path string `yaml:"path"`

	// Prefix qualifies the source's IDs. Defaults to the lower-cased name
	// followed by PrefixSeparator.
	Prefix string `yaml:"prefix,omitempty"`

	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// GetName returns the display name for the source.
func (s Source) GetName() string {
	if s.Name != "" {
		return s.Name
	}
	base := filepath.Base(filepath.Clean(s.Path))
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// GetPrefix returns the ID prefix, always ending in PrefixSeparator.
func (s Source) GetPrefix() string {
	p := s.Prefix
	if p == "" {
		p = strings.ToLower(strings.ReplaceAll(s.GetName(), " ", "-"))
	}
	if !strings.HasSuffix(p, PrefixSeparator) {
		p += PrefixSeparator
	}
	return p
}

// IsEnabled reports whether the source should be loaded.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// GetName returns the label of the combined root.
func (c *Config) GetName() string {
	if c.Name != "" {
		return c.Name
	}
	return "workspace"
}

// Validate checks that every source has a path and that prefixes are unique
// (case-insensitive).
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("workspace has no sources")
	}

	seen := make(map[string]string, len(c.Sources))
	for i, src := range c.Sources {
		if strings.TrimSpace(src.Path) == "" {
			return fmt.Errorf("source %d (%q) has no path", i, src.Name)
		}
		key := strings.ToLower(src.GetPrefix())
		if other, ok := seen[key]; ok {
			return fmt.Errorf("duplicate prefix %q used by %q and %q", src.GetPrefix(), other, src.GetName())
		}
		seen[key] = src.GetName()
	}
	return nil
}

// LoadConfig reads and validates a workspace file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates workspace YAML.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse workspace config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workspace config: %w", err)
	}
	return &cfg, nil
}

// QualifyID prepends prefix to id unless it is already present.
func QualifyID(id, prefix string) string {
	if prefix == "" || strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}

// UnqualifyID splits a qualified ID into its prefix (including the separator)
// and local part. IDs without a separator return an empty prefix.
func UnqualifyID(id string) (prefix, local string) {
	i := strings.Index(id, PrefixSeparator)
	if i < 0 {
		return "", id
	}
	return id[:i+len(PrefixSeparator)], id[i+len(PrefixSeparator):]
}
