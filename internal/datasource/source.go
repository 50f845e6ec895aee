// Package datasource resolves a user-supplied path to a concrete definition
// source and loads it. A path may point at a SQLite database, a definition
// file, or a directory holding one.
package datasource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vanderheijden86/checktree/pkg/loader"
)

// SourceType identifies how a source is read.
type SourceType string

const (
	SourceTypeSQLite SourceType = "sqlite"
	SourceTypeJSON   SourceType = "json"
	SourceTypeYAML   SourceType = "yaml"
	SourceTypeJSONL  SourceType = "jsonl"
)

// ErrNotSQLite is returned when a SQLite reader is asked to open anything
// else.
var ErrNotSQLite = errors.New("source is not a SQLite database")

// sqliteMagic is the 16-byte header of every SQLite 3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// DataSource is a resolved definition source.
type DataSource struct {
	Type    SourceType `json:"type"`
	Path    string     `json:"path"`
	ModTime time.Time  `json:"mod_time"`
	Size    int64      `json:"size"`
}

// String returns a one-line description of the source.
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, %d bytes, mod=%s)", s.Path, s.Type, s.Size, s.ModTime.Format(time.RFC3339))
}

// DetectSource classifies path. Directories are searched with
// loader.FindDefinitionPath. Files are recognised as SQLite by their header,
// otherwise by extension.
func DetectSource(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("cannot access source: %w", err)
	}
	if info.IsDir() {
		file, err := loader.FindDefinitionPath(path)
		if err != nil {
			return DataSource{}, err
		}
		return DetectSource(file)
	}

	src := DataSource{Path: path, ModTime: info.ModTime(), Size: info.Size()}

	isDB, err := hasSQLiteHeader(path)
	if err != nil {
		return DataSource{}, err
	}
	if isDB {
		src.Type = SourceTypeSQLite
		return src, nil
	}

	format, err := loader.FormatOf(path)
	if err != nil {
		return DataSource{}, err
	}
	switch format {
	case loader.FormatJSON:
		src.Type = SourceTypeJSON
	case loader.FormatYAML:
		src.Type = SourceTypeYAML
	default:
		src.Type = SourceTypeJSONL
	}
	return src, nil
}

func hasSQLiteHeader(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("cannot open source: %w", err)
	}
	defer f.Close()

	head := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, fmt.Errorf("cannot read source header: %w", err)
	}
	return bytes.Equal(head, sqliteMagic), nil
}
