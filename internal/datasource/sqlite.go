package datasource

import (
	"database/sql"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/checktree/pkg/debug"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// SQLiteReader reads a tree stored as an adjacency table:
//
//	CREATE TABLE nodes (
//	    id        TEXT PRIMARY KEY,
//	    parent_id TEXT,            -- NULL or '' for top-level rows
//	    label     TEXT,
//	    position  INTEGER,         -- sibling order
//	    data      TEXT             -- optional JSON
//	);
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens source read-only.
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("%s: %w", source.Path, ErrNotSQLite)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("datasource: %s failed: %v", pragma, err)
		}
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CountNodes returns the number of rows in the nodes table.
func (r *SQLiteReader) CountNodes() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting nodes: %w", err)
	}
	return n, nil
}

// LoadDefinition reads every node. Rows without a parent become children of
// rootID. Siblings are ordered by position, then by insertion.
func (r *SQLiteReader) LoadDefinition(rootID string) (tree.Definition, error) {
	if rootID == "" {
		rootID = tree.DefaultRootID
	}

	rows, err := r.db.Query(`
		SELECT id, parent_id, label, data
		FROM nodes
		ORDER BY COALESCE(position, 0), rowid
	`)
	if err != nil {
		// Older tables may lack the optional columns.
		debug.Log("datasource: full query failed (%v), trying minimal columns", err)
		return r.loadMinimal(rootID)
	}
	defer rows.Close()

	b := newDefinitionBuilder(rootID)
	for rows.Next() {
		var id string
		var parent, label, data sql.NullString
		if err := rows.Scan(&id, &parent, &label, &data); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		b.add(id, parent.String, label.String, decodeData(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return b.def, nil
}

func (r *SQLiteReader) loadMinimal(rootID string) (tree.Definition, error) {
	rows, err := r.db.Query(`SELECT id, parent_id, label FROM nodes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	b := newDefinitionBuilder(rootID)
	for rows.Next() {
		var id string
		var parent, label sql.NullString
		if err := rows.Scan(&id, &parent, &label); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		b.add(id, parent.String, label.String, nil)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return b.def, nil
}

// decodeData returns the JSON value held in s, or the raw string when it is
// not valid JSON.
func decodeData(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	raw := strings.TrimSpace(s.String)
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return s.String
	}
	return v
}

type definitionBuilder struct {
	rootID string
	def    tree.Definition
}

func newDefinitionBuilder(rootID string) *definitionBuilder {
	return &definitionBuilder{
		rootID: rootID,
		def:    tree.Definition{rootID: {}},
	}
}

func (b *definitionBuilder) add(id, parent, label string, data any) {
	if id == "" {
		return
	}
	if parent == "" || parent == id {
		parent = b.rootID
	}

	n := b.def[id]
	n.Label = label
	n.Data = data
	b.def[id] = n

	if id == b.rootID {
		return
	}
	p := b.def[parent]
	p.Children = append(p.Children, id)
	b.def[parent] = p
}
