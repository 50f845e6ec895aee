package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

// AssertIDs verifies that got equals want element by element.
func AssertIDs(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("expected %d ids %v, got %d %v", len(want), want, len(got), got)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id %d: expected %q, got %q (full: %v)", i, want[i], got[i], got)
			return
		}
	}
}

// AssertContainsAll verifies that every id in want appears in got.
func AssertContainsAll(t *testing.T, got []string, want ...string) {
	t.Helper()
	seen := make(map[string]bool, len(got))
	for _, id := range got {
		seen[id] = true
	}
	for _, id := range want {
		if !seen[id] {
			t.Errorf("expected %q in %v", id, got)
		}
	}
}

// AssertNoDuplicateIDs verifies that no id appears twice.
func AssertNoDuplicateIDs(t *testing.T, ids []string) {
	t.Helper()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate id: %s", id)
		}
		seen[id] = true
	}
}

// AssertJSONEqual compares two values by their JSON encoding.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	want, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	got, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(want) != string(got) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", want, got)
	}
}

// GoldenFile compares output against a file under testdata. Set
// GENERATE_GOLDEN=1 to rewrite the files instead.
type GoldenFile struct {
	t      *testing.T
	path   string
	update bool
}

// NewGoldenFile returns a golden file helper for dir/name.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		path:   filepath.Join(dir, name),
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Assert compares actual with the golden file.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	if g.update {
		if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(g.path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", g.path)
		return
	}

	expected, err := os.ReadFile(g.path)
	if err != nil {
		g.t.Fatalf("failed to read golden file %s (run with GENERATE_GOLDEN=1 to create it): %v", g.path, err)
	}
	if string(expected) == actual {
		return
	}

	want := strings.Split(string(expected), "\n")
	got := strings.Split(actual, "\n")
	for i := 0; i < len(want) || i < len(got); i++ {
		var w, a string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			a = got[i]
		}
		if w != a {
			g.t.Errorf("golden mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, w, a)
			return
		}
	}
}

// WriteFile writes content to dir/name, creating directories as needed, and
// returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WriteFixture writes f to dir/name in the format implied by the extension
// (.json, .yaml/.yml or .jsonl) and returns the full path.
func WriteFixture(t *testing.T, dir, name string, f Fixture) string {
	t.Helper()
	var content string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		content = ToYAML(f)
	case ".jsonl":
		content = ToJSONL(f)
	default:
		content = ToJSON(f)
	}
	return WriteFile(t, dir, name, content)
}
