package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/checktree/pkg/loader"
	"github.com/vanderheijden86/checktree/pkg/testutil"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// =============================================================================
// FormatOf / FindDefinitionPath
// =============================================================================

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want loader.Format
	}{
		{"a.json", loader.FormatJSON},
		{"A.JSON", loader.FormatJSON},
		{"a.yaml", loader.FormatYAML},
		{"a.yml", loader.FormatYAML},
		{"a.jsonl", loader.FormatJSONL},
		{"a.ndjson", loader.FormatJSONL},
	}
	for _, tt := range tests {
		got, err := loader.FormatOf(tt.path)
		if err != nil {
			t.Errorf("FormatOf(%q): unexpected error %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("FormatOf(%q): expected %q, got %q", tt.path, tt.want, got)
		}
	}

	if _, err := loader.FormatOf("a.txt"); !errors.Is(err, loader.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestFindDefinitionPath_Empty(t *testing.T) {
	_, err := loader.FindDefinitionPath(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no definition file found") {
		t.Errorf("expected 'no definition file found', got %v", err)
	}
}

func TestFindDefinitionPath_NonExistent(t *testing.T) {
	_, err := loader.FindDefinitionPath("/nonexistent/definitions")
	if err == nil || !strings.Contains(err.Error(), "failed to read definition directory") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestFindDefinitionPath_Preference(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "other.json", "{}")
	testutil.WriteFile(t, dir, "tree.yaml", "a: {label: A}\n")
	testutil.WriteFile(t, dir, "tree.json", "") // empty, skipped
	testutil.WriteFile(t, dir, "notes.txt", "hello")

	path, err := loader.FindDefinitionPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "tree.yaml" {
		t.Errorf("expected tree.yaml, got %s", path)
	}
}

func TestFindDefinitionPath_Fallback(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "menu.jsonl", `{"id":"a"}`)

	path, err := loader.FindDefinitionPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "menu.jsonl" {
		t.Errorf("expected menu.jsonl, got %s", path)
	}
}

// =============================================================================
// LoadFile
// =============================================================================

func TestLoadFile_AllFormatsAgree(t *testing.T) {
	dir := t.TempDir()
	fx := testutil.Sample()

	for _, name := range []string{"tree.json", "tree.yaml", "tree.jsonl"} {
		t.Run(name, func(t *testing.T) {
			path := testutil.WriteFixture(t, dir, name, fx)

			def, err := loader.LoadFile(path, loader.ParseOptions{})
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}

			e := tree.New(def)
			e.ExpandAll()
			var ids []string
			for _, r := range e.VisibleItems() {
				ids = append(ids, r.ID)
			}
			testutil.AssertIDs(t, ids,
				"fruit", "apple", "banana", "citrus", "lemon", "lime", "veg", "carrot", "cafe")
			if e.Label("cafe") != "Café" {
				t.Errorf("expected label Café, got %q", e.Label("cafe"))
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := loader.LoadFile(filepath.Join(t.TempDir(), "nope.json"), loader.ParseOptions{})
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadFile_UnknownExtension(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "tree.toml", "")
	if _, err := loader.LoadFile(path, loader.ParseOptions{}); !errors.Is(err, loader.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestLoadFile_BadJSON(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "tree.json", "{not json")
	_, err := loader.LoadFile(path, loader.ParseOptions{})
	if err == nil || !strings.Contains(err.Error(), "parsing JSON definition") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestParseJSON_BOMAndEmpty(t *testing.T) {
	def, err := loader.ParseJSON(strings.NewReader("\xEF\xBB\xBF{\"a\":{\"label\":\"A\"}}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def["a"].Label != "A" {
		t.Errorf("expected label A after BOM strip, got %+v", def["a"])
	}

	def, err = loader.ParseJSON(strings.NewReader("  \n"))
	if err != nil || len(def) != 0 {
		t.Errorf("expected empty definition, got %v %v", def, err)
	}
}

func TestParseYAML_Empty(t *testing.T) {
	def, err := loader.ParseYAML(strings.NewReader(""))
	if err != nil || def == nil || len(def) != 0 {
		t.Errorf("expected empty non-nil definition, got %v %v", def, err)
	}
}

func TestParseYAML_Data(t *testing.T) {
	src := `
__root__:
  children: [a]
a:
  label: A
  data:
    weight: 3
`
	def, err := loader.ParseYAML(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, ok := def["a"].Data.(map[string]any)
	if !ok || data["weight"] != 3 {
		t.Errorf("expected data map with weight 3, got %#v", def["a"].Data)
	}
}
