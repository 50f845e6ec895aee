package loader_test

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/checktree/pkg/loader"
	"github.com/vanderheijden86/checktree/pkg/testutil"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

func parseJSONL(t *testing.T, src string, opts loader.ParseOptions) (tree.Definition, []string) {
	t.Helper()
	var warnings []string
	if opts.WarningHandler == nil {
		opts.WarningHandler = func(msg string) { warnings = append(warnings, msg) }
	}
	def, err := loader.ParseJSONL(strings.NewReader(src), opts)
	if err != nil {
		t.Fatalf("ParseJSONL: %v", err)
	}
	return def, warnings
}

func TestParseJSONL_ParentLinks(t *testing.T) {
	src := `{"id":"a","label":"A"}
{"id":"a1","label":"A1","parent":"a"}
{"id":"b","label":"B"}
{"id":"a2","label":"A2","parent":"a"}
`
	def, warnings := parseJSONL(t, src, loader.ParseOptions{})

	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	testutil.AssertIDs(t, def[tree.DefaultRootID].Children, "a", "b")
	testutil.AssertIDs(t, def["a"].Children, "a1", "a2")
}

func TestParseJSONL_ChildrenLists(t *testing.T) {
	src := `{"id":"menu","label":"Menu","children":["soup","salad"]}
{"id":"soup","label":"Soup"}
{"id":"salad","label":"Salad"}
`
	def, _ := parseJSONL(t, src, loader.ParseOptions{})

	testutil.AssertIDs(t, def[tree.DefaultRootID].Children, "menu")
	testutil.AssertIDs(t, def["menu"].Children, "soup", "salad")
}

func TestParseJSONL_ParentBeforeRecord(t *testing.T) {
	src := `{"id":"x1","parent":"x"}
{"id":"x","label":"X"}
`
	def, _ := parseJSONL(t, src, loader.ParseOptions{})

	testutil.AssertIDs(t, def[tree.DefaultRootID].Children, "x")
	if def["x"].Label != "X" {
		t.Errorf("expected label X, got %q", def["x"].Label)
	}
	testutil.AssertIDs(t, def["x"].Children, "x1")
}

func TestParseJSONL_DuplicateMerges(t *testing.T) {
	src := `{"id":"a","label":"Old","children":["c1"]}
{"id":"a","label":"New","children":["c1","c2"]}
`
	def, _ := parseJSONL(t, src, loader.ParseOptions{})

	if def["a"].Label != "New" {
		t.Errorf("expected later label to win, got %q", def["a"].Label)
	}
	testutil.AssertIDs(t, def["a"].Children, "c1", "c2")
}

func TestParseJSONL_Robustness(t *testing.T) {
	src := "\xEF\xBB\xBF" + `{"id":"a","label":"A"}

{INVALID JSON}
{"label":"no id"}
{"id":"self","parent":"self"}
{"id":"b","label":"B"}
`
	def, warnings := parseJSONL(t, src, loader.ParseOptions{})

	testutil.AssertIDs(t, def[tree.DefaultRootID].Children, "a", "self", "b")
	if len(warnings) != 3 {
		t.Errorf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestParseJSONL_LongLineSkipped(t *testing.T) {
	long := `{"id":"big","label":"` + strings.Repeat("x", 200) + `"}`
	src := `{"id":"a"}` + "\n" + long + "\n" + `{"id":"b"}` + "\n"

	def, warnings := parseJSONL(t, src, loader.ParseOptions{BufferSize: 64})

	if _, ok := def["big"]; ok {
		t.Errorf("expected over-long record to be skipped")
	}
	testutil.AssertIDs(t, def[tree.DefaultRootID].Children, "a", "b")
	if len(warnings) != 1 || !strings.Contains(warnings[0], "line too long") {
		t.Errorf("expected one line-too-long warning, got %v", warnings)
	}
}

func TestParseJSONL_CustomRoot(t *testing.T) {
	src := `{"id":"top","label":"Top"}
{"id":"a","label":"A"}
`
	def, _ := parseJSONL(t, src, loader.ParseOptions{RootID: "top"})

	testutil.AssertIDs(t, def["top"].Children, "a")
	if _, ok := def[tree.DefaultRootID]; ok {
		t.Errorf("expected no default root entry")
	}
}

func TestParseJSONL_Data(t *testing.T) {
	src := `{"id":"a","data":{"price":4.5,"tags":["x"]}}`
	def, _ := parseJSONL(t, src, loader.ParseOptions{})

	data, ok := def["a"].Data.(map[string]any)
	if !ok || data["price"] != 4.5 {
		t.Errorf("expected decoded data, got %#v", def["a"].Data)
	}
}

func FuzzParseJSONL(f *testing.F) {
	seeds := []string{
		`{"id":"a"}`,
		`{"id":"a","parent":"b"}` + "\n" + `{"id":"b","parent":"a"}`,
		`{"id":"a","children":["a"]}`,
		"",
		"\n\n",
		`{`,
		`{"id":""}`,
		"\xEF\xBB\xBF" + `{"id":"bom"}`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, src string) {
		def, err := loader.ParseJSONL(strings.NewReader(src), loader.ParseOptions{
			WarningHandler: func(string) {},
			BufferSize:     4096,
		})
		if err != nil {
			return
		}
		// Whatever was parsed must be safe to build and render.
		e := tree.New(def)
		e.ExpandAll()
		_ = e.VisibleItems()
		_ = e.AllChecked()
	})
}
