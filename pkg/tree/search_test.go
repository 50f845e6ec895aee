package tree

import (
	"testing"

	"github.com/vanderheijden86/checktree/pkg/testutil"
)

func alphaBeta(opts ...Option) *Engine {
	return New(Definition{
		DefaultRootID: {Children: []string{"a", "b"}},
		"a":           {Label: "Alpha"},
		"b":           {Label: "Beta"},
	}, opts...)
}

func TestSearchActivation(t *testing.T) {
	e := alphaBeta(WithMinSearchChars(2))

	e.SetSearchQuery("al")
	if !e.IsSearchActive() {
		t.Fatalf("expected search active")
	}
	testutil.AssertIDs(t, rowIDs(e.VisibleItems()), "a")

	e.SetSearchQuery("a")
	if e.IsSearchActive() {
		t.Errorf("expected search inactive below threshold")
	}
	testutil.AssertIDs(t, rowIDs(e.VisibleItems()), "a", "b")
	testutil.AssertIDs(t, e.Expanded(), DefaultRootID)
}

func TestSearchShowsMatchPaths(t *testing.T) {
	e := newSample(t)

	e.SetSearchQuery("lem")

	want := []Row{
		{ID: "fruit", Folder: true, Expanded: true, Level: 0},
		{ID: "citrus", Folder: true, Expanded: true, Level: 1},
		{ID: "lemon", Level: 2},
	}
	testutil.AssertJSONEqual(t, want, e.VisibleItems())
	testutil.AssertIDs(t, e.Expanded(), DefaultRootID, "fruit", "citrus")
	if e.MatchCount() != 1 {
		t.Errorf("expected 1 match, got %d", e.MatchCount())
	}
	if e.IndexOf("veg") != -1 {
		t.Errorf("expected veg hidden")
	}
}

func TestSearchDiacriticsAndCase(t *testing.T) {
	tests := []string{"cafe", "CAFE", "Café", "  café  "}

	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			e := newSample(t)
			e.SetSearchQuery(q)
			testutil.AssertIDs(t, rowIDs(e.VisibleItems()), "veg", "cafe")
		})
	}
}

func TestSearchCosmeticEditIsNoop(t *testing.T) {
	e := newSample(t)
	e.SetSearchQuery("lem")

	var rec recorder
	rec.listen(e)
	before := e.Versions()

	e.SetSearchQuery("LEM ")

	if rec.calls != 0 {
		t.Errorf("expected no notification, got %d", rec.calls)
	}
	if after := e.Versions(); after != before {
		t.Errorf("expected versions unchanged, before %+v after %+v", before, after)
	}
	if e.SearchQuery() != "LEM " {
		t.Errorf("expected raw query to be stored, got %q", e.SearchQuery())
	}
}

func TestSearchTransitionCounters(t *testing.T) {
	e := newSample(t)
	e.SetSearchQuery("ap")

	v := e.Versions()
	if e.IsSearchActive() {
		t.Errorf("expected two characters to stay below the default threshold")
	}
	if v.SearchEpoch != 1 || v.Expand != 1 || v.Version != 1 {
		t.Errorf("expected every transition to move epoch, expand and version, got %+v", v)
	}
	if v.Selection != 0 {
		t.Errorf("expected selection untouched, got %d", v.Selection)
	}
}

func TestSearchNoMatches(t *testing.T) {
	e := newSample(t)
	e.SetSearchQuery("zzz")

	if !e.IsSearchActive() {
		t.Errorf("expected search active")
	}
	if rows := e.VisibleItems(); len(rows) != 0 {
		t.Errorf("expected no rows, got %v", rowIDs(rows))
	}
	if e.MatchCount() != 0 {
		t.Errorf("expected 0 matches, got %d", e.MatchCount())
	}
}

func TestSearchDiscardsExpansionOnExit(t *testing.T) {
	e := newSample(t)
	e.SetExpanded([]string{"veg"})

	e.SetSearchQuery("lime")
	testutil.AssertIDs(t, e.Expanded(), DefaultRootID, "fruit", "citrus")

	e.ToggleExpanded("citrus")
	testutil.AssertIDs(t, rowIDs(e.VisibleItems()), "fruit", "citrus")

	e.SetSearchQuery("")
	testutil.AssertIDs(t, e.Expanded(), DefaultRootID)
	testutil.AssertIDs(t, rowIDs(e.VisibleItems()), "fruit", "veg")
}

func TestSearchFolderLabelsDoNotMatch(t *testing.T) {
	e := newSample(t)
	e.SetSearchQuery("vegetables")

	if rows := e.VisibleItems(); len(rows) != 0 {
		t.Errorf("expected folders not to match on their own label, got %v", rowIDs(rows))
	}
}

func TestToggleDuringSearchOnlyTouchesVisibleLeaves(t *testing.T) {
	e := New(Definition{
		DefaultRootID: {Children: []string{"p"}},
		"p":           {Label: "Parent", Children: []string{"a", "c"}},
		"a":           {Label: "Alpha"},
		"c":           {Label: "Cherry"},
	})
	e.Toggle("c", false)

	e.SetSearchQuery("alp")
	e.Toggle("p", true)

	assertState(t, e, "p", Checked)
	if got := e.FullState("p"); got != Indeterminate {
		t.Errorf("expected full state of p to be indeterminate, got %v", got)
	}
	if _, ok := e.assign[e.idx.slots["p"]]; ok {
		t.Errorf("expected the folder itself to stay unassigned")
	}

	e.SetSearchQuery("")
	testutil.AssertIDs(t, e.AllChecked(), "a")
	assertState(t, e, "c", Unchecked)
	assertState(t, e, "p", Indeterminate)
}

func TestToggleDuringSearchKeepsHiddenChecked(t *testing.T) {
	e := New(Definition{
		DefaultRootID: {Children: []string{"p"}},
		"p":           {Label: "Parent", Children: []string{"a", "c"}},
		"a":           {Label: "Alpha"},
		"c":           {Label: "Cherry"},
	})
	e.Toggle("p", true)

	e.SetSearchQuery("alp")
	e.Toggle("p", false)
	assertState(t, e, "p", Unchecked)

	e.SetSearchQuery("")
	testutil.AssertIDs(t, e.AllChecked(), "c")
}

func TestViewStateDuringSearch(t *testing.T) {
	e := newSample(t)
	e.Toggle("apple", true)

	e.SetSearchQuery("lem")

	assertState(t, e, "fruit", Unchecked)
	if got := e.FullState("fruit"); got != Indeterminate {
		t.Errorf("expected full state indeterminate, got %v", got)
	}

	e.Toggle("lemon", true)
	assertState(t, e, "fruit", Checked)

	e.SetSearchQuery("")
	assertState(t, e, "fruit", Indeterminate)
	testutil.AssertIDs(t, e.AllChecked(), "apple", "lemon")
}

func TestSetMinSearchChars(t *testing.T) {
	e := newSample(t)
	e.SetSearchQuery("le")
	if e.IsSearchActive() {
		t.Fatalf("expected inactive at default threshold")
	}

	e.SetMinSearchChars(2)
	if !e.IsSearchActive() {
		t.Fatalf("expected lowering the threshold to activate the stored query")
	}
	testutil.AssertIDs(t, rowIDs(e.VisibleItems()), "fruit", "apple", "citrus", "lemon")

	var rec recorder
	rec.listen(e)
	e.SetMinSearchChars(2)
	if rec.calls != 0 {
		t.Errorf("expected unchanged threshold to be a no-op")
	}

	e.SetMinSearchChars(0)
	if e.MinSearchChars() != 1 {
		t.Errorf("expected floor of 1, got %d", e.MinSearchChars())
	}

	e.SetMinSearchChars(5)
	if e.IsSearchActive() {
		t.Errorf("expected raising the threshold to deactivate")
	}
	testutil.AssertIDs(t, e.Expanded(), DefaultRootID)
}

func TestSearchMatchesMultiple(t *testing.T) {
	e := newSample(t)
	e.SetSearchQuery("li")

	// below the default threshold
	if e.IsSearchActive() {
		t.Fatalf("expected inactive")
	}

	e.SetMinSearchChars(1)
	e.SetSearchQuery("an")
	testutil.AssertIDs(t, rowIDs(e.VisibleItems()), "fruit", "banana")

	e.SetSearchQuery("e")
	if e.MatchCount() != 4 {
		t.Errorf("expected apple, lemon, lime and cafe to match, got %d", e.MatchCount())
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Café", "cafe"},
		{"  Über ", "uber"},
		{"Ångström", "angstrom"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeQuery(tt.in); got != tt.want {
			t.Errorf("normalizeQuery(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSetMinSearchCharsKeepsStateQuietly(t *testing.T) {
	e := newSample(t)
	var rec recorder
	rec.listen(e)

	// No query: search stays off whatever the threshold.
	e.SetMinSearchChars(2)
	if rec.calls != 0 {
		t.Errorf("expected no notification with an empty query, got %d", rec.calls)
	}
	if v := e.Versions(); v != (Versions{}) {
		t.Errorf("expected no counter to move, got %+v", v)
	}
	if e.MinSearchChars() != 2 {
		t.Errorf("expected threshold stored, got %d", e.MinSearchChars())
	}

	e.SetSearchQuery("lemon")
	before := e.Versions()
	calls := rec.calls

	// Still active at 4; the result set cannot change.
	e.SetMinSearchChars(4)
	if rec.calls != calls {
		t.Errorf("expected no notification while search stays active, got %d", rec.calls-calls)
	}
	if after := e.Versions(); after != before {
		t.Errorf("expected versions unchanged, before %+v after %+v", before, after)
	}
	testutil.AssertIDs(t, rowIDs(e.VisibleItems()), "fruit", "citrus", "lemon")

	e.SetMinSearchChars(6)
	if e.IsSearchActive() {
		t.Error("expected a threshold above the query length to turn search off")
	}
	if e.Versions().SearchEpoch != before.SearchEpoch+1 {
		t.Errorf("expected one search transition, got %+v", e.Versions())
	}
}
