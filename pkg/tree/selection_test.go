package tree

import (
	"testing"

	"github.com/vanderheijden86/checktree/pkg/testutil"
)

func TestToggleLeafPropagatesUp(t *testing.T) {
	e := newSample(t)

	e.Toggle("lemon", true)

	assertState(t, e, "lemon", Checked)
	assertState(t, e, "lime", Unchecked)
	assertState(t, e, "citrus", Indeterminate)
	assertState(t, e, "fruit", Indeterminate)
	assertState(t, e, "veg", Unchecked)
	assertState(t, e, DefaultRootID, Indeterminate)
	testutil.AssertIDs(t, e.AllChecked(), "lemon")
}

func TestToggleFolderChecksSubtree(t *testing.T) {
	e := newSample(t)

	e.Toggle("fruit", true)

	assertState(t, e, "fruit", Checked)
	assertState(t, e, "citrus", Checked)
	assertState(t, e, "lime", Checked)
	testutil.AssertIDs(t, e.AllChecked(), "apple", "banana", "lemon", "lime")

	e.Toggle("lemon", false)

	assertState(t, e, "citrus", Indeterminate)
	assertState(t, e, "fruit", Indeterminate)
	assertState(t, e, "lime", Checked)
	assertState(t, e, "apple", Checked)
	testutil.AssertIDs(t, e.AllChecked(), "apple", "banana", "lime")
}

func TestToggleFolderConsolidatesAssignments(t *testing.T) {
	e := newSample(t)
	e.Toggle("apple", true)
	e.Toggle("lemon", false)
	e.Toggle("citrus", true)

	e.Toggle("fruit", true)

	for _, id := range []string{"apple", "banana", "citrus", "lemon", "lime"} {
		slot := e.idx.slots[id]
		if _, ok := e.assign[slot]; ok {
			t.Errorf("expected assignment on %q to be cleared", id)
		}
	}
	assertState(t, e, "fruit", Checked)

	e.Toggle("fruit", false)
	assertState(t, e, "fruit", Unchecked)
	if got := e.AllChecked(); len(got) != 0 {
		t.Errorf("expected nothing checked, got %v", got)
	}
}

func TestToggleRootSelectsEverything(t *testing.T) {
	e := newSample(t)
	e.Toggle(DefaultRootID, true)

	assertState(t, e, DefaultRootID, Checked)
	testutil.AssertIDs(t, e.AllChecked(),
		"apple", "banana", "lemon", "lime", "carrot", "cafe")
}

func TestToggleUnknownIsNoop(t *testing.T) {
	e := newSample(t)
	var rec recorder
	rec.listen(e)

	e.Toggle("nope", true)

	if rec.calls != 0 || e.SelectionVersion() != 0 {
		t.Errorf("expected unknown toggle to do nothing, calls=%d selection=%d", rec.calls, e.SelectionVersion())
	}
	assertState(t, e, "nope", Unchecked)
}

func TestToggleCounters(t *testing.T) {
	e := newSample(t)
	e.Toggle("apple", true)

	v := e.Versions()
	if v.Selection != 1 || v.Version != 1 {
		t.Errorf("expected selection and version at 1, got %+v", v)
	}
	if v.Expand != 0 {
		t.Errorf("expected expand counter untouched, got %d", v.Expand)
	}
}

func TestSetChecked(t *testing.T) {
	e := newSample(t)

	e.SetChecked([]string{"lime", "apple", "unknown"})

	testutil.AssertIDs(t, e.AllChecked(), "apple", "lime")
	assertState(t, e, "citrus", Indeterminate)
	if e.SelectionVersion() != 1 {
		t.Errorf("expected selection version 1, got %d", e.SelectionVersion())
	}

	// Replacing drops previous assignments.
	e.SetChecked([]string{"carrot"})
	testutil.AssertIDs(t, e.AllChecked(), "carrot")
	assertState(t, e, "fruit", Unchecked)
}

func TestSetCheckedEchoIsNoop(t *testing.T) {
	e := newSample(t)
	e.Toggle("citrus", true)
	e.Toggle("apple", true)

	var rec recorder
	rec.listen(e)
	before := e.Versions()

	e.SetChecked(e.AllChecked())
	e.SetChecked([]string{"lime", "lemon", "apple"})

	if rec.calls != 0 {
		t.Errorf("expected no notifications, got %d", rec.calls)
	}
	if after := e.Versions(); after != before {
		t.Errorf("expected versions unchanged, before %+v after %+v", before, after)
	}
}

func TestSetCheckedSilent(t *testing.T) {
	e := newSample(t)
	var rec recorder
	rec.listen(e)

	e.SetCheckedSilent([]string{"carrot", "cafe"})

	if e.SelectionVersion() != 0 {
		t.Errorf("expected silent write to keep selection version, got %d", e.SelectionVersion())
	}
	if e.Versions().Version != 1 {
		t.Errorf("expected version to move, got %d", e.Versions().Version)
	}
	if rec.calls != 1 {
		t.Errorf("expected listeners to run once, got %d", rec.calls)
	}
	assertState(t, e, "veg", Checked)
	testutil.AssertIDs(t, e.AllChecked(), "carrot", "cafe")

	// A second silent write must not be hidden by the cached result.
	e.SetCheckedSilent([]string{"apple"})
	testutil.AssertIDs(t, e.AllChecked(), "apple")
	assertState(t, e, "veg", Unchecked)
}

func TestSetCheckedClearsAll(t *testing.T) {
	e := newSample(t)
	e.Toggle(DefaultRootID, true)

	e.SetChecked(nil)

	if got := e.AllChecked(); len(got) != 0 {
		t.Errorf("expected nothing checked, got %v", got)
	}
	assertState(t, e, DefaultRootID, Unchecked)
}

func TestDeepChainSelection(t *testing.T) {
	const depth = 20000
	f := testutil.NewDefault().Chain(depth)
	e := New(defFrom(f))

	top := f.Nodes[DefaultRootID].Children[0]
	e.Toggle(top, true)

	leaf := f.Leaves()[0]
	testutil.AssertIDs(t, e.AllChecked(), leaf)
	assertState(t, e, DefaultRootID, Checked)

	e.Toggle(leaf, false)
	assertState(t, e, top, Unchecked)
}

func TestToggleHiddenFolderDuringSearch(t *testing.T) {
	e := newSample(t)
	e.SetSearchQuery("lem")

	var rec recorder
	rec.listen(e)
	before := e.Versions()

	// veg has no visible leaves under the query.
	e.Toggle("veg", true)

	if rec.calls != 0 {
		t.Errorf("expected no notification, got %d", rec.calls)
	}
	if after := e.Versions(); after != before {
		t.Errorf("expected versions unchanged, before %+v after %+v", before, after)
	}
	if n := len(e.AllChecked()); n != 0 {
		t.Errorf("expected nothing checked, got %d", n)
	}

	// A hidden leaf is still written directly.
	e.Toggle("carrot", true)
	testutil.AssertIDs(t, e.AllChecked(), "carrot")
	if e.SelectionVersion() != before.Selection+1 {
		t.Errorf("expected selection to move for a leaf, got %d", e.SelectionVersion())
	}
}

func TestAssignCounter(t *testing.T) {
	e := newSample(t)

	e.ExpandAll()
	e.SetSearchQuery("lemon")
	if v := e.Versions(); v.Assign != 0 {
		t.Errorf("expected expansion and search to leave Assign alone, got %+v", v)
	}

	e.SetCheckedSilent([]string{"apple"})
	if v := e.Versions(); v.Assign != 1 || v.Selection != 0 {
		t.Errorf("expected silent write to move Assign only, got %+v", v)
	}

	e.Toggle("lemon", true)
	if v := e.Versions(); v.Assign != 2 || v.Selection != 1 {
		t.Errorf("expected toggle to move Assign and Selection, got %+v", v)
	}
}
