package tree

import (
	"testing"

	"github.com/vanderheijden86/checktree/pkg/testutil"
)

func defFrom(f testutil.Fixture) Definition {
	def := make(Definition, len(f.Nodes))
	for id, n := range f.Nodes {
		def[id] = NodeRecord{Children: n.Children, Label: n.Label, Data: n.Data}
	}
	return def
}

func newSample(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return New(defFrom(testutil.Sample()), opts...)
}

func rowIDs(rows []Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

// recorder counts listener calls and keeps the last Versions seen.
type recorder struct {
	calls int
	last  Versions
}

func (r *recorder) listen(e *Engine) func() {
	return e.Subscribe(func(v Versions) {
		r.calls++
		r.last = v
	})
}

func assertState(t *testing.T, e *Engine, id string, want CheckState) {
	t.Helper()
	if got := e.ViewState(id); got != want {
		t.Errorf("ViewState(%q): expected %v, got %v", id, want, got)
	}
}
