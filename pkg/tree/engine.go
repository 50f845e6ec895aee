package tree

import (
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/vanderheijden86/checktree/pkg/debug"
)

// Engine holds the expansion, selection and search state of one tree and
// serves the flattened visible rows. Create it with New.
type Engine struct {
	mu  sync.Mutex
	idx *index

	// Expansion state (expansion.go)
	expanded *roaring.Bitmap

	// Explicit checkbox values (selection.go)
	assign map[uint32]bool

	// Search state (search.go)
	minSearchChars int
	rawQuery       string
	normQuery      string
	searchActive   bool
	visibleKids    map[uint32][]uint32 // children restricted to matches and their ancestors, empty entries omitted
	matchCount     int

	// Counters
	version          uint64
	expandVersion    uint64
	selectionVersion uint64
	searchEpoch      uint64
	assignVersion    uint64 // every assignment write, silent or not

	// Caches
	baseMemo     versioned[map[uint32]CheckState]
	filteredMemo versioned[map[uint32]CheckState]
	rows         versioned[flatView]
	allChecked   versioned[[]string]

	listeners registry
}

// New builds an engine over def. Construction never fails: malformed input
// is accepted as described on Definition.
func New(def Definition, opts ...Option) *Engine {
	defer debug.LogEnterExit("tree.New")()

	s := settings{
		rootID:         DefaultRootID,
		minSearchChars: DefaultMinSearchChars,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.minSearchChars < 1 {
		s.minSearchChars = 1
	}

	e := &Engine{
		idx:            buildIndex(def, s.rootID),
		expanded:       roaring.New(),
		assign:         make(map[uint32]bool),
		minSearchChars: s.minSearchChars,
	}
	e.expanded.Add(e.idx.root)
	for _, id := range s.initialExpanded {
		if slot, ok := e.idx.lookup(id); ok {
			e.expanded.Add(slot)
		}
	}

	debug.Log("tree: indexed %d nodes (%d folders, %d leaves), root %q",
		e.idx.size(), e.idx.folders.GetCardinality(), len(e.idx.leaves), s.rootID)
	return e
}

// Subscribe registers fn to run after every operation that changes
// observable state. Listeners run synchronously in subscription order, after
// the engine's lock is released, so they may call back into the engine.
// The returned function unsubscribes; calling it more than once is harmless.
func (e *Engine) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return e.listeners.add(fn)
}

// Versions returns the current change counters.
func (e *Engine) Versions() Versions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.versionsLocked()
}

func (e *Engine) versionsLocked() Versions {
	return Versions{
		Version:     e.version,
		Expand:      e.expandVersion,
		Selection:   e.selectionVersion,
		SearchEpoch: e.searchEpoch,
		Assign:      e.assignVersion,
	}
}

// mutate runs fn under the lock and notifies listeners when it reports a
// change. Notification happens only after fn has left all state consistent.
func (e *Engine) mutate(fn func() bool) bool {
	e.mu.Lock()
	changed := fn()
	v := e.versionsLocked()
	e.mu.Unlock()

	if changed {
		e.listeners.dispatch(v)
	}
	return changed
}

// RootID returns the ID of the root entry.
func (e *Engine) RootID() string {
	return e.idx.ids[e.idx.root]
}

// Len returns the number of nodes in the index, root included.
func (e *Engine) Len() int {
	return e.idx.size()
}

// Label returns the display label of id, or id itself when unknown.
func (e *Engine) Label(id string) string {
	if slot, ok := e.idx.lookup(id); ok {
		return e.idx.labels[slot]
	}
	return id
}

// Data returns the passthrough data of id, or nil.
func (e *Engine) Data(id string) any {
	if slot, ok := e.idx.lookup(id); ok {
		return e.idx.data[slot]
	}
	return nil
}

// IsFolder reports whether id has children in the full tree.
func (e *Engine) IsFolder(id string) bool {
	slot, ok := e.idx.lookup(id)
	return ok && e.idx.isFolder(slot)
}

// Parent returns the parent of id. The root and unknown IDs have none.
func (e *Engine) Parent(id string) (string, bool) {
	slot, ok := e.idx.lookup(id)
	if !ok || e.idx.parent[slot] == noParent {
		return "", false
	}
	return e.idx.ids[e.idx.parent[slot]], true
}

// Children returns the child IDs of id in the full tree.
func (e *Engine) Children(id string) []string {
	slot, ok := e.idx.lookup(id)
	if !ok {
		return nil
	}
	kids := e.idx.children[slot]
	out := make([]string, len(kids))
	for i, c := range kids {
		out[i] = e.idx.ids[c]
	}
	return out
}
