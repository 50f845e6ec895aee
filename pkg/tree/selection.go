package tree

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/vanderheijden86/checktree/pkg/debug"
	"github.com/vanderheijden86/checktree/pkg/metrics"
)

// bumpSelection records an assignment write. Silent writes keep the
// selection counter still so a controlling caller is not told about a
// change it made itself.
func (e *Engine) bumpSelection(silent bool) {
	e.assignVersion++
	e.version++
	if !silent {
		e.selectionVersion++
	}
}

// Toggle sets the checkbox of id. Outside search the value is stored on id
// and every assignment below it is dropped, so id alone decides its subtree.
// During search only the visible leaves under id are set, one by one;
// hidden leaves and the folder's own value are left alone.
func (e *Engine) Toggle(id string, checked bool) {
	e.mutate(func() bool {
		slot, ok := e.idx.lookup(id)
		if !ok {
			return false
		}
		if e.searchActive {
			if !e.toggleVisibleOnly(slot, checked) {
				return false
			}
		} else {
			e.toggleFull(slot, checked)
		}
		e.bumpSelection(false)
		return true
	})
}

func (e *Engine) toggleFull(slot uint32, checked bool) {
	e.assign[slot] = checked
	if len(e.assign) == 1 {
		return
	}
	// Always the full subtree, whatever the search state.
	e.idx.walk(slot, func(s uint32) {
		if s != slot {
			delete(e.assign, s)
		}
	})
}

// toggleVisibleOnly reports whether any leaf was written. A folder with no
// visible leaves below it writes nothing.
func (e *Engine) toggleVisibleOnly(slot uint32, checked bool) bool {
	if !e.idx.isFolder(slot) {
		e.assign[slot] = checked
		return true
	}

	visited := roaring.New()
	stack := []uint32{slot}
	set := 0
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visited.CheckedAdd(s) {
			continue
		}
		kids, ok := e.visibleKids[s]
		if !ok {
			if !e.idx.isFolder(s) {
				e.assign[s] = checked
				set++
			}
			continue
		}
		stack = append(stack, kids...)
	}
	debug.Log("tree: visible-only toggle of %q set %d leaves to %v", e.idx.ids[slot], set, checked)
	return set > 0
}

// SetChecked replaces the selection with ids. It is a no-op when ids already
// equal AllChecked, which lets a controlling caller echo the engine's own
// selection back without triggering another change.
func (e *Engine) SetChecked(ids []string) {
	e.setChecked(ids, false)
}

// SetCheckedSilent is SetChecked without moving the selection counter.
// Listeners still run so views redraw; use it to apply selection that came
// from outside.
func (e *Engine) SetCheckedSilent(ids []string) {
	e.setChecked(ids, true)
}

func (e *Engine) setChecked(ids []string, silent bool) {
	e.mutate(func() bool {
		next := roaring.New()
		for _, id := range ids {
			if slot, ok := e.idx.lookup(id); ok {
				next.Add(slot)
			}
		}

		current := roaring.New()
		for _, id := range e.checkedLeaves() {
			current.Add(e.idx.slots[id])
		}
		if next.Equals(current) {
			return false
		}

		clear(e.assign)
		it := next.Iterator()
		for it.HasNext() {
			e.assign[it.Next()] = true
		}
		e.bumpSelection(silent)
		return true
	})
}

// AllChecked returns every leaf whose nearest assignment is true, in
// canonical order. The slice is shared with the cache; do not modify it.
func (e *Engine) AllChecked() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkedLeaves()
}

func (e *Engine) checkedLeaves() []string {
	at := stamp{e.selectionVersion, e.assignVersion}
	if ids, ok := e.allChecked.load(at); ok {
		metrics.AllCheckedCache.Hit()
		return ids
	}
	metrics.AllCheckedCache.Miss()
	defer metrics.Timer(metrics.AllCheckedRebuild)()

	n := e.idx.size()
	// known caches the inherited value per slot: 1 checked, -1 unchecked.
	known := make([]int8, n)
	var path []uint32
	ids := make([]string, 0)

	for _, leaf := range e.idx.leaves {
		path = path[:0]
		val := int8(-1)
		for s := int32(leaf); s != noParent && len(path) <= n; s = e.idx.parent[s] {
			if known[s] != 0 {
				val = known[s]
				break
			}
			path = append(path, uint32(s))
			if v, ok := e.assign[uint32(s)]; ok {
				if v {
					val = 1
				}
				break
			}
		}
		for _, p := range path {
			known[p] = val
		}
		if val == 1 {
			ids = append(ids, e.idx.ids[leaf])
		}
	}

	e.allChecked.store(at, ids)
	return ids
}

// ViewState returns the checkbox state of id as currently displayed: over
// the search-restricted children while search is active, over the full tree
// otherwise. Unknown IDs are Unchecked.
func (e *Engine) ViewState(id string) CheckState {
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, ok := e.idx.lookup(id)
	if !ok {
		return Unchecked
	}
	return e.resolve(slot, true)
}

// FullState returns the checkbox state of id over the full tree, ignoring
// any active search.
func (e *Engine) FullState(id string) CheckState {
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, ok := e.idx.lookup(id)
	if !ok {
		return Unchecked
	}
	return e.resolve(slot, false)
}

// SelectionVersion returns the selection counter.
func (e *Engine) SelectionVersion() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectionVersion
}
