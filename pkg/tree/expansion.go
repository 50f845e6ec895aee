package tree

import "github.com/RoaringBitmap/roaring"

// bumpLayout records an expansion-only change. It never touches the
// selection counter so consumers can tell layout and selection apart.
func (e *Engine) bumpLayout() {
	e.version++
	e.expandVersion++
}

// ToggleExpanded opens a closed folder or closes an open one. Leaves, unknown
// IDs and the root (which always stays open) are ignored.
func (e *Engine) ToggleExpanded(id string) {
	e.mutate(func() bool {
		slot, ok := e.idx.lookup(id)
		if !ok || !e.idx.isFolder(slot) || slot == e.idx.root {
			return false
		}
		if !e.expanded.CheckedRemove(slot) {
			e.expanded.Add(slot)
		}
		e.bumpLayout()
		return true
	})
}

// ExpandAll opens every folder.
func (e *Engine) ExpandAll() {
	e.mutate(func() bool {
		e.expanded.Or(e.idx.folders)
		e.expanded.Add(e.idx.root)
		e.bumpLayout()
		return true
	})
}

// CollapseAll closes every folder except the root.
func (e *Engine) CollapseAll() {
	e.mutate(func() bool {
		e.expanded.Clear()
		e.expanded.Add(e.idx.root)
		e.bumpLayout()
		return true
	})
}

// SetExpanded replaces the expanded set with ids (plus the root). Unknown IDs
// are dropped. When the result equals the current set nothing happens: no
// counter moves and no listener runs, so a controlling caller can echo
// Expanded back without looping.
func (e *Engine) SetExpanded(ids []string) {
	e.mutate(func() bool {
		next := roaring.New()
		next.Add(e.idx.root)
		for _, id := range ids {
			if slot, ok := e.idx.lookup(id); ok {
				next.Add(slot)
			}
		}
		if next.Equals(e.expanded) {
			return false
		}
		e.expanded = next
		e.bumpLayout()
		return true
	})
}

// IsExpanded reports whether id is in the expanded set. Unknown IDs are not.
func (e *Engine) IsExpanded(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, ok := e.idx.lookup(id)
	return ok && e.expanded.Contains(slot)
}

// Expanded returns the expanded IDs, root included, in canonical order.
func (e *Engine) Expanded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idx.idsOf(e.expanded)
}

// ExpandVersion returns the expansion counter.
func (e *Engine) ExpandVersion() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expandVersion
}
