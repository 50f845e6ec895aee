package tree

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/vanderheijden86/checktree/pkg/metrics"
)

// flatView is the cached result of one flatten pass.
type flatView struct {
	rows []Row
	pos  map[string]int
}

func (e *Engine) flatten() flatView {
	at := stamp{e.version, e.searchEpoch}
	if fv, ok := e.rows.load(at); ok {
		metrics.FlattenCache.Hit()
		return fv
	}
	metrics.FlattenCache.Miss()
	defer metrics.Timer(metrics.FlattenRebuild)()

	type item struct {
		slot  uint32
		level int
	}

	fv := flatView{pos: make(map[string]int)}
	visited := roaring.BitmapOf(e.idx.root)

	push := func(stack []item, parent uint32, level int) []item {
		kids := e.viewChildren(parent)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, item{slot: kids[i], level: level})
		}
		return stack
	}
	stack := push(nil, e.idx.root, 0)

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visited.CheckedAdd(it.slot) {
			continue
		}

		folder := len(e.viewChildren(it.slot)) > 0
		row := Row{
			ID:       e.idx.ids[it.slot],
			Folder:   folder,
			Expanded: folder && e.expanded.Contains(it.slot),
			Level:    it.level,
		}
		fv.pos[row.ID] = len(fv.rows)
		fv.rows = append(fv.rows, row)

		if row.Expanded {
			stack = push(stack, it.slot, it.level+1)
		}
	}

	e.rows.store(at, fv)
	return fv
}

// VisibleItems returns the rows currently on screen, in display order. The
// slice is shared with the cache; do not modify it.
func (e *Engine) VisibleItems() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flatten().rows
}

// IndexOf returns the position of id in VisibleItems, or -1.
func (e *Engine) IndexOf(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, ok := e.flatten().pos[id]; ok {
		return i
	}
	return -1
}
