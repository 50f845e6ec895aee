package tree

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/vanderheijden86/checktree/pkg/metrics"
)

// Two resolvers share this code. The base resolver always reads the full
// children lists; the filtered resolver reads the search-restricted lists
// while search is active. Each keeps its own memo, valid until the next
// assignment write (and, for the filtered one, the next search transition).

func (e *Engine) baseStamp() stamp     { return stamp{e.assignVersion, 0} }
func (e *Engine) filteredStamp() stamp { return stamp{e.assignVersion, e.searchEpoch} }

func (e *Engine) memo(filtered bool) map[uint32]CheckState {
	cache, at, cm := &e.baseMemo, e.baseStamp(), metrics.BaseResolverCache
	if filtered {
		cache, at, cm = &e.filteredMemo, e.filteredStamp(), metrics.FilteredResolverCache
	}
	if m, ok := cache.load(at); ok {
		cm.Hit()
		return m
	}
	cm.Miss()
	m := make(map[uint32]CheckState)
	cache.store(at, m)
	return m
}

// viewChildren returns the children of slot as the filtered view sees them.
func (e *Engine) viewChildren(slot uint32) []uint32 {
	if e.searchActive {
		return e.visibleKids[slot]
	}
	return e.idx.children[slot]
}

func (e *Engine) childrenFor(filtered bool) func(uint32) []uint32 {
	if filtered {
		return e.viewChildren
	}
	return func(slot uint32) []uint32 { return e.idx.children[slot] }
}

// resolve computes the tri-state of slot with an explicit post-order stack,
// so deep trees do not grow the goroutine stack. A child that is already on
// the stack (cyclic input) is left out of its parent's count.
func (e *Engine) resolve(slot uint32, filtered bool) CheckState {
	memo := e.memo(filtered)
	if st, ok := memo[slot]; ok {
		return st
	}

	if filtered {
		defer metrics.Timer(metrics.ResolveFiltered)()
	} else {
		defer metrics.Timer(metrics.ResolveBase)()
	}

	kidsOf := e.childrenFor(filtered)
	type frame struct {
		slot uint32
		next int
	}
	stack := []frame{{slot: slot}}
	onStack := roaring.BitmapOf(slot)

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := kidsOf(top.slot)

		for top.next < len(kids) {
			c := kids[top.next]
			if _, done := memo[c]; done || onStack.Contains(c) {
				top.next++
				continue
			}
			break
		}

		if top.next < len(kids) {
			c := kids[top.next]
			onStack.Add(c)
			stack = append(stack, frame{slot: c})
			continue
		}

		memo[top.slot] = e.combine(top.slot, kids, memo)
		onStack.Remove(top.slot)
		stack = stack[:len(stack)-1]
	}

	return memo[slot]
}

// combine derives a node's state from its already resolved children.
func (e *Engine) combine(slot uint32, kids []uint32, memo map[uint32]CheckState) CheckState {
	checked, counted := 0, 0
	for _, c := range kids {
		st, ok := memo[c]
		if !ok {
			continue
		}
		counted++
		switch st {
		case Indeterminate:
			return Indeterminate
		case Checked:
			checked++
		}
	}

	if counted == 0 {
		if v, found := e.nearestAssignment(slot); found && v {
			return Checked
		}
		return Unchecked
	}

	switch checked {
	case 0:
		return Unchecked
	case counted:
		return Checked
	default:
		return Indeterminate
	}
}

// nearestAssignment walks from slot up the parent chain and returns the
// first explicit assignment found.
func (e *Engine) nearestAssignment(slot uint32) (value, found bool) {
	steps := 0
	for s := int32(slot); s != noParent && steps <= e.idx.size(); s = e.idx.parent[s] {
		if v, ok := e.assign[uint32(s)]; ok {
			return v, true
		}
		steps++
	}
	return false, false
}
