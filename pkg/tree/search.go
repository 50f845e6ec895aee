package tree

import (
	"strings"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring"

	"github.com/vanderheijden86/checktree/pkg/debug"
	"github.com/vanderheijden86/checktree/pkg/metrics"
)

// SetSearchQuery filters the tree to leaves whose folded label contains the
// folded query, plus their ancestors. Queries shorter than the minimum
// length (after folding and trimming) turn search off. A query that folds
// to the current one is only stored; nothing is recomputed.
func (e *Engine) SetSearchQuery(raw string) {
	e.mutate(func() bool {
		return e.applyQuery(raw, false)
	})
}

// SetMinSearchChars changes the activation threshold (floor 1). The current
// query is run again only when the new threshold turns search on or off;
// otherwise the value is just stored and listeners are not called.
func (e *Engine) SetMinSearchChars(n int) {
	if n < 1 {
		n = 1
	}
	e.mutate(func() bool {
		if n == e.minSearchChars {
			return false
		}
		e.minSearchChars = n
		if e.activeFor(e.normQuery) == e.searchActive {
			return false
		}
		return e.applyQuery(e.rawQuery, true)
	})
}

func (e *Engine) activeFor(norm string) bool {
	return utf8.RuneCountInString(norm) >= e.minSearchChars
}

func (e *Engine) applyQuery(raw string, force bool) bool {
	e.rawQuery = raw
	norm := normalizeQuery(raw)
	if norm == e.normQuery && !force {
		return false
	}
	defer metrics.Timer(metrics.SearchRecompute)()

	e.normQuery = norm
	wasActive := e.searchActive
	e.searchActive = e.activeFor(norm)

	switch {
	case e.searchActive:
		e.activateSearch()
	case wasActive:
		e.expanded.Clear()
		e.expanded.Add(e.idx.root)
		e.visibleKids = nil
		e.matchCount = 0
	}

	e.searchEpoch++
	e.version++
	e.expandVersion++
	e.rows.reset()
	e.filteredMemo.reset()

	debug.Log("tree: search %q active=%v matches=%d epoch=%d", norm, e.searchActive, e.matchCount, e.searchEpoch)
	return true
}

// activateSearch rebuilds the visible set and the restricted children lists
// for the current normalized query, then opens every visible folder.
func (e *Engine) activateSearch() {
	ix := e.idx
	visible := roaring.BitmapOf(ix.root)
	matches := 0
	var path []uint32

	for _, leaf := range ix.leaves {
		if leaf == ix.root || !strings.Contains(ix.folded[leaf], e.normQuery) {
			continue
		}
		// Climb until the root or an already visible node. A chain that never
		// gets there belongs to an unreachable entry and stays hidden.
		path = path[:0]
		connected := false
		for s := int32(leaf); s != noParent && len(path) <= ix.size(); s = ix.parent[s] {
			if visible.Contains(uint32(s)) {
				connected = true
				break
			}
			path = append(path, uint32(s))
		}
		if !connected {
			continue
		}
		visible.AddMany(path)
		matches++
	}

	kids := make(map[uint32][]uint32)
	it := visible.Iterator()
	for it.HasNext() {
		s := it.Next()
		var keep []uint32
		for _, c := range ix.children[s] {
			if visible.Contains(c) {
				keep = append(keep, c)
			}
		}
		if len(keep) > 0 {
			kids[s] = keep
		}
	}

	e.visibleKids = kids
	e.matchCount = matches

	e.expanded = roaring.And(visible, ix.folders)
	e.expanded.Add(ix.root)
}

// SearchQuery returns the raw query as last set.
func (e *Engine) SearchQuery() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rawQuery
}

// IsSearchActive reports whether the visible tree is currently filtered.
func (e *Engine) IsSearchActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searchActive
}

// MinSearchChars returns the activation threshold.
func (e *Engine) MinSearchChars() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.minSearchChars
}

// MatchCount returns how many leaves matched the active query, or 0.
func (e *Engine) MatchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matchCount
}
