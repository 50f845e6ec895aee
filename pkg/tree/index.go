package tree

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
)

const noParent int32 = -1

// index is the immutable topology of a Definition.
//
// Node IDs are interned into dense slots assigned in pre-order from the root,
// followed by any unreachable entries (sorted by ID, each in pre-order of its
// own subtree). Slot order is therefore the canonical order used for every
// ID list the engine returns.
type index struct {
	root uint32

	ids      []string          // slot -> ID
	slots    map[string]uint32 // ID -> slot
	children [][]uint32        // slot -> ordered child slots
	parent   []int32           // slot -> parent slot, noParent for the root
	labels   []string          // slot -> display label
	data     []any             // slot -> passthrough data

	folders *roaring.Bitmap // slots with at least one child
	leaves  []uint32        // leaf slots in canonical order
	folded  []string        // slot -> folded label (leaves only)
}

func buildIndex(def Definition, rootID string) *index {
	ix := &index{
		slots:   make(map[string]uint32, len(def)+1),
		folders: roaring.New(),
	}

	ix.root = ix.internSubtree(def, rootID)

	// Entries the root never reaches still get slots so lookups and
	// parent-chain walks behave the same for them.
	var rest []string
	for id := range def {
		if _, ok := ix.slots[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		ix.internSubtree(def, id)
	}

	n := len(ix.ids)
	ix.children = make([][]uint32, n)
	ix.parent = make([]int32, n)
	ix.labels = make([]string, n)
	ix.data = make([]any, n)
	ix.folded = make([]string, n)
	for i := range ix.parent {
		ix.parent[i] = noParent
	}

	for s := 0; s < n; s++ {
		id := ix.ids[s]
		rec := def[id]

		ix.labels[s] = rec.Label
		if ix.labels[s] == "" {
			ix.labels[s] = id
		}
		ix.data[s] = rec.Data

		if len(rec.Children) == 0 {
			ix.leaves = append(ix.leaves, uint32(s))
			ix.folded[s] = foldLabel(ix.labels[s])
			continue
		}

		kids := make([]uint32, len(rec.Children))
		for i, childID := range rec.Children {
			c := ix.slots[childID]
			kids[i] = c
			if c != ix.root {
				ix.parent[c] = int32(s) // last parent seen wins
			}
		}
		ix.children[s] = kids
		ix.folders.Add(uint32(s))
	}

	return ix
}

// internSubtree assigns pre-order slots to start and every not yet interned
// node below it, including child IDs missing from def.
func (ix *index) internSubtree(def Definition, start string) uint32 {
	first := uint32(len(ix.ids))
	if s, ok := ix.slots[start]; ok {
		return s
	}

	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := ix.slots[id]; ok {
			continue
		}
		ix.slots[id] = uint32(len(ix.ids))
		ix.ids = append(ix.ids, id)

		kids := def[id].Children
		for i := len(kids) - 1; i >= 0; i-- {
			if _, ok := ix.slots[kids[i]]; !ok {
				stack = append(stack, kids[i])
			}
		}
	}
	return first
}

func (ix *index) lookup(id string) (uint32, bool) {
	s, ok := ix.slots[id]
	return s, ok
}

func (ix *index) isFolder(s uint32) bool {
	return ix.folders.Contains(s)
}

func (ix *index) size() int {
	return len(ix.ids)
}

// walk visits start and its structural descendants in pre-order. A node is
// visited at most once, which bounds the walk on cyclic input.
func (ix *index) walk(start uint32, fn func(uint32)) {
	visited := roaring.New()
	stack := []uint32{start}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visited.CheckedAdd(s) {
			continue
		}
		fn(s)
		kids := ix.children[s]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// idsOf converts slots in b to IDs in canonical order.
func (ix *index) idsOf(b *roaring.Bitmap) []string {
	out := make([]string, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, ix.ids[it.Next()])
	}
	return out
}
