// Package tree implements a headless tree engine for checkbox pickers.
//
// An Engine is built once from a flat Definition (node ID -> record) and then
// tracks three independent pieces of state over that fixed topology:
//
//   - folder expansion (which folders are open)
//   - tri-state checkbox selection (Checked, Unchecked, Indeterminate)
//   - a text-search overlay that restricts the tree to matching leaves and
//     their ancestors
//
// The render-ready result is VisibleItems: a pre-order list of rows with
// nesting level, folder and expansion flags, plus IndexOf for O(1) position
// lookups. Every derived structure is cached behind a version stamp and
// rebuilt only after an observable change, never patched in place.
//
// Usage:
//
//	e := tree.New(def, tree.WithMinSearchChars(2))
//	unsubscribe := e.Subscribe(func(v tree.Versions) { redraw() })
//	defer unsubscribe()
//
//	e.ToggleExpanded("fruits")
//	e.Toggle("apple", true)
//	e.SetSearchQuery("ban")
//	for _, row := range e.VisibleItems() {
//	    fmt.Println(row.Level, e.Label(row.ID), e.ViewState(row.ID))
//	}
//
// All methods are safe to call from multiple goroutines; operations are
// serialized behind a single mutator lock and listeners run after the lock
// is released.
package tree
