package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/checktree/pkg/tree"
)

// leafCount is the number of checked and total leaves beneath a folder.
type leafCount struct {
	checked, total int
}

// countCache memoizes leaf counts for one engine's checkbox state.
type countCache struct {
	engine  *tree.Engine
	version uint64 // Versions.Assign at build time
	counts  map[string]leafCount
}

// get returns the counts for id, rebuilding the whole table only after the
// assignments changed. Expansion and search do not affect full-tree counts.
func (c *countCache) get(e *tree.Engine, id string) leafCount {
	v := e.Versions().Assign
	if c.engine != e || c.version != v || c.counts == nil {
		c.engine = e
		c.version = v
		c.counts = buildLeafCounts(e)
	}
	return c.counts[id]
}

// buildLeafCounts fills counts for every node reachable from the root with a
// single post-order walk. Leaves count themselves.
func buildLeafCounts(e *tree.Engine) map[string]leafCount {
	counts := make(map[string]leafCount, e.Len())
	type frame struct {
		id       string
		children []string
		next     int
	}
	root := e.RootID()
	visited := map[string]bool{root: true}
	stack := []frame{{id: root, children: e.Children(root)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.children) {
			child := top.children[top.next]
			top.next++
			if visited[child] {
				continue
			}
			visited[child] = true
			stack = append(stack, frame{id: child, children: e.Children(child)})
			continue
		}

		var lc leafCount
		if len(top.children) == 0 {
			lc.total = 1
			if e.FullState(top.id) == tree.Checked {
				lc.checked = 1
			}
		} else {
			for _, c := range top.children {
				sub := counts[c]
				lc.checked += sub.checked
				lc.total += sub.total
			}
		}
		counts[top.id] = lc
		stack = stack[:len(stack)-1]
	}
	return counts
}

// rowView carries what renderRow needs for one line.
type rowView struct {
	Row      tree.Row
	Label    string
	State    tree.CheckState
	Selected bool
	Count    *leafCount
}

// renderRow draws one visible row into exactly width cells (before styling).
//
//	▾ [-] Fruit (1/5)
//	    [x] Apple
func renderRow(t Theme, v rowView, width int) string {
	var sb strings.Builder
	indent := strings.Repeat(IndentUnit, v.Row.Level)

	arrow := GlyphLeaf
	if v.Row.Folder {
		arrow = GlyphClosed
		if v.Row.Expanded {
			arrow = GlyphOpen
		}
	}
	box, boxStyle := t.CheckboxStyle(v.State)

	prefix := indent + arrow + " " + box + " "
	suffix := ""
	if v.Count != nil && v.Row.Folder {
		suffix = fmt.Sprintf(" (%d/%d)", v.Count.checked, v.Count.total)
	}

	labelWidth := width - runewidth.StringWidth(prefix) - runewidth.StringWidth(suffix)
	if v.Selected {
		labelWidth-- // selection border
	}
	label := truncate(firstLine(v.Label), labelWidth)

	labelStyle := t.Leaf
	if v.Row.Folder {
		labelStyle = t.Folder
	}

	sb.WriteString(indent)
	sb.WriteString(t.Arrow.Render(arrow))
	sb.WriteString(" ")
	sb.WriteString(boxStyle.Render(box))
	sb.WriteString(" ")
	sb.WriteString(labelStyle.Render(label))
	if suffix != "" {
		sb.WriteString(t.Count.Render(suffix))
	}

	line := sb.String()
	if v.Selected {
		return t.Selected.Width(max(width-1, 0)).Render(line)
	}
	return line
}

// plainRow is renderRow without styling, used for robot text output and
// tests.
func plainRow(v rowView) string {
	arrow := GlyphLeaf
	if v.Row.Folder {
		arrow = GlyphClosed
		if v.Row.Expanded {
			arrow = GlyphOpen
		}
	}
	box := GlyphUnchecked
	switch v.State {
	case tree.Checked:
		box = GlyphChecked
	case tree.Indeterminate:
		box = GlyphPartial
	}
	s := strings.Repeat(IndentUnit, v.Row.Level) + arrow + " " + box + " " + firstLine(v.Label)
	if v.Count != nil && v.Row.Folder {
		s += fmt.Sprintf(" (%d/%d)", v.Count.checked, v.Count.total)
	}
	return s
}

// RenderPlain renders the engine's visible rows as plain text, one per line.
func RenderPlain(e *tree.Engine, showCounts bool) string {
	var cc countCache
	var sb strings.Builder
	for _, r := range e.VisibleItems() {
		v := rowView{Row: r, Label: e.Label(r.ID), State: e.ViewState(r.ID)}
		if showCounts {
			lc := cc.get(e, r.ID)
			v.Count = &lc
		}
		sb.WriteString(plainRow(v))
		sb.WriteByte('\n')
	}
	return sb.String()
}
