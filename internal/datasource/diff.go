package datasource

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vanderheijden86/checktree/pkg/tree"
)

// DefinitionDiff describes how a definition changed between two loads.
type DefinitionDiff struct {
	Added      []string `json:"added,omitempty"`
	Removed    []string `json:"removed,omitempty"`
	Relabelled []string `json:"relabelled,omitempty"`
	Moved      []string `json:"moved,omitempty"` // children list changed
	CountA     int      `json:"count_a"`
	CountB     int      `json:"count_b"`
}

// Empty reports whether the two definitions were identical in structure and
// labels.
func (d DefinitionDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Relabelled) == 0 && len(d.Moved) == 0
}

// Summary returns a short human-readable description, e.g. "+2 -1 ~3".
func (d DefinitionDiff) Summary() string {
	if d.Empty() {
		return fmt.Sprintf("no changes (%d nodes)", d.CountB)
	}
	var parts []string
	if n := len(d.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d", n))
	}
	if n := len(d.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d", n))
	}
	if n := len(d.Relabelled); n > 0 {
		parts = append(parts, fmt.Sprintf("~%d", n))
	}
	if n := len(d.Moved); n > 0 {
		parts = append(parts, fmt.Sprintf("%d reordered", n))
	}
	return strings.Join(parts, " ")
}

// DiffDefinitions compares two definitions. All lists are sorted.
func DiffDefinitions(a, b tree.Definition) DefinitionDiff {
	d := DefinitionDiff{CountA: len(a), CountB: len(b)}

	for id, nb := range b {
		na, ok := a[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if na.Label != nb.Label {
			d.Relabelled = append(d.Relabelled, id)
		}
		if !reflect.DeepEqual(na.Children, nb.Children) && (len(na.Children) > 0 || len(nb.Children) > 0) {
			d.Moved = append(d.Moved, id)
		}
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Relabelled)
	sort.Strings(d.Moved)
	return d
}
