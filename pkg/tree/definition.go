package tree

// DefaultRootID is the ID of the implicit root entry when none is configured.
const DefaultRootID = "__root__"

// DefaultMinSearchChars is the default query length at which search activates.
const DefaultMinSearchChars = 3

// NodeRecord is one entry of a Definition.
type NodeRecord struct {
	Children []string `json:"children,omitempty" yaml:"children,omitempty"` // Ordered child IDs; empty means leaf
	Label    string   `json:"label" yaml:"label"`                           // Display text; defaults to the ID
	Data     any      `json:"data,omitempty" yaml:"data,omitempty"`         // Opaque passthrough
}

// Definition maps node IDs to their records. Exactly one entry should be the
// root (see WithRootID); its children are the top-level rows.
//
// The caller is responsible for the input being a forest: a node listed as a
// child of two parents keeps the last parent seen in canonical order, and a
// cycle is skipped by the engine's traversals rather than reported.
type Definition map[string]NodeRecord

// Row is a single render-ready line of the visible tree.
type Row struct {
	ID       string `json:"id"`
	Expanded bool   `json:"expanded"` // Folder is open and its children follow
	Folder   bool   `json:"folder"`   // Has children in the current view
	Level    int    `json:"level"`    // 0 for children of the root
}

// CheckState is the resolved display value of a node's checkbox.
type CheckState int

const (
	Unchecked CheckState = iota
	Checked
	Indeterminate
)

// String returns a lower-case name for the state.
func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// Option configures an Engine at construction.
type Option func(*settings)

type settings struct {
	rootID          string
	initialExpanded []string
	minSearchChars  int
}

// WithRootID sets the ID of the root entry (default DefaultRootID).
func WithRootID(id string) Option {
	return func(s *settings) {
		if id != "" {
			s.rootID = id
		}
	}
}

// WithInitialExpanded pre-expands the given IDs.
func WithInitialExpanded(ids ...string) Option {
	return func(s *settings) {
		s.initialExpanded = append(s.initialExpanded, ids...)
	}
}

// WithMinSearchChars sets the normalized query length at which search
// activates. Values below 1 are raised to 1.
func WithMinSearchChars(n int) Option {
	return func(s *settings) {
		s.minSearchChars = n
	}
}
