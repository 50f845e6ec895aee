package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/checktree/pkg/tree"
)

// DefaultMaxBufferSize is the longest JSONL line read (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ParseOptions configures ParseJSONL.
type ParseOptions struct {
	// WarningHandler receives messages about skipped lines. When nil,
	// warnings go to stderr unless CT_ROBOT=1.
	WarningHandler func(string)

	// BufferSize caps the line length; longer lines are skipped with a
	// warning. 0 means DefaultMaxBufferSize.
	BufferSize int

	// RootID is the entry that parentless records are attached to.
	// Empty means tree.DefaultRootID.
	RootID string
}

// Record is one line of a JSONL definition.
type Record struct {
	ID       string   `json:"id"`
	Label    string   `json:"label,omitempty"`
	Children []string `json:"children,omitempty"`
	Parent   string   `json:"parent,omitempty"`
	Data     any      `json:"data,omitempty"`
}

func (o ParseOptions) warn() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	if os.Getenv("CT_ROBOT") == "1" {
		return func(string) {}
	}
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}

// ParseJSONL builds a definition from one record per line.
//
// A record may name its children, its parent, or both; a parent link
// appends the record to the parent's children in file order. Records that
// nothing refers to, and that name no parent, are attached under the root in
// file order. A repeated ID merges into the earlier record: later labels and
// data win, children accumulate.
//
// Blank lines are ignored. Malformed lines, records without an ID and lines
// longer than the buffer are skipped with a warning.
func ParseJSONL(r io.Reader, opts ParseOptions) (tree.Definition, error) {
	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	rootID := opts.RootID
	if rootID == "" {
		rootID = tree.DefaultRootID
	}
	warn := opts.warn()
	reader := bufio.NewReaderSize(r, maxCapacity)

	b := newAssembler(rootID)
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading definition stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if rec.ID == "" {
			warn(fmt.Sprintf("skipping record on line %d: missing id", lineNum))
			continue
		}
		if rec.Parent == rec.ID {
			warn(fmt.Sprintf("ignoring self-parent on line %d (%s)", lineNum, rec.ID))
			rec.Parent = ""
		}
		b.add(rec)
	}

	return b.finish(), nil
}

// assembler accumulates records into a definition.
type assembler struct {
	rootID     string
	def        tree.Definition
	order      []string // IDs in order of first mention as a record or parent
	mentioned  map[string]bool
	referenced map[string]bool
	edges      map[[2]string]bool
}

func newAssembler(rootID string) *assembler {
	return &assembler{
		rootID:     rootID,
		def:        make(tree.Definition),
		mentioned:  make(map[string]bool),
		referenced: make(map[string]bool),
		edges:      make(map[[2]string]bool),
	}
}

func (a *assembler) add(rec Record) {
	a.mention(rec.ID)
	n := a.def[rec.ID]
	if rec.Label != "" {
		n.Label = rec.Label
	}
	if rec.Data != nil {
		n.Data = rec.Data
	}
	for _, c := range rec.Children {
		n.Children = a.link(rec.ID, n.Children, c)
		a.referenced[c] = true
	}
	a.def[rec.ID] = n

	if rec.Parent != "" {
		a.mention(rec.Parent)
		p := a.def[rec.Parent]
		p.Children = a.link(rec.Parent, p.Children, rec.ID)
		a.def[rec.Parent] = p
		a.referenced[rec.ID] = true
	}
}

func (a *assembler) mention(id string) {
	if !a.mentioned[id] {
		a.mentioned[id] = true
		a.order = append(a.order, id)
	}
}

func (a *assembler) finish() tree.Definition {
	root := a.def[a.rootID]
	for _, id := range a.order {
		if id == a.rootID || a.referenced[id] {
			continue
		}
		root.Children = a.link(a.rootID, root.Children, id)
	}
	a.def[a.rootID] = root
	return a.def
}

// link appends child to the parent's list unless that edge already exists.
func (a *assembler) link(parent string, kids []string, child string) []string {
	e := [2]string{parent, child}
	if a.edges[e] {
		return kids
	}
	a.edges[e] = true
	return append(kids, child)
}
