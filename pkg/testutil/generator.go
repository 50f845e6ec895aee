// Package testutil provides tree fixture generators and assertions shared by
// the package tests. Every generator is deterministic for a given seed.
//
// Fixtures use their own node type so that packages under test can import
// testutil from internal tests without an import cycle; tree tests convert a
// Fixture with a one-line loop.
package testutil

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// RootID is the root key used by every generated fixture.
const RootID = "__root__"

// Node is one entry of a Fixture.
type Node struct {
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`
	Label    string   `json:"label" yaml:"label"`
	Data     any      `json:"data,omitempty" yaml:"data,omitempty"`
}

// Fixture is a generated tree in definition form.
type Fixture struct {
	Description string
	Nodes       map[string]Node
}

// Leaves returns the IDs without children that are reachable from the root,
// in pre-order.
func (f Fixture) Leaves() []string {
	var out []string
	f.Walk(func(id string, _ int) {
		if id != RootID && len(f.Nodes[id].Children) == 0 {
			out = append(out, id)
		}
	})
	return out
}

// Folders returns the reachable IDs with children, root excluded, in
// pre-order.
func (f Fixture) Folders() []string {
	var out []string
	f.Walk(func(id string, _ int) {
		if id != RootID && len(f.Nodes[id].Children) > 0 {
			out = append(out, id)
		}
	})
	return out
}

// Walk visits the tree from the root in pre-order with the depth of each
// node (root 0). Nodes are visited once even if the fixture is not a forest.
func (f Fixture) Walk(fn func(id string, depth int)) {
	type item struct {
		id    string
		depth int
	}
	seen := make(map[string]bool)
	stack := []item{{RootID, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[it.id] {
			continue
		}
		seen[it.id] = true
		fn(it.id, it.depth)
		kids := f.Nodes[it.id].Children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, item{kids[i], it.depth + 1})
		}
	}
}

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed        int64  // 0 picks the default seed
	IDPrefix    string // default "n"
	Diacritics  bool   // sprinkle accented labels among the leaves
	IncludeData bool   // attach a small data map to each leaf
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, IDPrefix: "n"}
}

// Generator creates tree fixtures of various shapes.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "n"
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with the default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

var words = []string{
	"alpha", "beta", "gamma", "delta", "echo", "foxtrot", "golf", "hotel",
	"india", "juliet", "kilo", "lima", "mike", "november", "oscar", "papa",
}

var accented = []string{"Café", "Crème", "Über", "Ångström", "Señor", "Naïve"}

func (g *Generator) id() string {
	g.next++
	return fmt.Sprintf("%s%d", g.cfg.IDPrefix, g.next)
}

func (g *Generator) label(folder bool) string {
	if !folder && g.cfg.Diacritics && g.rng.Intn(4) == 0 {
		return accented[g.rng.Intn(len(accented))]
	}
	w := words[g.rng.Intn(len(words))]
	if folder {
		return strings.ToUpper(w[:1]) + w[1:]
	}
	return fmt.Sprintf("%s %d", w, g.rng.Intn(100))
}

func (g *Generator) leaf(nodes map[string]Node) string {
	id := g.id()
	n := Node{Label: g.label(false)}
	if g.cfg.IncludeData {
		n.Data = map[string]any{"weight": g.rng.Intn(10)}
	}
	nodes[id] = n
	return id
}

// Flat creates a root with size leaves.
func (g *Generator) Flat(size int) Fixture {
	nodes := make(map[string]Node, size+1)
	root := Node{Label: "root"}
	for i := 0; i < size; i++ {
		root.Children = append(root.Children, g.leaf(nodes))
	}
	nodes[RootID] = root
	return Fixture{Description: fmt.Sprintf("root with %d leaves", size), Nodes: nodes}
}

// Chain creates a single path of depth folders ending in one leaf, for
// exercising deep trees.
func (g *Generator) Chain(depth int) Fixture {
	nodes := make(map[string]Node, depth+2)
	tail := g.leaf(nodes)
	for i := 0; i < depth; i++ {
		id := g.id()
		nodes[id] = Node{Label: g.label(true), Children: []string{tail}}
		tail = id
	}
	nodes[RootID] = Node{Label: "root", Children: []string{tail}}
	return Fixture{Description: fmt.Sprintf("chain of %d folders", depth), Nodes: nodes}
}

// Balanced creates a full tree where every folder has breadth children and
// leaves sit at the given depth below the root.
func (g *Generator) Balanced(depth, breadth int) Fixture {
	nodes := make(map[string]Node)
	var build func(level int) string
	build = func(level int) string {
		if level == depth {
			return g.leaf(nodes)
		}
		id := g.id()
		n := Node{Label: g.label(true)}
		for i := 0; i < breadth; i++ {
			n.Children = append(n.Children, build(level+1))
		}
		nodes[id] = n
		return id
	}

	root := Node{Label: "root"}
	for i := 0; i < breadth; i++ {
		root.Children = append(root.Children, build(1))
	}
	nodes[RootID] = root
	return Fixture{
		Description: fmt.Sprintf("balanced tree depth %d breadth %d", depth, breadth),
		Nodes:       nodes,
	}
}

// Random creates a forest of about size nodes. Each new node is attached
// under a random existing folder or the root; roughly one in three becomes a
// folder.
func (g *Generator) Random(size int) Fixture {
	nodes := make(map[string]Node, size+1)
	nodes[RootID] = Node{Label: "root"}
	folders := []string{RootID}

	for i := 0; i < size; i++ {
		parent := folders[g.rng.Intn(len(folders))]
		var id string
		if g.rng.Intn(3) == 0 {
			id = g.id()
			nodes[id] = Node{Label: g.label(true)}
			folders = append(folders, id)
		} else {
			id = g.leaf(nodes)
		}
		p := nodes[parent]
		p.Children = append(p.Children, id)
		nodes[parent] = p
	}
	return Fixture{Description: fmt.Sprintf("random forest of %d nodes", size), Nodes: nodes}
}

// Cycle creates root -> a -> b -> a plus a leaf under b. The input is not a
// forest; consumers are expected to survive it.
func Cycle() Fixture {
	return Fixture{
		Description: "a and b list each other as children",
		Nodes: map[string]Node{
			RootID: {Label: "root", Children: []string{"a"}},
			"a":    {Label: "A", Children: []string{"b"}},
			"b":    {Label: "B", Children: []string{"a", "leaf"}},
			"leaf": {Label: "Leaf"},
		},
	}
}

// SharedChild creates two folders that both list the same leaf.
func SharedChild() Fixture {
	return Fixture{
		Description: "shared is a child of p and q",
		Nodes: map[string]Node{
			RootID:   {Label: "root", Children: []string{"p", "q"}},
			"p":      {Label: "P", Children: []string{"shared", "p1"}},
			"q":      {Label: "Q", Children: []string{"shared"}},
			"shared": {Label: "Shared"},
			"p1":     {Label: "P1"},
		},
	}
}

// Sample is a small hand-written tree used across examples and tests:
//
//	fruit
//	  apple
//	  banana
//	  citrus
//	    lemon
//	    lime
//	veg
//	  carrot
//	  café
func Sample() Fixture {
	return Fixture{
		Description: "fruit and vegetables",
		Nodes: map[string]Node{
			RootID:   {Label: "root", Children: []string{"fruit", "veg"}},
			"fruit":  {Label: "Fruit", Children: []string{"apple", "banana", "citrus"}},
			"apple":  {Label: "Apple"},
			"banana": {Label: "Banana"},
			"citrus": {Label: "Citrus", Children: []string{"lemon", "lime"}},
			"lemon":  {Label: "Lemon"},
			"lime":   {Label: "Lime"},
			"veg":    {Label: "Vegetables", Children: []string{"carrot", "cafe"}},
			"carrot": {Label: "Carrot"},
			"cafe":   {Label: "Café", Data: "**strong** coffee"},
		},
	}
}

// ToJSON renders the fixture as a definition JSON object.
func ToJSON(f Fixture) string {
	data, err := json.MarshalIndent(f.Nodes, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(data)
}

// ToYAML renders the fixture as a definition YAML document.
func ToYAML(f Fixture) string {
	data, err := yaml.Marshal(f.Nodes)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// ToJSONL renders the fixture as one record per line, parents before
// children, with the root's children written without a parent field.
func ToJSONL(f Fixture) string {
	type record struct {
		ID     string `json:"id"`
		Label  string `json:"label"`
		Parent string `json:"parent,omitempty"`
		Data   any    `json:"data,omitempty"`
	}
	var sb strings.Builder
	parents := make(map[string]string)
	for id, n := range f.Nodes {
		for _, c := range n.Children {
			parents[c] = id
		}
	}
	f.Walk(func(id string, _ int) {
		if id == RootID {
			return
		}
		r := record{ID: id, Label: f.Nodes[id].Label, Data: f.Nodes[id].Data}
		if p := parents[id]; p != RootID {
			r.Parent = p
		}
		data, err := json.Marshal(r)
		if err != nil {
			panic(err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	})
	return sb.String()
}

// SortedIDs returns the fixture's IDs in sorted order.
func SortedIDs(f Fixture) []string {
	ids := make([]string, 0, len(f.Nodes))
	for id := range f.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
