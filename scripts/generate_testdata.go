//go:build ignore

// generate_testdata.go creates standard tree definitions for benchmarking
// and manual testing of ct.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	tests/testdata/benchmark/small.jsonl    (100 nodes, random shape)
//	tests/testdata/benchmark/medium.jsonl   (1000 nodes, random shape)
//	tests/testdata/benchmark/large.jsonl    (10000 nodes, random shape)
//	tests/testdata/benchmark/wide.json      (balanced, depth 3 x 30)
//	tests/testdata/benchmark/deep.yaml      (chain of 500 folders)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/checktree/pkg/testutil"
)

type datasetSpec struct {
	name  string
	build func(g *testutil.Generator) testutil.Fixture
	desc  string
}

var datasets = []datasetSpec{
	{"small.jsonl", func(g *testutil.Generator) testutil.Fixture { return g.Random(100) }, "100 nodes, random shape"},
	{"medium.jsonl", func(g *testutil.Generator) testutil.Fixture { return g.Random(1000) }, "1000 nodes, random shape"},
	{"large.jsonl", func(g *testutil.Generator) testutil.Fixture { return g.Random(10000) }, "10000 nodes, random shape"},
	{"wide.json", func(g *testutil.Generator) testutil.Fixture { return g.Balanced(3, 30) }, "balanced, depth 3 x 30"},
	{"deep.yaml", func(g *testutil.Generator) testutil.Fixture { return g.Chain(500) }, "chain of 500 folders"},
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for i, ds := range datasets {
		fmt.Printf("Generating %s (%s)...\n", ds.name, ds.desc)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:        int64(i + 1), // Reproducible per dataset
			IDPrefix:    "bench",
			Diacritics:  true,
			IncludeData: true,
		})
		f := ds.build(gen)
		f.Description = ds.desc

		var content string
		switch filepath.Ext(ds.name) {
		case ".jsonl":
			content = testutil.ToJSONL(f)
		case ".yaml":
			content = testutil.ToYAML(f)
		default:
			content = testutil.ToJSON(f)
		}

		outputPath := filepath.Join(outputDir, ds.name)
		if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes, %d nodes, %d leaves)\n", outputPath, len(content), len(f.Nodes), len(f.Leaves()))
	}

	fmt.Println("\nDone! Test definitions created in", outputDir)
}
