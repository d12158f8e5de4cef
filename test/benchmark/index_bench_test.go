package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/indexbuild/pipeline/internal/builder"
	"github.com/indexbuild/pipeline/internal/index"
	"github.com/indexbuild/pipeline/internal/listreader"
	"github.com/indexbuild/pipeline/internal/merger"
)

var benchTerms = []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}

func writeBenchCollection(b *testing.B, dir string, docs int) string {
	path := filepath.Join(dir, "collection.tsv")
	f, err := os.Create(path)
	if err != nil {
		b.Fatal(err)
	}
	defer f.Close()
	for i := 0; i < docs; i++ {
		fmt.Fprintf(f, "%d\tdocument about %s and %s covers %s %s in production systems\n",
			i, benchTerms[i%len(benchTerms)], benchTerms[(i+1)%len(benchTerms)], benchTerms[(i+2)%len(benchTerms)], benchTerms[(i+3)%len(benchTerms)])
	}
	return path
}

// BenchmarkBuild measures SPIMI block-builder throughput at various corpus
// sizes.
func BenchmarkBuild(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, docs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", docs), func(b *testing.B) {
			dir := b.TempDir()
			collectionPath := writeBenchCollection(b, dir, docs)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				runDir := filepath.Join(dir, fmt.Sprintf("runs_%d", i))
				if err := os.MkdirAll(runDir, 0755); err != nil {
					b.Fatal(err)
				}
				if _, err := builder.Build(collectionPath, runDir, index.MaxBlockBytes); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkMerge measures k-way merge throughput over a fixed number of
// pre-built runs.
func BenchmarkMerge(b *testing.B) {
	dir := b.TempDir()
	collectionPath := writeBenchCollection(b, dir, 5000)
	runDir := filepath.Join(dir, "runs")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		b.Fatal(err)
	}
	result, err := builder.Build(collectionPath, runDir, 64*1024)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		outDir := filepath.Join(dir, fmt.Sprintf("out_%d", i))
		if err := os.MkdirAll(outDir, 0755); err != nil {
			b.Fatal(err)
		}
		if _, err := merger.Merge(result.RunPaths, outDir); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkNextGEQ measures list-access latency against a merged index of
// 10 000 documents.
func BenchmarkNextGEQ(b *testing.B) {
	dir := b.TempDir()
	collectionPath := writeBenchCollection(b, dir, 10000)
	runDir := filepath.Join(dir, "runs")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		b.Fatal(err)
	}
	result, err := builder.Build(collectionPath, runDir, index.MaxBlockBytes)
	if err != nil {
		b.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		b.Fatal(err)
	}
	if _, err := merger.Merge(result.RunPaths, outDir); err != nil {
		b.Fatal(err)
	}

	idx, err := listreader.Open(outDir)
	if err != nil {
		b.Fatal(err)
	}
	defer idx.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, err := idx.OpenList(benchTerms[i%len(benchTerms)])
		if err != nil {
			b.Fatal(err)
		}
		if _, err := h.NextGEQ(0); err != nil {
			b.Fatal(err)
		}
	}
}
