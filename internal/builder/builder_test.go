package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/indexbuild/pipeline/internal/index"
)

func writeCollection(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "collection.tsv")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing test collection: %v", err)
	}
	return path
}

// Single document, single term, from the build/merge/query test matrix.
func TestBuildSingleDocSingleTerm(t *testing.T) {
	dir := t.TempDir()
	collection := writeCollection(t, dir, "7\thello\n")

	result, err := Build(collection, dir, index.MaxBlockBytes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.RunPaths) != 1 {
		t.Fatalf("expected 1 run, got %d", len(result.RunPaths))
	}
	data, err := os.ReadFile(result.RunPaths[0])
	if err != nil {
		t.Fatalf("reading run: %v", err)
	}
	if strings.TrimSpace(string(data)) != "hello 7:1" {
		t.Fatalf("run contents = %q, want %q", string(data), "hello 7:1")
	}

	pt, err := os.ReadFile(result.PageTablePath)
	if err != nil {
		t.Fatalf("reading page table: %v", err)
	}
	if strings.TrimSpace(string(pt)) != "7\t1" {
		t.Fatalf("page table = %q, want %q", string(pt), "7\t1")
	}
}

func TestBuildSkipsLinesWithoutTab(t *testing.T) {
	dir := t.TempDir()
	collection := writeCollection(t, dir, "no tab here\n1\tvalid line\n")

	result, err := Build(collection, dir, index.MaxBlockBytes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.LinesSkipped != 1 {
		t.Fatalf("LinesSkipped = %d, want 1", result.LinesSkipped)
	}
	if result.DocsProcessed != 1 {
		t.Fatalf("DocsProcessed = %d, want 1", result.DocsProcessed)
	}
}

func TestBuildFlushesOnSizeThreshold(t *testing.T) {
	dir := t.TempDir()
	collection := writeCollection(t, dir, "1\taaa bbb\n2\tccc ddd\n")

	// A threshold small enough that each document triggers its own flush.
	result, err := Build(collection, dir, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.RunPaths) != 2 {
		t.Fatalf("expected 2 runs with a tiny threshold, got %d", len(result.RunPaths))
	}
}

func TestBuildTermsWithinRunAreSortedAscending(t *testing.T) {
	dir := t.TempDir()
	collection := writeCollection(t, dir, "1\tzebra apple mango\n")

	result, err := Build(collection, dir, index.MaxBlockBytes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := os.ReadFile(result.RunPaths[0])
	if err != nil {
		t.Fatalf("reading run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	terms := make([]string, len(lines))
	for i, l := range lines {
		terms[i] = strings.Fields(l)[0]
	}
	want := []string{"apple", "mango", "zebra"}
	for i := range want {
		if terms[i] != want[i] {
			t.Fatalf("run term order = %v, want %v", terms, want)
		}
	}
}
