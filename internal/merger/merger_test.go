package merger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func writeRunFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing run %s: %v", name, err)
	}
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	return lines
}

// Duplicate docID across runs, scenario 2: the merged list sums termFreq.
func TestMergeCoalescesDuplicateDocIDAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	r0 := writeRunFile(t, dir, "intermediate_0.txt", "a 42:3\n")
	r1 := writeRunFile(t, dir, "intermediate_1.txt", "a 42:5\n")

	if _, err := Merge([]string{r0, r1}, dir); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	lex := readLines(t, filepath.Join(dir, "lexicon.txt"))
	if len(lex) != 1 {
		t.Fatalf("expected 1 lexicon entry, got %d: %v", len(lex), lex)
	}
	fields := strings.Fields(lex[0])
	if fields[0] != "a" {
		t.Fatalf("term = %q, want a", fields[0])
	}
	docFreq, _ := strconv.Atoi(fields[3])
	if docFreq != 1 {
		t.Fatalf("docFreq = %d, want 1", docFreq)
	}
	// One block: varbyte(gap 42) then varbyte(tf 3+5).
	data, err := os.ReadFile(filepath.Join(dir, "index.bin"))
	if err != nil {
		t.Fatalf("reading index.bin: %v", err)
	}
	if string(data) != "\x2a\x08" {
		t.Fatalf("index.bin = %x, want 2a08 (docID 42, termFreq 8)", data)
	}
}

// Deterministic merge, scenario 6: lexicon order is a, b; postings merge in
// docID order across runs.
func TestMergeDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	r0 := writeRunFile(t, dir, "intermediate_0.txt", "a 1:1\n")
	r1 := writeRunFile(t, dir, "intermediate_1.txt", "a 2:1\nb 3:1\n")

	if _, err := Merge([]string{r0, r1}, dir); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	lex := readLines(t, filepath.Join(dir, "lexicon.txt"))
	if len(lex) != 2 {
		t.Fatalf("expected 2 lexicon entries, got %v", lex)
	}
	if !strings.HasPrefix(lex[0], "a ") || !strings.HasPrefix(lex[1], "b ") {
		t.Fatalf("lexicon order = %v, want [a..., b...]", lex)
	}
	// a: gaps 1,1 then tfs 1,1; b: gap 3 then tf 1.
	data, err := os.ReadFile(filepath.Join(dir, "index.bin"))
	if err != nil {
		t.Fatalf("reading index.bin: %v", err)
	}
	if string(data) != "\x01\x01\x01\x01\x03\x01" {
		t.Fatalf("index.bin = %x, want 010101010301", data)
	}
}

// Block boundary, scenario 3: 130 postings split into blocks of 64, 64, 2.
func TestMergeBlockBoundary(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	sb.WriteString("b")
	for d := 1; d <= 130; d++ {
		fmt.Fprintf(&sb, " %d:1", d)
	}
	sb.WriteString("\n")
	r0 := writeRunFile(t, dir, "intermediate_0.txt", sb.String())

	stats, err := Merge([]string{r0}, dir)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.BlocksWritten != 3 {
		t.Fatalf("BlocksWritten = %d, want 3", stats.BlocksWritten)
	}

	meta := readLines(t, filepath.Join(dir, "blockMetaData.txt"))
	if len(meta) != 3 {
		t.Fatalf("expected 3 block metadata lines, got %d", len(meta))
	}
	wantLastDocIDs := []string{"64", "128", "130"}
	for i, line := range meta {
		fields := strings.Fields(line)
		if fields[1] != wantLastDocIDs[i] {
			t.Fatalf("block %d lastDocID = %s, want %s", i, fields[1], wantLastDocIDs[i])
		}
	}
}

// Block lengths in blockMetaData.txt must prefix-sum to the size of
// index.bin, and every lexicon offset must land on a block boundary.
func TestMergeBlockMetadataTilesIndexFile(t *testing.T) {
	dir := t.TempDir()
	r0 := writeRunFile(t, dir, "intermediate_0.txt", "a 1:1 2:2\nb 3:1\n")

	if _, err := Merge([]string{r0}, dir); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	meta := readLines(t, filepath.Join(dir, "blockMetaData.txt"))
	var total int64
	boundaries := map[int64]bool{0: true}
	for _, line := range meta {
		fields := strings.Fields(line)
		length, _ := strconv.ParseInt(fields[0], 10, 64)
		total += length
		boundaries[total] = true
	}

	info, err := os.Stat(filepath.Join(dir, "index.bin"))
	if err != nil {
		t.Fatalf("stat index.bin: %v", err)
	}
	if info.Size() != total {
		t.Fatalf("index.bin size = %d, want %d (sum of block lengths)", info.Size(), total)
	}

	for _, line := range readLines(t, filepath.Join(dir, "lexicon.txt")) {
		fields := strings.Fields(line)
		offset, _ := strconv.ParseInt(fields[1], 10, 64)
		if !boundaries[offset] {
			t.Fatalf("lexicon offset %d does not fall on a block boundary: %v", offset, boundaries)
		}
	}
}

func TestMergeAbortsOnCorruptRun(t *testing.T) {
	dir := t.TempDir()
	r0 := writeRunFile(t, dir, "intermediate_0.txt", "a 1notcolon\n")

	if _, err := Merge([]string{r0}, dir); err == nil {
		t.Fatal("expected an error for a malformed posting")
	}
}
