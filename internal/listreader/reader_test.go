package listreader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/indexbuild/pipeline/internal/merger"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

func buildIndex(t *testing.T, runContents map[string]string) *Index {
	t.Helper()
	dir := t.TempDir()
	var runPaths []string
	names := make([]string, 0, len(runContents))
	for name := range runContents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(runContents[name]), 0644); err != nil {
			t.Fatalf("writing run %s: %v", name, err)
		}
		runPaths = append(runPaths, path)
	}
	if _, err := merger.Merge(runPaths, dir); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	idx, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestOpenListUnknownTermIsNotFound(t *testing.T) {
	idx := buildIndex(t, map[string]string{"intermediate_0.txt": "cat 1:1\n"})
	if _, err := idx.OpenList("dog"); err != pipeerr.NotFound {
		t.Fatalf("err = %v, want pipeerr.NotFound", err)
	}
}

func TestNextGEQSingleBlock(t *testing.T) {
	idx := buildIndex(t, map[string]string{"intermediate_0.txt": "cat 5:1 10:2 20:3\n"})
	h, err := idx.OpenList("cat")
	if err != nil {
		t.Fatalf("OpenList: %v", err)
	}

	p, err := h.NextGEQ(0)
	if err != nil || p.DocID != 5 || p.TermFreq != 1 {
		t.Fatalf("NextGEQ(0) = %+v, %v", p, err)
	}
	p, err = h.NextGEQ(6)
	if err != nil || p.DocID != 10 || p.TermFreq != 2 {
		t.Fatalf("NextGEQ(6) = %+v, %v", p, err)
	}
	p, err = h.NextGEQ(10)
	if err != nil || p.DocID != 10 {
		t.Fatalf("NextGEQ(10) = %+v, %v", p, err)
	}
	if _, err := h.NextGEQ(21); err != pipeerr.EndOfList {
		t.Fatalf("NextGEQ(21) err = %v, want EndOfList", err)
	}
}

// Spec scenario 3: 130 postings for one term split into blocks of 64, 64, 2
// with lastDocIDs 64, 128, 130. NextGEQ must hop across all three blocks.
func TestNextGEQAcrossBlockBoundaries(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("w")
	for d := 1; d <= 130; d++ {
		fmt.Fprintf(&sb, " %d:1", d)
	}
	sb.WriteString("\n")
	idx := buildIndex(t, map[string]string{"intermediate_0.txt": sb.String()})

	h, err := idx.OpenList("w")
	if err != nil {
		t.Fatalf("OpenList: %v", err)
	}
	if h.DocFreq() != 130 {
		t.Fatalf("DocFreq = %d, want 130", h.DocFreq())
	}

	for _, target := range []uint32{1, 64, 65, 128, 129, 130} {
		p, err := h.NextGEQ(target)
		if err != nil {
			t.Fatalf("NextGEQ(%d): %v", target, err)
		}
		if p.DocID < target {
			t.Fatalf("NextGEQ(%d) = %d, want >= %d", target, p.DocID, target)
		}
	}
	if _, err := h.NextGEQ(131); err != pipeerr.EndOfList {
		t.Fatalf("NextGEQ(131) err = %v, want EndOfList", err)
	}
}

func TestNextGEQMonotonicCallsReuseDecodedBlock(t *testing.T) {
	idx := buildIndex(t, map[string]string{"intermediate_0.txt": "cat 1:1 2:1 3:1\n"})
	h, err := idx.OpenList("cat")
	if err != nil {
		t.Fatalf("OpenList: %v", err)
	}
	var first *uint32
	for i, target := range []uint32{1, 2, 3} {
		p, err := h.NextGEQ(target)
		if err != nil || p.DocID != target {
			t.Fatalf("NextGEQ(%d) = %+v, %v", target, p, err)
		}
		// decode allocates a fresh docIDs slice, so a stable backing array
		// means the block was not decoded again.
		if i == 0 {
			first = &h.docIDs[0]
		} else if &h.docIDs[0] != first {
			t.Fatalf("NextGEQ(%d) re-decoded block 0", target)
		}
	}
}

func TestNextGEQAfterCoalescingDuplicateDocID(t *testing.T) {
	idx := buildIndex(t, map[string]string{
		"intermediate_0.txt": "cat 7:2\n",
		"intermediate_1.txt": "cat 7:5\n",
	})
	h, err := idx.OpenList("cat")
	if err != nil {
		t.Fatalf("OpenList: %v", err)
	}
	p, err := h.NextGEQ(7)
	if err != nil {
		t.Fatalf("NextGEQ(7): %v", err)
	}
	if p.DocID != 7 || p.TermFreq != 7 {
		t.Fatalf("p = %+v, want {7 7}", p)
	}
	if h.DocFreq() != 1 {
		t.Fatalf("DocFreq = %d, want 1", h.DocFreq())
	}
}

func TestOpenLoadsMultipleTermsIndependently(t *testing.T) {
	idx := buildIndex(t, map[string]string{"intermediate_0.txt": "a 1:1\nb 2:2 3:3\n"})

	ha, err := idx.OpenList("a")
	if err != nil {
		t.Fatalf("OpenList(a): %v", err)
	}
	pa, err := ha.NextGEQ(1)
	if err != nil || pa.DocID != 1 {
		t.Fatalf("a NextGEQ(1) = %+v, %v", pa, err)
	}

	hb, err := idx.OpenList("b")
	if err != nil {
		t.Fatalf("OpenList(b): %v", err)
	}
	pb, err := hb.NextGEQ(3)
	if err != nil || pb.DocID != 3 || pb.TermFreq != 3 {
		t.Fatalf("b NextGEQ(3) = %+v, %v", pb, err)
	}
}
