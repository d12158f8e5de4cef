// Package builder implements the SPIMI-style Block Builder: it streams a
// collection.tsv, accumulates an in-memory term->postings map, and flushes
// sorted intermediate runs whenever the accumulator crosses MaxBlockBytes.
// It also emits the page table as a side effect of the same scan.
package builder

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/indexbuild/pipeline/internal/index"
	"github.com/indexbuild/pipeline/internal/pagetable"
	"github.com/indexbuild/pipeline/internal/tokenizer"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

// Result summarizes a completed build.
type Result struct {
	RunPaths      []string
	DocsProcessed int
	LinesSkipped  int
	PageTablePath string
}

// Build streams the collection at collectionPath, writing intermediate run
// files and a page table into runDir. It overwrites pagetable.tsv and any
// intermediate_<k>.txt it writes and leaves other files alone; callers are
// responsible for ensuring runDir exists and is otherwise empty.
func Build(collectionPath, runDir string, maxBlockBytes int64) (Result, error) {
	if maxBlockBytes <= 0 {
		maxBlockBytes = index.MaxBlockBytes
	}

	in, err := os.Open(collectionPath)
	if err != nil {
		return Result{}, pipeerr.Newf(pipeerr.ErrIO, "opening collection %s: %v", collectionPath, err)
	}
	defer in.Close()

	pageTablePath := filepath.Join(runDir, "pagetable.tsv")
	pt, err := pagetable.NewWriter(pageTablePath)
	if err != nil {
		return Result{}, err
	}
	defer pt.Close()

	acc := newAccumulator()
	var runPaths []string
	runIndex := 0
	result := Result{}

	flush := func() error {
		if acc.empty() {
			return nil
		}
		path, err := writeRun(runDir, runIndex, acc.snapshot())
		if err != nil {
			return err
		}
		runPaths = append(runPaths, path)
		runIndex++
		acc.reset()
		return nil
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		docID, passage, ok := splitLine(line)
		if !ok {
			result.LinesSkipped++
			continue
		}

		tokens := tokenizer.Tokenize(passage)
		termFreq := make(map[string]uint32, len(tokens))
		for _, tok := range tokens {
			termFreq[tok]++
		}
		for term, freq := range termFreq {
			acc.add(term, docID, freq)
		}
		if err := pt.Write(docID, uint32(len(tokens))); err != nil {
			return Result{}, err
		}
		result.DocsProcessed++

		if acc.sizeBytes() >= maxBlockBytes {
			if err := flush(); err != nil {
				return Result{}, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, pipeerr.Newf(pipeerr.ErrIO, "reading collection %s: %v", collectionPath, err)
	}
	if err := flush(); err != nil {
		return Result{}, err
	}

	if err := pt.Close(); err != nil {
		return Result{}, err
	}

	result.RunPaths = runPaths
	result.PageTablePath = pageTablePath
	return result, nil
}

// splitLine parses one collection.tsv line of the form "<docID>\t<passage>".
// It returns ok=false for lines with no TAB or an unparseable docID, both
// of which are skipped silently per the ingestion failure policy.
func splitLine(line string) (docID uint32, passage string, ok bool) {
	tab := strings.IndexByte(line, '\t')
	if tab < 0 {
		return 0, "", false
	}
	id, err := strconv.ParseUint(line[:tab], 10, 32)
	if err != nil {
		return 0, "", false
	}
	return uint32(id), line[tab+1:], true
}
