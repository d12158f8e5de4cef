// Package pagetable writes and reads pagetable.tsv, the docID->tokenCount
// sidecar consumed by the external ranker for document-length normalization.
package pagetable

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

// Entry is one row of the page table: a document's token count after
// tokenization.
type Entry struct {
	DocID      uint32
	TokenCount uint32
}

// Writer appends page-table entries in input order as the Block Builder
// scans the collection. It is not safe for concurrent use.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

// NewWriter creates (or truncates) the page table file at path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "creating page table %s: %v", path, err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one entry: "<docID>\t<tokenCount>\n".
func (w *Writer) Write(docID, tokenCount uint32) error {
	if _, err := fmt.Fprintf(w.w, "%d\t%d\n", docID, tokenCount); err != nil {
		return pipeerr.Newf(pipeerr.ErrIO, "writing page table entry: %v", err)
	}
	return nil
}

// Close flushes buffered writes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return pipeerr.Newf(pipeerr.ErrIO, "flushing page table: %v", err)
	}
	return w.f.Close()
}

// Load reads the entire page table into memory, keyed by docID.
func Load(path string) (map[uint32]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "opening page table %s: %v", path, err)
	}
	defer f.Close()

	table := make(map[uint32]uint32)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		entry, err := parseLine(scanner.Text())
		if err != nil {
			return nil, pipeerr.Newf(pipeerr.ErrParse, "page table %s line %d: %v", path, lineNo, err)
		}
		table[entry.DocID] = entry.TokenCount
	}
	if err := scanner.Err(); err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "reading page table %s: %v", path, err)
	}
	return table, nil
}

func parseLine(line string) (Entry, error) {
	parts := strings.SplitN(line, "\t", 2)
	if len(parts) != 2 {
		return Entry{}, fmt.Errorf("missing TAB separator")
	}
	docID, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("bad docID %q: %w", parts[0], err)
	}
	tokenCount, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("bad tokenCount %q: %w", parts[1], err)
	}
	return Entry{DocID: uint32(docID), TokenCount: uint32(tokenCount)}, nil
}
