package merger

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/indexbuild/pipeline/internal/index"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

// RunReader is a cursor over one sorted intermediate run file, advanced a
// term at a time. It exposes the {hasNext, currentTerm, currentPostings,
// advance} capability set the k-way merge treats every run as.
type RunReader struct {
	path    string
	f       *os.File
	scanner *bufio.Scanner

	hasNext         bool
	currentTerm     string
	currentPostings index.PostingList
}

// OpenRunReader opens path and positions the cursor on its first term.
func OpenRunReader(path string) (*RunReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "opening run %s: %v", path, err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	r := &RunReader{path: path, f: f, scanner: scanner}
	if err := r.advance(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// HasNext reports whether the reader has a current term to offer.
func (r *RunReader) HasNext() bool {
	return r.hasNext
}

// CurrentTerm returns the term the cursor is positioned on.
func (r *RunReader) CurrentTerm() string {
	return r.currentTerm
}

// CurrentPostings returns the postings for CurrentTerm, in the order they
// were appended to the run (ascending docID, per the run format invariant).
func (r *RunReader) CurrentPostings() index.PostingList {
	return r.currentPostings
}

// Advance moves the cursor to the next term, or marks the reader exhausted.
func (r *RunReader) Advance() error {
	return r.advance()
}

func (r *RunReader) advance() error {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return pipeerr.Newf(pipeerr.ErrIO, "reading run %s: %v", r.path, err)
		}
		r.hasNext = false
		r.currentTerm = ""
		r.currentPostings = nil
		return nil
	}
	term, postings, err := parseRunLine(r.scanner.Text())
	if err != nil {
		return pipeerr.Newf(pipeerr.ErrCorruptRun, "run %s: %v", r.path, err)
	}
	r.hasNext = true
	r.currentTerm = term
	r.currentPostings = postings
	return nil
}

// Close releases the underlying file handle.
func (r *RunReader) Close() error {
	return r.f.Close()
}

// parseRunLine parses one line of the run format:
// "<term> <docID>:<tf> <docID>:<tf>...".
func parseRunLine(line string) (string, index.PostingList, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, pipeerr.New(pipeerr.ErrCorruptRun, "empty run line")
	}
	term := fields[0]
	postings := make(index.PostingList, 0, len(fields)-1)
	for _, f := range fields[1:] {
		colon := strings.IndexByte(f, ':')
		if colon < 0 {
			return "", nil, pipeerr.Newf(pipeerr.ErrCorruptRun, "posting %q missing colon", f)
		}
		docID, err := strconv.ParseUint(f[:colon], 10, 32)
		if err != nil {
			return "", nil, pipeerr.Newf(pipeerr.ErrCorruptRun, "posting %q bad docID: %v", f, err)
		}
		freq, err := strconv.ParseUint(f[colon+1:], 10, 32)
		if err != nil {
			return "", nil, pipeerr.Newf(pipeerr.ErrCorruptRun, "posting %q bad termFreq: %v", f, err)
		}
		postings = append(postings, index.Posting{DocID: uint32(docID), TermFreq: uint32(freq)})
	}
	return term, postings, nil
}
