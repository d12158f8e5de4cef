package builder

import (
	"sort"

	"github.com/indexbuild/pipeline/internal/index"
)

// accumulator is the Block Builder's in-memory term->postings map (M in the
// component design). It is owned exclusively by one Builder and discarded
// at every flush.
type accumulator struct {
	postings       map[string]index.PostingList
	estimatedBytes int64
}

func newAccumulator() *accumulator {
	return &accumulator{postings: make(map[string]index.PostingList)}
}

// add appends one (docID, freq) posting for term. Each docID must be added
// to a given term at most once per document; callers pre-aggregate
// per-document term frequencies before calling add.
func (a *accumulator) add(term string, docID, freq uint32) {
	a.postings[term] = append(a.postings[term], index.Posting{DocID: docID, TermFreq: freq})
	a.estimatedBytes += int64(len(term)) + 2*4
}

func (a *accumulator) sizeBytes() int64 {
	return a.estimatedBytes
}

func (a *accumulator) empty() bool {
	return len(a.postings) == 0
}

// snapshot returns the accumulator's contents as TermEntry records in
// ascending term order, ready for serialization to a run file.
func (a *accumulator) snapshot() []index.TermEntry {
	terms := make([]string, 0, len(a.postings))
	for t := range a.postings {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	entries := make([]index.TermEntry, len(terms))
	for i, t := range terms {
		entries[i] = index.TermEntry{Term: t, Postings: a.postings[t]}
	}
	return entries
}

func (a *accumulator) reset() {
	a.postings = make(map[string]index.PostingList)
	a.estimatedBytes = 0
}
