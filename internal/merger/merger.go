// Package merger performs the k-way merge of sorted intermediate runs into
// the final index.bin, lexicon.txt, and blockMetaData.txt.
package merger

import (
	"container/heap"
	"sort"

	"github.com/indexbuild/pipeline/internal/index"
)

// Stats summarizes a completed merge.
type Stats struct {
	TermsWritten  int
	BlocksWritten int
	RunsConsumed  int
}

// Merge reads runPaths (in the order given; the CLI and the orchestrator
// pass them in run-index order) and writes the merged index into outDir.
// Duplicate docIDs are summed, so the output does not depend on that order.
func Merge(runPaths []string, outDir string) (Stats, error) {
	readers := make([]*RunReader, len(runPaths))
	for i, path := range runPaths {
		r, err := OpenRunReader(path)
		if err != nil {
			for _, opened := range readers[:i] {
				opened.Close()
			}
			return Stats{}, err
		}
		readers[i] = r
	}
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	w, err := newIndexWriter(outDir)
	if err != nil {
		return Stats{}, err
	}

	h := &runHeap{}
	heap.Init(h)
	for i, r := range readers {
		if r.HasNext() {
			heap.Push(h, heapEntry{term: r.CurrentTerm(), runIndex: i})
		}
	}

	stats := Stats{RunsConsumed: len(runPaths)}

	for h.Len() > 0 {
		top := heap.Pop(h).(heapEntry)
		term := top.term
		var collected index.PostingList
		collected = append(collected, readers[top.runIndex].CurrentPostings()...)
		if err := advanceAndRequeue(readers, top.runIndex, h); err != nil {
			w.abort()
			return Stats{}, err
		}

		for h.Len() > 0 && (*h)[0].term == term {
			next := heap.Pop(h).(heapEntry)
			collected = append(collected, readers[next.runIndex].CurrentPostings()...)
			if err := advanceAndRequeue(readers, next.runIndex, h); err != nil {
				w.abort()
				return Stats{}, err
			}
		}

		merged := coalesce(collected)
		if err := w.writeTermList(term, merged); err != nil {
			w.abort()
			return Stats{}, err
		}
		stats.TermsWritten++
		stats.BlocksWritten += (len(merged) + index.PostingsPerBlock - 1) / index.PostingsPerBlock
	}

	if err := w.commit(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func advanceAndRequeue(readers []*RunReader, runIndex int, h *runHeap) error {
	r := readers[runIndex]
	if err := r.Advance(); err != nil {
		return err
	}
	if r.HasNext() {
		heap.Push(h, heapEntry{term: r.CurrentTerm(), runIndex: runIndex})
	}
	return nil
}

// coalesce sorts postings by docID and sums termFreq for duplicate docIDs,
// implementing the "a doc contributes its summed frequencies from all
// runs" rule. The result is strictly ascending and duplicate-free.
func coalesce(postings index.PostingList) index.PostingList {
	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].DocID < postings[j].DocID
	})

	merged := make(index.PostingList, 0, len(postings))
	for _, p := range postings {
		if n := len(merged); n > 0 && merged[n-1].DocID == p.DocID {
			merged[n-1].TermFreq += p.TermFreq
			continue
		}
		merged = append(merged, p)
	}
	return merged
}
