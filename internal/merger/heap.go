package merger

import "container/heap"

// heapEntry is one (term, runIndex) key in the merge heap: the smallest
// term wins, ties broken by ascending runIndex to keep the merge
// deterministic regardless of heap implementation details.
type heapEntry struct {
	term     string
	runIndex int
}

type runHeap []heapEntry

func (h runHeap) Len() int { return len(h) }

func (h runHeap) Less(i, j int) bool {
	if h[i].term != h[j].term {
		return h[i].term < h[j].term
	}
	return h[i].runIndex < h[j].runIndex
}

func (h runHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *runHeap) Push(x any) {
	*h = append(*h, x.(heapEntry))
}

func (h *runHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*runHeap)(nil)
