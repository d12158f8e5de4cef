package codec

// DGap computes the d-gap transform of a strictly ascending docID sequence
// relative to base: gaps[0] = docIDs[0] - base, gaps[i] = docIDs[i] -
// docIDs[i-1] for i > 0. Pass base = 0 for a standalone sequence, or the
// last docID of the preceding block when d-gapping one block of a larger
// list.
func DGap(docIDs []uint32, base uint32) []uint32 {
	gaps := make([]uint32, len(docIDs))
	prev := base
	for i, d := range docIDs {
		gaps[i] = d - prev
		prev = d
	}
	return gaps
}

// UnGap inverts DGap: it prefix-sums gaps, starting from base, to recover
// the original ascending docID sequence.
func UnGap(gaps []uint32, base uint32) []uint32 {
	docIDs := make([]uint32, len(gaps))
	running := base
	for i, g := range gaps {
		running += g
		docIDs[i] = running
	}
	return docIDs
}
