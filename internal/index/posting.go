// Package index holds the domain types shared by the builder, merger, and
// list reader: postings, lexicon entries, and block metadata.
package index

// Posting is a (docID, termFreq) pair: a term occurred termFreq times in
// the document identified by docID.
type Posting struct {
	DocID    uint32
	TermFreq uint32
}

// PostingList is an ordered sequence of Postings for one term. At rest it
// is sorted strictly ascending by DocID with no duplicates.
type PostingList []Posting

// TermEntry pairs a term with its posting list, the unit a run or the
// in-memory accumulator is serialized as.
type TermEntry struct {
	Term     string
	Postings PostingList
}

// LexiconEntry locates one term's postings within index.bin.
type LexiconEntry struct {
	Term    string
	Offset  uint64
	Length  uint32
	DocFreq uint32
}

// BlockMetaEntry describes one physical block of a posting list.
type BlockMetaEntry struct {
	Length    uint32
	LastDocID uint32
}

// PostingsPerBlock is the maximum number of postings a single physical
// block holds.
const PostingsPerBlock = 64

// MaxBlockBytes is the in-memory accumulator size threshold that triggers a
// builder flush.
const MaxBlockBytes = 100 * 1024 * 1024
