// Package listreader provides read-only access to a merged index: opening a
// term's posting list and seeking within it via nextGEQ, using the blocked,
// d-gapped, varbyte-coded layout the merger writes.
package listreader

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/indexbuild/pipeline/internal/codec"
	"github.com/indexbuild/pipeline/internal/index"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

// block is one physical block of a term's posting list, with enough
// bookkeeping to decode it without touching its neighbors.
type block struct {
	meta      index.BlockMetaEntry
	absOffset uint64 // byte offset into index.bin
	base      uint32 // lastDocID of the preceding block of this term, or 0
	postings  int    // number of postings encoded in this block
}

// termEntry is the fully resolved location of one term's posting list: its
// lexicon record plus the slice of blocks that make it up.
type termEntry struct {
	lex    index.LexiconEntry
	blocks []block
}

// Index is an opened merged index: index.bin plus its lexicon and
// block-metadata sidecars, ready for list access.
type Index struct {
	dir   string
	f     *os.File
	terms map[string]termEntry
}

// Open loads lexicon.txt and blockMetaData.txt from dir and opens index.bin
// for random access. The three files are assumed to tile consistently, the
// invariant the merger guarantees.
func Open(dir string) (*Index, error) {
	f, err := os.Open(filepath.Join(dir, "index.bin"))
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "opening index.bin: %v", err)
	}

	blockMeta, err := loadBlockMetaData(filepath.Join(dir, "blockMetaData.txt"))
	if err != nil {
		f.Close()
		return nil, err
	}
	lexEntries, err := loadLexicon(filepath.Join(dir, "lexicon.txt"))
	if err != nil {
		f.Close()
		return nil, err
	}

	terms := make(map[string]termEntry, len(lexEntries))
	blockCursor := 0
	for _, lex := range lexEntries {
		numBlocks := (int(lex.DocFreq) + index.PostingsPerBlock - 1) / index.PostingsPerBlock
		if blockCursor+numBlocks > len(blockMeta) {
			f.Close()
			return nil, pipeerr.Newf(pipeerr.ErrCorruptRun, "term %q needs %d blocks but only %d remain in blockMetaData.txt", lex.Term, numBlocks, len(blockMeta)-blockCursor)
		}
		blocks := make([]block, numBlocks)
		offset := lex.Offset
		base := uint32(0)
		remaining := int(lex.DocFreq)
		for i := 0; i < numBlocks; i++ {
			m := blockMeta[blockCursor+i]
			count := index.PostingsPerBlock
			if remaining < count {
				count = remaining
			}
			blocks[i] = block{meta: m, absOffset: offset, base: base, postings: count}
			offset += uint64(m.Length)
			base = m.LastDocID
			remaining -= count
		}
		blockCursor += numBlocks
		terms[lex.Term] = termEntry{lex: lex, blocks: blocks}
	}

	return &Index{dir: dir, f: f, terms: terms}, nil
}

// Close releases the underlying index.bin file handle.
func (idx *Index) Close() error {
	return idx.f.Close()
}

// Terms returns every term in the index, sorted ascending — the order
// lexicon.txt itself is written in.
func (idx *Index) Terms() []string {
	terms := make([]string, 0, len(idx.terms))
	for t := range idx.terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// ListHandle is a cursor over one term's posting list, returned by OpenList.
// Its only mutable state is which block is currently decoded, so repeated
// forward NextGEQ calls on the same handle avoid re-decoding blocks.
type ListHandle struct {
	idx   *Index
	term  string
	entry termEntry

	decodedBlock int
	docIDs       []uint32
	freqs        []uint32
}

// OpenList positions a new cursor at the start of term's posting list. It
// returns pipeerr's sentinel NotFound, not an error, if term never occurs.
func (idx *Index) OpenList(term string) (*ListHandle, error) {
	entry, ok := idx.terms[term]
	if !ok {
		return nil, pipeerr.NotFound
	}
	return &ListHandle{idx: idx, term: term, entry: entry, decodedBlock: -1}, nil
}

// DocFreq returns the number of documents term occurs in.
func (h *ListHandle) DocFreq() uint32 {
	return h.entry.lex.DocFreq
}

// blockSearch returns the index of the first block whose lastDocID is >=
// target, or len(blocks) if no such block exists.
func (h *ListHandle) blockSearch(target uint32) int {
	blocks := h.entry.blocks
	return sort.Search(len(blocks), func(i int) bool {
		return blocks[i].meta.LastDocID >= target
	})
}

// decode reads and decodes block i of this term's posting list, caching the
// result so repeated calls within the same block are free.
func (h *ListHandle) decode(i int) error {
	if h.decodedBlock == i {
		return nil
	}
	b := h.entry.blocks[i]
	buf := make([]byte, b.meta.Length)
	if _, err := h.idx.f.ReadAt(buf, int64(b.absOffset)); err != nil {
		return pipeerr.Newf(pipeerr.ErrIO, "reading block %d of term %q: %v", i, h.term, err)
	}

	gaps, n, err := codec.DecodeVarbyteN(buf, b.postings)
	if err != nil {
		return pipeerr.Newf(pipeerr.ErrCorruptRun, "decoding docIDs of term %q block %d: %v", h.term, i, err)
	}
	freqs, _, err := codec.DecodeVarbyteN(buf[n:], b.postings)
	if err != nil {
		return pipeerr.Newf(pipeerr.ErrCorruptRun, "decoding termFreqs of term %q block %d: %v", h.term, i, err)
	}

	h.docIDs = codec.UnGap(gaps, b.base)
	h.freqs = freqs
	h.decodedBlock = i
	return nil
}

// NextGEQ returns the first posting in the list with docID >= target,
// decoding blocks on demand via a two-level binary search: block metadata
// locates the block, then the decoded block is binary-searched directly.
// It returns pipeerr's sentinel EndOfList, not an error, once target
// exceeds every docID in the list.
func (h *ListHandle) NextGEQ(target uint32) (index.Posting, error) {
	blockIdx := h.blockSearch(target)
	if blockIdx >= len(h.entry.blocks) {
		return index.Posting{}, pipeerr.EndOfList
	}
	if err := h.decode(blockIdx); err != nil {
		return index.Posting{}, err
	}
	pos := sort.Search(len(h.docIDs), func(i int) bool {
		return h.docIDs[i] >= target
	})
	// pos should always be < len(h.docIDs) here: blockSearch already
	// guaranteed this block's lastDocID >= target.
	if pos >= len(h.docIDs) {
		return index.Posting{}, pipeerr.EndOfList
	}
	return index.Posting{DocID: h.docIDs[pos], TermFreq: h.freqs[pos]}, nil
}

func loadLexicon(path string) ([]index.LexiconEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "opening lexicon.txt: %v", err)
	}
	defer f.Close()

	var entries []index.LexiconEntry
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, pipeerr.Newf(pipeerr.ErrParse, "lexicon.txt line %q: want 4 fields, got %d", line, len(fields))
		}
		offset, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, pipeerr.Newf(pipeerr.ErrParse, "lexicon.txt line %q: bad offset: %v", line, err)
		}
		length, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, pipeerr.Newf(pipeerr.ErrParse, "lexicon.txt line %q: bad length: %v", line, err)
		}
		docFreq, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return nil, pipeerr.Newf(pipeerr.ErrParse, "lexicon.txt line %q: bad docFreq: %v", line, err)
		}
		entries = append(entries, index.LexiconEntry{
			Term:    fields[0],
			Offset:  offset,
			Length:  uint32(length),
			DocFreq: uint32(docFreq),
		})
	}
	if err := s.Err(); err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "reading lexicon.txt: %v", err)
	}
	return entries, nil
}

func loadBlockMetaData(path string) ([]index.BlockMetaEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "opening blockMetaData.txt: %v", err)
	}
	defer f.Close()

	var entries []index.BlockMetaEntry
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, pipeerr.Newf(pipeerr.ErrParse, "blockMetaData.txt line %q: want 2 fields, got %d", line, len(fields))
		}
		length, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, pipeerr.Newf(pipeerr.ErrParse, "blockMetaData.txt line %q: bad length: %v", line, err)
		}
		lastDocID, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, pipeerr.Newf(pipeerr.ErrParse, "blockMetaData.txt line %q: bad lastDocID: %v", line, err)
		}
		entries = append(entries, index.BlockMetaEntry{Length: uint32(length), LastDocID: uint32(lastDocID)})
	}
	if err := s.Err(); err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "reading blockMetaData.txt: %v", err)
	}
	return entries, nil
}
