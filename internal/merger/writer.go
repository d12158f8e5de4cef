package merger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/indexbuild/pipeline/internal/codec"
	"github.com/indexbuild/pipeline/internal/index"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

const (
	indexFileName = "index.bin"
	lexiconName   = "lexicon.txt"
	blockMetaName = "blockMetaData.txt"
)

// indexWriter produces index.bin, lexicon.txt, and blockMetaData.txt
// together, since every term list's lexicon entry and block-metadata
// entries are a direct function of the bytes just written to index.bin.
// All three are written to .tmp files and renamed into place only once the
// whole merge has succeeded, mirroring the builder's atomic run writes.
type indexWriter struct {
	outDir string

	indexF *os.File
	indexW *bufio.Writer
	lexF   *os.File
	lexW   *bufio.Writer
	metaF  *os.File
	metaW  *bufio.Writer

	offset uint64
}

func newIndexWriter(outDir string) (*indexWriter, error) {
	indexF, err := os.Create(filepath.Join(outDir, indexFileName+".tmp"))
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "creating %s: %v", indexFileName, err)
	}
	lexF, err := os.Create(filepath.Join(outDir, lexiconName+".tmp"))
	if err != nil {
		indexF.Close()
		return nil, pipeerr.Newf(pipeerr.ErrIO, "creating %s: %v", lexiconName, err)
	}
	metaF, err := os.Create(filepath.Join(outDir, blockMetaName+".tmp"))
	if err != nil {
		indexF.Close()
		lexF.Close()
		return nil, pipeerr.Newf(pipeerr.ErrIO, "creating %s: %v", blockMetaName, err)
	}
	return &indexWriter{
		outDir: outDir,
		indexF: indexF,
		indexW: bufio.NewWriter(indexF),
		lexF:   lexF,
		lexW:   bufio.NewWriter(lexF),
		metaF:  metaF,
		metaW:  bufio.NewWriter(metaF),
	}, nil
}

// writeTermList writes one term's coalesced, docID-sorted posting list as
// consecutive blocks of up to index.PostingsPerBlock postings, then appends
// its lexicon entry.
func (w *indexWriter) writeTermList(term string, postings index.PostingList) error {
	termOffset := w.offset
	var totalLen uint32
	base := uint32(0)

	for start := 0; start < len(postings); start += index.PostingsPerBlock {
		end := start + index.PostingsPerBlock
		if end > len(postings) {
			end = len(postings)
		}
		block := postings[start:end]

		docIDs := make([]uint32, len(block))
		for i, p := range block {
			docIDs[i] = p.DocID
		}
		gaps := codec.DGap(docIDs, base)

		var buf []byte
		for _, g := range gaps {
			buf = codec.AppendVarbyte(buf, g)
		}
		for _, p := range block {
			buf = codec.AppendVarbyte(buf, p.TermFreq)
		}

		if _, err := w.indexW.Write(buf); err != nil {
			return pipeerr.Newf(pipeerr.ErrIO, "writing index.bin: %v", err)
		}

		length := uint32(len(buf))
		lastDocID := block[len(block)-1].DocID
		if _, err := fmt.Fprintf(w.metaW, "%d %d\n", length, lastDocID); err != nil {
			return pipeerr.Newf(pipeerr.ErrIO, "writing %s: %v", blockMetaName, err)
		}

		totalLen += length
		w.offset += uint64(length)
		base = lastDocID
	}

	if _, err := fmt.Fprintf(w.lexW, "%s %d %d %d\n", term, termOffset, totalLen, len(postings)); err != nil {
		return pipeerr.Newf(pipeerr.ErrIO, "writing %s: %v", lexiconName, err)
	}
	return nil
}

// commit flushes and syncs all three tmp files and atomically renames them
// into place. On any failure the tmp files are left for inspection.
func (w *indexWriter) commit() error {
	for _, part := range []struct {
		f    *os.File
		w    *bufio.Writer
		name string
	}{
		{w.indexF, w.indexW, indexFileName},
		{w.lexF, w.lexW, lexiconName},
		{w.metaF, w.metaW, blockMetaName},
	} {
		if err := part.w.Flush(); err != nil {
			return pipeerr.Newf(pipeerr.ErrIO, "flushing %s: %v", part.name, err)
		}
		if err := part.f.Sync(); err != nil {
			return pipeerr.Newf(pipeerr.ErrIO, "syncing %s: %v", part.name, err)
		}
		if err := part.f.Close(); err != nil {
			return pipeerr.Newf(pipeerr.ErrIO, "closing %s: %v", part.name, err)
		}
		finalPath := filepath.Join(w.outDir, part.name)
		if err := os.Rename(finalPath+".tmp", finalPath); err != nil {
			return pipeerr.Newf(pipeerr.ErrIO, "renaming %s into place: %v", part.name, err)
		}
	}
	return nil
}

// abort closes all tmp files without renaming them, for use on a failed
// merge.
func (w *indexWriter) abort() {
	w.indexF.Close()
	w.lexF.Close()
	w.metaF.Close()
}
