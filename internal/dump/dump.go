// Package dump renders a merged index back to the human-readable
// "<term> <docID>:<termFreq> ..." ASCII format, one line per term, for
// inspection and debugging.
package dump

import (
	"bufio"
	"fmt"
	"os"

	"github.com/indexbuild/pipeline/internal/listreader"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

// Dump reads the merged index in indexDir and writes its ASCII rendering
// to outPath, one line per term in lexicon order.
func Dump(indexDir, outPath string) error {
	idx, err := listreader.Open(indexDir)
	if err != nil {
		return err
	}
	defer idx.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return pipeerr.Newf(pipeerr.ErrIO, "creating %s: %v", outPath, err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	for _, term := range idx.Terms() {
		if err := dumpTerm(w, idx, term); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return pipeerr.Newf(pipeerr.ErrIO, "flushing %s: %v", outPath, err)
	}
	return nil
}

func dumpTerm(w *bufio.Writer, idx *listreader.Index, term string) error {
	h, err := idx.OpenList(term)
	if err != nil {
		return err
	}

	if _, err := w.WriteString(term); err != nil {
		return pipeerr.Newf(pipeerr.ErrIO, "writing term %q: %v", term, err)
	}

	var next uint32
	for {
		p, err := h.NextGEQ(next)
		if err == pipeerr.EndOfList {
			break
		}
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, " %d:%d", p.DocID, p.TermFreq); err != nil {
			return pipeerr.Newf(pipeerr.ErrIO, "writing posting for term %q: %v", term, err)
		}
		next = p.DocID + 1
	}

	if _, err := w.WriteString("\n"); err != nil {
		return pipeerr.Newf(pipeerr.ErrIO, "writing newline for term %q: %v", term, err)
	}
	return nil
}
