package builder

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/indexbuild/pipeline/internal/index"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

// runFileName returns the k-th intermediate run's file name.
func runFileName(k int) string {
	return fmt.Sprintf("intermediate_%d.txt", k)
}

// writeRun atomically serializes entries (already in ascending term order)
// to runDir/intermediate_<k>.txt: one line per term, "<term>
// <docID>:<tf> <docID>:<tf>...\n".
func writeRun(runDir string, k int, entries []index.TermEntry) (string, error) {
	finalPath := filepath.Join(runDir, runFileName(k))
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", pipeerr.Newf(pipeerr.ErrIO, "creating run file %s: %v", tmpPath, err)
	}

	w := bufio.NewWriter(f)
	for _, entry := range entries {
		if _, err := w.WriteString(entry.Term); err != nil {
			f.Close()
			return "", pipeerr.Newf(pipeerr.ErrIO, "writing run file %s: %v", tmpPath, err)
		}
		for _, p := range entry.Postings {
			if _, err := fmt.Fprintf(w, " %d:%d", p.DocID, p.TermFreq); err != nil {
				f.Close()
				return "", pipeerr.Newf(pipeerr.ErrIO, "writing run file %s: %v", tmpPath, err)
			}
		}
		if _, err := w.WriteString("\n"); err != nil {
			f.Close()
			return "", pipeerr.Newf(pipeerr.ErrIO, "writing run file %s: %v", tmpPath, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", pipeerr.Newf(pipeerr.ErrIO, "flushing run file %s: %v", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", pipeerr.Newf(pipeerr.ErrIO, "syncing run file %s: %v", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		return "", pipeerr.Newf(pipeerr.ErrIO, "closing run file %s: %v", tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", pipeerr.Newf(pipeerr.ErrIO, "renaming run file to %s: %v", finalPath, err)
	}
	return finalPath, nil
}
