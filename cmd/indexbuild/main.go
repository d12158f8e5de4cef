// Command indexbuild is the offline CLI for the build+merge pipeline: it
// runs a single build, a single merge, or dumps a merged index to ASCII.
//
// Usage:
//
//	indexbuild build -collection docs.tsv -rundir ./runs [-maxBlockBytes N]
//	indexbuild merge -rundir ./runs -outdir ./index
//	indexbuild dump -indexdir ./index -out dump.txt
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/indexbuild/pipeline/internal/builder"
	"github.com/indexbuild/pipeline/internal/dump"
	"github.com/indexbuild/pipeline/internal/index"
	"github.com/indexbuild/pipeline/internal/merger"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
	"github.com/indexbuild/pipeline/pkg/logger"
)

func main() {
	logger.Setup("info", "text")

	if len(os.Args) < 2 {
		usage()
		os.Exit(64)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "merge":
		err = runMerge(os.Args[2:])
	case "dump":
		err = runDump(os.Args[2:])
	default:
		usage()
		os.Exit(64)
	}

	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(pipeerr.ExitCode(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: indexbuild <build|merge|dump> [flags]")
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	collection := fs.String("collection", "", "path to the TSV collection file (docID\\tpassage per line)")
	runDir := fs.String("rundir", "./runs", "directory to write intermediate SPIMI runs into")
	maxBlockBytes := fs.Int64("maxBlockBytes", index.MaxBlockBytes, "accumulator size threshold that triggers a run flush")
	fs.Parse(args)

	if *collection == "" {
		return pipeerr.New(pipeerr.ErrParse, "-collection is required")
	}
	if err := os.MkdirAll(*runDir, 0755); err != nil {
		return pipeerr.Newf(pipeerr.ErrIO, "creating run directory: %v", err)
	}

	result, err := builder.Build(*collection, *runDir, *maxBlockBytes)
	if err != nil {
		return err
	}
	slog.Info("build complete",
		"docs_processed", result.DocsProcessed,
		"lines_skipped", result.LinesSkipped,
		"runs_written", len(result.RunPaths),
		"page_table", result.PageTablePath,
	)
	return nil
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	runDir := fs.String("rundir", "./runs", "directory containing intermediate SPIMI runs")
	outDir := fs.String("outdir", "./index", "directory to write index.bin/lexicon.txt/blockMetaData.txt into")
	fs.Parse(args)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return pipeerr.Newf(pipeerr.ErrIO, "creating output directory: %v", err)
	}

	runPaths, err := collectRunPaths(*runDir)
	if err != nil {
		return err
	}
	if len(runPaths) == 0 {
		return pipeerr.Newf(pipeerr.ErrParse, "no intermediate_*.txt runs found in %s", *runDir)
	}

	stats, err := merger.Merge(runPaths, *outDir)
	if err != nil {
		return err
	}
	slog.Info("merge complete",
		"terms_written", stats.TermsWritten,
		"blocks_written", stats.BlocksWritten,
		"runs_consumed", stats.RunsConsumed,
	)
	return nil
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	indexDir := fs.String("indexdir", "./index", "directory containing a merged index.bin/lexicon.txt/blockMetaData.txt")
	outPath := fs.String("out", "dump.txt", "path to write the ASCII rendering to")
	fs.Parse(args)

	if err := dump.Dump(*indexDir, *outPath); err != nil {
		return err
	}
	slog.Info("dump complete", "out", *outPath)
	return nil
}

// collectRunPaths returns every intermediate_*.txt file in dir, sorted by
// the numeric run index embedded in its name (not lexicographically, which
// would place intermediate_10.txt before intermediate_2.txt) so merge
// determinism matches the order the builder wrote them in.
func collectRunPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.ErrIO, "reading run directory %s: %v", dir, err)
	}
	type indexedPath struct {
		k    int
		path string
	}
	var runs []indexedPath
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "intermediate_") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(name, "intermediate_"), ".txt")
		k, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		runs = append(runs, indexedPath{k: k, path: filepath.Join(dir, name)})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].k < runs[j].k })
	paths := make([]string, len(runs))
	for i, r := range runs {
		paths[i] = r.path
	}
	return paths, nil
}
