// Package orchestrator drives the build+merge pipeline from Kafka events:
// it consumes CollectionReadyEvents, runs a Build followed by a Merge for
// each, tracks job status in PostgreSQL, and publishes an IndexReadyEvent
// (or IndexFailedEvent) on completion.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/indexbuild/pipeline/internal/builder"
	"github.com/indexbuild/pipeline/internal/events"
	"github.com/indexbuild/pipeline/internal/merger"
	"github.com/indexbuild/pipeline/pkg/config"
	"github.com/indexbuild/pipeline/pkg/metrics"
)

// Engine runs one build+merge job at a time per call to RunBuildJob. It
// holds no state across jobs beyond its configuration: every job gets its
// own run directory, and its output directory is named after the
// collection, so concurrent jobs for distinct collections never interfere
// with each other's on-disk state.
type Engine struct {
	cfg     config.IndexConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine creates an Engine from the index pipeline configuration.
func NewEngine(cfg config.IndexConfig, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "orchestrator-engine"),
	}
}

// RunBuildJob builds and merges collectionPath into the subdirectory of the
// engine's DataDir named after collectionID (created if missing, reused if
// present), returning the resulting IndexReadyEvent.
func (e *Engine) RunBuildJob(ctx context.Context, jobID, collectionID, collectionPath string) (events.IndexReadyEvent, error) {
	runDir := filepath.Join(e.cfg.RunDir, jobID)
	outDir := filepath.Join(e.cfg.DataDir, collectionID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return events.IndexReadyEvent{}, fmt.Errorf("creating run directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return events.IndexReadyEvent{}, fmt.Errorf("creating output directory: %w", err)
	}
	defer os.RemoveAll(runDir)

	e.logger.Info("build starting", "job_id", jobID, "collection_id", collectionID, "collection_path", collectionPath)

	buildResult, err := builder.Build(collectionPath, runDir, e.cfg.MaxBlockBytes)
	if err != nil {
		return events.IndexReadyEvent{}, fmt.Errorf("build stage: %w", err)
	}
	e.metrics.DocsTokenizedTotal.Add(float64(buildResult.DocsProcessed))
	e.metrics.RunsFlushedTotal.Add(float64(len(buildResult.RunPaths)))
	e.logger.Info("build complete", "job_id", jobID, "docs_processed", buildResult.DocsProcessed, "runs", len(buildResult.RunPaths), "lines_skipped", buildResult.LinesSkipped)

	mergeStart := time.Now()
	mergeStats, err := merger.Merge(buildResult.RunPaths, outDir)
	if err != nil {
		return events.IndexReadyEvent{}, fmt.Errorf("merge stage: %w", err)
	}
	e.metrics.MergeDuration.Observe(time.Since(mergeStart).Seconds())
	e.metrics.BlocksWrittenTotal.Add(float64(mergeStats.BlocksWritten))
	e.logger.Info("merge complete", "job_id", jobID, "terms_written", mergeStats.TermsWritten, "blocks_written", mergeStats.BlocksWritten, "runs_consumed", mergeStats.RunsConsumed)

	if err := copyFile(buildResult.PageTablePath, filepath.Join(outDir, "pagetable.tsv")); err != nil {
		return events.IndexReadyEvent{}, fmt.Errorf("publishing page table: %w", err)
	}

	return events.IndexReadyEvent{
		CollectionID:  collectionID,
		JobID:         jobID,
		IndexDir:      outDir,
		DocsIndexed:   buildResult.DocsProcessed,
		TermsIndexed:  mergeStats.TermsWritten,
		BlocksWritten: mergeStats.BlocksWritten,
	}, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
