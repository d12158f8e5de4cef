package orchestrator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/indexbuild/pipeline/internal/events"
	"github.com/indexbuild/pipeline/pkg/kafka"
	"github.com/indexbuild/pipeline/pkg/resilience"
)

// Consumer wires a Kafka MessageHandler to the Engine: on every
// CollectionReadyEvent it runs a build+merge job, tracks the job's status
// in Postgres, and publishes the outcome back to Kafka.
type Consumer struct {
	engine    *Engine
	jobs      *JobStore
	publisher *kafka.Producer
	logger    *slog.Logger
	retryCfg  resilience.RetryConfig
}

// NewConsumer builds a Consumer from its collaborators.
func NewConsumer(engine *Engine, jobs *JobStore, publisher *kafka.Producer) *Consumer {
	return &Consumer{
		engine:    engine,
		jobs:      jobs,
		publisher: publisher,
		logger:    slog.Default().With("component", "orchestrator-consumer"),
		retryCfg:  resilience.RetryConfig{MaxAttempts: 3},
	}
}

// HandleMessage returns a kafka.MessageHandler that processes one
// CollectionReadyEvent per call.
func (c *Consumer) HandleMessage() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[events.CollectionReadyEvent](value)
		if err != nil {
			c.logger.Error("failed to decode collection-ready event", "error", err, "key", string(key))
			return nil
		}

		jobID := newJobID()
		c.logger.Info("build job accepted", "job_id", jobID, "collection_id", event.CollectionID)

		if err := resilience.Retry(ctx, "create-job", c.retryCfg, func() error {
			return c.jobs.CreateJob(ctx, jobID, event.CollectionID, event.CollectionPath)
		}); err != nil {
			c.logger.Error("failed to record job start, proceeding without tracking", "job_id", jobID, "error", err)
		}

		result, buildErr := c.engine.RunBuildJob(ctx, jobID, event.CollectionID, event.CollectionPath)
		if buildErr != nil {
			c.logger.Error("build job failed", "job_id", jobID, "collection_id", event.CollectionID, "error", buildErr)
			c.markFailedAndPublish(ctx, jobID, event.CollectionID, buildErr)
			return nil
		}

		if err := resilience.Retry(ctx, "mark-job-completed", c.retryCfg, func() error {
			return c.jobs.MarkCompleted(ctx, jobID, result.DocsIndexed, result.TermsIndexed, result.BlocksWritten)
		}); err != nil {
			c.logger.Error("failed to record job completion", "job_id", jobID, "error", err)
		}

		result.CompletedAt = time.Now()
		if err := c.publisher.Publish(ctx, kafka.Event{Key: event.CollectionID, Value: result}); err != nil {
			c.logger.Error("failed to publish index-ready event", "job_id", jobID, "error", err)
		}
		c.logger.Info("build job completed", "job_id", jobID, "collection_id", event.CollectionID, "docs_indexed", result.DocsIndexed)
		return nil
	}
}

func (c *Consumer) markFailedAndPublish(ctx context.Context, jobID, collectionID string, cause error) {
	if err := resilience.Retry(ctx, "mark-job-failed", c.retryCfg, func() error {
		return c.jobs.MarkFailed(ctx, jobID, cause.Error())
	}); err != nil {
		c.logger.Error("failed to record job failure", "job_id", jobID, "error", err)
	}
	failed := events.IndexFailedEvent{
		CollectionID: collectionID,
		JobID:        jobID,
		Reason:       cause.Error(),
		FailedAt:     time.Now(),
	}
	if err := c.publisher.Publish(ctx, kafka.Event{Key: collectionID, Value: failed}); err != nil {
		c.logger.Error("failed to publish index-failed event", "job_id", jobID, "error", err)
	}
}

func newJobID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
