// Package events defines the Kafka message payloads that drive the
// orchestrator: a CollectionReadyEvent triggers a build+merge job, and an
// IndexReadyEvent announces the result to downstream collaborators such as
// a ranker or query-driving service.
package events

import "time"

// CollectionReadyEvent is published by an external ingestion pipeline once
// a TSV-formatted (docID, passage) collection file is fully written and
// ready to be indexed.
type CollectionReadyEvent struct {
	CollectionID   string    `json:"collection_id"`
	CollectionPath string    `json:"collection_path"`
	ReadyAt        time.Time `json:"ready_at"`
}

// IndexReadyEvent is published once a build+merge job completes
// successfully, pointing downstream collaborators at the finished
// index.bin/lexicon.txt/blockMetaData.txt triple.
type IndexReadyEvent struct {
	CollectionID  string    `json:"collection_id"`
	JobID         string    `json:"job_id"`
	IndexDir      string    `json:"index_dir"`
	DocsIndexed   int       `json:"docs_indexed"`
	TermsIndexed  int       `json:"terms_indexed"`
	BlocksWritten int       `json:"blocks_written"`
	CompletedAt   time.Time `json:"completed_at"`
}

// IndexFailedEvent is published when a build+merge job fails, so an
// external collaborator doesn't need to poll Postgres to learn the
// outcome.
type IndexFailedEvent struct {
	CollectionID string    `json:"collection_id"`
	JobID        string    `json:"job_id"`
	Reason       string    `json:"reason"`
	FailedAt     time.Time `json:"failed_at"`
}
