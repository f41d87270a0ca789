// Package partition defines the contract the pipeline requires of the
// tiered memory store: idempotent upsert keyed by message id, query by
// partition, and append-only side indexes for correction anchors,
// source-author entries, and subject-relevance entries.
package partition

import (
	"context"
	"time"

	"github.com/threadworksco/strata/pkg/thread"
)

// Record is the unit committed by the memory router. A message belongs
// to exactly one partition at any time; reprocessing may move it.
type Record struct {
	MessageID   string                     `json:"message_id"`
	ThreadID    string                     `json:"thread_id"`
	Destination thread.Destination         `json:"destination"`
	Tier        thread.ReliabilityTier     `json:"tier"`
	Strategy    thread.IntegrationStrategy `json:"strategy"`
	DriftScore  float64                    `json:"drift_score"`
	CommittedAt time.Time                  `json:"committed_at"`
}

// AuthorEntry is one row of the source-author index, created for user
// messages above the confidence bar.
type AuthorEntry struct {
	MessageID  string      `json:"message_id"`
	ThreadID   string      `json:"thread_id"`
	Role       thread.Role `json:"role"`
	Confidence float64     `json:"confidence"`
	CreatedAt  time.Time   `json:"created_at"`
}

// RelevanceEntry is one row of the subject-relevance index, created for
// messages matching a configured keyword.
type RelevanceEntry struct {
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	Keyword   string    `json:"keyword"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists partition records and the derived indexes.
// Implementations must be safe for concurrent use.
type Store interface {
	// Upsert commits a record, keyed by message id. Returns true if the
	// record was newly inserted, false if an existing record was
	// replaced. Re-committing the same message id must never create a
	// duplicate.
	Upsert(ctx context.Context, rec *Record) (bool, error)

	// Get retrieves the record for a message id.
	Get(ctx context.Context, messageID string) (*Record, error)

	// ListByPartition returns all records in a partition.
	ListByPartition(ctx context.Context, dest thread.Destination) ([]*Record, error)

	// DeleteByThread removes every record belonging to a thread and
	// returns the count removed. Used by batch rollback.
	DeleteByThread(ctx context.Context, threadID string) (int, error)

	// Counts returns the number of records per partition.
	Counts(ctx context.Context) (map[thread.Destination]int, error)

	// AddAnchor appends a correction anchor. Anchors only accumulate;
	// appending the same message id again is a no-op, never a weakening.
	AddAnchor(ctx context.Context, anchor *thread.CorrectionAnchor) error

	// ListAnchors returns all accumulated anchors.
	ListAnchors(ctx context.Context) ([]*thread.CorrectionAnchor, error)

	// AddAuthorEntry upserts a source-author index entry.
	AddAuthorEntry(ctx context.Context, entry *AuthorEntry) error

	// AddRelevanceEntry upserts a subject-relevance index entry.
	AddRelevanceEntry(ctx context.Context, entry *RelevanceEntry) error

	// Close releases store resources.
	Close() error
}
