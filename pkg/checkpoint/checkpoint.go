// Package checkpoint persists the rollback checkpoint chain. Checkpoints
// are append-only JSON files written under a single-writer discipline;
// rollback restores processing state to the most recent good checkpoint.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MarkerType tags why a checkpoint was written.
type MarkerType string

const (
	MarkerBatchStart    MarkerType = "batch_start"
	MarkerPhaseComplete MarkerType = "phase_complete"
	MarkerEmergencyStop MarkerType = "emergency_stop"
)

// Checkpoint is an immutable snapshot marker guarding one batch. The
// content hash binds the marker to the pre-batch processing state.
type Checkpoint struct {
	ID               string     `json:"id"`
	Seq              int        `json:"seq"`
	Timestamp        time.Time  `json:"timestamp"`
	Marker           MarkerType `json:"marker"`
	Batch            int        `json:"batch"`
	ProcessedThreads int        `json:"processed_threads"`
	LastThreadID     string     `json:"last_thread_id"`
	ContentHash      string     `json:"content_hash"`
	Location         string     `json:"location"`
}

// New builds an unsaved checkpoint for the given batch state.
func New(marker MarkerType, batch, processed int, lastThreadID string) *Checkpoint {
	cp := &Checkpoint{
		ID:               uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		Marker:           marker,
		Batch:            batch,
		ProcessedThreads: processed,
		LastThreadID:     lastThreadID,
	}
	cp.ContentHash = cp.hash()
	return cp
}

// hash computes the content hash binding the checkpoint to the
// pre-batch state.
func (c *Checkpoint) hash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%s",
		c.Marker, c.Batch, c.ProcessedThreads, c.LastThreadID)))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the content hash and reports whether it matches.
func (c *Checkpoint) Verify() bool {
	return c.ContentHash == c.hash()
}

// Store persists the checkpoint chain.
type Store interface {
	// Append writes a checkpoint to durable storage and links it into
	// the chain. The chain must stay strictly ordered: sequence numbers
	// increase by one and batch numbers never decrease.
	Append(cp *Checkpoint) error

	// Latest returns the most recently appended checkpoint, or nil when
	// the chain is empty.
	Latest() (*Checkpoint, error)

	// List returns the whole chain in append order.
	List() ([]*Checkpoint, error)
}
