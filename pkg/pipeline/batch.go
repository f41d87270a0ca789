package pipeline

import "github.com/threadworksco/strata/pkg/thread"

// Mode selects between committing results and simulating the run.
type Mode string

const (
	ModeBatch  Mode = "batch"
	ModeDryRun Mode = "dry_run"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeBatch, ModeDryRun:
		return Mode(s), true
	default:
		return "", false
	}
}

// BatchStatus is the batch state machine: pending, then processing,
// then one of completed, failed, or rolled_back. A failed batch may
// move to rolled_back when rollback-on-failure is set; nothing ever
// returns to pending.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchRolledBack BatchStatus = "rolled_back"
)

// Batch is one fixed-size group of threads processed as a unit. The
// batch is the smallest unit of abortion: there is no mid-batch
// cancellation.
type Batch struct {
	Number         int
	Threads        []*thread.Thread
	Status         BatchStatus
	AggregateDrift float64
	Reason         string
}

// partitionBatches splits threads into fixed-size batches preserving
// discovery order.
func partitionBatches(threads []*thread.Thread, size int) []*Batch {
	var batches []*Batch
	for i := 0; i < len(threads); i += size {
		end := min(i+size, len(threads))
		batches = append(batches, &Batch{
			Number:  len(batches) + 1,
			Threads: threads[i:end],
			Status:  BatchPending,
		})
	}
	return batches
}
