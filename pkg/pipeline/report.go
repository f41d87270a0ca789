package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/threadworksco/strata/pkg/router"
	"github.com/threadworksco/strata/pkg/thread"
)

// Timings breaks the run down by pipeline stage.
type Timings struct {
	Analyze time.Duration `json:"analyze_ns"`
	Commit  time.Duration `json:"commit_ns"`
}

// BatchSummary is the per-batch slice of the report.
type BatchSummary struct {
	Number         int         `json:"number"`
	Status         BatchStatus `json:"status"`
	ThreadCount    int         `json:"thread_count"`
	AggregateDrift float64     `json:"aggregate_drift"`
	Reason         string      `json:"reason,omitempty"`
}

// Report is the run summary: thread and message totals, routing counts,
// tier distribution, and the terminal state of every batch.
type Report struct {
	RunID      string    `json:"run_id"`
	Mode       Mode      `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	TotalThreads  int `json:"total_threads"`
	TotalMessages int `json:"total_messages"`

	ThreadsCommitted  int `json:"threads_committed"`
	ThreadsRolledBack int `json:"threads_rolled_back"`
	ThreadsFailed     int `json:"threads_failed"`

	Routing    router.Result                  `json:"routing"`
	TierCounts map[thread.ReliabilityTier]int `json:"tier_counts"`
	Batches    []BatchSummary                 `json:"batches"`
	Timings    Timings                        `json:"timings"`
}

// NewReport starts an empty report for a run.
func NewReport(mode Mode) *Report {
	return &Report{
		RunID:      uuid.NewString(),
		Mode:       mode,
		StartedAt:  time.Now().UTC(),
		TierCounts: make(map[thread.ReliabilityTier]int),
	}
}

func (r *Report) addBatch(b *Batch) {
	r.Batches = append(r.Batches, BatchSummary{
		Number:         b.Number,
		Status:         b.Status,
		ThreadCount:    len(b.Threads),
		AggregateDrift: b.AggregateDrift,
		Reason:         b.Reason,
	})
}

func (r *Report) finish() {
	r.FinishedAt = time.Now().UTC()
}

// Failed reports whether any batch ended in the failed state.
func (r *Report) Failed() bool {
	for _, b := range r.Batches {
		if b.Status == BatchFailed {
			return true
		}
	}
	return false
}

// Summary renders a human-readable digest of the run.
func (r *Report) Summary() string {
	var b strings.Builder

	elapsed := r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)
	fmt.Fprintf(&b, "run %s (%s mode) finished in %s\n", r.RunID, r.Mode, elapsed)
	fmt.Fprintf(&b, "threads: %d total, %d committed, %d rolled back, %d failed\n",
		r.TotalThreads, r.ThreadsCommitted, r.ThreadsRolledBack, r.ThreadsFailed)
	fmt.Fprintf(&b, "messages: %d attempted: %d primary, %d sandbox, %d quarantine, %d rejected, %d not processed\n",
		r.Routing.Attempted, r.Routing.Primary, r.Routing.Sandbox,
		r.Routing.Quarantine, r.Routing.Rejected, r.Routing.NotProcessed)
	fmt.Fprintf(&b, "indexes: %d anchors, %d author entries, %d relevance entries\n",
		r.Routing.Anchors, r.Routing.AuthorEntries, r.Routing.RelevanceEntries)

	for _, bs := range r.Batches {
		fmt.Fprintf(&b, "  batch %d: %s (%d threads, drift %.1f)",
			bs.Number, bs.Status, bs.ThreadCount, bs.AggregateDrift)
		if bs.Reason != "" {
			fmt.Fprintf(&b, ": %s", bs.Reason)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Markdown renders the run digest as a markdown document, for terminal
// display through a markdown renderer.
func (r *Report) Markdown() string {
	var b strings.Builder

	elapsed := r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)
	fmt.Fprintf(&b, "# Run %s\n\n", r.RunID)
	fmt.Fprintf(&b, "Mode `%s`, finished in %s.\n\n", r.Mode, elapsed)

	fmt.Fprintf(&b, "## Threads\n\n")
	fmt.Fprintf(&b, "| Total | Committed | Rolled back | Failed |\n")
	fmt.Fprintf(&b, "|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n",
		r.TotalThreads, r.ThreadsCommitted, r.ThreadsRolledBack, r.ThreadsFailed)

	fmt.Fprintf(&b, "## Messages\n\n")
	fmt.Fprintf(&b, "| Attempted | Primary | Sandbox | Quarantine | Rejected | Not processed |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n",
		r.Routing.Attempted, r.Routing.Primary, r.Routing.Sandbox,
		r.Routing.Quarantine, r.Routing.Rejected, r.Routing.NotProcessed)

	fmt.Fprintf(&b, "Indexes: %d anchors, %d author entries, %d relevance entries.\n\n",
		r.Routing.Anchors, r.Routing.AuthorEntries, r.Routing.RelevanceEntries)

	if len(r.Batches) > 0 {
		fmt.Fprintf(&b, "## Batches\n\n")
		for _, bs := range r.Batches {
			fmt.Fprintf(&b, "- batch %d: **%s** (%d threads, drift %.1f)",
				bs.Number, bs.Status, bs.ThreadCount, bs.AggregateDrift)
			if bs.Reason != "" {
				fmt.Fprintf(&b, ": %s", bs.Reason)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// WriteFile writes the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
