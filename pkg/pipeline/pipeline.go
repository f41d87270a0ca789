// Package pipeline orchestrates a full archaeology run: threads are
// grouped into fixed-size batches, each batch is analyzed (optionally in
// parallel), guarded by a checkpoint, and committed through the memory
// router. Batches whose aggregate drift breaches the configured limit,
// or whose commit fails, are rolled back when rollback-on-failure is
// enabled.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/threadworksco/strata/pkg/audit"
	"github.com/threadworksco/strata/pkg/checkpoint"
	"github.com/threadworksco/strata/pkg/drift"
	"github.com/threadworksco/strata/pkg/partition"
	"github.com/threadworksco/strata/pkg/router"
	"github.com/threadworksco/strata/pkg/thread"
)

const (
	// DefaultBatchSize is the number of threads per batch.
	DefaultBatchSize = 16

	// DefaultMaxBatchDrift is the aggregate drift limit above which a
	// batch is rolled back instead of committed.
	DefaultMaxBatchDrift = 35.0
)

// Config holds orchestrator tuning and collaborators.
type Config struct {
	Mode Mode

	// BatchSize overrides DefaultBatchSize when > 0.
	BatchSize int

	// MaxBatchDrift overrides DefaultMaxBatchDrift when > 0.
	MaxBatchDrift float64

	// RollbackOnFailure enables the drift-limit rollback policy and
	// undoing of partially committed batches.
	RollbackOnFailure bool

	// Workers sets the analysis parallelism within a batch. Values
	// below 2 analyze sequentially. Commits are always sequential.
	Workers int

	Analyzer    *drift.Analyzer
	Router      *router.Router
	Store       partition.Store
	Checkpoints checkpoint.Store
	Sink        audit.Sink
	Logger      *slog.Logger
}

// Orchestrator drives batches through the pipeline state machine.
type Orchestrator struct {
	cfg Config
}

// New validates the configuration and creates an Orchestrator. A
// committing run requires a partition store and a checkpoint store; a
// dry run needs neither.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeBatch
	}
	if cfg.Analyzer == nil {
		return nil, errors.New("pipeline requires an analyzer")
	}
	if cfg.Router == nil {
		return nil, errors.New("pipeline requires a router")
	}
	if cfg.Mode == ModeBatch {
		if cfg.Store == nil {
			return nil, errors.New("batch mode requires a partition store")
		}
		if cfg.Checkpoints == nil {
			return nil, errors.New("batch mode requires a checkpoint store")
		}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxBatchDrift <= 0 {
		cfg.MaxBatchDrift = DefaultMaxBatchDrift
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Sink == nil {
		cfg.Sink = audit.NewNopSink()
	}

	return &Orchestrator{cfg: cfg}, nil
}

type analysisResult struct {
	thread   *thread.Thread
	profile  *thread.ThreadDriftProfile
	analyses []drift.Analysis
	anchors  []thread.CorrectionAnchor
}

// Run processes all threads in discovery order. Batches are strictly
// ordered: batch N+1 never starts before batch N reaches a terminal
// state. The returned report is populated even when Run returns an
// error; only an unavailable store aborts the run early.
func (o *Orchestrator) Run(ctx context.Context, threads []*thread.Thread) (*Report, error) {
	report := NewReport(o.cfg.Mode)
	report.TotalThreads = len(threads)
	for _, t := range threads {
		report.TotalMessages += len(t.Messages)
	}

	batches := partitionBatches(threads, o.cfg.BatchSize)

	// processed and lastThreadID track the most recent good state: they
	// advance only when a batch completes, so a checkpoint always points
	// at a position that is safe to resume from.
	processed := 0
	lastThreadID := ""

	for _, b := range batches {
		b.Status = BatchProcessing
		o.cfg.Logger.Info("processing batch",
			"batch", b.Number, "threads", len(b.Threads), "mode", o.cfg.Mode)

		analyzeStart := time.Now()
		results := o.analyzeBatch(ctx, b.Threads)
		report.Timings.Analyze += time.Since(analyzeStart)

		b.AggregateDrift = aggregateDrift(results)

		// The checkpoint guards the batch: written after every analysis
		// worker has returned and before any commit.
		if o.cfg.Mode == ModeBatch {
			cp := checkpoint.New(checkpoint.MarkerBatchStart, b.Number, processed, lastThreadID)
			if err := o.cfg.Checkpoints.Append(cp); err != nil {
				b.Status = BatchFailed
				b.Reason = err.Error()
				report.ThreadsFailed += len(b.Threads)
				report.addBatch(b)
				report.finish()
				return report, fmt.Errorf("checkpointing batch %d: %w", b.Number, err)
			}
		}

		if o.cfg.RollbackOnFailure && b.AggregateDrift > o.cfg.MaxBatchDrift {
			b.Status = BatchRolledBack
			b.Reason = fmt.Sprintf("aggregate drift %.1f exceeds limit %.1f",
				b.AggregateDrift, o.cfg.MaxBatchDrift)
			report.ThreadsRolledBack += len(b.Threads)
			report.addBatch(b)

			o.cfg.Logger.Warn("batch rolled back before commit",
				"batch", b.Number, "drift", b.AggregateDrift)
			_ = o.cfg.Sink.Append(ctx, audit.Event{
				Type:        "batch_rolled_back",
				Severity:    audit.SeverityMedium,
				Stage:       audit.StageOrchestrator,
				Description: fmt.Sprintf("batch %d: %s", b.Number, b.Reason),
			})
			continue
		}

		commitStart := time.Now()
		batchRouting := &router.Result{}
		var commitErr error
		for _, r := range results {
			res, err := o.cfg.Router.CommitThread(ctx, r.thread, r.profile, r.analyses, r.anchors)
			if res != nil {
				batchRouting.Add(res)
			}
			if err != nil {
				commitErr = err
				break
			}
		}
		report.Timings.Commit += time.Since(commitStart)

		if commitErr != nil {
			if o.failBatch(ctx, report, b, batchRouting, commitErr, processed, lastThreadID) {
				report.finish()
				return report, commitErr
			}
			continue
		}

		b.Status = BatchCompleted
		report.Routing.Add(batchRouting)
		report.ThreadsCommitted += len(b.Threads)
		for _, r := range results {
			report.TierCounts[r.profile.Tier]++
		}
		report.addBatch(b)

		processed += len(b.Threads)
		lastThreadID = b.Threads[len(b.Threads)-1].ID
	}

	if o.cfg.Mode == ModeBatch && len(batches) > 0 {
		cp := checkpoint.New(checkpoint.MarkerPhaseComplete, len(batches), processed, lastThreadID)
		if err := o.cfg.Checkpoints.Append(cp); err != nil {
			o.cfg.Logger.Error("failed to write final checkpoint", "error", err)
		}
	}

	report.finish()
	return report, nil
}

// failBatch handles a commit error: emergency-stop checkpoint, audit,
// and rollback when enabled. Returns true when the error is fatal and
// the run must abort.
func (o *Orchestrator) failBatch(ctx context.Context, report *Report, b *Batch, routing *router.Result, commitErr error, processed int, lastThreadID string) bool {
	b.Status = BatchFailed
	b.Reason = commitErr.Error()

	o.cfg.Logger.Error("batch commit failed", "batch", b.Number, "error", commitErr)
	_ = o.cfg.Sink.Append(ctx, audit.Event{
		Type:        "batch_failed",
		Severity:    audit.SeverityHigh,
		Stage:       audit.StageOrchestrator,
		Description: fmt.Sprintf("batch %d: %v", b.Number, commitErr),
	})

	if o.cfg.Mode == ModeBatch {
		ecp := checkpoint.New(checkpoint.MarkerEmergencyStop, b.Number, processed, lastThreadID)
		if err := o.cfg.Checkpoints.Append(ecp); err != nil {
			o.cfg.Logger.Error("failed to write emergency checkpoint", "error", err)
		}
	}

	if errors.Is(commitErr, partition.ErrUnavailable) {
		report.ThreadsFailed += len(b.Threads)
		report.addBatch(b)
		return true
	}

	if o.cfg.RollbackOnFailure {
		o.rollbackBatch(ctx, b)
		b.Status = BatchRolledBack
		report.ThreadsRolledBack += len(b.Threads)
		_ = o.cfg.Sink.Append(ctx, audit.Event{
			Type:        "batch_rolled_back",
			Severity:    audit.SeverityMedium,
			Stage:       audit.StageOrchestrator,
			Description: fmt.Sprintf("batch %d rolled back after commit failure", b.Number),
		})
	} else {
		// Partial commits stand when rollback is disabled.
		report.ThreadsFailed += len(b.Threads)
		report.Routing.Add(routing)
	}

	report.addBatch(b)
	return false
}

// rollbackBatch deletes every partition record belonging to the batch's
// threads. Deleting a thread that never committed is a no-op, so the
// whole batch can be swept without tracking commit progress.
func (o *Orchestrator) rollbackBatch(ctx context.Context, b *Batch) {
	for _, t := range b.Threads {
		n, err := o.cfg.Store.DeleteByThread(ctx, t.ID)
		if err != nil {
			o.cfg.Logger.Error("rollback delete failed", "thread_id", t.ID, "error", err)
			continue
		}
		o.cfg.Logger.Debug("rolled back thread", "thread_id", t.ID, "records", n)
	}
}

// analyzeBatch analyzes the batch's threads, fanning out across Workers
// goroutines when configured. Results keep thread order regardless of
// completion order.
func (o *Orchestrator) analyzeBatch(ctx context.Context, threads []*thread.Thread) []analysisResult {
	results := make([]analysisResult, len(threads))

	if o.cfg.Workers < 2 {
		for i, t := range threads {
			results[i] = o.analyzeOne(ctx, t)
		}
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.analyzeOne(ctx, threads[i])
			}
		}()
	}

	for i := range threads {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (o *Orchestrator) analyzeOne(ctx context.Context, t *thread.Thread) analysisResult {
	profile, analyses, anchors := o.cfg.Analyzer.AnalyzeThread(ctx, t)
	return analysisResult{thread: t, profile: profile, analyses: analyses, anchors: anchors}
}

// aggregateDrift is the mean of the batch's thread drift scores.
func aggregateDrift(results []analysisResult) float64 {
	if len(results) == 0 {
		return 0
	}

	sum := 0.0
	for _, r := range results {
		sum += r.profile.OverallDrift
	}
	return sum / float64(len(results))
}
