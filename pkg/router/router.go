// Package router commits analyzed messages to the tiered memory
// partitions, honoring each thread's integration strategy, and maintains
// the source-author and subject-relevance derived indexes.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/threadworksco/strata/pkg/audit"
	"github.com/threadworksco/strata/pkg/drift"
	"github.com/threadworksco/strata/pkg/lexicon"
	"github.com/threadworksco/strata/pkg/partition"
	"github.com/threadworksco/strata/pkg/thread"
)

// DefaultAuthorConfidenceBar is the minimum confidence for a user
// message to enter the source-author index.
const DefaultAuthorConfidenceBar = 70.0

// Config holds router tuning and collaborators.
type Config struct {
	Store partition.Store
	Sink  audit.Sink
	Logger *slog.Logger

	// AuthorConfidenceBar overrides DefaultAuthorConfidenceBar when > 0.
	AuthorConfidenceBar float64

	// RelevanceKeywords drive the subject-relevance index. Empty
	// disables the index.
	RelevanceKeywords []string

	// DryRun simulates commits without touching the store.
	DryRun bool
}

// Result aggregates one thread's commit outcome. NotProcessed counts
// messages whose storage write failed; callers compare it against
// Attempted to detect partial failure.
type Result struct {
	Attempted        int
	Primary          int
	Sandbox          int
	Quarantine       int
	Rejected         int
	NotProcessed     int
	AuthorEntries    int
	RelevanceEntries int
	Anchors          int
}

// Add accumulates another result into r.
func (r *Result) Add(other *Result) {
	r.Attempted += other.Attempted
	r.Primary += other.Primary
	r.Sandbox += other.Sandbox
	r.Quarantine += other.Quarantine
	r.Rejected += other.Rejected
	r.NotProcessed += other.NotProcessed
	r.AuthorEntries += other.AuthorEntries
	r.RelevanceEntries += other.RelevanceEntries
	r.Anchors += other.Anchors
}

// Router routes messages into partitions.
type Router struct {
	cfg Config
}

// NewRouter creates a Router. The store is required unless DryRun is set.
func NewRouter(cfg Config) (*Router, error) {
	if cfg.Store == nil && !cfg.DryRun {
		return nil, errors.New("router requires a partition store")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Sink == nil {
		cfg.Sink = audit.NewNopSink()
	}
	if cfg.AuthorConfidenceBar <= 0 {
		cfg.AuthorConfidenceBar = DefaultAuthorConfidenceBar
	}

	return &Router{cfg: cfg}, nil
}

// CommitThread commits one analyzed thread. Per-message storage failures
// are logged and counted but do not halt the thread; only a store marked
// unavailable aborts with an error.
//
// The integration strategy gates destinations: reject commits nothing,
// sandbox_only demotes primary verdicts to the sandbox, filtered and
// full follow the per-message destination.
func (r *Router) CommitThread(ctx context.Context, t *thread.Thread, profile *thread.ThreadDriftProfile, analyses []drift.Analysis, anchors []thread.CorrectionAnchor) (*Result, error) {
	res := &Result{Attempted: len(t.Messages)}

	if profile.Strategy == thread.StrategyReject {
		res.Rejected = len(t.Messages)
		_ = r.cfg.Sink.Append(ctx, audit.Event{
			Type:        "thread_rejected",
			Severity:    audit.SeverityMedium,
			Stage:       audit.StageRouter,
			Description: fmt.Sprintf("thread %s rejected by %s strategy", t.ID, profile.Strategy),
		})
		return res, nil
	}

	// Anchors are derived facts and accumulate regardless of how the
	// thread itself is routed.
	for i := range anchors {
		if r.cfg.DryRun {
			res.Anchors++
			continue
		}
		if err := r.cfg.Store.AddAnchor(ctx, &anchors[i]); err != nil {
			r.cfg.Logger.Error("failed to append anchor",
				"message_id", anchors[i].MessageID, "error", err)
			continue
		}
		res.Anchors++
	}

	now := time.Now().UTC()

	for i := range t.Messages {
		msg := &t.Messages[i]
		dest := analyses[i].Destination

		if profile.Strategy == thread.StrategySandboxOnly && dest == thread.DestinationPrimary {
			dest = thread.DestinationSandbox
		}

		rec := &partition.Record{
			MessageID:   msg.ID,
			ThreadID:    t.ID,
			Destination: dest,
			Tier:        profile.Tier,
			Strategy:    profile.Strategy,
			DriftScore:  analyses[i].Score,
			CommittedAt: now,
		}

		if !r.cfg.DryRun {
			if _, err := r.cfg.Store.Upsert(ctx, rec); err != nil {
				if errors.Is(err, partition.ErrUnavailable) {
					return res, err
				}

				res.NotProcessed++
				r.cfg.Logger.Error("failed to commit message",
					"message_id", msg.ID, "destination", dest, "error", err)
				_ = r.cfg.Sink.Append(ctx, audit.Event{
					Type:        "commit_failed",
					Severity:    audit.SeverityHigh,
					Stage:       audit.StageRouter,
					Description: fmt.Sprintf("message %s not processed: %v", msg.ID, err),
				})
				continue
			}
		}

		switch dest {
		case thread.DestinationPrimary:
			res.Primary++
		case thread.DestinationSandbox:
			res.Sandbox++
		case thread.DestinationQuarantine:
			res.Quarantine++
		}

		r.index(ctx, msg, res, now)
	}

	_ = r.cfg.Sink.Append(ctx, audit.Event{
		Type:        "thread_committed",
		Severity:    audit.SeverityInfo,
		Stage:       audit.StageRouter,
		Description: fmt.Sprintf("thread %s committed (%d/%d processed)", t.ID, res.Attempted-res.NotProcessed, res.Attempted),
		Detail: map[string]any{
			"thread_id":  t.ID,
			"primary":    res.Primary,
			"sandbox":    res.Sandbox,
			"quarantine": res.Quarantine,
		},
	})

	return res, nil
}

// index maintains the derived collections for one committed message.
// Index write failures are logged but never fail the commit.
func (r *Router) index(ctx context.Context, msg *thread.Message, res *Result, now time.Time) {
	if msg.Role == thread.RoleUser && msg.Score.Overall >= r.cfg.AuthorConfidenceBar {
		if r.cfg.DryRun {
			res.AuthorEntries++
		} else {
			entry := &partition.AuthorEntry{
				MessageID:  msg.ID,
				ThreadID:   msg.ThreadID,
				Role:       msg.Role,
				Confidence: msg.Score.Overall,
				CreatedAt:  now,
			}
			if err := r.cfg.Store.AddAuthorEntry(ctx, entry); err != nil {
				r.cfg.Logger.Warn("failed to index author entry",
					"message_id", msg.ID, "error", err)
			} else {
				res.AuthorEntries++
			}
		}
	}

	for _, kw := range r.cfg.RelevanceKeywords {
		if !lexicon.ContainsAny(msg.Content, []string{kw}) {
			continue
		}

		if r.cfg.DryRun {
			res.RelevanceEntries++
			continue
		}

		entry := &partition.RelevanceEntry{
			MessageID: msg.ID,
			ThreadID:  msg.ThreadID,
			Keyword:   kw,
			CreatedAt: now,
		}
		if err := r.cfg.Store.AddRelevanceEntry(ctx, entry); err != nil {
			r.cfg.Logger.Warn("failed to index relevance entry",
				"message_id", msg.ID, "keyword", kw, "error", err)
			continue
		}
		res.RelevanceEntries++
	}
}
