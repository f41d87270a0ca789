package router_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/threadworksco/strata/pkg/audit"
	"github.com/threadworksco/strata/pkg/drift"
	"github.com/threadworksco/strata/pkg/partition"
	"github.com/threadworksco/strata/pkg/partition/inmemory"
	"github.com/threadworksco/strata/pkg/router"
	"github.com/threadworksco/strata/pkg/thread"
)

// analyzedThread builds a thread plus per-message analyses with fixed
// destinations, bypassing the analyzer.
func analyzedThread(id string, dests ...thread.Destination) (*thread.Thread, []drift.Analysis) {
	t := &thread.Thread{ID: id}
	analyses := make([]drift.Analysis, 0, len(dests))

	for i, d := range dests {
		msgID := id + "-m" + string(rune('0'+i))
		t.Messages = append(t.Messages, thread.Message{
			ID:       msgID,
			ThreadID: id,
			Role:     thread.RoleUser,
			Content:  "plain content",
			Seq:      i,
			Score:    thread.ConfidenceScore{Overall: 90},
		})
		analyses = append(analyses, drift.Analysis{MessageID: msgID, Seq: i, Destination: d})
	}

	return t, analyses
}

func profileFor(id string, tier thread.ReliabilityTier) *thread.ThreadDriftProfile {
	return &thread.ThreadDriftProfile{
		ThreadID: id,
		Tier:     tier,
		Strategy: thread.StrategyForTier(tier),
	}
}

// failingStore wraps the in-memory store and fails Upsert for chosen
// message ids.
type failingStore struct {
	*inmemory.Store
	failIDs map[string]error
}

func (s *failingStore) Upsert(ctx context.Context, rec *partition.Record) (bool, error) {
	if err, ok := s.failIDs[rec.MessageID]; ok {
		return false, err
	}
	return s.Store.Upsert(ctx, rec)
}

var _ = Describe("Router", func() {
	var (
		ctx   context.Context
		store *inmemory.Store
		sink  *audit.MemorySink
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewStore()
		sink = audit.NewMemorySink()
	})

	newRouter := func(cfg router.Config) *router.Router {
		if cfg.Store == nil && !cfg.DryRun {
			cfg.Store = store
		}
		if cfg.Sink == nil {
			cfg.Sink = sink
		}
		r, err := router.NewRouter(cfg)
		Expect(err).ToNot(HaveOccurred())
		return r
	}

	It("requires a store outside dry-run", func() {
		_, err := router.NewRouter(router.Config{})
		Expect(err).To(HaveOccurred())

		_, err = router.NewRouter(router.Config{DryRun: true})
		Expect(err).ToNot(HaveOccurred())
	})

	It("commits messages to their analyzed destinations", func() {
		r := newRouter(router.Config{})
		t, analyses := analyzedThread("t1",
			thread.DestinationPrimary, thread.DestinationSandbox, thread.DestinationQuarantine)

		res, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierHigh), analyses, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Attempted).To(Equal(3))
		Expect(res.Primary).To(Equal(1))
		Expect(res.Sandbox).To(Equal(1))
		Expect(res.Quarantine).To(Equal(1))
		Expect(res.NotProcessed).To(BeZero())

		counts, err := store.Counts(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(counts[thread.DestinationPrimary]).To(Equal(1))
		Expect(counts[thread.DestinationSandbox]).To(Equal(1))
		Expect(counts[thread.DestinationQuarantine]).To(Equal(1))
	})

	It("conserves message counts across the result buckets", func() {
		r := newRouter(router.Config{})
		t, analyses := analyzedThread("t1",
			thread.DestinationPrimary, thread.DestinationPrimary, thread.DestinationSandbox)

		res, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierHigh), analyses, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Primary + res.Sandbox + res.Quarantine + res.Rejected + res.NotProcessed).
			To(Equal(res.Attempted))
	})

	It("rejects every message of a quarantined thread without touching the store", func() {
		r := newRouter(router.Config{})
		t, analyses := analyzedThread("t1", thread.DestinationPrimary, thread.DestinationPrimary)

		res, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierQuarantine), analyses, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Rejected).To(Equal(2))
		Expect(res.Primary).To(BeZero())

		counts, err := store.Counts(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(counts).To(BeEmpty())

		events := sink.Events()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Type).To(Equal("thread_rejected"))
	})

	It("demotes primary verdicts to the sandbox under sandbox_only", func() {
		r := newRouter(router.Config{})
		t, analyses := analyzedThread("t1", thread.DestinationPrimary, thread.DestinationQuarantine)

		res, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierLow), analyses, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Primary).To(BeZero())
		Expect(res.Sandbox).To(Equal(1))
		Expect(res.Quarantine).To(Equal(1))

		counts, err := store.Counts(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(counts[thread.DestinationPrimary]).To(BeZero())
		Expect(counts[thread.DestinationSandbox]).To(Equal(1))
	})

	It("is idempotent across repeated commits", func() {
		r := newRouter(router.Config{})
		t, analyses := analyzedThread("t1", thread.DestinationPrimary, thread.DestinationSandbox)
		profile := profileFor("t1", thread.TierHigh)

		_, err := r.CommitThread(ctx, t, profile, analyses, nil)
		Expect(err).ToNot(HaveOccurred())
		_, err = r.CommitThread(ctx, t, profile, analyses, nil)
		Expect(err).ToNot(HaveOccurred())

		counts, err := store.Counts(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(counts[thread.DestinationPrimary]).To(Equal(1))
		Expect(counts[thread.DestinationSandbox]).To(Equal(1))
	})

	It("accumulates anchors even for threads that commit nothing new", func() {
		r := newRouter(router.Config{})
		t, analyses := analyzedThread("t1", thread.DestinationPrimary)
		anchors := []thread.CorrectionAnchor{{MessageID: "t1-m0", ThreadID: "t1", Confidence: thread.AnchorConfidence}}

		res, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierHigh), analyses, anchors)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Anchors).To(Equal(1))

		stored, err := store.ListAnchors(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(stored).To(HaveLen(1))
	})

	Describe("derived indexes", func() {
		It("indexes confident user messages as author entries", func() {
			r := newRouter(router.Config{})
			t, analyses := analyzedThread("t1", thread.DestinationPrimary, thread.DestinationPrimary)
			t.Messages[1].Score.Overall = 50

			res, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierHigh), analyses, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.AuthorEntries).To(Equal(1))
			Expect(store.AuthorEntryCount()).To(Equal(1))
		})

		It("indexes keyword matches as relevance entries", func() {
			r := newRouter(router.Config{RelevanceKeywords: []string{"deploy", "cache"}})
			t, analyses := analyzedThread("t1", thread.DestinationPrimary)
			t.Messages[0].Content = "the deploy warmed the cache"

			res, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierHigh), analyses, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.RelevanceEntries).To(Equal(2))
			Expect(store.RelevanceEntryCount()).To(Equal(2))
		})
	})

	Describe("dry-run", func() {
		It("counts outcomes without writing to any store", func() {
			r := newRouter(router.Config{DryRun: true})
			t, analyses := analyzedThread("t1", thread.DestinationPrimary, thread.DestinationSandbox)
			anchors := []thread.CorrectionAnchor{{MessageID: "t1-m0"}}

			res, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierHigh), analyses, anchors)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Primary).To(Equal(1))
			Expect(res.Sandbox).To(Equal(1))
			Expect(res.Anchors).To(Equal(1))
		})
	})

	Describe("storage failures", func() {
		It("counts per-message failures as not processed and keeps going", func() {
			failing := &failingStore{
				Store:   store,
				failIDs: map[string]error{"t1-m0": errors.New("disk full")},
			}
			r := newRouter(router.Config{Store: failing})
			t, analyses := analyzedThread("t1", thread.DestinationPrimary, thread.DestinationPrimary)

			res, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierHigh), analyses, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.NotProcessed).To(Equal(1))
			Expect(res.Primary).To(Equal(1))
		})

		It("aborts the thread when the store is unavailable", func() {
			failing := &failingStore{
				Store:   store,
				failIDs: map[string]error{"t1-m0": partition.ErrUnavailable},
			}
			r := newRouter(router.Config{Store: failing})
			t, analyses := analyzedThread("t1", thread.DestinationPrimary, thread.DestinationPrimary)

			_, err := r.CommitThread(ctx, t, profileFor("t1", thread.TierHigh), analyses, nil)
			Expect(err).To(MatchError(partition.ErrUnavailable))
		})
	})
})
