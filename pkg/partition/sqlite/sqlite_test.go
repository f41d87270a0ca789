package sqlite_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/threadworksco/strata/pkg/partition"
	"github.com/threadworksco/strata/pkg/partition/sqlite"
	"github.com/threadworksco/strata/pkg/thread"
)

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *sqlite.Store
	)

	record := func(msgID, threadID string, dest thread.Destination) *partition.Record {
		return &partition.Record{
			MessageID:   msgID,
			ThreadID:    threadID,
			Destination: dest,
			Tier:        thread.TierHigh,
			Strategy:    thread.StrategyFull,
			DriftScore:  12.5,
			CommittedAt: time.Now().UTC(),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		store, err = sqlite.NewStore(filepath.Join(GinkgoT().TempDir(), "partitions.db"))
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("round-trips a record", func() {
		inserted, err := store.Upsert(ctx, record("m1", "t1", thread.DestinationPrimary))
		Expect(err).ToNot(HaveOccurred())
		Expect(inserted).To(BeTrue())

		rec, err := store.Get(ctx, "m1")
		Expect(err).ToNot(HaveOccurred())
		Expect(rec.ThreadID).To(Equal("t1"))
		Expect(rec.Destination).To(Equal(thread.DestinationPrimary))
		Expect(rec.DriftScore).To(Equal(12.5))
	})

	It("replaces on re-commit without duplicating", func() {
		_, err := store.Upsert(ctx, record("m1", "t1", thread.DestinationPrimary))
		Expect(err).ToNot(HaveOccurred())

		inserted, err := store.Upsert(ctx, record("m1", "t1", thread.DestinationSandbox))
		Expect(err).ToNot(HaveOccurred())
		Expect(inserted).To(BeFalse())

		counts, err := store.Counts(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(counts[thread.DestinationPrimary]).To(BeZero())
		Expect(counts[thread.DestinationSandbox]).To(Equal(1))
	})

	It("returns a typed not-found error", func() {
		_, err := store.Get(ctx, "missing")
		Expect(err).To(BeAssignableToTypeOf(partition.NotFoundError{}))
	})

	It("deletes by thread for rollback", func() {
		_, err := store.Upsert(ctx, record("m1", "t1", thread.DestinationPrimary))
		Expect(err).ToNot(HaveOccurred())
		_, err = store.Upsert(ctx, record("m2", "t1", thread.DestinationSandbox))
		Expect(err).ToNot(HaveOccurred())
		_, err = store.Upsert(ctx, record("m3", "t2", thread.DestinationPrimary))
		Expect(err).ToNot(HaveOccurred())

		removed, err := store.DeleteByThread(ctx, "t1")
		Expect(err).ToNot(HaveOccurred())
		Expect(removed).To(Equal(2))

		counts, err := store.Counts(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(counts[thread.DestinationPrimary]).To(Equal(1))
	})

	It("accumulates anchors without weakening them", func() {
		anchor := &thread.CorrectionAnchor{
			MessageID:  "m1",
			ThreadID:   "t1",
			Category:   thread.CorrectionFactual,
			Excerpt:    "no, that's wrong",
			TruthValue: "the cutoff is Thursday",
			Confidence: thread.AnchorConfidence,
			Timestamp:  time.Now().UTC(),
		}
		Expect(store.AddAnchor(ctx, anchor)).To(Succeed())

		weaker := *anchor
		weaker.Confidence = 0.1
		Expect(store.AddAnchor(ctx, &weaker)).To(Succeed())

		anchors, err := store.ListAnchors(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(anchors).To(HaveLen(1))
		Expect(anchors[0].Confidence).To(Equal(thread.AnchorConfidence))
	})

	It("lists a partition's records", func() {
		_, err := store.Upsert(ctx, record("m1", "t1", thread.DestinationQuarantine))
		Expect(err).ToNot(HaveOccurred())
		_, err = store.Upsert(ctx, record("m2", "t1", thread.DestinationPrimary))
		Expect(err).ToNot(HaveOccurred())

		quarantined, err := store.ListByPartition(ctx, thread.DestinationQuarantine)
		Expect(err).ToNot(HaveOccurred())
		Expect(quarantined).To(HaveLen(1))
		Expect(quarantined[0].MessageID).To(Equal("m1"))
	})

	It("maintains the derived indexes", func() {
		Expect(store.AddAuthorEntry(ctx, &partition.AuthorEntry{
			MessageID: "m1", ThreadID: "t1", Role: thread.RoleUser, Confidence: 88, CreatedAt: time.Now().UTC(),
		})).To(Succeed())
		Expect(store.AddAuthorEntry(ctx, &partition.AuthorEntry{
			MessageID: "m1", ThreadID: "t1", Role: thread.RoleUser, Confidence: 90, CreatedAt: time.Now().UTC(),
		})).To(Succeed())

		Expect(store.AddRelevanceEntry(ctx, &partition.RelevanceEntry{
			MessageID: "m1", ThreadID: "t1", Keyword: "cache", CreatedAt: time.Now().UTC(),
		})).To(Succeed())
		Expect(store.AddRelevanceEntry(ctx, &partition.RelevanceEntry{
			MessageID: "m1", ThreadID: "t1", Keyword: "cache", CreatedAt: time.Now().UTC(),
		})).To(Succeed())
	})
})
