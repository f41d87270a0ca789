package audit_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/threadworksco/strata/pkg/audit"
)

var _ = Describe("ParseVerbosity", func() {
	It("accepts the three known levels", func() {
		for _, s := range []string{"basic", "standard", "comprehensive"} {
			v, ok := audit.ParseVerbosity(s)
			Expect(ok).To(BeTrue())
			Expect(string(v)).To(Equal(s))
		}
	})

	It("rejects unknown levels", func() {
		_, ok := audit.ParseVerbosity("chatty")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("MemorySink", func() {
	var sink *audit.MemorySink

	BeforeEach(func() {
		sink = audit.NewMemorySink()
	})

	It("stamps appended events with monotonic sequence numbers", func() {
		for i := 0; i < 3; i++ {
			err := sink.Append(context.Background(), audit.Event{Type: "decision"})
			Expect(err).ToNot(HaveOccurred())
		}

		events := sink.Events()
		Expect(events).To(HaveLen(3))
		for i, e := range events {
			Expect(e.Seq).To(Equal(uint64(i + 1)))
			Expect(e.SchemaVersion).To(Equal(audit.SchemaVersionV1))
			Expect(e.ID).ToNot(BeEmpty())
			Expect(e.Timestamp).ToNot(BeZero())
		}
	})

	It("preserves a caller-supplied id and timestamp", func() {
		e := audit.Event{ID: "fixed-id"}
		Expect(sink.Append(context.Background(), e)).To(Succeed())
		Expect(sink.Events()[0].ID).To(Equal("fixed-id"))
	})

	It("returns a copy of the event slice", func() {
		Expect(sink.Append(context.Background(), audit.Event{Type: "a"})).To(Succeed())
		events := sink.Events()
		events[0].Type = "mutated"
		Expect(sink.Events()[0].Type).To(Equal("a"))
	})
})

var _ = Describe("JSONLSink", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "audit.jsonl")
	})

	readLines := func() []audit.Event {
		f, err := os.Open(path)
		Expect(err).ToNot(HaveOccurred())
		defer f.Close()

		var events []audit.Event
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var e audit.Event
			Expect(json.Unmarshal(scanner.Bytes(), &e)).To(Succeed())
			events = append(events, e)
		}
		return events
	}

	It("writes one JSON record per line", func() {
		sink, err := audit.NewJSONLSink(path)
		Expect(err).ToNot(HaveOccurred())

		Expect(sink.Append(context.Background(), audit.Event{Type: "first", Severity: audit.SeverityInfo})).To(Succeed())
		Expect(sink.Append(context.Background(), audit.Event{Type: "second", Severity: audit.SeverityHigh})).To(Succeed())
		Expect(sink.Close()).To(Succeed())

		events := readLines()
		Expect(events).To(HaveLen(2))
		Expect(events[0].Type).To(Equal("first"))
		Expect(events[0].Seq).To(Equal(uint64(1)))
		Expect(events[1].Type).To(Equal("second"))
		Expect(events[1].Seq).To(Equal(uint64(2)))
	})

	It("appends across reopens instead of truncating", func() {
		sink, err := audit.NewJSONLSink(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.Append(context.Background(), audit.Event{Type: "run-1"})).To(Succeed())
		Expect(sink.Close()).To(Succeed())

		sink, err = audit.NewJSONLSink(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.Append(context.Background(), audit.Event{Type: "run-2"})).To(Succeed())
		Expect(sink.Close()).To(Succeed())

		Expect(readLines()).To(HaveLen(2))
	})

	It("creates missing parent directories", func() {
		nested := filepath.Join(GinkgoT().TempDir(), "a", "b", "audit.jsonl")
		sink, err := audit.NewJSONLSink(nested)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.Close()).To(Succeed())
	})
})

var _ = Describe("FilterSink", func() {
	var next *audit.MemorySink

	BeforeEach(func() {
		next = audit.NewMemorySink()
	})

	It("drops info events at basic verbosity", func() {
		sink := audit.NewFilterSink(next, audit.VerbosityBasic)

		Expect(sink.Append(context.Background(), audit.Event{Severity: audit.SeverityInfo})).To(Succeed())
		Expect(sink.Append(context.Background(), audit.Event{Severity: audit.SeverityMedium})).To(Succeed())
		Expect(sink.Append(context.Background(), audit.Event{Severity: audit.SeverityHigh})).To(Succeed())

		events := next.Events()
		Expect(events).To(HaveLen(2))
		Expect(events[0].Severity).To(Equal(audit.SeverityMedium))
	})

	It("strips detail at standard verbosity but keeps every event", func() {
		sink := audit.NewFilterSink(next, audit.VerbosityStandard)

		e := audit.Event{Severity: audit.SeverityInfo, Detail: map[string]any{"thread": "t1"}}
		Expect(sink.Append(context.Background(), e)).To(Succeed())

		events := next.Events()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Detail).To(BeNil())
	})

	It("passes detail through at comprehensive verbosity", func() {
		sink := audit.NewFilterSink(next, audit.VerbosityComprehensive)

		e := audit.Event{Severity: audit.SeverityInfo, Detail: map[string]any{"thread": "t1"}}
		Expect(sink.Append(context.Background(), e)).To(Succeed())

		Expect(next.Events()[0].Detail).To(HaveKeyWithValue("thread", "t1"))
	})
})

var _ = Describe("MultiSink", func() {
	It("fans events out to every wrapped sink", func() {
		a := audit.NewMemorySink()
		b := audit.NewMemorySink()
		sink := audit.NewMultiSink(a, b)

		Expect(sink.Append(context.Background(), audit.Event{Type: "fanout"})).To(Succeed())

		Expect(a.Events()).To(HaveLen(1))
		Expect(b.Events()).To(HaveLen(1))
	})
})
