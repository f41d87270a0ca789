package lexicon_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/threadworksco/strata/pkg/lexicon"
)

var _ = Describe("Matches", func() {
	It("finds phrases regardless of case", func() {
		matches := lexicon.Matches("No, THAT'S WRONG about the schema", lexicon.Correction)
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Phrase).To(Equal("no, that's wrong"))
		Expect(matches[0].Offset).To(Equal(0))
	})

	It("reports each phrase at most once, at its first occurrence", func() {
		matches := lexicon.Matches("always always always", lexicon.Overconfidence)
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Offset).To(Equal(0))
	})

	It("reports multiple distinct phrases", func() {
		matches := lexicon.Matches("this is definitely guaranteed", lexicon.Overconfidence)
		Expect(matches).To(HaveLen(2))
	})

	It("returns nothing when no phrase occurs", func() {
		Expect(lexicon.Matches("an unremarkable sentence", lexicon.Correction)).To(BeEmpty())
	})
})

var _ = Describe("CountMatches", func() {
	It("counts distinct matching phrases", func() {
		n := lexicon.CountMatches("the database query hit the cache", lexicon.Technical)
		Expect(n).To(Equal(3))
	})

	It("returns zero for empty content", func() {
		Expect(lexicon.CountMatches("", lexicon.Technical)).To(BeZero())
	})
})

var _ = Describe("ContainsAny", func() {
	It("detects a single occurrence", func() {
		Expect(lexicon.ContainsAny("Actually, the deadline moved", lexicon.TruthLeadIn)).To(BeTrue())
	})

	It("is case-insensitive", func() {
		Expect(lexicon.ContainsAny("SWITCHING GEARS now", lexicon.SemanticShift)).To(BeTrue())
	})

	It("returns false when nothing matches", func() {
		Expect(lexicon.ContainsAny("plain text", lexicon.Impossible)).To(BeFalse())
	})
})

var _ = Describe("Excerpt", func() {
	It("returns width characters from the offset", func() {
		Expect(lexicon.Excerpt("abcdefghij", 2, 4)).To(Equal("cdef"))
	})

	It("clamps at the end of the content", func() {
		Expect(lexicon.Excerpt("abcde", 3, 10)).To(Equal("de"))
	})

	It("returns empty for an out-of-range offset", func() {
		Expect(lexicon.Excerpt("abc", 5, 2)).To(Equal(""))
		Expect(lexicon.Excerpt("abc", -1, 2)).To(Equal(""))
	})
})
