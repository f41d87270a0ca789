package export_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/threadworksco/strata/pkg/export"
	"github.com/threadworksco/strata/pkg/thread"
)

var _ = Describe("ScoreConfidence", func() {
	It("keeps every sub-score and the overall in the 0-100 range", func() {
		samples := []struct {
			role    thread.Role
			content string
		}{
			{thread.RoleUser, "hi"},
			{thread.RoleUser, "No, that's wrong. Actually, the deploy happens on Fridays."},
			{thread.RoleAssistant, "I'm 100% sure. Absolutely certain. Without a doubt. I recall. I remember when we discussed earlier."},
			{thread.RoleAssistant, "It never fails, has zero latency, 100% uptime, cannot crash, and has no bugs."},
			{thread.RoleAssistant, "The database schema uses a covering index so the query hits the cache."},
			{thread.RoleSystem, ""},
		}

		for _, s := range samples {
			score := export.ScoreConfidence(s.role, s.content)
			for _, v := range []float64{
				score.Overall,
				score.SemanticConsistency,
				score.FactualAccuracy,
				score.ToneConsistency,
				score.TechnicalCoherence,
			} {
				Expect(v).To(BeNumerically(">=", 0))
				Expect(v).To(BeNumerically("<=", 100))
			}
		}
	})

	It("flags corrections only in user messages", func() {
		content := "No, that's wrong about the rollout."
		Expect(export.ScoreConfidence(thread.RoleUser, content).CorrectionPresent).To(BeTrue())
		Expect(export.ScoreConfidence(thread.RoleAssistant, content).CorrectionPresent).To(BeFalse())
	})

	It("treats user messages as factual ground truth", func() {
		score := export.ScoreConfidence(thread.RoleUser, "everything always definitely works")
		Expect(score.FactualAccuracy).To(Equal(90.0))
	})

	It("penalizes assistant overconfidence", func() {
		plain := export.ScoreConfidence(thread.RoleAssistant, "the service restarts on deploy")
		confident := export.ScoreConfidence(thread.RoleAssistant, "the service always restarts, guaranteed, definitely")
		Expect(confident.FactualAccuracy).To(BeNumerically("<", plain.FactualAccuracy))
	})

	It("penalizes assistant memory claims in the overall score", func() {
		plain := export.ScoreConfidence(thread.RoleAssistant, "the cache warms up after the first request")
		hallucinated := export.ScoreConfidence(thread.RoleAssistant, "as I mentioned before, you told me the cache warms up, I recall")
		Expect(hallucinated.Overall).To(BeNumerically("<", plain.Overall))
	})

	It("boosts technical coherence for technical vocabulary", func() {
		plain := export.ScoreConfidence(thread.RoleUser, "it was a nice day outside")
		technical := export.ScoreConfidence(thread.RoleUser, "the api returns json from the cache behind the server")
		Expect(technical.TechnicalCoherence).To(BeNumerically(">", plain.TechnicalCoherence))
	})

	It("punishes impossible claims in technical coherence", func() {
		score := export.ScoreConfidence(thread.RoleAssistant, "the database never fails and has 100% uptime with zero latency")
		Expect(score.TechnicalCoherence).To(BeNumerically("<", 60))
	})

	It("gives very short messages a reduced semantic score", func() {
		Expect(export.ScoreConfidence(thread.RoleUser, "ok").SemanticConsistency).To(Equal(50.0))
	})
})

var _ = Describe("ScanMarkers", func() {
	It("finds correction markers with full confidence", func() {
		markers := export.ScanMarkers("No, that's wrong. The cutoff is Thursday.")
		Expect(markers).To(HaveLen(1))
		Expect(markers[0].Type).To(Equal(thread.MarkerCreatorCorrection))
		Expect(markers[0].Offset).To(Equal(0))
		Expect(markers[0].Confidence).To(Equal(1.0))
		Expect(markers[0].Context).To(ContainSubstring("No, that's wrong"))
	})

	It("finds semantic-shift markers with reduced confidence", func() {
		markers := export.ScanMarkers("Anyway, moving on to the budget.")
		Expect(markers).To(HaveLen(1))
		Expect(markers[0].Type).To(Equal(thread.MarkerSemanticShift))
		Expect(markers[0].Confidence).To(Equal(0.7))
	})

	It("finds both marker kinds in one message", func() {
		markers := export.ScanMarkers("That's incorrect. Switching gears, what about caching?")
		Expect(markers).To(HaveLen(2))
	})

	It("returns nothing for unremarkable content", func() {
		Expect(export.ScanMarkers("the meeting went fine")).To(BeEmpty())
	})
})
