package drift_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/threadworksco/strata/pkg/drift"
	"github.com/threadworksco/strata/pkg/thread"
)

func msg(role thread.Role, content string) thread.Message {
	return thread.Message{Role: role, Content: content}
}

var _ = Describe("Window.LastByRole", func() {
	It("returns the most recent same-role messages in chronological order", func() {
		w := drift.Window{Before: []thread.Message{
			{Role: thread.RoleUser, Content: "u1"},
			{Role: thread.RoleAssistant, Content: "a1"},
			{Role: thread.RoleUser, Content: "u2"},
			{Role: thread.RoleUser, Content: "u3"},
		}}

		out := w.LastByRole(thread.RoleUser, 2)
		Expect(out).To(HaveLen(2))
		Expect(out[0].Content).To(Equal("u2"))
		Expect(out[1].Content).To(Equal("u3"))
	})

	It("returns nothing when no message matches the role", func() {
		w := drift.Window{Before: []thread.Message{{Role: thread.RoleUser, Content: "u1"}}}
		Expect(w.LastByRole(thread.RoleSystem, 3)).To(BeEmpty())
	})
})

var _ = Describe("SemanticDetector", func() {
	detector := &drift.SemanticDetector{}

	It("flags abrupt transitions when assistant context precedes", func() {
		m := msg(thread.RoleUser, "Switching gears, how do I tune the cache?")
		w := drift.Window{Before: []thread.Message{msg(thread.RoleAssistant, "the cache is warm")}}

		obs := detector.Detect(&m, w)
		Expect(obs).To(HaveLen(1))
		Expect(obs[0].Category).To(Equal(drift.PatternSemantic))
		Expect(obs[0].Severity).To(Equal(55.0))
	})

	It("ignores transitions with no prior assistant context", func() {
		m := msg(thread.RoleUser, "Switching gears, how do I tune the cache?")
		Expect(detector.Detect(&m, drift.Window{})).To(BeEmpty())
	})

	It("flags degenerate repetition", func() {
		m := msg(thread.RoleAssistant, strings.Repeat("alpha beta gamma delta ", 3))

		obs := detector.Detect(&m, drift.Window{})
		Expect(obs).To(HaveLen(1))
		Expect(obs[0].Severity).To(Equal(65.0))
		Expect(obs[0].Evidence).To(ContainSubstring("alpha beta gamma delta"))
	})

	It("is quiet on ordinary prose", func() {
		m := msg(thread.RoleAssistant, "the migration finished and the index rebuilt cleanly")
		Expect(detector.Detect(&m, drift.Window{})).To(BeEmpty())
	})
})

var _ = Describe("BehavioralDetector", func() {
	detector := &drift.BehavioralDetector{}

	It("flags excessive limitation statements", func() {
		m := msg(thread.RoleAssistant, "As an AI, I cannot do that. I'm unable to browse.")

		obs := detector.Detect(&m, drift.Window{})
		Expect(obs).To(HaveLen(1))
		Expect(obs[0].Category).To(Equal(drift.PatternBehavioral))
		Expect(obs[0].Severity).To(Equal(45.0))
	})

	It("tolerates one or two limitation statements", func() {
		m := msg(thread.RoleAssistant, "I cannot verify that directly.")
		Expect(detector.Detect(&m, drift.Window{})).To(BeEmpty())
	})

	It("flags a register shift against recent same-role messages", func() {
		m := msg(thread.RoleAssistant, "yeah it's kinda broken, dunno")
		w := drift.Window{Before: []thread.Message{
			msg(thread.RoleAssistant, "Therefore the migration proceeds; moreover the index is rebuilt."),
			msg(thread.RoleAssistant, "Consequently, the service restarts, and furthermore logs rotate."),
		}}

		obs := detector.Detect(&m, w)
		Expect(obs).To(HaveLen(1))
		Expect(obs[0].Severity).To(Equal(50.0))
	})

	It("ignores register when no same-role context exists", func() {
		m := msg(thread.RoleAssistant, "yeah it's kinda broken, dunno")
		w := drift.Window{Before: []thread.Message{msg(thread.RoleUser, "Therefore, proceed.")}}
		Expect(detector.Detect(&m, w)).To(BeEmpty())
	})
})

var _ = Describe("FactualDetector", func() {
	detector := &drift.FactualDetector{}

	It("scales severity with overconfidence count", func() {
		one := msg(thread.RoleAssistant, "it always works")
		three := msg(thread.RoleAssistant, "it always works, guaranteed, definitely")

		obsOne := detector.Detect(&one, drift.Window{})
		obsThree := detector.Detect(&three, drift.Window{})
		Expect(obsOne).To(HaveLen(1))
		Expect(obsOne[0].Severity).To(Equal(45.0))
		Expect(obsThree[0].Severity).To(Equal(75.0))
	})

	It("caps overconfidence severity at ninety", func() {
		m := msg(thread.RoleAssistant, "always never guaranteed certainly definitely absolutely 100% no doubt every time")
		obs := detector.Detect(&m, drift.Window{})
		Expect(obs[0].Severity).To(Equal(90.0))
	})

	It("flags impossible claims about the domain", func() {
		m := msg(thread.RoleAssistant, "the pipeline never fails")

		obs := detector.Detect(&m, drift.Window{})
		severities := make([]float64, 0, len(obs))
		for _, o := range obs {
			severities = append(severities, o.Severity)
		}
		Expect(severities).To(ContainElement(80.0))
	})

	It("does not flag impossible claims outside the domain", func() {
		m := msg(thread.RoleAssistant, "my grandmother's recipe never fails")
		for _, o := range detector.Detect(&m, drift.Window{}) {
			Expect(o.Severity).ToNot(Equal(80.0))
		}
	})
})

var _ = Describe("ToneDetector", func() {
	detector := &drift.ToneDetector{}

	It("flags a sentiment swing against recent same-role messages", func() {
		m := msg(thread.RoleUser, "this is broken and terrible and awful")
		w := drift.Window{Before: []thread.Message{
			msg(thread.RoleUser, "great, that's excellent and perfect"),
			msg(thread.RoleUser, "nice, it works, thanks"),
		}}

		obs := detector.Detect(&m, w)
		Expect(obs).To(HaveLen(1))
		Expect(obs[0].Category).To(Equal(drift.PatternTonal))
		Expect(obs[0].Severity).To(Equal(90.0))
	})

	It("stays quiet without same-role context", func() {
		m := msg(thread.RoleUser, "this is broken and terrible and awful")
		Expect(detector.Detect(&m, drift.Window{})).To(BeEmpty())
	})

	It("stays quiet for a steady tone", func() {
		m := msg(thread.RoleUser, "great, the fix works")
		w := drift.Window{Before: []thread.Message{msg(thread.RoleUser, "excellent, thanks")}}
		Expect(detector.Detect(&m, w)).To(BeEmpty())
	})
})
