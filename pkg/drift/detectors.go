package drift

import (
	"fmt"
	"strings"

	"github.com/threadworksco/strata/pkg/lexicon"
	"github.com/threadworksco/strata/pkg/thread"
)

const (
	abruptShiftSeverity    = 55.0
	repetitionSeverity     = 65.0
	limitationSeverity     = 45.0
	formalityShiftSeverity = 50.0
	impossibleSeverity     = 80.0

	formalityShiftThreshold = 0.4
	sentimentShiftThreshold = 0.3
	limitationFlagCount     = 2

	repetitionGramSize = 4
	repetitionMinCount = 3
)

// SemanticDetector flags abrupt-transition phrasing relative to recent
// assistant context and degenerate repeated-substring patterns.
type SemanticDetector struct{}

func (d *SemanticDetector) Name() string { return "semantic_inconsistency" }

func (d *SemanticDetector) Detect(msg *thread.Message, w Window) []PatternObservation {
	var obs []PatternObservation

	if lexicon.ContainsAny(msg.Content, lexicon.SemanticShift) &&
		len(w.LastByRole(thread.RoleAssistant, 3)) > 0 {
		obs = append(obs, PatternObservation{
			Category: PatternSemantic,
			Detector: d.Name(),
			Severity: abruptShiftSeverity,
			Evidence: "abrupt transition phrasing",
		})
	}

	if gram, n := repeatedGram(msg.Content); n >= repetitionMinCount {
		obs = append(obs, PatternObservation{
			Category: PatternSemantic,
			Detector: d.Name(),
			Severity: repetitionSeverity,
			Evidence: fmt.Sprintf("repeated phrase %q (%d times)", gram, n),
		})
	}

	return obs
}

// repeatedGram finds the most repeated word n-gram in content.
func repeatedGram(content string) (string, int) {
	words := strings.Fields(strings.ToLower(content))
	if len(words) < repetitionGramSize*2 {
		return "", 0
	}

	counts := make(map[string]int)
	best, bestN := "", 0
	for i := 0; i+repetitionGramSize <= len(words); i++ {
		gram := strings.Join(words[i:i+repetitionGramSize], " ")
		counts[gram]++
		if counts[gram] > bestN {
			best, bestN = gram, counts[gram]
		}
	}

	return best, bestN
}

// BehavioralDetector flags excessive self-referential limitation
// phrasing and divergence from the recent formality register of
// same-role messages.
type BehavioralDetector struct{}

func (d *BehavioralDetector) Name() string { return "behavioral_shift" }

func (d *BehavioralDetector) Detect(msg *thread.Message, w Window) []PatternObservation {
	var obs []PatternObservation

	if n := lexicon.CountMatches(msg.Content, lexicon.Limitation); n > limitationFlagCount {
		obs = append(obs, PatternObservation{
			Category: PatternBehavioral,
			Detector: d.Name(),
			Severity: limitationSeverity,
			Evidence: fmt.Sprintf("%d limitation statements", n),
		})
	}

	prior := w.LastByRole(msg.Role, 3)
	if len(prior) > 0 {
		mean := 0.0
		for _, m := range prior {
			mean += formality(m.Content)
		}
		mean /= float64(len(prior))

		if diff := formality(msg.Content) - mean; diff > formalityShiftThreshold || diff < -formalityShiftThreshold {
			obs = append(obs, PatternObservation{
				Category: PatternBehavioral,
				Detector: d.Name(),
				Severity: formalityShiftSeverity,
				Evidence: fmt.Sprintf("formality diverged %.2f from recent %s messages", diff, msg.Role),
			})
		}
	}

	return obs
}

// formality scores a message's register on a -1..1 scale from the
// balance of formal and informal markers.
func formality(content string) float64 {
	f := lexicon.CountMatches(content, lexicon.Formal)
	i := lexicon.CountMatches(content, lexicon.Informal)
	if f+i == 0 {
		return 0
	}
	return float64(f-i) / float64(f+i)
}

// FactualDetector scores overconfidence phrasing and flags impossible
// absolute claims made about the system's own domain.
type FactualDetector struct{}

func (d *FactualDetector) Name() string { return "factual_contradiction" }

func (d *FactualDetector) Detect(msg *thread.Message, _ Window) []PatternObservation {
	var obs []PatternObservation

	if n := lexicon.CountMatches(msg.Content, lexicon.Overconfidence); n > 0 {
		obs = append(obs, PatternObservation{
			Category: PatternFactual,
			Detector: d.Name(),
			Severity: min(30+float64(n)*15, 90),
			Evidence: fmt.Sprintf("%d overconfidence phrases", n),
		})
	}

	if lexicon.ContainsAny(msg.Content, lexicon.Impossible) &&
		lexicon.ContainsAny(msg.Content, lexicon.Domain) {
		obs = append(obs, PatternObservation{
			Category: PatternFactual,
			Detector: d.Name(),
			Severity: impossibleSeverity,
			Evidence: "impossible claim about domain behavior",
		})
	}

	return obs
}

// ToneDetector compares the message's lexical sentiment ratio against
// the mean of the last five same-role messages.
type ToneDetector struct{}

func (d *ToneDetector) Name() string { return "tone_drift" }

func (d *ToneDetector) Detect(msg *thread.Message, w Window) []PatternObservation {
	prior := w.LastByRole(msg.Role, 5)
	if len(prior) == 0 {
		return nil
	}

	mean := 0.0
	for _, m := range prior {
		mean += sentiment(m.Content)
	}
	mean /= float64(len(prior))

	diff := sentiment(msg.Content) - mean
	if diff < sentimentShiftThreshold && diff > -sentimentShiftThreshold {
		return nil
	}

	return []PatternObservation{{
		Category: PatternTonal,
		Detector: d.Name(),
		Severity: min(40+abs(diff)*40, 90),
		Evidence: fmt.Sprintf("sentiment shifted %.2f from recent %s messages", diff, msg.Role),
	}}
}

// sentiment scores lexical positive/negative balance on a -1..1 scale.
func sentiment(content string) float64 {
	p := lexicon.CountMatches(content, lexicon.Positive)
	n := lexicon.CountMatches(content, lexicon.Negative)
	if p+n == 0 {
		return 0
	}
	return float64(p-n) / float64(p+n)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
