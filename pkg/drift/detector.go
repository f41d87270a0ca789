// Package drift detects behavioral and semantic drift across a
// conversation. Detection is a set of named, pure pattern detectors the
// analyzer iterates; each detector scores one message against a bounded
// window of surrounding context. The detectors are heuristic pattern
// scorers, not models, and can be swapped without touching aggregation.
package drift

import "github.com/threadworksco/strata/pkg/thread"

// PatternCategory buckets drift observations for the thread histogram.
type PatternCategory string

const (
	PatternSemantic   PatternCategory = "semantic"
	PatternBehavioral PatternCategory = "behavioral"
	PatternFactual    PatternCategory = "factual"
	PatternTonal      PatternCategory = "tonal"
)

// PatternObservation is one triggered drift pattern with a severity on a
// 0-100 scale.
type PatternObservation struct {
	Category PatternCategory `json:"category"`
	Detector string          `json:"detector"`
	Severity float64         `json:"severity"`
	Evidence string          `json:"evidence,omitempty"`
}

// Window is the bounded context around one message: the surrounding
// messages split into those before and after it, in thread order.
type Window struct {
	Before []thread.Message
	After  []thread.Message
}

// LastByRole returns up to n of the most recent messages before the
// current one with the given role, oldest first.
func (w Window) LastByRole(role thread.Role, n int) []thread.Message {
	var out []thread.Message
	for i := len(w.Before) - 1; i >= 0 && len(out) < n; i-- {
		if w.Before[i].Role == role {
			out = append(out, w.Before[i])
		}
	}

	// Reverse back into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Detector is a named, pure drift-pattern scorer. Detect must not mutate
// the message or window and must not fail on well-formed parsed input.
type Detector interface {
	Name() string
	Detect(msg *thread.Message, w Window) []PatternObservation
}

// DefaultDetectors returns the standard detector set: semantic
// inconsistency, behavioral shift, factual contradiction, and tone drift.
func DefaultDetectors() []Detector {
	return []Detector{
		&SemanticDetector{},
		&BehavioralDetector{},
		&FactualDetector{},
		&ToneDetector{},
	}
}
