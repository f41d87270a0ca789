package drift

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/threadworksco/strata/pkg/audit"
	"github.com/threadworksco/strata/pkg/thread"
)

const (
	// DefaultWindowSize is the total size of the symmetric context
	// window: half before the message, half after.
	DefaultWindowSize = 10

	// DefaultConfidenceThreshold is the confidence bar for routing a
	// low-drift message to the primary partition.
	DefaultConfidenceThreshold = 75.0

	// correctionProximity is how many sequence positions away an
	// explicit correction still overrides the drift verdict.
	correctionProximity = 2

	// correctionOverrideConfidence is the minimum confidence for the
	// correction override to apply.
	correctionOverrideConfidence = 60.0
)

// Config holds analyzer tuning and collaborators. Zero values fall back
// to the defaults above.
type Config struct {
	WindowSize          int
	ConfidenceThreshold float64
	Detectors           []Detector
	Logger              *slog.Logger
	Sink                audit.Sink
}

// Analysis is the per-message drift verdict.
type Analysis struct {
	MessageID    string               `json:"message_id"`
	Seq          int                  `json:"seq"`
	Score        float64              `json:"drift_score"`
	Observations []PatternObservation `json:"observations,omitempty"`
	Destination  thread.Destination   `json:"destination"`
}

// Analyzer runs the detector set over each message of a thread and
// aggregates the results into a thread drift profile. It reads parse-time
// confidence scores but never mutates them.
type Analyzer struct {
	windowSize int
	threshold  float64
	detectors  []Detector
	logger     *slog.Logger
	sink       audit.Sink
}

// NewAnalyzer creates an Analyzer with the given configuration.
func NewAnalyzer(cfg Config) *Analyzer {
	a := &Analyzer{
		windowSize: cfg.WindowSize,
		threshold:  cfg.ConfidenceThreshold,
		detectors:  cfg.Detectors,
		logger:     cfg.Logger,
		sink:       cfg.Sink,
	}

	if a.windowSize <= 0 {
		a.windowSize = DefaultWindowSize
	}
	if a.threshold <= 0 {
		a.threshold = DefaultConfidenceThreshold
	}
	if len(a.detectors) == 0 {
		a.detectors = DefaultDetectors()
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	if a.sink == nil {
		a.sink = audit.NewNopSink()
	}

	return a
}

// AnalyzeMessage scores the message at idx against its context window and
// decides its suggested memory destination.
func (a *Analyzer) AnalyzeMessage(t *thread.Thread, idx int) Analysis {
	msg := &t.Messages[idx]
	window := a.window(t, idx)

	var obs []PatternObservation
	for _, d := range a.detectors {
		obs = append(obs, d.Detect(msg, window)...)
	}

	score := 0.0
	if len(obs) > 0 {
		for _, o := range obs {
			score += o.Severity
		}
		score /= float64(len(obs))
		score += max(0, (100-msg.Score.Overall)*0.3)
		score = thread.Clamp(score)
	}

	return Analysis{
		MessageID:    msg.ID,
		Seq:          msg.Seq,
		Score:        score,
		Observations: obs,
		Destination:  a.destination(t, msg, score),
	}
}

// AnalyzeThread analyzes every message, extracts correction anchors from
// user messages, and aggregates the thread drift profile.
func (a *Analyzer) AnalyzeThread(ctx context.Context, t *thread.Thread) (*thread.ThreadDriftProfile, []Analysis, []thread.CorrectionAnchor) {
	analyses := make([]Analysis, 0, len(t.Messages))
	var anchors []thread.CorrectionAnchor

	for i := range t.Messages {
		analyses = append(analyses, a.AnalyzeMessage(t, i))

		if anchor, ok := ExtractAnchor(&t.Messages[i]); ok {
			anchors = append(anchors, anchor)
		}
	}

	profile := a.aggregate(t, analyses, len(anchors))

	a.logger.Debug("thread analyzed",
		"thread_id", t.ID,
		"drift", profile.OverallDrift,
		"tier", profile.Tier,
		"anchors", len(anchors),
	)
	_ = a.sink.Append(ctx, audit.Event{
		Type:        "thread_analyzed",
		Severity:    audit.SeverityInfo,
		Stage:       audit.StageAnalyzer,
		Description: fmt.Sprintf("thread %s: drift %.1f, tier %s", t.ID, profile.OverallDrift, profile.Tier),
		Detail: map[string]any{
			"thread_id": t.ID,
			"drift":     profile.OverallDrift,
			"tier":      string(profile.Tier),
			"strategy":  string(profile.Strategy),
			"anchors":   len(anchors),
		},
	})

	return profile, analyses, anchors
}

// window builds the symmetric context window around idx.
func (a *Analyzer) window(t *thread.Thread, idx int) Window {
	half := a.windowSize / 2
	lo := max(idx-half, 0)
	hi := min(idx+half+1, len(t.Messages))

	return Window{
		Before: t.Messages[lo:idx],
		After:  t.Messages[idx+1 : hi],
	}
}

// destination applies the routing priority ladder:
//
//  1. explicit correction within ±2 positions and confidence ≥ 60 wins
//  2. high confidence and low drift go primary
//  3. moderate confidence and drift go to the sandbox
//  4. everything else is quarantined
func (a *Analyzer) destination(t *thread.Thread, msg *thread.Message, score float64) thread.Destination {
	if msg.Score.Overall >= correctionOverrideConfidence && a.correctionNearby(t, msg.Seq) {
		return thread.DestinationPrimary
	}

	switch {
	case msg.Score.Overall >= a.threshold && score < 30:
		return thread.DestinationPrimary
	case msg.Score.Overall >= 50 && score < 70:
		return thread.DestinationSandbox
	default:
		return thread.DestinationQuarantine
	}
}

// correctionNearby reports whether a user correction exists within
// ±correctionProximity sequence positions of seq.
func (a *Analyzer) correctionNearby(t *thread.Thread, seq int) bool {
	lo := max(seq-correctionProximity, 0)
	hi := min(seq+correctionProximity, len(t.Messages)-1)

	for i := lo; i <= hi; i++ {
		if t.Messages[i].Score.CorrectionPresent {
			return true
		}
	}
	return false
}
