package thread

import "time"

// CorrectionCategory classifies what kind of prior claim a correction fixes.
type CorrectionCategory string

const (
	CorrectionFactual    CorrectionCategory = "factual"
	CorrectionBehavioral CorrectionCategory = "behavioral"
	CorrectionTechnical  CorrectionCategory = "technical"
	CorrectionStrategic  CorrectionCategory = "strategic"
)

// AnchorConfidence is the fixed confidence assigned to every correction
// anchor. Anchors are always treated as trustworthy ground truth.
const AnchorConfidence = 0.95

// CorrectionAnchor is a derived fact: a user message that explicitly
// corrects a prior assistant claim. Anchors are monotonically appended to
// a side index and never weakened or deleted.
type CorrectionAnchor struct {
	MessageID  string             `json:"message_id"`
	ThreadID   string             `json:"thread_id"`
	Category   CorrectionCategory `json:"category"`
	Excerpt    string             `json:"excerpt"`
	TruthValue string             `json:"truth_value"`
	Confidence float64            `json:"confidence"`
	Timestamp  time.Time          `json:"timestamp"`
}
