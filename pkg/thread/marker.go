package thread

// MarkerType tags a discrete drift signal found in a message's text.
type MarkerType string

const (
	MarkerCreatorCorrection MarkerType = "creator_correction"
	MarkerSemanticShift     MarkerType = "semantic_shift"
)

// DriftMarker is a discrete signal found in one message's text. Markers
// are owned by the message and created only at parse or analysis time.
type DriftMarker struct {
	Type       MarkerType `json:"type"`
	Offset     int        `json:"offset"`
	Context    string     `json:"context"`
	Confidence float64    `json:"confidence"`
}
