package thread

// ConfidenceScore is the parse-time reliability estimate for one message.
// Scores are on a 0-100 scale. Computed once by the parser; the drift
// analyzer reads it but never writes it.
type ConfidenceScore struct {
	Overall             float64 `json:"overall"`
	CorrectionPresent   bool    `json:"correction_present"`
	SemanticConsistency float64 `json:"semantic_consistency"`
	FactualAccuracy     float64 `json:"factual_accuracy"`
	ToneConsistency     float64 `json:"tone_consistency"`
	TechnicalCoherence  float64 `json:"technical_coherence"`
}

// Clamp bounds a score to the [0, 100] range.
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
