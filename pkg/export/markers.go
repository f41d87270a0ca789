package export

import (
	"github.com/threadworksco/strata/pkg/lexicon"
	"github.com/threadworksco/strata/pkg/thread"
)

const markerContextWidth = 80

// Marker confidences are fixed per type: explicit corrections are
// certain, semantic-shift phrasing is suggestive.
const (
	correctionMarkerConfidence = 1.0
	shiftMarkerConfidence      = 0.7
)

// ScanMarkers finds parse-time drift markers in message content:
// correction phrasing and abrupt-transition phrasing. The matched span's
// surrounding text is kept as context.
func ScanMarkers(content string) []thread.DriftMarker {
	var markers []thread.DriftMarker

	for _, m := range lexicon.Matches(content, lexicon.Correction) {
		markers = append(markers, thread.DriftMarker{
			Type:       thread.MarkerCreatorCorrection,
			Offset:     m.Offset,
			Context:    lexicon.Excerpt(content, m.Offset, markerContextWidth),
			Confidence: correctionMarkerConfidence,
		})
	}

	for _, m := range lexicon.Matches(content, lexicon.SemanticShift) {
		markers = append(markers, thread.DriftMarker{
			Type:       thread.MarkerSemanticShift,
			Offset:     m.Offset,
			Context:    lexicon.Excerpt(content, m.Offset, markerContextWidth),
			Confidence: shiftMarkerConfidence,
		})
	}

	return markers
}
