package drift

import (
	"strings"

	"github.com/threadworksco/strata/pkg/lexicon"
	"github.com/threadworksco/strata/pkg/thread"
)

const (
	anchorExcerptWidth   = 100
	truthValueMaxLength  = 200
)

// ExtractAnchor derives a correction anchor from a user message that
// matches correction phrasing. Returns false when the message is not a
// correction.
func ExtractAnchor(msg *thread.Message) (thread.CorrectionAnchor, bool) {
	if msg.Role != thread.RoleUser {
		return thread.CorrectionAnchor{}, false
	}

	matches := lexicon.Matches(msg.Content, lexicon.Correction)
	if len(matches) == 0 {
		return thread.CorrectionAnchor{}, false
	}

	return thread.CorrectionAnchor{
		MessageID:  msg.ID,
		ThreadID:   msg.ThreadID,
		Category:   correctionCategory(msg.Content),
		Excerpt:    lexicon.Excerpt(msg.Content, matches[0].Offset, anchorExcerptWidth),
		TruthValue: extractTruthValue(msg.Content),
		Confidence: thread.AnchorConfidence,
		Timestamp:  msg.CreatedAt,
	}, true
}

// correctionCategory infers the correction category from keyword
// buckets, defaulting to factual.
func correctionCategory(content string) thread.CorrectionCategory {
	switch {
	case lexicon.ContainsAny(content, lexicon.StrategicWords):
		return thread.CorrectionStrategic
	case lexicon.ContainsAny(content, lexicon.TechnicalWords):
		return thread.CorrectionTechnical
	case lexicon.ContainsAny(content, lexicon.BehavioralWords):
		return thread.CorrectionBehavioral
	default:
		return thread.CorrectionFactual
	}
}

// extractTruthValue takes the clause trailing a truth lead-in phrase
// ("actually ...", "the correct answer is ..."), falling back to the
// first 100 characters of the message.
func extractTruthValue(content string) string {
	lower := strings.ToLower(content)

	for _, lead := range lexicon.TruthLeadIn {
		idx := strings.Index(lower, lead)
		if idx < 0 {
			continue
		}

		clause := strings.TrimSpace(content[idx+len(lead):])
		clause = strings.TrimLeft(clause, ",: ")
		if clause == "" {
			continue
		}

		// Stop at the end of the sentence.
		if end := strings.IndexAny(clause, ".!?\n"); end > 0 {
			clause = clause[:end]
		}
		if len(clause) > truthValueMaxLength {
			clause = clause[:truthValueMaxLength]
		}
		return clause
	}

	if len(content) > anchorExcerptWidth {
		return content[:anchorExcerptWidth]
	}
	return content
}
