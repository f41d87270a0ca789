package export

import (
	"strings"

	"github.com/threadworksco/strata/pkg/lexicon"
	"github.com/threadworksco/strata/pkg/thread"
)

const (
	hallucinationPenalty    = 15.0
	maxHallucinationDeduct  = 40.0
	assistantToneBaseline   = 75.0
	sentenceLengthLow       = 3.0
	sentenceLengthHigh      = 40.0
)

// ScoreConfidence computes the parse-time confidence score for one
// message. The overall score is a weighted blend: 40% the
// hallucination-adjusted base, 20% semantic consistency, 20% factual
// accuracy, 10% tone, 10% technical coherence.
func ScoreConfidence(role thread.Role, content string) thread.ConfidenceScore {
	base := 100.0
	if role == thread.RoleAssistant {
		deduct := float64(lexicon.CountMatches(content, lexicon.Hallucination)) * hallucinationPenalty
		base -= min(deduct, maxHallucinationDeduct)
	}

	score := thread.ConfidenceScore{
		CorrectionPresent:   role == thread.RoleUser && lexicon.ContainsAny(content, lexicon.Correction),
		SemanticConsistency: semanticConsistency(content),
		FactualAccuracy:     factualAccuracy(role, content),
		ToneConsistency:     toneConsistency(role, content),
		TechnicalCoherence:  technicalCoherence(content),
	}

	score.Overall = thread.Clamp(
		0.4*base +
			0.2*score.SemanticConsistency +
			0.2*score.FactualAccuracy +
			0.1*score.ToneConsistency +
			0.1*score.TechnicalCoherence,
	)

	return score
}

// semanticConsistency scores message length and sentence structure. Very
// short messages and degenerate sentence shapes (average sentence length
// outside a normal band) score lower.
func semanticConsistency(content string) float64 {
	words := strings.Fields(content)
	if len(words) < 3 {
		return 50
	}

	score := 85.0
	avg := averageSentenceLength(content)
	if avg < sentenceLengthLow || avg > sentenceLengthHigh {
		score -= 20
	}

	return thread.Clamp(score)
}

// factualAccuracy treats user messages as ground truth; assistant
// messages are penalized for overconfidence and uncited claims of
// citation.
func factualAccuracy(role thread.Role, content string) float64 {
	if role != thread.RoleAssistant {
		return 90
	}

	score := 85.0
	score -= float64(lexicon.CountMatches(content, lexicon.Overconfidence)) * 10
	score -= float64(lexicon.CountMatches(content, lexicon.CitationClaim)) * 10

	return thread.Clamp(score)
}

// toneConsistency scores user messages up for domain vocabulary;
// assistant messages get a fixed baseline.
func toneConsistency(role thread.Role, content string) float64 {
	if role == thread.RoleAssistant {
		return assistantToneBaseline
	}

	score := 70.0 + float64(lexicon.CountMatches(content, lexicon.Domain))*5
	return thread.Clamp(min(score, 95))
}

// technicalCoherence is boosted by technical vocabulary and penalized by
// impossible absolute claims.
func technicalCoherence(content string) float64 {
	score := 60.0
	score += float64(lexicon.CountMatches(content, lexicon.Technical)) * 8
	score = min(score, 95)
	score -= float64(lexicon.CountMatches(content, lexicon.Impossible)) * 15

	return thread.Clamp(score)
}

// averageSentenceLength returns the mean word count per sentence,
// splitting on terminal punctuation.
func averageSentenceLength(content string) float64 {
	sentences := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	count := 0
	total := 0
	for _, s := range sentences {
		words := len(strings.Fields(s))
		if words == 0 {
			continue
		}
		count++
		total += words
	}

	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}
