// Package lexicon holds the phrase tables used by the parser's confidence
// scoring and the drift analyzer's pattern detectors, plus small matching
// helpers. Keeping the tables in one place makes the heuristic nature of
// the scorers explicit and lets detectors be tested in isolation.
package lexicon

import "strings"

// Correction contains explicit disagreement or correction phrasing in
// user messages. A match is treated as a truth anchor.
var Correction = []string{
	"no, that's wrong",
	"that's not right",
	"that's incorrect",
	"you're wrong",
	"that's not what i said",
	"i never said",
	"let me correct",
	"correction:",
	"that should be",
	"actually, it",
	"actually, the",
	"not true",
}

// SemanticShift contains abrupt-transition phrasing.
var SemanticShift = []string{
	"on a different note",
	"changing topics",
	"switching gears",
	"completely unrelated",
	"forget all that",
	"never mind that",
	"anyway, moving on",
	"different subject",
}

// Hallucination contains overconfident absolutes and unverifiable memory
// claims that penalize assistant confidence.
var Hallucination = []string{
	"i remember when",
	"as i mentioned before",
	"we discussed earlier",
	"you told me",
	"i recall",
	"i'm 100% sure",
	"absolutely certain",
	"without a doubt",
	"i am certain that",
}

// Overconfidence contains absolute phrasing that penalizes the
// factual-accuracy estimate.
var Overconfidence = []string{
	"always",
	"never",
	"guaranteed",
	"certainly",
	"definitely",
	"absolutely",
	"100%",
	"no doubt",
	"every time",
}

// CitationClaim contains claims-of-citation phrasing without actual
// citations.
var CitationClaim = []string{
	"studies show",
	"research proves",
	"according to the data",
	"it is proven",
	"sources confirm",
	"experts agree",
}

// Limitation contains self-referential AI-limitation phrasing.
var Limitation = []string{
	"as an ai",
	"i cannot",
	"i'm unable to",
	"i don't have access",
	"my training data",
	"i'm just a language model",
	"i apologize, but i",
	"i don't have the ability",
}

// Domain contains vocabulary specific to the memory-archaeology domain.
var Domain = []string{
	"memory",
	"thread",
	"partition",
	"drift",
	"checkpoint",
	"archive",
	"pipeline",
	"quarantine",
	"sandbox",
	"audit",
	"rollback",
	"batch",
	"anchor",
}

// Technical contains general technical vocabulary that boosts the
// technical-coherence sub-score.
var Technical = []string{
	"database",
	"schema",
	"query",
	"index",
	"server",
	"protocol",
	"api",
	"json",
	"latency",
	"cache",
	"sqlite",
	"config",
	"function",
}

// Impossible contains logically impossible absolute technical claims.
var Impossible = []string{
	"never fails",
	"zero latency",
	"100% uptime",
	"cannot crash",
	"infinitely scalable",
	"perfectly accurate",
	"works every time",
	"no bugs",
}

// Formal and Informal contain register markers used by the formality
// scorer.
var Formal = []string{
	"therefore",
	"moreover",
	"furthermore",
	"consequently",
	"regarding",
	"nevertheless",
	"accordingly",
	"additionally",
}

var Informal = []string{
	"yeah",
	"gonna",
	"kinda",
	"lol",
	"btw",
	"dunno",
	"stuff",
	"cool",
	"hey",
	"nope",
}

// Positive and Negative contain the sentiment word lists used by the
// tone-drift detector.
var Positive = []string{
	"good",
	"great",
	"excellent",
	"thanks",
	"perfect",
	"love",
	"nice",
	"helpful",
	"works",
	"solved",
}

var Negative = []string{
	"bad",
	"wrong",
	"broken",
	"terrible",
	"hate",
	"annoying",
	"useless",
	"fails",
	"frustrated",
	"awful",
}

// TruthLeadIn contains the phrasing that introduces an extracted truth
// value in a correction message.
var TruthLeadIn = []string{
	"actually",
	"the correct answer is",
	"it should be",
	"the truth is",
	"in fact",
}

// Category keyword buckets for classifying correction anchors.
var (
	StrategicWords  = []string{"plan", "strategy", "goal", "priority", "roadmap", "approach"}
	TechnicalWords  = []string{"code", "bug", "database", "config", "server", "function", "error"}
	BehavioralWords = []string{"tone", "behave", "personality", "respond", "attitude", "style"}
)

// Match is one phrase occurrence in a piece of content.
type Match struct {
	Phrase string
	Offset int
}

// Matches returns every occurrence of any phrase in content. Matching is
// case-insensitive; each phrase is reported at most once, at its first
// occurrence.
func Matches(content string, phrases []string) []Match {
	lower := strings.ToLower(content)

	var found []Match
	for _, p := range phrases {
		if idx := strings.Index(lower, p); idx >= 0 {
			found = append(found, Match{Phrase: p, Offset: idx})
		}
	}
	return found
}

// CountMatches returns how many of the phrases occur in content at least once.
func CountMatches(content string, phrases []string) int {
	return len(Matches(content, phrases))
}

// ContainsAny reports whether any of the phrases occurs in content.
func ContainsAny(content string, phrases []string) bool {
	lower := strings.ToLower(content)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Excerpt returns up to width characters of content starting at offset,
// for use as marker or anchor context.
func Excerpt(content string, offset, width int) string {
	if offset < 0 || offset >= len(content) {
		return ""
	}
	end := min(offset+width, len(content))
	return content[offset:end]
}
