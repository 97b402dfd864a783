// Package keyword implements the deterministic lexical fallback matcher.
// It is a pure function of the question and segment texts, carries no
// external dependency, and is the contractual fallback whenever semantic
// matching is disabled, unavailable, or fails.
package keyword

import (
	"fmt"
	"strings"

	"github.com/hearclear/hearclear/internal/models"
	"github.com/hearclear/hearclear/pkg/utils"
)

// stopWords are common question words stripped before keyword extraction.
var stopWords = map[string]struct{}{
	"what": {}, "when": {}, "where": {}, "who": {}, "how": {}, "why": {},
	"is": {}, "are": {}, "did": {}, "do": {}, "does": {},
}

// minKeywordLen is the minimum token length kept as a keyword.
const minKeywordLen = 4

// Keywords extracts scoring keywords from a question: lower-cased,
// stop-word tokens removed, tokens shorter than four characters dropped.
// A nil result means the question carries no usable keywords.
func Keywords(question string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(question)) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if len(tok) >= minKeywordLen {
			out = append(out, tok)
		}
	}
	return out
}

// Match scores every segment by the count of distinct keywords occurring
// as substrings of its lower-cased text and selects the strictly highest
// score. Ties keep the first segment in transcript order; a top score of
// zero, or a question with zero keywords, is no match. Metadata records
// the keyword list and the raw score.
func Match(segments []models.Segment, question string) *models.MatchResult {
	keywords := Keywords(question)
	result := &models.MatchResult{
		Method: models.MethodKeywordFallback,
		Metadata: map[string]interface{}{
			"keywords": keywords,
			"score":    0,
		},
	}
	if len(keywords) == 0 {
		result.Reasoning = "no usable keywords in question"
		return result
	}

	var best *models.Segment
	bestScore := 0
	for i := range segments {
		text := strings.ToLower(segments[i].Text)
		score := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = &segments[i]
		}
	}
	result.Metadata["score"] = bestScore
	if best == nil {
		result.Reasoning = fmt.Sprintf("no segment matched any of %d keywords", len(keywords))
		return result
	}
	result.Segment = best
	result.Confidence = utils.Clamp01(float64(bestScore) / float64(len(keywords)))
	result.Reasoning = fmt.Sprintf("matched %d of %d keywords from the question", bestScore, len(keywords))
	return result
}
