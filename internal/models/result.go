package models

// MatchMethod identifies which matching strategy produced a result.
type MatchMethod string

const (
	// MethodSemantic means the external language-understanding backend
	// selected the segment.
	MethodSemantic MatchMethod = "semantic"
	// MethodKeywordFallback means the deterministic lexical matcher
	// selected the segment (or declared no match).
	MethodKeywordFallback MatchMethod = "keyword_fallback"
)

// NoAnswerText is the answer text of a fully-populated "no answer" result.
const NoAnswerText = "No relevant answer found"

// MatchResult is the outcome of one matching strategy.
type MatchResult struct {
	Segment    *Segment
	Confidence float64
	Reasoning  string
	Method     MatchMethod
	Metadata   map[string]interface{}
}

// Matched reports whether the strategy selected a segment.
func (m *MatchResult) Matched() bool {
	return m != nil && m.Segment != nil
}

// AnswerResult is the externally visible result of answer resolution.
// It is constructed once per query and never mutated. StartSeconds and
// EndSeconds are only set when a segment was matched; Metadata always
// records "match_method".
type AnswerResult struct {
	Segment      *Segment               `json:"answer_segment"`
	Confidence   float64                `json:"confidence"`
	StartSeconds *float64               `json:"start_seconds,omitempty"`
	EndSeconds   *float64               `json:"end_seconds,omitempty"`
	Text         string                 `json:"text"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// AudioClip is a sliced answer clip in its original encoding. Ownership
// transfers to the caller; nothing here keeps a reference after returning it.
type AudioClip struct {
	Bytes        []byte  `json:"-"`
	Format       string  `json:"format"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}
