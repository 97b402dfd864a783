// Package models defines the transcript data model and answer results.
package models

// Segment is one timestamped span of transcript text. Start and End are
// clock strings ("H:MM:SS" or "M:SS", fractional seconds allowed) as
// produced by the speech-to-text collaborator; Text may be empty.
type Segment struct {
	ID    int    `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// Transcript is an ordered sequence of segments for one recording,
// produced once by the speech-to-text collaborator and never mutated
// afterwards. Segments are ordered by non-decreasing start time; a
// transcript with zero segments is valid but yields no answers.
type Transcript struct {
	FileID    string    `json:"file_id"`
	Text      string    `json:"text,omitempty"`
	Segments  []Segment `json:"segments"`
	CreatedAt string    `json:"created_at,omitempty"`
}
