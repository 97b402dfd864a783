package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuestion is returned when a caller supplies an empty or
// whitespace-only question.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// Question is a caller-supplied natural-language question about a transcript.
type Question struct {
	Text string `json:"question"`
	// Semantic requests the semantic matching path. Unset means true;
	// the keyword fallback still applies when the backend fails.
	Semantic *bool `json:"semantic,omitempty"`
}

// SemanticOrDefault returns whether semantic matching is preferred;
// defaults to true when unset.
func (q *Question) SemanticOrDefault() bool {
	if q.Semantic != nil {
		return *q.Semantic
	}
	return true
}

// Validate returns ErrEmptyQuestion for empty or whitespace-only questions.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuestion
	}
	return nil
}
