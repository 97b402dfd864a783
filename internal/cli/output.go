// Package cli provides CLI utilities for HearClear.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hearclear/hearclear/internal/models"
	"github.com/hearclear/hearclear/internal/timestamp"
	"github.com/hearclear/hearclear/pkg/utils"
)

// AnswerOutputFormat is the format for answer output.
type AnswerOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText AnswerOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON AnswerOutputFormat = "json"
)

// WriteAnswer writes an answer to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteAnswer(w io.Writer, result *models.AnswerResult, format AnswerOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		writeAnswerText(w, result)
		return nil
	}
}

func writeAnswerText(w io.Writer, result *models.AnswerResult) {
	if result.Segment == nil {
		fmt.Fprintf(w, "\n%s\n", result.Text)
		return
	}
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	method, _ := result.Metadata["match_method"].(string)
	fmt.Fprintf(w, "Confidence: %.2f | Method: %s\n", result.Confidence, method)
	if result.StartSeconds != nil && result.EndSeconds != nil {
		fmt.Fprintf(w, "Time: %s - %s\n",
			timestamp.Format(*result.StartSeconds), timestamp.Format(*result.EndSeconds))
	}
	if reasoning, ok := result.Metadata["reasoning"].(string); ok && reasoning != "" {
		fmt.Fprintf(w, "Reasoning: %s\n", utils.Truncate(reasoning, 200))
	}
	fmt.Fprintf(w, "\n%s\n", result.Text)
}
